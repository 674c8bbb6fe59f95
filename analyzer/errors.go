package analyzer

import (
	"fmt"
	"strings"
)

// InvalidInputError is returned before any backend call when the review text is unusable.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return "invalid review text: " + e.Reason
}

// UpstreamError wraps a failed backend call (transport, auth, quota).
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: upstream call failed: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// MalformedResponseError means the backend answered but no usable payload could be recovered.
// Raw holds the untouched model output for diagnostics.
type MalformedResponseError struct {
	Raw    string
	Reason string
	Fields []string
}

func (e *MalformedResponseError) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("malformed model response: %s (%s)", e.Reason, strings.Join(e.Fields, ", "))
	}
	return "malformed model response: " + e.Reason
}
