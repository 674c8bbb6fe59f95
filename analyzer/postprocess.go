package analyzer

import (
	"strings"

	"github.com/tidwall/gjson"
)

// ExtractJSON recovers a JSON object from raw model output.
// The trimmed response is parsed as-is first; failing that, the first brace-delimited span is tried.
func ExtractJSON(raw string) (gjson.Result, error) {
	if obj, ok := parseDirect(strings.TrimSpace(raw)); ok {
		return obj, nil
	}
	if obj, ok := parseBraceSpan(raw); ok {
		return obj, nil
	}
	return gjson.Result{}, &MalformedResponseError{Raw: raw, Reason: "no JSON object found"}
}

func parseDirect(s string) (gjson.Result, bool) {
	if s == "" || !gjson.Valid(s) {
		return gjson.Result{}, false
	}
	obj := gjson.Parse(s)
	if !obj.IsObject() {
		return gjson.Result{}, false
	}
	return obj, true
}

// parseBraceSpan tries the first '{' up to its matching '}', then up to the last '}'.
func parseBraceSpan(s string) (gjson.Result, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return gjson.Result{}, false
	}
	if end := matchingBrace(s, start); end > start {
		if obj, ok := parseDirect(s[start : end+1]); ok {
			return obj, true
		}
	}
	if last := strings.LastIndexByte(s, '}'); last > start {
		return parseDirect(s[start : last+1])
	}
	return gjson.Result{}, false
}

// matchingBrace returns the index of the '}' closing the '{' at start, skipping string literals.
func matchingBrace(s string, start int) int {
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// checkFields reports every required field that is absent or has the wrong JSON type.
func checkFields(obj gjson.Result) []string {
	var bad []string
	if obj.Get("sentiment").Type != gjson.String {
		bad = append(bad, "sentiment")
	}
	if !obj.Get("aspects").IsArray() {
		bad = append(bad, "aspects")
	}
	if obj.Get("summary").Type != gjson.String {
		bad = append(bad, "summary")
	}
	return bad
}

// normalize coerces present-but-off-contract values. It never fails; the returned
// notes name each correction applied.
func normalize(obj gjson.Result) (Result, []string) {
	var notes []string

	sentiment := Sentiment(strings.ToLower(strings.TrimSpace(obj.Get("sentiment").String())))
	if !sentiment.Valid() {
		notes = append(notes, "sentiment coerced to neutral")
		sentiment = Neutral
	}

	items := obj.Get("aspects").Array()
	aspects := make([]string, 0, len(items))
	for _, item := range items {
		if item.Type != gjson.String {
			continue
		}
		if a := strings.TrimSpace(item.Str); a != "" {
			aspects = append(aspects, a)
		}
	}
	if len(aspects) < len(items) {
		notes = append(notes, "dropped blank or non-string aspects")
	}
	if len(aspects) == 0 {
		notes = append(notes, "aspects defaulted")
		aspects = []string{DefaultAspect}
	}

	summary := strings.TrimSpace(obj.Get("summary").String())
	if summary == "" {
		notes = append(notes, "summary defaulted")
		summary = NoSummary
	}

	return Result{Sentiment: sentiment, Aspects: aspects, Summary: summary}, notes
}

// parseAnalysis runs extraction, field validation and normalization on raw model output.
// The notes name each normalization correction applied.
func parseAnalysis(raw string) (Result, []string, error) {
	obj, err := ExtractJSON(raw)
	if err != nil {
		return Result{}, nil, err
	}
	if bad := checkFields(obj); len(bad) > 0 {
		return Result{}, nil, &MalformedResponseError{Raw: raw, Reason: "missing or ill-typed fields", Fields: bad}
	}
	res, notes := normalize(obj)
	return res, notes, nil
}

// SplitSuggestions breaks free-form model output into non-blank lines.
func SplitSuggestions(raw string) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// DecorateSuggestions appends marker to each line; it is a presentation step kept apart from splitting.
func DecorateSuggestions(lines []string, marker string) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = line + marker
	}
	return out
}
