package analyzer

import (
	"context"
	"encoding/json"
	"strings"
)

// MockLLM is an offline stand-in for local debugging; it never calls an external model.
type MockLLM struct{}

func (m MockLLM) Complete(_ context.Context, prompt Prompt, _ GenerationParams) (string, error) {
	if prompt.Task == TaskSuggestions {
		return "Publish a troubleshooting guide for the most reported problems.\n" +
			"Prioritise fixes for the negative aspects in the next release.\n" +
			"Highlight the praised aspects in product descriptions.\n", nil
	}

	// A crude keyword vote, wrapped in prose to exercise the extraction path.
	lower := strings.ToLower(prompt.User)
	sentiment := Neutral
	pos := strings.Count(lower, "good") + strings.Count(lower, "great") + strings.Count(lower, "love")
	neg := strings.Count(lower, "bad") + strings.Count(lower, "poor") + strings.Count(lower, "broken")
	switch {
	case pos > neg:
		sentiment = Positive
	case neg > pos:
		sentiment = Negative
	}
	out, _ := json.Marshal(Result{
		Sentiment: sentiment,
		Aspects:   []string{DefaultAspect},
		Summary:   "Offline mock analysis.",
	})
	return "Here is the analysis:\n" + string(out) + "\n", nil
}
