package analyzer

// Sentiment is the overall polarity of a review.
type Sentiment string

const (
	Positive Sentiment = "positive"
	Negative Sentiment = "negative"
	Neutral  Sentiment = "neutral"
)

// Sentiments lists the permitted labels in prompt order.
var Sentiments = []Sentiment{Positive, Negative, Neutral}

// Valid reports whether s is one of the permitted labels.
func (s Sentiment) Valid() bool {
	for _, v := range Sentiments {
		if s == v {
			return true
		}
	}
	return false
}

const (
	// DefaultAspect replaces an aspect list that is empty after cleanup.
	DefaultAspect = "general"
	// NoSummary replaces a summary that is blank after trimming.
	NoSummary = "No summary provided"
	// DefaultSuggestionMarker is appended to every suggestion line.
	DefaultSuggestionMarker = " 💡"
)

// Result is the normalized analysis of one review.
type Result struct {
	Sentiment Sentiment `json:"sentiment"`
	Aspects   []string  `json:"aspects"`
	Summary   string    `json:"summary"`
}

// AspectBag groups aspects collected from positive and negative reviews.
type AspectBag struct {
	Positive []string `json:"positive"`
	Negative []string `json:"negative"`
}
