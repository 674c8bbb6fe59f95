package review

import (
	"context"
	"errors"
	"time"

	"review_analyzer/analyzer"
)

// DefaultLimit caps list and search results.
const DefaultLimit = 20

var ErrNotFound = errors.New("review not found")

// Review is a stored review together with its analysis.
type Review struct {
	ID        string             `json:"id"`
	Product   string             `json:"product"`
	Text      string             `json:"text"`
	Rating    int                `json:"rating"`
	Sentiment analyzer.Sentiment `json:"sentiment"`
	Aspects   []string           `json:"aspects"`
	Summary   string             `json:"summary"`
	CreatedAt time.Time          `json:"created_at"`
	// Score is set by ranked search only and is never stored.
	Score     float64            `json:"score,omitempty"`
}

// Query filters a search. Zero fields do not filter.
type Query struct {
	Text      string
	Mode      SearchMode
	Sentiment analyzer.Sentiment
	MinRating int
	Limit     int
}

// Stats aggregates all stored reviews.
type Stats struct {
	TotalReviews          int                        `json:"total_reviews"`
	AverageRating         float64                    `json:"average_rating"`
	SentimentDistribution map[analyzer.Sentiment]int `json:"sentiment_distribution"`
}

// Store persists reviews. Listing methods return newest first.
type Store interface {
	Save(ctx context.Context, r *Review) error
	List(ctx context.Context, limit int) ([]*Review, error)
	Search(ctx context.Context, q Query) ([]*Review, error)
	ByProduct(ctx context.Context, product string) ([]*Review, error)
	All(ctx context.Context) ([]*Review, error)
	Stats(ctx context.Context) (Stats, error)
	Close() error
}

func limitOrDefault(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return limit
}
