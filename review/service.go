package review

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"review_analyzer/analyzer"
)

// ReviewAnalyzer is the slice of *analyzer.Analyzer the service depends on.
type ReviewAnalyzer interface {
	Analyze(ctx context.Context, text string) (analyzer.Result, error)
	Suggest(ctx context.Context, aspects analyzer.AspectBag) ([]string, error)
}

// ValidationError reports a bad request field other than the review text.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// CreateInput is a new review as submitted by a client.
type CreateInput struct {
	Product string `json:"product"`
	Text    string `json:"text"`
	Rating  int    `json:"rating"`
}

// Service analyzes, stores and aggregates reviews.
type Service struct {
	store    Store
	analyzer ReviewAnalyzer
	log      logrus.FieldLogger
	now      func() time.Time
}

func NewService(store Store, an ReviewAnalyzer, log logrus.FieldLogger) (*Service, error) {
	if store == nil || an == nil {
		return nil, errors.New("review store and analyzer are required")
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{store: store, analyzer: an, log: log, now: time.Now}, nil
}

// Create analyzes and stores one review. Analyzer errors are returned unchanged.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Review, error) {
	product := strings.TrimSpace(removeNullBytes(in.Product))
	if product == "" {
		return nil, &ValidationError{Field: "product", Reason: "is required"}
	}
	if in.Rating < 1 || in.Rating > 5 {
		return nil, &ValidationError{Field: "rating", Reason: "must be between 1 and 5"}
	}

	res, err := s.analyzer.Analyze(ctx, in.Text)
	if err != nil {
		return nil, err
	}

	r := &Review{
		ID:        uuid.NewString(),
		Product:   product,
		Text:      in.Text,
		Rating:    in.Rating,
		Sentiment: res.Sentiment,
		Aspects:   res.Aspects,
		Summary:   res.Summary,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.Save(ctx, r); err != nil {
		return nil, fmt.Errorf("save review: %w", err)
	}
	s.log.WithFields(logrus.Fields{"id": r.ID, "product": r.Product, "sentiment": r.Sentiment}).Info("review stored")
	return r, nil
}

func (s *Service) List(ctx context.Context, limit int) ([]*Review, error) {
	return s.store.List(ctx, limit)
}

// Search filters reviews. Substring mode is delegated to the store; boolean and
// ranked modes index the filtered reviews in memory on each call.
func (s *Service) Search(ctx context.Context, q Query) ([]*Review, error) {
	if q.Sentiment != "" && !q.Sentiment.Valid() {
		return nil, &ValidationError{Field: "sentiment", Reason: "must be positive, negative or neutral"}
	}
	switch q.Mode {
	case SearchSubstring:
		return s.store.Search(ctx, q)
	case SearchBoolean, SearchRanked:
	default:
		return nil, &ValidationError{Field: "search_type", Reason: "must be substring, boolean or ranked"}
	}
	if strings.TrimSpace(q.Text) == "" {
		return []*Review{}, nil
	}

	all, err := s.store.All(ctx)
	if err != nil {
		return nil, err
	}
	candidates := all[:0]
	for _, r := range all {
		if q.Sentiment != "" && r.Sentiment != q.Sentiment {
			continue
		}
		if q.MinRating > 0 && r.Rating < q.MinRating {
			continue
		}
		candidates = append(candidates, r)
	}

	idx := NewIndex(candidates)
	var out []*Review
	if q.Mode == SearchBoolean {
		out = idx.Boolean(q.Text)
	} else {
		out = idx.Ranked(q.Text)
	}
	if limit := limitOrDefault(q.Limit); len(out) > limit {
		out = out[:limit]
	}
	s.log.WithFields(logrus.Fields{"mode": q.Mode, "indexed": len(candidates), "hits": len(out)}).Debug("index search")
	return out, nil
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	return s.store.Stats(ctx)
}

// Aspects gathers the aspects of a product's positive and negative reviews. Neutral reviews are ignored.
func (s *Service) Aspects(ctx context.Context, product string) (analyzer.AspectBag, error) {
	reviews, err := s.store.ByProduct(ctx, product)
	if err != nil {
		return analyzer.AspectBag{}, err
	}
	return CollectAspects(reviews), nil
}

// CollectAspects builds an AspectBag from stored reviews.
func CollectAspects(reviews []*Review) analyzer.AspectBag {
	bag := analyzer.AspectBag{Positive: []string{}, Negative: []string{}}
	for _, r := range reviews {
		switch r.Sentiment {
		case analyzer.Positive:
			bag.Positive = append(bag.Positive, r.Aspects...)
		case analyzer.Negative:
			bag.Negative = append(bag.Negative, r.Aspects...)
		}
	}
	return bag
}

// Suggestions asks the analyzer for improvements based on a product's stored reviews.
func (s *Service) Suggestions(ctx context.Context, product string) ([]string, error) {
	bag, err := s.Aspects(ctx, product)
	if err != nil {
		return nil, err
	}
	return s.analyzer.Suggest(ctx, bag)
}
