package review

import (
	"context"
	"sort"
	"strings"
	"sync"

	"review_analyzer/analyzer"
)

// MemoryStore keeps reviews in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	reviews []*Review
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Save(_ context.Context, r *Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	cp.Aspects = append([]string(nil), r.Aspects...)
	s.reviews = append(s.reviews, &cp)
	return nil
}

func (s *MemoryStore) List(ctx context.Context, limit int) ([]*Review, error) {
	return s.Search(ctx, Query{Limit: limit})
}

func (s *MemoryStore) Search(_ context.Context, q Query) ([]*Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	needle := strings.ToLower(strings.TrimSpace(q.Text))
	var out []*Review
	for i := len(s.reviews) - 1; i >= 0; i-- {
		r := s.reviews[i]
		if q.Sentiment != "" && r.Sentiment != q.Sentiment {
			continue
		}
		if q.MinRating > 0 && r.Rating < q.MinRating {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(r.Text), needle) &&
			!strings.Contains(strings.ToLower(r.Summary), needle) {
			continue
		}
		out = append(out, r)
	}
	return newestFirst(out, limitOrDefault(q.Limit)), nil
}

func (s *MemoryStore) ByProduct(_ context.Context, product string) ([]*Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Review
	for i := len(s.reviews) - 1; i >= 0; i-- {
		r := s.reviews[i]
		if r.Product == product {
			out = append(out, r)
		}
	}
	return newestFirst(out, len(out)), nil
}

func (s *MemoryStore) All(_ context.Context) ([]*Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Review, 0, len(s.reviews))
	for i := len(s.reviews) - 1; i >= 0; i-- {
		out = append(out, s.reviews[i])
	}
	return newestFirst(out, len(out)), nil
}

func (s *MemoryStore) Stats(_ context.Context) (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Stats{SentimentDistribution: map[analyzer.Sentiment]int{}}
	sum := 0
	for _, r := range s.reviews {
		st.TotalReviews++
		sum += r.Rating
		st.SentimentDistribution[r.Sentiment]++
	}
	if st.TotalReviews > 0 {
		st.AverageRating = float64(sum) / float64(st.TotalReviews)
	}
	return st, nil
}

func (s *MemoryStore) Close() error { return nil }

// newestFirst sorts by CreatedAt descending, keeping input order on ties, and returns copies.
func newestFirst(in []*Review, limit int) []*Review {
	sort.SliceStable(in, func(i, j int) bool { return in[i].CreatedAt.After(in[j].CreatedAt) })
	if len(in) > limit {
		in = in[:limit]
	}
	out := make([]*Review, len(in))
	for i, r := range in {
		cp := *r
		cp.Aspects = append([]string(nil), r.Aspects...)
		out[i] = &cp
	}
	return out
}
