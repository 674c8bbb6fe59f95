package review

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"review_analyzer/analyzer"
)

const schema = `
CREATE TABLE IF NOT EXISTS reviews (
	id         TEXT PRIMARY KEY,
	product    TEXT NOT NULL,
	text       TEXT NOT NULL,
	rating     INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
	sentiment  TEXT NOT NULL,
	aspects    TEXT[] NOT NULL DEFAULT '{}',
	summary    TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS reviews_product_idx ON reviews (product);
CREATE INDEX IF NOT EXISTS reviews_created_at_idx ON reviews (created_at DESC);
`

const selectColumns = `SELECT id, product, text, rating, sentiment, aspects, summary, created_at FROM reviews`

// PostgresStore persists reviews in PostgreSQL through lib/pq.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore connects, pings and creates the schema if needed.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init reviews table: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) Save(ctx context.Context, r *Review) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reviews (id, product, text, rating, sentiment, aspects, summary, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		r.ID, removeNullBytes(r.Product), removeNullBytes(r.Text), r.Rating, string(r.Sentiment),
		pq.Array(cleanAspects(r.Aspects)), removeNullBytes(r.Summary), r.CreatedAt)
	return err
}

func cleanAspects(aspects []string) []string {
	out := make([]string, len(aspects))
	for i, a := range aspects {
		out[i] = removeNullBytes(a)
	}
	return out
}

func (s *PostgresStore) List(ctx context.Context, limit int) ([]*Review, error) {
	return s.Search(ctx, Query{Limit: limit})
}

func (s *PostgresStore) Search(ctx context.Context, q Query) ([]*Review, error) {
	query, args := buildSearchQuery(q)
	return s.query(ctx, query, args...)
}

func (s *PostgresStore) ByProduct(ctx context.Context, product string) ([]*Review, error) {
	return s.query(ctx, selectColumns+` WHERE product = $1 ORDER BY created_at DESC`, product)
}

func (s *PostgresStore) All(ctx context.Context) ([]*Review, error) {
	return s.query(ctx, selectColumns+` ORDER BY created_at DESC`)
}

func (s *PostgresStore) Stats(ctx context.Context) (Stats, error) {
	st := Stats{SentimentDistribution: map[analyzer.Sentiment]int{}}
	rows, err := s.db.QueryContext(ctx, `SELECT sentiment, COUNT(*), COALESCE(SUM(rating), 0) FROM reviews GROUP BY sentiment`)
	if err != nil {
		return Stats{}, err
	}
	defer rows.Close()

	sum := 0
	for rows.Next() {
		var sentiment string
		var count, ratings int
		if err := rows.Scan(&sentiment, &count, &ratings); err != nil {
			return Stats{}, err
		}
		st.SentimentDistribution[analyzer.Sentiment(sentiment)] = count
		st.TotalReviews += count
		sum += ratings
	}
	if err := rows.Err(); err != nil {
		return Stats{}, err
	}
	if st.TotalReviews > 0 {
		st.AverageRating = float64(sum) / float64(st.TotalReviews)
	}
	return st, nil
}

func (s *PostgresStore) query(ctx context.Context, query string, args ...any) ([]*Review, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Review
	for rows.Next() {
		var r Review
		var sentiment string
		if err := rows.Scan(&r.ID, &r.Product, &r.Text, &r.Rating, &sentiment,
			pq.Array(&r.Aspects), &r.Summary, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.Sentiment = analyzer.Sentiment(sentiment)
		out = append(out, &r)
	}
	return out, rows.Err()
}

// buildSearchQuery renders the filters of q as positional-parameter SQL.
func buildSearchQuery(q Query) (string, []any) {
	var where []string
	var args []any
	if text := strings.TrimSpace(q.Text); text != "" {
		args = append(args, "%"+escapeLike(text)+"%")
		where = append(where, fmt.Sprintf("(text ILIKE $%d OR summary ILIKE $%d)", len(args), len(args)))
	}
	if q.Sentiment != "" {
		args = append(args, string(q.Sentiment))
		where = append(where, fmt.Sprintf("sentiment = $%d", len(args)))
	}
	if q.MinRating > 0 {
		args = append(args, q.MinRating)
		where = append(where, fmt.Sprintf("rating >= $%d", len(args)))
	}

	var sb strings.Builder
	sb.WriteString(selectColumns)
	if len(where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(where, " AND "))
	}
	args = append(args, limitOrDefault(q.Limit))
	fmt.Fprintf(&sb, " ORDER BY created_at DESC LIMIT $%d", len(args))
	return sb.String(), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// PostgreSQL text columns reject NUL bytes.
func removeNullBytes(s string) string {
	return strings.ReplaceAll(s, "\x00", "")
}
