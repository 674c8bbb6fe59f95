package review

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/yuin/goldmark"

	"review_analyzer/analyzer"
)

// ProductReport is a human-readable digest of one product's reviews.
type ProductReport struct {
	Product     string   `json:"product"`
	Reviews     int      `json:"reviews"`
	Suggestions []string `json:"suggestions"`
	Markdown    string   `json:"markdown"`
	HTML        string   `json:"html"`
}

// Report renders stats, recurring aspects and suggestions for product as Markdown and HTML.
// A product without reviews yields ErrNotFound.
func (s *Service) Report(ctx context.Context, product string) (*ProductReport, error) {
	reviews, err := s.store.ByProduct(ctx, product)
	if err != nil {
		return nil, err
	}
	if len(reviews) == 0 {
		return nil, ErrNotFound
	}

	suggestions, err := s.analyzer.Suggest(ctx, CollectAspects(reviews))
	if err != nil {
		return nil, err
	}

	md := renderMarkdown(product, reviews, suggestions)
	html, err := mdToHTML(md)
	if err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	return &ProductReport{
		Product:     product,
		Reviews:     len(reviews),
		Suggestions: suggestions,
		Markdown:    md,
		HTML:        html,
	}, nil
}

func renderMarkdown(product string, reviews []*Review, suggestions []string) string {
	counts := map[analyzer.Sentiment]int{}
	sum := 0
	for _, r := range reviews {
		counts[r.Sentiment]++
		sum += r.Rating
	}
	bag := CollectAspects(reviews)

	var sb strings.Builder
	fmt.Fprintf(&sb, "# Review report: %s\n\n", product)
	fmt.Fprintf(&sb, "%d reviews, average rating %.1f.\n\n", len(reviews), float64(sum)/float64(len(reviews)))
	sb.WriteString("## Sentiment\n\n")
	for _, s := range analyzer.Sentiments {
		fmt.Fprintf(&sb, "- %s: %d\n", s, counts[s])
	}
	writeAspectSection(&sb, "Praised aspects", bag.Positive)
	writeAspectSection(&sb, "Criticised aspects", bag.Negative)
	if len(suggestions) > 0 {
		sb.WriteString("\n## Suggestions\n\n")
		for i, sg := range suggestions {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, sg)
		}
	}
	return sb.String()
}

func writeAspectSection(sb *strings.Builder, title string, aspects []string) {
	if len(aspects) == 0 {
		return
	}
	fmt.Fprintf(sb, "\n## %s\n\n", title)
	for _, ac := range rankAspects(aspects) {
		fmt.Fprintf(sb, "- %s (%d)\n", ac.aspect, ac.count)
	}
}

type aspectCount struct {
	aspect string
	count  int
}

// rankAspects counts case-insensitively, keeping the first spelling seen, most frequent first.
func rankAspects(aspects []string) []aspectCount {
	index := map[string]int{}
	var out []aspectCount
	for _, a := range aspects {
		key := strings.ToLower(a)
		if i, ok := index[key]; ok {
			out[i].count++
			continue
		}
		index[key] = len(out)
		out = append(out, aspectCount{aspect: a, count: 1})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].count > out[j].count })
	return out
}

func mdToHTML(md string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
