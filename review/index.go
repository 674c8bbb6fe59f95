package review

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// SearchMode selects how Query.Text is matched.
type SearchMode string

const (
	// SearchSubstring matches Text case-insensitively inside review text or summary.
	SearchSubstring SearchMode = ""
	// SearchBoolean evaluates terms joined by AND, OR and NOT from left to right.
	SearchBoolean SearchMode = "boolean"
	// SearchRanked orders reviews by TF-IDF cosine similarity to Text.
	SearchRanked SearchMode = "ranked"
)

// ParseSearchMode accepts "", "substring", "boolean" and "ranked" in any case.
func ParseSearchMode(s string) (SearchMode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "substring":
		return SearchSubstring, true
	case "boolean":
		return SearchBoolean, true
	case "ranked":
		return SearchRanked, true
	}
	return "", false
}

var stopWords = map[string]bool{}

func init() {
	for _, w := range strings.Fields(`a an and are as at be but by for from has have i in is it its
		my of on or so that the this to was were with very
		de la el en y que los las un una es por con para del al lo se su muy pero`) {
		stopWords[w] = true
	}
}

// tokenize lowercases text, splits on anything that is not a letter or digit and drops stop words.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if !stopWords[f] {
			out = append(out, f)
		}
	}
	return out
}

// Index is an inverted index over review text, summary and aspects.
// Documents keep the order they were added in, which breaks score ties.
type Index struct {
	docs     []*Review
	postings map[string]map[int]int // term -> doc -> term frequency
	vectors  []map[string]float64   // unit-length tf-idf vector per doc
}

func NewIndex(reviews []*Review) *Index {
	idx := &Index{docs: reviews, postings: map[string]map[int]int{}}
	for i, r := range reviews {
		terms := tokenize(r.Text + " " + r.Summary + " " + strings.Join(r.Aspects, " "))
		for _, t := range terms {
			if idx.postings[t] == nil {
				idx.postings[t] = map[int]int{}
			}
			idx.postings[t][i]++
		}
	}
	idx.vectors = make([]map[string]float64, len(reviews))
	for i := range idx.vectors {
		idx.vectors[i] = map[string]float64{}
	}
	for term, docs := range idx.postings {
		idf := idx.idf(term)
		for doc, tf := range docs {
			idx.vectors[doc][term] = (1 + math.Log(float64(tf))) * idf
		}
	}
	for _, v := range idx.vectors {
		normalizeVector(v)
	}
	return idx
}

// idf is smoothed so a term present in every document still carries weight.
func (idx *Index) idf(term string) float64 {
	n := float64(len(idx.docs))
	df := float64(len(idx.postings[term]))
	return math.Log((1+n)/(1+df)) + 1
}

func normalizeVector(v map[string]float64) {
	var sum float64
	for _, w := range v {
		sum += w * w
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for t, w := range v {
		v[t] = w / norm
	}
}

// Boolean evaluates query terms left to right. Operators are case-insensitive and
// apply to the following term; adjacent terms without an operator are ANDed.
// Terms that are stop words or empty after tokenizing are skipped.
func (idx *Index) Boolean(query string) []*Review {
	var result map[int]bool
	op := "AND"
	for _, word := range strings.Fields(query) {
		switch upper := strings.ToUpper(word); upper {
		case "AND", "OR", "NOT":
			op = upper
			continue
		}
		terms := tokenize(word)
		if len(terms) == 0 {
			continue
		}
		matched := idx.matchAll(terms)
		switch {
		case result == nil && op == "NOT":
			result = idx.allDocs()
			for d := range matched {
				delete(result, d)
			}
		case result == nil:
			result = matched
		case op == "AND":
			for d := range result {
				if !matched[d] {
					delete(result, d)
				}
			}
		case op == "OR":
			for d := range matched {
				result[d] = true
			}
		case op == "NOT":
			for d := range matched {
				delete(result, d)
			}
		}
		op = "AND"
	}

	var out []*Review
	for i, r := range idx.docs {
		if result[i] {
			out = append(out, r)
		}
	}
	return out
}

// matchAll returns docs containing every term; a word like "wi-fi" tokenizes to several.
func (idx *Index) matchAll(terms []string) map[int]bool {
	set := map[int]bool{}
	for d := range idx.postings[terms[0]] {
		set[d] = true
	}
	for _, t := range terms[1:] {
		for d := range set {
			if _, ok := idx.postings[t][d]; !ok {
				delete(set, d)
			}
		}
	}
	return set
}

func (idx *Index) allDocs() map[int]bool {
	set := make(map[int]bool, len(idx.docs))
	for i := range idx.docs {
		set[i] = true
	}
	return set
}

// Ranked scores every document by cosine similarity to query and returns those
// scoring above zero, best first, with Score set.
func (idx *Index) Ranked(query string) []*Review {
	qv := map[string]float64{}
	tf := map[string]int{}
	for _, t := range tokenize(query) {
		tf[t]++
	}
	for t, n := range tf {
		if _, known := idx.postings[t]; known {
			qv[t] = (1 + math.Log(float64(n))) * idx.idf(t)
		}
	}
	normalizeVector(qv)
	if len(qv) == 0 {
		return nil
	}

	type hit struct {
		doc   int
		score float64
	}
	var hits []hit
	for i, dv := range idx.vectors {
		var score float64
		for t, w := range qv {
			score += w * dv[t]
		}
		if score > 0 {
			hits = append(hits, hit{doc: i, score: score})
		}
	}
	sort.SliceStable(hits, func(a, b int) bool { return hits[a].score > hits[b].score })

	out := make([]*Review, len(hits))
	for i, h := range hits {
		r := *idx.docs[h.doc]
		r.Score = h.score
		out[i] = &r
	}
	return out
}
