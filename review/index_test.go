package review

import (
	"reflect"
	"testing"
)

func ids(reviews []*Review) []string {
	out := []string{}
	for _, r := range reviews {
		out = append(out, r.ID)
	}
	return out
}

func sampleIndex() *Index {
	return NewIndex([]*Review{
		{ID: "r1", Text: "Battery lasts all day, great screen"},
		{ID: "r2", Text: "Screen cracked and the battery is weak"},
		{ID: "r3", Text: "Terrible speaker", Aspects: []string{"audio"}},
	})
}

func TestTokenize(t *testing.T) {
	got := tokenize("Great, GREAT screen! Wi-Fi de la casa")
	want := []string{"great", "great", "screen", "wi", "fi", "casa"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("tokenize() = %q, want %q", got, want)
	}
}

func TestIndexBoolean(t *testing.T) {
	idx := sampleIndex()
	tests := []struct {
		query string
		want  []string
	}{
		{query: "battery AND screen", want: []string{"r1", "r2"}},
		{query: "Battery screen", want: []string{"r1", "r2"}},
		{query: "battery NOT weak", want: []string{"r1"}},
		{query: "speaker or cracked", want: []string{"r2", "r3"}},
		{query: "NOT battery", want: []string{"r3"}},
		{query: "audio", want: []string{"r3"}},
		{query: "battery AND missing", want: []string{}},
		{query: "the", want: []string{}},
	}
	for _, tt := range tests {
		if got := ids(idx.Boolean(tt.query)); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Boolean(%q) = %v, want %v", tt.query, got, tt.want)
		}
	}
}

func TestIndexRanked(t *testing.T) {
	idx := sampleIndex()
	got := idx.Ranked("weak battery")
	if !reflect.DeepEqual(ids(got), []string{"r2", "r1"}) {
		t.Fatalf("Ranked() = %v, want [r2 r1]", ids(got))
	}
	if !(got[0].Score > got[1].Score && got[1].Score > 0) {
		t.Errorf("scores = %v, %v; want descending and positive", got[0].Score, got[1].Score)
	}
	if got[0].Score > 1.0000001 {
		t.Errorf("cosine score %v exceeds 1", got[0].Score)
	}
	if idx.docs[1].Score != 0 {
		t.Error("Ranked() mutated indexed reviews")
	}
	if got := idx.Ranked("unknown words"); len(got) != 0 {
		t.Errorf("Ranked(unknown) = %v, want none", ids(got))
	}
}

func TestIndexRankedSingleDocument(t *testing.T) {
	idx := NewIndex([]*Review{{ID: "only", Text: "battery"}})
	if got := ids(idx.Ranked("battery")); !reflect.DeepEqual(got, []string{"only"}) {
		t.Errorf("Ranked() = %v, want [only]", got)
	}
}

func TestParseSearchMode(t *testing.T) {
	for in, want := range map[string]SearchMode{"": SearchSubstring, "substring": SearchSubstring, "Boolean": SearchBoolean, " ranked ": SearchRanked} {
		if got, ok := ParseSearchMode(in); !ok || got != want {
			t.Errorf("ParseSearchMode(%q) = %q, %v; want %q", in, got, ok, want)
		}
	}
	if _, ok := ParseSearchMode("fuzzy"); ok {
		t.Error("ParseSearchMode(fuzzy) accepted")
	}
}
