package video

import (
	"testing"

	"github.com/visually/visually-api/internal/domain/entities"
)

func TestRankTerms_MergesFiltersAndSorts(t *testing.T) {
	results := &entities.AnalysisResults{
		Keywords: []entities.KeywordResult{
			{Text: "sunrise", Relevance: ptr(0.9)},
			{Text: "morning", Relevance: ptr(0.5)},
		},
		Entities: []entities.EntityResult{
			{Type: "Location", Text: "Amazon", Relevance: ptr(0.95)},
		},
		Concepts: []entities.ConceptResult{
			{Text: "Rainforest"},
		},
		Categories: []entities.CategoryResult{
			{Label: "/science/weather", Score: ptr(0.7)},
		},
	}

	got := RankTerms(results)
	want := []entities.RankedTerm{
		{Kind: entities.TermKindEntity, Text: "Amazon", Relevance: 0.95},
		{Kind: entities.TermKindKeyword, Text: "sunrise", Relevance: 0.9},
		{Kind: entities.TermKindCategory, Text: "weather", Relevance: 0.7},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d terms, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("term %d = %+v, want %+v", i, got[i], want[i])
		}
	}
	for i := 1; i < len(got); i++ {
		if got[i].Relevance > got[i-1].Relevance {
			t.Errorf("terms not sorted at %d", i)
		}
	}
}

func TestRankTerms_ThresholdIsExclusive(t *testing.T) {
	results := &entities.AnalysisResults{
		Keywords: []entities.KeywordResult{
			{Text: "edge", Relevance: ptr(RelevanceThreshold)},
			{Text: "above", Relevance: ptr(0.61)},
		},
	}
	got := RankTerms(results)
	if len(got) != 1 || got[0].Text != "above" {
		t.Fatalf("unexpected terms: %+v", got)
	}
}

func TestRankTerms_TiesKeepSourceOrder(t *testing.T) {
	results := &entities.AnalysisResults{
		Keywords: []entities.KeywordResult{{Text: "first", Relevance: ptr(0.8)}},
		Entities: []entities.EntityResult{{Text: "second", Relevance: ptr(0.8)}},
		Concepts: []entities.ConceptResult{{Text: "third", Relevance: ptr(0.8)}},
	}
	got := RankTerms(results)
	if len(got) != 3 {
		t.Fatalf("expected 3 terms, got %d", len(got))
	}
	for i, text := range []string{"first", "second", "third"} {
		if got[i].Text != text {
			t.Errorf("term %d = %q, want %q", i, got[i].Text, text)
		}
	}
}

func TestRankTerms_Empty(t *testing.T) {
	if got := RankTerms(nil); len(got) != 0 {
		t.Errorf("expected no terms for nil results, got %+v", got)
	}
	if got := RankTerms(&entities.AnalysisResults{}); len(got) != 0 {
		t.Errorf("expected no terms for empty results, got %+v", got)
	}
}

func TestRank_ReturnsNewSentence(t *testing.T) {
	sentence := entities.Sentence{Transcript: "a forest. ", Duration: 8}
	results := &entities.AnalysisResults{
		Keywords: []entities.KeywordResult{{Text: "forest", Relevance: ptr(0.99)}},
	}

	ranked := Rank(sentence, results)
	if len(sentence.Analysis.Rank) != 0 {
		t.Error("input sentence must not be modified")
	}
	if ranked.Analysis.Results != results {
		t.Error("ranked sentence should carry the raw results")
	}
	if len(ranked.Analysis.Rank) != 1 || ranked.Analysis.Rank[0].Text != "forest" {
		t.Errorf("unexpected rank: %+v", ranked.Analysis.Rank)
	}
}

func TestCategoryLeaf(t *testing.T) {
	cases := map[string]string{
		"/art and entertainment/movies": "movies",
		"/science":                      "science",
		"plain":                         "plain",
		"/":                             "",
	}
	for in, want := range cases {
		if got := categoryLeaf(in); got != want {
			t.Errorf("categoryLeaf(%q) = %q, want %q", in, got, want)
		}
	}
}
