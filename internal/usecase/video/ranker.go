package video

import (
	"slices"
	"strings"

	"github.com/visually/visually-api/internal/domain/entities"
)

// RelevanceThreshold is the minimum relevance a term needs to be searched
const RelevanceThreshold = 0.6

type candidate struct {
	kind      entities.TermKind
	text      string
	relevance *float64
}

// RankTerms merges keywords, entities, concepts and categories into a single
// list of search terms, most relevant first. Terms without a relevance or at
// or below RelevanceThreshold are dropped. Ties keep their source order.
func RankTerms(results *entities.AnalysisResults) []entities.RankedTerm {
	if results == nil {
		return nil
	}

	candidates := make([]candidate, 0,
		len(results.Keywords)+len(results.Entities)+len(results.Concepts)+len(results.Categories))
	for _, k := range results.Keywords {
		candidates = append(candidates, candidate{entities.TermKindKeyword, k.Text, k.Relevance})
	}
	for _, e := range results.Entities {
		candidates = append(candidates, candidate{entities.TermKindEntity, e.Text, e.Relevance})
	}
	for _, c := range results.Concepts {
		candidates = append(candidates, candidate{entities.TermKindConcept, c.Text, c.Relevance})
	}
	for _, c := range results.Categories {
		// categories carry a label and a score instead of a text and a relevance
		candidates = append(candidates, candidate{entities.TermKindCategory, categoryLeaf(c.Label), c.Score})
	}

	slices.SortStableFunc(candidates, compareRelevance)

	ranked := make([]entities.RankedTerm, 0, len(candidates))
	for _, c := range candidates {
		if c.relevance == nil || !(*c.relevance > RelevanceThreshold) {
			continue
		}
		if strings.TrimSpace(c.text) == "" {
			continue
		}
		ranked = append(ranked, entities.RankedTerm{
			Kind:      c.kind,
			Text:      c.text,
			Relevance: *c.relevance,
		})
	}
	return ranked
}

// Rank returns a copy of sentence carrying results and the ranked terms
func Rank(sentence entities.Sentence, results *entities.AnalysisResults) entities.Sentence {
	sentence.Analysis = entities.Analysis{
		Results: results,
		Rank:    RankTerms(results),
	}
	return sentence
}

// compareRelevance orders by descending relevance. Candidates without a
// comparable relevance sort after the others.
func compareRelevance(a, b candidate) int {
	switch {
	case a.relevance == nil && b.relevance == nil:
		return 0
	case a.relevance == nil:
		return 1
	case b.relevance == nil:
		return -1
	case *a.relevance > *b.relevance:
		return -1
	case *a.relevance < *b.relevance:
		return 1
	default:
		return 0
	}
}

// categoryLeaf turns "/art and entertainment/movies" into "movies"
func categoryLeaf(label string) string {
	trimmed := strings.Trim(strings.TrimSpace(label), "/")
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		return trimmed[i+1:]
	}
	return trimmed
}
