package entities

// AnalysisResults is the raw payload returned by the text-analysis service.
// Field names follow the Natural Language Understanding wire format.
type AnalysisResults struct {
	Language   string           `json:"language,omitempty"`
	Keywords   []KeywordResult  `json:"keywords,omitempty"`
	Entities   []EntityResult   `json:"entities,omitempty"`
	Concepts   []ConceptResult  `json:"concepts,omitempty"`
	Categories []CategoryResult `json:"categories,omitempty"`
}

// KeywordResult is an important keyword in the analysed text
type KeywordResult struct {
	Text      string   `json:"text"`
	Relevance *float64 `json:"relevance,omitempty"`
	Count     int      `json:"count,omitempty"`
}

// EntityResult is a named entity (person, place, organisation, ...)
type EntityResult struct {
	Type      string   `json:"type,omitempty"`
	Text      string   `json:"text"`
	Relevance *float64 `json:"relevance,omitempty"`
	Count     int      `json:"count,omitempty"`
}

// ConceptResult is a high-level concept the text relates to
type ConceptResult struct {
	Text            string   `json:"text"`
	Relevance       *float64 `json:"relevance,omitempty"`
	DBpediaResource string   `json:"dbpedia_resource,omitempty"`
}

// CategoryResult is a hierarchical category such as "/science/weather".
// It carries a score instead of a relevance.
type CategoryResult struct {
	Label string   `json:"label"`
	Score *float64 `json:"score,omitempty"`
}

// TermKind tags which analysis signal produced a ranked term
type TermKind string

const (
	TermKindKeyword  TermKind = "keyword"
	TermKindEntity   TermKind = "entity"
	TermKindConcept  TermKind = "concept"
	TermKindCategory TermKind = "category"
)

// RankedTerm is a candidate footage search phrase
type RankedTerm struct {
	Kind      TermKind `json:"kind"`
	Text      string   `json:"text"`
	Relevance float64  `json:"relevance"`
}

// Analysis holds the semantic analysis of a sentence and the terms derived from it
type Analysis struct {
	Results         *AnalysisResults `json:"results,omitempty"`
	Rank            []RankedTerm     `json:"rank,omitempty"`
	FetchedVideoFor *RankedTerm      `json:"fetched_video_for,omitempty"`
}
