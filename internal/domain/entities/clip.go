package entities

// Clip is a piece of stock footage selected for a sentence
type Clip struct {
	ID              int64   `json:"id,omitempty"`
	SourceURL       string  `json:"source_url"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// StoredObject is an object written to cloud storage
type StoredObject struct {
	Location string `json:"location"`
	Key      string `json:"key"`
}
