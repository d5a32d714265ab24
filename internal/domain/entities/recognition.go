package entities

// RecognitionEvent is one incremental message from a streaming speech recogniser
type RecognitionEvent struct {
	ResultIndex int                 `json:"result_index"`
	Results     []RecognitionResult `json:"results"`
}

// RecognitionResult holds the alternatives recognised for one stretch of audio
type RecognitionResult struct {
	Final        bool                     `json:"final"`
	Alternatives []RecognitionAlternative `json:"alternatives"`
}

// RecognitionAlternative is one transcript hypothesis with word timings
type RecognitionAlternative struct {
	Transcript string      `json:"transcript"`
	Confidence float64     `json:"confidence,omitempty"`
	Timestamps []Timestamp `json:"timestamps,omitempty"`
}
