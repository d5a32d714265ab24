package entities

import (
	"encoding/json"
	"fmt"
)

// Timestamp is a recognised word with its start and end time in seconds.
// On the wire it is the triple ["word", start, end].
type Timestamp struct {
	Word  string
	Start float64
	End   float64
}

// MarshalJSON encodes the timestamp as a [word, start, end] triple
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{t.Word, t.Start, t.End})
}

// UnmarshalJSON decodes a [word, start, end] triple
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	if len(raw) != 3 {
		return fmt.Errorf("timestamp: expected 3 elements, got %d", len(raw))
	}
	if err := json.Unmarshal(raw[0], &t.Word); err != nil {
		return fmt.Errorf("timestamp word: %w", err)
	}
	if err := json.Unmarshal(raw[1], &t.Start); err != nil {
		return fmt.Errorf("timestamp start: %w", err)
	}
	if err := json.Unmarshal(raw[2], &t.End); err != nil {
		return fmt.Errorf("timestamp end: %w", err)
	}
	return nil
}

// Sentence is one unit of transcript with an assigned visual duration
type Sentence struct {
	Transcript string      `json:"transcript"`
	Duration   float64     `json:"duration"` // in seconds
	Timestamps []Timestamp `json:"timestamps"`
	Analysis   Analysis    `json:"analysis"`
	Videos     []Clip      `json:"videos,omitempty"`
}

// Start returns the start time of the first recognised word
func (s Sentence) Start() float64 {
	if len(s.Timestamps) == 0 {
		return 0
	}
	return s.Timestamps[0].Start
}

// End returns the end time of the last recognised word
func (s Sentence) End() float64 {
	if len(s.Timestamps) == 0 {
		return 0
	}
	return s.Timestamps[len(s.Timestamps)-1].End
}

// VideosDuration sums the durations of the selected clips
func (s Sentence) VideosDuration() float64 {
	var total float64
	for _, v := range s.Videos {
		total += v.DurationSeconds
	}
	return total
}

// Statistics summarises a transcription
type Statistics struct {
	SentencesCount       int     `json:"sentences_count"`
	AudioDurationSeconds float64 `json:"audio_duration_seconds"`
}

// Transcription is the segmented transcript of one audio file
type Transcription struct {
	Text       string     `json:"text"`
	Sentences  []Sentence `json:"sentences"`
	Statistics Statistics `json:"statistics"`
}

// SentencesDuration sums the durations of all sentences
func (t Transcription) SentencesDuration() float64 {
	var total float64
	for _, s := range t.Sentences {
		total += s.Duration
	}
	return total
}
