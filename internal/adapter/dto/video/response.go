package video

import "time"

// RenderResponse is returned when a synchronous render finishes
type RenderResponse struct {
	URL              string  `json:"url"`
	SentencesCount   int     `json:"sentences_count"`
	AudioDuration    float64 `json:"audio_duration_seconds"`
	TimelineDuration float64 `json:"timeline_duration_seconds"`
	ClipsCount       int     `json:"clips_count"`
	ProcessingTimeMs int64   `json:"processing_time_ms"`
}

// RunResponse describes an asynchronous render run
type RunResponse struct {
	ID          string       `json:"id"`
	Status      string       `json:"status"`
	AudioName   string       `json:"audio_name"`
	Model       string       `json:"model,omitempty"`
	RenderJobID string       `json:"render_job_id,omitempty"`
	URL         string       `json:"url,omitempty"`
	Error       string       `json:"error,omitempty"`
	Metadata    *RunMetadata `json:"metadata,omitempty"`
	StartedAt   *time.Time   `json:"started_at,omitempty"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// RunMetadata summarises what a completed run produced
type RunMetadata struct {
	SentencesCount   int      `json:"sentences_count"`
	AudioDuration    float64  `json:"audio_duration_seconds"`
	TimelineDuration float64  `json:"timeline_duration_seconds"`
	ClipsCount       int      `json:"clips_count"`
	SearchTerms      []string `json:"search_terms,omitempty"`
	ProcessingTimeMs int64    `json:"processing_time_ms"`
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status      string            `json:"status"`
	Environment string            `json:"environment"`
	Time        string            `json:"time"`
	Checks      map[string]string `json:"checks,omitempty"`
}
