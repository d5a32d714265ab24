package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// RenderRunStatus represents the status of an audio-to-video run
type RenderRunStatus string

const (
	RenderRunStatusPending    RenderRunStatus = "pending"    // Accepted, waiting for a free worker slot
	RenderRunStatusProcessing RenderRunStatus = "processing" // Uploading, transcribing, analysing, matching footage
	RenderRunStatusRendering  RenderRunStatus = "rendering"  // Submitted to the render service, polling
	RenderRunStatusCompleted  RenderRunStatus = "completed"
	RenderRunStatusFailed     RenderRunStatus = "failed"
)

// RenderRunMetadata stores a summary of what the pipeline produced
type RenderRunMetadata struct {
	SentencesCount       int      `json:"sentences_count,omitempty"`
	AudioDurationSeconds float64  `json:"audio_duration_seconds,omitempty"`
	TimelineDuration     float64  `json:"timeline_duration,omitempty"`
	ClipsCount           int      `json:"clips_count,omitempty"`
	SearchTerms          []string `json:"search_terms,omitempty"`
	ProcessingTimeMs     int64    `json:"processing_time_ms,omitempty"`
}

// RenderRun is the persisted record of one asynchronous pipeline invocation
type RenderRun struct {
	ID          uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Status      RenderRunStatus `json:"status" gorm:"type:varchar(50);not null;index;default:'pending'"`
	AudioName   string          `json:"audio_name" gorm:"type:varchar(255);not null"`
	Model       string          `json:"model" gorm:"type:varchar(100)"`
	RenderJobID *string         `json:"render_job_id,omitempty" gorm:"type:varchar(255);index"` // Render service job id (nullable)
	ResultURL   *string         `json:"result_url,omitempty" gorm:"type:text"`
	LastError   *string         `json:"last_error,omitempty" gorm:"type:text"`

	Metadata datatypes.JSONType[RenderRunMetadata] `json:"metadata" gorm:"type:jsonb"`

	StartedAt   *time.Time `json:"started_at,omitempty" gorm:"type:timestamp"`
	CompletedAt *time.Time `json:"completed_at,omitempty" gorm:"type:timestamp"`
	CreatedAt   time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

// NewRenderRun creates a new pending run for an uploaded audio file
func NewRenderRun(audioName, model string) *RenderRun {
	return &RenderRun{
		ID:        uuid.New(),
		Status:    RenderRunStatusPending,
		AudioName: audioName,
		Model:     model,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

// IsFinished checks if the run reached a terminal status
func (r *RenderRun) IsFinished() bool {
	return r.Status == RenderRunStatusCompleted || r.Status == RenderRunStatusFailed
}

// MarkAsProcessing marks the run as picked up by a worker
func (r *RenderRun) MarkAsProcessing() {
	r.Status = RenderRunStatusProcessing
	now := time.Now()
	r.StartedAt = &now
	r.UpdatedAt = now
}

// MarkAsRendering records the render job id
func (r *RenderRun) MarkAsRendering(renderJobID string) {
	r.Status = RenderRunStatusRendering
	r.RenderJobID = &renderJobID
	r.UpdatedAt = time.Now()
}

// MarkAsCompleted marks the run as completed with the rendered video url
func (r *RenderRun) MarkAsCompleted(resultURL string, metadata RenderRunMetadata) {
	r.Status = RenderRunStatusCompleted
	r.ResultURL = &resultURL
	r.Metadata = datatypes.NewJSONType(metadata)
	now := time.Now()
	r.CompletedAt = &now
	r.UpdatedAt = now
}

// MarkAsFailed marks the run as failed with error message
func (r *RenderRun) MarkAsFailed(errMsg string) {
	r.Status = RenderRunStatusFailed
	r.LastError = &errMsg
	now := time.Now()
	r.CompletedAt = &now
	r.UpdatedAt = now
}

// TableName specifies the table name for GORM
func (RenderRun) TableName() string {
	return "render_runs"
}
