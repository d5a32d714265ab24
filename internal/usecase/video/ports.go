package video

import (
	"context"
	"io"

	"github.com/visually/visually-api/internal/domain/entities"
)

// TranscribeRequest describes the audio handed to a Transcriber
type TranscribeRequest struct {
	Audio       io.Reader
	ContentType string
	Model       string
}

// TranscriptionStream yields recognition events until the recogniser closes.
// Recv returns io.EOF once the stream is closed; AudioDuration is only
// authoritative after that.
type TranscriptionStream interface {
	Recv() (entities.RecognitionEvent, error)
	AudioDuration() float64
	Close() error
}

// Transcriber starts a streaming speech recognition
type Transcriber interface {
	Transcribe(ctx context.Context, req TranscribeRequest) (TranscriptionStream, error)
}

// TextAnalyzer extracts keywords, entities, concepts and categories from text
type TextAnalyzer interface {
	Analyze(ctx context.Context, text string) (*entities.AnalysisResults, error)
}

// FootageSearcher finds stock footage for a query
type FootageSearcher interface {
	Search(ctx context.Context, query string, perPage int) ([]entities.Clip, error)
}

// Renderer submits timelines to the render farm and reports job status
type Renderer interface {
	Submit(ctx context.Context, timeline entities.Timeline, output entities.RenderOutput) (string, error)
	Status(ctx context.Context, jobID string) (entities.RenderJob, error)
}

// ObjectStorage keeps the uploaded audio reachable by the render farm
type ObjectStorage interface {
	Upload(ctx context.Context, localPath string) (entities.StoredObject, error)
	Delete(ctx context.Context, key string) error
}
