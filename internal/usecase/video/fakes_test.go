package video

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/visually/visually-api/internal/domain/entities"
)

func ptr(f float64) *float64 { return &f }

func ts(word string, start, end float64) entities.Timestamp {
	return entities.Timestamp{Word: word, Start: start, End: end}
}

func alt(transcript string, stamps ...entities.Timestamp) entities.RecognitionAlternative {
	return entities.RecognitionAlternative{Transcript: transcript, Timestamps: stamps}
}

func event(alts ...entities.RecognitionAlternative) entities.RecognitionEvent {
	results := make([]entities.RecognitionResult, 0, len(alts))
	for _, a := range alts {
		results = append(results, entities.RecognitionResult{
			Final:        true,
			Alternatives: []entities.RecognitionAlternative{a},
		})
	}
	return entities.RecognitionEvent{Results: results}
}

type fakeStream struct {
	events   []entities.RecognitionEvent
	duration float64
	err      error
	closed   bool
}

func (s *fakeStream) Recv() (entities.RecognitionEvent, error) {
	if len(s.events) == 0 {
		if s.err != nil {
			return entities.RecognitionEvent{}, s.err
		}
		return entities.RecognitionEvent{}, io.EOF
	}
	e := s.events[0]
	s.events = s.events[1:]
	return e, nil
}

func (s *fakeStream) AudioDuration() float64 { return s.duration }
func (s *fakeStream) Close() error           { s.closed = true; return nil }

type fakeTranscriber struct {
	stream *fakeStream
	err    error
}

func (t *fakeTranscriber) Transcribe(ctx context.Context, req TranscribeRequest) (TranscriptionStream, error) {
	if t.err != nil {
		return nil, t.err
	}
	if _, err := io.Copy(io.Discard, req.Audio); err != nil {
		return nil, err
	}
	return t.stream, nil
}

type fakeAnalyzer struct {
	results  map[string]*entities.AnalysisResults
	fallback *entities.AnalysisResults
	err      error
}

func (a *fakeAnalyzer) Analyze(ctx context.Context, text string) (*entities.AnalysisResults, error) {
	if a.err != nil {
		return nil, a.err
	}
	if r, ok := a.results[text]; ok {
		return r, nil
	}
	return a.fallback, nil
}

type fakeSearcher struct {
	mu      sync.Mutex
	clips   map[string][]entities.Clip
	errs    map[string]error
	queries []string
}

func (s *fakeSearcher) Search(ctx context.Context, query string, perPage int) ([]entities.Clip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, query)
	if err := s.errs[query]; err != nil {
		return nil, err
	}
	return s.clips[query], nil
}

type fakeRenderer struct {
	mu        sync.Mutex
	statuses  []entities.RenderJob // returned in order, the last one repeats
	submitErr error
	statusErr error
	submitted []entities.Timeline
	checks    int
}

func (r *fakeRenderer) Submit(ctx context.Context, timeline entities.Timeline, output entities.RenderOutput) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.submitErr != nil {
		return "", r.submitErr
	}
	r.submitted = append(r.submitted, timeline)
	return "job-1", nil
}

func (r *fakeRenderer) Status(ctx context.Context, jobID string) (entities.RenderJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checks++
	if r.statusErr != nil {
		return entities.RenderJob{}, r.statusErr
	}
	if len(r.statuses) == 0 {
		return entities.RenderJob{ID: jobID, Status: entities.RenderJobStatusPending, Phase: "queued"}, nil
	}
	s := r.statuses[0]
	if len(r.statuses) > 1 {
		r.statuses = r.statuses[1:]
	}
	return s, nil
}

func rendering() entities.RenderJob {
	return entities.RenderJob{ID: "job-1", Status: entities.RenderJobStatusPending, Phase: "rendering"}
}

func done(url string) entities.RenderJob {
	return entities.RenderJob{ID: "job-1", Status: entities.RenderJobStatusDone, Phase: "done", ResultURL: url}
}

type fakeStorage struct {
	mu        sync.Mutex
	uploadErr error
	deleteErr error
	uploaded  []string
	deleted   []string
}

func (s *fakeStorage) Upload(ctx context.Context, localPath string) (entities.StoredObject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.uploadErr != nil {
		return entities.StoredObject{}, s.uploadErr
	}
	s.uploaded = append(s.uploaded, localPath)
	return entities.StoredObject{Location: "https://storage.test/audio.mp3", Key: "audio.mp3"}, nil
}

func (s *fakeStorage) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleted = append(s.deleted, key)
	return nil
}

var errBoom = errors.New("boom")
