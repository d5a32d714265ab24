package video

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/visually/visually-api/internal/domain/entities"
	usecaseErrors "github.com/visually/visually-api/internal/usecase/errors"
)

func fastPolling(attempts int) RenderOptions {
	return RenderOptions{
		PollInterval: time.Millisecond,
		MaxAttempts:  attempts,
		MaxWait:      5 * time.Second,
	}
}

func oneClipTimeline() entities.Timeline {
	return Compose([]entities.Sentence{{Duration: 4, Videos: []entities.Clip{clip("a.mp4", 4)}}}, nil)
}

func TestRenderOrchestrator_PollUntilDone(t *testing.T) {
	renderer := &fakeRenderer{statuses: []entities.RenderJob{
		rendering(),
		rendering(),
		done("https://cdn.test/out.mp4"),
	}}
	o := NewRenderOrchestrator(renderer, fastPolling(10), zaptest.NewLogger(t))

	job, err := o.Submit(context.Background(), oneClipTimeline())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	job, err = o.Poll(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if job.ResultURL != "https://cdn.test/out.mp4" {
		t.Errorf("url = %q", job.ResultURL)
	}
	if renderer.checks != 3 {
		t.Errorf("checks = %d, want 3", renderer.checks)
	}
}

func TestRenderOrchestrator_Failed(t *testing.T) {
	renderer := &fakeRenderer{statuses: []entities.RenderJob{
		rendering(),
		{ID: "job-1", Status: entities.RenderJobStatusFailed, Phase: "failed", ErrorMessage: "asset unreachable"},
	}}
	o := NewRenderOrchestrator(renderer, fastPolling(10), zaptest.NewLogger(t))

	job, err := o.Poll(context.Background(), "job-1")
	if !errors.Is(err, usecaseErrors.ErrRenderFailed) {
		t.Fatalf("expected ErrRenderFailed, got %v", err)
	}
	if !job.IsTerminal() {
		t.Error("failed job should be terminal")
	}
}

func TestRenderOrchestrator_GivesUpAfterMaxAttempts(t *testing.T) {
	renderer := &fakeRenderer{}
	o := NewRenderOrchestrator(renderer, fastPolling(4), zaptest.NewLogger(t))

	job, err := o.Poll(context.Background(), "job-1")
	if !errors.Is(err, usecaseErrors.ErrRenderTimeout) {
		t.Fatalf("expected ErrRenderTimeout, got %v", err)
	}
	if job.IsTerminal() {
		t.Error("timed out job should not be terminal")
	}
	if renderer.checks != 4 {
		t.Errorf("checks = %d, want 4", renderer.checks)
	}
}

func TestRenderOrchestrator_GivesUpAfterMaxWait(t *testing.T) {
	renderer := &fakeRenderer{}
	o := NewRenderOrchestrator(renderer, RenderOptions{
		PollInterval: 5 * time.Millisecond,
		MaxAttempts:  1000,
		MaxWait:      30 * time.Millisecond,
	}, zaptest.NewLogger(t))

	_, err := o.Poll(context.Background(), "job-1")
	if !errors.Is(err, usecaseErrors.ErrRenderTimeout) {
		t.Fatalf("expected ErrRenderTimeout, got %v", err)
	}
}

func TestRenderOrchestrator_CallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := NewRenderOrchestrator(&fakeRenderer{}, fastPolling(10), zaptest.NewLogger(t))
	_, err := o.Poll(ctx, "job-1")
	if errors.Is(err, usecaseErrors.ErrRenderTimeout) {
		t.Fatal("cancellation by the caller is not a render timeout")
	}
	if err == nil {
		t.Fatal("expected an error")
	}
}

func TestRenderOrchestrator_StatusErrorIsUpstream(t *testing.T) {
	renderer := &fakeRenderer{statusErr: errBoom}
	o := NewRenderOrchestrator(renderer, fastPolling(10), zaptest.NewLogger(t))

	_, err := o.Poll(context.Background(), "job-1")
	if !usecaseErrors.IsUpstream(err) || !errors.Is(err, errBoom) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if renderer.checks != 1 {
		t.Errorf("status errors should not be retried, checks = %d", renderer.checks)
	}
}

func TestRenderOrchestrator_SubmitRejectsEmptyTimeline(t *testing.T) {
	renderer := &fakeRenderer{}
	o := NewRenderOrchestrator(renderer, fastPolling(10), nil)

	_, err := o.Submit(context.Background(), Compose(nil, nil))
	if !errors.Is(err, usecaseErrors.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if len(renderer.submitted) != 0 {
		t.Error("empty timeline must not be submitted")
	}
}
