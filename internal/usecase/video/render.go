package video

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/visually/visually-api/internal/domain/entities"
	usecaseErrors "github.com/visually/visually-api/internal/usecase/errors"
)

const (
	DefaultPollInterval    = 3 * time.Second
	DefaultPollMaxAttempts = 200
	DefaultPollMaxWait     = 15 * time.Minute
)

var errStillRendering = errors.New("render still in progress")

// RenderOptions configures submission and polling
type RenderOptions struct {
	Output       entities.RenderOutput
	PollInterval time.Duration
	MaxAttempts  int
	MaxWait      time.Duration
}

func (o RenderOptions) withDefaults() RenderOptions {
	if o.Output.Format == "" {
		o.Output.Format = "mp4"
	}
	if o.Output.Resolution == "" {
		o.Output.Resolution = "sd"
	}
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultPollMaxAttempts
	}
	if o.MaxWait <= 0 {
		o.MaxWait = DefaultPollMaxWait
	}
	return o
}

// RenderOrchestrator submits a timeline and waits for the render to finish
type RenderOrchestrator struct {
	renderer Renderer
	opts     RenderOptions
	logger   *zap.Logger
}

// NewRenderOrchestrator creates an orchestrator for renderer
func NewRenderOrchestrator(renderer Renderer, opts RenderOptions, logger *zap.Logger) *RenderOrchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RenderOrchestrator{renderer: renderer, opts: opts.withDefaults(), logger: logger}
}

// Submit sends the timeline to the render service
func (o *RenderOrchestrator) Submit(ctx context.Context, timeline entities.Timeline) (entities.RenderJob, error) {
	if len(timeline.Assets) == 0 {
		return entities.RenderJob{}, usecaseErrors.InvalidInput("timeline has no clips to render")
	}

	id, err := o.renderer.Submit(ctx, timeline, o.opts.Output)
	if err != nil {
		return entities.RenderJob{}, usecaseErrors.Upstream(usecaseErrors.ServiceRender, fmt.Errorf("submit render: %w", err))
	}

	o.logger.Info("🎬 Render submitted",
		zap.String("render_id", id),
		zap.Int("assets", len(timeline.Assets)),
		zap.Float64("duration", timeline.TotalDuration),
	)
	return entities.RenderJob{ID: id, Status: entities.RenderJobStatusPending}, nil
}

// Poll checks the job at a constant interval until it is done or failed.
// It gives up with ErrRenderTimeout after MaxAttempts checks or MaxWait,
// whichever comes first.
func (o *RenderOrchestrator) Poll(ctx context.Context, jobID string) (entities.RenderJob, error) {
	pollCtx, cancel := context.WithTimeout(ctx, o.opts.MaxWait)
	defer cancel()

	job := entities.RenderJob{ID: jobID, Status: entities.RenderJobStatusPending}
	attempt := 0

	operation := func() error {
		attempt++
		status, err := o.renderer.Status(pollCtx, jobID)
		if err != nil {
			return backoff.Permanent(usecaseErrors.Upstream(usecaseErrors.ServiceRender,
				fmt.Errorf("render status: %w", err)))
		}
		job = status
		if job.ID == "" {
			job.ID = jobID
		}

		switch status.Status {
		case entities.RenderJobStatusDone:
			return nil
		case entities.RenderJobStatusFailed:
			return backoff.Permanent(usecaseErrors.RenderFailed(jobID, status.ErrorMessage))
		default:
			return errStillRendering
		}
	}

	notify := func(err error, wait time.Duration) {
		o.logger.Debug("⏳ Render in progress",
			zap.String("render_id", jobID),
			zap.String("status", job.Phase),
			zap.Int("attempt", attempt),
			zap.Duration("next_check", wait),
		)
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(o.opts.PollInterval), uint64(o.opts.MaxAttempts-1)),
		pollCtx,
	)

	err := backoff.RetryNotify(operation, b, notify)
	switch {
	case err == nil:
		o.logger.Info("✅ Render completed",
			zap.String("render_id", jobID),
			zap.Int("attempt", attempt),
			zap.String("url", job.ResultURL),
		)
		return job, nil
	case errors.Is(err, errStillRendering),
		errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		o.logger.Warn("⚠️ Render did not finish in time",
			zap.String("render_id", jobID),
			zap.String("status", job.Phase),
			zap.Int("attempt", attempt),
		)
		return job, fmt.Errorf("%w: job %s still %q after %d checks", usecaseErrors.ErrRenderTimeout, jobID, job.Phase, attempt)
	default:
		return job, err
	}
}
