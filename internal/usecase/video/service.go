package video

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/visually/visually-api/internal/domain/entities"
	domainrepo "github.com/visually/visually-api/internal/domain/repositories"
	usecaseErrors "github.com/visually/visually-api/internal/usecase/errors"
	"github.com/visually/visually-api/pkg/jobcontext"
)

// ErrShuttingDown is returned when a run is requested during shutdown
var ErrShuttingDown = errors.New("service is shutting down")

// Runner executes the pipeline
type Runner interface {
	Plan(ctx context.Context, in Input) (*Plan, error)
	Run(ctx context.Context, in Input) (*Result, error)
}

// Service defines the video assembly use cases
type Service interface {
	Render(ctx context.Context, req RenderRequest) (*Result, error)
	StartRender(ctx context.Context, req RenderRequest) (*entities.RenderRun, error)
	GetRun(ctx context.Context, id uuid.UUID) (*entities.RenderRun, error)
	RecoverInterrupted(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// RenderRequest is a staged audio upload to be turned into a video.
// The service owns AudioPath from this point and deletes it when done.
type RenderRequest struct {
	AudioPath   string
	AudioName   string
	ContentType string
	Model       string
}

// ServiceConfig bounds how the service runs pipelines
type ServiceConfig struct {
	MaxConcurrentRuns int
	RunTimeout        time.Duration
	DefaultModel      string
}

type videoService struct {
	pipeline Runner
	runs     domainrepo.RenderRunRepository
	cfg      ServiceConfig
	logger   *zap.Logger

	slots  chan struct{} // limits concurrent pipeline runs
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu           sync.Mutex
	shuttingDown bool
}

// NewService constructs the video service. runs may be nil, in which case
// only synchronous renders are available.
func NewService(pipeline Runner, runs domainrepo.RenderRunRepository, cfg ServiceConfig, logger *zap.Logger) Service {
	if cfg.MaxConcurrentRuns <= 0 {
		cfg.MaxConcurrentRuns = 2
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &videoService{
		pipeline: pipeline,
		runs:     runs,
		cfg:      cfg,
		logger:   logger,
		slots:    make(chan struct{}, cfg.MaxConcurrentRuns),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Render runs the pipeline and waits for the video
func (s *videoService) Render(ctx context.Context, req RenderRequest) (*Result, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	if err := s.begin(); err != nil {
		s.discard(req.AudioPath)
		return nil, err
	}
	defer s.wg.Done()

	select {
	case s.slots <- struct{}{}:
	case <-ctx.Done():
		s.discard(req.AudioPath)
		return nil, ctx.Err()
	}
	defer func() { <-s.slots }()

	runCtx, cancel := jobcontext.RunBegin(ctx, uuid.New(), jobcontext.ModeSync, s.cfg.RunTimeout)
	defer cancel()

	var result *Result
	err := jobcontext.RunEnd(runCtx, func(ctx context.Context) error {
		var err error
		result, err = s.pipeline.Run(ctx, s.input(req, nil))
		return err
	})
	if err != nil {
		if s.logger != nil {
			s.logger.Error("❌ Render failed", append(jobcontext.LogFields(runCtx), zap.Error(err))...)
		}
		return nil, err
	}
	return result, nil
}

// StartRender records a pending run and processes it in the background
func (s *videoService) StartRender(ctx context.Context, req RenderRequest) (*entities.RenderRun, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	if s.runs == nil {
		s.discard(req.AudioPath)
		return nil, fmt.Errorf("render run repository not configured")
	}

	run := entities.NewRenderRun(req.AudioName, s.model(req))
	if err := s.runs.Create(ctx, run); err != nil {
		s.discard(req.AudioPath)
		return nil, fmt.Errorf("failed to create render run: %w", err)
	}

	if err := s.begin(); err != nil {
		_ = s.runs.MarkFailed(ctx, run.ID, err.Error())
		s.discard(req.AudioPath)
		return nil, err
	}
	go s.process(run.ID, req)

	if s.logger != nil {
		s.logger.Info("📥 Render run accepted",
			zap.String("run_id", run.ID.String()),
			zap.String("audio", req.AudioName),
		)
	}
	return run, nil
}

func (s *videoService) process(runID uuid.UUID, req RenderRequest) {
	defer s.wg.Done()

	select {
	case s.slots <- struct{}{}:
	case <-s.ctx.Done():
		_ = s.runs.MarkFailed(context.Background(), runID, ErrShuttingDown.Error())
		s.discard(req.AudioPath)
		return
	}
	defer func() { <-s.slots }()

	ctx, cancel := jobcontext.RunBegin(s.ctx, runID, jobcontext.ModeAsync, s.cfg.RunTimeout)
	defer cancel()

	if err := s.runs.MarkProcessing(ctx, runID); err != nil && s.logger != nil {
		s.logger.Warn("⚠️ Failed to mark run as processing", zap.String("run_id", runID.String()), zap.Error(err))
	}

	onSubmitted := func(job entities.RenderJob) {
		if err := s.runs.MarkRendering(ctx, runID, job.ID); err != nil && s.logger != nil {
			s.logger.Warn("⚠️ Failed to mark run as rendering", zap.String("run_id", runID.String()), zap.Error(err))
		}
	}

	var result *Result
	err := jobcontext.RunEnd(ctx, func(ctx context.Context) error {
		var err error
		result, err = s.pipeline.Run(ctx, s.input(req, onSubmitted))
		return err
	})

	persistCtx := context.WithoutCancel(ctx)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("❌ Render run failed",
				zap.String("run_id", runID.String()),
				zap.Duration("elapsed", jobcontext.Elapsed(ctx)),
				zap.Error(err),
			)
		}
		if err := s.runs.MarkFailed(persistCtx, runID, err.Error()); err != nil && s.logger != nil {
			s.logger.Error("Failed to mark run as failed", zap.String("run_id", runID.String()), zap.Error(err))
		}
		return
	}

	if err := s.runs.MarkCompleted(persistCtx, runID, result.VideoURL, metadataFor(result)); err != nil && s.logger != nil {
		s.logger.Error("Failed to mark run as completed", zap.String("run_id", runID.String()), zap.Error(err))
	}
}

// GetRun returns a persisted run
func (s *videoService) GetRun(ctx context.Context, id uuid.UUID) (*entities.RenderRun, error) {
	if s.runs == nil {
		return nil, entities.ErrRunNotFound
	}
	run, err := s.runs.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get render run: %w", err)
	}
	if run == nil {
		return nil, entities.ErrRunNotFound
	}
	return run, nil
}

// RecoverInterrupted fails runs left unfinished by a previous process.
// Their staged audio did not survive the restart, so they cannot resume.
func (s *videoService) RecoverInterrupted(ctx context.Context) error {
	if s.runs == nil {
		return nil
	}
	n, err := s.runs.FailUnfinished(ctx, "interrupted by server restart")
	if err != nil {
		return fmt.Errorf("failed to recover interrupted runs: %w", err)
	}
	if n > 0 && s.logger != nil {
		s.logger.Warn("🧹 Marked interrupted render runs as failed", zap.Int64("count", n))
	}
	return nil
}

// Shutdown stops accepting runs and waits for in-flight ones. When ctx
// expires first, in-flight runs are cancelled.
func (s *videoService) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.shuttingDown = true
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.Info("🛑 Waiting for in-flight render runs...")
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.cancel()
		return nil
	case <-ctx.Done():
		s.cancel()
		return fmt.Errorf("render runs still in flight: %w", ctx.Err())
	}
}

// begin registers a run with the wait group unless shutting down
func (s *videoService) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shuttingDown {
		return ErrShuttingDown
	}
	s.wg.Add(1)
	return nil
}

func (s *videoService) validate(req RenderRequest) error {
	if req.AudioPath == "" {
		return usecaseErrors.InvalidInput("audio file is required")
	}
	return nil
}

func (s *videoService) model(req RenderRequest) string {
	if req.Model != "" {
		return req.Model
	}
	return s.cfg.DefaultModel
}

func (s *videoService) input(req RenderRequest, onSubmitted func(entities.RenderJob)) Input {
	return Input{
		AudioPath:   req.AudioPath,
		ContentType: req.ContentType,
		Model:       s.model(req),
		OnSubmitted: onSubmitted,
	}
}

// discard removes a staged upload that will never reach the pipeline
func (s *videoService) discard(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) && s.logger != nil {
		s.logger.Warn("⚠️ Failed to remove staged audio", zap.String("path", path), zap.Error(err))
	}
}

func metadataFor(result *Result) entities.RenderRunMetadata {
	md := entities.RenderRunMetadata{
		SentencesCount:       result.Transcription.Statistics.SentencesCount,
		AudioDurationSeconds: result.Transcription.Statistics.AudioDurationSeconds,
		TimelineDuration:     result.Timeline.TotalDuration,
		ClipsCount:           len(result.Timeline.Assets),
		ProcessingTimeMs:     result.ProcessingTime.Milliseconds(),
	}
	for _, sentence := range result.Transcription.Sentences {
		if term := sentence.Analysis.FetchedVideoFor; term != nil {
			md.SearchTerms = append(md.SearchTerms, term.Text)
		}
	}
	return md
}
