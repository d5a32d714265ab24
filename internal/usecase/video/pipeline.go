package video

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/visually/visually-api/internal/domain/entities"
	usecaseErrors "github.com/visually/visually-api/internal/usecase/errors"
	"github.com/visually/visually-api/pkg/jobcontext"
)

// Collaborators are the external services the pipeline depends on
type Collaborators struct {
	Transcriber Transcriber
	Analyzer    TextAnalyzer
	Searcher    FootageSearcher
	Renderer    Renderer
	Storage     ObjectStorage
}

// Options tunes the pipeline
type Options struct {
	FootagePageSize  int
	SoundtrackEffect string
	Render           RenderOptions

	// RemoveFile deletes the staged audio; defaults to os.Remove
	RemoveFile func(path string) error
}

// Input is one audio file to turn into a video
type Input struct {
	AudioPath   string
	ContentType string
	Model       string

	// RetainLocal keeps the local file after the run, e.g. when it belongs to a CLI user
	RetainLocal bool

	// OnSubmitted is called once the render job has been accepted
	OnSubmitted func(job entities.RenderJob)
}

// Plan is everything the pipeline decides before rendering
type Plan struct {
	Transcription entities.Transcription `json:"transcription"`
	Timeline      entities.Timeline      `json:"timeline"`
}

// Result is the outcome of a successful run
type Result struct {
	Plan
	Audio          entities.StoredObject `json:"audio"`
	Job            entities.RenderJob    `json:"job"`
	VideoURL       string                `json:"url"`
	ProcessingTime time.Duration         `json:"processing_time"`
}

// Pipeline turns a narration audio file into a rendered video
type Pipeline struct {
	transcriber  Transcriber
	analyzer     TextAnalyzer
	storage      ObjectStorage
	matcher      *FootageMatcher
	orchestrator *RenderOrchestrator
	opts         Options
	logger       *zap.Logger
}

// NewPipeline wires the pipeline stages to their collaborators
func NewPipeline(c Collaborators, opts Options, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.SoundtrackEffect == "" {
		opts.SoundtrackEffect = DefaultSoundtrackEffect
	}
	if opts.RemoveFile == nil {
		opts.RemoveFile = os.Remove
	}
	return &Pipeline{
		transcriber:  c.Transcriber,
		analyzer:     c.Analyzer,
		storage:      c.Storage,
		matcher:      NewFootageMatcher(c.Searcher, opts.FootagePageSize, logger),
		orchestrator: NewRenderOrchestrator(c.Renderer, opts.Render, logger),
		opts:         opts,
		logger:       logger,
	}
}

// Plan transcribes, analyses and matches footage without rendering
func (p *Pipeline) Plan(ctx context.Context, in Input) (*Plan, error) {
	logger := p.logger.With(jobcontext.LogFields(ctx)...)

	transcription, err := p.transcribe(ctx, in)
	if err != nil {
		return nil, err
	}
	logger.Info("📝 Transcription segmented",
		zap.Int("sentences", transcription.Statistics.SentencesCount),
		zap.Float64("audio_duration", transcription.Statistics.AudioDurationSeconds),
	)

	ranked := make([]entities.Sentence, 0, len(transcription.Sentences))
	for i, sentence := range transcription.Sentences {
		results, err := p.analyzer.Analyze(ctx, sentence.Transcript)
		if err != nil {
			return nil, usecaseErrors.Upstream(usecaseErrors.ServiceAnalysis,
				fmt.Errorf("analyze sentence %d: %w", i, err))
		}
		sentence = Rank(sentence, results)
		logger.Debug("sentence ranked",
			zap.Int("sentence_index", i),
			zap.Int("terms", len(sentence.Analysis.Rank)),
		)
		ranked = append(ranked, sentence)
	}

	matched, err := p.matcher.SelectAll(ctx, ranked)
	if err != nil {
		return nil, err
	}
	transcription.Sentences = matched

	return &Plan{
		Transcription: transcription,
		Timeline:      Compose(matched, nil),
	}, nil
}

func (p *Pipeline) transcribe(ctx context.Context, in Input) (entities.Transcription, error) {
	f, err := os.Open(in.AudioPath)
	if err != nil {
		return entities.Transcription{}, fmt.Errorf("failed to open audio: %w", err)
	}
	defer f.Close()

	stream, err := p.transcriber.Transcribe(ctx, TranscribeRequest{
		Audio:       f,
		ContentType: in.ContentType,
		Model:       in.Model,
	})
	if err != nil {
		return entities.Transcription{}, usecaseErrors.Upstream(usecaseErrors.ServiceTranscription, err)
	}
	defer stream.Close()

	return Segment(ctx, stream, p.logger)
}

// Run executes the whole pipeline. The audio upload runs concurrently with
// transcription, analysis and footage matching; rendering starts once both
// are done. The staged audio is cleaned up exactly once, and never while a
// submitted render job may still read it.
func (p *Pipeline) Run(ctx context.Context, in Input) (*Result, error) {
	start := time.Now()
	logger := p.logger.With(jobcontext.LogFields(ctx)...)

	var (
		stored   entities.StoredObject
		uploaded bool
		plan     *Plan
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		obj, err := p.storage.Upload(gctx, in.AudioPath)
		if err != nil {
			return usecaseErrors.Upstream(usecaseErrors.ServiceStorage, fmt.Errorf("upload audio: %w", err))
		}
		stored, uploaded = obj, true
		logger.Info("☁️ Audio uploaded", zap.String("key", obj.Key))
		return nil
	})
	g.Go(func() error {
		var err error
		plan, err = p.Plan(gctx, in)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, p.finish(ctx, in, stored, uploaded, err)
	}

	if len(plan.Timeline.Assets) == 0 {
		return nil, p.finish(ctx, in, stored, uploaded,
			usecaseErrors.InvalidInput("no speech recognised in %s", in.AudioPath))
	}

	timeline := Compose(plan.Transcription.Sentences, &entities.Soundtrack{
		Src:    stored.Location,
		Effect: p.opts.SoundtrackEffect,
	})
	plan.Timeline = timeline

	job, err := p.orchestrator.Submit(ctx, timeline)
	if err != nil {
		return nil, p.finish(ctx, in, stored, uploaded, err)
	}
	if in.OnSubmitted != nil {
		in.OnSubmitted(job)
	}

	job, err = p.orchestrator.Poll(ctx, job.ID)
	if !job.IsTerminal() {
		logger.Warn("⚠️ Render job not finished, keeping staged audio",
			zap.String("render_id", job.ID),
			zap.String("key", stored.Key),
			zap.Error(err),
		)
		return nil, err
	}
	if err != nil {
		return nil, p.finish(ctx, in, stored, uploaded, err)
	}
	if err := p.cleanup(ctx, in, stored, uploaded); err != nil {
		return nil, err
	}

	logger.Info("✅ Video assembled",
		zap.String("render_id", job.ID),
		zap.String("url", job.ResultURL),
		zap.Duration("elapsed", time.Since(start)),
	)

	return &Result{
		Plan:           *plan,
		Audio:          stored,
		Job:            job,
		VideoURL:       job.ResultURL,
		ProcessingTime: time.Since(start),
	}, nil
}

// finish cleans up after a failed run, keeping the original cause first
func (p *Pipeline) finish(ctx context.Context, in Input, stored entities.StoredObject, uploaded bool, cause error) error {
	if err := p.cleanup(ctx, in, stored, uploaded); err != nil {
		p.logger.Error("❌ Cleanup after failed run", zap.Error(err))
		return errors.Join(cause, err)
	}
	return cause
}

// cleanup deletes the local file, then the cloud copy.
// The cloud copy is kept when the local deletion fails.
func (p *Pipeline) cleanup(ctx context.Context, in Input, stored entities.StoredObject, uploaded bool) error {
	ctx = context.WithoutCancel(ctx)

	if !in.RetainLocal {
		if err := p.opts.RemoveFile(in.AudioPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove staged audio: %w", err)
		}
	}
	if uploaded {
		if err := p.storage.Delete(ctx, stored.Key); err != nil {
			return usecaseErrors.Upstream(usecaseErrors.ServiceStorage, fmt.Errorf("delete %s: %w", stored.Key, err))
		}
	}
	return nil
}
