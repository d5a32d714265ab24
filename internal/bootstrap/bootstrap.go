package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/visually/visually-api/internal/domain/entities"
	"github.com/visually/visually-api/internal/infrastructure/external/pexels"
	"github.com/visually/visually-api/internal/infrastructure/external/shotstack"
	"github.com/visually/visually-api/internal/infrastructure/external/watson"
	"github.com/visually/visually-api/internal/infrastructure/storage"
	"github.com/visually/visually-api/internal/usecase/video"
	pkgai "github.com/visually/visually-api/pkg/ai"
	"github.com/visually/visually-api/pkg/config"
)

// Collaborators builds the external services the pipeline talks to, using
// the providers selected in cfg. footageCache may be nil.
func Collaborators(ctx context.Context, cfg *config.Config, footageCache pexels.Cache, logger *zap.Logger) (video.Collaborators, *storage.MinIOClient, error) {
	transcriber, err := Transcriber(ctx, cfg, logger)
	if err != nil {
		return video.Collaborators{}, nil, err
	}
	analyzer, err := Analyzer(ctx, cfg, logger)
	if err != nil {
		return video.Collaborators{}, nil, err
	}

	store, err := storage.NewMinIOClient(&cfg.Storage, logger)
	if err != nil {
		return video.Collaborators{}, nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	opts := []pexels.Option{pexels.WithLogger(logger)}
	if footageCache != nil {
		opts = append(opts, pexels.WithCache(footageCache, cfg.Pexels.CacheTTL))
	}

	return video.Collaborators{
		Transcriber: transcriber,
		Analyzer:    analyzer,
		Searcher:    pexels.NewClient(&cfg.Pexels, opts...),
		Renderer:    shotstack.NewClient(&cfg.Shotstack, logger),
		Storage:     store,
	}, store, nil
}

// Transcriber returns the configured speech recogniser
func Transcriber(ctx context.Context, cfg *config.Config, logger *zap.Logger) (video.Transcriber, error) {
	switch cfg.Transcription.Provider {
	case config.ProviderWatson:
		tokens := watson.NewTokenSource(cfg.Watson.STTAPIKey, cfg.Watson.IAMURL, &http.Client{Timeout: 30 * time.Second})
		return watson.NewSpeechToText(cfg.Watson.STTURL, tokens, logger), nil
	case config.ProviderAssemblyAI:
		return pkgai.NewAssemblyAIClient(&cfg.Assembly, logger), nil
	default:
		return nil, fmt.Errorf("unknown transcription provider %q", cfg.Transcription.Provider)
	}
}

// Analyzer returns the configured text analyser
func Analyzer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (video.TextAnalyzer, error) {
	switch cfg.Analysis.Provider {
	case config.ProviderWatson:
		tokens := watson.NewTokenSource(cfg.Watson.NLUAPIKey, cfg.Watson.IAMURL, &http.Client{Timeout: 30 * time.Second})
		return watson.NewNaturalLanguageUnderstanding(cfg.Watson.NLUURL, cfg.Watson.NLUVersion, watson.NewHTTPClient(ctx, tokens)), nil
	case config.ProviderGroq:
		return pkgai.NewGroqClient(&cfg.Groq, logger), nil
	default:
		return nil, fmt.Errorf("unknown analysis provider %q", cfg.Analysis.Provider)
	}
}

// PipelineOptions maps configuration onto pipeline tuning
func PipelineOptions(cfg *config.Config) video.Options {
	return video.Options{
		FootagePageSize:  cfg.Pexels.PageSize,
		SoundtrackEffect: cfg.Shotstack.SoundtrackEffect,
		Render: video.RenderOptions{
			Output: entities.RenderOutput{
				Format:     cfg.Shotstack.OutputFormat,
				Resolution: cfg.Shotstack.OutputResolution,
			},
			PollInterval: cfg.Shotstack.PollInterval,
			MaxAttempts:  cfg.Shotstack.PollMaxAttempts,
			MaxWait:      cfg.Shotstack.PollMaxWait,
		},
	}
}
