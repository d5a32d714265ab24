package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/visually/visually-api/internal/bootstrap"
	"github.com/visually/visually-api/internal/usecase/video"
	"github.com/visually/visually-api/pkg/config"
)

// commandContext carries lazily built dependencies shared by subcommands
type commandContext struct {
	envFile string
	verbose bool

	cfg    *config.Config
	logger *zap.Logger

	loadConfig func(envFile string) (*config.Config, error)
	newRunner  func(ctx context.Context, cfg *config.Config, logger *zap.Logger, render bool) (video.Runner, func(), error)
}

func newCommandContext() *commandContext {
	return &commandContext{
		loadConfig: loadConfig,
		newRunner:  newPipeline,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := c.loadConfig(c.envFile)
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	return cfg, nil
}

func (c *commandContext) ensureLogger() *zap.Logger {
	if c.logger != nil {
		return c.logger
	}
	zcfg := zap.NewDevelopmentConfig()
	if !c.verbose {
		zcfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	logger, err := zcfg.Build()
	if err != nil {
		logger = zap.NewNop()
	}
	c.logger = logger
	return logger
}

func (c *commandContext) runner(ctx context.Context, render bool) (video.Runner, func(), error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	return c.newRunner(ctx, cfg, c.ensureLogger(), render)
}

func loadConfig(envFile string) (*config.Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newPipeline wires the real collaborators. Storage is only prepared when
// the command renders.
func newPipeline(ctx context.Context, cfg *config.Config, logger *zap.Logger, render bool) (video.Runner, func(), error) {
	footageCache := bootstrap.FootageCache(ctx, cfg, logger)
	cleanup := func() { footageCache.Close() }

	collaborators, store, err := bootstrap.Collaborators(ctx, cfg, footageCache, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	if render {
		if err := store.EnsureBucket(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("failed to prepare storage bucket: %w", err)
		}
	}
	return video.NewPipeline(collaborators, bootstrap.PipelineOptions(cfg), logger), cleanup, nil
}
