package jobcontext

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type KeyContext string

var (
	keyRunID        KeyContext = "run_id"
	keyRunMode      KeyContext = "run_mode"
	keyRunStartTime KeyContext = "run_start_time"
)

// Run modes
const (
	ModeSync  = "sync"
	ModeAsync = "async"
	ModeCLI   = "cli"
)

// DefaultRunTimeout bounds a whole pipeline invocation
const DefaultRunTimeout = 30 * time.Minute

// RunMetadata holds metadata for one pipeline invocation
type RunMetadata struct {
	RunID     uuid.UUID
	Mode      string
	StartTime time.Time
}

// RunBegin initializes a run context with metadata and timeout.
// A non-positive timeout falls back to DefaultRunTimeout.
func RunBegin(parentCtx context.Context, runID uuid.UUID, mode string, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = DefaultRunTimeout
	}
	ctx, cancel := context.WithTimeout(parentCtx, timeout)

	ctx = context.WithValue(ctx, keyRunID, runID)
	ctx = context.WithValue(ctx, keyRunMode, mode)
	ctx = context.WithValue(ctx, keyRunStartTime, time.Now())

	return ctx, cancel
}

// RunEnd executes runFunc once, turning a panic into an error.
// Runs are never retried.
func RunEnd(ctx context.Context, runFunc func(context.Context) error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic recovered: %v", p)
		}
	}()

	if ctx.Err() != nil {
		return fmt.Errorf("context cancelled before run execution: %w", ctx.Err())
	}
	return runFunc(ctx)
}

// GetRunID extracts run ID from context
func GetRunID(ctx context.Context) (uuid.UUID, bool) {
	runID, ok := ctx.Value(keyRunID).(uuid.UUID)
	return runID, ok
}

// GetRunMode extracts run mode from context
func GetRunMode(ctx context.Context) (string, bool) {
	mode, ok := ctx.Value(keyRunMode).(string)
	return mode, ok
}

// GetRunStartTime extracts run start time from context
func GetRunStartTime(ctx context.Context) (time.Time, bool) {
	startTime, ok := ctx.Value(keyRunStartTime).(time.Time)
	return startTime, ok
}

// Elapsed returns the time since the run started, or zero outside a run
func Elapsed(ctx context.Context) time.Duration {
	start, ok := GetRunStartTime(ctx)
	if !ok {
		return 0
	}
	return time.Since(start)
}

// GetRunMetadata extracts all run metadata from context
func GetRunMetadata(ctx context.Context) *RunMetadata {
	runID, _ := GetRunID(ctx)
	mode, _ := GetRunMode(ctx)
	startTime, _ := GetRunStartTime(ctx)

	return &RunMetadata{
		RunID:     runID,
		Mode:      mode,
		StartTime: startTime,
	}
}

// LogFields returns the zap fields identifying the run carried by ctx
func LogFields(ctx context.Context) []zap.Field {
	var fields []zap.Field
	if runID, ok := GetRunID(ctx); ok {
		fields = append(fields, zap.String("run_id", runID.String()))
	}
	if mode, ok := GetRunMode(ctx); ok {
		fields = append(fields, zap.String("mode", mode))
	}
	return fields
}
