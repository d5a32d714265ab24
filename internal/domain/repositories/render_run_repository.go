package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/visually/visually-api/internal/domain/entities"
)

// RenderRunRepository defines persistence operations for asynchronous render runs
type RenderRunRepository interface {
	Create(ctx context.Context, run *entities.RenderRun) error
	FindByID(ctx context.Context, id uuid.UUID) (*entities.RenderRun, error)
	MarkProcessing(ctx context.Context, id uuid.UUID) error
	MarkRendering(ctx context.Context, id uuid.UUID, renderJobID string) error
	MarkCompleted(ctx context.Context, id uuid.UUID, resultURL string, metadata entities.RenderRunMetadata) error
	MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error
	// FailUnfinished marks every pending, processing or rendering run as failed
	FailUnfinished(ctx context.Context, reason string) (int64, error)
}
