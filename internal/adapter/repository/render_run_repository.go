package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/visually/visually-api/internal/domain/entities"
	domainrepo "github.com/visually/visually-api/internal/domain/repositories"
)

// RenderRunRepository handles render run data operations
type RenderRunRepository struct {
	db *gorm.DB
}

var _ domainrepo.RenderRunRepository = (*RenderRunRepository)(nil)

// NewRenderRunRepository creates a new render run repository
func NewRenderRunRepository(db *gorm.DB) *RenderRunRepository {
	return &RenderRunRepository{db: db}
}

// Create creates a new render run
func (r *RenderRunRepository) Create(ctx context.Context, run *entities.RenderRun) error {
	if run == nil {
		return errors.New("run cannot be nil")
	}
	return r.db.WithContext(ctx).Create(run).Error
}

// FindByID retrieves a render run by ID, returning nil when it does not exist
func (r *RenderRunRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.RenderRun, error) {
	var run entities.RenderRun
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&run).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &run, nil
}

// MarkProcessing marks a run as picked up by a worker
func (r *RenderRunRepository) MarkProcessing(ctx context.Context, id uuid.UUID) error {
	now := time.Now()
	return r.update(ctx, id, map[string]interface{}{
		"status":     entities.RenderRunStatusProcessing,
		"started_at": now,
		"updated_at": now,
	})
}

// MarkRendering records the render job id
func (r *RenderRunRepository) MarkRendering(ctx context.Context, id uuid.UUID, renderJobID string) error {
	return r.update(ctx, id, map[string]interface{}{
		"status":        entities.RenderRunStatusRendering,
		"render_job_id": renderJobID,
		"updated_at":    time.Now(),
	})
}

// MarkCompleted stores the rendered video url and run metadata
func (r *RenderRunRepository) MarkCompleted(ctx context.Context, id uuid.UUID, resultURL string, metadata entities.RenderRunMetadata) error {
	now := time.Now()
	return r.update(ctx, id, map[string]interface{}{
		"status":       entities.RenderRunStatusCompleted,
		"result_url":   resultURL,
		"metadata":     datatypes.NewJSONType(metadata),
		"completed_at": now,
		"updated_at":   now,
	})
}

// MarkFailed records the failure message
func (r *RenderRunRepository) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	now := time.Now()
	return r.update(ctx, id, map[string]interface{}{
		"status":       entities.RenderRunStatusFailed,
		"last_error":   errMsg,
		"completed_at": now,
		"updated_at":   now,
	})
}

// FailUnfinished marks every run that has not reached a terminal status as failed
func (r *RenderRunRepository) FailUnfinished(ctx context.Context, reason string) (int64, error) {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&entities.RenderRun{}).
		Where("status IN ?", []entities.RenderRunStatus{
			entities.RenderRunStatusPending,
			entities.RenderRunStatusProcessing,
			entities.RenderRunStatusRendering,
		}).
		Updates(map[string]interface{}{
			"status":       entities.RenderRunStatusFailed,
			"last_error":   reason,
			"completed_at": now,
			"updated_at":   now,
		})
	return result.RowsAffected, result.Error
}

func (r *RenderRunRepository) update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).
		Model(&entities.RenderRun{}).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return entities.ErrRunNotFound
	}
	return nil
}
