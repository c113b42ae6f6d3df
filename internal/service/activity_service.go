package service

import (
	"context"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/classly/classly-api/internal/models"
	"github.com/classly/classly-api/internal/repository"
)

// Audited actions.
const (
	ActionGradingBatch = "grading.batch"
	ActionScoresReset  = "grading.reset"
	ActionManualMark   = "submission.manual_mark"
)

// ActivityRecorder appends audit entries for significant mutations. Writes
// are best effort; an audit failure never fails the triggering request.
type ActivityRecorder interface {
	Record(ctx context.Context, actor models.User, action, entityType string, entityID *uint, metadata map[string]interface{})
	History(ctx context.Context, entityType string, entityID uint) ([]models.ActivityLog, error)
}

type activityRecorder struct {
	repo   repository.ActivityLogRepository
	logger zerolog.Logger
}

// NewActivityRecorder builds the audit trail writer.
func NewActivityRecorder(repo repository.ActivityLogRepository, logger zerolog.Logger) ActivityRecorder {
	return &activityRecorder{
		repo:   repo,
		logger: logger.With().Str("component", "activity_recorder").Logger(),
	}
}

func (r *activityRecorder) Record(ctx context.Context, actor models.User, action, entityType string, entityID *uint, metadata map[string]interface{}) {
	entry := models.ActivityLog{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Metadata:   datatypes.JSONMap(metadata),
	}

	if err := r.repo.Create(ctx, &entry); err != nil {
		r.logger.Warn().Err(err).Str("action", action).Msg("failed to record activity")
	}
}

func (r *activityRecorder) History(ctx context.Context, entityType string, entityID uint) ([]models.ActivityLog, error) {
	return r.repo.ListByEntity(ctx, entityType, entityID)
}
