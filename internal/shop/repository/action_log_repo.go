package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pedalworks/shop-backend/internal/shop/entity"
	"gorm.io/gorm"
)

// ActionLogRepository is the append-only action log store.
type ActionLogRepository struct {
	db *gorm.DB
}

func NewActionLogRepository(db *gorm.DB) *ActionLogRepository {
	return &ActionLogRepository{db: db}
}

// Create appends one log entry.
func (r *ActionLogRepository) Create(ctx context.Context, log *entity.ActionLog) error {
	if log.ID == "" {
		log.ID = uuid.New().String()[:32]
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now()
	}
	return r.db.WithContext(ctx).Create(log).Error
}

// FindByEntity lists the log entries for one entity, newest first.
func (r *ActionLogRepository) FindByEntity(ctx context.Context, entityType, entityID string) ([]entity.ActionLog, error) {
	var logs []entity.ActionLog
	err := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at DESC").
		Find(&logs).Error
	return logs, err
}
