package repository

import (
	"context"

	"malvinvet/internal/models"

	"gorm.io/gorm"
)

type ImportLogRepository interface {
	Create(ctx context.Context, log *models.ImportLog) error
	List(ctx context.Context, limit int) ([]models.ImportLog, error)
}

type importLogRepository struct {
	db *gorm.DB
}

func NewImportLogRepository(db *gorm.DB) ImportLogRepository {
	return &importLogRepository{db: db}
}

func (r *importLogRepository) Create(ctx context.Context, log *models.ImportLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *importLogRepository) List(ctx context.Context, limit int) ([]models.ImportLog, error) {
	if limit < 1 || limit > 500 {
		limit = 50
	}

	var logs []models.ImportLog
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&logs).
		Error
	return logs, err
}
