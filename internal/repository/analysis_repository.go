package repository

import (
	"context"
	"time"

	"malvinvet/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AnalysisFilter задает параметры выборки анализов
type AnalysisFilter struct {
	DoctorID *uuid.UUID
	Search   string
	Date     *time.Time
}

// DuplicateKey описывает составной дневной ключ для проверки дубликатов
type DuplicateKey struct {
	ClientSurname string
	PetName       string
	AnalysisType  string
	DoctorID      uuid.UUID
	Day           time.Time
}

type AnalysisRepository interface {
	Create(ctx context.Context, analysis *models.Analysis) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Analysis, error)
	Update(ctx context.Context, analysis *models.Analysis) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter AnalysisFilter) ([]models.Analysis, error)
	ListAll(ctx context.Context) ([]models.Analysis, error)
	FindByDuplicateKey(ctx context.Context, key DuplicateKey) ([]models.Analysis, error)
	MarkProcessed(ctx context.Context, id uuid.UUID, at time.Time) (int64, error)
	SetArchived(ctx context.Context, id uuid.UUID, at time.Time) (int64, error)
	ArchiveRecent(ctx context.Context, cutoff, at time.Time) (int64, error)
	ResetAll(ctx context.Context) (int64, error)
	Count(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context, status string) (int64, error)
	CountByDoctor(ctx context.Context, doctorID uuid.UUID) (int64, error)
	DeleteAll(ctx context.Context) error
}

type analysisRepository struct {
	db *gorm.DB
}

func NewAnalysisRepository(db *gorm.DB) AnalysisRepository {
	return &analysisRepository{db: db}
}

func (r *analysisRepository) Create(ctx context.Context, analysis *models.Analysis) error {
	return r.db.WithContext(ctx).Create(analysis).Error
}

func (r *analysisRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Analysis, error) {
	var analysis models.Analysis
	err := r.db.WithContext(ctx).
		Preload("Doctor").
		Where("id = ?", id).
		First(&analysis).
		Error
	if err != nil {
		return nil, err
	}
	return &analysis, nil
}

func (r *analysisRepository) Update(ctx context.Context, analysis *models.Analysis) error {
	return r.db.WithContext(ctx).Save(analysis).Error
}

func (r *analysisRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Analysis{}).
		Error
}

func (r *analysisRepository) List(ctx context.Context, filter AnalysisFilter) ([]models.Analysis, error) {
	query := r.db.WithContext(ctx).Preload("Doctor")

	if filter.DoctorID != nil {
		query = query.Where("doctor_id = ?", *filter.DoctorID)
	}

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where(
			"client_surname ILIKE ? OR pet_name ILIKE ? OR analysis_type ILIKE ? OR notes ILIKE ? OR patient_id ILIKE ?",
			pattern, pattern, pattern, pattern, pattern,
		)
	}

	if filter.Date != nil {
		query = query.Where("DATE(created_at) = ?", filter.Date.Format("2006-01-02"))
	}

	var analyses []models.Analysis
	err := query.
		Order("created_at DESC").
		Find(&analyses).
		Error
	return analyses, err
}

func (r *analysisRepository) ListAll(ctx context.Context) ([]models.Analysis, error) {
	var analyses []models.Analysis
	err := r.db.WithContext(ctx).
		Preload("Doctor").
		Order("created_at DESC").
		Find(&analyses).
		Error
	return analyses, err
}

func (r *analysisRepository) FindByDuplicateKey(ctx context.Context, key DuplicateKey) ([]models.Analysis, error) {
	var analyses []models.Analysis
	err := r.db.WithContext(ctx).
		Where("client_surname = ?", key.ClientSurname).
		Where("pet_name = ?", key.PetName).
		Where("analysis_type = ?", key.AnalysisType).
		Where("doctor_id = ?", key.DoctorID).
		Where("DATE(created_at) = ?", key.Day.Format("2006-01-02")).
		Find(&analyses).
		Error
	return analyses, err
}

// MarkProcessed выполняет условный UPDATE: переход срабатывает только из статуса actual,
// поэтому два конкурирующих вызова сериализуются на уровне строки
func (r *analysisRepository) MarkProcessed(ctx context.Context, id uuid.UUID, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Analysis{}).
		Where("id = ? AND status = ?", id, models.StatusActual).
		Updates(map[string]interface{}{
			"status":       models.StatusProcessed,
			"processed_at": at,
			"updated_at":   at,
		})
	return result.RowsAffected, result.Error
}

func (r *analysisRepository) SetArchived(ctx context.Context, id uuid.UUID, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Analysis{}).
		Where("id = ? AND status = ?", id, models.StatusProcessed).
		Updates(map[string]interface{}{
			"archived_at": at,
			"updated_at":  at,
		})
	return result.RowsAffected, result.Error
}

func (r *analysisRepository) ArchiveRecent(ctx context.Context, cutoff, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Analysis{}).
		Where("status = ? AND archived_at IS NULL AND processed_at >= ?", models.StatusProcessed, cutoff).
		Updates(map[string]interface{}{
			"archived_at": at,
			"updated_at":  at,
		})
	return result.RowsAffected, result.Error
}

func (r *analysisRepository) ResetAll(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Analysis{}).
		Where("1 = 1").
		Updates(map[string]interface{}{
			"status":       models.StatusActual,
			"processed_at": nil,
			"archived_at":  nil,
		})
	return result.RowsAffected, result.Error
}

func (r *analysisRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Analysis{}).
		Count(&count).
		Error
	return count, err
}

func (r *analysisRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Analysis{}).
		Where("status = ?", status).
		Count(&count).
		Error
	return count, err
}

func (r *analysisRepository) CountByDoctor(ctx context.Context, doctorID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Analysis{}).
		Where("doctor_id = ?", doctorID).
		Count(&count).
		Error
	return count, err
}

func (r *analysisRepository) DeleteAll(ctx context.Context) error {
	return r.db.WithContext(ctx).
		Where("1 = 1").
		Delete(&models.Analysis{}).
		Error
}
