package repository

import (
	"context"

	"malvinvet/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DoctorRepository interface {
	Create(ctx context.Context, doctor *models.Doctor) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Doctor, error)
	GetByName(ctx context.Context, name string) (*models.Doctor, error)
	List(ctx context.Context) ([]models.Doctor, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int64, error)
	DeleteAll(ctx context.Context) error
}

type doctorRepository struct {
	db *gorm.DB
}

func NewDoctorRepository(db *gorm.DB) DoctorRepository {
	return &doctorRepository{db: db}
}

func (r *doctorRepository) Create(ctx context.Context, doctor *models.Doctor) error {
	return r.db.WithContext(ctx).Create(doctor).Error
}

func (r *doctorRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Doctor, error) {
	var doctor models.Doctor
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&doctor).
		Error
	if err != nil {
		return nil, err
	}
	return &doctor, nil
}

func (r *doctorRepository) GetByName(ctx context.Context, name string) (*models.Doctor, error) {
	var doctor models.Doctor
	err := r.db.WithContext(ctx).
		Where("name = ?", name).
		First(&doctor).
		Error
	if err != nil {
		return nil, err
	}
	return &doctor, nil
}

func (r *doctorRepository) List(ctx context.Context) ([]models.Doctor, error) {
	var doctors []models.Doctor
	err := r.db.WithContext(ctx).
		Order("name ASC").
		Find(&doctors).
		Error
	return doctors, err
}

func (r *doctorRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Doctor{}).
		Error
}

func (r *doctorRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Doctor{}).
		Count(&count).
		Error
	return count, err
}

func (r *doctorRepository) DeleteAll(ctx context.Context) error {
	return r.db.WithContext(ctx).
		Where("1 = 1").
		Delete(&models.Doctor{}).
		Error
}
