package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"malvinvet/internal/models"
	"malvinvet/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DoctorService ведет реестр врачей. Неявное создание врача при импорте идет
// через явный FindOrCreate, а не прячется внутри обхода строк.
type DoctorService interface {
	List(ctx context.Context) ([]models.Doctor, error)
	Add(ctx context.Context, name string) (*models.Doctor, error)
	FindOrCreate(ctx context.Context, name string) (*models.Doctor, error)
	Delete(ctx context.Context, id uuid.UUID) error
	SeedDefaults(ctx context.Context, names []string) error
}

type doctorService struct {
	repo         repository.DoctorRepository
	analysisRepo repository.AnalysisRepository
}

func NewDoctorService(repo repository.DoctorRepository, analysisRepo repository.AnalysisRepository) DoctorService {
	return &doctorService{
		repo:         repo,
		analysisRepo: analysisRepo,
	}
}

func (s *doctorService) List(ctx context.Context) ([]models.Doctor, error) {
	return s.repo.List(ctx)
}

func (s *doctorService) Add(ctx context.Context, name string) (*models.Doctor, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: введите имя врача", ErrValidation)
	}

	if _, err := s.repo.GetByName(ctx, name); err == nil {
		return nil, ErrDoctorExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check doctor name: %w", err)
	}

	doctor := &models.Doctor{Name: name}
	if err := s.repo.Create(ctx, doctor); err != nil {
		return nil, fmt.Errorf("failed to create doctor: %w", err)
	}
	return doctor, nil
}

func (s *doctorService) FindOrCreate(ctx context.Context, name string) (*models.Doctor, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: введите имя врача", ErrValidation)
	}

	doctor, err := s.repo.GetByName(ctx, name)
	if err == nil {
		return doctor, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to resolve doctor: %w", err)
	}

	doctor = &models.Doctor{Name: name}
	if err := s.repo.Create(ctx, doctor); err != nil {
		return nil, fmt.Errorf("failed to create doctor: %w", err)
	}
	return doctor, nil
}

// Delete блокируется, пока за врачом числятся анализы: ни каскада, ни сирот
func (s *doctorService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDoctorNotFound
		}
		return err
	}

	count, err := s.analysisRepo.CountByDoctor(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count doctor analyses: %w", err)
	}
	if count > 0 {
		return ErrDoctorHasAnalyses
	}

	return s.repo.Delete(ctx, id)
}

// SeedDefaults создает стартовый список врачей, если реестр пуст
func (s *doctorService) SeedDefaults(ctx context.Context, names []string) error {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count doctors: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, name := range names {
		if err := s.repo.Create(ctx, &models.Doctor{Name: name}); err != nil {
			return fmt.Errorf("failed to seed doctor %q: %w", name, err)
		}
	}

	log.Printf("Seeded %d default doctors", len(names))
	return nil
}
