package service

import (
	"context"
	"fmt"
	"log"

	"malvinvet/internal/models"
	"malvinvet/internal/repository"
)

// ResetReport подводит итог полного сброса базы
type ResetReport struct {
	DeletedAnalyses int64 `json:"deleted_analyses"`
	DeletedDoctors  int64 `json:"deleted_doctors"`
	SeededDoctors   int   `json:"seeded_doctors"`
}

// AdminService выполняет полный сброс базы; подтверждение запрашивает вызывающий слой
type AdminService interface {
	ResetDatabase(ctx context.Context, defaultDoctors []string) (*ResetReport, error)
}

type adminService struct {
	analysisRepo repository.AnalysisRepository
	doctorRepo   repository.DoctorRepository
}

func NewAdminService(analysisRepo repository.AnalysisRepository, doctorRepo repository.DoctorRepository) AdminService {
	return &adminService{
		analysisRepo: analysisRepo,
		doctorRepo:   doctorRepo,
	}
}

func (s *adminService) ResetDatabase(ctx context.Context, defaultDoctors []string) (*ResetReport, error) {
	analyses, err := s.analysisRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count analyses: %w", err)
	}
	doctors, err := s.doctorRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count doctors: %w", err)
	}

	// Сначала анализы: внешний ключ не даст удалить врачей раньше
	if err := s.analysisRepo.DeleteAll(ctx); err != nil {
		return nil, fmt.Errorf("failed to delete analyses: %w", err)
	}
	if err := s.doctorRepo.DeleteAll(ctx); err != nil {
		return nil, fmt.Errorf("failed to delete doctors: %w", err)
	}

	for _, name := range defaultDoctors {
		if err := s.doctorRepo.Create(ctx, &models.Doctor{Name: name}); err != nil {
			return nil, fmt.Errorf("failed to seed doctor %q: %w", name, err)
		}
	}

	log.Printf("Database reset: removed %d analyses, %d doctors; seeded %d doctors",
		analyses, doctors, len(defaultDoctors))

	return &ResetReport{
		DeletedAnalyses: analyses,
		DeletedDoctors:  doctors,
		SeededDoctors:   len(defaultDoctors),
	}, nil
}
