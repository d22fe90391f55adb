package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"malvinvet/internal/models"
	"malvinvet/internal/repository"

	"github.com/google/uuid"
)

const (
	statsCacheKey = "stats:global"
	statsCacheTTL = 30 * time.Second
)

type GlobalStats struct {
	Total            int64 `json:"total"`
	Actual           int64 `json:"actual"`
	Processed        int64 `json:"processed"`
	ActualPercentage int   `json:"actual_percentage"`
}

type DoctorStats struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Actual    int       `json:"actual"`
	Processed int       `json:"processed"`
	Total     int       `json:"total"`
	Progress  int       `json:"progress"`
}

type StatsService interface {
	Global(ctx context.Context) (*GlobalStats, error)
	ByDoctor(ctx context.Context, now time.Time) ([]DoctorStats, error)
	Refresh(ctx context.Context) error
}

type statsService struct {
	analysisRepo repository.AnalysisRepository
	doctorRepo   repository.DoctorRepository
	cacheRepo    repository.CacheRepository
}

func NewStatsService(
	analysisRepo repository.AnalysisRepository,
	doctorRepo repository.DoctorRepository,
	cacheRepo repository.CacheRepository,
) StatsService {
	return &statsService{
		analysisRepo: analysisRepo,
		doctorRepo:   doctorRepo,
		cacheRepo:    cacheRepo,
	}
}

func (s *statsService) Global(ctx context.Context) (*GlobalStats, error) {
	var cached GlobalStats
	if hit, err := s.cacheRepo.GetJSON(ctx, statsCacheKey, &cached); err == nil && hit {
		return &cached, nil
	} else if err != nil {
		log.Printf("Failed to read stats cache: %v", err)
	}

	stats, err := s.compute(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.cacheRepo.SetJSON(ctx, statsCacheKey, stats, statsCacheTTL); err != nil {
		log.Printf("Failed to cache stats: %v", err)
	}

	return stats, nil
}

func (s *statsService) compute(ctx context.Context) (*GlobalStats, error) {
	total, err := s.analysisRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count analyses: %w", err)
	}

	actual, err := s.analysisRepo.CountByStatus(ctx, models.StatusActual)
	if err != nil {
		return nil, fmt.Errorf("failed to count actual analyses: %w", err)
	}

	processed, err := s.analysisRepo.CountByStatus(ctx, models.StatusProcessed)
	if err != nil {
		return nil, fmt.Errorf("failed to count processed analyses: %w", err)
	}

	stats := &GlobalStats{
		Total:     total,
		Actual:    actual,
		Processed: processed,
	}
	if total > 0 {
		stats.ActualPercentage = int(actual * 100 / total)
	}
	return stats, nil
}

// ByDoctor считает прогресс по врачам: архивные записи в прогресс не входят
func (s *statsService) ByDoctor(ctx context.Context, now time.Time) ([]DoctorStats, error) {
	doctors, err := s.doctorRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}

	analyses, err := s.analysisRepo.List(ctx, repository.AnalysisFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}

	partition := PartitionAnalyses(analyses, now)

	actualByDoctor := make(map[uuid.UUID]int)
	for _, a := range partition.Actual {
		actualByDoctor[a.DoctorID]++
	}
	processedByDoctor := make(map[uuid.UUID]int)
	for _, a := range partition.Recent {
		processedByDoctor[a.DoctorID]++
	}

	stats := make([]DoctorStats, 0, len(doctors))
	for _, doctor := range doctors {
		actual := actualByDoctor[doctor.ID]
		processed := processedByDoctor[doctor.ID]
		total := actual + processed

		progress := 0
		if total > 0 {
			progress = processed * 100 / total
		}

		stats = append(stats, DoctorStats{
			ID:        doctor.ID,
			Name:      doctor.Name,
			Actual:    actual,
			Processed: processed,
			Total:     total,
			Progress:  progress,
		})
	}

	return stats, nil
}

// Refresh пересчитывает глобальную статистику и обновляет кэш (для воркера)
func (s *statsService) Refresh(ctx context.Context) error {
	stats, err := s.compute(ctx)
	if err != nil {
		return err
	}
	return s.cacheRepo.SetJSON(ctx, statsCacheKey, stats, statsCacheTTL)
}
