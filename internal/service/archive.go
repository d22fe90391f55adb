package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"malvinvet/internal/models"
	"malvinvet/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ArchiveWindow: обработанные записи старше недели уходят в архив
const ArchiveWindow = 7 * 24 * time.Hour

// Partition разбивает записи на три непересекающиеся группы
type Partition struct {
	Actual   []models.Analysis
	Recent   []models.Analysis
	Archived []models.Analysis
}

// PartitionAnalyses разбивает записи относительно переданного "сейчас".
// Архивность производна: она пересчитывается на каждом запросе
// по processed_at, отдельный статус не хранится. Принудительно архивированные
// записи распознаются по заполненному archived_at.
func PartitionAnalyses(analyses []models.Analysis, now time.Time) Partition {
	var p Partition

	for _, a := range analyses {
		switch {
		case a.Status == models.StatusActual:
			p.Actual = append(p.Actual, a)
		case isArchived(&a, now):
			p.Archived = append(p.Archived, a)
		default:
			p.Recent = append(p.Recent, a)
		}
	}

	sort.SliceStable(p.Actual, func(i, j int) bool {
		return p.Actual[i].CreatedAt.After(p.Actual[j].CreatedAt)
	})
	sort.SliceStable(p.Recent, func(i, j int) bool {
		return processedAtOrMin(&p.Recent[i]).After(processedAtOrMin(&p.Recent[j]))
	})
	sort.SliceStable(p.Archived, func(i, j int) bool {
		return processedAtOrMin(&p.Archived[i]).After(processedAtOrMin(&p.Archived[j]))
	})

	return p
}

// isArchived: граница включающая, ровно 7 суток уже архив
func isArchived(a *models.Analysis, now time.Time) bool {
	if a.Status != models.StatusProcessed {
		return false
	}
	if a.ArchivedAt != nil {
		return true
	}
	if a.ProcessedAt == nil {
		// По инварианту у обработанной записи processed_at заполнен;
		// отсутствие трактуем как минимально возможное время
		return true
	}
	return now.Sub(*a.ProcessedAt) >= ArchiveWindow
}

func processedAtOrMin(a *models.Analysis) time.Time {
	if a.ProcessedAt == nil {
		return time.Time{}
	}
	return *a.ProcessedAt
}

type ArchiveService interface {
	ForceArchive(ctx context.Context, id uuid.UUID, now time.Time) error
	ArchiveRecent(ctx context.Context, now time.Time) (int64, error)
}

type archiveService struct {
	repo repository.AnalysisRepository
}

func NewArchiveService(repo repository.AnalysisRepository) ArchiveService {
	return &archiveService{repo: repo}
}

// ForceArchive помечает обработанную запись архивной через archived_at,
// не трогая processed_at: настоящее время обработки сохраняется
func (s *archiveService) ForceArchive(ctx context.Context, id uuid.UUID, now time.Time) error {
	rows, err := s.repo.SetArchived(ctx, id, now)
	if err != nil {
		return err
	}
	if rows > 0 {
		return nil
	}

	// Запись не обновилась: либо её нет, либо она еще не обработана
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAnalysisNotFound
		}
		return err
	}
	return ErrNotProcessed
}

// ArchiveRecent архивирует все "свежие" обработанные записи разом
func (s *archiveService) ArchiveRecent(ctx context.Context, now time.Time) (int64, error) {
	cutoff := now.Add(-ArchiveWindow)
	return s.repo.ArchiveRecent(ctx, cutoff, now)
}
