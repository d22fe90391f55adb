package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"malvinvet/internal/calllog"
	"malvinvet/internal/models"
	"malvinvet/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MarkOutcome описывает результат отметки записи обработанной
type MarkOutcome string

const (
	OutcomeProcessed        MarkOutcome = "processed"
	OutcomeAlreadyProcessed MarkOutcome = "already_processed"
)

// AddAnalysisInput содержит данные ручного ввода; сервис вход не мутирует
type AddAnalysisInput struct {
	PatientID     string
	ClientSurname string
	PetName       string
	AnalysisType  string
	Notes         string
	DoctorID      uuid.UUID
	CustomDate    string // 2006-01-02, пусто = сейчас
	CustomTime    string // 15:04
}

// EditAnalysisInput содержит редактируемые поля; created_at не меняется
type EditAnalysisInput struct {
	PatientID     string
	ClientSurname string
	PetName       string
	AnalysisType  string
	Notes         string
	DoctorID      uuid.UUID
}

type AnalysisService interface {
	Add(ctx context.Context, input AddAnalysisInput) (*models.Analysis, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Analysis, error)
	Edit(ctx context.Context, id uuid.UUID, input EditAnalysisInput) (*models.Analysis, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter repository.AnalysisFilter, now time.Time) (*Partition, error)
	MarkProcessed(ctx context.Context, id uuid.UUID) (MarkOutcome, *models.Analysis, error)
	ResetAll(ctx context.Context) (int64, error)
}

type analysisService struct {
	repo       repository.AnalysisRepository
	doctorRepo repository.DoctorRepository
	callLog    calllog.Writer
}

func NewAnalysisService(
	repo repository.AnalysisRepository,
	doctorRepo repository.DoctorRepository,
	callLog calllog.Writer,
) AnalysisService {
	return &analysisService{
		repo:       repo,
		doctorRepo: doctorRepo,
		callLog:    callLog,
	}
}

func (s *analysisService) Add(ctx context.Context, input AddAnalysisInput) (*models.Analysis, error) {
	surname := strings.TrimSpace(input.ClientSurname)
	petName := strings.TrimSpace(input.PetName)
	analysisType := strings.TrimSpace(input.AnalysisType)
	patientID := strings.TrimSpace(input.PatientID)
	notes := strings.TrimSpace(input.Notes)

	if surname == "" || petName == "" || analysisType == "" {
		return nil, fmt.Errorf("%w: заполните обязательные поля: Фамилия, Кличка, Тип анализа", ErrValidation)
	}

	doctor, err := s.doctorRepo.GetByID(ctx, input.DoctorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDoctorNotFound
		}
		return nil, fmt.Errorf("failed to resolve doctor: %w", err)
	}

	createdAt, err := parseCustomDateTime(input.CustomDate, input.CustomTime, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	// Проверка дубликатов в пределах того же календарного дня
	existing, err := s.repo.FindByDuplicateKey(ctx, repository.DuplicateKey{
		ClientSurname: surname,
		PetName:       petName,
		AnalysisType:  analysisType,
		DoctorID:      doctor.ID,
		Day:           createdAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to check duplicates: %w", err)
	}
	if IsDuplicate(patientID, notes, existing) {
		return nil, ErrDuplicateAnalysis
	}

	analysis := &models.Analysis{
		PatientID:     patientID,
		ClientSurname: surname,
		PetName:       petName,
		AnalysisType:  analysisType,
		Status:        models.StatusActual,
		Notes:         notes,
		DoctorID:      doctor.ID,
		Doctor:        doctor,
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}

	if err := s.repo.Create(ctx, analysis); err != nil {
		return nil, fmt.Errorf("failed to create analysis: %w", err)
	}

	return analysis, nil
}

// parseCustomDateTime: дата без времени комбинируется с текущим временем суток
func parseCustomDateTime(customDate, customTime string, now time.Time) (time.Time, error) {
	if customDate == "" {
		return now, nil
	}

	if customTime != "" {
		t, err := time.Parse("2006-01-02 15:04", customDate+" "+customTime)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: неверный формат даты или времени", ErrValidation)
		}
		return t, nil
	}

	d, err := time.Parse("2006-01-02", customDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: неверный формат даты или времени", ErrValidation)
	}
	return time.Date(d.Year(), d.Month(), d.Day(),
		now.Hour(), now.Minute(), now.Second(), 0, time.UTC), nil
}

func (s *analysisService) Get(ctx context.Context, id uuid.UUID) (*models.Analysis, error) {
	analysis, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAnalysisNotFound
		}
		return nil, err
	}
	return analysis, nil
}

func (s *analysisService) Edit(ctx context.Context, id uuid.UUID, input EditAnalysisInput) (*models.Analysis, error) {
	analysis, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	surname := strings.TrimSpace(input.ClientSurname)
	petName := strings.TrimSpace(input.PetName)
	analysisType := strings.TrimSpace(input.AnalysisType)

	if surname == "" || petName == "" || analysisType == "" {
		return nil, fmt.Errorf("%w: заполните обязательные поля: Фамилия, Кличка, Тип анализа", ErrValidation)
	}

	doctor, err := s.doctorRepo.GetByID(ctx, input.DoctorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDoctorNotFound
		}
		return nil, fmt.Errorf("failed to resolve doctor: %w", err)
	}

	analysis.PatientID = strings.TrimSpace(input.PatientID)
	analysis.ClientSurname = surname
	analysis.PetName = petName
	analysis.AnalysisType = analysisType
	analysis.Notes = strings.TrimSpace(input.Notes)
	analysis.DoctorID = doctor.ID
	analysis.Doctor = doctor
	analysis.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, analysis); err != nil {
		return nil, fmt.Errorf("failed to update analysis: %w", err)
	}

	return analysis, nil
}

func (s *analysisService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *analysisService) List(ctx context.Context, filter repository.AnalysisFilter, now time.Time) (*Partition, error) {
	analyses, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}

	partition := PartitionAnalyses(analyses, now)
	return &partition, nil
}

// MarkProcessed переводит запись actual -> processed и пишет запись в журнал
// звонков. Повторный вызов дает штатный исход AlreadyProcessed, не ошибку.
func (s *analysisService) MarkProcessed(ctx context.Context, id uuid.UUID) (MarkOutcome, *models.Analysis, error) {
	now := time.Now().UTC()

	rows, err := s.repo.MarkProcessed(ctx, id, now)
	if err != nil {
		return "", nil, fmt.Errorf("failed to mark analysis processed: %w", err)
	}

	analysis, err := s.Get(ctx, id)
	if err != nil {
		return "", nil, err
	}

	if rows == 0 {
		// Условный UPDATE не сработал: запись уже была обработана
		return OutcomeAlreadyProcessed, analysis, nil
	}

	entry := calllog.Entry{
		Time:          now,
		ClientSurname: analysis.ClientSurname,
		PetName:       analysis.PetName,
		AnalysisType:  analysis.AnalysisType,
		DoctorName:    analysis.DoctorName(),
		PatientID:     analysis.PatientID,
	}
	if err := s.callLog.Append(entry); err != nil {
		log.Printf("Failed to write call log entry: %v", err)
	}

	return OutcomeProcessed, analysis, nil
}

// ResetAll выполняет административный сброс: все записи снова actual
func (s *analysisService) ResetAll(ctx context.Context) (int64, error) {
	return s.repo.ResetAll(ctx)
}
