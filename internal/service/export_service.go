package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"malvinvet/internal/models"
	"malvinvet/internal/repository"
	"malvinvet/internal/utils"
)

// exportTimeFormat задает формат дат в выгрузке
const exportTimeFormat = "02.01.2006 15:04"

type ExportService interface {
	ExportCSV(ctx context.Context, w io.Writer) error
	ExportExcel(ctx context.Context) (string, error)
}

type exportService struct {
	repo      repository.AnalysisRepository
	outputDir string
}

func NewExportService(repo repository.AnalysisRepository, outputDir string) ExportService {
	if outputDir == "" {
		outputDir = "./data/exports"
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		log.Printf("Failed to create export directory: %v", err)
	}

	return &exportService{
		repo:      repo,
		outputDir: outputDir,
	}
}

// ExportCSV пишет все анализы, новые первыми, с разделителем ';'
func (s *exportService) ExportCSV(ctx context.Context, w io.Writer) error {
	analyses, err := s.repo.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load analyses: %w", err)
	}

	writer := csv.NewWriter(w)
	writer.Comma = ';'
	defer writer.Flush()

	header := []string{
		"ID", "ID пациента", "Фамилия владельца", "Кличка", "Тип анализа",
		"Статус", "Обработан", "Дата обработки", "Врач",
		"Примечания", "Дата создания", "Дата обновления",
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	for i := range analyses {
		if err := writer.Write(exportRow(&analyses[i])); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func exportRow(a *models.Analysis) []string {
	called := "Нет"
	if a.IsCalled() {
		called = "Да"
	}

	processedAt := ""
	if a.ProcessedAt != nil {
		processedAt = a.ProcessedAt.Format(exportTimeFormat)
	}

	return []string{
		a.ID.String(),
		a.PatientID,
		a.ClientSurname,
		a.PetName,
		a.AnalysisType,
		a.Status,
		called,
		processedAt,
		a.DoctorName(),
		a.Notes,
		a.CreatedAt.Format(exportTimeFormat),
		a.UpdatedAt.Format(exportTimeFormat),
	}
}

// ExportExcel сохраняет выгрузку в файл и возвращает путь к нему
func (s *exportService) ExportExcel(ctx context.Context) (string, error) {
	analyses, err := s.repo.ListAll(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load analyses: %w", err)
	}

	filename := fmt.Sprintf("analyses_export_%s.xlsx",
		time.Now().UTC().Format("20060102_150405"))
	path := filepath.Join(s.outputDir, filename)

	if err := utils.CreateExcelFile(path, analyses); err != nil {
		return "", fmt.Errorf("failed to create Excel file: %w", err)
	}

	log.Printf("Excel export generated: %s (%d records)", filename, len(analyses))
	return path, nil
}
