package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"malvinvet/internal/models"
	"malvinvet/internal/repository"

	"gorm.io/datatypes"
)

// Словарь заголовков CSV-файла импорта
var (
	requiredColumns = []string{"Врач", "Фамилия", "Кличка", "Анализ"}
	optionalColumns = []string{"ID пациента", "Время создания", "Примечания"}
)

// Порядок форматов важен: выигрывает первый успешно распарсившийся
var creationTimeFormats = []string{
	"02.01.2006 15:04",
	"2006-01-02 15:04:05",
	"02/01/2006 15:04",
	"15:04 02.01.2006",
	"02.01.2006",
	"2006-01-02 15:04",
	"02.01.2006 15:04:05",
}

// ImportSummary подводит итог батча; построчные сбои агрегируются в счетчики
type ImportSummary struct {
	Added            int `json:"added"`
	DuplicateSkipped int `json:"duplicate_skipped"`
	EmptySkipped     int `json:"empty_skipped"`
	Errored          int `json:"errored"`
}

// importRow представляет типизированную строку импорта, проверенную на границе
type importRow struct {
	DoctorName    string
	ClientSurname string
	PetName       string
	AnalysisType  string
	PatientID     string
	TimeRaw       string
	Notes         string
}

// Построчные исходы, агрегируемые в счетчики
var (
	errRowEmpty     = errors.New("row is missing a required field")
	errRowDuplicate = errors.New("row duplicates an existing analysis")
)

type ImportService interface {
	ImportCSV(ctx context.Context, r io.Reader, filename string) (*ImportSummary, error)
	History(ctx context.Context, limit int) ([]models.ImportLog, error)
}

type importService struct {
	analysisRepo  repository.AnalysisRepository
	doctors       DoctorService
	importLogRepo repository.ImportLogRepository
}

func NewImportService(
	analysisRepo repository.AnalysisRepository,
	doctors DoctorService,
	importLogRepo repository.ImportLogRepository,
) ImportService {
	return &importService{
		analysisRepo:  analysisRepo,
		doctors:       doctors,
		importLogRepo: importLogRepo,
	}
}

// ImportCSV обрабатывает строки строго последовательно: порядок определяет,
// какой из дубликатов останется. Одна плохая строка не прерывает батч.
func (s *importService) ImportCSV(ctx context.Context, r io.Reader, filename string) (*ImportSummary, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: не удалось прочитать заголовки CSV файла", ErrValidation)
	}

	columns, missing := resolveColumns(header)
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: отсутствуют обязательные колонки: %s",
			ErrValidation, strings.Join(missing, ", "))
	}

	// Общий штамп для строк без явного времени создания
	batchTime := time.Now().UTC()

	summary := &ImportSummary{}
	// Врачи, созданные в этом батче, видны последующим строкам
	doctorCache := make(map[string]*models.Doctor)

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				summary.Errored++
				continue
			}
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}

		row := extractRow(record, columns)

		switch err := s.importOne(ctx, row, batchTime, doctorCache); {
		case err == nil:
			summary.Added++
		case errors.Is(err, errRowEmpty):
			summary.EmptySkipped++
		case errors.Is(err, errRowDuplicate):
			summary.DuplicateSkipped++
		default:
			summary.Errored++
		}
	}

	s.saveImportLog(ctx, filename, summary)

	log.Printf("Import finished: added=%d duplicates=%d empty=%d errors=%d",
		summary.Added, summary.DuplicateSkipped, summary.EmptySkipped, summary.Errored)

	return summary, nil
}

// resolveColumns сопоставляет словарь колонок с заголовком файла, допуская
// точный, нижний и верхний регистры
func resolveColumns(header []string) (map[string]int, []string) {
	fields := make(map[string]int, len(header))
	for i, cell := range header {
		fields[strings.TrimSpace(cell)] = i
	}

	columns := make(map[string]int)
	for _, col := range append(append([]string{}, requiredColumns...), optionalColumns...) {
		for _, variant := range []string{col, strings.ToLower(col), strings.ToUpper(col)} {
			if idx, ok := fields[variant]; ok {
				columns[col] = idx
				break
			}
		}
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := columns[col]; !ok {
			missing = append(missing, col)
		}
	}
	return columns, missing
}

func extractRow(record []string, columns map[string]int) importRow {
	get := func(col string) string {
		idx, ok := columns[col]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	return importRow{
		DoctorName:    get("Врач"),
		ClientSurname: get("Фамилия"),
		PetName:       get("Кличка"),
		AnalysisType:  get("Анализ"),
		PatientID:     get("ID пациента"),
		TimeRaw:       get("Время создания"),
		Notes:         get("Примечания"),
	}
}

func (s *importService) importOne(
	ctx context.Context,
	row importRow,
	batchTime time.Time,
	doctorCache map[string]*models.Doctor,
) error {
	if row.DoctorName == "" || row.ClientSurname == "" || row.PetName == "" || row.AnalysisType == "" {
		return errRowEmpty
	}

	doctor, ok := doctorCache[row.DoctorName]
	if !ok {
		var err error
		doctor, err = s.doctors.FindOrCreate(ctx, row.DoctorName)
		if err != nil {
			return fmt.Errorf("failed to resolve doctor %q: %w", row.DoctorName, err)
		}
		doctorCache[row.DoctorName] = doctor
	}

	createdAt := parseCreationTime(row.TimeRaw, batchTime)

	existing, err := s.analysisRepo.FindByDuplicateKey(ctx, repository.DuplicateKey{
		ClientSurname: row.ClientSurname,
		PetName:       row.PetName,
		AnalysisType:  row.AnalysisType,
		DoctorID:      doctor.ID,
		Day:           createdAt,
	})
	if err != nil {
		return fmt.Errorf("failed to check duplicates: %w", err)
	}
	if IsDuplicate(row.PatientID, row.Notes, existing) {
		return errRowDuplicate
	}

	analysis := &models.Analysis{
		PatientID:     row.PatientID,
		ClientSurname: row.ClientSurname,
		PetName:       row.PetName,
		AnalysisType:  row.AnalysisType,
		Status:        models.StatusActual,
		Notes:         row.Notes,
		DoctorID:      doctor.ID,
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}
	if err := s.analysisRepo.Create(ctx, analysis); err != nil {
		return fmt.Errorf("failed to create analysis: %w", err)
	}
	return nil
}

// parseCreationTime: нераспарсившееся время деградирует к штампу батча,
// а не к ошибке, в отличие от ручного ввода
func parseCreationTime(raw string, batchTime time.Time) time.Time {
	if raw == "" {
		return batchTime
	}

	for _, format := range creationTimeFormats {
		if t, err := time.Parse(format, raw); err == nil {
			return t
		}
	}
	return batchTime
}

func (s *importService) saveImportLog(ctx context.Context, filename string, summary *ImportSummary) {
	payload, err := json.Marshal(summary)
	if err != nil {
		log.Printf("Failed to marshal import summary: %v", err)
		return
	}

	entry := &models.ImportLog{
		Filename:         filename,
		Added:            summary.Added,
		DuplicateSkipped: summary.DuplicateSkipped,
		EmptySkipped:     summary.EmptySkipped,
		Errored:          summary.Errored,
		Summary:          datatypes.JSON(payload),
	}
	if err := s.importLogRepo.Create(ctx, entry); err != nil {
		log.Printf("Failed to save import log: %v", err)
	}
}

func (s *importService) History(ctx context.Context, limit int) ([]models.ImportLog, error) {
	return s.importLogRepo.List(ctx, limit)
}
