package service

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"malvinvet/internal/calllog"
	"malvinvet/internal/models"
	"malvinvet/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// In-memory реализации репозиториев для тестов сервисного слоя

type mockAnalysisRepo struct {
	analyses map[uuid.UUID]*models.Analysis
}

func newMockAnalysisRepo() *mockAnalysisRepo {
	return &mockAnalysisRepo{analyses: make(map[uuid.UUID]*models.Analysis)}
}

func (m *mockAnalysisRepo) Create(ctx context.Context, analysis *models.Analysis) error {
	if analysis.ID == uuid.Nil {
		analysis.ID = uuid.New()
	}
	stored := *analysis
	m.analyses[analysis.ID] = &stored
	return nil
}

func (m *mockAnalysisRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Analysis, error) {
	a, ok := m.analyses[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *a
	return &copied, nil
}

func (m *mockAnalysisRepo) Update(ctx context.Context, analysis *models.Analysis) error {
	if _, ok := m.analyses[analysis.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	stored := *analysis
	m.analyses[analysis.ID] = &stored
	return nil
}

func (m *mockAnalysisRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(m.analyses, id)
	return nil
}

func (m *mockAnalysisRepo) List(ctx context.Context, filter repository.AnalysisFilter) ([]models.Analysis, error) {
	var result []models.Analysis
	for _, a := range m.analyses {
		if filter.DoctorID != nil && a.DoctorID != *filter.DoctorID {
			continue
		}
		if filter.Date != nil && !sameDay(a.CreatedAt, *filter.Date) {
			continue
		}
		if filter.Search != "" && !matchesSearch(a, filter.Search) {
			continue
		}
		result = append(result, *a)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (m *mockAnalysisRepo) ListAll(ctx context.Context) ([]models.Analysis, error) {
	return m.List(ctx, repository.AnalysisFilter{})
}

func (m *mockAnalysisRepo) FindByDuplicateKey(ctx context.Context, key repository.DuplicateKey) ([]models.Analysis, error) {
	var result []models.Analysis
	for _, a := range m.analyses {
		if a.ClientSurname == key.ClientSurname &&
			a.PetName == key.PetName &&
			a.AnalysisType == key.AnalysisType &&
			a.DoctorID == key.DoctorID &&
			sameDay(a.CreatedAt, key.Day) {
			result = append(result, *a)
		}
	}
	return result, nil
}

func (m *mockAnalysisRepo) MarkProcessed(ctx context.Context, id uuid.UUID, at time.Time) (int64, error) {
	a, ok := m.analyses[id]
	if !ok || a.Status != models.StatusActual {
		return 0, nil
	}
	processedAt := at
	a.Status = models.StatusProcessed
	a.ProcessedAt = &processedAt
	a.UpdatedAt = at
	return 1, nil
}

func (m *mockAnalysisRepo) SetArchived(ctx context.Context, id uuid.UUID, at time.Time) (int64, error) {
	a, ok := m.analyses[id]
	if !ok || a.Status != models.StatusProcessed {
		return 0, nil
	}
	archivedAt := at
	a.ArchivedAt = &archivedAt
	a.UpdatedAt = at
	return 1, nil
}

func (m *mockAnalysisRepo) ArchiveRecent(ctx context.Context, cutoff, at time.Time) (int64, error) {
	var count int64
	for _, a := range m.analyses {
		if a.Status != models.StatusProcessed || a.ArchivedAt != nil {
			continue
		}
		if a.ProcessedAt == nil || a.ProcessedAt.Before(cutoff) {
			continue
		}
		archivedAt := at
		a.ArchivedAt = &archivedAt
		a.UpdatedAt = at
		count++
	}
	return count, nil
}

func (m *mockAnalysisRepo) ResetAll(ctx context.Context) (int64, error) {
	var count int64
	for _, a := range m.analyses {
		a.Status = models.StatusActual
		a.ProcessedAt = nil
		a.ArchivedAt = nil
		count++
	}
	return count, nil
}

func (m *mockAnalysisRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(m.analyses)), nil
}

func (m *mockAnalysisRepo) CountByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	for _, a := range m.analyses {
		if a.Status == status {
			count++
		}
	}
	return count, nil
}

func (m *mockAnalysisRepo) CountByDoctor(ctx context.Context, doctorID uuid.UUID) (int64, error) {
	var count int64
	for _, a := range m.analyses {
		if a.DoctorID == doctorID {
			count++
		}
	}
	return count, nil
}

func (m *mockAnalysisRepo) DeleteAll(ctx context.Context) error {
	m.analyses = make(map[uuid.UUID]*models.Analysis)
	return nil
}

func sameDay(a, b time.Time) bool {
	return a.Format("2006-01-02") == b.Format("2006-01-02")
}

func matchesSearch(a *models.Analysis, search string) bool {
	search = strings.ToLower(search)
	for _, field := range []string{a.ClientSurname, a.PetName, a.AnalysisType, a.Notes, a.PatientID} {
		if strings.Contains(strings.ToLower(field), search) {
			return true
		}
	}
	return false
}

type mockDoctorRepo struct {
	doctors map[uuid.UUID]*models.Doctor
}

func newMockDoctorRepo() *mockDoctorRepo {
	return &mockDoctorRepo{doctors: make(map[uuid.UUID]*models.Doctor)}
}

func (m *mockDoctorRepo) Create(ctx context.Context, doctor *models.Doctor) error {
	if doctor.ID == uuid.Nil {
		doctor.ID = uuid.New()
	}
	stored := *doctor
	m.doctors[doctor.ID] = &stored
	return nil
}

func (m *mockDoctorRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Doctor, error) {
	d, ok := m.doctors[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *d
	return &copied, nil
}

func (m *mockDoctorRepo) GetByName(ctx context.Context, name string) (*models.Doctor, error) {
	for _, d := range m.doctors {
		if d.Name == name {
			copied := *d
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDoctorRepo) List(ctx context.Context) ([]models.Doctor, error) {
	var result []models.Doctor
	for _, d := range m.doctors {
		result = append(result, *d)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result, nil
}

func (m *mockDoctorRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(m.doctors, id)
	return nil
}

func (m *mockDoctorRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(m.doctors)), nil
}

func (m *mockDoctorRepo) DeleteAll(ctx context.Context) error {
	m.doctors = make(map[uuid.UUID]*models.Doctor)
	return nil
}

type mockImportLogRepo struct {
	logs []models.ImportLog
}

func (m *mockImportLogRepo) Create(ctx context.Context, log *models.ImportLog) error {
	m.logs = append(m.logs, *log)
	return nil
}

func (m *mockImportLogRepo) List(ctx context.Context, limit int) ([]models.ImportLog, error) {
	if limit < 1 || limit > len(m.logs) {
		limit = len(m.logs)
	}
	return m.logs[:limit], nil
}

type mockCache struct {
	values map[string][]byte
}

func newMockCache() *mockCache {
	return &mockCache{values: make(map[string][]byte)}
}

func (m *mockCache) Get(ctx context.Context, key string) (string, error) {
	return string(m.values[key]), nil
}

func (m *mockCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.values[key] = data
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	delete(m.values, key)
	return nil
}

func (m *mockCache) GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, ok := m.values[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (m *mockCache) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return m.Set(ctx, key, value, expiration)
}

// memCallLog накапливает записи журнала звонков в памяти
type memCallLog struct {
	entries []calllog.Entry
}

func (m *memCallLog) Append(entry calllog.Entry) error {
	m.entries = append(m.entries, entry)
	return nil
}

// newTestDoctor создает врача напрямую в репозитории
func newTestDoctor(repo *mockDoctorRepo, name string) *models.Doctor {
	doctor := &models.Doctor{Name: name}
	repo.Create(context.Background(), doctor)
	return doctor
}
