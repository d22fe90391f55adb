package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"malvinvet/internal/models"
	"malvinvet/internal/repository"

	"github.com/google/uuid"
)

func newTestAnalysisService() (AnalysisService, *mockAnalysisRepo, *mockDoctorRepo, *memCallLog) {
	analysisRepo := newMockAnalysisRepo()
	doctorRepo := newMockDoctorRepo()
	callLog := &memCallLog{}
	svc := NewAnalysisService(analysisRepo, doctorRepo, callLog)
	return svc, analysisRepo, doctorRepo, callLog
}

func TestAddAnalysisValidation(t *testing.T) {
	svc, _, doctorRepo, _ := newTestAnalysisService()
	doctor := newTestDoctor(doctorRepo, "Волков И.Р.")

	cases := []struct {
		name  string
		input AddAnalysisInput
	}{
		{"empty surname", AddAnalysisInput{PetName: "Барс", AnalysisType: "Кровь", DoctorID: doctor.ID}},
		{"empty pet name", AddAnalysisInput{ClientSurname: "Иванов", AnalysisType: "Кровь", DoctorID: doctor.ID}},
		{"empty analysis type", AddAnalysisInput{ClientSurname: "Иванов", PetName: "Барс", DoctorID: doctor.ID}},
		{"whitespace only", AddAnalysisInput{ClientSurname: "   ", PetName: "Барс", AnalysisType: "Кровь", DoctorID: doctor.ID}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Add(context.Background(), tc.input)
			if !errors.Is(err, ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestAddAnalysisUnknownDoctor(t *testing.T) {
	svc, _, _, _ := newTestAnalysisService()

	_, err := svc.Add(context.Background(), AddAnalysisInput{
		ClientSurname: "Иванов",
		PetName:       "Барс",
		AnalysisType:  "Кровь",
		DoctorID:      uuid.New(),
	})
	if !errors.Is(err, ErrDoctorNotFound) {
		t.Fatalf("expected ErrDoctorNotFound, got %v", err)
	}
}

func TestAddAnalysisTrimsFields(t *testing.T) {
	svc, _, doctorRepo, _ := newTestAnalysisService()
	doctor := newTestDoctor(doctorRepo, "Волков И.Р.")

	analysis, err := svc.Add(context.Background(), AddAnalysisInput{
		ClientSurname: "  Иванов  ",
		PetName:       " Барс ",
		AnalysisType:  " Кровь ",
		PatientID:     " 123 ",
		Notes:         "  срочно  ",
		DoctorID:      doctor.ID,
	})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if analysis.ClientSurname != "Иванов" || analysis.PetName != "Барс" {
		t.Errorf("fields not trimmed: %q / %q", analysis.ClientSurname, analysis.PetName)
	}
	if analysis.PatientID != "123" || analysis.Notes != "срочно" {
		t.Errorf("optional fields not trimmed: %q / %q", analysis.PatientID, analysis.Notes)
	}
	if analysis.Status != models.StatusActual {
		t.Errorf("new analysis must be actual, got %q", analysis.Status)
	}
	if analysis.ProcessedAt != nil {
		t.Error("new analysis must not have processed_at")
	}
}

func TestAddAnalysisCustomDateTime(t *testing.T) {
	svc, _, doctorRepo, _ := newTestAnalysisService()
	doctor := newTestDoctor(doctorRepo, "Волков И.Р.")

	analysis, err := svc.Add(context.Background(), AddAnalysisInput{
		ClientSurname: "Иванов",
		PetName:       "Барс",
		AnalysisType:  "Кровь",
		DoctorID:      doctor.ID,
		CustomDate:    "2024-03-01",
		CustomTime:    "14:30",
	})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	want := time.Date(2024, 3, 1, 14, 30, 0, 0, time.UTC)
	if !analysis.CreatedAt.Equal(want) {
		t.Errorf("created_at = %v, want %v", analysis.CreatedAt, want)
	}
}

func TestAddAnalysisDateWithoutTime(t *testing.T) {
	svc, _, doctorRepo, _ := newTestAnalysisService()
	doctor := newTestDoctor(doctorRepo, "Волков И.Р.")

	analysis, err := svc.Add(context.Background(), AddAnalysisInput{
		ClientSurname: "Иванов",
		PetName:       "Барс",
		AnalysisType:  "Кровь",
		DoctorID:      doctor.ID,
		CustomDate:    "2024-03-01",
	})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	// Дата берется из ввода, время суток от текущего момента
	if got := analysis.CreatedAt.Format("2006-01-02"); got != "2024-03-01" {
		t.Errorf("created_at date = %s, want 2024-03-01", got)
	}
}

func TestAddAnalysisBadCustomDate(t *testing.T) {
	svc, _, doctorRepo, _ := newTestAnalysisService()
	doctor := newTestDoctor(doctorRepo, "Волков И.Р.")

	for _, tc := range []struct{ date, clock string }{
		{"01.03.2024", "14:30"},
		{"2024-03-01", "25:99"},
		{"not-a-date", ""},
	} {
		_, err := svc.Add(context.Background(), AddAnalysisInput{
			ClientSurname: "Иванов",
			PetName:       "Барс",
			AnalysisType:  "Кровь",
			DoctorID:      doctor.ID,
			CustomDate:    tc.date,
			CustomTime:    tc.clock,
		})
		if !errors.Is(err, ErrValidation) {
			t.Errorf("date %q time %q: expected ErrValidation, got %v", tc.date, tc.clock, err)
		}
	}
}

func TestAddAnalysisDuplicateSameDay(t *testing.T) {
	svc, _, doctorRepo, _ := newTestAnalysisService()
	doctor := newTestDoctor(doctorRepo, "Волков И.Р.")

	base := AddAnalysisInput{
		ClientSurname: "Иванов",
		PetName:       "Барс",
		AnalysisType:  "Кровь",
		PatientID:     "123",
		DoctorID:      doctor.ID,
	}

	if _, err := svc.Add(context.Background(), base); err != nil {
		t.Fatalf("first Add failed: %v", err)
	}

	// Полное совпадение ключа, ID пациента и примечаний
	if _, err := svc.Add(context.Background(), base); !errors.Is(err, ErrDuplicateAnalysis) {
		t.Errorf("expected ErrDuplicateAnalysis, got %v", err)
	}

	// Другой ID пациента при том же дневном ключе считается отдельным анализом
	other := base
	other.PatientID = "124"
	if _, err := svc.Add(context.Background(), other); err != nil {
		t.Errorf("different patient id must not be a duplicate: %v", err)
	}

	// Другие примечания тоже снимают дубликат
	noted := base
	noted.Notes = "повторный забор"
	if _, err := svc.Add(context.Background(), noted); err != nil {
		t.Errorf("different notes must not be a duplicate: %v", err)
	}
}

func TestAddAnalysisDifferentDayNotDuplicate(t *testing.T) {
	svc, _, doctorRepo, _ := newTestAnalysisService()
	doctor := newTestDoctor(doctorRepo, "Волков И.Р.")

	first := AddAnalysisInput{
		ClientSurname: "Иванов",
		PetName:       "Барс",
		AnalysisType:  "Кровь",
		PatientID:     "123",
		DoctorID:      doctor.ID,
		CustomDate:    "2024-03-01",
		CustomTime:    "10:00",
	}
	if _, err := svc.Add(context.Background(), first); err != nil {
		t.Fatalf("first Add failed: %v", err)
	}

	second := first
	second.CustomDate = "2024-03-02"
	if _, err := svc.Add(context.Background(), second); err != nil {
		t.Errorf("same key on another day must not be a duplicate: %v", err)
	}
}

func TestMarkProcessed(t *testing.T) {
	svc, _, doctorRepo, callLog := newTestAnalysisService()
	doctor := newTestDoctor(doctorRepo, "Волков И.Р.")

	analysis, err := svc.Add(context.Background(), AddAnalysisInput{
		ClientSurname: "Иванов",
		PetName:       "Барс",
		AnalysisType:  "Кровь",
		PatientID:     "123",
		DoctorID:      doctor.ID,
	})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	outcome, marked, err := svc.MarkProcessed(context.Background(), analysis.ID)
	if err != nil {
		t.Fatalf("MarkProcessed failed: %v", err)
	}
	if outcome != OutcomeProcessed {
		t.Errorf("outcome = %q, want %q", outcome, OutcomeProcessed)
	}
	if marked.Status != models.StatusProcessed {
		t.Errorf("status = %q, want %q", marked.Status, models.StatusProcessed)
	}
	if marked.ProcessedAt == nil {
		t.Fatal("processed_at must be set")
	}
	if !marked.IsCalled() {
		t.Error("processed analysis must report called")
	}
	if len(callLog.entries) != 1 {
		t.Fatalf("call log entries = %d, want 1", len(callLog.entries))
	}
	if callLog.entries[0].ClientSurname != "Иванов" || callLog.entries[0].PatientID != "123" {
		t.Errorf("unexpected call log entry: %+v", callLog.entries[0])
	}
}

func TestMarkProcessedIdempotent(t *testing.T) {
	svc, _, doctorRepo, callLog := newTestAnalysisService()
	doctor := newTestDoctor(doctorRepo, "Волков И.Р.")

	analysis, err := svc.Add(context.Background(), AddAnalysisInput{
		ClientSurname: "Иванов",
		PetName:       "Барс",
		AnalysisType:  "Кровь",
		DoctorID:      doctor.ID,
	})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	_, first, err := svc.MarkProcessed(context.Background(), analysis.ID)
	if err != nil {
		t.Fatalf("first MarkProcessed failed: %v", err)
	}

	outcome, second, err := svc.MarkProcessed(context.Background(), analysis.ID)
	if err != nil {
		t.Fatalf("second MarkProcessed failed: %v", err)
	}
	if outcome != OutcomeAlreadyProcessed {
		t.Errorf("outcome = %q, want %q", outcome, OutcomeAlreadyProcessed)
	}
	if !second.ProcessedAt.Equal(*first.ProcessedAt) {
		t.Error("repeated call must not move processed_at")
	}
	if len(callLog.entries) != 1 {
		t.Errorf("call log entries = %d, want 1 (no entry for repeat)", len(callLog.entries))
	}
}

func TestMarkProcessedNotFound(t *testing.T) {
	svc, _, _, _ := newTestAnalysisService()

	_, _, err := svc.MarkProcessed(context.Background(), uuid.New())
	if !errors.Is(err, ErrAnalysisNotFound) {
		t.Fatalf("expected ErrAnalysisNotFound, got %v", err)
	}
}

func TestEditKeepsCreatedAt(t *testing.T) {
	svc, _, doctorRepo, _ := newTestAnalysisService()
	doctor := newTestDoctor(doctorRepo, "Волков И.Р.")
	other := newTestDoctor(doctorRepo, "Соколова А.С.")

	analysis, err := svc.Add(context.Background(), AddAnalysisInput{
		ClientSurname: "Иванов",
		PetName:       "Барс",
		AnalysisType:  "Кровь",
		DoctorID:      doctor.ID,
		CustomDate:    "2024-03-01",
		CustomTime:    "10:00",
	})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	edited, err := svc.Edit(context.Background(), analysis.ID, EditAnalysisInput{
		ClientSurname: "Петров",
		PetName:       "Барс",
		AnalysisType:  "Моча",
		DoctorID:      other.ID,
	})
	if err != nil {
		t.Fatalf("Edit failed: %v", err)
	}

	if edited.ClientSurname != "Петров" || edited.AnalysisType != "Моча" {
		t.Errorf("edit not applied: %+v", edited)
	}
	if edited.DoctorID != other.ID {
		t.Error("doctor not reassigned")
	}
	if !edited.CreatedAt.Equal(analysis.CreatedAt) {
		t.Error("edit must not change created_at")
	}
}

func TestDeleteNotFound(t *testing.T) {
	svc, _, _, _ := newTestAnalysisService()

	if err := svc.Delete(context.Background(), uuid.New()); !errors.Is(err, ErrAnalysisNotFound) {
		t.Fatalf("expected ErrAnalysisNotFound, got %v", err)
	}
}

func TestResetAll(t *testing.T) {
	svc, repo, doctorRepo, _ := newTestAnalysisService()
	doctor := newTestDoctor(doctorRepo, "Волков И.Р.")

	ids := make([]uuid.UUID, 0, 3)
	for _, pet := range []string{"Барс", "Мурка", "Рекс"} {
		a, err := svc.Add(context.Background(), AddAnalysisInput{
			ClientSurname: "Иванов",
			PetName:       pet,
			AnalysisType:  "Кровь",
			DoctorID:      doctor.ID,
		})
		if err != nil {
			t.Fatalf("Add failed: %v", err)
		}
		ids = append(ids, a.ID)
	}

	for _, id := range ids[:2] {
		if _, _, err := svc.MarkProcessed(context.Background(), id); err != nil {
			t.Fatalf("MarkProcessed failed: %v", err)
		}
	}

	count, err := svc.ResetAll(context.Background())
	if err != nil {
		t.Fatalf("ResetAll failed: %v", err)
	}
	if count != 3 {
		t.Errorf("reset count = %d, want 3", count)
	}

	for _, id := range ids {
		a, err := repo.GetByID(context.Background(), id)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if a.Status != models.StatusActual || a.ProcessedAt != nil || a.ArchivedAt != nil {
			t.Errorf("analysis %s not fully reset: %+v", id, a)
		}
	}
}

func TestListPartitions(t *testing.T) {
	svc, repo, doctorRepo, _ := newTestAnalysisService()
	doctor := newTestDoctor(doctorRepo, "Волков И.Р.")
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	recent := now.Add(-24 * time.Hour)
	old := now.Add(-10 * 24 * time.Hour)

	seed := []models.Analysis{
		{ClientSurname: "Иванов", PetName: "Барс", AnalysisType: "Кровь", Status: models.StatusActual, DoctorID: doctor.ID, CreatedAt: now},
		{ClientSurname: "Петров", PetName: "Мурка", AnalysisType: "Моча", Status: models.StatusProcessed, ProcessedAt: &recent, DoctorID: doctor.ID, CreatedAt: old},
		{ClientSurname: "Сидоров", PetName: "Рекс", AnalysisType: "Кровь", Status: models.StatusProcessed, ProcessedAt: &old, DoctorID: doctor.ID, CreatedAt: old},
	}
	for i := range seed {
		if err := repo.Create(context.Background(), &seed[i]); err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}

	partition, err := svc.List(context.Background(), repository.AnalysisFilter{}, now)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	if len(partition.Actual) != 1 || len(partition.Recent) != 1 || len(partition.Archived) != 1 {
		t.Fatalf("partition sizes = %d/%d/%d, want 1/1/1",
			len(partition.Actual), len(partition.Recent), len(partition.Archived))
	}
	if partition.Actual[0].ClientSurname != "Иванов" {
		t.Errorf("actual bucket holds %q", partition.Actual[0].ClientSurname)
	}
	if partition.Recent[0].ClientSurname != "Петров" {
		t.Errorf("recent bucket holds %q", partition.Recent[0].ClientSurname)
	}
	if partition.Archived[0].ClientSurname != "Сидоров" {
		t.Errorf("archived bucket holds %q", partition.Archived[0].ClientSurname)
	}
}
