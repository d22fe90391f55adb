package calllog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Entry представляет одну запись журнала звонков
type Entry struct {
	Time          time.Time
	ClientSurname string
	PetName       string
	AnalysisType  string
	DoctorName    string
	PatientID     string
}

// LogFile представляет дневной файл журнала для просмотра
type LogFile struct {
	Filename    string `json:"filename"`
	Date        string `json:"date"`
	Content     string `json:"content"`
	RecordCount int    `json:"record_count"`
	Size        int64  `json:"size"`
}

// Writer пишет записи журнала звонков; ядро журнал обратно не читает
type Writer interface {
	Append(entry Entry) error
}

// FileWriter ведет по одному текстовому файлу на календарный день
type FileWriter struct {
	dir string
}

func NewFileWriter(dir string) (*FileWriter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create call log directory: %w", err)
	}
	return &FileWriter{dir: dir}, nil
}

func (w *FileWriter) Append(entry Entry) error {
	filename := fmt.Sprintf("calls_%s.txt", entry.Time.Format("2006-01-02"))
	path := filepath.Join(w.dir, filename)

	doctorName := entry.DoctorName
	if doctorName == "" {
		doctorName = "Не указан"
	}
	patientID := entry.PatientID
	if patientID == "" {
		patientID = "Не указан"
	}

	line := fmt.Sprintf(`
%s
ВРЕМЯ: %s
ВЛАДЕЛЕЦ: %s
КЛИЧКА: %s
АНАЛИЗ: %s
ВРАЧ: %s
ID ПАЦИЕНТА: %s
СТАТУС: Обработан
%s
`,
		strings.Repeat("=", 60),
		entry.Time.Format("2006-01-02 15:04:05"),
		entry.ClientSurname,
		entry.PetName,
		entry.AnalysisType,
		doctorName,
		patientID,
		strings.Repeat("=", 60),
	)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open call log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("failed to write call log entry: %w", err)
	}
	return nil
}

// List возвращает дневные файлы журнала, новые первыми
func (w *FileWriter) List() ([]LogFile, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var files []LogFile
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, "calls_") || !strings.HasSuffix(name, ".txt") {
			continue
		}

		path := filepath.Join(w.dir, name)
		content, err := os.ReadFile(path)
		if err != nil {
			continue
		}

		info, err := e.Info()
		if err != nil {
			continue
		}

		files = append(files, LogFile{
			Filename:    name,
			Date:        strings.TrimSuffix(strings.TrimPrefix(name, "calls_"), ".txt"),
			Content:     string(content),
			RecordCount: strings.Count(string(content), "ВЛАДЕЛЕЦ:"),
			Size:        info.Size(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Date > files[j].Date
	})

	return files, nil
}
