package utils

import (
	"fmt"

	"malvinvet/internal/models"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Анализы"

// CreateExcelFile создает Excel файл со всеми анализами
func CreateExcelFile(path string, analyses []models.Analysis) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return err
	}

	headers := []string{
		"ID", "ID пациента", "Фамилия владельца", "Кличка", "Тип анализа",
		"Статус", "Обработан", "Дата обработки", "Врач",
		"Примечания", "Дата создания", "Дата обновления",
	}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}

	if style := headerStyle(f); style != 0 {
		first, _ := excelize.CoordinatesToCellName(1, 1)
		last, _ := excelize.CoordinatesToCellName(len(headers), 1)
		f.SetCellStyle(sheetName, first, last, style)
	}

	const timeFormat = "02.01.2006 15:04"

	for rowIdx, analysis := range analyses {
		rowNum := rowIdx + 2 // Заголовок в первой строке

		called := "Нет"
		if analysis.IsCalled() {
			called = "Да"
		}

		processedAt := ""
		if analysis.ProcessedAt != nil {
			processedAt = analysis.ProcessedAt.Format(timeFormat)
		}

		values := []interface{}{
			analysis.ID.String(),
			analysis.PatientID,
			analysis.ClientSurname,
			analysis.PetName,
			analysis.AnalysisType,
			analysis.Status,
			called,
			processedAt,
			analysis.DoctorName(),
			analysis.Notes,
			analysis.CreatedAt.Format(timeFormat),
			analysis.UpdatedAt.Format(timeFormat),
		}
		for colIdx, value := range values {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowNum)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	// Авто-ширина колонок
	for i := 1; i <= len(headers); i++ {
		colName, _ := excelize.ColumnNumberToName(i)
		f.SetColWidth(sheetName, colName, colName, 20)
	}

	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to remove default sheet: %w", err)
	}

	return f.SaveAs(path)
}

func headerStyle(f *excelize.File) int {
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return 0
	}
	return style
}
