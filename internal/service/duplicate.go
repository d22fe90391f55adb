package service

import (
	"malvinvet/internal/models"
)

// IsDuplicate сравнивает кандидата с записями, уже отобранными по дневному
// ключу (фамилия + кличка + тип анализа + врач + дата создания). Дубликатом
// считается только точное совпадение ID пациента и примечаний, включая пустые.
// Записи с тем же ключом, но другим ID пациента или примечаниями считаются
// разными анализами (например, два забора крови за день с разными номерами направлений).
func IsDuplicate(patientID, notes string, existing []models.Analysis) bool {
	for i := range existing {
		if existing[i].PatientID == patientID && existing[i].Notes == notes {
			return true
		}
	}
	return false
}
