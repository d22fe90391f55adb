package models

import (
	"time"

	"github.com/google/uuid"
)

// Статусы анализа
const (
	StatusActual    = "actual"
	StatusProcessed = "processed"
)

type Analysis struct {
	ID            uuid.UUID  `gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	PatientID     string     `gorm:"type:varchar(50)"`
	ClientSurname string     `gorm:"type:varchar(100);not null"`
	PetName       string     `gorm:"type:varchar(100);not null"`
	AnalysisType  string     `gorm:"type:varchar(50);not null"`
	Status        string     `gorm:"type:varchar(20);not null;default:'actual';index"`
	ProcessedAt   *time.Time `gorm:"index"`
	ArchivedAt    *time.Time
	Notes         string     `gorm:"type:text"`
	DoctorID      uuid.UUID  `gorm:"type:uuid;not null;index"`
	Doctor        *Doctor    `gorm:"foreignKey:DoctorID"`
	CreatedAt     time.Time  `gorm:"not null;index"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime"`
}

// IsCalled выводится из статуса, отдельный флаг не хранится
func (a *Analysis) IsCalled() bool {
	return a.Status == StatusProcessed
}

// DoctorName возвращает имя врача, если связь загружена
func (a *Analysis) DoctorName() string {
	if a.Doctor != nil {
		return a.Doctor.Name
	}
	return ""
}
