package models

import (
	"time"

	"gorm.io/datatypes"
)

// ImportLog хранит итог каждого CSV-импорта
type ImportLog struct {
	ID               uint           `gorm:"primaryKey"`
	Filename         string         `gorm:"not null"`
	Added            int            `gorm:"not null"`
	DuplicateSkipped int            `gorm:"not null"`
	EmptySkipped     int            `gorm:"not null"`
	Errored          int            `gorm:"not null"`
	Summary          datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt        time.Time      `gorm:"autoCreateTime"`
}
