package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// StudentImport records the outcome of one spreadsheet import.
type StudentImport struct {
	ID            uuid.UUID      `gorm:"type:uuid;primary_key;" json:"id"`
	FileName      string         `json:"file_name"`
	Success       bool           `json:"success"`
	AcceptedCount int            `json:"accepted_count"`
	SkippedCount  int            `json:"skipped_count"`
	Message       string         `gorm:"type:text" json:"message"`
	Diagnostics   datatypes.JSON `json:"diagnostics"`
	ImportedBy    string         `gorm:"not null" json:"imported_by"`
	ImportedAt    time.Time      `json:"imported_at"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
}
