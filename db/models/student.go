package models

import (
	"time"
)

// Student is a single roster entry. ID is always assigned by the database.
type Student struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null;index" json:"name"`
	DOB       time.Time `gorm:"column:dob;type:date;not null" json:"dob"`
	Email     string    `gorm:"type:varchar(255);not null;index" json:"email"`
	Mobile    string    `gorm:"type:varchar(50)" json:"mobile"`
	CreatedBy string    `gorm:"type:varchar(255)" json:"created_by"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
