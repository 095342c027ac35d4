package models

import (
	"time"
)

// Dataset indexes a user's stored sales file. The file itself lives in the content store
// under StoreKey; this row is refreshed on every successful upload of the same name.
type Dataset struct {
	ID           uint `gorm:"primaryKey"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	UserID       uint   `gorm:"not null;uniqueIndex:idx_user_file"`
	FileName     string `gorm:"size:255;not null;uniqueIndex:idx_user_file"`
	StoreKey     string `gorm:"size:512;not null"`
	RowCount     int    `gorm:"not null"`
	ProductCount int    `gorm:"not null"`
	SizeBytes    int64  `gorm:"not null"`
}
