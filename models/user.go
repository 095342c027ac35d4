package models

import (
	"time"
)

// User is a registered account. HashedPassword is empty for accounts created through Google sign-in.
type User struct {
	ID             uint `gorm:"primaryKey"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Email          string    `gorm:"size:255;not null;uniqueIndex"`
	HashedPassword []byte    `gorm:"not null"`
	FirstName      string    `gorm:"size:255"`
	LastName       string    `gorm:"size:255"`
	Datasets       []Dataset `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}
