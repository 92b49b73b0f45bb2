package model

import "time"

// User is a resident account.
type User struct {
	ID           int64     `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Name         string    `gorm:"size:128;not null" json:"name"`
	ApartmentID  string    `gorm:"size:40;not null;index" json:"apartmentId"`
	Floor        int       `gorm:"not null" json:"floor"`
	UnitNumber   string    `gorm:"size:32;not null" json:"unitNumber"`
	CreatedAt    time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"not null" json:"updatedAt"`
}
