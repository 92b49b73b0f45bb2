package model

import "time"

// ApartmentIDPrefix is prepended to a unit number to form the identifier
// that cards and users reference.
const ApartmentIDPrefix = "apt-"

// Apartment represents a residential unit in the building.
type Apartment struct {
	ID         int64     `gorm:"primaryKey" json:"id"`
	Floor      int       `gorm:"not null;index" json:"floor"`
	UnitNumber string    `gorm:"size:32;not null;uniqueIndex" json:"unitNumber"`
	CreatedAt  time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt  time.Time `gorm:"not null" json:"updatedAt"`
}

// ApartmentID returns the card-facing identifier of the apartment.
func (a Apartment) ApartmentID() string {
	return ApartmentIDPrefix + a.UnitNumber
}
