package model

import "time"

// CardType labels one of the three access cards an apartment holds.
type CardType string

const (
	CardTypePrincipal CardType = "A"
	CardTypeSecondary CardType = "B"
	CardTypeGuest     CardType = "C"
)

// CardTypes lists every card type in label order.
var CardTypes = []CardType{CardTypePrincipal, CardTypeSecondary, CardTypeGuest}

// Valid reports whether t is one of A, B or C.
func (t CardType) Valid() bool {
	switch t {
	case CardTypePrincipal, CardTypeSecondary, CardTypeGuest:
		return true
	}
	return false
}

// DefaultName is the name given to auto-provisioned cards.
func (t CardType) DefaultName() string {
	switch t {
	case CardTypePrincipal:
		return "Principal Card"
	case CardTypeSecondary:
		return "Secondary Card"
	case CardTypeGuest:
		return "Guest Card"
	}
	return string(t)
}

// Card is an access card bound to an apartment identifier.
type Card struct {
	ID          int64      `gorm:"primaryKey" json:"id"`
	ApartmentID string     `gorm:"size:40;not null;uniqueIndex:idx_card_apartment_type" json:"apartmentId"`
	UnitNumber  string     `gorm:"size:32;not null;index" json:"unitNumber"`
	CardType    CardType   `gorm:"size:1;not null;uniqueIndex:idx_card_apartment_type" json:"cardType"`
	Name        string     `gorm:"size:128;not null" json:"name"`
	Active      bool       `gorm:"not null;default:false" json:"active"`
	LastUsedAt  *time.Time `json:"lastUsedAt"`
	CreatedAt   time.Time  `gorm:"not null" json:"createdAt"`
	UpdatedAt   time.Time  `gorm:"not null" json:"updatedAt"`
}
