package model

import (
	"strings"
	"time"
)

// Action is the elevator command a card holder requests.
type Action string

const (
	ActionActivate   Action = "ACTIVATE"
	ActionDeactivate Action = "DEACTIVATE"
)

// ParseAction normalizes an action name. The legacy ENCENDER/APAGAR names
// are accepted as aliases.
func ParseAction(s string) (Action, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ACTIVATE", "ENCENDER":
		return ActionActivate, true
	case "DEACTIVATE", "APAGAR":
		return ActionDeactivate, true
	}
	return "", false
}

// Denial reasons stored on failed ledger entries.
const (
	ReasonCardNotFound = "CARD_NOT_FOUND"
	ReasonCardInactive = "CARD_INACTIVE"
	ReasonInternal     = "INTERNAL"
)

// CommandEntry is one immutable row of the command ledger.
type CommandEntry struct {
	ID         int64     `gorm:"primaryKey" json:"id"`
	UnitNumber string    `gorm:"size:32;not null;index" json:"unitNumber"`
	CardType   CardType  `gorm:"size:1;not null;index" json:"cardType"`
	Action     Action    `gorm:"size:16;not null" json:"action"`
	Success    bool      `gorm:"not null" json:"success"`
	Reason     string    `gorm:"size:32" json:"reason,omitempty"`
	ExecutedAt time.Time `gorm:"not null;index" json:"executedAt"`
}
