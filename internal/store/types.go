package store

import (
	"time"

	"elevator-access-backend/internal/model"
)

// LedgerFilter narrows ListEntries. Nil fields are ignored; time bounds are
// inclusive.
type LedgerFilter struct {
	UnitNumber *string
	From       *time.Time
	To         *time.Time
}

// TotalsFilter selects the reference points for LedgerTotals.
type TotalsFilter struct {
	UnitNumber *string
	DayStart   time.Time
	WeekStart  time.Time
}

// LedgerTotals counts ledger rows overall and since the filter's reference
// points.
type LedgerTotals struct {
	Total      int64
	Successful int64
	Today      int64
	Week       int64
}

// ApartmentRollupRow aggregates ledger rows of one unit. Total and
// Successful cover the unit's whole history; InWindow counts rows since the
// rollup's start.
type ApartmentRollupRow struct {
	UnitNumber string
	Total      int64
	Successful int64
	InWindow   int64
}

// CardTypeRollupRow aggregates ledger rows of one card type since the
// rollup's start.
type CardTypeRollupRow struct {
	CardType   model.CardType
	Total      int64
	Successful int64
}

// EntryPoint is the projection used for per-day bucketing.
type EntryPoint struct {
	ExecutedAt time.Time
	Success    bool
}

// CardCounts summarizes the cards of one apartment identifier.
type CardCounts struct {
	Total  int64 `json:"total"`
	Active int64 `json:"active"`
	Used   int64 `json:"used"`
}

// CardPatch lists the card fields a caller may change.
type CardPatch struct {
	Name   *string
	Active *bool
}

var cardColumns = map[string]bool{"name": true, "active": true}

func (p CardPatch) updates() map[string]any {
	u := map[string]any{}
	if p.Name != nil {
		u["name"] = *p.Name
	}
	if p.Active != nil {
		u["active"] = *p.Active
	}
	return u
}

// ApartmentPatch lists the apartment fields a caller may change.
type ApartmentPatch struct {
	Floor      *int
	UnitNumber *string
}

var apartmentColumns = map[string]bool{"floor": true, "unit_number": true}

func (p ApartmentPatch) updates() map[string]any {
	u := map[string]any{}
	if p.Floor != nil {
		u["floor"] = *p.Floor
	}
	if p.UnitNumber != nil {
		u["unit_number"] = *p.UnitNumber
	}
	return u
}

// UserPatch lists the profile fields a caller may change. PasswordHash must
// already be hashed.
type UserPatch struct {
	Name         *string
	Email        *string
	PasswordHash *string
}

var userColumns = map[string]bool{"name": true, "email": true, "password_hash": true}

func (p UserPatch) updates() map[string]any {
	u := map[string]any{}
	if p.Name != nil {
		u["name"] = *p.Name
	}
	if p.Email != nil {
		u["email"] = *p.Email
	}
	if p.PasswordHash != nil {
		u["password_hash"] = *p.PasswordHash
	}
	return u
}
