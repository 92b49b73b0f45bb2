// Package building manages apartments and the lifecycle of their cards.
package building

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"elevator-access-backend/internal/errs"
	"elevator-access-backend/internal/model"
	"elevator-access-backend/internal/parse"
	"elevator-access-backend/internal/store"
)

const (
	MinFloor = 1
	MaxFloor = 50
)

// ApartmentSummary is an apartment with its card counters.
type ApartmentSummary struct {
	model.Apartment
	ApartmentID string `json:"apartmentId"`
	TotalCards  int64  `json:"totalCards"`
	ActiveCards int64  `json:"activeCards"`
}

// ApartmentDetail is an apartment with its cards.
type ApartmentDetail struct {
	model.Apartment
	ApartmentID string       `json:"apartmentId"`
	Cards       []model.Card `json:"cards"`
}

// DeleteResult reports what an apartment deletion removed.
type DeleteResult struct {
	Apartment      model.Apartment `json:"apartment"`
	CardsDeleted   int64           `json:"cardsDeleted"`
	EntriesDeleted int64           `json:"entriesDeleted"`
}

// Manager creates, changes and removes apartments together with their
// cards and ledger history.
type Manager struct {
	store  store.Store
	logger *zap.Logger
}

// NewManager creates a Manager.
func NewManager(s store.Store, logger *zap.Logger) *Manager {
	return &Manager{store: s, logger: logger.Named("building")}
}

// ValidateApartment checks the floor range and the unit number format.
func ValidateApartment(floor int, unitNumber string) error {
	if floor < MinFloor || floor > MaxFloor {
		return errs.New(errs.KindValidation, "floor must be between %d and %d", MinFloor, MaxFloor)
	}
	if !parse.ValidUnitNumber(unitNumber) {
		return errs.New(errs.KindValidation, "unit number is required and may contain only letters, digits and dashes")
	}
	return nil
}

// ProvisionCards creates the default cards of a unit that do not exist yet:
// A active, B and C inactive. It returns the cards it created.
func ProvisionCards(ctx context.Context, cards store.CardRegistry, unitNumber string) ([]model.Card, error) {
	apartmentID := parse.ApartmentID(unitNumber)
	existing, err := cards.ListCardsByApartment(ctx, apartmentID)
	if err != nil {
		return nil, err
	}
	have := make(map[model.CardType]bool, len(existing))
	for _, c := range existing {
		have[c.CardType] = true
	}

	var created []model.Card
	for _, ct := range model.CardTypes {
		if have[ct] {
			continue
		}
		card := model.Card{
			ApartmentID: apartmentID,
			UnitNumber:  unitNumber,
			CardType:    ct,
			Name:        ct.DefaultName(),
			Active:      ct == model.CardTypePrincipal,
		}
		if err := cards.CreateCard(ctx, &card); err != nil {
			return nil, err
		}
		created = append(created, card)
	}
	return created, nil
}

// CreateApartment inserts the apartment and provisions its cards in one
// transaction.
func (m *Manager) CreateApartment(ctx context.Context, floor int, unitNumber string) (ApartmentDetail, error) {
	unitNumber = strings.TrimSpace(unitNumber)
	if err := ValidateApartment(floor, unitNumber); err != nil {
		return ApartmentDetail{}, err
	}

	var detail ApartmentDetail
	err := m.store.Transaction(ctx, func(tx store.Store) error {
		apt := model.Apartment{Floor: floor, UnitNumber: unitNumber}
		if err := tx.CreateApartment(ctx, &apt); err != nil {
			return err
		}
		if _, err := ProvisionCards(ctx, tx, unitNumber); err != nil {
			return err
		}
		cards, err := tx.ListCardsByApartment(ctx, apt.ApartmentID())
		if err != nil {
			return err
		}
		detail = ApartmentDetail{Apartment: apt, ApartmentID: apt.ApartmentID(), Cards: cards}
		return nil
	})
	if err != nil {
		return ApartmentDetail{}, err
	}

	m.logger.Info("apartment created",
		zap.Int64("id", detail.ID),
		zap.Int("floor", floor),
		zap.String("unit", unitNumber))
	return detail, nil
}

// DeleteApartment removes the apartment's cards, its ledger entries, its
// push subscriptions and the apartment row in one transaction.
func (m *Manager) DeleteApartment(ctx context.Context, id int64) (DeleteResult, error) {
	var res DeleteResult
	err := m.store.Transaction(ctx, func(tx store.Store) error {
		apt, err := tx.GetApartment(ctx, id)
		if err != nil {
			return err
		}
		res.Apartment = apt

		if res.CardsDeleted, err = tx.DeleteCardsByApartment(ctx, apt.ApartmentID()); err != nil {
			return err
		}
		if res.EntriesDeleted, err = tx.DeleteEntriesByUnit(ctx, apt.UnitNumber); err != nil {
			return err
		}
		if err := tx.DeleteSubscriptionsByUnit(ctx, apt.UnitNumber); err != nil {
			return err
		}
		return tx.DeleteApartment(ctx, id)
	})
	if err != nil {
		return DeleteResult{}, err
	}

	m.logger.Info("apartment deleted",
		zap.Int64("id", id),
		zap.String("unit", res.Apartment.UnitNumber),
		zap.Int64("cards", res.CardsDeleted),
		zap.Int64("entries", res.EntriesDeleted))
	return res, nil
}

// UpdateApartment changes the floor and/or unit number. A unit can only be
// renumbered while nothing else refers to it: no residents, no ledger
// entries and no push subscriptions. Its cards move along with it.
func (m *Manager) UpdateApartment(ctx context.Context, id int64, patch store.ApartmentPatch) (model.Apartment, error) {
	if patch.Floor == nil && patch.UnitNumber == nil {
		return model.Apartment{}, errs.New(errs.KindValidation, "provide at least one field to update")
	}
	if patch.UnitNumber != nil {
		trimmed := strings.TrimSpace(*patch.UnitNumber)
		patch.UnitNumber = &trimmed
	}

	var updated model.Apartment
	err := m.store.Transaction(ctx, func(tx store.Store) error {
		current, err := tx.GetApartment(ctx, id)
		if err != nil {
			return err
		}
		floor, unit := current.Floor, current.UnitNumber
		if patch.Floor != nil {
			floor = *patch.Floor
		}
		if patch.UnitNumber != nil {
			unit = *patch.UnitNumber
		}
		if err := ValidateApartment(floor, unit); err != nil {
			return err
		}

		if unit != current.UnitNumber {
			if _, err := tx.FindApartmentByUnit(ctx, unit); err == nil {
				return errs.New(errs.KindConflict, "apartment %s already exists", unit)
			} else if !errors.Is(err, errs.ErrNotFound) {
				return err
			}
			if err := checkRenumber(ctx, tx, current.UnitNumber, unit); err != nil {
				return err
			}
		}

		if updated, err = tx.UpdateApartment(ctx, id, patch); err != nil {
			return err
		}
		if unit != current.UnitNumber {
			if _, err := tx.MoveCards(ctx, current.UnitNumber, unit); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return model.Apartment{}, err
	}
	return updated, nil
}

// checkRenumber rejects moving a unit that has residents, history or
// subscriptions, since ledger rows are immutable and would stay behind, and
// a target unit that already holds cards.
func checkRenumber(ctx context.Context, tx store.Store, from, to string) error {
	users, err := tx.CountUsersByUnit(ctx, from)
	if err != nil {
		return err
	}
	_, entries, err := tx.ListEntries(ctx, store.LedgerFilter{UnitNumber: &from}, 1, 0)
	if err != nil {
		return err
	}
	subs, err := tx.ListSubscriptionsByUnit(ctx, from)
	if err != nil {
		return err
	}
	if users > 0 || entries > 0 || len(subs) > 0 {
		return errs.New(errs.KindConflict,
			"unit %s has residents or command history and cannot be renumbered", from)
	}

	counts, err := tx.CountCards(ctx, model.ApartmentIDPrefix+to)
	if err != nil {
		return err
	}
	if counts[model.ApartmentIDPrefix+to].Total > 0 {
		return errs.New(errs.KindConflict, "unit %s already has cards", to)
	}
	return nil
}

// ListApartments returns apartments ordered by floor and unit number with
// their card counters. A non-nil floor restricts the list to that floor.
func (m *Manager) ListApartments(ctx context.Context, floor *int) ([]ApartmentSummary, error) {
	if floor != nil && *floor < MinFloor {
		return nil, errs.New(errs.KindValidation, "floor must be a positive number")
	}
	apts, err := m.store.ListApartments(ctx, floor)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(apts))
	for _, a := range apts {
		ids = append(ids, a.ApartmentID())
	}

	out := make([]ApartmentSummary, 0, len(apts))
	if len(apts) == 0 {
		return out, nil
	}
	counts, err := m.store.CountCards(ctx, ids...)
	if err != nil {
		return nil, err
	}
	for _, a := range apts {
		c := counts[a.ApartmentID()]
		out = append(out, ApartmentSummary{
			Apartment:   a,
			ApartmentID: a.ApartmentID(),
			TotalCards:  c.Total,
			ActiveCards: c.Active,
		})
	}
	return out, nil
}

// GetApartment returns the apartment with its cards.
func (m *Manager) GetApartment(ctx context.Context, id int64) (ApartmentDetail, error) {
	apt, err := m.store.GetApartment(ctx, id)
	if err != nil {
		return ApartmentDetail{}, err
	}
	cards, err := m.store.ListCardsByApartment(ctx, apt.ApartmentID())
	if err != nil {
		return ApartmentDetail{}, err
	}
	return ApartmentDetail{Apartment: apt, ApartmentID: apt.ApartmentID(), Cards: cards}, nil
}
