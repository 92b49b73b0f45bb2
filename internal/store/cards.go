package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"elevator-access-backend/internal/errs"
	"elevator-access-backend/internal/model"
)

func (s *gormStore) FindCard(ctx context.Context, apartmentID string, cardType model.CardType) (model.Card, error) {
	var card model.Card
	err := s.db.WithContext(ctx).
		Where("apartment_id = ? AND card_type = ?", apartmentID, cardType).
		First(&card).Error
	if err != nil {
		return model.Card{}, notFound(err, "card %s for %s not found", cardType, apartmentID)
	}
	return card, nil
}

func (s *gormStore) GetCard(ctx context.Context, id int64) (model.Card, error) {
	var card model.Card
	if err := s.db.WithContext(ctx).First(&card, id).Error; err != nil {
		return model.Card{}, notFound(err, "card %d not found", id)
	}
	return card, nil
}

func (s *gormStore) ListCards(ctx context.Context) ([]model.Card, error) {
	cards := []model.Card{}
	if err := s.db.WithContext(ctx).Order("apartment_id, card_type").Find(&cards).Error; err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	return cards, nil
}

func (s *gormStore) ListCardsByApartment(ctx context.Context, apartmentID string) ([]model.Card, error) {
	cards := []model.Card{}
	if err := s.db.WithContext(ctx).
		Where("apartment_id = ?", apartmentID).
		Order("card_type").
		Find(&cards).Error; err != nil {
		return nil, fmt.Errorf("list cards of %s: %w", apartmentID, err)
	}
	return cards, nil
}

// CreateCard inserts a card after checking that its (apartment, type) slot
// is free. The unique index backs the check against concurrent inserts.
func (s *gormStore) CreateCard(ctx context.Context, card *model.Card) error {
	var existing int64
	if err := s.db.WithContext(ctx).Model(&model.Card{}).
		Where("apartment_id = ? AND card_type = ?", card.ApartmentID, card.CardType).
		Count(&existing).Error; err != nil {
		return fmt.Errorf("check existing card: %w", err)
	}
	if existing > 0 {
		return errs.New(errs.KindConflict, "a type %s card already exists for %s", card.CardType, card.ApartmentID)
	}

	if err := s.db.WithContext(ctx).Create(card).Error; err != nil {
		if isUniqueViolation(err) {
			return errs.Wrap(errs.KindConflict, err, "a type %s card already exists for %s", card.CardType, card.ApartmentID)
		}
		return fmt.Errorf("create card: %w", err)
	}
	return nil
}

func (s *gormStore) UpdateCard(ctx context.Context, id int64, patch CardPatch) (model.Card, error) {
	if err := applyPatch(ctx, s.db, &model.Card{}, id, cardColumns, patch.updates()); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return model.Card{}, errs.New(errs.KindNotFound, "card %d not found", id)
		}
		return model.Card{}, err
	}
	return s.GetCard(ctx, id)
}

func (s *gormStore) SetCardActive(ctx context.Context, id int64, active bool) (model.Card, error) {
	return s.UpdateCard(ctx, id, CardPatch{Active: &active})
}

// TouchCardIfActive sets last_used_at only while the card is still active.
// It reports false when the card was deactivated or removed in the meantime.
func (s *gormStore) TouchCardIfActive(ctx context.Context, id int64, at time.Time) (bool, error) {
	at = at.UTC()
	res := s.db.WithContext(ctx).Model(&model.Card{}).
		Where("id = ? AND active = ?", id, true).
		Updates(map[string]any{"last_used_at": at, "updated_at": at})
	if res.Error != nil {
		return false, fmt.Errorf("touch card %d: %w", id, res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (s *gormStore) DeleteCard(ctx context.Context, id int64) (model.Card, error) {
	card, err := s.GetCard(ctx, id)
	if err != nil {
		return model.Card{}, err
	}
	res := s.db.WithContext(ctx).Delete(&model.Card{}, id)
	if res.Error != nil {
		return model.Card{}, fmt.Errorf("delete card %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return model.Card{}, errs.New(errs.KindNotFound, "card %d not found", id)
	}
	return card, nil
}

func (s *gormStore) DeleteCardsByApartment(ctx context.Context, apartmentID string) (int64, error) {
	res := s.db.WithContext(ctx).Where("apartment_id = ?", apartmentID).Delete(&model.Card{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete cards of %s: %w", apartmentID, res.Error)
	}
	return res.RowsAffected, nil
}

// MoveCards rebinds the cards of one unit to another unit number.
func (s *gormStore) MoveCards(ctx context.Context, fromUnit, toUnit string) (int64, error) {
	res := s.db.WithContext(ctx).Model(&model.Card{}).
		Where("apartment_id = ?", model.ApartmentIDPrefix+fromUnit).
		Updates(map[string]any{
			"apartment_id": model.ApartmentIDPrefix + toUnit,
			"unit_number":  toUnit,
			"updated_at":   time.Now().UTC(),
		})
	if res.Error != nil {
		return 0, fmt.Errorf("move cards from %s to %s: %w", fromUnit, toUnit, res.Error)
	}
	return res.RowsAffected, nil
}

// CountCards aggregates card counts per apartment identifier. With no
// identifiers it counts every apartment.
func (s *gormStore) CountCards(ctx context.Context, apartmentIDs ...string) (map[string]CardCounts, error) {
	type aggRow struct {
		ApartmentID string
		Total       int64
		Active      int64
		Used        int64
	}
	var rows []aggRow
	q := s.db.WithContext(ctx).Model(&model.Card{}).
		Select("apartment_id, COUNT(*) AS total, " +
			"COALESCE(SUM(CASE WHEN active THEN 1 ELSE 0 END), 0) AS active, " +
			"COALESCE(SUM(CASE WHEN last_used_at IS NOT NULL THEN 1 ELSE 0 END), 0) AS used").
		Group("apartment_id")
	if len(apartmentIDs) > 0 {
		q = q.Where("apartment_id IN ?", apartmentIDs)
	}
	if err := q.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("count cards: %w", err)
	}

	counts := make(map[string]CardCounts, len(rows))
	for _, r := range rows {
		counts[r.ApartmentID] = CardCounts{Total: r.Total, Active: r.Active, Used: r.Used}
	}
	return counts, nil
}
