package store

import (
	"context"
	"fmt"
	"time"

	"elevator-access-backend/internal/model"
)

const (
	successSum = "COALESCE(SUM(CASE WHEN success THEN 1 ELSE 0 END), 0)"
	sinceSum   = "COALESCE(SUM(CASE WHEN executed_at >= ? THEN 1 ELSE 0 END), 0)"
)

// LedgerTotals counts all entries, successful entries, and entries since
// DayStart and WeekStart.
func (s *gormStore) LedgerTotals(ctx context.Context, filter TotalsFilter) (LedgerTotals, error) {
	var totals LedgerTotals
	q := s.db.WithContext(ctx).Model(&model.CommandEntry{}).
		Select("COUNT(*) AS total, "+successSum+" AS successful, "+
			sinceSum+" AS today, "+sinceSum+" AS week",
			filter.DayStart.UTC(), filter.WeekStart.UTC())
	if filter.UnitNumber != nil {
		q = q.Where("unit_number = ?", *filter.UnitNumber)
	}
	if err := q.Scan(&totals).Error; err != nil {
		return LedgerTotals{}, fmt.Errorf("ledger totals: %w", err)
	}
	return totals, nil
}

// ApartmentRollup aggregates every unit with at least one entry since the
// given time, ordered by lifetime total descending.
func (s *gormStore) ApartmentRollup(ctx context.Context, since time.Time) ([]ApartmentRollupRow, error) {
	since = since.UTC()
	rows := []ApartmentRollupRow{}
	err := s.db.WithContext(ctx).Model(&model.CommandEntry{}).
		Select("unit_number, COUNT(*) AS total, "+successSum+" AS successful, "+sinceSum+" AS in_window", since).
		Group("unit_number").
		Having("SUM(CASE WHEN executed_at >= ? THEN 1 ELSE 0 END) > 0", since).
		Order("total DESC, unit_number").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("apartment rollup: %w", err)
	}
	return rows, nil
}

// CardTypeRollup aggregates entries since the given time per card type.
func (s *gormStore) CardTypeRollup(ctx context.Context, since time.Time) ([]CardTypeRollupRow, error) {
	rows := []CardTypeRollupRow{}
	err := s.db.WithContext(ctx).Model(&model.CommandEntry{}).
		Select("card_type, COUNT(*) AS total, "+successSum+" AS successful").
		Where("executed_at >= ?", since.UTC()).
		Group("card_type").
		Order("card_type").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("card type rollup: %w", err)
	}
	return rows, nil
}

// EntryPoints returns the timestamp and outcome of each entry since the
// given time.
func (s *gormStore) EntryPoints(ctx context.Context, since time.Time) ([]EntryPoint, error) {
	points := []EntryPoint{}
	err := s.db.WithContext(ctx).Model(&model.CommandEntry{}).
		Select("executed_at, success").
		Where("executed_at >= ?", since.UTC()).
		Order("executed_at DESC").
		Scan(&points).Error
	if err != nil {
		return nil, fmt.Errorf("ledger entry points: %w", err)
	}
	return points, nil
}
