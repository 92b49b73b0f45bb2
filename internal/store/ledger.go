package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"elevator-access-backend/internal/model"
)

// RecordCommand appends one entry to the ledger.
func (s *gormStore) RecordCommand(ctx context.Context, entry *model.CommandEntry) error {
	if entry.ExecutedAt.IsZero() {
		entry.ExecutedAt = time.Now()
	}
	entry.ExecutedAt = entry.ExecutedAt.UTC()
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("record command for unit %s: %w", entry.UnitNumber, err)
	}
	return nil
}

func (s *gormStore) filteredEntries(ctx context.Context, filter LedgerFilter) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&model.CommandEntry{})
	if filter.UnitNumber != nil {
		q = q.Where("unit_number = ?", *filter.UnitNumber)
	}
	if filter.From != nil {
		q = q.Where("executed_at >= ?", filter.From.UTC())
	}
	if filter.To != nil {
		q = q.Where("executed_at <= ?", filter.To.UTC())
	}
	return q
}

// ListEntries returns one page of matching entries, newest first, and the
// number of entries matching the filter.
func (s *gormStore) ListEntries(ctx context.Context, filter LedgerFilter, limit, offset int) ([]model.CommandEntry, int64, error) {
	var total int64
	if err := s.filteredEntries(ctx, filter).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count ledger entries: %w", err)
	}

	entries := []model.CommandEntry{}
	if err := s.filteredEntries(ctx, filter).
		Order("executed_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error; err != nil {
		return nil, 0, fmt.Errorf("list ledger entries: %w", err)
	}
	return entries, total, nil
}

// LatestEntry returns the most recent entry, or nil on an empty ledger.
func (s *gormStore) LatestEntry(ctx context.Context) (*model.CommandEntry, error) {
	var entry model.CommandEntry
	err := s.db.WithContext(ctx).Order("executed_at DESC, id DESC").First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest ledger entry: %w", err)
	}
	return &entry, nil
}

func (s *gormStore) DeleteEntriesByUnit(ctx context.Context, unitNumber string) (int64, error) {
	res := s.db.WithContext(ctx).Where("unit_number = ?", unitNumber).Delete(&model.CommandEntry{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete ledger entries of unit %s: %w", unitNumber, res.Error)
	}
	return res.RowsAffected, nil
}
