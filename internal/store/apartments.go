package store

import (
	"context"
	"errors"
	"fmt"

	"elevator-access-backend/internal/errs"
	"elevator-access-backend/internal/model"
)

// CreateApartment inserts an apartment. A unit number may exist only once
// in the building.
func (s *gormStore) CreateApartment(ctx context.Context, apt *model.Apartment) error {
	var existing int64
	if err := s.db.WithContext(ctx).Model(&model.Apartment{}).
		Where("unit_number = ?", apt.UnitNumber).
		Count(&existing).Error; err != nil {
		return fmt.Errorf("check existing apartment: %w", err)
	}
	if existing > 0 {
		return errs.New(errs.KindConflict, "apartment %s already exists", apt.UnitNumber)
	}

	if err := s.db.WithContext(ctx).Create(apt).Error; err != nil {
		if isUniqueViolation(err) {
			return errs.Wrap(errs.KindConflict, err, "apartment %s already exists", apt.UnitNumber)
		}
		return fmt.Errorf("create apartment: %w", err)
	}
	return nil
}

func (s *gormStore) GetApartment(ctx context.Context, id int64) (model.Apartment, error) {
	var apt model.Apartment
	if err := s.db.WithContext(ctx).First(&apt, id).Error; err != nil {
		return model.Apartment{}, notFound(err, "apartment %d not found", id)
	}
	return apt, nil
}

func (s *gormStore) FindApartmentByUnit(ctx context.Context, unitNumber string) (model.Apartment, error) {
	var apt model.Apartment
	if err := s.db.WithContext(ctx).Where("unit_number = ?", unitNumber).First(&apt).Error; err != nil {
		return model.Apartment{}, notFound(err, "apartment %s not found", unitNumber)
	}
	return apt, nil
}

// ListApartments returns apartments ordered by floor and unit number,
// optionally restricted to one floor.
func (s *gormStore) ListApartments(ctx context.Context, floor *int) ([]model.Apartment, error) {
	apts := []model.Apartment{}
	q := s.db.WithContext(ctx).Order("floor, unit_number")
	if floor != nil {
		q = q.Where("floor = ?", *floor)
	}
	if err := q.Find(&apts).Error; err != nil {
		return nil, fmt.Errorf("list apartments: %w", err)
	}
	return apts, nil
}

func (s *gormStore) UpdateApartment(ctx context.Context, id int64, patch ApartmentPatch) (model.Apartment, error) {
	if err := applyPatch(ctx, s.db, &model.Apartment{}, id, apartmentColumns, patch.updates()); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return model.Apartment{}, errs.New(errs.KindNotFound, "apartment %d not found", id)
		}
		return model.Apartment{}, err
	}
	return s.GetApartment(ctx, id)
}

func (s *gormStore) DeleteApartment(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).Delete(&model.Apartment{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete apartment %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return errs.New(errs.KindNotFound, "apartment %d not found", id)
	}
	return nil
}
