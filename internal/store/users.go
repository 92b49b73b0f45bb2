package store

import (
	"context"
	"errors"
	"fmt"

	"elevator-access-backend/internal/errs"
	"elevator-access-backend/internal/model"
)

func (s *gormStore) CreateUser(ctx context.Context, user *model.User) error {
	var existing int64
	if err := s.db.WithContext(ctx).Model(&model.User{}).
		Where("email = ?", user.Email).
		Count(&existing).Error; err != nil {
		return fmt.Errorf("check existing user: %w", err)
	}
	if existing > 0 {
		return errs.New(errs.KindConflict, "a user with this email already exists")
	}

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return errs.Wrap(errs.KindConflict, err, "a user with this email already exists")
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *gormStore) GetUser(ctx context.Context, id int64) (model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return model.User{}, notFound(err, "user %d not found", id)
	}
	return user, nil
}

func (s *gormStore) FindUserByEmail(ctx context.Context, email string) (model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return model.User{}, notFound(err, "user not found")
	}
	return user, nil
}

func (s *gormStore) UpdateUser(ctx context.Context, id int64, patch UserPatch) (model.User, error) {
	if patch.Email != nil {
		var taken int64
		if err := s.db.WithContext(ctx).Model(&model.User{}).
			Where("email = ? AND id <> ?", *patch.Email, id).
			Count(&taken).Error; err != nil {
			return model.User{}, fmt.Errorf("check email: %w", err)
		}
		if taken > 0 {
			return model.User{}, errs.New(errs.KindConflict, "another user already uses this email")
		}
	}

	if err := applyPatch(ctx, s.db, &model.User{}, id, userColumns, patch.updates()); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return model.User{}, errs.New(errs.KindNotFound, "user %d not found", id)
		}
		return model.User{}, err
	}
	return s.GetUser(ctx, id)
}

func (s *gormStore) DeleteUser(ctx context.Context, id int64) (model.User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return model.User{}, err
	}
	if err := s.db.WithContext(ctx).Delete(&model.User{}, id).Error; err != nil {
		return model.User{}, fmt.Errorf("delete user %d: %w", id, err)
	}
	return user, nil
}

// CountUsersByUnit counts the residents registered to a unit.
func (s *gormStore) CountUsersByUnit(ctx context.Context, unitNumber string) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&model.User{}).
		Where("unit_number = ?", unitNumber).
		Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count users of unit %s: %w", unitNumber, err)
	}
	return n, nil
}
