package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"elevator-access-backend/internal/errs"
	"elevator-access-backend/internal/model"
)

// UpsertSubscription creates the subscription or refreshes its keys when
// the endpoint already belongs to the same user. An endpoint registered by
// another user is a conflict.
func (s *gormStore) UpsertSubscription(ctx context.Context, sub *model.PushSubscription) error {
	var existing model.PushSubscription
	err := s.db.WithContext(ctx).Select("user_id").First(&existing, "endpoint = ?", sub.Endpoint).Error
	switch {
	case err == nil:
		if existing.UserID != sub.UserID {
			return errs.New(errs.KindConflict, "subscription endpoint belongs to another user")
		}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("check subscription owner: %w", err)
	}

	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth", "unit_number"}),
	}).Create(sub).Error
	if err != nil {
		return fmt.Errorf("upsert subscription: %w", err)
	}
	return nil
}

func (s *gormStore) GetSubscription(ctx context.Context, endpoint string) (model.PushSubscription, error) {
	var sub model.PushSubscription
	if err := s.db.WithContext(ctx).First(&sub, "endpoint = ?", endpoint).Error; err != nil {
		return model.PushSubscription{}, notFound(err, "subscription not found")
	}
	return sub, nil
}

func (s *gormStore) ListSubscriptionsByUnit(ctx context.Context, unitNumber string) ([]model.PushSubscription, error) {
	subs := []model.PushSubscription{}
	if err := s.db.WithContext(ctx).Where("unit_number = ?", unitNumber).Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("list subscriptions of unit %s: %w", unitNumber, err)
	}
	return subs, nil
}

func (s *gormStore) DeleteSubscription(ctx context.Context, endpoint string) error {
	if err := s.db.WithContext(ctx).Delete(&model.PushSubscription{Endpoint: endpoint}).Error; err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	return nil
}

func (s *gormStore) DeleteSubscriptionsByUnit(ctx context.Context, unitNumber string) error {
	if err := s.db.WithContext(ctx).Where("unit_number = ?", unitNumber).Delete(&model.PushSubscription{}).Error; err != nil {
		return fmt.Errorf("delete subscriptions of unit %s: %w", unitNumber, err)
	}
	return nil
}

func (s *gormStore) DeleteSubscriptionsByUser(ctx context.Context, userID int64) error {
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.PushSubscription{}).Error; err != nil {
		return fmt.Errorf("delete subscriptions of user %d: %w", userID, err)
	}
	return nil
}
