package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"elevator-access-backend/internal/errs"
	"elevator-access-backend/internal/model"
)

// CardRegistry holds the access cards of every apartment.
type CardRegistry interface {
	FindCard(ctx context.Context, apartmentID string, cardType model.CardType) (model.Card, error)
	GetCard(ctx context.Context, id int64) (model.Card, error)
	ListCards(ctx context.Context) ([]model.Card, error)
	ListCardsByApartment(ctx context.Context, apartmentID string) ([]model.Card, error)
	CreateCard(ctx context.Context, card *model.Card) error
	UpdateCard(ctx context.Context, id int64, patch CardPatch) (model.Card, error)
	SetCardActive(ctx context.Context, id int64, active bool) (model.Card, error)
	TouchCardIfActive(ctx context.Context, id int64, at time.Time) (bool, error)
	DeleteCard(ctx context.Context, id int64) (model.Card, error)
	DeleteCardsByApartment(ctx context.Context, apartmentID string) (int64, error)
	MoveCards(ctx context.Context, fromUnit, toUnit string) (int64, error)
	CountCards(ctx context.Context, apartmentIDs ...string) (map[string]CardCounts, error)
}

// Ledger is the append-only record of command attempts. RecordCommand is
// the only write path; rows are removed only by apartment or account
// cascades.
type Ledger interface {
	RecordCommand(ctx context.Context, entry *model.CommandEntry) error
	ListEntries(ctx context.Context, filter LedgerFilter, limit, offset int) ([]model.CommandEntry, int64, error)
	LatestEntry(ctx context.Context) (*model.CommandEntry, error)
	DeleteEntriesByUnit(ctx context.Context, unitNumber string) (int64, error)

	LedgerTotals(ctx context.Context, filter TotalsFilter) (LedgerTotals, error)
	ApartmentRollup(ctx context.Context, since time.Time) ([]ApartmentRollupRow, error)
	CardTypeRollup(ctx context.Context, since time.Time) ([]CardTypeRollupRow, error)
	EntryPoints(ctx context.Context, since time.Time) ([]EntryPoint, error)
}

// Apartments stores apartment rows.
type Apartments interface {
	CreateApartment(ctx context.Context, apt *model.Apartment) error
	GetApartment(ctx context.Context, id int64) (model.Apartment, error)
	FindApartmentByUnit(ctx context.Context, unitNumber string) (model.Apartment, error)
	ListApartments(ctx context.Context, floor *int) ([]model.Apartment, error)
	UpdateApartment(ctx context.Context, id int64, patch ApartmentPatch) (model.Apartment, error)
	DeleteApartment(ctx context.Context, id int64) error
}

// Users stores resident accounts.
type Users interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, id int64) (model.User, error)
	FindUserByEmail(ctx context.Context, email string) (model.User, error)
	UpdateUser(ctx context.Context, id int64, patch UserPatch) (model.User, error)
	DeleteUser(ctx context.Context, id int64) (model.User, error)
	CountUsersByUnit(ctx context.Context, unitNumber string) (int64, error)
}

// Subscriptions stores web push subscriptions.
type Subscriptions interface {
	UpsertSubscription(ctx context.Context, sub *model.PushSubscription) error
	GetSubscription(ctx context.Context, endpoint string) (model.PushSubscription, error)
	ListSubscriptionsByUnit(ctx context.Context, unitNumber string) ([]model.PushSubscription, error)
	DeleteSubscription(ctx context.Context, endpoint string) error
	DeleteSubscriptionsByUnit(ctx context.Context, unitNumber string) error
	DeleteSubscriptionsByUser(ctx context.Context, userID int64) error
}

// Store defines the interface for all database operations.
type Store interface {
	CardRegistry
	Ledger
	Apartments
	Users
	Subscriptions

	// Transaction runs fn against a Store bound to a single database
	// transaction. The transaction commits when fn returns nil.
	Transaction(ctx context.Context, fn func(tx Store) error) error
	Ping(ctx context.Context) error
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}

func (s *gormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// applyPatch updates the allow-listed columns of the row with the given id.
// It reports errs.ErrNotFound when no row matched.
func applyPatch(ctx context.Context, db *gorm.DB, table any, id int64, allowed map[string]bool, updates map[string]any) error {
	if len(updates) == 0 {
		return errs.New(errs.KindValidation, "no fields to update")
	}
	for col := range updates {
		if !allowed[col] {
			return fmt.Errorf("column %q is not updatable", col)
		}
	}
	updates["updated_at"] = time.Now().UTC()

	res := db.WithContext(ctx).Model(table).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return errs.Wrap(errs.KindConflict, res.Error, "update conflicts with an existing record")
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// notFound converts gorm's missing-record error into the shared taxonomy.
func notFound(err error, format string, args ...any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.Wrap(errs.KindNotFound, err, format, args...)
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// isUniqueViolation reports whether the error is a unique constraint violation.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pg *pgconn.PgError
	if errors.As(err, &pg) && pg.Code == "23505" {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
