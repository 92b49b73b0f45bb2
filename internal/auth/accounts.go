package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"elevator-access-backend/internal/building"
	"elevator-access-backend/internal/errs"
	"elevator-access-backend/internal/model"
	"elevator-access-backend/internal/parse"
	"elevator-access-backend/internal/stats"
	"elevator-access-backend/internal/store"
)

// Registration is the input of Register.
type Registration struct {
	Email       string
	Password    string
	Name        string
	ApartmentID string
}

// ProfileUpdate lists the profile fields a resident may change.
type ProfileUpdate struct {
	Name     *string
	Email    *string
	Password *string
}

// Session is a signed-in user with a fresh token.
type Session struct {
	User      model.User `json:"user"`
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expiresAt"`
}

// UserStats reports a resident's cards and the commands of their unit.
type UserStats struct {
	Cards    store.CardCounts     `json:"cards"`
	Commands stats.ApartmentUsage `json:"commands"`
}

// Accounts registers, signs in and manages residents.
type Accounts struct {
	store      store.Store
	tokens     *Tokens
	usage      *stats.Aggregator
	bcryptCost int
	logger     *zap.Logger
}

// NewAccounts creates the account service.
func NewAccounts(s store.Store, tokens *Tokens, usage *stats.Aggregator, bcryptCost int, logger *zap.Logger) *Accounts {
	return &Accounts{
		store:      s,
		tokens:     tokens,
		usage:      usage,
		bcryptCost: bcryptCost,
		logger:     logger.Named("auth"),
	}
}

// Tokens returns the issuer used for sessions.
func (a *Accounts) Tokens() *Tokens { return a.tokens }

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates the account and provisions the default cards of the
// apartment it names. The floor comes from the first digit of the unit
// number and is not checked against the apartments table.
func (a *Accounts) Register(ctx context.Context, r Registration) (Session, error) {
	r.Email = normalizeEmail(r.Email)
	r.Name = strings.TrimSpace(r.Name)
	if r.Email == "" || r.Name == "" {
		return Session{}, errs.New(errs.KindValidation, "email and name are required")
	}
	if len(r.Password) < MinPasswordLength {
		return Session{}, errs.New(errs.KindValidation, "password must be at least %d characters", MinPasswordLength)
	}
	apt, err := parse.ParseApartmentID(r.ApartmentID)
	if err != nil {
		return Session{}, errs.Wrap(errs.KindValidation, err, "apartment id must look like apt-201")
	}

	hash, err := HashPassword(r.Password, a.bcryptCost)
	if err != nil {
		return Session{}, err
	}

	user := model.User{
		Email:        r.Email,
		PasswordHash: hash,
		Name:         r.Name,
		ApartmentID:  parse.ApartmentID(apt.UnitNumber),
		Floor:        apt.Floor,
		UnitNumber:   apt.UnitNumber,
	}
	err = a.store.Transaction(ctx, func(tx store.Store) error {
		if err := tx.CreateUser(ctx, &user); err != nil {
			return err
		}
		_, err := building.ProvisionCards(ctx, tx, apt.UnitNumber)
		return err
	})
	if err != nil {
		return Session{}, err
	}

	a.logger.Info("user registered", zap.Int64("user_id", user.ID), zap.String("unit", user.UnitNumber))
	return a.session(user)
}

// Login checks the credentials and returns a new session.
func (a *Accounts) Login(ctx context.Context, email, password string) (Session, error) {
	invalid := errs.New(errs.KindUnauthorized, "invalid email or password")

	user, err := a.store.FindUserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, errs.ErrNotFound) {
		return Session{}, invalid
	}
	if err != nil {
		return Session{}, err
	}
	ok, err := CheckPassword(password, user.PasswordHash)
	if err != nil {
		return Session{}, err
	}
	if !ok {
		return Session{}, invalid
	}

	a.logger.Info("user logged in", zap.Int64("user_id", user.ID))
	return a.session(user)
}

// Refresh issues a new token for an already authenticated user.
func (a *Accounts) Refresh(user model.User) (Session, error) {
	return a.session(user)
}

// Logout only records the event; tokens stay valid until they expire.
func (a *Accounts) Logout(user model.User) {
	a.logger.Info("user logged out", zap.Int64("user_id", user.ID), zap.String("email", user.Email))
}

// Authenticate resolves a bearer token to the user it was issued for.
func (a *Accounts) Authenticate(ctx context.Context, token string) (model.User, error) {
	id, err := a.tokens.Verify(token)
	if err != nil {
		return model.User{}, err
	}
	user, err := a.store.GetUser(ctx, id.UserID)
	if errors.Is(err, errs.ErrNotFound) {
		return model.User{}, errs.New(errs.KindUnauthorized, "the token is valid but the user no longer exists")
	}
	return user, err
}

// Profile returns the user's account.
func (a *Accounts) Profile(ctx context.Context, userID int64) (model.User, error) {
	return a.store.GetUser(ctx, userID)
}

// UpdateProfile changes name, email or password.
func (a *Accounts) UpdateProfile(ctx context.Context, userID int64, u ProfileUpdate) (model.User, error) {
	var patch store.UserPatch
	if u.Name != nil {
		name := strings.TrimSpace(*u.Name)
		if name == "" {
			return model.User{}, errs.New(errs.KindValidation, "name must not be empty")
		}
		patch.Name = &name
	}
	if u.Email != nil {
		email := normalizeEmail(*u.Email)
		if email == "" {
			return model.User{}, errs.New(errs.KindValidation, "email must not be empty")
		}
		patch.Email = &email
	}
	if u.Password != nil {
		if len(*u.Password) < MinPasswordLength {
			return model.User{}, errs.New(errs.KindValidation, "password must be at least %d characters", MinPasswordLength)
		}
		hash, err := HashPassword(*u.Password, a.bcryptCost)
		if err != nil {
			return model.User{}, err
		}
		patch.PasswordHash = &hash
	}
	return a.store.UpdateUser(ctx, userID, patch)
}

// DeleteAccount removes the user together with the cards and ledger
// entries of their apartment.
func (a *Accounts) DeleteAccount(ctx context.Context, userID int64) (model.User, error) {
	var deleted model.User
	err := a.store.Transaction(ctx, func(tx store.Store) error {
		user, err := tx.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		if _, err := tx.DeleteCardsByApartment(ctx, user.ApartmentID); err != nil {
			return err
		}
		if _, err := tx.DeleteEntriesByUnit(ctx, user.UnitNumber); err != nil {
			return err
		}
		if err := tx.DeleteSubscriptionsByUser(ctx, user.ID); err != nil {
			return err
		}
		deleted, err = tx.DeleteUser(ctx, user.ID)
		return err
	})
	if err != nil {
		return model.User{}, err
	}
	a.logger.Info("account deleted", zap.Int64("user_id", userID))
	return deleted, nil
}

// Stats counts the user's cards and the commands of their unit.
func (a *Accounts) Stats(ctx context.Context, user model.User) (UserStats, error) {
	counts, err := a.store.CountCards(ctx, user.ApartmentID)
	if err != nil {
		return UserStats{}, err
	}
	usage, err := a.usage.ApartmentUsage(ctx, user.UnitNumber)
	if err != nil {
		return UserStats{}, err
	}
	return UserStats{Cards: counts[user.ApartmentID], Commands: usage}, nil
}

func (a *Accounts) session(user model.User) (Session, error) {
	token, exp, err := a.tokens.Issue(Identity{UserID: user.ID, Email: user.Email})
	if err != nil {
		return Session{}, err
	}
	return Session{User: user, Token: token, ExpiresAt: exp}, nil
}
