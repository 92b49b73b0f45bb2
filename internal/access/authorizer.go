// Package access decides whether an elevator command may run and records
// every attempt in the command ledger.
package access

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"elevator-access-backend/internal/errs"
	"elevator-access-backend/internal/model"
	"elevator-access-backend/internal/parse"
	"elevator-access-backend/internal/store"
)

// Command is a request to operate the elevator with one of an apartment's
// cards.
type Command struct {
	UnitNumber string
	CardType   model.CardType
	Action     model.Action
}

// Decision is the outcome of an authorization. Reason is empty when the
// command was allowed.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// Result pairs the decision with the ledger entry written for it.
type Result struct {
	Decision
	Entry model.CommandEntry `json:"entry"`
}

// Notifier receives the ledger entry of every allowed command. Dispatch
// must not block.
type Notifier interface {
	Dispatch(entry model.CommandEntry)
}

// Authorizer validates commands against the card registry.
type Authorizer struct {
	store    store.Store
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
}

// Option configures an Authorizer.
type Option func(*Authorizer)

// WithNotifier sets the receiver of allowed commands.
func WithNotifier(n Notifier) Option {
	return func(a *Authorizer) { a.notifier = n }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(a *Authorizer) { a.now = now }
}

// NewAuthorizer creates an Authorizer backed by s.
func NewAuthorizer(s store.Store, logger *zap.Logger, opts ...Option) *Authorizer {
	a := &Authorizer{
		store:  s,
		logger: logger.Named("access"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Validate rejects malformed commands before they reach the ledger.
func (c Command) Validate() error {
	if !parse.ValidUnitNumber(c.UnitNumber) {
		return errs.New(errs.KindValidation, "unitNumber is required and may contain only letters, digits and dashes")
	}
	if !c.CardType.Valid() {
		return errs.New(errs.KindValidation, "cardType must be one of A, B, C")
	}
	if _, ok := model.ParseAction(string(c.Action)); !ok {
		return errs.New(errs.KindValidation, "action must be ACTIVATE or DEACTIVATE")
	}
	return nil
}

// Authorize checks the card for the command, touches its last-used time when
// the command is allowed and appends exactly one ledger entry. The lookup,
// the touch and the append share one transaction. Denials are returned as a
// Result with Allowed false; the error is reserved for validation and
// storage faults.
func (a *Authorizer) Authorize(ctx context.Context, cmd Command) (Result, error) {
	if err := cmd.Validate(); err != nil {
		return Result{}, err
	}
	cmd.Action, _ = model.ParseAction(string(cmd.Action))
	now := a.now().UTC()

	var res Result
	err := a.store.Transaction(ctx, func(tx store.Store) error {
		decision, err := decide(ctx, tx, cmd, now)
		if err != nil {
			return err
		}
		entry := newEntry(cmd, decision, now)
		if err := tx.RecordCommand(ctx, &entry); err != nil {
			return err
		}
		res = Result{Decision: decision, Entry: entry}
		return nil
	})
	if err != nil {
		a.recordFault(ctx, cmd, now, err)
		return Result{}, errs.Wrap(errs.KindInternal, err, "command for unit %s could not be processed", cmd.UnitNumber)
	}

	fields := []zap.Field{
		zap.String("unit", cmd.UnitNumber),
		zap.String("card_type", string(cmd.CardType)),
		zap.String("action", string(cmd.Action)),
		zap.Int64("entry_id", res.Entry.ID),
	}
	if !res.Allowed {
		a.logger.Info("command denied", append(fields, zap.String("reason", res.Reason))...)
		return res, nil
	}
	a.logger.Info("command allowed", fields...)
	if a.notifier != nil {
		a.notifier.Dispatch(res.Entry)
	}
	return res, nil
}

func decide(ctx context.Context, tx store.Store, cmd Command, now time.Time) (Decision, error) {
	card, err := tx.FindCard(ctx, parse.ApartmentID(cmd.UnitNumber), cmd.CardType)
	if errors.Is(err, errs.ErrNotFound) {
		return Decision{Reason: model.ReasonCardNotFound}, nil
	}
	if err != nil {
		return Decision{}, err
	}
	if !card.Active {
		return Decision{Reason: model.ReasonCardInactive}, nil
	}

	// The card may have been deactivated since the lookup.
	touched, err := tx.TouchCardIfActive(ctx, card.ID, now)
	if err != nil {
		return Decision{}, err
	}
	if !touched {
		return Decision{Reason: model.ReasonCardInactive}, nil
	}
	return Decision{Allowed: true}, nil
}

func newEntry(cmd Command, d Decision, at time.Time) model.CommandEntry {
	return model.CommandEntry{
		UnitNumber: cmd.UnitNumber,
		CardType:   cmd.CardType,
		Action:     cmd.Action,
		Success:    d.Allowed,
		Reason:     d.Reason,
		ExecutedAt: at,
	}
}

// recordFault writes a failed entry outside the rolled-back transaction so
// the attempt stays auditable. A failure here is only logged.
func (a *Authorizer) recordFault(ctx context.Context, cmd Command, at time.Time, cause error) {
	a.logger.Error("command authorization failed",
		zap.String("unit", cmd.UnitNumber),
		zap.String("card_type", string(cmd.CardType)),
		zap.Error(cause))

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	entry := newEntry(cmd, Decision{Reason: model.ReasonInternal}, at)
	if err := a.store.RecordCommand(ctx, &entry); err != nil {
		a.logger.Error("failed to record failed command",
			zap.String("unit", cmd.UnitNumber),
			zap.Error(err))
	}
}
