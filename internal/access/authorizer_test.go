package access

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"elevator-access-backend/internal/errs"
	"elevator-access-backend/internal/model"
	"elevator-access-backend/internal/store"
	"elevator-access-backend/internal/store/storetest"
)

type recordingNotifier struct {
	mu      sync.Mutex
	entries []model.CommandEntry
}

func (n *recordingNotifier) Dispatch(entry model.CommandEntry) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.entries = append(n.entries, entry)
}

// faultyStore injects errors into the store handed to transactions.
type faultyStore struct {
	store.Store
	findErr  error
	lostRace bool
}

func (f faultyStore) Transaction(ctx context.Context, fn func(tx store.Store) error) error {
	return f.Store.Transaction(ctx, func(tx store.Store) error {
		return fn(faultyStore{Store: tx, findErr: f.findErr, lostRace: f.lostRace})
	})
}

func (f faultyStore) FindCard(ctx context.Context, apartmentID string, ct model.CardType) (model.Card, error) {
	if f.findErr != nil {
		return model.Card{}, f.findErr
	}
	return f.Store.FindCard(ctx, apartmentID, ct)
}

func (f faultyStore) TouchCardIfActive(ctx context.Context, id int64, at time.Time) (bool, error) {
	if f.lostRace {
		return false, nil
	}
	return f.Store.TouchCardIfActive(ctx, id, at)
}

func seedCards(t *testing.T, s store.Store, unit string) map[model.CardType]model.Card {
	t.Helper()
	cards := map[model.CardType]model.Card{}
	for _, ct := range model.CardTypes {
		c := model.Card{
			ApartmentID: model.ApartmentIDPrefix + unit,
			UnitNumber:  unit,
			CardType:    ct,
			Name:        ct.DefaultName(),
			Active:      ct == model.CardTypePrincipal,
		}
		require.NoError(t, s.CreateCard(context.Background(), &c))
		cards[ct] = c
	}
	return cards
}

func allEntries(t *testing.T, s store.Store) []model.CommandEntry {
	t.Helper()
	entries, _, err := s.ListEntries(context.Background(), store.LedgerFilter{}, 100, 0)
	require.NoError(t, err)
	return entries
}

func TestAuthorize_Decisions(t *testing.T) {
	testCases := []struct {
		name       string
		cmd        Command
		wantAllow  bool
		wantReason string
	}{
		{
			name:      "Active card is allowed",
			cmd:       Command{UnitNumber: "201", CardType: model.CardTypePrincipal, Action: model.ActionActivate},
			wantAllow: true,
		},
		{
			name:       "Inactive card is denied",
			cmd:        Command{UnitNumber: "201", CardType: model.CardTypeSecondary, Action: model.ActionActivate},
			wantReason: model.ReasonCardInactive,
		},
		{
			name:       "Unknown apartment is denied",
			cmd:        Command{UnitNumber: "999", CardType: model.CardTypePrincipal, Action: model.ActionDeactivate},
			wantReason: model.ReasonCardNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, s := storetest.New(t)
			cards := seedCards(t, s, "201")
			notifier := &recordingNotifier{}
			a := NewAuthorizer(s, zap.NewNop(), WithNotifier(notifier))

			before := time.Now().UTC().Add(-time.Second)
			res, err := a.Authorize(context.Background(), tc.cmd)
			require.NoError(t, err)

			assert.Equal(t, tc.wantAllow, res.Allowed)
			assert.Equal(t, tc.wantReason, res.Reason)

			entries := allEntries(t, s)
			require.Len(t, entries, 1)
			assert.Equal(t, res.Entry.ID, entries[0].ID)
			assert.Equal(t, tc.wantAllow, entries[0].Success)
			assert.Equal(t, tc.wantReason, entries[0].Reason)
			assert.Equal(t, tc.cmd.UnitNumber, entries[0].UnitNumber)

			if tc.wantAllow {
				card, err := s.GetCard(context.Background(), cards[tc.cmd.CardType].ID)
				require.NoError(t, err)
				require.NotNil(t, card.LastUsedAt)
				assert.False(t, card.LastUsedAt.Before(before))
				assert.Len(t, notifier.entries, 1)
			} else {
				assert.Empty(t, notifier.entries)
			}
		})
	}
}

func TestAuthorize_NormalizesAliases(t *testing.T) {
	_, s := storetest.New(t)
	seedCards(t, s, "201")
	a := NewAuthorizer(s, zap.NewNop())

	res, err := a.Authorize(context.Background(), Command{UnitNumber: "201", CardType: model.CardTypePrincipal, Action: "ENCENDER"})
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, model.ActionActivate, res.Entry.Action)
}

func TestAuthorize_ValidationWritesNothing(t *testing.T) {
	_, s := storetest.New(t)
	a := NewAuthorizer(s, zap.NewNop())

	for _, cmd := range []Command{
		{UnitNumber: "", CardType: model.CardTypePrincipal, Action: model.ActionActivate},
		{UnitNumber: "201", CardType: "D", Action: model.ActionActivate},
		{UnitNumber: "201", CardType: model.CardTypePrincipal, Action: "OPEN"},
	} {
		_, err := a.Authorize(context.Background(), cmd)
		assert.ErrorIs(t, err, errs.ErrValidation)
	}
	assert.Empty(t, allEntries(t, s))
}

func TestAuthorize_LostRaceIsDenied(t *testing.T) {
	_, s := storetest.New(t)
	seedCards(t, s, "201")
	notifier := &recordingNotifier{}
	a := NewAuthorizer(faultyStore{Store: s, lostRace: true}, zap.NewNop(), WithNotifier(notifier))

	res, err := a.Authorize(context.Background(), Command{UnitNumber: "201", CardType: model.CardTypePrincipal, Action: model.ActionActivate})
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, model.ReasonCardInactive, res.Reason)
	assert.Empty(t, notifier.entries)

	entries := allEntries(t, s)
	require.Len(t, entries, 1)
	assert.False(t, entries[0].Success)
}

func TestAuthorize_StorageFaultStillRecordsAttempt(t *testing.T) {
	_, s := storetest.New(t)
	seedCards(t, s, "201")
	fixed := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	a := NewAuthorizer(faultyStore{Store: s, findErr: errors.New("connection reset")}, zap.NewNop(), WithClock(func() time.Time { return fixed }))

	_, err := a.Authorize(context.Background(), Command{UnitNumber: "201", CardType: model.CardTypePrincipal, Action: model.ActionActivate})
	require.Error(t, err)
	assert.Equal(t, errs.KindInternal, errs.KindOf(err))
	assert.Equal(t, "internal server error", errs.MessageOf(err))

	entries := allEntries(t, s)
	require.Len(t, entries, 1)
	assert.False(t, entries[0].Success)
	assert.Equal(t, model.ReasonInternal, entries[0].Reason)
	assert.True(t, fixed.Equal(entries[0].ExecutedAt))
}
