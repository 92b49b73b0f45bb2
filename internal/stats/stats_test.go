package stats

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"elevator-access-backend/internal/errs"
	"elevator-access-backend/internal/model"
	"elevator-access-backend/internal/store"
	"elevator-access-backend/internal/store/storetest"
)

var fixedNow = time.Date(2026, 5, 10, 15, 0, 0, 0, time.UTC)

func newAggregator(t *testing.T) (*Aggregator, store.Store) {
	t.Helper()
	_, s := storetest.New(t)
	a := NewAggregator(s, time.UTC)
	a.SetClock(func() time.Time { return fixedNow })
	return a, s
}

func add(t *testing.T, s store.Store, unit string, ct model.CardType, success bool, at time.Time) {
	t.Helper()
	require.NoError(t, s.RecordCommand(context.Background(), &model.CommandEntry{
		UnitNumber: unit,
		CardType:   ct,
		Action:     model.ActionActivate,
		Success:    success,
		ExecutedAt: at,
	}))
}

func TestDetailed_OrdersApartmentsByTotal(t *testing.T) {
	a, s := newAggregator(t)

	for i := 0; i < 5; i++ {
		add(t, s, "201", model.CardTypePrincipal, i != 0, fixedNow.Add(-time.Duration(i)*time.Hour))
	}
	add(t, s, "305", model.CardTypeSecondary, true, fixedNow.AddDate(0, 0, -2))
	add(t, s, "305", model.CardTypeSecondary, false, fixedNow.AddDate(0, 0, -3))

	got, err := a.Detailed(context.Background(), 7)
	require.NoError(t, err)

	require.Len(t, got.ByApartment, 2)
	assert.Equal(t, ApartmentStats{UnitNumber: "201", TotalCommands: 5, SuccessfulCommands: 4, WindowCommands: 5}, got.ByApartment[0])
	assert.Equal(t, ApartmentStats{UnitNumber: "305", TotalCommands: 2, SuccessfulCommands: 1, WindowCommands: 2}, got.ByApartment[1])

	assert.Equal(t, []CardTypeStats{
		{CardType: model.CardTypePrincipal, TotalCommands: 5, SuccessfulCommands: 4},
		{CardType: model.CardTypeSecondary, TotalCommands: 2, SuccessfulCommands: 1},
		{CardType: model.CardTypeGuest},
	}, got.ByCardType)

	assert.Equal(t, []DayStats{
		{Date: "2026-05-10", TotalCommands: 5, SuccessfulCommands: 4},
		{Date: "2026-05-08", TotalCommands: 1, SuccessfulCommands: 1},
		{Date: "2026-05-07", TotalCommands: 1, SuccessfulCommands: 0},
	}, got.ByDay)
	assert.Equal(t, time.Date(2026, 5, 3, 0, 0, 0, 0, time.UTC), got.Since)
}

func TestDetailed_Window(t *testing.T) {
	a, s := newAggregator(t)

	add(t, s, "201", model.CardTypePrincipal, true, fixedNow)
	// Outside a seven day window but part of 201's lifetime.
	add(t, s, "201", model.CardTypePrincipal, true, time.Date(2026, 5, 2, 23, 0, 0, 0, time.UTC))
	add(t, s, "201", model.CardTypePrincipal, true, time.Date(2026, 5, 2, 22, 0, 0, 0, time.UTC))
	// Only active before the window.
	add(t, s, "410", model.CardTypeGuest, true, fixedNow.AddDate(0, 0, -30))

	got, err := a.Detailed(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, got.ByApartment, 1)
	assert.Equal(t, ApartmentStats{UnitNumber: "201", TotalCommands: 3, SuccessfulCommands: 3, WindowCommands: 1}, got.ByApartment[0])
	require.Len(t, got.ByDay, 1)

	today, err := a.Detailed(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, today.ByDay, 1)
	assert.Equal(t, "2026-05-10", today.ByDay[0].Date)

	_, err = a.Detailed(context.Background(), -1)
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestDetailed_EmptyLedger(t *testing.T) {
	a, _ := newAggregator(t)

	got, err := a.Detailed(context.Background(), 7)
	require.NoError(t, err)
	assert.Empty(t, got.ByApartment)
	assert.Empty(t, got.ByDay)
	assert.Len(t, got.ByCardType, 3)
}

func TestDetailed_BucketsInLocation(t *testing.T) {
	_, s := storetest.New(t)
	loc := time.FixedZone("UTC-5", -5*3600)
	a := NewAggregator(s, loc)
	a.SetClock(func() time.Time { return fixedNow })

	// 02:00 UTC on the 10th is still the 9th five hours west.
	add(t, s, "201", model.CardTypePrincipal, true, time.Date(2026, 5, 10, 2, 0, 0, 0, time.UTC))

	got, err := a.Detailed(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, got.ByDay, 1)
	assert.Equal(t, "2026-05-09", got.ByDay[0].Date)
}

func TestSummary(t *testing.T) {
	a, s := newAggregator(t)

	sum, err := a.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Summary{}, sum)

	add(t, s, "201", model.CardTypePrincipal, true, fixedNow.Add(-time.Hour))
	add(t, s, "201", model.CardTypePrincipal, false, fixedNow.AddDate(0, 0, -1))
	add(t, s, "305", model.CardTypePrincipal, true, fixedNow.AddDate(0, 0, -7))
	add(t, s, "305", model.CardTypePrincipal, true, fixedNow.AddDate(0, 0, -20))

	sum, err = a.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), sum.TotalCount)
	assert.Equal(t, int64(3), sum.SuccessCount)
	assert.InDelta(t, 0.75, sum.SuccessRate, 1e-9)
	assert.Equal(t, int64(1), sum.CountToday)
	assert.Equal(t, int64(3), sum.CountLast7Days)

	usage, err := a.ApartmentUsage(context.Background(), "201")
	require.NoError(t, err)
	assert.Equal(t, ApartmentUsage{TotalCommands: 2, SuccessfulCommands: 1, CommandsToday: 1}, usage)
}
