// Package stats rolls up the command ledger. Every call reads the ledger
// afresh; nothing is cached or written.
package stats

import (
	"context"
	"sort"
	"time"

	"elevator-access-backend/internal/errs"
	"elevator-access-backend/internal/model"
	"elevator-access-backend/internal/store"
)

const dateLayout = "2006-01-02"

// Summary holds the headline ledger counters.
type Summary struct {
	TotalCount     int64   `json:"totalCommands"`
	SuccessCount   int64   `json:"successfulCommands"`
	SuccessRate    float64 `json:"successRate"`
	CountToday     int64   `json:"commandsToday"`
	CountLast7Days int64   `json:"commandsLast7Days"`
}

// ApartmentStats aggregates one unit. TotalCommands and SuccessfulCommands
// cover the unit's whole history.
type ApartmentStats struct {
	UnitNumber         string `json:"unitNumber"`
	TotalCommands      int64  `json:"totalCommands"`
	SuccessfulCommands int64  `json:"successfulCommands"`
	WindowCommands     int64  `json:"windowCommands"`
}

// CardTypeStats aggregates one card type within the window.
type CardTypeStats struct {
	CardType           model.CardType `json:"cardType"`
	TotalCommands      int64          `json:"totalCommands"`
	SuccessfulCommands int64          `json:"successfulCommands"`
}

// DayStats aggregates one calendar date within the window.
type DayStats struct {
	Date               string `json:"date"`
	TotalCommands      int64  `json:"totalCommands"`
	SuccessfulCommands int64  `json:"successfulCommands"`
}

// Detailed is the breakdown returned for a lookback window.
type Detailed struct {
	LookbackDays int              `json:"lookbackDays"`
	Since        time.Time        `json:"since"`
	ByApartment  []ApartmentStats `json:"byApartment"`
	ByCardType   []CardTypeStats  `json:"byCardType"`
	ByDay        []DayStats       `json:"byDay"`
}

// ApartmentUsage summarizes the ledger of a single unit.
type ApartmentUsage struct {
	TotalCommands      int64 `json:"totalCommands"`
	SuccessfulCommands int64 `json:"successfulCommands"`
	CommandsToday      int64 `json:"commandsToday"`
}

// Aggregator computes statistics over the ledger. Calendar boundaries are
// taken in loc.
type Aggregator struct {
	ledger store.Ledger
	loc    *time.Location
	now    func() time.Time
}

// NewAggregator creates an Aggregator. A nil loc means time.Local.
func NewAggregator(ledger store.Ledger, loc *time.Location) *Aggregator {
	if loc == nil {
		loc = time.Local
	}
	return &Aggregator{ledger: ledger, loc: loc, now: time.Now}
}

// SetClock replaces time.Now.
func (a *Aggregator) SetClock(now func() time.Time) {
	a.now = now
}

// midnight returns the start of the current day in the aggregator's zone.
func (a *Aggregator) midnight() time.Time {
	y, m, d := a.now().In(a.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, a.loc)
}

// Summary counts every entry, the successful ones, those of today and those
// since the start of the day seven days ago.
func (a *Aggregator) Summary(ctx context.Context) (Summary, error) {
	today := a.midnight()
	totals, err := a.ledger.LedgerTotals(ctx, store.TotalsFilter{
		DayStart:  today,
		WeekStart: today.AddDate(0, 0, -7),
	})
	if err != nil {
		return Summary{}, err
	}
	return Summary{
		TotalCount:     totals.Total,
		SuccessCount:   totals.Successful,
		SuccessRate:    rate(totals.Successful, totals.Total),
		CountToday:     totals.Today,
		CountLast7Days: totals.Week,
	}, nil
}

// Detailed breaks the ledger down for the window starting lookbackDays days
// before today's midnight. Zero means today only.
func (a *Aggregator) Detailed(ctx context.Context, lookbackDays int) (Detailed, error) {
	if lookbackDays < 0 {
		return Detailed{}, errs.New(errs.KindValidation, "lookbackDays must not be negative")
	}
	since := a.midnight().AddDate(0, 0, -lookbackDays)

	apartments, err := a.ledger.ApartmentRollup(ctx, since)
	if err != nil {
		return Detailed{}, err
	}
	cardTypes, err := a.ledger.CardTypeRollup(ctx, since)
	if err != nil {
		return Detailed{}, err
	}
	points, err := a.ledger.EntryPoints(ctx, since)
	if err != nil {
		return Detailed{}, err
	}

	out := Detailed{
		LookbackDays: lookbackDays,
		Since:        since,
		ByApartment:  make([]ApartmentStats, 0, len(apartments)),
		ByCardType:   fillCardTypes(cardTypes),
		ByDay:        a.bucketByDay(points),
	}
	for _, r := range apartments {
		out.ByApartment = append(out.ByApartment, ApartmentStats{
			UnitNumber:         r.UnitNumber,
			TotalCommands:      r.Total,
			SuccessfulCommands: r.Successful,
			WindowCommands:     r.InWindow,
		})
	}
	return out, nil
}

// ApartmentUsage counts the ledger of one unit.
func (a *Aggregator) ApartmentUsage(ctx context.Context, unitNumber string) (ApartmentUsage, error) {
	today := a.midnight()
	totals, err := a.ledger.LedgerTotals(ctx, store.TotalsFilter{
		UnitNumber: &unitNumber,
		DayStart:   today,
		WeekStart:  today.AddDate(0, 0, -7),
	})
	if err != nil {
		return ApartmentUsage{}, err
	}
	return ApartmentUsage{
		TotalCommands:      totals.Total,
		SuccessfulCommands: totals.Successful,
		CommandsToday:      totals.Today,
	}, nil
}

// fillCardTypes returns one row per card type, in label order, including
// types without entries.
func fillCardTypes(rows []store.CardTypeRollupRow) []CardTypeStats {
	byType := make(map[model.CardType]store.CardTypeRollupRow, len(rows))
	for _, r := range rows {
		byType[r.CardType] = r
	}
	out := make([]CardTypeStats, 0, len(model.CardTypes))
	for _, ct := range model.CardTypes {
		r := byType[ct]
		out = append(out, CardTypeStats{CardType: ct, TotalCommands: r.Total, SuccessfulCommands: r.Successful})
	}
	return out
}

func (a *Aggregator) bucketByDay(points []store.EntryPoint) []DayStats {
	buckets := map[string]*DayStats{}
	for _, p := range points {
		day := p.ExecutedAt.In(a.loc).Format(dateLayout)
		b, ok := buckets[day]
		if !ok {
			b = &DayStats{Date: day}
			buckets[day] = b
		}
		b.TotalCommands++
		if p.Success {
			b.SuccessfulCommands++
		}
	}

	out := make([]DayStats, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	// ISO dates sort lexically.
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out
}

func rate(part, total int64) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total)
}
