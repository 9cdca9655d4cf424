package rate

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/campwise/glamp-api/internal/store"
)

func date(y int, m time.Month, d int) pgtype.Date {
	return pgtype.Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), Valid: true}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCoversOneTime(t *testing.T) {
	ev := store.RateEvent{
		Recurrence: store.RecurrenceOneTime,
		StartDate:  date(2026, 7, 1),
		EndDate:    date(2026, 7, 10),
	}
	if !Covers(ev, day(2026, 7, 5)) {
		t.Fatal("expected coverage inside the window")
	}
	if Covers(ev, day(2026, 7, 11)) {
		t.Fatal("expected no coverage after the window")
	}
}

func TestCoversWeekly(t *testing.T) {
	// Friday through Sunday, repeating weekly
	ev := store.RateEvent{
		Recurrence: store.RecurrenceWeekly,
		StartDate:  date(2026, 1, 2),
		EndDate:    date(2026, 1, 4),
	}
	if !Covers(ev, day(2026, 1, 9)) {
		t.Fatal("following Friday must be covered")
	}
	if !Covers(ev, day(2025, 12, 27)) {
		t.Fatal("weekly recurrence extends before the anchor week")
	}
	if Covers(ev, day(2026, 1, 7)) {
		t.Fatal("Wednesday must not be covered")
	}
}

func TestCoversWeeklyFullSpan(t *testing.T) {
	ev := store.RateEvent{
		Recurrence: store.RecurrenceWeekly,
		StartDate:  date(2026, 1, 1),
		EndDate:    date(2026, 1, 7),
	}
	if !Covers(ev, day(2026, 5, 20)) {
		t.Fatal("a seven-day weekly window covers every date")
	}
}

func TestCoversMonthlyWrap(t *testing.T) {
	// 28th through the 3rd, wrapping the month boundary
	ev := store.RateEvent{
		Recurrence: store.RecurrenceMonthly,
		StartDate:  date(2026, 1, 28),
		EndDate:    date(2026, 2, 3),
	}
	if !Covers(ev, day(2026, 6, 30)) || !Covers(ev, day(2026, 6, 2)) {
		t.Fatal("wrapped monthly window must cover both edges")
	}
	if Covers(ev, day(2026, 6, 15)) {
		t.Fatal("mid-month must not be covered")
	}
}

func TestCoversYearlyWrap(t *testing.T) {
	// December 20 through January 5, every year
	ev := store.RateEvent{
		Recurrence: store.RecurrenceYearly,
		StartDate:  date(2025, 12, 20),
		EndDate:    date(2026, 1, 5),
	}
	if !Covers(ev, day(2027, 12, 25)) || !Covers(ev, day(2028, 1, 3)) {
		t.Fatal("yearly wrap must cover the holidays")
	}
	if Covers(ev, day(2027, 7, 1)) {
		t.Fatal("summer must not be covered")
	}
}

func TestPickEventClosureBeatsSeasonal(t *testing.T) {
	night := day(2026, 7, 5)
	seasonal := store.RateEvent{
		Kind:       store.EventKindSeasonal,
		Recurrence: store.RecurrenceOneTime,
		StartDate:  date(2026, 6, 1),
		EndDate:    date(2026, 8, 31),
	}
	closure := store.RateEvent{
		Kind:       store.EventKindClosure,
		Recurrence: store.RecurrenceOneTime,
		StartDate:  date(2026, 7, 4),
		EndDate:    date(2026, 7, 6),
	}
	picked, ok := PickEvent([]store.RateEvent{seasonal, closure}, night)
	if !ok || picked.Kind != store.EventKindClosure {
		t.Fatalf("expected closure to win, got %+v", picked)
	}
}

func TestPickEventCloserStartWins(t *testing.T) {
	night := day(2026, 7, 10)
	far := store.RateEvent{
		Kind:       store.EventKindSpecial,
		Recurrence: store.RecurrenceOneTime,
		StartDate:  date(2026, 6, 1),
		EndDate:    date(2026, 8, 31),
	}
	near := store.RateEvent{
		Kind:       store.EventKindSpecial,
		Recurrence: store.RecurrenceOneTime,
		StartDate:  date(2026, 7, 8),
		EndDate:    date(2026, 7, 20),
	}
	picked, _ := PickEvent([]store.RateEvent{far, near}, night)
	if picked.StartDate.Time != near.StartDate.Time {
		t.Fatalf("expected the closer start date to win, got %v", picked.StartDate.Time)
	}
}

func TestPickEventNewestBreaksTies(t *testing.T) {
	night := day(2026, 7, 10)
	older := store.RateEvent{
		Kind:       store.EventKindSpecial,
		Recurrence: store.RecurrenceOneTime,
		StartDate:  date(2026, 7, 1),
		EndDate:    date(2026, 7, 31),
		CreatedAt:  pgtype.Timestamptz{Time: day(2026, 1, 1), Valid: true},
	}
	newer := older
	newer.CreatedAt = pgtype.Timestamptz{Time: day(2026, 2, 1), Valid: true}
	newer.AdjustAmount = pgtype.Int8{Int64: 42, Valid: true}

	picked, _ := PickEvent([]store.RateEvent{older, newer}, night)
	if !picked.AdjustAmount.Valid {
		t.Fatal("expected the most recently created event to win the tie")
	}
}

func TestAdjustDynamic(t *testing.T) {
	percent := store.RateEvent{AdjustPercent: pgtype.Int4{Int32: 20, Valid: true}}
	if got := AdjustDynamic(percent, 500_000); got != 600_000 {
		t.Fatalf("expected +20%% = 600000, got %d", got)
	}
	negative := store.RateEvent{AdjustPercent: pgtype.Int4{Int32: -10, Valid: true}}
	if got := AdjustDynamic(negative, 500_000); got != 450_000 {
		t.Fatalf("expected -10%% = 450000, got %d", got)
	}
	fixed := store.RateEvent{AdjustAmount: pgtype.Int8{Int64: -50_000, Valid: true}}
	if got := AdjustDynamic(fixed, 500_000); got != 450_000 {
		t.Fatalf("expected fixed -50000 = 450000, got %d", got)
	}
}

func TestPickYieldTier(t *testing.T) {
	tiers := []store.YieldTier{
		{StockCeiling: 2, Amount: 900_000},
		{StockCeiling: 5, Amount: 700_000},
		{StockCeiling: 10, Amount: 500_000},
	}
	tier, ok := PickYieldTier(tiers, 1)
	if !ok || tier.Amount != 900_000 {
		t.Fatalf("scarce stock must hit the tightest tier, got %+v", tier)
	}
	tier, _ = PickYieldTier(tiers, 4)
	if tier.Amount != 700_000 {
		t.Fatalf("expected mid tier, got %+v", tier)
	}
	if _, ok := PickYieldTier(tiers, 11); ok {
		t.Fatal("stock above every ceiling must fall back to base pricing")
	}
}
