package pricing

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/campwise/glamp-api/internal/rate"
	"github.com/campwise/glamp-api/internal/store"
)

type stubRates struct {
	prices  map[uuid.UUID]rate.Resolved
	missing map[uuid.UUID]bool
	calls   int
}

func (s *stubRates) Resolve(_ context.Context, _, parameterID pgtype.UUID, _ time.Time) (rate.Resolved, error) {
	s.calls++
	id := uuid.UUID(parameterID.Bytes)
	if s.missing[id] {
		return rate.Resolved{}, fmt.Errorf("parameter %s: %w", id, rate.ErrMissingRate)
	}
	return s.prices[id], nil
}

func day(d int) time.Time {
	return time.Date(2026, 7, d, 0, 0, 0, 0, time.UTC)
}

func TestQuoteThreeNightsTwoAdults(t *testing.T) {
	adult := uuid.New()
	rates := &stubRates{prices: map[uuid.UUID]rate.Resolved{
		adult: {UnitPrice: 500_000, Mode: store.PricingModePerPerson},
	}}
	calc := &Calculator{Rates: rates}

	bd, err := calc.Quote(context.Background(), uuid.New(), day(1), day(4), map[uuid.UUID]int{adult: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bd.Nights) != 3 {
		t.Fatalf("expected 3 nights, got %d", len(bd.Nights))
	}
	if bd.Accommodation != 3_000_000 {
		t.Fatalf("expected 3000000 total, got %d", bd.Accommodation)
	}
	for _, n := range bd.Nights {
		if n.Total != 1_000_000 {
			t.Fatalf("expected 1000000 per night, got %d on %s", n.Total, n.Date)
		}
	}
}

func TestQuotePerGroupChargedOncePerNight(t *testing.T) {
	cleaning := uuid.New()
	rates := &stubRates{prices: map[uuid.UUID]rate.Resolved{
		cleaning: {UnitPrice: 100_000, Mode: store.PricingModePerGroup},
	}}
	calc := &Calculator{Rates: rates}

	bd, err := calc.Quote(context.Background(), uuid.New(), day(1), day(5), map[uuid.UUID]int{cleaning: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bd.Accommodation != 400_000 {
		t.Fatalf("per_group must ignore quantity: expected 400000, got %d", bd.Accommodation)
	}
}

func TestQuoteMissingRateFailsWhole(t *testing.T) {
	adult := uuid.New()
	child := uuid.New()
	rates := &stubRates{
		prices:  map[uuid.UUID]rate.Resolved{adult: {UnitPrice: 500_000, Mode: store.PricingModePerPerson}},
		missing: map[uuid.UUID]bool{child: true},
	}
	calc := &Calculator{Rates: rates}

	_, err := calc.Quote(context.Background(), uuid.New(), day(1), day(3), map[uuid.UUID]int{adult: 2, child: 1})
	var missing *MissingPricingError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingPricingError, got %v", err)
	}
	if len(missing.ParameterIDs) != 1 || missing.ParameterIDs[0] != child {
		t.Fatalf("expected the child parameter to be reported, got %v", missing.ParameterIDs)
	}
	if !errors.Is(err, rate.ErrMissingRate) {
		t.Fatal("MissingPricingError must unwrap to the rate sentinel")
	}
}

func TestQuoteZeroQuantityIgnored(t *testing.T) {
	adult := uuid.New()
	child := uuid.New()
	rates := &stubRates{
		prices:  map[uuid.UUID]rate.Resolved{adult: {UnitPrice: 500_000, Mode: store.PricingModePerPerson}},
		missing: map[uuid.UUID]bool{child: true},
	}
	calc := &Calculator{Rates: rates}

	// quantity zero means the unpriceable child parameter never resolves
	bd, err := calc.Quote(context.Background(), uuid.New(), day(1), day(2), map[uuid.UUID]int{adult: 1, child: 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bd.Accommodation != 500_000 {
		t.Fatalf("expected 500000, got %d", bd.Accommodation)
	}
}

func TestQuoteRejectsInvertedStay(t *testing.T) {
	calc := &Calculator{Rates: &stubRates{}}
	if _, err := calc.Quote(context.Background(), uuid.New(), day(5), day(5), map[uuid.UUID]int{uuid.New(): 1}); err == nil {
		t.Fatal("zero-night stay must be rejected")
	}
}

func TestCheckTotalsMismatch(t *testing.T) {
	total, err := CheckTotals(1_000_000, 999_999)
	var cons *ConsistencyError
	if !errors.As(err, &cons) {
		t.Fatalf("expected ConsistencyError, got %v", err)
	}
	if total != 1_000_000 {
		t.Fatalf("nightly sum must stay authoritative, got %d", total)
	}
	if cons.NightlySum != 1_000_000 || cons.Direct != 999_999 {
		t.Fatalf("unexpected error payload: %+v", cons)
	}
}

func TestNightLine(t *testing.T) {
	perPerson := rate.Resolved{UnitPrice: 250_000, Mode: store.PricingModePerPerson}
	if got := NightLine(perPerson, 3); got != 750_000 {
		t.Fatalf("expected 750000, got %d", got)
	}
	perGroup := rate.Resolved{UnitPrice: 250_000, Mode: store.PricingModePerGroup}
	if got := NightLine(perGroup, 3); got != 250_000 {
		t.Fatalf("expected 250000, got %d", got)
	}
	if got := NightLine(perPerson, 0); got != 0 {
		t.Fatalf("expected zero for zero quantity, got %d", got)
	}
}
