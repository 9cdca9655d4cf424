package voucher

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/campwise/glamp-api/internal/store"
)

func TestComputePercentage(t *testing.T) {
	v := store.Voucher{Kind: store.DiscountKindPercentage, Value: 10}
	if got := Compute(v, 3_000_000); got != 300_000 {
		t.Fatalf("expected 300000 discount, got %d", got)
	}
}

func TestComputeFixedClamped(t *testing.T) {
	v := store.Voucher{Kind: store.DiscountKindFixedAmount, Value: 500_000}
	if got := Compute(v, 200_000); got != 200_000 {
		t.Fatalf("expected discount clamped to 200000, got %d", got)
	}
	if got := Compute(v, 0); got != 0 {
		t.Fatalf("expected zero discount on zero base, got %d", got)
	}
}

func TestValidateWindow(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	v := activeVoucher()
	v.ValidTo = pgtype.Timestamptz{Time: now.Add(-time.Hour), Valid: true}
	err := Validate(v, Target{Scope: ScopeAccommodation, Now: now})
	if !errors.Is(err, ErrInvalidVoucher) {
		t.Fatalf("expected ErrInvalidVoucher for expired voucher, got %v", err)
	}
}

func TestValidateInactive(t *testing.T) {
	v := activeVoucher()
	v.IsActive = false
	err := Validate(v, Target{Scope: ScopeAccommodation, Now: time.Now()})
	if !errors.Is(err, ErrInvalidVoucher) {
		t.Fatalf("expected ErrInvalidVoucher for inactive voucher, got %v", err)
	}
}

func TestValidateApplicationScope(t *testing.T) {
	v := activeVoucher()
	v.Application = store.ApplicationMenuOnly
	err := Validate(v, Target{Scope: ScopeAccommodation, Now: time.Now()})
	if !errors.Is(err, ErrScopeMismatch) {
		t.Fatalf("expected ErrScopeMismatch for menu voucher on accommodation, got %v", err)
	}
}

func TestValidateWholeBookingCoversEveryScope(t *testing.T) {
	v := activeVoucher()
	v.Application = store.ApplicationWholeBooking
	for _, scope := range []Scope{ScopeAccommodation, ScopeMenu, ScopeBooking} {
		if err := Validate(v, Target{Scope: scope, Now: time.Now()}); err != nil {
			t.Fatalf("whole_booking voucher rejected for scope %s: %v", scope, err)
		}
	}
}

func TestValidateItemRestriction(t *testing.T) {
	restricted := uuidToPg(uuid.New())
	v := activeVoucher()
	v.ItemID = restricted

	err := Validate(v, Target{Scope: ScopeAccommodation, ItemID: uuidToPg(uuid.New()), Now: time.Now()})
	if !errors.Is(err, ErrScopeMismatch) {
		t.Fatalf("expected ErrScopeMismatch for foreign item, got %v", err)
	}
	if err := Validate(v, Target{Scope: ScopeAccommodation, ItemID: restricted, Now: time.Now()}); err != nil {
		t.Fatalf("expected restricted item to pass, got %v", err)
	}
}

func TestEvaluateReturnsStructuredDiscount(t *testing.T) {
	v := activeVoucher()
	d, err := Evaluate(v, Target{Scope: ScopeAccommodation, Base: 3_000_000, Now: time.Now()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Code != "SUMMER10" || d.Kind != store.DiscountKindPercentage || d.Amount != 300_000 {
		t.Fatalf("unexpected discount record: %+v", d)
	}
}

func activeVoucher() store.Voucher {
	return store.Voucher{
		ID:          uuidToPg(uuid.New()),
		Code:        "SUMMER10",
		Kind:        store.DiscountKindPercentage,
		Value:       10,
		IsActive:    true,
		Status:      "active",
		Application: store.ApplicationAccommodationOnly,
	}
}

func uuidToPg(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}
