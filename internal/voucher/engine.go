package voucher

import (
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/campwise/glamp-api/internal/store"
)

var (
	// ErrInvalidVoucher is returned when the voucher does not exist, is
	// inactive, or lies outside its validity window.
	ErrInvalidVoucher = errors.New("voucher invalid")
	// ErrScopeMismatch is returned when the voucher's zone, item, or
	// application scope does not cover the target it is being applied to.
	ErrScopeMismatch = errors.New("voucher scope mismatch")
)

// Scope names the slice of a booking a discount is being applied against.
type Scope string

const (
	ScopeAccommodation Scope = "accommodation"
	ScopeMenu          Scope = "menu"
	ScopeBooking       Scope = "booking"
)

// Target describes the context a voucher is evaluated against: which scope,
// which zone and item the target belongs to, and the pre-discount base amount.
type Target struct {
	Scope  Scope
	ZoneID pgtype.UUID
	ItemID pgtype.UUID
	Base   int64
	Now    time.Time
}

// Discount is the structured result attached to a tent or product line. The
// originating rule travels with the amount so the line can be re-evaluated.
type Discount struct {
	VoucherID pgtype.UUID        `json:"voucherId"`
	Code      string             `json:"code"`
	Kind      store.DiscountKind `json:"kind"`
	Value     int64              `json:"value"`
	Amount    int64              `json:"amount"`
}

// Validate checks the voucher's own state and its fit for the target. State
// problems surface as ErrInvalidVoucher, scope problems as ErrScopeMismatch.
func Validate(v store.Voucher, t Target) error {
	if !v.IsActive {
		return fmt.Errorf("%w: deactivated", ErrInvalidVoucher)
	}
	if v.Status != "" && v.Status != "active" {
		return fmt.Errorf("%w: status %s", ErrInvalidVoucher, v.Status)
	}
	if v.ValidFrom.Valid && t.Now.Before(v.ValidFrom.Time) {
		return fmt.Errorf("%w: not yet valid", ErrInvalidVoucher)
	}
	if v.ValidTo.Valid && t.Now.After(v.ValidTo.Time) {
		return fmt.Errorf("%w: expired", ErrInvalidVoucher)
	}
	if !applicationCovers(v.Application, t.Scope) {
		return fmt.Errorf("%w: %s voucher cannot apply to %s", ErrScopeMismatch, v.Application, t.Scope)
	}
	if v.ZoneID.Valid && (!t.ZoneID.Valid || v.ZoneID.Bytes != t.ZoneID.Bytes) {
		return fmt.Errorf("%w: zone restricted", ErrScopeMismatch)
	}
	if v.ItemID.Valid && (!t.ItemID.Valid || v.ItemID.Bytes != t.ItemID.Bytes) {
		return fmt.Errorf("%w: item restricted", ErrScopeMismatch)
	}
	return nil
}

// applicationCovers reports whether the voucher's application type covers the
// evaluation scope. Whole-booking vouchers cover every scope.
func applicationCovers(app store.ApplicationType, scope Scope) bool {
	switch app {
	case store.ApplicationWholeBooking:
		return true
	case store.ApplicationAccommodationOnly:
		return scope == ScopeAccommodation
	case store.ApplicationMenuOnly:
		return scope == ScopeMenu
	default:
		return false
	}
}

// Compute derives the discount amount for a base. Percentage values are whole
// percents. The result is clamped to [0, base] so a line never goes negative.
func Compute(v store.Voucher, base int64) int64 {
	if base <= 0 {
		return 0
	}
	var amount int64
	switch v.Kind {
	case store.DiscountKindPercentage:
		amount = base * v.Value / 100
	case store.DiscountKindFixedAmount:
		amount = v.Value
	}
	if amount > base {
		amount = base
	}
	if amount < 0 {
		amount = 0
	}
	return amount
}

// Evaluate validates the voucher against the target and, on success, returns
// the structured discount record.
func Evaluate(v store.Voucher, t Target) (Discount, error) {
	if err := Validate(v, t); err != nil {
		return Discount{}, err
	}
	return Discount{
		VoucherID: v.ID,
		Code:      v.Code,
		Kind:      v.Kind,
		Value:     v.Value,
		Amount:    Compute(v, t.Base),
	}, nil
}
