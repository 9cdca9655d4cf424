package voucher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/campwise/glamp-api/internal/obs"
	"github.com/campwise/glamp-api/internal/store"
)

// Querier captures the database methods required by the voucher service.
type Querier interface {
	GetVoucherByCode(ctx context.Context, code string) (store.Voucher, error)
	CreateVoucher(ctx context.Context, arg store.CreateVoucherParams) (store.Voucher, error)
	UpdateVoucher(ctx context.Context, arg store.CreateVoucherParams) (store.Voucher, error)
	ListVouchers(ctx context.Context) ([]store.Voucher, error)
}

// Service loads voucher rules and evaluates them against booking targets.
type Service struct {
	Q   Querier
	Now func() time.Time
}

// Evaluate resolves the code and runs the rule against the target. An unknown
// code is an invalid voucher, not a missing row.
func (s *Service) Evaluate(ctx context.Context, code string, t Target) (Discount, error) {
	if s == nil || s.Q == nil {
		return Discount{}, errors.New("voucher service not configured")
	}
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return Discount{}, fmt.Errorf("%w: code is required", ErrInvalidVoucher)
	}
	v, err := s.Q.GetVoucherByCode(ctx, trimmed)
	if err != nil {
		if store.IsNoRows(err) {
			s.countRejection("unknown_code")
			return Discount{}, fmt.Errorf("%w: unknown code", ErrInvalidVoucher)
		}
		return Discount{}, err
	}
	if t.Now.IsZero() {
		t.Now = s.now()
	}
	d, err := Evaluate(v, t)
	if err != nil {
		switch {
		case errors.Is(err, ErrScopeMismatch):
			s.countRejection("scope_mismatch")
		case errors.Is(err, ErrInvalidVoucher):
			s.countRejection("invalid")
		}
		return Discount{}, err
	}
	return d, nil
}

// Create stores a new voucher rule.
func (s *Service) Create(ctx context.Context, arg store.CreateVoucherParams) (store.Voucher, error) {
	if err := validateParams(arg); err != nil {
		return store.Voucher{}, err
	}
	if arg.Status == "" {
		arg.Status = "active"
	}
	return s.Q.CreateVoucher(ctx, arg)
}

// Update replaces the mutable fields of the voucher identified by code.
func (s *Service) Update(ctx context.Context, arg store.CreateVoucherParams) (store.Voucher, error) {
	if err := validateParams(arg); err != nil {
		return store.Voucher{}, err
	}
	v, err := s.Q.UpdateVoucher(ctx, arg)
	if err != nil && store.IsNoRows(err) {
		return store.Voucher{}, fmt.Errorf("%w: unknown code", ErrInvalidVoucher)
	}
	return v, err
}

// List returns every stored voucher rule, newest first.
func (s *Service) List(ctx context.Context) ([]store.Voucher, error) {
	return s.Q.ListVouchers(ctx)
}

func validateParams(arg store.CreateVoucherParams) error {
	if strings.TrimSpace(arg.Code) == "" {
		return fmt.Errorf("%w: code is required", ErrInvalidVoucher)
	}
	switch arg.Kind {
	case store.DiscountKindPercentage:
		if arg.Value <= 0 || arg.Value > 100 {
			return fmt.Errorf("%w: percentage must be within 1..100", ErrInvalidVoucher)
		}
	case store.DiscountKindFixedAmount:
		if arg.Value <= 0 {
			return fmt.Errorf("%w: amount must be positive", ErrInvalidVoucher)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidVoucher, arg.Kind)
	}
	switch arg.Application {
	case store.ApplicationAccommodationOnly, store.ApplicationMenuOnly, store.ApplicationWholeBooking:
	default:
		return fmt.Errorf("%w: unknown application %q", ErrInvalidVoucher, arg.Application)
	}
	return nil
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) countRejection(reason string) {
	if obs.VoucherRejectionTotal != nil {
		obs.VoucherRejectionTotal.WithLabelValues(reason).Inc()
	}
}
