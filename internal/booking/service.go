package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/campwise/glamp-api/internal/common"
	"github.com/campwise/glamp-api/internal/events"
	"github.com/campwise/glamp-api/internal/obs"
	"github.com/campwise/glamp-api/internal/pricing"
	"github.com/campwise/glamp-api/internal/store"
	"github.com/campwise/glamp-api/internal/tax"
	"github.com/campwise/glamp-api/internal/voucher"
)

var (
	// ErrNotFound is returned when the booking or one of its lines does not exist.
	ErrNotFound = errors.New("booking not found")
	// ErrEditNotAllowed is returned when add-on lines are edited in a payment
	// state that does not permit it.
	ErrEditNotAllowed = errors.New("booking edit not allowed in current payment state")
)

// Service owns the recalculation transaction. Every mutation runs inside a
// single transaction holding a row lock on the booking, recomputes all money
// columns, appends an audit row, and emits post-commit events.
type Service struct {
	Pool           *pgxpool.Pool
	Q              *store.Queries
	Taxes          tax.Resolver
	Vouchers       *voucher.Service
	Bus            *events.Bus
	Log            zerolog.Logger
	DepositPercent int
}

// Result reports one recalculation outcome.
type Result struct {
	Booking  store.Booking
	OldTotal int64
	NewTotal int64
	Delta    int64
}

// Get returns a booking without locking it.
func (s *Service) Get(ctx context.Context, bookingID string) (store.Booking, error) {
	id, err := toUUID(bookingID)
	if err != nil {
		return store.Booking{}, fmt.Errorf("%w: invalid id", ErrNotFound)
	}
	b, err := s.Q.GetBooking(ctx, id)
	if err != nil {
		if store.IsNoRows(err) {
			return store.Booking{}, ErrNotFound
		}
		return store.Booking{}, err
	}
	return b, nil
}

// History returns the booking's audit trail, newest first.
func (s *Service) History(ctx context.Context, bookingID string) ([]store.StatusHistory, error) {
	id, err := toUUID(bookingID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid id", ErrNotFound)
	}
	if _, err := s.Q.GetBooking(ctx, id); err != nil {
		if store.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.Q.ListStatusHistoryByBooking(ctx, id)
}

// Recalculate re-derives every money column of the booking from its lines.
func (s *Service) Recalculate(ctx context.Context, bookingID, actorID string) (Result, error) {
	return s.run(ctx, bookingID, actorID, "manual recalculation", "", nil)
}

// AddMenuProductInput carries a new add-on line. When MenuItemID is set, name
// and unit price snapshot from the catalog; otherwise both must be provided.
type AddMenuProductInput struct {
	TentID     string
	MenuItemID string
	Name       string
	ServeDate  *time.Time
	Quantity   int32
	UnitPrice  *int64
}

// AddMenuProduct appends an add-on line and recalculates.
func (s *Service) AddMenuProduct(ctx context.Context, bookingID string, in AddMenuProductInput, actorID string) (Result, error) {
	return s.run(ctx, bookingID, actorID, "menu product added", events.TopicBookingLineAdded,
		func(ctx context.Context, qtx *store.Queries, b store.Booking) error {
			if !MenuEditAllowed(b.PaymentStatus) {
				return ErrEditNotAllowed
			}
			if in.Quantity <= 0 {
				return badRequest("quantity must be positive")
			}
			params := store.InsertMenuProductParams{
				BookingID: b.ID,
				Name:      strings.TrimSpace(in.Name),
				Quantity:  in.Quantity,
			}
			if in.TentID != "" {
				tentID, err := toUUID(in.TentID)
				if err != nil {
					return fmt.Errorf("%w: invalid tent id", ErrNotFound)
				}
				tent, err := qtx.GetTent(ctx, tentID)
				if err != nil || tent.BookingID.Bytes != b.ID.Bytes {
					return fmt.Errorf("%w: tent", ErrNotFound)
				}
				params.TentID = tentID
			}
			if in.MenuItemID != "" {
				menuID, err := toUUID(in.MenuItemID)
				if err != nil {
					return fmt.Errorf("%w: invalid menu item id", ErrNotFound)
				}
				item, err := qtx.GetMenuItem(ctx, menuID)
				if err != nil {
					if store.IsNoRows(err) {
						return fmt.Errorf("%w: menu item", ErrNotFound)
					}
					return err
				}
				params.MenuItemID = menuID
				if params.Name == "" {
					params.Name = item.Name
				}
				params.UnitPrice = item.UnitPrice
			}
			if in.UnitPrice != nil {
				params.UnitPrice = *in.UnitPrice
			}
			if params.Name == "" {
				return badRequest("name is required for ad-hoc products")
			}
			if in.MenuItemID == "" && in.UnitPrice == nil {
				return badRequest("unitPrice is required for ad-hoc products")
			}
			if in.ServeDate != nil {
				params.ServeDate = pgtype.Date{Time: *in.ServeDate, Valid: true}
			}
			_, err := qtx.InsertMenuProduct(ctx, params)
			return err
		})
}

// MenuProductPatch mutates selected fields of an add-on line. Nil pointers
// leave the field untouched; ClearOverride removes a staff price override and
// ClearVoucher detaches a line voucher. VoucherCode attaches a menu-scoped
// voucher to the line, replacing any existing one.
type MenuProductPatch struct {
	ServeDate        *time.Time
	Quantity         *int32
	UnitPrice        *int64
	SubtotalOverride *int64
	ClearOverride    bool
	VoucherCode      *string
	ClearVoucher     bool
}

// applyMenuPatch folds a patch into the stored line. A surviving voucher rule
// keeps its code and value while the amount follows the new line total.
func applyMenuPatch(p store.BookingMenuProduct, patch MenuProductPatch) store.BookingMenuProduct {
	if patch.ServeDate != nil {
		p.ServeDate = pgtype.Date{Time: *patch.ServeDate, Valid: true}
	}
	if patch.Quantity != nil {
		p.Quantity = *patch.Quantity
	}
	if patch.UnitPrice != nil {
		p.UnitPrice = *patch.UnitPrice
	}
	if patch.ClearOverride {
		p.SubtotalOverride = pgtype.Int8{}
	} else if patch.SubtotalOverride != nil {
		p.SubtotalOverride = pgtype.Int8{Int64: *patch.SubtotalOverride, Valid: true}
	}
	if patch.ClearVoucher {
		p.VoucherCode = pgtype.Text{}
		p.DiscountType = pgtype.Text{}
		p.DiscountValue = pgtype.Int8{}
		p.DiscountAmount = 0
		return p
	}
	p.DiscountAmount = lineDiscount(p.DiscountType, p.DiscountValue, p.LineTotal())
	return p
}

func attachMenuVoucher(p store.BookingMenuProduct, d voucher.Discount) store.BookingMenuProduct {
	p.VoucherCode = pgtype.Text{String: d.Code, Valid: true}
	p.DiscountType = pgtype.Text{String: string(d.Kind), Valid: true}
	p.DiscountValue = pgtype.Int8{Int64: d.Value, Valid: true}
	p.DiscountAmount = d.Amount
	return p
}

// UpdateMenuProduct patches an add-on line and recalculates.
func (s *Service) UpdateMenuProduct(ctx context.Context, bookingID, lineID string, patch MenuProductPatch, actorID string) (Result, error) {
	return s.run(ctx, bookingID, actorID, "menu product updated", "",
		func(ctx context.Context, qtx *store.Queries, b store.Booking) error {
			if !MenuEditAllowed(b.PaymentStatus) {
				return ErrEditNotAllowed
			}
			p, err := s.menuLine(ctx, qtx, b, lineID)
			if err != nil {
				return err
			}
			if patch.Quantity != nil && *patch.Quantity <= 0 {
				return badRequest("quantity must be positive")
			}
			if patch.VoucherCode != nil && patch.ClearVoucher {
				return badRequest("voucherCode and clearVoucher are mutually exclusive")
			}
			p = applyMenuPatch(p, patch)
			if patch.VoucherCode != nil {
				d, err := s.Vouchers.Evaluate(ctx, *patch.VoucherCode, voucher.Target{
					Scope: voucher.ScopeMenu,
					Base:  p.LineTotal(),
				})
				if err != nil {
					return err
				}
				p = attachMenuVoucher(p, d)
			}
			_, err = qtx.UpdateMenuProduct(ctx, store.UpdateMenuProductParams{
				ID:               p.ID,
				ServeDate:        p.ServeDate,
				Quantity:         p.Quantity,
				UnitPrice:        p.UnitPrice,
				SubtotalOverride: p.SubtotalOverride,
				VoucherCode:      p.VoucherCode,
				DiscountType:     p.DiscountType,
				DiscountValue:    p.DiscountValue,
				DiscountAmount:   p.DiscountAmount,
			})
			return err
		})
}

// RemoveMenuProduct deletes an add-on line and recalculates.
func (s *Service) RemoveMenuProduct(ctx context.Context, bookingID, lineID, actorID string) (Result, error) {
	return s.run(ctx, bookingID, actorID, "menu product removed", events.TopicBookingLineRemoved,
		func(ctx context.Context, qtx *store.Queries, b store.Booking) error {
			if !MenuEditAllowed(b.PaymentStatus) {
				return ErrEditNotAllowed
			}
			p, err := s.menuLine(ctx, qtx, b, lineID)
			if err != nil {
				return err
			}
			return qtx.DeleteMenuProduct(ctx, p.ID)
		})
}

// ApplyTentVoucher attaches an accommodation voucher to one tent and recalculates.
func (s *Service) ApplyTentVoucher(ctx context.Context, bookingID, tentID, code, actorID string) (Result, error) {
	return s.run(ctx, bookingID, actorID, "tent voucher applied", events.TopicVoucherApplied,
		func(ctx context.Context, qtx *store.Queries, b store.Booking) error {
			tent, err := s.tentOf(ctx, qtx, b, tentID)
			if err != nil {
				return err
			}
			item, err := qtx.GetItem(ctx, tent.ItemID)
			if err != nil {
				return err
			}
			base, err := s.tentAccommodation(ctx, qtx, b.ID, tent.ID)
			if err != nil {
				return err
			}
			d, err := s.Vouchers.Evaluate(ctx, code, voucher.Target{
				Scope:  voucher.ScopeAccommodation,
				ZoneID: item.ZoneID,
				ItemID: item.ID,
				Base:   base,
			})
			if err != nil {
				return err
			}
			return qtx.UpdateTentDiscount(ctx, store.UpdateTentDiscountParams{
				ID:             tent.ID,
				VoucherCode:    pgtype.Text{String: d.Code, Valid: true},
				DiscountType:   pgtype.Text{String: string(d.Kind), Valid: true},
				DiscountValue:  pgtype.Int8{Int64: d.Value, Valid: true},
				DiscountAmount: d.Amount,
			})
		})
}

// RemoveTentVoucher clears a tent's voucher and recalculates.
func (s *Service) RemoveTentVoucher(ctx context.Context, bookingID, tentID, actorID string) (Result, error) {
	return s.run(ctx, bookingID, actorID, "tent voucher removed", events.TopicVoucherRemoved,
		func(ctx context.Context, qtx *store.Queries, b store.Booking) error {
			tent, err := s.tentOf(ctx, qtx, b, tentID)
			if err != nil {
				return err
			}
			return qtx.UpdateTentDiscount(ctx, store.UpdateTentDiscountParams{ID: tent.ID})
		})
}

// ApplyBookingVoucher attaches a whole-booking voucher and recalculates.
func (s *Service) ApplyBookingVoucher(ctx context.Context, bookingID, code, actorID string) (Result, error) {
	return s.run(ctx, bookingID, actorID, "booking voucher applied", events.TopicVoucherApplied,
		func(ctx context.Context, qtx *store.Queries, b store.Booking) error {
			d, err := s.Vouchers.Evaluate(ctx, code, voucher.Target{
				Scope: voucher.ScopeBooking,
				Base:  b.SubtotalAmount,
			})
			if err != nil {
				return err
			}
			return qtx.UpdateBookingVoucher(ctx, store.UpdateBookingVoucherParams{
				ID:            b.ID,
				VoucherCode:   pgtype.Text{String: d.Code, Valid: true},
				DiscountType:  pgtype.Text{String: string(d.Kind), Valid: true},
				DiscountValue: pgtype.Int8{Int64: d.Value, Valid: true},
			})
		})
}

// RemoveBookingVoucher clears the whole-booking voucher and recalculates.
func (s *Service) RemoveBookingVoucher(ctx context.Context, bookingID, actorID string) (Result, error) {
	return s.run(ctx, bookingID, actorID, "booking voucher removed", events.TopicVoucherRemoved,
		func(ctx context.Context, qtx *store.Queries, b store.Booking) error {
			return qtx.UpdateBookingVoucher(ctx, store.UpdateBookingVoucherParams{ID: b.ID})
		})
}

// AddAdditionalCostInput carries a staff-added cost line.
type AddAdditionalCostInput struct {
	Label      string
	Quantity   int32
	UnitPrice  int64
	TaxRateBps *int32
}

// AddAdditionalCost appends a cost line and recalculates. Additional costs are
// never touched by vouchers.
func (s *Service) AddAdditionalCost(ctx context.Context, bookingID string, in AddAdditionalCostInput, actorID string) (Result, error) {
	return s.run(ctx, bookingID, actorID, "additional cost added", events.TopicBookingLineAdded,
		func(ctx context.Context, qtx *store.Queries, b store.Booking) error {
			if strings.TrimSpace(in.Label) == "" {
				return badRequest("label is required")
			}
			if in.Quantity <= 0 {
				return badRequest("quantity must be positive")
			}
			rate := s.Taxes.DefaultBps
			if in.TaxRateBps != nil {
				rate = *in.TaxRateBps
			}
			line := int64(in.Quantity) * in.UnitPrice
			_, err := qtx.InsertAdditionalCost(ctx, store.InsertAdditionalCostParams{
				BookingID:  b.ID,
				Label:      strings.TrimSpace(in.Label),
				Quantity:   in.Quantity,
				UnitPrice:  in.UnitPrice,
				TaxRateBps: rate,
				TaxAmount:  tax.Amount(line, rate),
			})
			return err
		})
}

// RemoveAdditionalCost deletes a cost line and recalculates.
func (s *Service) RemoveAdditionalCost(ctx context.Context, bookingID, costID, actorID string) (Result, error) {
	return s.run(ctx, bookingID, actorID, "additional cost removed", events.TopicBookingLineRemoved,
		func(ctx context.Context, qtx *store.Queries, b store.Booking) error {
			id, err := toUUID(costID)
			if err != nil {
				return fmt.Errorf("%w: invalid cost id", ErrNotFound)
			}
			c, err := qtx.GetAdditionalCost(ctx, id)
			if err != nil || c.BookingID.Bytes != b.ID.Bytes {
				return fmt.Errorf("%w: additional cost", ErrNotFound)
			}
			return qtx.DeleteAdditionalCost(ctx, id)
		})
}

// SetTaxInvoice persists the tax invoice flag and an audit row, nothing more.
// Stored money columns keep their values until the next explicit
// recalculation; presented tax follows the flag immediately because the
// pricing read re-runs the tax resolver against it.
func (s *Service) SetTaxInvoice(ctx context.Context, bookingID string, required bool, actorID string) (Result, error) {
	reason := "tax invoice disabled"
	if required {
		reason = "tax invoice enabled"
	}
	id, err := toUUID(bookingID)
	if err != nil {
		return Result{}, fmt.Errorf("%w: invalid id", ErrNotFound)
	}
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Result{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	qtx := s.Q.WithTx(tx)

	b, err := qtx.GetBookingForUpdate(ctx, id)
	if err != nil {
		if store.IsNoRows(err) {
			return Result{}, ErrNotFound
		}
		return Result{}, err
	}
	if err := qtx.UpdateBookingTaxInvoice(ctx, b.ID, required); err != nil {
		return Result{}, err
	}
	if actorID == "" {
		actorID = "system"
	}
	err = qtx.InsertStatusHistory(ctx, store.InsertStatusHistoryParams{
		BookingID:         b.ID,
		ActorID:           actorID,
		FromStatus:        b.Status,
		ToStatus:          b.Status,
		FromPaymentStatus: string(b.PaymentStatus),
		ToPaymentStatus:   string(b.PaymentStatus),
		Description:       reason,
	})
	if err != nil {
		return Result{}, err
	}
	updated, err := qtx.GetBooking(ctx, id)
	if err != nil {
		return Result{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Result{}, err
	}
	return Result{Booking: updated, OldTotal: b.TotalAmount, NewTotal: updated.TotalAmount, Delta: 0}, nil
}

// run is the transactional core shared by every mutation: lock the booking,
// apply the mutation, re-derive every money column, audit, commit, then emit.
func (s *Service) run(ctx context.Context, bookingID, actorID, reason, extraTopic string, mutate func(context.Context, *store.Queries, store.Booking) error) (Result, error) {
	started := time.Now()
	res, err := s.runTx(ctx, bookingID, actorID, reason, mutate)
	s.observe(started, err)
	if err != nil {
		return Result{}, err
	}
	s.emit(ctx, res, extraTopic)
	return res, nil
}

func (s *Service) runTx(ctx context.Context, bookingID, actorID, reason string, mutate func(context.Context, *store.Queries, store.Booking) error) (Result, error) {
	id, err := toUUID(bookingID)
	if err != nil {
		return Result{}, fmt.Errorf("%w: invalid id", ErrNotFound)
	}
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Result{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	qtx := s.Q.WithTx(tx)

	b, err := qtx.GetBookingForUpdate(ctx, id)
	if err != nil {
		if store.IsNoRows(err) {
			return Result{}, ErrNotFound
		}
		return Result{}, err
	}
	if mutate != nil {
		if err := mutate(ctx, qtx, b); err != nil {
			return Result{}, err
		}
		// the mutation may have touched voucher fields or the tax flag
		if b, err = qtx.GetBooking(ctx, id); err != nil {
			return Result{}, err
		}
	}

	res, err := s.recalcLocked(ctx, qtx, b, actorID, reason)
	if err != nil {
		return Result{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Result{}, err
	}
	return res, nil
}

// recalcLocked re-derives the money columns of an already locked booking.
func (s *Service) recalcLocked(ctx context.Context, qtx *store.Queries, b store.Booking, actorID, reason string) (Result, error) {
	tents, products, costs, err := s.loadLines(ctx, qtx, b.ID)
	if err != nil {
		return Result{}, err
	}
	totals := ComputeTotals(b, s.Taxes, tents, products, costs)
	summary := pricing.ComputeSummary(totals.Subtotal, totals.Tax, totals.Discount, s.DepositPercent)

	oldTotal := b.TotalAmount
	delta := summary.Total - oldTotal
	balance := ApplyDelta(b.PaymentStatus, b.BalanceDue, delta)

	updated, err := qtx.UpdateBookingMoney(ctx, store.UpdateBookingMoneyParams{
		ID:             b.ID,
		SubtotalAmount: summary.Subtotal,
		TaxAmount:      summary.Tax,
		DiscountAmount: summary.Discount,
		DepositDue:     summary.Deposit,
		BalanceDue:     balance,
	})
	if err != nil {
		return Result{}, err
	}
	if actorID == "" {
		actorID = "system"
	}
	err = qtx.InsertStatusHistory(ctx, store.InsertStatusHistoryParams{
		BookingID:         b.ID,
		ActorID:           actorID,
		FromStatus:        b.Status,
		ToStatus:          updated.Status,
		FromPaymentStatus: string(b.PaymentStatus),
		ToPaymentStatus:   string(updated.PaymentStatus),
		Description:       fmt.Sprintf("%s (total %+d)", reason, delta),
	})
	if err != nil {
		return Result{}, err
	}
	return Result{Booking: updated, OldTotal: oldTotal, NewTotal: updated.TotalAmount, Delta: delta}, nil
}

func (s *Service) loadLines(ctx context.Context, qtx *store.Queries, bookingID pgtype.UUID) ([]TentLine, []ProductLine, []store.AdditionalCost, error) {
	tents, err := qtx.ListTentsByBooking(ctx, bookingID)
	if err != nil {
		return nil, nil, nil, err
	}
	items, err := qtx.ListBookingItemsByBooking(ctx, bookingID)
	if err != nil {
		return nil, nil, nil, err
	}
	rawProducts, err := qtx.ListMenuProductsByBooking(ctx, bookingID)
	if err != nil {
		return nil, nil, nil, err
	}
	costs, err := qtx.ListAdditionalCostsByBooking(ctx, bookingID)
	if err != nil {
		return nil, nil, nil, err
	}

	cachedItems := map[[16]byte]store.Item{}
	tentLines := make([]TentLine, 0, len(tents))
	for _, tent := range tents {
		item, ok := cachedItems[tent.ItemID.Bytes]
		if !ok {
			var err error
			if item, err = qtx.GetItem(ctx, tent.ItemID); err != nil {
				return nil, nil, nil, err
			}
			cachedItems[tent.ItemID.Bytes] = item
		}
		line := TentLine{Tent: tent, ItemName: item.Name, TaxRate: item.TaxRateBps}
		for _, it := range items {
			if it.TentID.Bytes == tent.ID.Bytes {
				line.Items = append(line.Items, it)
			}
		}
		tentLines = append(tentLines, line)
	}

	menuRates := map[[16]byte]pgtype.Int4{}
	productLines := make([]ProductLine, 0, len(rawProducts))
	for _, p := range rawProducts {
		var rate pgtype.Int4
		if p.MenuItemID.Valid {
			cached, ok := menuRates[p.MenuItemID.Bytes]
			if !ok {
				item, err := qtx.GetMenuItem(ctx, p.MenuItemID)
				if err != nil && !store.IsNoRows(err) {
					return nil, nil, nil, err
				}
				cached = item.TaxRateBps
				menuRates[p.MenuItemID.Bytes] = cached
			}
			rate = cached
		}
		productLines = append(productLines, ProductLine{Product: p, TaxRate: rate})
	}
	return tentLines, productLines, costs, nil
}

func (s *Service) menuLine(ctx context.Context, qtx *store.Queries, b store.Booking, lineID string) (store.BookingMenuProduct, error) {
	id, err := toUUID(lineID)
	if err != nil {
		return store.BookingMenuProduct{}, fmt.Errorf("%w: invalid line id", ErrNotFound)
	}
	p, err := qtx.GetMenuProduct(ctx, id)
	if err != nil {
		if store.IsNoRows(err) {
			return store.BookingMenuProduct{}, fmt.Errorf("%w: menu product", ErrNotFound)
		}
		return store.BookingMenuProduct{}, err
	}
	if p.BookingID.Bytes != b.ID.Bytes {
		return store.BookingMenuProduct{}, fmt.Errorf("%w: menu product", ErrNotFound)
	}
	return p, nil
}

func (s *Service) tentOf(ctx context.Context, qtx *store.Queries, b store.Booking, tentID string) (store.BookingTent, error) {
	id, err := toUUID(tentID)
	if err != nil {
		return store.BookingTent{}, fmt.Errorf("%w: invalid tent id", ErrNotFound)
	}
	tent, err := qtx.GetTent(ctx, id)
	if err != nil {
		if store.IsNoRows(err) {
			return store.BookingTent{}, fmt.Errorf("%w: tent", ErrNotFound)
		}
		return store.BookingTent{}, err
	}
	if tent.BookingID.Bytes != b.ID.Bytes {
		return store.BookingTent{}, fmt.Errorf("%w: tent", ErrNotFound)
	}
	return tent, nil
}

func (s *Service) tentAccommodation(ctx context.Context, qtx *store.Queries, bookingID, tentID pgtype.UUID) (int64, error) {
	items, err := qtx.ListBookingItemsByBooking(ctx, bookingID)
	if err != nil {
		return 0, err
	}
	var sum int64
	for _, it := range items {
		if it.TentID.Bytes == tentID.Bytes {
			sum += it.TotalPrice
		}
	}
	return sum, nil
}

func (s *Service) observe(started time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	if obs.RecalculationTotal != nil {
		obs.RecalculationTotal.WithLabelValues(result).Inc()
	}
	if obs.RecalculationDuration != nil {
		obs.RecalculationDuration.Observe(float64(time.Since(started).Milliseconds()))
	}
}

// emit publishes post-commit events. Failures are logged, never returned: the
// committed state is authoritative.
func (s *Service) emit(ctx context.Context, res Result, extraTopic string) {
	if s.Bus == nil {
		return
	}
	if extraTopic != "" {
		if _, err := s.Bus.Emit(ctx, extraTopic, res.Booking.ID, s.eventPayload(res)); err != nil {
			s.Log.Warn().Err(err).Str("topic", extraTopic).Msg("post-commit event emit failed")
		}
	}
	if res.Delta == 0 {
		return
	}
	if _, err := s.Bus.Emit(ctx, events.TopicBookingPriceChanged, res.Booking.ID, s.eventPayload(res)); err != nil {
		s.Log.Warn().Err(err).Str("topic", events.TopicBookingPriceChanged).Msg("post-commit event emit failed")
	}
}

func (s *Service) eventPayload(res Result) map[string]any {
	payload := map[string]any{
		"bookingReference": res.Booking.Reference,
		"oldTotal":         res.OldTotal,
		"newTotal":         res.NewTotal,
		"priceDifference":  res.Delta,
	}
	if res.Booking.CustomerEmail.Valid {
		payload["customerEmail"] = res.Booking.CustomerEmail.String
	}
	return payload
}

// lineDiscount re-applies a stored line voucher rule against a new base.
func lineDiscount(kind pgtype.Text, value pgtype.Int8, base int64) int64 {
	if !kind.Valid || !value.Valid {
		return 0
	}
	var amount int64
	switch store.DiscountKind(kind.String) {
	case store.DiscountKindPercentage:
		amount = base * value.Int64 / 100
	case store.DiscountKindFixedAmount:
		amount = value.Int64
	}
	if amount < 0 {
		return 0
	}
	if amount > base {
		return base
	}
	return amount
}

func badRequest(message string) error {
	return common.NewAppError(common.CodeBadRequest, message, 400, nil)
}

func toUUID(value string) (pgtype.UUID, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return pgtype.UUID{}, err
	}
	return pgtype.UUID{Bytes: parsed, Valid: true}, nil
}
