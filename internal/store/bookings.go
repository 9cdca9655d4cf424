package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const bookingColumns = `id, reference, customer_name, customer_email, status, payment_status,
       tax_invoice_required, voucher_code, discount_type, discount_value,
       subtotal_amount, tax_amount, discount_amount, total_amount,
       deposit_due, balance_due, created_at, updated_at`

func scanBooking(row interface{ Scan(...any) error }) (Booking, error) {
	var b Booking
	err := row.Scan(&b.ID, &b.Reference, &b.CustomerName, &b.CustomerEmail, &b.Status, &b.PaymentStatus,
		&b.TaxInvoiceRequired, &b.VoucherCode, &b.DiscountType, &b.DiscountValue,
		&b.SubtotalAmount, &b.TaxAmount, &b.DiscountAmount, &b.TotalAmount,
		&b.DepositDue, &b.BalanceDue, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

// GetBooking fetches a booking without locking it.
func (q *Queries) GetBooking(ctx context.Context, id pgtype.UUID) (Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	return scanBooking(q.db.QueryRow(ctx, query, id))
}

// GetBookingForUpdate fetches a booking holding a row lock for the duration of
// the surrounding transaction. Concurrent recalculations of the same booking
// serialize on this lock.
func (q *Queries) GetBookingForUpdate(ctx context.Context, id pgtype.UUID) (Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1 FOR UPDATE`
	return scanBooking(q.db.QueryRow(ctx, query, id))
}

// UpdateBookingMoneyParams carries the recomputed monetary fields.
// total_amount is generated by the schema and deliberately absent.
type UpdateBookingMoneyParams struct {
	ID             pgtype.UUID
	SubtotalAmount int64
	TaxAmount      int64
	DiscountAmount int64
	DepositDue     int64
	BalanceDue     int64
}

// UpdateBookingMoney writes the recalculated amounts and returns the booking
// with the freshly generated total.
func (q *Queries) UpdateBookingMoney(ctx context.Context, arg UpdateBookingMoneyParams) (Booking, error) {
	query := `
UPDATE bookings
SET subtotal_amount = $2, tax_amount = $3, discount_amount = $4,
    deposit_due = $5, balance_due = $6, updated_at = now()
WHERE id = $1
RETURNING ` + bookingColumns
	return scanBooking(q.db.QueryRow(ctx, query,
		arg.ID, arg.SubtotalAmount, arg.TaxAmount, arg.DiscountAmount, arg.DepositDue, arg.BalanceDue))
}

// UpdateBookingVoucherParams carries the whole-booking voucher fields.
type UpdateBookingVoucherParams struct {
	ID            pgtype.UUID
	VoucherCode   pgtype.Text
	DiscountType  pgtype.Text
	DiscountValue pgtype.Int8
}

// UpdateBookingVoucher sets or clears the whole-booking voucher attachment.
func (q *Queries) UpdateBookingVoucher(ctx context.Context, arg UpdateBookingVoucherParams) error {
	const query = `
UPDATE bookings
SET voucher_code = $2, discount_type = $3, discount_value = $4, updated_at = now()
WHERE id = $1`
	_, err := q.db.Exec(ctx, query, arg.ID, arg.VoucherCode, arg.DiscountType, arg.DiscountValue)
	return err
}

// UpdateBookingTaxInvoice toggles the tax invoice flag.
func (q *Queries) UpdateBookingTaxInvoice(ctx context.Context, id pgtype.UUID, required bool) error {
	const query = `UPDATE bookings SET tax_invoice_required = $2, updated_at = now() WHERE id = $1`
	_, err := q.db.Exec(ctx, query, id, required)
	return err
}

// GetTent fetches one booking tent.
func (q *Queries) GetTent(ctx context.Context, id pgtype.UUID) (BookingTent, error) {
	const query = `
SELECT id, booking_id, item_id, check_in, check_out,
       voucher_code, discount_type, discount_value, discount_amount
FROM booking_tents WHERE id = $1`
	var t BookingTent
	err := q.db.QueryRow(ctx, query, id).Scan(&t.ID, &t.BookingID, &t.ItemID, &t.CheckIn, &t.CheckOut,
		&t.VoucherCode, &t.DiscountType, &t.DiscountValue, &t.DiscountAmount)
	return t, err
}

// ListTentsByBooking returns all tents of a booking ordered by check-in.
func (q *Queries) ListTentsByBooking(ctx context.Context, bookingID pgtype.UUID) ([]BookingTent, error) {
	const query = `
SELECT id, booking_id, item_id, check_in, check_out,
       voucher_code, discount_type, discount_value, discount_amount
FROM booking_tents WHERE booking_id = $1 ORDER BY check_in, id`
	rows, err := q.db.Query(ctx, query, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []BookingTent
	for rows.Next() {
		var t BookingTent
		if err := rows.Scan(&t.ID, &t.BookingID, &t.ItemID, &t.CheckIn, &t.CheckOut,
			&t.VoucherCode, &t.DiscountType, &t.DiscountValue, &t.DiscountAmount); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// UpdateTentDiscountParams carries a tent's voucher attachment fields.
type UpdateTentDiscountParams struct {
	ID             pgtype.UUID
	VoucherCode    pgtype.Text
	DiscountType   pgtype.Text
	DiscountValue  pgtype.Int8
	DiscountAmount int64
}

// UpdateTentDiscount sets or clears a tent-level voucher discount.
func (q *Queries) UpdateTentDiscount(ctx context.Context, arg UpdateTentDiscountParams) error {
	const query = `
UPDATE booking_tents
SET voucher_code = $2, discount_type = $3, discount_value = $4, discount_amount = $5
WHERE id = $1`
	_, err := q.db.Exec(ctx, query, arg.ID, arg.VoucherCode, arg.DiscountType, arg.DiscountValue, arg.DiscountAmount)
	return err
}

// ListBookingItemsByBooking returns every priced (tent, parameter) line of a booking.
func (q *Queries) ListBookingItemsByBooking(ctx context.Context, bookingID pgtype.UUID) ([]BookingItem, error) {
	const query = `
SELECT i.id, i.tent_id, i.parameter_id, i.pricing_mode, i.quantity, i.unit_price, i.total_price
FROM booking_items i
JOIN booking_tents t ON t.id = i.tent_id
WHERE t.booking_id = $1 ORDER BY i.tent_id, i.parameter_id`
	rows, err := q.db.Query(ctx, query, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []BookingItem
	for rows.Next() {
		var it BookingItem
		if err := rows.Scan(&it.ID, &it.TentID, &it.ParameterID, &it.PricingMode, &it.Quantity, &it.UnitPrice, &it.TotalPrice); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

const menuProductColumns = `id, booking_id, tent_id, menu_item_id, name, serve_date, quantity,
       unit_price, subtotal_override, voucher_code, discount_type, discount_value, discount_amount`

func scanMenuProduct(row interface{ Scan(...any) error }) (BookingMenuProduct, error) {
	var p BookingMenuProduct
	err := row.Scan(&p.ID, &p.BookingID, &p.TentID, &p.MenuItemID, &p.Name, &p.ServeDate, &p.Quantity,
		&p.UnitPrice, &p.SubtotalOverride, &p.VoucherCode, &p.DiscountType, &p.DiscountValue, &p.DiscountAmount)
	return p, err
}

// GetMenuProduct fetches one add-on line.
func (q *Queries) GetMenuProduct(ctx context.Context, id pgtype.UUID) (BookingMenuProduct, error) {
	query := `SELECT ` + menuProductColumns + ` FROM booking_menu_products WHERE id = $1`
	return scanMenuProduct(q.db.QueryRow(ctx, query, id))
}

// ListMenuProductsByBooking returns all add-on lines of a booking.
func (q *Queries) ListMenuProductsByBooking(ctx context.Context, bookingID pgtype.UUID) ([]BookingMenuProduct, error) {
	query := `SELECT ` + menuProductColumns + ` FROM booking_menu_products WHERE booking_id = $1 ORDER BY id`
	rows, err := q.db.Query(ctx, query, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []BookingMenuProduct
	for rows.Next() {
		p, err := scanMenuProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// InsertMenuProductParams carries a new add-on line.
type InsertMenuProductParams struct {
	BookingID  pgtype.UUID
	TentID     pgtype.UUID
	MenuItemID pgtype.UUID
	Name       string
	ServeDate  pgtype.Date
	Quantity   int32
	UnitPrice  int64
}

// InsertMenuProduct adds an add-on line to a booking.
func (q *Queries) InsertMenuProduct(ctx context.Context, arg InsertMenuProductParams) (BookingMenuProduct, error) {
	query := `
INSERT INTO booking_menu_products (booking_id, tent_id, menu_item_id, name, serve_date, quantity, unit_price)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + menuProductColumns
	return scanMenuProduct(q.db.QueryRow(ctx, query,
		arg.BookingID, arg.TentID, arg.MenuItemID, arg.Name, arg.ServeDate, arg.Quantity, arg.UnitPrice))
}

// UpdateMenuProductParams carries the full post-patch state of an add-on line.
type UpdateMenuProductParams struct {
	ID               pgtype.UUID
	ServeDate        pgtype.Date
	Quantity         int32
	UnitPrice        int64
	SubtotalOverride pgtype.Int8
	VoucherCode      pgtype.Text
	DiscountType     pgtype.Text
	DiscountValue    pgtype.Int8
	DiscountAmount   int64
}

// UpdateMenuProduct writes the patched add-on line.
func (q *Queries) UpdateMenuProduct(ctx context.Context, arg UpdateMenuProductParams) (BookingMenuProduct, error) {
	query := `
UPDATE booking_menu_products
SET serve_date = $2, quantity = $3, unit_price = $4, subtotal_override = $5,
    voucher_code = $6, discount_type = $7, discount_value = $8, discount_amount = $9
WHERE id = $1
RETURNING ` + menuProductColumns
	return scanMenuProduct(q.db.QueryRow(ctx, query,
		arg.ID, arg.ServeDate, arg.Quantity, arg.UnitPrice, arg.SubtotalOverride,
		arg.VoucherCode, arg.DiscountType, arg.DiscountValue, arg.DiscountAmount))
}

// DeleteMenuProduct removes an add-on line.
func (q *Queries) DeleteMenuProduct(ctx context.Context, id pgtype.UUID) error {
	_, err := q.db.Exec(ctx, `DELETE FROM booking_menu_products WHERE id = $1`, id)
	return err
}

// ListAdditionalCostsByBooking returns all staff-added cost lines of a booking.
func (q *Queries) ListAdditionalCostsByBooking(ctx context.Context, bookingID pgtype.UUID) ([]AdditionalCost, error) {
	const query = `
SELECT id, booking_id, label, quantity, unit_price, tax_rate_bps, tax_amount
FROM additional_costs WHERE booking_id = $1 ORDER BY id`
	rows, err := q.db.Query(ctx, query, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AdditionalCost
	for rows.Next() {
		var c AdditionalCost
		if err := rows.Scan(&c.ID, &c.BookingID, &c.Label, &c.Quantity, &c.UnitPrice, &c.TaxRateBps, &c.TaxAmount); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetAdditionalCost fetches one staff-added cost line.
func (q *Queries) GetAdditionalCost(ctx context.Context, id pgtype.UUID) (AdditionalCost, error) {
	const query = `
SELECT id, booking_id, label, quantity, unit_price, tax_rate_bps, tax_amount
FROM additional_costs WHERE id = $1`
	var c AdditionalCost
	err := q.db.QueryRow(ctx, query, id).Scan(&c.ID, &c.BookingID, &c.Label, &c.Quantity, &c.UnitPrice, &c.TaxRateBps, &c.TaxAmount)
	return c, err
}

// InsertAdditionalCostParams carries a new staff-added cost line.
type InsertAdditionalCostParams struct {
	BookingID  pgtype.UUID
	Label      string
	Quantity   int32
	UnitPrice  int64
	TaxRateBps int32
	TaxAmount  int64
}

// InsertAdditionalCost adds a cost line to a booking.
func (q *Queries) InsertAdditionalCost(ctx context.Context, arg InsertAdditionalCostParams) (AdditionalCost, error) {
	const query = `
INSERT INTO additional_costs (booking_id, label, quantity, unit_price, tax_rate_bps, tax_amount)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, booking_id, label, quantity, unit_price, tax_rate_bps, tax_amount`
	var c AdditionalCost
	err := q.db.QueryRow(ctx, query,
		arg.BookingID, arg.Label, arg.Quantity, arg.UnitPrice, arg.TaxRateBps, arg.TaxAmount,
	).Scan(&c.ID, &c.BookingID, &c.Label, &c.Quantity, &c.UnitPrice, &c.TaxRateBps, &c.TaxAmount)
	return c, err
}

// DeleteAdditionalCost removes a staff-added cost line.
func (q *Queries) DeleteAdditionalCost(ctx context.Context, id pgtype.UUID) error {
	_, err := q.db.Exec(ctx, `DELETE FROM additional_costs WHERE id = $1`, id)
	return err
}

// InsertStatusHistoryParams carries one audit row.
type InsertStatusHistoryParams struct {
	BookingID         pgtype.UUID
	ActorID           string
	FromStatus        string
	ToStatus          string
	FromPaymentStatus string
	ToPaymentStatus   string
	Description       string
}

// InsertStatusHistory appends an immutable audit row.
func (q *Queries) InsertStatusHistory(ctx context.Context, arg InsertStatusHistoryParams) error {
	const query = `
INSERT INTO booking_status_history
  (booking_id, actor_id, from_status, to_status, from_payment_status, to_payment_status, description)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := q.db.Exec(ctx, query,
		arg.BookingID, arg.ActorID, arg.FromStatus, arg.ToStatus,
		arg.FromPaymentStatus, arg.ToPaymentStatus, arg.Description)
	return err
}

// ListStatusHistoryByBooking returns the audit trail, newest first.
func (q *Queries) ListStatusHistoryByBooking(ctx context.Context, bookingID pgtype.UUID) ([]StatusHistory, error) {
	const query = `
SELECT id, booking_id, actor_id, from_status, to_status, from_payment_status, to_payment_status,
       description, created_at
FROM booking_status_history WHERE booking_id = $1 ORDER BY created_at DESC, id DESC`
	rows, err := q.db.Query(ctx, query, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []StatusHistory
	for rows.Next() {
		var h StatusHistory
		if err := rows.Scan(&h.ID, &h.BookingID, &h.ActorID, &h.FromStatus, &h.ToStatus,
			&h.FromPaymentStatus, &h.ToPaymentStatus, &h.Description, &h.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// InsertDomainEventParams carries a persisted post-commit event.
type InsertDomainEventParams struct {
	Topic       string
	AggregateID pgtype.UUID
	Payload     []byte
}

// InsertDomainEvent persists an emitted event.
func (q *Queries) InsertDomainEvent(ctx context.Context, arg InsertDomainEventParams) (DomainEvent, error) {
	const query = `
INSERT INTO domain_events (topic, aggregate_id, payload)
VALUES ($1, $2, $3)
RETURNING id, topic, aggregate_id, payload, occurred_at`
	var ev DomainEvent
	err := q.db.QueryRow(ctx, query, arg.Topic, arg.AggregateID, arg.Payload).Scan(
		&ev.ID, &ev.Topic, &ev.AggregateID, &ev.Payload, &ev.OccurredAt)
	return ev, err
}
