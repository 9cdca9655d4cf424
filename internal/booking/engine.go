package booking

import (
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/campwise/glamp-api/internal/store"
	"github.com/campwise/glamp-api/internal/tax"
)

// TentLine bundles a tent with its priced parameter lines and the tax rate of
// the underlying item.
type TentLine struct {
	Tent     store.BookingTent
	Items    []store.BookingItem
	ItemName string
	TaxRate  pgtype.Int4
}

// Accommodation sums the tent's parameter lines before any discount.
func (t TentLine) Accommodation() int64 {
	var sum int64
	for _, it := range t.Items {
		sum += it.TotalPrice
	}
	return sum
}

// ProductLine bundles an add-on line with the tax rate of its menu item.
type ProductLine struct {
	Product store.BookingMenuProduct
	TaxRate pgtype.Int4
}

// Totals is the recomputed money state of a booking. Subtotal already nets out
// line-level discounts; Discount carries only the whole-booking voucher.
type Totals struct {
	Accommodation   int64
	LineDiscounts   int64
	Menu            int64
	AdditionalCosts int64
	Subtotal        int64
	Tax             int64
	Discount        int64
}

// ComputeTotals re-derives every stored money column from the booking's lines.
// Line discounts (tent and product vouchers) net into the subtotal; the
// whole-booking voucher lands in Discount so that
// total = subtotal + tax - discount holds against the generated column.
func ComputeTotals(b store.Booking, taxes tax.Resolver, tents []TentLine, products []ProductLine, costs []store.AdditionalCost) Totals {
	var t Totals
	invoice := b.TaxInvoiceRequired

	var tentDiscounts int64
	for _, tent := range tents {
		accom := tent.Accommodation()
		discount := clampDiscount(tent.Tent.DiscountAmount, accom)
		t.Accommodation += accom
		tentDiscounts += discount
		t.Tax += taxes.Line(invoice, accom-discount, tent.TaxRate)
	}
	var menuDiscounts int64
	for _, p := range products {
		line := p.Product.LineTotal()
		discount := clampDiscount(p.Product.DiscountAmount, line)
		t.Menu += line
		menuDiscounts += discount
		t.Tax += taxes.Line(invoice, line-discount, p.TaxRate)
	}
	for _, c := range costs {
		line := c.LineTotal()
		t.AdditionalCosts += line
		t.Tax += taxes.Line(invoice, line, pgtype.Int4{Int32: c.TaxRateBps, Valid: true})
	}

	t.LineDiscounts = tentDiscounts + menuDiscounts
	t.Subtotal = t.Accommodation + t.Menu + t.AdditionalCosts - t.LineDiscounts
	t.Discount = bookingDiscount(b, t.Subtotal, t.Tax)
	return t
}

// bookingDiscount re-derives the whole-booking voucher amount from the stored
// rule, clamped so the generated total never goes negative.
func bookingDiscount(b store.Booking, subtotal, taxAmount int64) int64 {
	if !b.VoucherCode.Valid || !b.DiscountType.Valid || !b.DiscountValue.Valid {
		return 0
	}
	var amount int64
	switch store.DiscountKind(b.DiscountType.String) {
	case store.DiscountKindPercentage:
		amount = subtotal * b.DiscountValue.Int64 / 100
	case store.DiscountKindFixedAmount:
		amount = b.DiscountValue.Int64
	}
	return clampDiscount(amount, subtotal+taxAmount)
}

func clampDiscount(amount, base int64) int64 {
	if amount < 0 {
		return 0
	}
	if amount > base {
		return base
	}
	return amount
}

// ApplyDelta maps a total change onto the outstanding balance. A paid-up
// booking owes exactly the increase; a deposit-paid booking accumulates it;
// an unpaid booking's balance is settled at payment time and stays untouched.
// Decreases always reduce the balance, floored at zero.
func ApplyDelta(status store.PaymentStatus, balance, delta int64) int64 {
	switch {
	case delta == 0:
		return balance
	case delta > 0:
		switch status {
		case store.PaymentStatusFullyPaid:
			return delta
		case store.PaymentStatusDepositPaid:
			return balance + delta
		default:
			return balance
		}
	default:
		next := balance + delta
		if next < 0 {
			return 0
		}
		return next
	}
}

// MenuEditAllowed reports whether add-on lines may be changed in the booking's
// current payment state.
func MenuEditAllowed(status store.PaymentStatus) bool {
	return status == store.PaymentStatusDepositPaid || status == store.PaymentStatusFullyPaid
}
