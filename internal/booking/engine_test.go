package booking

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/campwise/glamp-api/internal/store"
	"github.com/campwise/glamp-api/internal/tax"
)

func pgid() pgtype.UUID {
	return pgtype.UUID{Bytes: uuid.New(), Valid: true}
}

// Two adults at 500,000 a night for three nights: 3,000,000 accommodation.
func threeNightTent(discount int64) TentLine {
	tentID := pgid()
	return TentLine{
		Tent: store.BookingTent{
			ID:             tentID,
			DiscountAmount: discount,
		},
		Items: []store.BookingItem{
			{TentID: tentID, PricingMode: store.PricingModePerPerson, Quantity: 2, UnitPrice: 500_000, TotalPrice: 3_000_000},
		},
	}
}

func TestComputeTotalsAccommodationOnly(t *testing.T) {
	b := store.Booking{}
	totals := ComputeTotals(b, tax.New(0), []TentLine{threeNightTent(0)}, nil, nil)
	if totals.Accommodation != 3_000_000 {
		t.Fatalf("expected 3000000 accommodation, got %d", totals.Accommodation)
	}
	if totals.Subtotal != 3_000_000 || totals.Tax != 0 || totals.Discount != 0 {
		t.Fatalf("unexpected totals: %+v", totals)
	}
}

func TestComputeTotalsTentDiscountNetsIntoSubtotal(t *testing.T) {
	b := store.Booking{}
	totals := ComputeTotals(b, tax.New(0), []TentLine{threeNightTent(300_000)}, nil, nil)
	if totals.Subtotal != 2_700_000 {
		t.Fatalf("expected subtotal 2700000 after 300000 tent discount, got %d", totals.Subtotal)
	}
	if totals.LineDiscounts != 300_000 {
		t.Fatalf("expected line discounts 300000, got %d", totals.LineDiscounts)
	}
	// whole-booking discount column stays empty for line-level vouchers
	if totals.Discount != 0 {
		t.Fatalf("tent discount must not leak into booking discount, got %d", totals.Discount)
	}
}

func TestComputeTotalsPerGroupLineChargedOnce(t *testing.T) {
	tentID := pgid()
	tent := TentLine{
		Tent: store.BookingTent{ID: tentID},
		Items: []store.BookingItem{
			// per_group 100,000 a night for four nights, regardless of party size
			{TentID: tentID, PricingMode: store.PricingModePerGroup, Quantity: 5, UnitPrice: 100_000, TotalPrice: 400_000},
		},
	}
	totals := ComputeTotals(store.Booking{}, tax.New(0), []TentLine{tent}, nil, nil)
	if totals.Accommodation != 400_000 {
		t.Fatalf("expected per_group total 400000, got %d", totals.Accommodation)
	}
}

func TestComputeTotalsMenuOverrideWins(t *testing.T) {
	products := []ProductLine{{
		Product: store.BookingMenuProduct{
			Quantity:         3,
			UnitPrice:        90_000,
			SubtotalOverride: pgtype.Int8{Int64: 200_000, Valid: true},
		},
	}}
	totals := ComputeTotals(store.Booking{}, tax.New(0), nil, products, nil)
	if totals.Menu != 200_000 {
		t.Fatalf("expected override 200000 to beat 270000, got %d", totals.Menu)
	}
}

func TestComputeTotalsTaxOnlyWithInvoice(t *testing.T) {
	tents := []TentLine{threeNightTent(0)}
	costs := []store.AdditionalCost{{Quantity: 1, UnitPrice: 100_000, TaxRateBps: 1000}}

	noInvoice := ComputeTotals(store.Booking{TaxInvoiceRequired: false}, tax.New(0), tents, nil, costs)
	if noInvoice.Tax != 0 {
		t.Fatalf("expected zero tax without invoice, got %d", noInvoice.Tax)
	}

	withInvoice := ComputeTotals(store.Booking{TaxInvoiceRequired: true}, tax.New(0), tents, nil, costs)
	// 10% default on 3,000,000 plus 10% on the 100,000 cost line
	if withInvoice.Tax != 310_000 {
		t.Fatalf("expected 310000 tax, got %d", withInvoice.Tax)
	}
}

func TestComputeTotalsWholeBookingVoucher(t *testing.T) {
	b := store.Booking{
		VoucherCode:   pgtype.Text{String: "SUMMER10", Valid: true},
		DiscountType:  pgtype.Text{String: string(store.DiscountKindPercentage), Valid: true},
		DiscountValue: pgtype.Int8{Int64: 10, Valid: true},
	}
	totals := ComputeTotals(b, tax.New(0), []TentLine{threeNightTent(0)}, nil, nil)
	if totals.Discount != 300_000 {
		t.Fatalf("expected 10%% booking discount 300000, got %d", totals.Discount)
	}
}

func TestComputeTotalsFixedVoucherClamped(t *testing.T) {
	b := store.Booking{
		VoucherCode:   pgtype.Text{String: "BIG", Valid: true},
		DiscountType:  pgtype.Text{String: string(store.DiscountKindFixedAmount), Valid: true},
		DiscountValue: pgtype.Int8{Int64: 99_000_000, Valid: true},
	}
	totals := ComputeTotals(b, tax.New(0), []TentLine{threeNightTent(0)}, nil, nil)
	if totals.Discount != totals.Subtotal+totals.Tax {
		t.Fatalf("expected discount clamped to %d, got %d", totals.Subtotal+totals.Tax, totals.Discount)
	}
}

func TestComputeTotalsIdempotent(t *testing.T) {
	b := store.Booking{TaxInvoiceRequired: true}
	tents := []TentLine{threeNightTent(150_000)}
	products := []ProductLine{{Product: store.BookingMenuProduct{Quantity: 2, UnitPrice: 75_000}}}

	first := ComputeTotals(b, tax.New(0), tents, products, nil)
	second := ComputeTotals(b, tax.New(0), tents, products, nil)
	if first != second {
		t.Fatalf("recomputation must be stable: %+v vs %+v", first, second)
	}
}

func TestApplyDeltaFullyPaidIncrease(t *testing.T) {
	if got := ApplyDelta(store.PaymentStatusFullyPaid, 0, 300_000); got != 300_000 {
		t.Fatalf("fully paid booking must owe exactly the increase, got %d", got)
	}
}

func TestApplyDeltaDepositPaidAccumulates(t *testing.T) {
	if got := ApplyDelta(store.PaymentStatusDepositPaid, 700_000, 300_000); got != 1_000_000 {
		t.Fatalf("expected 1000000, got %d", got)
	}
}

func TestApplyDeltaUnpaidIncreaseUntouched(t *testing.T) {
	if got := ApplyDelta(store.PaymentStatusUnpaid, 500_000, 300_000); got != 500_000 {
		t.Fatalf("unpaid balance must not move on increase, got %d", got)
	}
}

func TestApplyDeltaDecreaseFlooredAtZero(t *testing.T) {
	if got := ApplyDelta(store.PaymentStatusDepositPaid, 100_000, -300_000); got != 0 {
		t.Fatalf("balance must floor at zero, got %d", got)
	}
	if got := ApplyDelta(store.PaymentStatusFullyPaid, 500_000, -200_000); got != 300_000 {
		t.Fatalf("expected 300000 after decrease, got %d", got)
	}
}

func TestMenuEditAllowed(t *testing.T) {
	if MenuEditAllowed(store.PaymentStatusUnpaid) {
		t.Fatal("unpaid bookings must not allow menu edits")
	}
	if !MenuEditAllowed(store.PaymentStatusDepositPaid) || !MenuEditAllowed(store.PaymentStatusFullyPaid) {
		t.Fatal("paid bookings must allow menu edits")
	}
}
