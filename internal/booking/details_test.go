package booking

import (
	"testing"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/campwise/glamp-api/internal/store"
	"github.com/campwise/glamp-api/internal/tax"
)

func TestBuildDetailsPresentedTaxRecomputed(t *testing.T) {
	// stored tax is stale (written before the invoice flag flipped on)
	b := store.Booking{
		Reference:          "GLP-1001",
		TaxInvoiceRequired: true,
		TaxAmount:          0,
	}
	details := BuildDetails(b, tax.New(0), []TentLine{threeNightTent(0)}, nil, nil)
	if details.Totals.StoredTax != 0 {
		t.Fatalf("stored tax must mirror the column, got %d", details.Totals.StoredTax)
	}
	if details.Totals.PresentedTax != 300_000 {
		t.Fatalf("presented tax must be freshly resolved, got %d", details.Totals.PresentedTax)
	}
}

// Flipping the invoice flag moves presented tax only; every stored money
// column passes through unchanged until the next explicit recalculation.
func TestBuildDetailsTaxToggleLeavesStoredMoneyAlone(t *testing.T) {
	b := store.Booking{
		Reference:      "GLP-1002",
		SubtotalAmount: 3_000_000,
		TaxAmount:      0,
		DiscountAmount: 0,
		DepositDue:     900_000,
		BalanceDue:     2_100_000,
	}
	off := BuildDetails(b, tax.New(0), []TentLine{threeNightTent(0)}, nil, nil)

	b.TaxInvoiceRequired = true
	on := BuildDetails(b, tax.New(0), []TentLine{threeNightTent(0)}, nil, nil)

	if off.Totals.PresentedTax != 0 || on.Totals.PresentedTax != 300_000 {
		t.Fatalf("expected presented tax 0 -> 300000, got %d -> %d", off.Totals.PresentedTax, on.Totals.PresentedTax)
	}
	if on.Totals.StoredTax != off.Totals.StoredTax {
		t.Fatalf("stored tax must not move on toggle: %d vs %d", off.Totals.StoredTax, on.Totals.StoredTax)
	}
	if on.Totals.Subtotal != off.Totals.Subtotal ||
		on.Totals.DepositDue != off.Totals.DepositDue ||
		on.Totals.BalanceDue != off.Totals.BalanceDue {
		t.Fatalf("stored money must not move on toggle: %+v vs %+v", off.Totals, on.Totals)
	}
}

func TestBuildDetailsTentBreakdown(t *testing.T) {
	tent := threeNightTent(300_000)
	tent.ItemName = "Lakeside Dome"
	details := BuildDetails(store.Booking{}, tax.New(0), []TentLine{tent}, nil, nil)

	if len(details.Tents) != 1 {
		t.Fatalf("expected one tent, got %d", len(details.Tents))
	}
	td := details.Tents[0]
	if td.ItemName != "Lakeside Dome" || td.Subtotal != 3_000_000 || td.Discount != 300_000 || td.Total != 2_700_000 {
		t.Fatalf("unexpected tent detail: %+v", td)
	}
	if details.Totals.SubtotalBeforeDiscounts != 3_000_000 || details.Totals.Subtotal != 2_700_000 {
		t.Fatalf("unexpected totals: %+v", details.Totals)
	}
}

func TestBuildDetailsProductOverrideFlagged(t *testing.T) {
	products := []ProductLine{{
		Product: store.BookingMenuProduct{
			Name:             "BBQ dinner",
			Quantity:         2,
			UnitPrice:        150_000,
			SubtotalOverride: pgtype.Int8{Int64: 250_000, Valid: true},
		},
	}}
	details := BuildDetails(store.Booking{}, tax.New(0), nil, products, nil)
	p := details.MenuProducts[0]
	if !p.Overridden || p.LineTotal != 250_000 {
		t.Fatalf("expected flagged override at 250000, got %+v", p)
	}
}
