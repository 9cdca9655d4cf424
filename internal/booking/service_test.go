package booking

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/campwise/glamp-api/internal/store"
	"github.com/campwise/glamp-api/internal/voucher"
)

func lunchLine() store.BookingMenuProduct {
	return store.BookingMenuProduct{
		ID:        pgid(),
		Name:      "BBQ Dinner Set",
		Quantity:  2,
		UnitPrice: 150_000,
	}
}

func TestApplyMenuPatchRecomputesVoucherAmount(t *testing.T) {
	p := lunchLine()
	p.VoucherCode = pgtype.Text{String: "DINE10", Valid: true}
	p.DiscountType = pgtype.Text{String: string(store.DiscountKindPercentage), Valid: true}
	p.DiscountValue = pgtype.Int8{Int64: 10, Valid: true}
	p.DiscountAmount = 30_000

	qty := int32(4)
	p = applyMenuPatch(p, MenuProductPatch{Quantity: &qty})

	if p.Quantity != 4 {
		t.Fatalf("expected quantity 4, got %d", p.Quantity)
	}
	if p.DiscountAmount != 60_000 {
		t.Fatalf("expected voucher amount to follow the new line total, got %d", p.DiscountAmount)
	}
	if !p.VoucherCode.Valid || p.VoucherCode.String != "DINE10" {
		t.Fatalf("voucher rule must survive a quantity patch, got %+v", p.VoucherCode)
	}
}

func TestApplyMenuPatchClearVoucher(t *testing.T) {
	p := lunchLine()
	p.VoucherCode = pgtype.Text{String: "DINE10", Valid: true}
	p.DiscountType = pgtype.Text{String: string(store.DiscountKindPercentage), Valid: true}
	p.DiscountValue = pgtype.Int8{Int64: 10, Valid: true}
	p.DiscountAmount = 30_000

	p = applyMenuPatch(p, MenuProductPatch{ClearVoucher: true})

	if p.VoucherCode.Valid || p.DiscountType.Valid || p.DiscountValue.Valid {
		t.Fatalf("expected voucher rule cleared, got %+v %+v %+v", p.VoucherCode, p.DiscountType, p.DiscountValue)
	}
	if p.DiscountAmount != 0 {
		t.Fatalf("expected zero discount after clear, got %d", p.DiscountAmount)
	}
}

func TestApplyMenuPatchOverrideDrivesDiscountBase(t *testing.T) {
	p := lunchLine()
	p.DiscountType = pgtype.Text{String: string(store.DiscountKindPercentage), Valid: true}
	p.DiscountValue = pgtype.Int8{Int64: 10, Valid: true}

	override := int64(100_000)
	p = applyMenuPatch(p, MenuProductPatch{SubtotalOverride: &override})

	if p.DiscountAmount != 10_000 {
		t.Fatalf("expected discount off the overridden subtotal, got %d", p.DiscountAmount)
	}

	p = applyMenuPatch(p, MenuProductPatch{ClearOverride: true})
	if p.DiscountAmount != 30_000 {
		t.Fatalf("expected discount back on quantity x unit price, got %d", p.DiscountAmount)
	}
}

func TestApplyMenuPatchServeDate(t *testing.T) {
	p := lunchLine()
	day := time.Date(2026, 7, 14, 0, 0, 0, 0, time.UTC)
	p = applyMenuPatch(p, MenuProductPatch{ServeDate: &day})
	if !p.ServeDate.Valid || !p.ServeDate.Time.Equal(day) {
		t.Fatalf("expected serve date set, got %+v", p.ServeDate)
	}
}

func TestAttachMenuVoucher(t *testing.T) {
	p := lunchLine()
	p = attachMenuVoucher(p, voucher.Discount{
		Code:   "DINE10",
		Kind:   store.DiscountKindPercentage,
		Value:  10,
		Amount: 30_000,
	})

	if !p.VoucherCode.Valid || p.VoucherCode.String != "DINE10" {
		t.Fatalf("expected voucher code stored, got %+v", p.VoucherCode)
	}
	if p.DiscountType.String != string(store.DiscountKindPercentage) || p.DiscountValue.Int64 != 10 {
		t.Fatalf("expected rule stored alongside the amount, got %s/%d", p.DiscountType.String, p.DiscountValue.Int64)
	}
	if p.DiscountAmount != 30_000 {
		t.Fatalf("expected evaluated amount stored, got %d", p.DiscountAmount)
	}
}
