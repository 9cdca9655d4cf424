package tax

import (
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
)

func TestLineUsesDefaultRate(t *testing.T) {
	r := New(0)
	if got := r.Line(true, 3_000_000, pgtype.Int4{}); got != 300_000 {
		t.Fatalf("expected 10%% default tax 300000, got %d", got)
	}
}

func TestLineItemRateWins(t *testing.T) {
	r := New(1000)
	if got := r.Line(true, 1_000_000, pgtype.Int4{Int32: 500, Valid: true}); got != 50_000 {
		t.Fatalf("expected item rate 5%% to win, got %d", got)
	}
}

func TestLineZeroWithoutInvoice(t *testing.T) {
	r := New(1000)
	if got := r.Line(false, 1_000_000, pgtype.Int4{Int32: 2000, Valid: true}); got != 0 {
		t.Fatalf("expected zero tax without invoice flag, got %d", got)
	}
}

func TestAmountTruncates(t *testing.T) {
	if got := Amount(999, 1000); got != 99 {
		t.Fatalf("expected truncation toward zero, got %d", got)
	}
	if got := Amount(-10, 1000); got != 0 {
		t.Fatalf("negative base must yield zero, got %d", got)
	}
}
