package tax

import "github.com/jackc/pgx/v5/pgtype"

// DefaultRateBps is the platform tax rate, 10% expressed in basis points,
// applied whenever a line carries no rate of its own.
const DefaultRateBps = 1000

// Resolver derives tax amounts per line. It holds no state beyond the
// configured default rate, so callers re-run it freely at presentation time.
type Resolver struct {
	DefaultBps int32
}

// New returns a resolver with the given default rate, falling back to the
// platform default when zero or negative.
func New(defaultBps int32) Resolver {
	if defaultBps <= 0 {
		defaultBps = DefaultRateBps
	}
	return Resolver{DefaultBps: defaultBps}
}

// RateFor picks the line's own rate when set, the default otherwise.
func (r Resolver) RateFor(lineRate pgtype.Int4) int32 {
	if lineRate.Valid {
		return lineRate.Int32
	}
	return r.DefaultBps
}

// Line computes the tax for one line. When the booking does not require a tax
// invoice every line is zero, regardless of configured rates.
func (r Resolver) Line(invoiceRequired bool, base int64, lineRate pgtype.Int4) int64 {
	if !invoiceRequired || base <= 0 {
		return 0
	}
	return Amount(base, r.RateFor(lineRate))
}

// Amount applies a basis-point rate to a base, truncating toward zero.
func Amount(base int64, rateBps int32) int64 {
	if base <= 0 || rateBps <= 0 {
		return 0
	}
	return base * int64(rateBps) / 10000
}
