package pricing

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/campwise/glamp-api/internal/obs"
	"github.com/campwise/glamp-api/internal/rate"
	"github.com/campwise/glamp-api/internal/store"
)

// Money represents a monetary value stored in minor units.
type Money = int64

// RateResolver yields the effective nightly price for (item, parameter, date).
type RateResolver interface {
	Resolve(ctx context.Context, itemID, parameterID pgtype.UUID, night time.Time) (rate.Resolved, error)
}

// ParameterNight is one parameter's priced contribution to a single night.
type ParameterNight struct {
	ParameterID uuid.UUID         `json:"parameterId"`
	Mode        store.PricingMode `json:"pricingMode"`
	UnitPrice   Money             `json:"unitPrice"`
	Quantity    int               `json:"quantity"`
	LineTotal   Money             `json:"lineTotal"`
}

// Night is the full per-parameter price matrix for one night of a stay.
type Night struct {
	Date       time.Time        `json:"date"`
	Parameters []ParameterNight `json:"parameters"`
	Total      Money            `json:"total"`
}

// Breakdown is the nightly matrix plus the aggregate accommodation cost for
// one tent-stay.
type Breakdown struct {
	ItemID        uuid.UUID `json:"itemId"`
	CheckIn       time.Time `json:"checkIn"`
	CheckOut      time.Time `json:"checkOut"`
	Nights        []Night   `json:"nights"`
	Accommodation Money     `json:"accommodation"`
}

// MissingPricingError reports every parameter that had no resolvable price on
// at least one night. The stay is never priced partially.
type MissingPricingError struct {
	ParameterIDs []uuid.UUID
}

func (e *MissingPricingError) Error() string {
	ids := make([]string, 0, len(e.ParameterIDs))
	for _, id := range e.ParameterIDs {
		ids = append(ids, id.String())
	}
	return "no resolvable price for parameters: " + strings.Join(ids, ", ")
}

func (e *MissingPricingError) Unwrap() error { return rate.ErrMissingRate }

// ConsistencyError signals that the two independent accommodation total
// computations disagree. The nightly sum is authoritative.
type ConsistencyError struct {
	NightlySum Money
	Direct     Money
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("accommodation total mismatch: nightly sum %d, direct %d", e.NightlySum, e.Direct)
}

// NightLine computes one parameter's contribution to a night: per-group
// parameters charge the unit price once regardless of quantity, per-person
// parameters multiply by quantity.
func NightLine(res rate.Resolved, quantity int) Money {
	if quantity <= 0 {
		return 0
	}
	if res.Mode == store.PricingModePerGroup {
		return res.UnitPrice
	}
	return res.UnitPrice * Money(quantity)
}

// CheckTotals cross-checks the two accommodation total paths and returns the
// authoritative nightly-sum value. A mismatch surfaces as a ConsistencyError
// rather than being silently logged away.
func CheckTotals(nightlySum, direct Money) (Money, error) {
	if nightlySum != direct {
		return nightlySum, &ConsistencyError{NightlySum: nightlySum, Direct: direct}
	}
	return nightlySum, nil
}

// Calculator walks a stay night by night and produces the per-night,
// per-parameter price matrix plus the aggregate accommodation cost.
type Calculator struct {
	Rates RateResolver
}

// Quote prices the stay [checkIn, checkOut) for the requested parameter
// quantities. Any parameter without a resolvable price on any night fails the
// whole quote with a MissingPricingError.
func (c *Calculator) Quote(ctx context.Context, itemID uuid.UUID, checkIn, checkOut time.Time, quantities map[uuid.UUID]int) (Breakdown, error) {
	if c == nil || c.Rates == nil {
		return Breakdown{}, errors.New("pricing calculator not configured")
	}
	checkIn = dateOnly(checkIn)
	checkOut = dateOnly(checkOut)
	if !checkOut.After(checkIn) {
		return Breakdown{}, errors.New("check-out must be after check-in")
	}

	params := make([]uuid.UUID, 0, len(quantities))
	for id, qty := range quantities {
		if qty > 0 {
			params = append(params, id)
		}
	}
	if len(params) == 0 {
		return Breakdown{}, errors.New("at least one parameter quantity is required")
	}
	sort.Slice(params, func(i, j int) bool { return params[i].String() < params[j].String() })

	itemPG := toPGUUID(itemID)
	bd := Breakdown{ItemID: itemID, CheckIn: checkIn, CheckOut: checkOut}
	directTotals := make(map[uuid.UUID]Money, len(params))
	missing := make(map[uuid.UUID]struct{})

	for night := checkIn; night.Before(checkOut); night = night.AddDate(0, 0, 1) {
		n := Night{Date: night}
		for _, paramID := range params {
			res, err := c.Rates.Resolve(ctx, itemPG, toPGUUID(paramID), night)
			if err != nil {
				if errors.Is(err, rate.ErrMissingRate) {
					missing[paramID] = struct{}{}
					continue
				}
				return Breakdown{}, err
			}
			qty := quantities[paramID]
			line := NightLine(res, qty)
			n.Parameters = append(n.Parameters, ParameterNight{
				ParameterID: paramID,
				Mode:        res.Mode,
				UnitPrice:   res.UnitPrice,
				Quantity:    qty,
				LineTotal:   line,
			})
			n.Total += line
			directTotals[paramID] += line
		}
		bd.Nights = append(bd.Nights, n)
	}

	if len(missing) > 0 {
		mErr := &MissingPricingError{}
		for _, paramID := range params {
			if _, ok := missing[paramID]; ok {
				mErr.ParameterIDs = append(mErr.ParameterIDs, paramID)
			}
		}
		return Breakdown{}, mErr
	}

	var nightlySum Money
	for _, n := range bd.Nights {
		nightlySum += n.Total
	}
	var direct Money
	for _, total := range directTotals {
		direct += total
	}
	total, err := CheckTotals(nightlySum, direct)
	bd.Accommodation = total
	if err != nil {
		if obs.ConsistencyCheckFailures != nil {
			obs.ConsistencyCheckFailures.Inc()
		}
		return bd, err
	}
	return bd, nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func toPGUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}
