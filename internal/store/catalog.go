package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// GetItem fetches one accommodation item.
func (q *Queries) GetItem(ctx context.Context, id pgtype.UUID) (Item, error) {
	const query = `
SELECT id, zone_id, category_id, name, stock, tax_rate_bps, created_at
FROM items WHERE id = $1`
	var it Item
	err := q.db.QueryRow(ctx, query, id).Scan(
		&it.ID, &it.ZoneID, &it.CategoryID, &it.Name, &it.Stock, &it.TaxRateBps, &it.CreatedAt,
	)
	return it, err
}

// GetParameter fetches one guest-type parameter.
func (q *Queries) GetParameter(ctx context.Context, id pgtype.UUID) (Parameter, error) {
	const query = `
SELECT id, item_id, name, pricing_mode, controls_inventory, sets_pricing, price_range
FROM parameters WHERE id = $1`
	var p Parameter
	err := q.db.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.ItemID, &p.Name, &p.PricingMode, &p.ControlsInventory, &p.SetsPricing, &p.PriceRange,
	)
	return p, err
}

// ListParametersByItem returns the pricing axes configured for an item.
func (q *Queries) ListParametersByItem(ctx context.Context, itemID pgtype.UUID) ([]Parameter, error) {
	const query = `
SELECT id, item_id, name, pricing_mode, controls_inventory, sets_pricing, price_range
FROM parameters WHERE item_id = $1 ORDER BY name`
	rows, err := q.db.Query(ctx, query, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Parameter
	for rows.Next() {
		var p Parameter
		if err := rows.Scan(&p.ID, &p.ItemID, &p.Name, &p.PricingMode, &p.ControlsInventory, &p.SetsPricing, &p.PriceRange); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetBaseRate returns the non-event rate for (item, parameter).
func (q *Queries) GetBaseRate(ctx context.Context, itemID, parameterID pgtype.UUID) (Rate, error) {
	const query = `
SELECT id, item_id, parameter_id, event_id, amount
FROM rates WHERE item_id = $1 AND parameter_id = $2 AND event_id IS NULL`
	var r Rate
	err := q.db.QueryRow(ctx, query, itemID, parameterID).Scan(
		&r.ID, &r.ItemID, &r.ParameterID, &r.EventID, &r.Amount,
	)
	return r, err
}

// GetEventRate returns the event-scoped rate for (event, parameter), if one exists.
func (q *Queries) GetEventRate(ctx context.Context, eventID, parameterID pgtype.UUID) (Rate, error) {
	const query = `
SELECT id, item_id, parameter_id, event_id, amount
FROM rates WHERE event_id = $1 AND parameter_id = $2`
	var r Rate
	err := q.db.QueryRow(ctx, query, eventID, parameterID).Scan(
		&r.ID, &r.ItemID, &r.ParameterID, &r.EventID, &r.Amount,
	)
	return r, err
}

// ListEventsByItem returns every rate event configured for an item. Recurrence
// coverage is evaluated in the resolver, not in SQL.
func (q *Queries) ListEventsByItem(ctx context.Context, itemID pgtype.UUID) ([]RateEvent, error) {
	const query = `
SELECT id, item_id, kind, pricing_type, start_date, end_date, recurrence,
       adjust_percent, adjust_amount, created_at
FROM rate_events WHERE item_id = $1 ORDER BY created_at DESC`
	rows, err := q.db.Query(ctx, query, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []RateEvent
	for rows.Next() {
		var ev RateEvent
		if err := rows.Scan(&ev.ID, &ev.ItemID, &ev.Kind, &ev.PricingType, &ev.StartDate, &ev.EndDate,
			&ev.Recurrence, &ev.AdjustPercent, &ev.AdjustAmount, &ev.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// ListYieldTiers returns a yield event's stock tiers ordered by ascending ceiling.
func (q *Queries) ListYieldTiers(ctx context.Context, eventID pgtype.UUID) ([]YieldTier, error) {
	const query = `
SELECT id, event_id, stock_ceiling, amount
FROM yield_tiers WHERE event_id = $1 ORDER BY stock_ceiling ASC`
	rows, err := q.db.Query(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []YieldTier
	for rows.Next() {
		var t YieldTier
		if err := rows.Scan(&t.ID, &t.EventID, &t.StockCeiling, &t.Amount); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// CountBookedUnits counts tents of active bookings occupying the item on the given night.
func (q *Queries) CountBookedUnits(ctx context.Context, itemID pgtype.UUID, night pgtype.Date) (int64, error) {
	const query = `
SELECT COUNT(*)
FROM booking_tents t
JOIN bookings b ON b.id = t.booking_id
WHERE t.item_id = $1 AND t.check_in <= $2 AND t.check_out > $2 AND b.status <> 'cancelled'`
	var n int64
	err := q.db.QueryRow(ctx, query, itemID, night).Scan(&n)
	return n, err
}

// GetMenuItem fetches one add-on product definition.
func (q *Queries) GetMenuItem(ctx context.Context, id pgtype.UUID) (MenuItem, error) {
	const query = `SELECT id, name, unit_price, tax_rate_bps FROM menu_items WHERE id = $1`
	var m MenuItem
	err := q.db.QueryRow(ctx, query, id).Scan(&m.ID, &m.Name, &m.UnitPrice, &m.TaxRateBps)
	return m, err
}

// IsNoRows reports whether err is the pgx no-rows sentinel.
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
