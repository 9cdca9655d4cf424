package rate

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/campwise/glamp-api/internal/store"
)

// Querier captures the database reads required to resolve a rate.
type Querier interface {
	GetItem(ctx context.Context, id pgtype.UUID) (store.Item, error)
	GetParameter(ctx context.Context, id pgtype.UUID) (store.Parameter, error)
	GetBaseRate(ctx context.Context, itemID, parameterID pgtype.UUID) (store.Rate, error)
	GetEventRate(ctx context.Context, eventID, parameterID pgtype.UUID) (store.Rate, error)
	ListEventsByItem(ctx context.Context, itemID pgtype.UUID) ([]store.RateEvent, error)
	ListYieldTiers(ctx context.Context, eventID pgtype.UUID) ([]store.YieldTier, error)
	CountBookedUnits(ctx context.Context, itemID pgtype.UUID, night pgtype.Date) (int64, error)
}

// Service resolves the effective nightly price for (item, parameter, date),
// layering event overrides over the item's base rates.
type Service struct {
	Q Querier
}

// Resolve returns the applicable unit price and pricing mode for one night.
// Rate and event data is read-only here; rate management is an administrative
// concern outside this engine.
func (s *Service) Resolve(ctx context.Context, itemID, parameterID pgtype.UUID, night time.Time) (Resolved, error) {
	param, err := s.Q.GetParameter(ctx, parameterID)
	if err != nil {
		if store.IsNoRows(err) {
			return Resolved{}, fmt.Errorf("parameter %s: %w", uuidString(parameterID), ErrMissingRate)
		}
		return Resolved{}, err
	}

	base, err := s.Q.GetBaseRate(ctx, itemID, parameterID)
	if err != nil {
		if store.IsNoRows(err) {
			return Resolved{}, fmt.Errorf("parameter %s: %w", uuidString(parameterID), ErrMissingRate)
		}
		return Resolved{}, err
	}
	resolved := Resolved{UnitPrice: base.Amount, Mode: param.PricingMode}

	events, err := s.Q.ListEventsByItem(ctx, itemID)
	if err != nil {
		return Resolved{}, err
	}
	ev, ok := PickEvent(events, night)
	if !ok {
		return resolved, nil
	}

	switch ev.PricingType {
	case store.EventPricingBase:
		// the event marks the window but keeps base pricing
	case store.EventPricingNew:
		override, err := s.Q.GetEventRate(ctx, ev.ID, parameterID)
		if err != nil {
			if !store.IsNoRows(err) {
				return Resolved{}, err
			}
			// no event rate for this parameter, base stands
		} else {
			resolved.UnitPrice = override.Amount
		}
	case store.EventPricingDynamic:
		resolved.UnitPrice = AdjustDynamic(ev, base.Amount)
	case store.EventPricingYield:
		available, err := s.availableStock(ctx, itemID, night)
		if err != nil {
			return Resolved{}, err
		}
		tiers, err := s.Q.ListYieldTiers(ctx, ev.ID)
		if err != nil {
			return Resolved{}, err
		}
		if tier, ok := PickYieldTier(tiers, available); ok {
			resolved.UnitPrice = tier.Amount
		}
	}
	return resolved, nil
}

func (s *Service) availableStock(ctx context.Context, itemID pgtype.UUID, night time.Time) (int64, error) {
	item, err := s.Q.GetItem(ctx, itemID)
	if err != nil {
		return 0, err
	}
	day := pgtype.Date{Time: night, Valid: true}
	booked, err := s.Q.CountBookedUnits(ctx, itemID, day)
	if err != nil {
		return 0, err
	}
	available := int64(item.Stock) - booked
	if available < 0 {
		available = 0
	}
	return available, nil
}

func uuidString(id pgtype.UUID) string {
	if !id.Valid {
		return ""
	}
	return uuid.UUID(id.Bytes).String()
}
