package rate

import (
	"errors"
	"time"

	"github.com/campwise/glamp-api/internal/store"
)

// ErrMissingRate is returned when no base rate exists for a parameter. A
// silent zero would corrupt every downstream total, so the absence always
// propagates.
var ErrMissingRate = errors.New("no rate configured for parameter")

// Resolved is the effective nightly price for one (item, parameter, date).
type Resolved struct {
	UnitPrice int64
	Mode      store.PricingMode
}

// Covers reports whether the event's window applies to the given night under
// its recurrence rule.
func Covers(ev store.RateEvent, night time.Time) bool {
	if !ev.StartDate.Valid || !ev.EndDate.Valid {
		return false
	}
	start := dateOnly(ev.StartDate.Time)
	end := dateOnly(ev.EndDate.Time)
	day := dateOnly(night)

	switch ev.Recurrence {
	case store.RecurrenceAlways:
		return true
	case store.RecurrenceOneTime, "":
		return !day.Before(start) && !day.After(end)
	case store.RecurrenceWeekly:
		span := int(end.Sub(start).Hours() / 24)
		if span >= 6 {
			return true
		}
		offset := int(day.Sub(start).Hours()/24) % 7
		if offset < 0 {
			offset += 7
		}
		return offset <= span
	case store.RecurrenceMonthly:
		sd, ed, d := start.Day(), end.Day(), day.Day()
		if sd <= ed {
			return d >= sd && d <= ed
		}
		// window wraps over a month boundary
		return d >= sd || d <= ed
	case store.RecurrenceYearly:
		sk := monthDayKey(start)
		ek := monthDayKey(end)
		dk := monthDayKey(day)
		if sk <= ek {
			return dk >= sk && dk <= ek
		}
		return dk >= sk || dk <= ek
	default:
		return false
	}
}

// PickEvent selects the single effective event for a night. Precedence is
// deterministic: closure beats special beats seasonal, then the event whose
// start date lies closest to the night, then the most recently created one.
func PickEvent(events []store.RateEvent, night time.Time) (store.RateEvent, bool) {
	var best store.RateEvent
	found := false
	for _, ev := range events {
		if !Covers(ev, night) {
			continue
		}
		if !found || beats(ev, best, night) {
			best = ev
			found = true
		}
	}
	return best, found
}

func beats(a, b store.RateEvent, night time.Time) bool {
	if ka, kb := kindRank(a.Kind), kindRank(b.Kind); ka != kb {
		return ka > kb
	}
	if da, db := startDistance(a, night), startDistance(b, night); da != db {
		return da < db
	}
	return a.CreatedAt.Time.After(b.CreatedAt.Time)
}

func kindRank(k store.EventKind) int {
	switch k {
	case store.EventKindClosure:
		return 3
	case store.EventKindSpecial:
		return 2
	case store.EventKindSeasonal:
		return 1
	default:
		return 0
	}
}

func startDistance(ev store.RateEvent, night time.Time) int64 {
	d := dateOnly(night).Sub(dateOnly(ev.StartDate.Time))
	if d < 0 {
		d = -d
	}
	return int64(d / (24 * time.Hour))
}

// AdjustDynamic applies a dynamic event's percent or fixed adjustment to the
// base amount. Percent is a whole-percent figure and may be negative.
func AdjustDynamic(ev store.RateEvent, base int64) int64 {
	if ev.AdjustPercent.Valid && ev.AdjustPercent.Int32 != 0 {
		return base + base*int64(ev.AdjustPercent.Int32)/100
	}
	if ev.AdjustAmount.Valid {
		return base + ev.AdjustAmount.Int64
	}
	return base
}

// PickYieldTier selects the first tier, in ascending ceiling order, whose
// stock bound is satisfied by the available stock.
func PickYieldTier(tiers []store.YieldTier, available int64) (store.YieldTier, bool) {
	for _, t := range tiers {
		if available <= int64(t.StockCeiling) {
			return t, true
		}
	}
	return store.YieldTier{}, false
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func monthDayKey(t time.Time) int {
	return int(t.Month())*100 + t.Day()
}
