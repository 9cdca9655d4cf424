package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/campwise/glamp-api/internal/common"
	"github.com/campwise/glamp-api/internal/events"
	"github.com/campwise/glamp-api/internal/store"
)

// EmailNotifier sends transactional emails for selected topics. It runs
// post-commit via the event bus; a send failure surfaces to the bus as a
// joined error but never affects the booking.
type EmailNotifier struct {
	Mail         common.EmailSender
	Enabled      bool
	From         string
	TopicToggles map[string]bool
}

// Notify implements the events.Notifier interface.
func (n EmailNotifier) Notify(_ context.Context, event store.DomainEvent) error {
	if !n.Enabled || n.Mail == nil {
		return nil
	}
	if n.TopicToggles != nil {
		if enabled, ok := n.TopicToggles[event.Topic]; ok && !enabled {
			return nil
		}
	}
	payload := map[string]any{}
	if len(event.Payload) > 0 {
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return fmt.Errorf("email notify: decode payload: %w", err)
		}
	}
	to := extractRecipient(payload)
	if to == "" {
		return nil
	}
	return n.Mail.Send(to, subjectFor(event.Topic), bodyFor(event.Topic, payload, event.OccurredAt.Time))
}

func extractRecipient(payload map[string]any) string {
	for _, key := range []string{"customerEmail", "email", "recipient"} {
		if val, ok := payload[key]; ok {
			if s, ok := val.(string); ok {
				if s = strings.TrimSpace(s); s != "" {
					return s
				}
			}
		}
	}
	return ""
}

func subjectFor(topic string) string {
	switch topic {
	case events.TopicBookingPriceChanged:
		return "Your booking total has changed"
	case events.TopicBookingLineAdded:
		return "An item was added to your booking"
	case events.TopicBookingLineRemoved:
		return "An item was removed from your booking"
	case events.TopicVoucherApplied:
		return "A voucher was applied to your booking"
	case events.TopicVoucherRemoved:
		return "A voucher was removed from your booking"
	default:
		return fmt.Sprintf("Booking update: %s", topic)
	}
}

func bodyFor(topic string, payload map[string]any, occurred time.Time) string {
	summary := fmt.Sprintf("Event %s occurred at %s.", topic, occurred.Format(time.RFC3339))
	if ref, ok := payload["bookingReference"].(string); ok && ref != "" {
		summary += fmt.Sprintf("\nBooking reference: %s", ref)
	}
	if old, ok := numberField(payload, "oldTotal"); ok {
		summary += fmt.Sprintf("\nPrevious total: %d", old)
	}
	if newTotal, ok := numberField(payload, "newTotal"); ok {
		summary += fmt.Sprintf("\nNew total: %d", newTotal)
	}
	if diff, ok := numberField(payload, "priceDifference"); ok {
		summary += fmt.Sprintf("\nDifference: %d", diff)
	}
	return summary
}

// numberField tolerates both json.Number-style floats and ints since the
// payload round-trips through JSONB.
func numberField(payload map[string]any, key string) (int64, bool) {
	switch v := payload[key].(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	default:
		return 0, false
	}
}
