package events

// Topic constants for domain events emitted by the booking engine.
const (
	TopicBookingPriceChanged = "booking.price_changed"
	TopicBookingLineAdded    = "booking.line_added"
	TopicBookingLineRemoved  = "booking.line_removed"
	TopicVoucherApplied      = "booking.voucher_applied"
	TopicVoucherRemoved      = "booking.voucher_removed"
)

// DefaultTopics returns the canonical list of topics that support notifications.
func DefaultTopics() []string {
	return []string{
		TopicBookingPriceChanged,
		TopicBookingLineAdded,
		TopicBookingLineRemoved,
		TopicVoucherApplied,
		TopicVoucherRemoved,
	}
}
