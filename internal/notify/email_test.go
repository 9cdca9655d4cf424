package notify

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"

	"github.com/campwise/glamp-api/internal/common"
	"github.com/campwise/glamp-api/internal/events"
	"github.com/campwise/glamp-api/internal/store"
)

func priceChangedEvent(payload string) store.DomainEvent {
	return store.DomainEvent{
		Topic:      events.TopicBookingPriceChanged,
		Payload:    []byte(payload),
		OccurredAt: pgtype.Timestamptz{Time: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC), Valid: true},
	}
}

func TestNotifySendsPriceChangeMail(t *testing.T) {
	outbox := &common.InMemoryEmail{}
	n := EmailNotifier{Mail: outbox, Enabled: true, From: "bookings@campwise.example"}

	err := n.Notify(context.Background(), priceChangedEvent(
		`{"customerEmail":"guest@example.com","bookingReference":"GLP-1001","oldTotal":3000000,"newTotal":3300000,"priceDifference":300000}`,
	))
	require.NoError(t, err)
	require.Len(t, outbox.Outbox, 1)

	mail := outbox.Outbox[0]
	require.Equal(t, "guest@example.com", mail.To)
	require.Equal(t, "Your booking total has changed", mail.Subject)
	require.Contains(t, mail.HTML, "GLP-1001")
	require.Contains(t, mail.HTML, "Previous total: 3000000")
	require.Contains(t, mail.HTML, "New total: 3300000")
	require.Contains(t, mail.HTML, "Difference: 300000")
}

func TestNotifySkipsWithoutRecipient(t *testing.T) {
	outbox := &common.InMemoryEmail{}
	n := EmailNotifier{Mail: outbox, Enabled: true}

	err := n.Notify(context.Background(), priceChangedEvent(`{"bookingReference":"GLP-1001"}`))
	require.NoError(t, err)
	require.Empty(t, outbox.Outbox)
}

func TestNotifyHonoursTopicToggle(t *testing.T) {
	outbox := &common.InMemoryEmail{}
	n := EmailNotifier{
		Mail:         outbox,
		Enabled:      true,
		TopicToggles: map[string]bool{events.TopicBookingPriceChanged: false},
	}

	err := n.Notify(context.Background(), priceChangedEvent(`{"customerEmail":"guest@example.com"}`))
	require.NoError(t, err)
	require.Empty(t, outbox.Outbox)
}

func TestNotifyDisabledSendsNothing(t *testing.T) {
	outbox := &common.InMemoryEmail{}
	n := EmailNotifier{Mail: outbox, Enabled: false}

	err := n.Notify(context.Background(), priceChangedEvent(`{"customerEmail":"guest@example.com"}`))
	require.NoError(t, err)
	require.Empty(t, outbox.Outbox)
}
