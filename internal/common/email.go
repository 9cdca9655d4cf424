package common

// EmailSender delivers guest-facing notification mail. The price-change
// notifier depends on this interface only; delivery guarantees are out of
// scope, senders may drop mail on the floor.
type EmailSender interface {
	Send(to, subject, html string) error
}

// Email is one captured message.
type Email struct {
	To      string
	Subject string
	HTML    string
}

// InMemoryEmail records sent mail for tests instead of delivering it.
type InMemoryEmail struct {
	Outbox []Email
}

func (m *InMemoryEmail) Send(to, subject, html string) error {
	if m == nil {
		return nil
	}
	m.Outbox = append(m.Outbox, Email{To: to, Subject: subject, HTML: html})
	return nil
}

// NopEmailSender discards everything. Used when notifications are disabled.
type NopEmailSender struct{}

func (NopEmailSender) Send(string, string, string) error { return nil }
