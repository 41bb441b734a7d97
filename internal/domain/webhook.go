package domain

import "time"

// Webhook represents a participant's subscription to an event
// notification.
type Webhook struct {
	WebhookID string
	Owner     string
	Event     EventType
	URL       string
	CreatedAt time.Time
	UpdatedAt time.Time
}
