package service

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/efreitasn/pairbook/internal/domain"
	"github.com/efreitasn/pairbook/internal/store"
)

// Valid webhook event types.
var validWebhookEvents = map[domain.EventType]bool{
	domain.EventMake:       true,
	domain.EventTake:       true,
	domain.EventCancel:     true,
	domain.EventSwapFailed: true,
	domain.EventDeposit:    true,
	domain.EventWithdraw:   true,
}

// UpsertWebhookRequest represents the input for webhook registration.
type UpsertWebhookRequest struct {
	Owner  string
	URL    string
	Events []string
}

// WebhookService handles webhook CRUD and event delivery. It
// implements domain.EventSink: every committed event is delivered to
// the subscriptions of the parties it involves.
type WebhookService struct {
	store  *store.WebhookStore
	client *http.Client
}

// NewWebhookService creates a new WebhookService.
func NewWebhookService(webhookStore *store.WebhookStore, timeout time.Duration) *WebhookService {
	return &WebhookService{
		store: webhookStore,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Upsert validates the request and creates or updates webhook
// subscriptions. Returns the resulting webhooks, whether any new
// subscriptions were created, and any error.
func (s *WebhookService) Upsert(req UpsertWebhookRequest) ([]*domain.Webhook, bool, error) {
	if req.Owner == "" {
		return nil, false, &domain.ValidationError{Message: "owner is required"}
	}

	// Validate URL.
	if req.URL == "" {
		return nil, false, &domain.ValidationError{Message: "url is required"}
	}
	if len(req.URL) > 2048 {
		return nil, false, &domain.ValidationError{Message: "url must be at most 2048 characters"}
	}
	parsed, err := url.ParseRequestURI(req.URL)
	if err != nil || !parsed.IsAbs() {
		return nil, false, &domain.ValidationError{Message: "url must be a valid absolute URL"}
	}
	if parsed.Scheme != "https" {
		return nil, false, &domain.ValidationError{Message: "url must use https scheme"}
	}

	// Validate events.
	if len(req.Events) == 0 {
		return nil, false, &domain.ValidationError{Message: "events must be a non-empty array"}
	}

	// Deduplicate events while preserving order and validating.
	seen := make(map[domain.EventType]bool, len(req.Events))
	dedupedEvents := make([]domain.EventType, 0, len(req.Events))
	for _, raw := range req.Events {
		event := domain.EventType(raw)
		if !validWebhookEvents[event] {
			return nil, false, &domain.ValidationError{
				Message: "Unknown event type: " + raw + ". Must be one of: order.made, order.taken, order.cancelled, swap.failed, funds.deposited, funds.withdrawn",
			}
		}
		if !seen[event] {
			seen[event] = true
			dedupedEvents = append(dedupedEvents, event)
		}
	}

	// Upsert each (owner, event) pair.
	now := time.Now().UTC().Truncate(time.Second)
	anyCreated := false
	webhooks := make([]*domain.Webhook, 0, len(dedupedEvents))

	for _, event := range dedupedEvents {
		w := &domain.Webhook{
			WebhookID: uuid.New().String(),
			Owner:     req.Owner,
			Event:     event,
			URL:       req.URL,
			CreatedAt: now,
			UpdatedAt: now,
		}

		created := s.store.Upsert(w)
		if created {
			anyCreated = true
			webhooks = append(webhooks, w)
		} else {
			existing := s.store.GetByOwnerEvent(req.Owner, event)
			if existing != nil {
				webhooks = append(webhooks, existing)
			}
		}
	}

	return webhooks, anyCreated, nil
}

// List returns all webhook subscriptions for an owner.
func (s *WebhookService) List(owner string) []*domain.Webhook {
	return s.store.ListByOwner(owner)
}

// Delete removes a webhook subscription by ID.
func (s *WebhookService) Delete(webhookID string) error {
	return s.store.Delete(webhookID)
}

// eventPayload is the JSON envelope delivered to subscribers.
type eventPayload struct {
	Event     string       `json:"event"`
	Timestamp string       `json:"timestamp"`
	Data      domain.Event `json:"data"`
}

// Publish implements domain.EventSink. The event is delivered to the
// owner's subscription and, when a distinct taker or recipient is
// involved, to theirs as well. Fire-and-forget.
func (s *WebhookService) Publish(ev domain.Event) {
	recipients := make(map[string]bool, 2)
	for _, party := range []string{ev.Owner, ev.Taker, ev.From, ev.To} {
		if party != "" {
			recipients[party] = true
		}
	}

	payload := eventPayload{
		Event:     string(ev.Type),
		Timestamp: ev.Timestamp.Truncate(time.Second).Format(time.RFC3339),
		Data:      ev,
	}
	for party := range recipients {
		wh := s.store.GetByOwnerEvent(party, ev.Type)
		if wh == nil {
			continue
		}
		go s.deliver(wh, ev.Type, payload)
	}
}

// deliver sends the webhook payload via HTTP POST with the required
// headers. Errors are silently ignored (fire-and-forget).
func (s *WebhookService) deliver(wh *domain.Webhook, eventType domain.EventType, payload eventPayload) {
	body, err := json.Marshal(payload)
	if err != nil {
		return
	}

	req, err := http.NewRequest(http.MethodPost, wh.URL, bytes.NewReader(body))
	if err != nil {
		return
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Delivery-Id", uuid.New().String())
	req.Header.Set("X-Webhook-Id", wh.WebhookID)
	req.Header.Set("X-Event-Type", string(eventType))

	resp, err := s.client.Do(req)
	if err != nil {
		return
	}
	resp.Body.Close()
}
