package domain

import "time"

// EventType identifies a book or balance change notification.
type EventType string

const (
	EventMake       EventType = "order.made"
	EventTake       EventType = "order.taken"
	EventCancel     EventType = "order.cancelled"
	EventSwapFailed EventType = "swap.failed"
	EventDeposit    EventType = "funds.deposited"
	EventWithdraw   EventType = "funds.withdrawn"
)

// Event is a notification emitted per effect. Each event carries
// enough data for an observer to reconstruct the book state change it
// describes. Which fields are set depends on Type:
//
//   - order.made: OrderID, Owner, Side, BaseAmt, Price. A new order
//     rested on the book.
//   - order.taken: OrderID (the resting order), Owner (its maker),
//     Taker, Side (the taker's side), BaseAmt (the fill), Price (the
//     resting order's price), QuoteAmt, TradeID.
//   - order.cancelled: OrderID.
//   - swap.failed: OrderID (the evicted resting order), Owner, Taker,
//     Side (the taker's side), BaseAmt (the evicted order's remaining
//     quantity), Price.
//   - funds.deposited / funds.withdrawn: Role, From, To, Amount.
type Event struct {
	Type      EventType `json:"type"`
	Market    string    `json:"market,omitempty"`
	Timestamp time.Time `json:"timestamp"`

	OrderID  uint64 `json:"order_id,omitempty"`
	TradeID  string `json:"trade_id,omitempty"`
	Owner    string `json:"owner,omitempty"`
	Taker    string `json:"taker,omitempty"`
	Side     Side   `json:"side,omitempty"`
	BaseAmt  uint64 `json:"base_amt,omitempty"`
	QuoteAmt uint64 `json:"quote_amt,omitempty"`
	Price    uint64 `json:"price,omitempty"`

	Role   AssetRole `json:"role,omitempty"`
	From   string    `json:"from,omitempty"`
	To     string    `json:"to,omitempty"`
	Amount uint64    `json:"amount,omitempty"`
}

// EventSink receives events from the matching core. Publish is called
// after the operation that produced the event has committed; events
// from rejected operations are never published.
type EventSink interface {
	Publish(Event)
}

// EventSinks fans an event out to multiple sinks in order.
type EventSinks []EventSink

// Publish implements EventSink.
func (s EventSinks) Publish(e Event) {
	for _, sink := range s {
		sink.Publish(e)
	}
}
