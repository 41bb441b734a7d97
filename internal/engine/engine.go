package engine

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/efreitasn/pairbook/internal/domain"
)

// Engine is the matching core for one market. All public operations
// run to completion under a single exclusive lock, so no two calls
// ever interleave their book mutations. Engines for different markets
// are independent.
type Engine struct {
	mu      sync.Mutex
	market  *domain.Market
	sells   *BookSide
	buys    *BookSide
	lastID  uint64
	adapter SettlementAdapter
	sink    domain.EventSink
}

// LimitResult reports the outcome of a limit call.
type LimitResult struct {
	// RestingID is the id of the order created for the unmatched
	// remainder, or 0 when nothing rested.
	RestingID uint64 `json:"resting_id"`
	// Left is the base amount that was not matched.
	Left uint64 `json:"left"`
	// TotalQuote is the quote amount exchanged across all fills.
	TotalQuote uint64 `json:"total_quote"`
}

// FokResult reports the outcome of a successful fok call.
type FokResult struct {
	Left       uint64 `json:"left"`
	TotalQuote uint64 `json:"total_quote"`
}

// New creates an engine for the given market. Events produced by an
// operation are published to sink only after the operation commits.
func New(market *domain.Market, adapter SettlementAdapter, sink domain.EventSink) *Engine {
	return &Engine{
		market:  market,
		sells:   NewBookSide(domain.SideSell),
		buys:    NewBookSide(domain.SideBuy),
		adapter: adapter,
		sink:    sink,
	}
}

// Market returns the engine's market configuration.
func (e *Engine) Market() *domain.Market {
	return e.market
}

func (e *Engine) book(side domain.Side) *BookSide {
	if side == domain.SideSell {
		return e.sells
	}
	return e.buys
}

// crosses reports whether a resting order priced restPrice satisfies a
// taker on the given side willing to trade at price.
func crosses(side domain.Side, price, restPrice uint64) bool {
	if side == domain.SideBuy {
		return restPrice <= price
	}
	return restPrice >= price
}

// escrowAmount returns the amount of the giving asset a resting order
// with the given remaining quantity holds in escrow. Buy escrow is
// floored; every fill settles an exact quote amount, so the floored
// total always covers the fills it backs.
func (e *Engine) escrowAmount(side domain.Side, baseAmt, price uint64) (domain.AssetRole, uint64, error) {
	role := side.Gives()
	if role == domain.RoleBase {
		return role, baseAmt, nil
	}
	quote, err := domain.QuoteFloor(e.market, baseAmt, price)
	return role, quote, err
}

// Limit places a limit order: it matches against the opposing side as
// far as the price allows, then rests any remainder of at least dust
// size on the caller's own side. hint is a position hint for the
// insert, see BookSide.Insert.
//
// A per-fill settlement failure on the resting order's leg evicts that
// order and matching continues. Any other error aborts the whole call
// with no effects.
func (e *Engine) Limit(owner string, side domain.Side, baseAmt, price, hint uint64) (LimitResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.validate(owner, side, baseAmt, price); err != nil {
		return LimitResult{}, err
	}

	j := &journal{}
	var events []domain.Event

	remaining, totalQuote, err := e.match(j, &events, owner, side, baseAmt, price)
	if err != nil {
		j.rollback()
		return LimitResult{}, err
	}

	res := LimitResult{Left: remaining, TotalQuote: totalQuote}
	if remaining > 0 && domain.MeetsDust(e.market, remaining) {
		role, escrow, err := e.escrowAmount(side, remaining, price)
		if err != nil {
			j.rollback()
			return LimitResult{}, err
		}
		if err := e.adapter.Escrow(e.market, role, owner, escrow); err != nil {
			j.rollback()
			return LimitResult{}, err
		}
		e.lastID++
		o := &domain.Order{
			ID:      e.lastID,
			Owner:   owner,
			Side:    side,
			BaseAmt: remaining,
			Price:   price,
		}
		e.book(side).Insert(o, hint)
		res.RestingID = o.ID
		events = append(events, e.event(domain.Event{
			Type:    domain.EventMake,
			OrderID: o.ID,
			Owner:   owner,
			Side:    side,
			BaseAmt: remaining,
			Price:   price,
		}))
	}

	e.publish(events)
	return res, nil
}

// Fok places a fill-or-kill order: it runs the same matching loop as
// Limit but never rests a remainder, and the whole call is atomic.
// The call is rejected with ErrFokNotSatisfied, and every effect
// undone, when nothing matched at all or when the total quote
// exchanged breaches totalLimit (a ceiling for a buying taker, a
// floor for a selling one).
func (e *Engine) Fok(owner string, side domain.Side, baseAmt, price, totalLimit uint64) (FokResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.validate(owner, side, baseAmt, price); err != nil {
		return FokResult{}, err
	}

	j := &journal{}
	var events []domain.Event

	remaining, totalQuote, err := e.match(j, &events, owner, side, baseAmt, price)
	if err != nil {
		j.rollback()
		return FokResult{}, err
	}

	matched := baseAmt - remaining
	if matched == 0 ||
		(side == domain.SideBuy && totalQuote > totalLimit) ||
		(side == domain.SideSell && totalQuote < totalLimit) {
		j.rollback()
		return FokResult{}, domain.ErrFokNotSatisfied
	}

	e.publish(events)
	return FokResult{Left: remaining, TotalQuote: totalQuote}, nil
}

// Cancel removes a resting order and refunds its remaining escrow to
// the owner. Only the owner may cancel.
func (e *Engine) Cancel(caller string, side domain.Side, id uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if id == 0 {
		return domain.ErrSentinelImmutable
	}
	book := e.book(side)
	o, err := book.Get(id)
	if err != nil {
		return err
	}
	if o.Owner != caller {
		return domain.ErrUnauthorized
	}

	role, escrow, err := e.escrowAmount(o.Side, o.BaseAmt, o.Price)
	if err != nil {
		return err
	}
	if err := book.Remove(id); err != nil {
		return err
	}
	e.adapter.Refund(e.market, role, o.Owner, escrow)

	e.publish([]domain.Event{e.event(domain.Event{
		Type:    domain.EventCancel,
		OrderID: id,
		Owner:   o.Owner,
		Side:    o.Side,
		BaseAmt: o.BaseAmt,
		Price:   o.Price,
	})})
	return nil
}

// GetOrder returns a copy of the resting order with the given id.
func (e *Engine) GetOrder(side domain.Side, id uint64) (domain.Order, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	o, err := e.book(side).Get(id)
	if err != nil {
		return domain.Order{}, err
	}
	return *o, nil
}

// match walks the opposing side filling against every crossing order
// until baseAmt is exhausted or the book no longer crosses. Effects
// are recorded in j; produced events are appended to events. On error
// the caller must roll j back.
func (e *Engine) match(j *journal, events *[]domain.Event, owner string, side domain.Side, baseAmt, price uint64) (remaining, totalQuote uint64, err error) {
	opp := e.book(side.Opposite())
	remaining = baseAmt

	for remaining > 0 {
		bestID := opp.PeekBest()
		if bestID == 0 {
			break
		}
		best, _ := opp.Get(bestID)
		if !crosses(side, price, best.Price) {
			break
		}

		fillAmt := min(remaining, best.BaseAmt)
		quoteAmt, qerr := domain.QuoteAmount(e.market, fillAmt, best.Price)
		if qerr != nil {
			return remaining, totalQuote, qerr
		}

		// Maker leg: the resting order's escrowed funds go to the
		// taker. Failure means the resting order is stale; evict it
		// and keep matching without consuming any taker amount.
		makerRole := best.Side.Gives()
		makerAmt := fillAmt
		if makerRole == domain.RoleQuote {
			makerAmt = quoteAmt
		}
		if terr := e.adapter.Transfer(e.market, makerRole, best.Owner, owner, makerAmt, true); terr != nil {
			e.evict(j, events, opp, best, owner, side)
			continue
		}
		j.record(func() {
			e.adapter.UndoTransfer(e.market, makerRole, best.Owner, owner, makerAmt, true)
		})

		// Taker leg: the taker pays from live balance. Failure is the
		// taker's own fault and aborts the whole call.
		takerRole := side.Gives()
		takerAmt := fillAmt
		if takerRole == domain.RoleQuote {
			takerAmt = quoteAmt
		}
		if terr := e.adapter.Transfer(e.market, takerRole, owner, best.Owner, takerAmt, false); terr != nil {
			return remaining, totalQuote, domain.ErrTakerFault
		}
		j.record(func() {
			e.adapter.UndoTransfer(e.market, takerRole, owner, best.Owner, takerAmt, false)
		})

		remaining -= fillAmt
		totalQuote += quoteAmt

		prevAmt := best.BaseAmt
		best.BaseAmt -= fillAmt
		j.record(func() { best.BaseAmt = prevAmt })

		*events = append(*events, e.event(domain.Event{
			Type:     domain.EventTake,
			OrderID:  best.ID,
			TradeID:  uuid.NewString(),
			Owner:    best.Owner,
			Taker:    owner,
			Side:     side,
			BaseAmt:  fillAmt,
			QuoteAmt: quoteAmt,
			Price:    best.Price,
		}))

		// A remainder below dust leaves the book and its residual
		// escrow stays absorbed rather than refunded.
		if best.BaseAmt == 0 || !domain.MeetsDust(e.market, best.BaseAmt) {
			removed := best
			_ = opp.Remove(best.ID)
			j.record(func() { opp.relink(removed) })
		}
	}
	return remaining, totalQuote, nil
}

// evict removes a resting order whose settlement leg failed and
// refunds its remaining escrow.
func (e *Engine) evict(j *journal, events *[]domain.Event, book *BookSide, o *domain.Order, taker string, takerSide domain.Side) {
	role, escrow, _ := e.escrowAmount(o.Side, o.BaseAmt, o.Price)
	_ = book.Remove(o.ID)
	j.record(func() { book.relink(o) })
	e.adapter.Refund(e.market, role, o.Owner, escrow)
	j.record(func() { _ = e.adapter.Escrow(e.market, role, o.Owner, escrow) })

	*events = append(*events, e.event(domain.Event{
		Type:    domain.EventSwapFailed,
		OrderID: o.ID,
		Owner:   o.Owner,
		Taker:   taker,
		Side:    takerSide,
		BaseAmt: o.BaseAmt,
		Price:   o.Price,
	}))
}

func (e *Engine) validate(owner string, side domain.Side, baseAmt, price uint64) error {
	if owner == "" {
		return &domain.ValidationError{Message: "owner is required"}
	}
	if !side.Valid() {
		return &domain.ValidationError{Message: "invalid side"}
	}
	if baseAmt == 0 {
		return &domain.ValidationError{Message: "base amount must be positive"}
	}
	return domain.ValidatePrice(e.market, price)
}

func (e *Engine) event(ev domain.Event) domain.Event {
	ev.Market = e.market.Key
	ev.Timestamp = time.Now().UTC()
	return ev
}

func (e *Engine) publish(events []domain.Event) {
	if e.sink == nil {
		return
	}
	for _, ev := range events {
		e.sink.Publish(ev)
	}
}

// Snapshot captures the engine's full book state for persistence.
func (e *Engine) Snapshot() domain.BookSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := domain.BookSnapshot{LastID: e.lastID}
	e.sells.Walk(func(o *domain.Order) bool {
		snap.Sells = append(snap.Sells, domain.RestingOrder{ID: o.ID, Owner: o.Owner, BaseAmt: o.BaseAmt, Price: o.Price})
		return true
	})
	e.buys.Walk(func(o *domain.Order) bool {
		snap.Buys = append(snap.Buys, domain.RestingOrder{ID: o.ID, Owner: o.Owner, BaseAmt: o.BaseAmt, Price: o.Price})
		return true
	})
	return snap
}

// Restore replaces the engine's book state with a snapshot previously
// produced by Snapshot.
func (e *Engine) Restore(snap domain.BookSnapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.sells = NewBookSide(domain.SideSell)
	e.buys = NewBookSide(domain.SideBuy)
	e.lastID = snap.LastID
	for _, r := range snap.Sells {
		e.sells.Insert(&domain.Order{ID: r.ID, Owner: r.Owner, Side: domain.SideSell, BaseAmt: r.BaseAmt, Price: r.Price}, 0)
	}
	for _, r := range snap.Buys {
		e.buys.Insert(&domain.Order{ID: r.ID, Owner: r.Owner, Side: domain.SideBuy, BaseAmt: r.BaseAmt, Price: r.Price}, 0)
	}
}
