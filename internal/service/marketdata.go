package service

import (
	"sync"

	"github.com/google/btree"

	"github.com/efreitasn/pairbook/internal/domain"
)

// PriceLevel is one aggregated entry of a depth view: the total
// resting base quantity and order count at one price.
type PriceLevel struct {
	Price   uint64 `json:"price"`
	BaseAmt uint64 `json:"base_amt"`
	Orders  int    `json:"orders"`
}

// MarketData maintains aggregated per-price depth views, one per
// market side, rebuilt purely from the committed event stream. It
// implements domain.EventSink; feeding it every event reproduces the
// book's aggregate state without touching the engine.
type MarketData struct {
	mu       sync.RWMutex
	registry *domain.MarketRegistry
	views    map[viewKey]*btree.BTreeG[PriceLevel]
	orders   map[orderRef]*orderState
}

type viewKey struct {
	market string
	side   domain.Side
}

type orderRef struct {
	market string
	id     uint64
}

type orderState struct {
	side    domain.Side
	price   uint64
	baseAmt uint64
}

// NewMarketData creates an empty depth view. The registry supplies
// each market's dust threshold, which governs when a partially filled
// order leaves the book.
func NewMarketData(registry *domain.MarketRegistry) *MarketData {
	return &MarketData{
		registry: registry,
		views:    make(map[viewKey]*btree.BTreeG[PriceLevel]),
		orders:   make(map[orderRef]*orderState),
	}
}

func (m *MarketData) view(market string, side domain.Side) *btree.BTreeG[PriceLevel] {
	key := viewKey{market: market, side: side}
	if t, ok := m.views[key]; ok {
		return t
	}
	less := func(a, b PriceLevel) bool { return a.Price < b.Price }
	if side == domain.SideBuy {
		less = func(a, b PriceLevel) bool { return a.Price > b.Price }
	}
	t := btree.NewG(2, less)
	m.views[key] = t
	return t
}

// Publish implements domain.EventSink.
func (m *MarketData) Publish(ev domain.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch ev.Type {
	case domain.EventMake:
		m.add(ev.Market, ev.Side, ev.OrderID, ev.Price, ev.BaseAmt)
	case domain.EventTake:
		// Side on a take event is the taker's; the resting order sits
		// on the opposite side.
		m.reduce(ev.Market, ev.Side.Opposite(), ev.OrderID, ev.BaseAmt)
	case domain.EventCancel:
		m.drop(ev.Market, ev.Side, ev.OrderID)
	case domain.EventSwapFailed:
		m.drop(ev.Market, ev.Side.Opposite(), ev.OrderID)
	}
}

func (m *MarketData) add(market string, side domain.Side, id, price, baseAmt uint64) {
	m.orders[orderRef{market: market, id: id}] = &orderState{side: side, price: price, baseAmt: baseAmt}

	t := m.view(market, side)
	level, ok := t.Get(PriceLevel{Price: price})
	if !ok {
		level = PriceLevel{Price: price}
	}
	level.BaseAmt += baseAmt
	level.Orders++
	t.ReplaceOrInsert(level)
}

func (m *MarketData) reduce(market string, side domain.Side, id, fillAmt uint64) {
	ref := orderRef{market: market, id: id}
	state, ok := m.orders[ref]
	if !ok {
		return
	}
	state.baseAmt -= fillAmt
	m.reduceLevel(market, side, state.price, fillAmt, false)

	remaining := state.baseAmt
	if remaining == 0 {
		m.drop(market, side, id)
		return
	}
	// A sub-dust remainder is removed by the engine without a further
	// event; mirror that here.
	if mkt, err := m.registry.Resolve(market); err == nil && !domain.MeetsDust(mkt, remaining) {
		m.drop(market, side, id)
	}
}

func (m *MarketData) drop(market string, side domain.Side, id uint64) {
	ref := orderRef{market: market, id: id}
	state, ok := m.orders[ref]
	if !ok {
		return
	}
	delete(m.orders, ref)
	m.reduceLevel(market, side, state.price, state.baseAmt, true)
}

func (m *MarketData) reduceLevel(market string, side domain.Side, price, baseAmt uint64, gone bool) {
	t := m.view(market, side)
	level, ok := t.Get(PriceLevel{Price: price})
	if !ok {
		return
	}
	if level.BaseAmt <= baseAmt {
		level.BaseAmt = 0
	} else {
		level.BaseAmt -= baseAmt
	}
	if gone {
		level.Orders--
	}
	if level.Orders <= 0 || level.BaseAmt == 0 {
		t.Delete(level)
		return
	}
	t.ReplaceOrInsert(level)
}

// Seed loads a restored book snapshot into the view, bypassing the
// event stream. Used once at startup.
func (m *MarketData) Seed(market string, snap domain.BookSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range snap.Sells {
		m.add(market, domain.SideSell, r.ID, r.Price, r.BaseAmt)
	}
	for _, r := range snap.Buys {
		m.add(market, domain.SideBuy, r.ID, r.Price, r.BaseAmt)
	}
}

// Depth returns up to limit aggregated price levels for one market
// side, best price first.
func (m *MarketData) Depth(market string, side domain.Side, limit int) []PriceLevel {
	m.mu.RLock()
	defer m.mu.RUnlock()

	levels := make([]PriceLevel, 0, limit)
	t, ok := m.views[viewKey{market: market, side: side}]
	if !ok {
		return levels
	}
	t.Ascend(func(level PriceLevel) bool {
		levels = append(levels, level)
		return len(levels) < limit
	})
	return levels
}
