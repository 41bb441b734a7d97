package service

import (
	"log/slog"
	"sync"
	"time"

	"github.com/efreitasn/pairbook/internal/domain"
	"github.com/efreitasn/pairbook/internal/engine"
	"github.com/efreitasn/pairbook/internal/ledger"
	"github.com/efreitasn/pairbook/internal/store"
)

// Exchange owns one matching engine per market and routes every
// public operation to the right one. It also applies deposits and
// withdrawals to the ledger, persists snapshots after each mutating
// call, and fans committed events out to the configured sinks.
type Exchange struct {
	registry   *domain.MarketRegistry
	accounts   *ledger.Accounts
	adapter    engine.SettlementAdapter
	snapshots  *store.SnapshotStore
	marketData *MarketData
	sink       domain.EventSink
	logger     *slog.Logger

	mu      sync.RWMutex
	engines map[string]*engine.Engine
}

// NewExchange wires the exchange together. snapshots, marketData and
// webhooks may each be nil to disable that concern.
func NewExchange(
	registry *domain.MarketRegistry,
	accounts *ledger.Accounts,
	snapshots *store.SnapshotStore,
	marketData *MarketData,
	webhooks domain.EventSink,
	logger *slog.Logger,
) *Exchange {
	var sinks domain.EventSinks
	if marketData != nil {
		sinks = append(sinks, marketData)
	}
	if webhooks != nil {
		sinks = append(sinks, webhooks)
	}

	return &Exchange{
		registry:   registry,
		accounts:   accounts,
		adapter:    ledger.NewAdapter(accounts),
		snapshots:  snapshots,
		marketData: marketData,
		sink:       sinks,
		logger:     logger,
		engines:    make(map[string]*engine.Engine),
	}
}

// RegisterMarket adds a new market and persists the updated market
// set.
func (x *Exchange) RegisterMarket(m domain.Market) error {
	if err := x.registry.Register(m); err != nil {
		return err
	}
	if x.snapshots != nil {
		markets := make([]domain.Market, 0, len(x.registry.Keys()))
		for _, key := range x.registry.Keys() {
			mkt, err := x.registry.Resolve(key)
			if err != nil {
				continue
			}
			markets = append(markets, *mkt)
		}
		if err := x.snapshots.SaveMarkets(markets); err != nil {
			x.logger.Error("failed to persist markets", "error", err)
		}
	}
	return nil
}

// Markets returns the configured market keys.
func (x *Exchange) Markets() []string {
	return x.registry.Keys()
}

// Market returns one market's configuration.
func (x *Exchange) Market(key string) (*domain.Market, error) {
	return x.registry.Resolve(key)
}

// engineFor returns the engine for a market, creating it on first
// use.
func (x *Exchange) engineFor(key string) (*engine.Engine, error) {
	x.mu.RLock()
	eng, ok := x.engines[key]
	x.mu.RUnlock()
	if ok {
		return eng, nil
	}

	market, err := x.registry.Resolve(key)
	if err != nil {
		return nil, err
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	// Another caller may have created it between the two locks.
	if eng, ok := x.engines[key]; ok {
		return eng, nil
	}
	eng = engine.New(market, x.adapter, x.sink)
	x.engines[key] = eng
	return eng, nil
}

// PlaceLimit submits a limit order to a market.
func (x *Exchange) PlaceLimit(market, owner string, side domain.Side, baseAmt, price, hint uint64) (engine.LimitResult, error) {
	eng, err := x.engineFor(market)
	if err != nil {
		return engine.LimitResult{}, err
	}
	res, err := eng.Limit(owner, side, baseAmt, price, hint)
	if err != nil {
		return engine.LimitResult{}, err
	}
	x.persist(market, eng)
	return res, nil
}

// PlaceFok submits a fill-or-kill order to a market.
func (x *Exchange) PlaceFok(market, owner string, side domain.Side, baseAmt, price, totalLimit uint64) (engine.FokResult, error) {
	eng, err := x.engineFor(market)
	if err != nil {
		return engine.FokResult{}, err
	}
	res, err := eng.Fok(owner, side, baseAmt, price, totalLimit)
	if err != nil {
		return engine.FokResult{}, err
	}
	x.persist(market, eng)
	return res, nil
}

// CancelOrder cancels a resting order.
func (x *Exchange) CancelOrder(market, caller string, side domain.Side, id uint64) error {
	eng, err := x.engineFor(market)
	if err != nil {
		return err
	}
	if err := eng.Cancel(caller, side, id); err != nil {
		return err
	}
	x.persist(market, eng)
	return nil
}

// GetOrder returns one resting order.
func (x *Exchange) GetOrder(market string, side domain.Side, id uint64) (domain.Order, error) {
	eng, err := x.engineFor(market)
	if err != nil {
		return domain.Order{}, err
	}
	return eng.GetOrder(side, id)
}

// Book returns the full book of a market, both sides best to worst.
func (x *Exchange) Book(market string) (domain.BookSnapshot, error) {
	eng, err := x.engineFor(market)
	if err != nil {
		return domain.BookSnapshot{}, err
	}
	return eng.Snapshot(), nil
}

// Depth returns the aggregated depth view of one market side.
func (x *Exchange) Depth(market string, side domain.Side, limit int) ([]PriceLevel, error) {
	if _, err := x.registry.Resolve(market); err != nil {
		return nil, err
	}
	if x.marketData == nil {
		return []PriceLevel{}, nil
	}
	return x.marketData.Depth(market, side, limit), nil
}

// Deposit credits an owner's ledger balance, moving funds from
// external custody into the ledger.
func (x *Exchange) Deposit(market, owner string, role domain.AssetRole, amount uint64) error {
	mkt, err := x.registry.Resolve(market)
	if err != nil {
		return err
	}
	if owner == "" {
		return &domain.ValidationError{Message: "owner is required"}
	}
	if !role.Valid() {
		return &domain.ValidationError{Message: "invalid asset role"}
	}
	if amount == 0 {
		return &domain.ValidationError{Message: "amount must be positive"}
	}

	x.accounts.Deposit(mkt.Key, owner, role, amount)
	x.publish(domain.Event{
		Type:      domain.EventDeposit,
		Market:    mkt.Key,
		Timestamp: time.Now().UTC(),
		Role:      role,
		To:        owner,
		Amount:    amount,
	})
	x.persistLedger(mkt.Key)
	return nil
}

// Withdraw debits an owner's ledger balance in favor of recipient. A
// zero amount is a no-op.
func (x *Exchange) Withdraw(market, owner string, role domain.AssetRole, amount uint64, recipient string) error {
	mkt, err := x.registry.Resolve(market)
	if err != nil {
		return err
	}
	if owner == "" {
		return &domain.ValidationError{Message: "owner is required"}
	}
	if !role.Valid() {
		return &domain.ValidationError{Message: "invalid asset role"}
	}

	if err := x.accounts.Withdraw(mkt.Key, owner, role, amount); err != nil {
		return err
	}
	if amount == 0 {
		return nil
	}
	x.publish(domain.Event{
		Type:      domain.EventWithdraw,
		Market:    mkt.Key,
		Timestamp: time.Now().UTC(),
		Role:      role,
		From:      owner,
		To:        recipient,
		Amount:    amount,
	})
	x.persistLedger(mkt.Key)
	return nil
}

// Balances returns an owner's live balances in one market.
func (x *Exchange) Balances(market, owner string) (map[domain.AssetRole]uint64, error) {
	mkt, err := x.registry.Resolve(market)
	if err != nil {
		return nil, err
	}
	return map[domain.AssetRole]uint64{
		domain.RoleBase:  x.accounts.Balance(mkt.Key, owner, domain.RoleBase),
		domain.RoleQuote: x.accounts.Balance(mkt.Key, owner, domain.RoleQuote),
	}, nil
}

func (x *Exchange) publish(ev domain.Event) {
	if x.sink != nil {
		x.sink.Publish(ev)
	}
}

// persist writes the market's book and the ledger after a committed
// operation. Failures are logged, not surfaced: the operation itself
// already committed.
func (x *Exchange) persist(market string, eng *engine.Engine) {
	if x.snapshots == nil {
		return
	}
	if err := x.snapshots.SaveBook(market, eng.Snapshot()); err != nil {
		x.logger.Error("failed to persist book snapshot", "market", market, "error", err)
	}
	x.persistLedger(market)
}

func (x *Exchange) persistLedger(market string) {
	if x.snapshots == nil {
		return
	}
	if err := x.snapshots.SaveLedger(x.accounts.Snapshot()); err != nil {
		x.logger.Error("failed to persist ledger snapshot", "market", market, "error", err)
	}
}

// Restore rebuilds all engine, ledger and depth view state from the
// snapshot store. Call once at startup before serving traffic.
func (x *Exchange) Restore() error {
	if x.snapshots == nil {
		return nil
	}

	markets, err := x.snapshots.LoadMarkets()
	if err != nil {
		return err
	}
	for _, m := range markets {
		// Markets already seeded from config keep their config values.
		if regErr := x.registry.Register(m); regErr != nil {
			continue
		}
	}

	entries, err := x.snapshots.LoadLedger()
	if err != nil {
		return err
	}
	if entries != nil {
		x.accounts.Restore(entries)
	}

	for _, key := range x.registry.Keys() {
		snap, ok, err := x.snapshots.LoadBook(key)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		eng, err := x.engineFor(key)
		if err != nil {
			return err
		}
		eng.Restore(snap)
		if x.marketData != nil {
			x.marketData.Seed(key, snap)
		}
	}
	return nil
}
