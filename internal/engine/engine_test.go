package engine

import (
	"errors"
	"testing"

	"github.com/efreitasn/pairbook/internal/domain"
	"github.com/efreitasn/pairbook/internal/ledger"
)

// eventRecorder collects published events for assertions.
type eventRecorder struct {
	events []domain.Event
}

func (r *eventRecorder) Publish(e domain.Event) {
	r.events = append(r.events, e)
}

func (r *eventRecorder) byType(t domain.EventType) []domain.Event {
	var out []domain.Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// faultyAdapter wraps the ledger adapter and rejects outgoing
// transfers for selected parties, simulating a live settlement backend
// that can fail per leg.
type faultyAdapter struct {
	*ledger.Adapter
	failFrom map[string]bool
}

func (f *faultyAdapter) Transfer(m *domain.Market, role domain.AssetRole, from, to string, amount uint64, escrowed bool) error {
	if f.failFrom[from] {
		return errors.New("transfer rejected")
	}
	return f.Adapter.Transfer(m, role, from, to, amount, escrowed)
}

// newTestEngine creates an engine over a fresh ledger. Base amounts
// are in tenths of a base unit (baseScale 1).
func newTestEngine(dust, tic uint64) (*Engine, *ledger.Accounts, *eventRecorder) {
	market := &domain.Market{Key: "ETH/DAI", BaseScale: 1, QuoteScale: 0, Dust: dust, Tic: tic}
	accounts := ledger.NewAccounts()
	rec := &eventRecorder{}
	return New(market, ledger.NewAdapter(accounts), rec), accounts, rec
}

func fund(t *testing.T, accounts *ledger.Accounts, owner string, role domain.AssetRole, amount uint64) {
	t.Helper()
	accounts.Deposit("ETH/DAI", owner, role, amount)
}

func balance(accounts *ledger.Accounts, owner string, role domain.AssetRole) uint64 {
	return accounts.Balance("ETH/DAI", owner, role)
}

func TestLimit_NoMatch_RestsOnBook(t *testing.T) {
	e, accounts, rec := newTestEngine(0, 1)
	fund(t, accounts, "seller", domain.RoleBase, 10)

	res, err := e.Limit("seller", domain.SideSell, 10, 500, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.RestingID != 1 {
		t.Errorf("RestingID = %d, want 1", res.RestingID)
	}
	if res.Left != 10 || res.TotalQuote != 0 {
		t.Errorf("Left = %d, TotalQuote = %d, want 10 and 0", res.Left, res.TotalQuote)
	}

	// The full amount is escrowed.
	if got := balance(accounts, "seller", domain.RoleBase); got != 0 {
		t.Errorf("seller base balance = %d, want 0", got)
	}

	o, err := e.GetOrder(domain.SideSell, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.BaseAmt != 10 || o.Price != 500 {
		t.Errorf("resting order = %+v", o)
	}

	makes := rec.byType(domain.EventMake)
	if len(makes) != 1 || makes[0].OrderID != 1 || makes[0].BaseAmt != 10 {
		t.Errorf("make events = %+v", makes)
	}
}

func TestLimit_FullMatch(t *testing.T) {
	e, accounts, rec := newTestEngine(0, 1)
	fund(t, accounts, "maker", domain.RoleBase, 10)
	fund(t, accounts, "taker", domain.RoleQuote, 500)

	// Maker sells 1.0 base at 500.
	if _, err := e.Limit("maker", domain.SideSell, 10, 500, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Taker buys 1.0 base at 500, fully filled.
	res, err := e.Limit("taker", domain.SideBuy, 10, 500, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.RestingID != 0 {
		t.Errorf("RestingID = %d, want 0 (fully filled)", res.RestingID)
	}
	if res.Left != 0 || res.TotalQuote != 500 {
		t.Errorf("Left = %d, TotalQuote = %d, want 0 and 500", res.Left, res.TotalQuote)
	}

	if got := balance(accounts, "maker", domain.RoleQuote); got != 500 {
		t.Errorf("maker quote balance = %d, want 500", got)
	}
	if got := balance(accounts, "maker", domain.RoleBase); got != 0 {
		t.Errorf("maker base balance = %d, want 0", got)
	}
	if got := balance(accounts, "taker", domain.RoleBase); got != 10 {
		t.Errorf("taker base balance = %d, want 10", got)
	}
	if got := balance(accounts, "taker", domain.RoleQuote); got != 0 {
		t.Errorf("taker quote balance = %d, want 0", got)
	}

	if e.book(domain.SideSell).Len() != 0 {
		t.Error("sell side should be empty after full fill")
	}

	takes := rec.byType(domain.EventTake)
	if len(takes) != 1 {
		t.Fatalf("expected 1 take event, got %d", len(takes))
	}
	if takes[0].BaseAmt != 10 || takes[0].QuoteAmt != 500 || takes[0].Taker != "taker" {
		t.Errorf("take event = %+v", takes[0])
	}
	if takes[0].TradeID == "" {
		t.Error("expected trade id to be assigned")
	}
}

func TestLimit_MatchesAcrossPriceLevels(t *testing.T) {
	e, accounts, _ := newTestEngine(0, 1)
	fund(t, accounts, "buyer", domain.RoleQuote, 1100)
	fund(t, accounts, "taker", domain.RoleBase, 13)

	// Buyer places buy 1.0 at 600, then buy 1.0 at 500.
	if _, err := e.Limit("buyer", domain.SideBuy, 10, 600, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := e.Limit("buyer", domain.SideBuy, 10, 500, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Taker sells 1.3 at 400: consumes the 600 level fully and 0.3 of
	// the 500 level, at the resting prices.
	res, err := e.Limit("taker", domain.SideSell, 13, 400, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.TotalQuote != 750 {
		t.Errorf("TotalQuote = %d, want 750 (600 + 0.3*500)", res.TotalQuote)
	}
	if res.Left != 0 || res.RestingID != 0 {
		t.Errorf("Left = %d, RestingID = %d, want 0 and 0", res.Left, res.RestingID)
	}

	// First order fully consumed, second reduced to 0.7.
	if _, err := e.GetOrder(domain.SideBuy, 1); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Errorf("order 1 should be gone, got %v", err)
	}
	o, err := e.GetOrder(domain.SideBuy, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.BaseAmt != 7 {
		t.Errorf("order 2 BaseAmt = %d, want 7", o.BaseAmt)
	}

	if got := balance(accounts, "taker", domain.RoleQuote); got != 750 {
		t.Errorf("taker quote balance = %d, want 750", got)
	}
	if got := balance(accounts, "buyer", domain.RoleBase); got != 13 {
		t.Errorf("buyer base balance = %d, want 13", got)
	}
}

func TestLimit_EqualPriceFillsOldestFirst(t *testing.T) {
	e, accounts, _ := newTestEngine(0, 1)
	fund(t, accounts, "alice", domain.RoleBase, 10)
	fund(t, accounts, "bob", domain.RoleBase, 10)
	fund(t, accounts, "taker", domain.RoleQuote, 1000)

	if _, err := e.Limit("alice", domain.SideSell, 10, 100, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := e.Limit("bob", domain.SideSell, 10, 100, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A partial take at the level must exhaust alice before touching bob.
	if _, err := e.Limit("taker", domain.SideBuy, 12, 100, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := e.GetOrder(domain.SideSell, 1); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Errorf("alice's order should be fully consumed, got %v", err)
	}
	o, err := e.GetOrder(domain.SideSell, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.BaseAmt != 8 {
		t.Errorf("bob's order BaseAmt = %d, want 8", o.BaseAmt)
	}
}

func TestLimit_TicViolation(t *testing.T) {
	e, accounts, rec := newTestEngine(0, 100)
	fund(t, accounts, "seller", domain.RoleBase, 10)

	_, err := e.Limit("seller", domain.SideSell, 10, 550, 0)
	if !errors.Is(err, domain.ErrTicViolation) {
		t.Fatalf("expected ErrTicViolation, got %v", err)
	}

	if e.book(domain.SideSell).Len() != 0 {
		t.Error("book should be unchanged")
	}
	if got := balance(accounts, "seller", domain.RoleBase); got != 10 {
		t.Errorf("seller base balance = %d, want 10 (untouched)", got)
	}
	if len(rec.events) != 0 {
		t.Errorf("expected no events, got %d", len(rec.events))
	}
}

func TestLimit_TakerDustRemainderNotRested(t *testing.T) {
	e, accounts, _ := newTestEngine(5, 1)
	fund(t, accounts, "maker", domain.RoleBase, 10)
	fund(t, accounts, "taker", domain.RoleQuote, 1000)

	if _, err := e.Limit("maker", domain.SideSell, 10, 100, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 1.3 buy fills 1.0; the 0.3 remainder is below dust 0.5 and is
	// not rested. The taker keeps its unspent quote.
	res, err := e.Limit("taker", domain.SideBuy, 13, 100, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.RestingID != 0 {
		t.Errorf("RestingID = %d, want 0", res.RestingID)
	}
	if res.Left != 3 {
		t.Errorf("Left = %d, want 3", res.Left)
	}
	if e.book(domain.SideBuy).Len() != 0 {
		t.Error("no buy order should rest")
	}
	if got := balance(accounts, "taker", domain.RoleQuote); got != 900 {
		t.Errorf("taker quote balance = %d, want 900", got)
	}
}

func TestLimit_MakerDustRemainderAbsorbed(t *testing.T) {
	e, accounts, _ := newTestEngine(5, 1)
	fund(t, accounts, "maker", domain.RoleBase, 12)
	fund(t, accounts, "taker", domain.RoleQuote, 1000)

	if _, err := e.Limit("maker", domain.SideSell, 12, 100, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Fill 1.0 of the 1.2 resting; the 0.2 remainder is below dust,
	// leaves the book, and is not refunded to anyone.
	if _, err := e.Limit("taker", domain.SideBuy, 10, 100, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if e.book(domain.SideSell).Len() != 0 {
		t.Error("dusted maker order should leave the book")
	}
	if got := balance(accounts, "maker", domain.RoleBase); got != 0 {
		t.Errorf("maker base balance = %d, want 0 (dust absorbed, not refunded)", got)
	}
	if got := balance(accounts, "taker", domain.RoleBase); got != 10 {
		t.Errorf("taker base balance = %d, want 10", got)
	}
}

func TestLimit_MakerSettlementFailureEvictsAndContinues(t *testing.T) {
	market := &domain.Market{Key: "ETH/DAI", BaseScale: 1, QuoteScale: 0, Dust: 0, Tic: 1}
	accounts := ledger.NewAccounts()
	rec := &eventRecorder{}
	adapter := &faultyAdapter{Adapter: ledger.NewAdapter(accounts), failFrom: map[string]bool{"bad": true}}
	e := New(market, adapter, rec)

	fund(t, accounts, "bad", domain.RoleBase, 10)
	fund(t, accounts, "good", domain.RoleBase, 10)
	fund(t, accounts, "taker", domain.RoleQuote, 100)

	if _, err := e.Limit("bad", domain.SideSell, 10, 100, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := e.Limit("good", domain.SideSell, 10, 100, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The bad maker's leg fails: its order is evicted, escrow refunded,
	// and matching continues against the good maker without consuming
	// any taker amount for the failed step.
	res, err := e.Limit("taker", domain.SideBuy, 10, 100, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Left != 0 || res.TotalQuote != 100 {
		t.Errorf("Left = %d, TotalQuote = %d, want 0 and 100", res.Left, res.TotalQuote)
	}

	if _, err := e.GetOrder(domain.SideSell, 1); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Errorf("evicted order should be gone, got %v", err)
	}
	if got := balance(accounts, "bad", domain.RoleBase); got != 10 {
		t.Errorf("bad maker base balance = %d, want 10 (escrow refunded)", got)
	}
	if got := balance(accounts, "taker", domain.RoleBase); got != 10 {
		t.Errorf("taker base balance = %d, want 10 (filled by good maker)", got)
	}

	failed := rec.byType(domain.EventSwapFailed)
	if len(failed) != 1 || failed[0].OrderID != 1 || failed[0].Owner != "bad" {
		t.Errorf("swap.failed events = %+v", failed)
	}
}

func TestLimit_TakerFaultAbortsAtomically(t *testing.T) {
	e, accounts, rec := newTestEngine(0, 1)
	fund(t, accounts, "maker", domain.RoleBase, 10)
	// Taker has only half the quote needed.
	fund(t, accounts, "taker", domain.RoleQuote, 250)

	if _, err := e.Limit("maker", domain.SideSell, 10, 500, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rec.events = nil

	_, err := e.Limit("taker", domain.SideBuy, 10, 500, 0)
	if !errors.Is(err, domain.ErrTakerFault) {
		t.Fatalf("expected ErrTakerFault, got %v", err)
	}

	// Book and balances exactly as before the call.
	o, err := e.GetOrder(domain.SideSell, 1)
	if err != nil {
		t.Fatalf("resting order should still exist: %v", err)
	}
	if o.BaseAmt != 10 {
		t.Errorf("resting BaseAmt = %d, want 10", o.BaseAmt)
	}
	if got := balance(accounts, "taker", domain.RoleQuote); got != 250 {
		t.Errorf("taker quote balance = %d, want 250", got)
	}
	if got := balance(accounts, "taker", domain.RoleBase); got != 0 {
		t.Errorf("taker base balance = %d, want 0", got)
	}
	if len(rec.events) != 0 {
		t.Errorf("rejected call must publish no events, got %+v", rec.events)
	}
}

func TestFok_SatisfiedWithinLimit(t *testing.T) {
	e, accounts, _ := newTestEngine(0, 1)
	fund(t, accounts, "maker", domain.RoleBase, 10)
	fund(t, accounts, "taker", domain.RoleQuote, 500)

	if _, err := e.Limit("maker", domain.SideSell, 10, 500, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	res, err := e.Fok("taker", domain.SideBuy, 10, 500, 500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Left != 0 || res.TotalQuote != 500 {
		t.Errorf("Left = %d, TotalQuote = %d, want 0 and 500", res.Left, res.TotalQuote)
	}
	if got := balance(accounts, "taker", domain.RoleBase); got != 10 {
		t.Errorf("taker base balance = %d, want 10", got)
	}
}

func TestFok_RejectedOverLimitRollsBack(t *testing.T) {
	e, accounts, rec := newTestEngine(0, 1)
	fund(t, accounts, "maker", domain.RoleBase, 10)
	fund(t, accounts, "taker", domain.RoleQuote, 500)

	if _, err := e.Limit("maker", domain.SideSell, 10, 500, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rec.events = nil

	// Total quote 500 exceeds the 400 ceiling: the whole call is
	// rejected and every effect undone.
	_, err := e.Fok("taker", domain.SideBuy, 10, 500, 400)
	if !errors.Is(err, domain.ErrFokNotSatisfied) {
		t.Fatalf("expected ErrFokNotSatisfied, got %v", err)
	}

	o, err := e.GetOrder(domain.SideSell, 1)
	if err != nil {
		t.Fatalf("resting order should be restored: %v", err)
	}
	if o.BaseAmt != 10 {
		t.Errorf("resting BaseAmt = %d, want 10", o.BaseAmt)
	}
	if got := balance(accounts, "taker", domain.RoleQuote); got != 500 {
		t.Errorf("taker quote balance = %d, want 500", got)
	}
	if got := balance(accounts, "maker", domain.RoleQuote); got != 0 {
		t.Errorf("maker quote balance = %d, want 0", got)
	}
	if len(rec.events) != 0 {
		t.Errorf("rejected fok must publish no events, got %+v", rec.events)
	}
}

func TestFok_SellBelowFloorRejected(t *testing.T) {
	e, accounts, _ := newTestEngine(0, 1)
	fund(t, accounts, "buyer", domain.RoleQuote, 500)
	fund(t, accounts, "taker", domain.RoleBase, 10)

	if _, err := e.Limit("buyer", domain.SideBuy, 10, 500, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A selling taker treats totalLimit as a floor: proceeds of 500
	// fall short of 600.
	_, err := e.Fok("taker", domain.SideSell, 10, 400, 600)
	if !errors.Is(err, domain.ErrFokNotSatisfied) {
		t.Fatalf("expected ErrFokNotSatisfied, got %v", err)
	}

	o, err := e.GetOrder(domain.SideBuy, 1)
	if err != nil {
		t.Fatalf("resting order should be restored: %v", err)
	}
	if o.BaseAmt != 10 {
		t.Errorf("resting BaseAmt = %d, want 10", o.BaseAmt)
	}
	if got := balance(accounts, "taker", domain.RoleBase); got != 10 {
		t.Errorf("taker base balance = %d, want 10", got)
	}
}

func TestFok_ZeroMatchRejected(t *testing.T) {
	e, accounts, _ := newTestEngine(0, 1)
	fund(t, accounts, "taker", domain.RoleQuote, 500)

	_, err := e.Fok("taker", domain.SideBuy, 10, 500, 500)
	if !errors.Is(err, domain.ErrFokNotSatisfied) {
		t.Fatalf("expected ErrFokNotSatisfied on empty book, got %v", err)
	}
}

func TestFok_NeverRestsRemainder(t *testing.T) {
	e, accounts, _ := newTestEngine(0, 1)
	fund(t, accounts, "maker", domain.RoleBase, 10)
	fund(t, accounts, "taker", domain.RoleQuote, 2000)

	if _, err := e.Limit("maker", domain.SideSell, 10, 500, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	res, err := e.Fok("taker", domain.SideBuy, 20, 500, 2000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Left != 10 || res.TotalQuote != 500 {
		t.Errorf("Left = %d, TotalQuote = %d, want 10 and 500", res.Left, res.TotalQuote)
	}
	if e.book(domain.SideBuy).Len() != 0 {
		t.Error("fok must never rest a remainder")
	}
}

func TestCancel(t *testing.T) {
	e, accounts, rec := newTestEngine(0, 1)
	fund(t, accounts, "seller", domain.RoleBase, 10)

	if _, err := e.Limit("seller", domain.SideSell, 10, 500, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Non-owner cancel is rejected and the order stays.
	if err := e.Cancel("intruder", domain.SideSell, 1); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if _, err := e.GetOrder(domain.SideSell, 1); err != nil {
		t.Fatalf("order should still be present: %v", err)
	}

	if err := e.Cancel("seller", domain.SideSell, 0); !errors.Is(err, domain.ErrSentinelImmutable) {
		t.Errorf("expected ErrSentinelImmutable, got %v", err)
	}
	if err := e.Cancel("seller", domain.SideSell, 42); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Errorf("expected ErrOrderNotFound, got %v", err)
	}

	// Owner cancel removes the order and refunds the escrow.
	if err := e.Cancel("seller", domain.SideSell, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := e.GetOrder(domain.SideSell, 1); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Errorf("cancelled order should be gone, got %v", err)
	}
	if got := balance(accounts, "seller", domain.RoleBase); got != 10 {
		t.Errorf("seller base balance = %d, want 10 (refunded)", got)
	}

	cancels := rec.byType(domain.EventCancel)
	if len(cancels) != 1 || cancels[0].OrderID != 1 {
		t.Errorf("cancel events = %+v", cancels)
	}
}

func TestCancel_BuyRefundsFlooredQuoteEscrow(t *testing.T) {
	e, accounts, _ := newTestEngine(0, 1)
	fund(t, accounts, "buyer", domain.RoleQuote, 10)

	// 0.3 base at price 5: escrow floor(0.3*5) = 1.
	if _, err := e.Limit("buyer", domain.SideBuy, 3, 5, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := balance(accounts, "buyer", domain.RoleQuote); got != 9 {
		t.Errorf("buyer quote balance = %d, want 9 after floored escrow", got)
	}

	if err := e.Cancel("buyer", domain.SideBuy, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := balance(accounts, "buyer", domain.RoleQuote); got != 10 {
		t.Errorf("buyer quote balance = %d, want 10 after refund", got)
	}
}

func TestLimit_InsufficientEscrowRejected(t *testing.T) {
	e, accounts, _ := newTestEngine(0, 1)
	fund(t, accounts, "seller", domain.RoleBase, 5)

	_, err := e.Limit("seller", domain.SideSell, 10, 500, 0)
	if !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if e.book(domain.SideSell).Len() != 0 {
		t.Error("book should be unchanged")
	}
	if got := balance(accounts, "seller", domain.RoleBase); got != 5 {
		t.Errorf("seller base balance = %d, want 5", got)
	}
}

func TestLimit_Validation(t *testing.T) {
	e, _, _ := newTestEngine(0, 1)

	var validationErr *domain.ValidationError
	if _, err := e.Limit("", domain.SideSell, 10, 500, 0); !errors.As(err, &validationErr) {
		t.Errorf("empty owner: expected ValidationError, got %v", err)
	}
	if _, err := e.Limit("seller", domain.Side("hold"), 10, 500, 0); !errors.As(err, &validationErr) {
		t.Errorf("bad side: expected ValidationError, got %v", err)
	}
	if _, err := e.Limit("seller", domain.SideSell, 0, 500, 0); !errors.As(err, &validationErr) {
		t.Errorf("zero amount: expected ValidationError, got %v", err)
	}
}

func TestSnapshotRestore(t *testing.T) {
	e, accounts, _ := newTestEngine(0, 1)
	fund(t, accounts, "seller", domain.RoleBase, 30)
	fund(t, accounts, "buyer", domain.RoleQuote, 10000)

	if _, err := e.Limit("seller", domain.SideSell, 10, 500, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := e.Limit("seller", domain.SideSell, 20, 400, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := e.Limit("buyer", domain.SideBuy, 10, 300, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snap := e.Snapshot()
	if snap.LastID != 3 {
		t.Errorf("LastID = %d, want 3", snap.LastID)
	}
	if len(snap.Sells) != 2 || snap.Sells[0].Price != 400 || snap.Sells[1].Price != 500 {
		t.Errorf("Sells = %+v", snap.Sells)
	}
	if len(snap.Buys) != 1 || snap.Buys[0].Price != 300 {
		t.Errorf("Buys = %+v", snap.Buys)
	}

	restored, _, _ := newTestEngine(0, 1)
	restored.Restore(snap)

	again := restored.Snapshot()
	if again.LastID != snap.LastID || len(again.Sells) != 2 || len(again.Buys) != 1 {
		t.Fatalf("restored snapshot mismatch: %+v", again)
	}
	if again.Sells[0].ID != snap.Sells[0].ID || again.Sells[0].BaseAmt != snap.Sells[0].BaseAmt {
		t.Errorf("restored best sell mismatch: %+v", again.Sells[0])
	}
}
