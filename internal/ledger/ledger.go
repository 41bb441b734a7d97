package ledger

import (
	"sync"

	"github.com/efreitasn/pairbook/internal/domain"
)

// AccountKey identifies one balance: one owner's holdings of one
// asset role within one market.
type AccountKey struct {
	Market string           `json:"market"`
	Owner  string           `json:"owner"`
	Role   domain.AssetRole `json:"role"`
}

// Accounts is the escrow balance table. Balances never go negative:
// they are decremented only by a successful withdraw or by funds
// committed into a resting order, and incremented only by deposits,
// refunds, and fill proceeds.
type Accounts struct {
	mu       sync.RWMutex
	balances map[AccountKey]uint64
}

// NewAccounts creates an empty balance table.
func NewAccounts() *Accounts {
	return &Accounts{balances: make(map[AccountKey]uint64)}
}

// Deposit credits owner's balance. Entries are created implicitly on
// first deposit.
func (a *Accounts) Deposit(market string, owner string, role domain.AssetRole, amount uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.balances[AccountKey{Market: market, Owner: owner, Role: role}] += amount
}

// Withdraw debits owner's balance. The balance already reflects funds
// committed to resting orders as deducted, so a plain comparison is
// the full availability check. A zero amount is a no-op and always
// permitted.
func (a *Accounts) Withdraw(market string, owner string, role domain.AssetRole, amount uint64) error {
	if amount == 0 {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	key := AccountKey{Market: market, Owner: owner, Role: role}
	if a.balances[key] < amount {
		return domain.ErrInsufficientBalance
	}
	a.balances[key] -= amount
	return nil
}

// Balance returns owner's current balance for the given role.
func (a *Accounts) Balance(market string, owner string, role domain.AssetRole) uint64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.balances[AccountKey{Market: market, Owner: owner, Role: role}]
}

// Snapshot captures all non-zero balances for persistence.
func (a *Accounts) Snapshot() []BalanceEntry {
	a.mu.RLock()
	defer a.mu.RUnlock()

	entries := make([]BalanceEntry, 0, len(a.balances))
	for key, amount := range a.balances {
		if amount == 0 {
			continue
		}
		entries = append(entries, BalanceEntry{AccountKey: key, Amount: amount})
	}
	return entries
}

// Restore replaces the table's contents with a previously captured
// snapshot.
func (a *Accounts) Restore(entries []BalanceEntry) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.balances = make(map[AccountKey]uint64, len(entries))
	for _, e := range entries {
		a.balances[e.AccountKey] = e.Amount
	}
}

// BalanceEntry is the serialized form of one account balance.
type BalanceEntry struct {
	AccountKey
	Amount uint64 `json:"amount"`
}
