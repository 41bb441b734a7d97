package ledger

import "github.com/efreitasn/pairbook/internal/domain"

// Adapter settles fills against an Accounts table. Escrowed transfers
// only credit the receiver, since the giving side's funds were already
// debited when the resting order was placed.
type Adapter struct {
	accounts *Accounts
}

// NewAdapter wraps accounts as a settlement adapter.
func NewAdapter(accounts *Accounts) *Adapter {
	return &Adapter{accounts: accounts}
}

// Escrow debits owner's live balance to back a resting order.
func (a *Adapter) Escrow(market *domain.Market, role domain.AssetRole, owner string, amount uint64) error {
	return a.accounts.Withdraw(market.Key, owner, role, amount)
}

// Refund returns escrowed funds to owner's live balance.
func (a *Adapter) Refund(market *domain.Market, role domain.AssetRole, owner string, amount uint64) {
	a.accounts.Deposit(market.Key, owner, role, amount)
}

// Transfer moves one leg of a fill between two ledger accounts.
func (a *Adapter) Transfer(market *domain.Market, role domain.AssetRole, from, to string, amount uint64, escrowed bool) error {
	if !escrowed {
		if err := a.accounts.Withdraw(market.Key, from, role, amount); err != nil {
			return err
		}
	}
	a.accounts.Deposit(market.Key, to, role, amount)
	return nil
}

// UndoTransfer reverses a previously successful Transfer.
func (a *Adapter) UndoTransfer(market *domain.Market, role domain.AssetRole, from, to string, amount uint64, escrowed bool) {
	// The receiver was just credited with amount, so this withdraw
	// cannot fail.
	_ = a.accounts.Withdraw(market.Key, to, role, amount)
	if !escrowed {
		a.accounts.Deposit(market.Key, from, role, amount)
	}
}
