package engine

import "github.com/efreitasn/pairbook/internal/domain"

// SettlementAdapter moves asset value on behalf of the matching core.
// The core calls it synchronously while holding the market lock; an
// implementation must either complete a call fully or leave balances
// untouched and return an error.
//
// Transfer and UndoTransfer take an escrowed flag. When true the source
// side of the transfer was already debited when the giving order was
// placed, so only the credit to the receiver remains to be applied (or
// reversed).
type SettlementAdapter interface {
	// Escrow debits owner's balance in the given role to back a
	// resting order.
	Escrow(market *domain.Market, role domain.AssetRole, owner string, amount uint64) error

	// Refund returns previously escrowed funds to owner.
	Refund(market *domain.Market, role domain.AssetRole, owner string, amount uint64)

	// Transfer moves amount of the asset in role from one party to
	// another as one leg of a fill.
	Transfer(market *domain.Market, role domain.AssetRole, from, to string, amount uint64, escrowed bool) error

	// UndoTransfer reverses a previously successful Transfer with the
	// same arguments. It is called during rollback of a rejected
	// operation and must not fail.
	UndoTransfer(market *domain.Market, role domain.AssetRole, from, to string, amount uint64, escrowed bool)
}
