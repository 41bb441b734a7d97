package domain

// Side indicates whether an order is buying or selling the base asset.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Valid reports whether s is a known side.
func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// AssetRole distinguishes the two assets of a market.
type AssetRole string

const (
	RoleBase  AssetRole = "base"
	RoleQuote AssetRole = "quote"
)

// Valid reports whether r is a known asset role.
func (r AssetRole) Valid() bool {
	return r == RoleBase || r == RoleQuote
}

// Gives returns the role of the asset a party on side s hands over in
// a fill: sellers give base, buyers give quote.
func (s Side) Gives() AssetRole {
	if s == SideSell {
		return RoleBase
	}
	return RoleQuote
}

// Order is a resting order on one side of one market's book. Prev and
// Next are intrusive doubly-linked list ids within the order's
// BookSide; id 0 is the sentinel and is never assigned to a real
// order. Ids are assigned monotonically per market and never reused.
type Order struct {
	ID      uint64 `json:"id"`
	Owner   string `json:"owner"`
	Side    Side   `json:"side"`
	BaseAmt uint64 `json:"base_amt"` // remaining base quantity, > 0 while resting
	Price   uint64 `json:"price"`    // quote native units per whole base unit
	Prev    uint64 `json:"-"`
	Next    uint64 `json:"-"`
}

// RestingOrder is the serialized form of a resting order, one entry of
// a book snapshot. List links are implied by sequence order.
type RestingOrder struct {
	ID      uint64 `json:"id"`
	Owner   string `json:"owner"`
	BaseAmt uint64 `json:"base_amt"`
	Price   uint64 `json:"price"`
}

// BookSnapshot is the persisted state of one market's book: both sides
// walked best to worst, plus the id counter.
type BookSnapshot struct {
	Sells  []RestingOrder `json:"sells"`
	Buys   []RestingOrder `json:"buys"`
	LastID uint64         `json:"last_id"`
}
