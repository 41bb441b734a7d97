package engine

import (
	"github.com/efreitasn/pairbook/internal/domain"
)

// BookSide holds the resting orders of one side of one market as a
// circular doubly-linked list threaded through an id-indexed arena.
// Id 0 is the sentinel: sentinel.Next is the best-priced order,
// sentinel.Prev the worst. Entries are ordered by price (ascending for
// the selling side, descending for the buying side) and FIFO among
// equal prices.
type BookSide struct {
	side   domain.Side
	orders map[uint64]*domain.Order // arena, sentinel included at key 0
}

// NewBookSide creates an empty side.
func NewBookSide(side domain.Side) *BookSide {
	return &BookSide{
		side:   side,
		orders: map[uint64]*domain.Order{0: {}},
	}
}

// worse reports whether an order priced p sorts after an order priced
// q on this side. Equal prices are never worse, which makes Insert
// append after existing equal-price entries (time priority).
func (b *BookSide) worse(p, q uint64) bool {
	if b.side == domain.SideSell {
		return p > q
	}
	return p < q
}

// Insert links o into its sorted slot. hint is an order id used as a
// scan starting point; a stale or wrong hint only lengthens the scan,
// never changes the result. Ties on price go after all existing
// entries at that price.
func (b *BookSide) Insert(o *domain.Order, hint uint64) {
	start, ok := b.orders[hint]
	if hint == 0 || !ok {
		b.insertBefore(o, b.scanForward(b.orders[0].Next, o.Price))
		return
	}

	if b.worse(start.Price, o.Price) {
		// The hint overshot: back up to the last entry that is not
		// worse than o, then insert in front of the overshoot.
		cur := hint
		for {
			prev := b.orders[cur].Prev
			if prev == 0 || !b.worse(b.orders[prev].Price, o.Price) {
				break
			}
			cur = prev
		}
		b.insertBefore(o, cur)
		return
	}
	b.insertBefore(o, b.scanForward(start.Next, o.Price))
}

// scanForward walks from id towards the worst end and returns the
// first entry that sorts after price, or 0 when none does.
func (b *BookSide) scanForward(id, price uint64) uint64 {
	for id != 0 && !b.worse(b.orders[id].Price, price) {
		id = b.orders[id].Next
	}
	return id
}

// insertBefore links o directly in front of next (0 appends at the
// worst end).
func (b *BookSide) insertBefore(o *domain.Order, next uint64) {
	prev := b.orders[next].Prev
	o.Prev, o.Next = prev, next
	b.orders[prev].Next = o.ID
	b.orders[next].Prev = o.ID
	b.orders[o.ID] = o
}

// relink restores a previously removed order using its recorded Prev
// and Next links. Restores must happen in reverse removal order so
// that both neighbours exist again when the order between them
// returns.
func (b *BookSide) relink(o *domain.Order) {
	b.orders[o.Prev].Next = o.ID
	b.orders[o.Next].Prev = o.ID
	b.orders[o.ID] = o
}

// Remove unlinks the order with the given id. The sentinel is never
// removable.
func (b *BookSide) Remove(id uint64) error {
	if id == 0 {
		return domain.ErrSentinelImmutable
	}
	o, ok := b.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	b.orders[o.Prev].Next = o.Next
	b.orders[o.Next].Prev = o.Prev
	delete(b.orders, id)
	return nil
}

// Get returns the order with the given id.
func (b *BookSide) Get(id uint64) (*domain.Order, error) {
	if id == 0 {
		return nil, domain.ErrOrderNotFound
	}
	o, ok := b.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return o, nil
}

// PeekBest returns the id of the best-priced order, or 0 when the
// side is empty.
func (b *BookSide) PeekBest() uint64 {
	return b.orders[0].Next
}

// IsEmpty reports whether the side holds no orders.
func (b *BookSide) IsEmpty() bool {
	return b.orders[0].Next == 0
}

// Len returns the number of resting orders.
func (b *BookSide) Len() int {
	return len(b.orders) - 1
}

// Walk visits orders best to worst. The callback returns false to
// stop. The book must not be mutated during the walk.
func (b *BookSide) Walk(fn func(*domain.Order) bool) {
	for id := b.orders[0].Next; id != 0; id = b.orders[id].Next {
		if !fn(b.orders[id]) {
			return
		}
	}
}
