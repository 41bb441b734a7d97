package engine

import (
	"fmt"
	"testing"

	"pgregory.net/rapid"

	"github.com/efreitasn/pairbook/internal/domain"
)

// Checks the sort invariant: walking sentinel to sentinel, the selling
// side is non-decreasing in price and the buying side non-increasing,
// regardless of the insertion hints used.

func checkSorted(t *rapid.T, b *BookSide, side domain.Side) {
	t.Helper()
	var prev *domain.Order
	b.Walk(func(o *domain.Order) bool {
		if prev != nil {
			if side == domain.SideSell && o.Price < prev.Price {
				t.Fatalf("sell side: price should be non-decreasing, got %d after %d", o.Price, prev.Price)
			}
			if side == domain.SideBuy && o.Price > prev.Price {
				t.Fatalf("buy side: price should be non-increasing, got %d after %d", o.Price, prev.Price)
			}
			if o.Price == prev.Price && o.ID < prev.ID {
				t.Fatalf("equal price %d: ids should be ascending (time priority), got %d after %d", o.Price, o.ID, prev.ID)
			}
		}
		prev = o
		return true
	})
}

func TestProperty_SideSortInvariantWithArbitraryHints(t *testing.T) {
	for _, side := range []domain.Side{domain.SideSell, domain.SideBuy} {
		t.Run(string(side), func(t *testing.T) {
			rapid.Check(t, func(t *rapid.T) {
				b := NewBookSide(side)
				n := rapid.IntRange(1, 60).Draw(t, "numOrders")

				for i := 0; i < n; i++ {
					price := rapid.Uint64Range(1, 20).Draw(t, fmt.Sprintf("price-%d", i))
					// Hints drawn from a range wider than the id space
					// so some are stale or plain wrong.
					hint := rapid.Uint64Range(0, uint64(n)+10).Draw(t, fmt.Sprintf("hint-%d", i))
					b.Insert(&domain.Order{
						ID:      uint64(i + 1),
						Owner:   "owner",
						Side:    side,
						BaseAmt: 1,
						Price:   price,
					}, hint)
				}

				if b.Len() != n {
					t.Fatalf("Len() = %d, want %d", b.Len(), n)
				}
				checkSorted(t, b, side)
			})
		})
	}
}

func TestProperty_SideSortInvariantUnderRemovals(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		b := NewBookSide(domain.SideSell)
		n := rapid.IntRange(1, 40).Draw(t, "numOrders")
		alive := make(map[uint64]bool)

		for i := 0; i < n; i++ {
			id := uint64(i + 1)
			price := rapid.Uint64Range(1, 15).Draw(t, fmt.Sprintf("price-%d", i))
			b.Insert(&domain.Order{ID: id, Owner: "owner", Side: domain.SideSell, BaseAmt: 1, Price: price}, 0)
			alive[id] = true

			if rapid.Bool().Draw(t, fmt.Sprintf("remove-%d", i)) {
				victim := rapid.Uint64Range(1, id).Draw(t, fmt.Sprintf("victim-%d", i))
				err := b.Remove(victim)
				if alive[victim] {
					if err != nil {
						t.Fatalf("Remove(%d) = %v, want nil", victim, err)
					}
					delete(alive, victim)
				} else if err == nil {
					t.Fatalf("Remove(%d) succeeded twice", victim)
				}
			}
		}

		if b.Len() != len(alive) {
			t.Fatalf("Len() = %d, want %d", b.Len(), len(alive))
		}
		checkSorted(t, b, domain.SideSell)
	})
}
