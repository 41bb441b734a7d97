package domain

import (
	"fmt"
	"sync"
)

// MaxAssetScale is the largest supported number of native decimals for
// either asset of a market. 10^19 no longer fits in uint64.
const MaxAssetScale = 18

// Market is one configured pair of assets. The base asset is the one
// being bought or sold; the quote asset is the one it is priced in.
// Markets are immutable after creation.
type Market struct {
	Key        string `json:"key"`
	BaseScale  uint   `json:"base_scale"`  // native decimals of the base asset
	QuoteScale uint   `json:"quote_scale"` // native decimals of the quote asset
	Dust       uint64 `json:"dust"`        // minimum resting base quantity, base native units
	Tic        uint64 `json:"tic"`         // minimum price increment, quote native units
}

// Validate checks the market parameters.
func (m *Market) Validate() error {
	if m.Key == "" {
		return &ValidationError{Message: "market key is required"}
	}
	if m.BaseScale > MaxAssetScale || m.QuoteScale > MaxAssetScale {
		return &ValidationError{
			Message: fmt.Sprintf("asset scale must be at most %d", MaxAssetScale),
		}
	}
	if m.Tic == 0 {
		return &ValidationError{Message: "tic must be a positive integer"}
	}
	return nil
}

// MarketRegistry is a thread-safe map of market key → Market. The
// matching core consults it for configuration; it never mutates a
// market after registration.
type MarketRegistry struct {
	mu      sync.RWMutex
	markets map[string]*Market
}

// NewMarketRegistry creates an empty MarketRegistry.
func NewMarketRegistry() *MarketRegistry {
	return &MarketRegistry{markets: make(map[string]*Market)}
}

// Register adds a market. It returns ErrMarketAlreadyExists if the key
// is taken and a ValidationError if the parameters are invalid.
func (r *MarketRegistry) Register(m Market) error {
	if err := m.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.markets[m.Key]; exists {
		return ErrMarketAlreadyExists
	}
	r.markets[m.Key] = &m
	return nil
}

// Resolve returns the market for the given key. It returns
// ErrMarketNotFound if the market does not exist.
func (r *MarketRegistry) Resolve(key string) (*Market, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.markets[key]
	if !ok {
		return nil, ErrMarketNotFound
	}
	return m, nil
}

// Keys returns the keys of all registered markets.
func (r *MarketRegistry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.markets))
	for k := range r.markets {
		keys = append(keys, k)
	}
	return keys
}
