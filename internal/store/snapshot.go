package store

import (
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/pebble"

	"github.com/efreitasn/pairbook/internal/domain"
	"github.com/efreitasn/pairbook/internal/ledger"
)

// SnapshotStore persists book and ledger snapshots in a pebble
// database. Writes are synced so a restart never loses a committed
// snapshot.
type SnapshotStore struct {
	db *pebble.DB
}

// Open opens or creates the database at path.
func Open(path string) (*SnapshotStore, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open snapshot store: %w", err)
	}
	return &SnapshotStore{db: db}, nil
}

func (s *SnapshotStore) Close() error { return s.db.Close() }

// keys: book:<market-key>, ledger, markets
func kBook(market string) []byte { return append([]byte("book:"), market...) }
func kLedger() []byte            { return []byte("ledger") }
func kMarkets() []byte           { return []byte("markets") }

// SaveBook persists one market's book snapshot.
func (s *SnapshotStore) SaveBook(market string, snap domain.BookSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal book snapshot: %w", err)
	}
	if err := s.db.Set(kBook(market), data, pebble.Sync); err != nil {
		return fmt.Errorf("save book snapshot: %w", err)
	}
	return nil
}

// LoadBook loads one market's book snapshot. The second return value
// is false when no snapshot exists.
func (s *SnapshotStore) LoadBook(market string) (domain.BookSnapshot, bool, error) {
	data, closer, err := s.db.Get(kBook(market))
	if err == pebble.ErrNotFound {
		return domain.BookSnapshot{}, false, nil
	}
	if err != nil {
		return domain.BookSnapshot{}, false, fmt.Errorf("load book snapshot: %w", err)
	}
	defer closer.Close()

	var snap domain.BookSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return domain.BookSnapshot{}, false, fmt.Errorf("unmarshal book snapshot: %w", err)
	}
	return snap, true, nil
}

// SaveLedger persists the full balance table.
func (s *SnapshotStore) SaveLedger(entries []ledger.BalanceEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshal ledger snapshot: %w", err)
	}
	if err := s.db.Set(kLedger(), data, pebble.Sync); err != nil {
		return fmt.Errorf("save ledger snapshot: %w", err)
	}
	return nil
}

// LoadLedger loads the balance table. Returns an empty slice when
// nothing was persisted yet.
func (s *SnapshotStore) LoadLedger() ([]ledger.BalanceEntry, error) {
	data, closer, err := s.db.Get(kLedger())
	if err == pebble.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load ledger snapshot: %w", err)
	}
	defer closer.Close()

	var entries []ledger.BalanceEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("unmarshal ledger snapshot: %w", err)
	}
	return entries, nil
}

// SaveMarkets persists the market configurations so a restart can
// rebuild the registry.
func (s *SnapshotStore) SaveMarkets(markets []domain.Market) error {
	data, err := json.Marshal(markets)
	if err != nil {
		return fmt.Errorf("marshal markets: %w", err)
	}
	if err := s.db.Set(kMarkets(), data, pebble.Sync); err != nil {
		return fmt.Errorf("save markets: %w", err)
	}
	return nil
}

// LoadMarkets loads the persisted market configurations.
func (s *SnapshotStore) LoadMarkets() ([]domain.Market, error) {
	data, closer, err := s.db.Get(kMarkets())
	if err == pebble.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load markets: %w", err)
	}
	defer closer.Close()

	var markets []domain.Market
	if err := json.Unmarshal(data, &markets); err != nil {
		return nil, fmt.Errorf("unmarshal markets: %w", err)
	}
	return markets, nil
}
