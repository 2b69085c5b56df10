package storage

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/cockroachdb/pebble"
	"github.com/ethereum/go-ethereum/common"

	"github.com/jwpark-dev/curiomatch/pkg/exchange"
)

// Store persists the order-status ledger, royalty reserves, and the
// append-only settlement/cancellation event log in Pebble.
type Store struct {
	db *pebble.DB
}

func Open(path string) (*Store, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open pebble at %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// ============================================================================
// Order lifecycle ledger
// ============================================================================

// Status returns the lifecycle state for an order hash; a hash never written
// is implicitly Open
func (s *Store) Status(hash common.Hash) (exchange.OrderStatus, error) {
	val, closer, err := s.db.Get(orderKey(hash))
	if err == pebble.ErrNotFound {
		return exchange.StatusOpen, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get order status: %w", err)
	}
	defer closer.Close()

	if len(val) != 1 {
		return 0, fmt.Errorf("corrupt status entry for %s", hash.Hex())
	}
	return exchange.OrderStatus(val[0]), nil
}

// SetStatus writes the lifecycle state, rejecting transitions out of a
// terminal state
func (s *Store) SetStatus(hash common.Hash, status exchange.OrderStatus) error {
	current, err := s.Status(hash)
	if err != nil {
		return err
	}
	if current.Terminal() {
		return fmt.Errorf("%w: %s is %s", exchange.ErrOrderNotOpen, hash.Hex(), current)
	}
	if err := s.db.Set(orderKey(hash), []byte{byte(status)}, pebble.Sync); err != nil {
		return fmt.Errorf("set order status: %w", err)
	}
	return nil
}

var _ exchange.OrderLedger = (*Store)(nil)

// ============================================================================
// Royalty reserves
// ============================================================================

// SaveReserve persists the accumulated reserve for (group, token)
func (s *Store) SaveReserve(group, token common.Address, amount *big.Int) error {
	if err := s.db.Set(reserveKey(group, token), []byte(amount.String()), pebble.Sync); err != nil {
		return fmt.Errorf("save reserve: %w", err)
	}
	return nil
}

// LoadReserve returns the persisted reserve, or nil if never written
func (s *Store) LoadReserve(group, token common.Address) (*big.Int, error) {
	val, closer, err := s.db.Get(reserveKey(group, token))
	if err == pebble.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load reserve: %w", err)
	}
	defer closer.Close()

	amount, ok := new(big.Int).SetString(string(val), 10)
	if !ok {
		return nil, fmt.Errorf("corrupt reserve entry for %s/%s", group.Hex(), token.Hex())
	}
	return amount, nil
}

var _ exchange.ReserveStore = (*Store)(nil)

// ============================================================================
// Event log
// ============================================================================

// AppendSettlement writes a settlement record to the append-only event log
func (s *Store) AppendSettlement(rec *exchange.SettlementRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal settlement: %w", err)
	}
	key := settlementKey(rec.Timestamp, rec.BuyHash)
	if err := s.db.Set(key, data, pebble.Sync); err != nil {
		return fmt.Errorf("append settlement: %w", err)
	}
	return nil
}

// AppendCancellation writes a cancellation record to the append-only event log
func (s *Store) AppendCancellation(rec *exchange.CancellationRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal cancellation: %w", err)
	}
	key := cancelKey(rec.Timestamp, rec.OrderHash)
	if err := s.db.Set(key, data, pebble.Sync); err != nil {
		return fmt.Errorf("append cancellation: %w", err)
	}
	return nil
}

// RecentSettlements returns up to limit settlement records, newest first
func (s *Store) RecentSettlements(limit int) ([]*exchange.SettlementRecord, error) {
	prefix := []byte(prefixSettlement)
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: keyUpperBound(prefix),
	})
	if err != nil {
		return nil, fmt.Errorf("event iterator: %w", err)
	}
	defer iter.Close()

	var records []*exchange.SettlementRecord
	for ok := iter.Last(); ok && len(records) < limit; ok = iter.Prev() {
		var rec exchange.SettlementRecord
		if err := json.Unmarshal(iter.Value(), &rec); err != nil {
			continue // Skip corrupt entries
		}
		records = append(records, &rec)
	}
	return records, nil
}
