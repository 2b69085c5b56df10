package exchange

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// OrderStatus is the lifecycle state of an order hash.
// Open -> Filled and Open -> Cancelled are the only transitions; the terminal
// states are final.
type OrderStatus uint8

const (
	StatusOpen OrderStatus = iota
	StatusFilled
	StatusCancelled
)

func (s OrderStatus) String() string {
	switch s {
	case StatusOpen:
		return "open"
	case StatusFilled:
		return "filled"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether the status admits no further transitions
func (s OrderStatus) Terminal() bool {
	return s == StatusFilled || s == StatusCancelled
}

// OrderLedger tracks per-order lifecycle state keyed by the canonical order
// hash. A hash never written before is implicitly Open. Implementations must
// reject transitions out of a terminal state with ErrOrderNotOpen.
type OrderLedger interface {
	Status(hash common.Hash) (OrderStatus, error)
	SetStatus(hash common.Hash, status OrderStatus) error
}

// MemoryLedger is the in-process OrderLedger used by tests and by deployments
// that persist lifecycle state elsewhere.
type MemoryLedger struct {
	mu     sync.RWMutex
	states map[common.Hash]OrderStatus
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{states: make(map[common.Hash]OrderStatus)}
}

func (l *MemoryLedger) Status(hash common.Hash) (OrderStatus, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.states[hash], nil // zero value = StatusOpen
}

func (l *MemoryLedger) SetStatus(hash common.Hash, status OrderStatus) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if current := l.states[hash]; current.Terminal() {
		return fmt.Errorf("%w: %s is %s", ErrOrderNotOpen, hash.Hex(), current)
	}
	l.states[hash] = status
	return nil
}

var _ OrderLedger = (*MemoryLedger)(nil)
