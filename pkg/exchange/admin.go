package exchange

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// MaxPlatformFeeBps bounds the administratively settable platform fee (10%).
// The bound applies at mutation time only; royalty terms are chosen per order,
// so the combined fee+royalty bound is re-checked at settlement.
const MaxPlatformFeeBps = 1000

// AdminConfig is the mutable fee/recipient configuration behind the Admin
// capability. Mutations are bounds-checked; reads are what the matcher sees
// at settlement time.
type AdminConfig struct {
	mu        sync.RWMutex
	feeBps    uint64
	recipient common.Address
}

func NewAdminConfig(feeBps uint64, recipient common.Address) (*AdminConfig, error) {
	a := &AdminConfig{recipient: recipient}
	if err := a.SetPlatformFeeBps(feeBps); err != nil {
		return nil, err
	}
	return a, nil
}

// SetPlatformFeeBps updates the platform fee, rejecting values above the
// administrative bound
func (a *AdminConfig) SetPlatformFeeBps(bps uint64) error {
	if bps > MaxPlatformFeeBps {
		return fmt.Errorf("platform fee %d bps exceeds maximum %d", bps, MaxPlatformFeeBps)
	}
	a.mu.Lock()
	a.feeBps = bps
	a.mu.Unlock()
	return nil
}

// SetFeeRecipient updates where platform fees are paid
func (a *AdminConfig) SetFeeRecipient(recipient common.Address) {
	a.mu.Lock()
	a.recipient = recipient
	a.mu.Unlock()
}

func (a *AdminConfig) PlatformFeeBps() uint64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.feeBps
}

func (a *AdminConfig) FeeRecipient() common.Address {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.recipient
}

var _ Admin = (*AdminConfig)(nil)
