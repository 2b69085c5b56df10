package exchange

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// NativePayer moves native balance between specific accounts. The vault uses
// it to forward the beneficiary share out of its own holdings; the engine's
// escrow-scoped NativeTransfer is too narrow for that.
type NativePayer interface {
	Pay(from, to common.Address, amount *big.Int) error
}

// FungiblePayer spends a holder's own token balance. The vault forwards the
// beneficiary share out of its reserves through this; the allowance-gated
// FungibleTransfer only covers pre-authorized pulls from third parties.
type FungiblePayer interface {
	Transfer(token, from, to common.Address, amount *big.Int) error
}

// ReserveStore persists royalty reserves across restarts. Optional; the vault
// works purely in memory without one.
type ReserveStore interface {
	SaveReserve(group, token common.Address, amount *big.Int) error
	// LoadReserve returns nil (no error) when the reserve has never been written
	LoadReserve(group, token common.Address) (*big.Int, error)
}

// Vault is the royalty distributor: royalties routed to its address are
// accumulated per (group, payment token) into a reserve, and a fixed
// basis-point share of every deposit is forwarded to a secondary beneficiary
// in the same call. Withdrawal from the reserve is an external collaborator's
// concern; the vault only exposes the read side.
type Vault struct {
	mu          sync.Mutex
	addr        common.Address
	beneficiary common.Address
	shareBps    uint64
	native      NativePayer
	tokens      FungiblePayer
	store       ReserveStore
	reserves    map[common.Address]map[common.Address]*big.Int // group -> token -> amount
}

func NewVault(addr, beneficiary common.Address, shareBps uint64, native NativePayer, tokens FungiblePayer) (*Vault, error) {
	if shareBps > BpsDenominator {
		return nil, fmt.Errorf("beneficiary share %d bps exceeds %d", shareBps, BpsDenominator)
	}
	return &Vault{
		addr:        addr,
		beneficiary: beneficiary,
		shareBps:    shareBps,
		native:      native,
		tokens:      tokens,
		reserves:    make(map[common.Address]map[common.Address]*big.Int),
	}, nil
}

// WithStore attaches a reserve persistence backend
func (v *Vault) WithStore(store ReserveStore) *Vault {
	v.store = store
	return v
}

// Address returns the vault's payout identity. Orders naming it as royalty
// recipient take the distributor path during settlement.
func (v *Vault) Address() common.Address {
	return v.addr
}

// Deposit credits amount to the (group, token) reserve, minus the fixed
// beneficiary share which is forwarded immediately. Additive only.
func (v *Vault) Deposit(group, token common.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return fmt.Errorf("negative deposit: %s", amount)
	}

	share, err := bpsShare(amount, v.shareBps)
	if err != nil {
		return err
	}
	retained := new(big.Int).Sub(amount, share)

	v.mu.Lock()
	defer v.mu.Unlock()

	reserve, err := v.loadLocked(group, token)
	if err != nil {
		return err
	}
	reserve.Add(reserve, retained)

	if share.Sign() > 0 {
		if token == (common.Address{}) {
			err = v.native.Pay(v.addr, v.beneficiary, share)
		} else {
			err = v.tokens.Transfer(token, v.addr, v.beneficiary, share)
		}
		if err != nil {
			reserve.Sub(reserve, retained)
			return fmt.Errorf("forward beneficiary share: %w", err)
		}
	}

	if v.store != nil {
		if err := v.store.SaveReserve(group, token, reserve); err != nil {
			return fmt.Errorf("persist reserve: %w", err)
		}
	}
	return nil
}

// Reserve returns a copy of the accumulated reserve for (group, token)
func (v *Vault) Reserve(group, token common.Address) (*big.Int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	reserve, err := v.loadLocked(group, token)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(reserve), nil
}

// loadLocked returns the live reserve entry, pulling it from the store on
// first touch. Caller holds v.mu.
func (v *Vault) loadLocked(group, token common.Address) (*big.Int, error) {
	byToken, ok := v.reserves[group]
	if !ok {
		byToken = make(map[common.Address]*big.Int)
		v.reserves[group] = byToken
	}
	if reserve, ok := byToken[token]; ok {
		return reserve, nil
	}

	reserve := new(big.Int)
	if v.store != nil {
		saved, err := v.store.LoadReserve(group, token)
		if err != nil {
			return nil, fmt.Errorf("load reserve: %w", err)
		}
		if saved != nil {
			reserve.Set(saved)
		}
	}
	byToken[token] = reserve
	return reserve, nil
}
