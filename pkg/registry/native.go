package registry

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// NativeBank tracks native-currency balances plus the settlement escrow: the
// payment a buyer attaches to a match call is moved into escrow first, and
// the engine's Send calls pay the split out of it. Pay moves balance directly
// between accounts (the vault uses it to forward the beneficiary share).
type NativeBank struct {
	mu       sync.RWMutex
	balances map[common.Address]*big.Int
	escrow   *big.Int
}

func NewNativeBank() *NativeBank {
	return &NativeBank{
		balances: make(map[common.Address]*big.Int),
		escrow:   new(big.Int),
	}
}

// Credit adds amount to an account (devnet funding)
func (b *NativeBank) Credit(addr common.Address, amount *big.Int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cellLocked(addr).Add(b.cellLocked(addr), amount)
}

// BalanceOf returns a copy of the account balance
func (b *NativeBank) BalanceOf(addr common.Address) *big.Int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if bal, ok := b.balances[addr]; ok {
		return new(big.Int).Set(bal)
	}
	return new(big.Int)
}

// Escrowed returns a copy of the undistributed escrow balance
func (b *NativeBank) Escrowed() *big.Int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return new(big.Int).Set(b.escrow)
}

// Escrow moves amount from the payer's balance into the settlement escrow
func (b *NativeBank) Escrow(from common.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return fmt.Errorf("negative amount: %s", amount)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	balance := b.cellLocked(from)
	if balance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s has %s, need %s", ErrInsufficientBalance, from.Hex(), balance, amount)
	}
	balance.Sub(balance, amount)
	b.escrow.Add(b.escrow, amount)
	return nil
}

// Send pays amount out of the settlement escrow
func (b *NativeBank) Send(to common.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return fmt.Errorf("negative amount: %s", amount)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.escrow.Cmp(amount) < 0 {
		return fmt.Errorf("%w: escrow %s, need %s", ErrInsufficientEscrow, b.escrow, amount)
	}
	b.escrow.Sub(b.escrow, amount)
	b.cellLocked(to).Add(b.cellLocked(to), amount)
	return nil
}

// Pay moves amount directly between two accounts
func (b *NativeBank) Pay(from, to common.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return fmt.Errorf("negative amount: %s", amount)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	balance := b.cellLocked(from)
	if balance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s has %s, need %s", ErrInsufficientBalance, from.Hex(), balance, amount)
	}
	balance.Sub(balance, amount)
	b.cellLocked(to).Add(b.cellLocked(to), amount)
	return nil
}

// cellLocked returns the live balance cell, creating it on first touch.
// Caller holds b.mu.
func (b *NativeBank) cellLocked(addr common.Address) *big.Int {
	cell, ok := b.balances[addr]
	if !ok {
		cell = new(big.Int)
		b.balances[addr] = cell
	}
	return cell
}

func (b *NativeBank) snapshot() (balances map[common.Address]*big.Int, escrow *big.Int) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	balances = make(map[common.Address]*big.Int, len(b.balances))
	for addr, cell := range b.balances {
		balances[addr] = new(big.Int).Set(cell)
	}
	return balances, new(big.Int).Set(b.escrow)
}

func (b *NativeBank) restore(balances map[common.Address]*big.Int, escrow *big.Int) {
	b.mu.Lock()
	b.balances = balances
	b.escrow = escrow
	b.mu.Unlock()
}
