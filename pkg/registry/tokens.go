package registry

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// TokenBank tracks fungible-token balances and the allowances holders have
// granted to the settlement operator. TransferFrom spends both the holder's
// balance and their allowance, mirroring the ERC-20 pull-payment model.
type TokenBank struct {
	mu         sync.RWMutex
	balances   map[common.Address]map[common.Address]*big.Int // token -> holder -> balance
	allowances map[common.Address]map[common.Address]*big.Int // token -> holder -> operator allowance
}

func NewTokenBank() *TokenBank {
	return &TokenBank{
		balances:   make(map[common.Address]map[common.Address]*big.Int),
		allowances: make(map[common.Address]map[common.Address]*big.Int),
	}
}

// Mint credits amount of token to the holder
func (b *TokenBank) Mint(token, holder common.Address, amount *big.Int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entryLocked(b.balances, token, holder).Add(b.entryLocked(b.balances, token, holder), amount)
}

// Approve grants the settlement operator a spending allowance on behalf of holder
func (b *TokenBank) Approve(token, holder common.Address, amount *big.Int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entryLocked(b.allowances, token, holder).Set(amount)
}

// BalanceOf returns a copy of the holder's balance
func (b *TokenBank) BalanceOf(token, holder common.Address) *big.Int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if bal, ok := b.balances[token][holder]; ok {
		return new(big.Int).Set(bal)
	}
	return new(big.Int)
}

// Allowance returns a copy of the operator allowance granted by holder
func (b *TokenBank) Allowance(token, holder common.Address) *big.Int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if allow, ok := b.allowances[token][holder]; ok {
		return new(big.Int).Set(allow)
	}
	return new(big.Int)
}

// TransferFrom moves amount of token from -> to, spending from's balance and
// operator allowance. Fails on insufficient balance or allowance.
func (b *TokenBank) TransferFrom(token, from, to common.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return fmt.Errorf("negative amount: %s", amount)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	balance := b.entryLocked(b.balances, token, from)
	if balance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s has %s, need %s", ErrInsufficientBalance, from.Hex(), balance, amount)
	}
	allowance := b.entryLocked(b.allowances, token, from)
	if allowance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s approved %s, need %s", ErrInsufficientAllowance, from.Hex(), allowance, amount)
	}

	balance.Sub(balance, amount)
	allowance.Sub(allowance, amount)
	b.entryLocked(b.balances, token, to).Add(b.entryLocked(b.balances, token, to), amount)
	return nil
}

// Transfer moves amount of token out of the holder's own balance. Allowances
// are untouched; only TransferFrom spends them.
func (b *TokenBank) Transfer(token, from, to common.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return fmt.Errorf("negative amount: %s", amount)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	balance := b.entryLocked(b.balances, token, from)
	if balance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s has %s, need %s", ErrInsufficientBalance, from.Hex(), balance, amount)
	}

	balance.Sub(balance, amount)
	b.entryLocked(b.balances, token, to).Add(b.entryLocked(b.balances, token, to), amount)
	return nil
}

// entryLocked returns the live *big.Int cell, creating it on first touch.
// Caller holds b.mu.
func (b *TokenBank) entryLocked(table map[common.Address]map[common.Address]*big.Int,
	token, holder common.Address) *big.Int {

	byHolder, ok := table[token]
	if !ok {
		byHolder = make(map[common.Address]*big.Int)
		table[token] = byHolder
	}
	cell, ok := byHolder[holder]
	if !ok {
		cell = new(big.Int)
		byHolder[holder] = cell
	}
	return cell
}

func copyTable(table map[common.Address]map[common.Address]*big.Int) map[common.Address]map[common.Address]*big.Int {
	out := make(map[common.Address]map[common.Address]*big.Int, len(table))
	for token, byHolder := range table {
		copied := make(map[common.Address]*big.Int, len(byHolder))
		for holder, cell := range byHolder {
			copied[holder] = new(big.Int).Set(cell)
		}
		out[token] = copied
	}
	return out
}

func (b *TokenBank) snapshot() (balances, allowances map[common.Address]map[common.Address]*big.Int) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return copyTable(b.balances), copyTable(b.allowances)
}

func (b *TokenBank) restore(balances, allowances map[common.Address]map[common.Address]*big.Int) {
	b.mu.Lock()
	b.balances = balances
	b.allowances = allowances
	b.mu.Unlock()
}
