// Package registry provides in-memory implementations of the settlement
// engine's collaborator capabilities: collectible ownership, fungible token
// balances, and native currency. They back the devnet daemon and the engine
// tests; production deployments substitute real custody systems.
package registry

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrUnknownAsset          = errors.New("unknown asset")
	ErrAlreadyMinted         = errors.New("asset already minted")
	ErrNotOwner              = errors.New("from is not the current owner")
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrInsufficientEscrow    = errors.New("insufficient escrow")
)

// AssetBook is the ownership table for unique collectibles, grouped by
// registry (collection) address. The settlement engine is the book's sole
// in-process caller and is treated as the authorized transfer operator.
type AssetBook struct {
	mu     sync.RWMutex
	owners map[common.Address]map[string]common.Address // target -> tokenID -> owner
}

func NewAssetBook() *AssetBook {
	return &AssetBook{owners: make(map[common.Address]map[string]common.Address)}
}

// Mint registers a new collectible under target with an initial owner
func (b *AssetBook) Mint(target common.Address, tokenID *big.Int, owner common.Address) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	byToken, ok := b.owners[target]
	if !ok {
		byToken = make(map[string]common.Address)
		b.owners[target] = byToken
	}
	key := tokenID.String()
	if _, exists := byToken[key]; exists {
		return fmt.Errorf("%w: %s/%s", ErrAlreadyMinted, target.Hex(), key)
	}
	byToken[key] = owner
	return nil
}

// OwnerOf returns the current owner of the collectible
func (b *AssetBook) OwnerOf(target common.Address, tokenID *big.Int) (common.Address, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	owner, ok := b.owners[target][tokenID.String()]
	if !ok {
		return common.Address{}, fmt.Errorf("%w: %s/%s", ErrUnknownAsset, target.Hex(), tokenID)
	}
	return owner, nil
}

// Transfer moves ownership from -> to, failing if from is not the owner
func (b *AssetBook) Transfer(target common.Address, tokenID *big.Int, from, to common.Address) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := tokenID.String()
	owner, ok := b.owners[target][key]
	if !ok {
		return fmt.Errorf("%w: %s/%s", ErrUnknownAsset, target.Hex(), key)
	}
	if owner != from {
		return fmt.Errorf("%w: owner %s, from %s", ErrNotOwner, owner.Hex(), from.Hex())
	}
	b.owners[target][key] = to
	return nil
}

func (b *AssetBook) snapshot() map[common.Address]map[string]common.Address {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make(map[common.Address]map[string]common.Address, len(b.owners))
	for target, byToken := range b.owners {
		copied := make(map[string]common.Address, len(byToken))
		for id, owner := range byToken {
			copied[id] = owner
		}
		out[target] = copied
	}
	return out
}

func (b *AssetBook) restore(owners map[common.Address]map[string]common.Address) {
	b.mu.Lock()
	b.owners = owners
	b.mu.Unlock()
}
