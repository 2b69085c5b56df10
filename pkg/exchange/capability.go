package exchange

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Collaborator capabilities the settlement engine calls into. These are the
// custody and registry surfaces the engine treats as external: it validates
// everything first, then invokes them in a fixed order, and requires the host
// to make all of a settlement's effects commit together or not at all.

// AssetRegistry is the ownership table for unique collectibles, grouped by
// registry (collection) address.
type AssetRegistry interface {
	// OwnerOf returns the current owner of the collectible
	OwnerOf(target common.Address, tokenID *big.Int) (common.Address, error)

	// Transfer moves ownership from -> to. Must fail if from is not the
	// current owner or the caller lacks transfer authorization.
	Transfer(target common.Address, tokenID *big.Int, from, to common.Address) error
}

// FungibleTransfer moves pre-authorized fungible-token balances
type FungibleTransfer interface {
	// TransferFrom fails on insufficient balance or insufficient allowance
	TransferFrom(token, from, to common.Address, amount *big.Int) error
}

// NativeTransfer pays out native currency held in the engine's settlement escrow
type NativeTransfer interface {
	Send(to common.Address, amount *big.Int) error
}

// Admin exposes the platform fee configuration current at settlement time.
// The fee can change between order signing and settlement, so the matcher
// re-validates the combined fee+royalty bound on every call.
type Admin interface {
	PlatformFeeBps() uint64
	FeeRecipient() common.Address
}
