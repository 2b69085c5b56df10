package exchange

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/jwpark-dev/curiomatch/pkg/crypto"
)

// Order is the engine's canonical order record: a signed intent to trade,
// either offering payment for a collectible (buy side) or offering a
// collectible for payment (sell side).
type Order struct {
	IsBuySide        bool           // true = offers payment for the asset
	IsAuction        bool           // true = settled by the seller against a won bid
	Maker            common.Address // Order author; must equal the recovered signer
	PaymentToken     common.Address // Zero address = native currency
	Value            *big.Int       // Payment amount / asked price, in base units
	RoyaltyRecipient common.Address // Creator royalty payee
	Royalty          *big.Int       // Royalty in basis points (0-10000)
	Target           common.Address // Collectible registry the order concerns
	TokenID          *big.Int       // Specific collectible within the registry
	Start            *big.Int       // Validity window start (Unix seconds), 0 = unbounded
	End              *big.Int       // Validity window end (Unix seconds), 0 = unbounded
	Salt             *big.Int       // Disambiguates otherwise-identical orders
}

// Typed converts the order to its EIP-712 signing shape
func (o *Order) Typed() *crypto.Order712 {
	return &crypto.Order712{
		IsBuySide:        o.IsBuySide,
		IsAuction:        o.IsAuction,
		Maker:            o.Maker,
		PaymentToken:     o.PaymentToken,
		Value:            o.Value,
		RoyaltyRecipient: o.RoyaltyRecipient,
		Royalty:          o.Royalty,
		Target:           o.Target,
		TokenID:          o.TokenID,
		Start:            o.Start,
		End:              o.End,
		Salt:             o.Salt,
	}
}

// NativePayment reports whether the order is denominated in native currency
func (o *Order) NativePayment() bool {
	return o.PaymentToken == (common.Address{})
}

// InWindow reports whether now (Unix seconds) lies within [Start, End].
// A zero bound means unbounded on that side.
func (o *Order) InWindow(now int64) bool {
	t := big.NewInt(now)
	if o.Start.Sign() != 0 && t.Cmp(o.Start) < 0 {
		return false
	}
	if o.End.Sign() != 0 && t.Cmp(o.End) > 0 {
		return false
	}
	return true
}

// Matchable reports whether (buy, sell) form a settleable pair:
// opposite sides, same settlement mode, same payment token, same collectible,
// same royalty terms, and the bid crossing the ask.
func Matchable(buy, sell *Order) bool {
	if !buy.IsBuySide || sell.IsBuySide {
		return false
	}
	if buy.IsAuction != sell.IsAuction {
		return false
	}
	if buy.PaymentToken != sell.PaymentToken {
		return false
	}
	if buy.Target != sell.Target {
		return false
	}
	if buy.TokenID.Cmp(sell.TokenID) != 0 {
		return false
	}
	if buy.Royalty.Cmp(sell.Royalty) != 0 {
		return false
	}
	if buy.RoyaltyRecipient != sell.RoyaltyRecipient {
		return false
	}
	if buy.Value.Cmp(sell.Value) < 0 {
		return false
	}
	return true
}
