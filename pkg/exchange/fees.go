package exchange

import (
	"fmt"
	"math/big"
)

// BpsDenominator is the basis-point scale: 10000 bps = 100%
const BpsDenominator = 10000

var bpsDenom = big.NewInt(BpsDenominator)

// FeeRoyaltySplit is the per-settlement division of the traded value into
// platform fee, creator royalty, and the seller's net proceeds.
type FeeRoyaltySplit struct {
	FeeAmount     *big.Int
	RoyaltyAmount *big.Int
	NetAmount     *big.Int
}

// SplitValue divides value into {fee, royalty, net} using floor division:
//
//	feeAmount     = value * platformFeeBps / 10000
//	royaltyAmount = value * royaltyBps / 10000
//	netAmount     = value - feeAmount - royaltyAmount
//
// Fails with ErrFeeOverflow when platformFeeBps+royaltyBps > 10000 so net
// proceeds can never go negative, and with ErrArithmeticOverflow when a
// product exceeds 256-bit width.
//
// legacyOverflow preserves the historical failure mode: the combined-bps bound
// is not checked up front and the would-be negative net surfaces as a raw
// ErrArithmeticOverflow instead of ErrFeeOverflow.
func SplitValue(value *big.Int, platformFeeBps, royaltyBps uint64, legacyOverflow bool) (FeeRoyaltySplit, error) {
	if value.Sign() < 0 {
		return FeeRoyaltySplit{}, fmt.Errorf("negative value: %s", value)
	}
	if value.BitLen() > 256 {
		return FeeRoyaltySplit{}, fmt.Errorf("%w: value exceeds 256 bits", ErrArithmeticOverflow)
	}

	if !legacyOverflow && platformFeeBps+royaltyBps > BpsDenominator {
		return FeeRoyaltySplit{}, fmt.Errorf("%w: platform=%d royalty=%d",
			ErrFeeOverflow, platformFeeBps, royaltyBps)
	}

	fee, err := bpsShare(value, platformFeeBps)
	if err != nil {
		return FeeRoyaltySplit{}, err
	}
	royalty, err := bpsShare(value, royaltyBps)
	if err != nil {
		return FeeRoyaltySplit{}, err
	}

	net := new(big.Int).Sub(value, fee)
	net.Sub(net, royalty)
	if net.Sign() < 0 {
		// Only reachable in legacy mode: the unchecked bps sum pushed the
		// subtraction below zero, the moral equivalent of a uint underflow.
		return FeeRoyaltySplit{}, fmt.Errorf("%w: net proceeds below zero", ErrArithmeticOverflow)
	}

	return FeeRoyaltySplit{FeeAmount: fee, RoyaltyAmount: royalty, NetAmount: net}, nil
}

// bpsShare computes floor(value * bps / 10000) with a 256-bit product guard
func bpsShare(value *big.Int, bps uint64) (*big.Int, error) {
	product := new(big.Int).Mul(value, new(big.Int).SetUint64(bps))
	if product.BitLen() > 256 {
		return nil, fmt.Errorf("%w: %s * %d", ErrArithmeticOverflow, value, bps)
	}
	return product.Div(product, bpsDenom), nil
}
