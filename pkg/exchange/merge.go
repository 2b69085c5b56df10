package exchange

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Guarded replacement: buyer and seller each sign their own copy of the
// transfer instruction, but each copy is only trustworthy in the fields that
// side actually knows (the seller knows "from", the buyer knows "to").
// GuardedMerge combines the two under a bitmask so a counterparty can never
// override a field the local order pinned.

// GuardedMerge merges overlay into base under mask. For each byte position i,
// output = (base[i] &^ mask[i]) | (overlay[i] & mask[i]): a 1 bit in mask means
// the bit may be taken from overlay, a 0 bit pins it to base.
// All three slices must have equal length.
func GuardedMerge(base, overlay, mask []byte) ([]byte, error) {
	if len(base) != len(overlay) || len(base) != len(mask) {
		return nil, fmt.Errorf("%w: base=%d overlay=%d mask=%d",
			ErrLengthMismatch, len(base), len(overlay), len(mask))
	}

	out := make([]byte, len(base))
	for i := range base {
		out[i] = (base[i] &^ mask[i]) | (overlay[i] & mask[i])
	}
	return out, nil
}

// Transfer instruction shape (ABI-style):
//
//	[0:4]    selector (pinned)
//	[4:36]   from address, left-padded to 32 bytes (open on the buyer's copy)
//	[36:68]  to address, left-padded to 32 bytes (open on the seller's copy)
//	[68:100] token id (pinned)
const (
	instrSelectorLen = 4
	instrWordLen     = 32
	instrFromOffset  = instrSelectorLen
	instrToOffset    = instrSelectorLen + instrWordLen
	instrTokenOffset = instrSelectorLen + 2*instrWordLen

	// InstrLen is the byte length of a transfer instruction
	InstrLen = instrSelectorLen + 3*instrWordLen
)

// transferSelector is the first 4 bytes of keccak256("transferFrom(address,address,uint256)")
var transferSelector = [instrSelectorLen]byte{0x23, 0xb8, 0x72, 0xdd}

// EncodeTransferInstruction builds a transfer instruction. A side that does
// not know a field leaves the corresponding address zero; the merge fills it
// in from the counterparty's copy.
func EncodeTransferInstruction(from, to common.Address, tokenID *big.Int) ([]byte, error) {
	if tokenID.Sign() < 0 || tokenID.BitLen() > 256 {
		return nil, fmt.Errorf("token id out of range: %s", tokenID)
	}

	instr := make([]byte, InstrLen)
	copy(instr[:instrSelectorLen], transferSelector[:])
	copy(instr[instrFromOffset+instrWordLen-common.AddressLength:instrToOffset], from[:])
	copy(instr[instrToOffset+instrWordLen-common.AddressLength:instrTokenOffset], to[:])
	tokenID.FillBytes(instr[instrTokenOffset:])
	return instr, nil
}

// DecodeTransferInstruction extracts (from, to, tokenID) from an instruction
// and rejects buffers with the wrong length, selector, or dirty padding.
func DecodeTransferInstruction(instr []byte) (from, to common.Address, tokenID *big.Int, err error) {
	if len(instr) != InstrLen {
		return common.Address{}, common.Address{}, nil,
			fmt.Errorf("%w: instruction=%d want=%d", ErrLengthMismatch, len(instr), InstrLen)
	}
	if [instrSelectorLen]byte(instr[:instrSelectorLen]) != transferSelector {
		return common.Address{}, common.Address{}, nil,
			fmt.Errorf("unexpected selector %x", instr[:instrSelectorLen])
	}
	for _, b := range instr[instrFromOffset : instrFromOffset+instrWordLen-common.AddressLength] {
		if b != 0 {
			return common.Address{}, common.Address{}, nil, fmt.Errorf("dirty from padding")
		}
	}
	for _, b := range instr[instrToOffset : instrToOffset+instrWordLen-common.AddressLength] {
		if b != 0 {
			return common.Address{}, common.Address{}, nil, fmt.Errorf("dirty to padding")
		}
	}

	copy(from[:], instr[instrFromOffset+instrWordLen-common.AddressLength:instrToOffset])
	copy(to[:], instr[instrToOffset+instrWordLen-common.AddressLength:instrTokenOffset])
	tokenID = new(big.Int).SetBytes(instr[instrTokenOffset:])
	return from, to, tokenID, nil
}

// BuyerMask is the mask applied when the buyer's instruction is the base:
// only the "from" word may be taken from the seller's overlay.
func BuyerMask() []byte {
	mask := make([]byte, InstrLen)
	for i := instrFromOffset; i < instrToOffset; i++ {
		mask[i] = 0xff
	}
	return mask
}

// SellerMask is the complement for the seller-as-base orientation: only the
// "to" word may be taken from the buyer's overlay. By construction,
// GuardedMerge(buy, sell, BuyerMask()) == GuardedMerge(sell, buy, SellerMask()).
func SellerMask() []byte {
	mask := make([]byte, InstrLen)
	for i := instrToOffset; i < instrTokenOffset; i++ {
		mask[i] = 0xff
	}
	return mask
}
