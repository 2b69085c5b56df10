package storage

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Pebble key schema:
//
//	ord:<order-hash>            → order lifecycle status (1 byte)
//	roy:<group>:<token>         → royalty reserve (decimal string)
//	evs:<timestamp>:<buy-hash>  → settlement record (JSON)
//	evc:<timestamp>:<ord-hash>  → cancellation record (JSON)
//
// Timestamps are zero-padded to 20 digits so event keys sort chronologically.
const (
	prefixOrder      = "ord:"
	prefixReserve    = "roy:"
	prefixSettlement = "evs:"
	prefixCancel     = "evc:"
)

func orderKey(hash common.Hash) []byte {
	return []byte(prefixOrder + hash.Hex())
}

func reserveKey(group, token common.Address) []byte {
	return []byte(fmt.Sprintf("%s%s:%s", prefixReserve, group.Hex(), token.Hex()))
}

func settlementKey(timestamp int64, buyHash string) []byte {
	return []byte(fmt.Sprintf("%s%020d:%s", prefixSettlement, timestamp, buyHash))
}

func cancelKey(timestamp int64, orderHash string) []byte {
	return []byte(fmt.Sprintf("%s%020d:%s", prefixCancel, timestamp, orderHash))
}

// keyUpperBound returns the exclusive upper bound for a prefix scan
func keyUpperBound(prefix []byte) []byte {
	bound := make([]byte, len(prefix))
	copy(bound, prefix)
	bound[len(bound)-1]++
	return bound
}
