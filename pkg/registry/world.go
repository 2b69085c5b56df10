package registry

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// World bundles the three in-memory collaborators behind the engine's
// capability interfaces. Snapshot/Restore give the host the all-or-nothing
// guarantee a settlement needs: snapshot before invoking the engine, restore
// on any failure so partial transfer effects never persist.
type World struct {
	Assets *AssetBook
	Tokens *TokenBank
	Native *NativeBank
}

func NewWorld() *World {
	return &World{
		Assets: NewAssetBook(),
		Tokens: NewTokenBank(),
		Native: NewNativeBank(),
	}
}

// Snapshot is a deep copy of all collaborator state at one instant
type Snapshot struct {
	owners     map[common.Address]map[string]common.Address
	balances   map[common.Address]map[common.Address]*big.Int
	allowances map[common.Address]map[common.Address]*big.Int
	native     map[common.Address]*big.Int
	escrow     *big.Int
}

func (w *World) Snapshot() *Snapshot {
	s := &Snapshot{}
	s.owners = w.Assets.snapshot()
	s.balances, s.allowances = w.Tokens.snapshot()
	s.native, s.escrow = w.Native.snapshot()
	return s
}

func (w *World) Restore(s *Snapshot) {
	w.Assets.restore(s.owners)
	w.Tokens.restore(s.balances, s.allowances)
	w.Native.restore(s.native, s.escrow)
}
