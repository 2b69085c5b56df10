package registry

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

var (
	collection = common.HexToAddress("0x00000000000000000000000000000000c0011ec7")
	alice      = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bob        = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	usd        = common.HexToAddress("0x00000000000000000000000000000000000000d0")
)

func TestAssetBookLifecycle(t *testing.T) {
	book := NewAssetBook()

	if err := book.Mint(collection, big.NewInt(1), alice); err != nil {
		t.Fatalf("mint failed: %v", err)
	}

	// Double mint rejected
	if err := book.Mint(collection, big.NewInt(1), bob); !errors.Is(err, ErrAlreadyMinted) {
		t.Errorf("double mint: err = %v, want ErrAlreadyMinted", err)
	}

	owner, err := book.OwnerOf(collection, big.NewInt(1))
	if err != nil {
		t.Fatalf("owner lookup failed: %v", err)
	}
	if owner != alice {
		t.Errorf("owner = %s, want alice", owner.Hex())
	}

	// Unknown token
	if _, err := book.OwnerOf(collection, big.NewInt(2)); !errors.Is(err, ErrUnknownAsset) {
		t.Errorf("unknown token: err = %v, want ErrUnknownAsset", err)
	}

	// Transfer by non-owner rejected
	if err := book.Transfer(collection, big.NewInt(1), bob, alice); !errors.Is(err, ErrNotOwner) {
		t.Errorf("non-owner transfer: err = %v, want ErrNotOwner", err)
	}

	if err := book.Transfer(collection, big.NewInt(1), alice, bob); err != nil {
		t.Fatalf("transfer failed: %v", err)
	}
	owner, _ = book.OwnerOf(collection, big.NewInt(1))
	if owner != bob {
		t.Errorf("owner after transfer = %s, want bob", owner.Hex())
	}
}

func TestTokenBankTransferFrom(t *testing.T) {
	bank := NewTokenBank()
	bank.Mint(usd, alice, big.NewInt(1000))
	bank.Approve(usd, alice, big.NewInt(600))

	// Insufficient allowance even with sufficient balance
	err := bank.TransferFrom(usd, alice, bob, big.NewInt(700))
	if !errors.Is(err, ErrInsufficientAllowance) {
		t.Errorf("err = %v, want ErrInsufficientAllowance", err)
	}

	if err := bank.TransferFrom(usd, alice, bob, big.NewInt(400)); err != nil {
		t.Fatalf("transfer failed: %v", err)
	}
	if got := bank.BalanceOf(usd, alice); got.Int64() != 600 {
		t.Errorf("alice balance = %s, want 600", got)
	}
	if got := bank.BalanceOf(usd, bob); got.Int64() != 400 {
		t.Errorf("bob balance = %s, want 400", got)
	}
	// Allowance spent alongside the balance
	if got := bank.Allowance(usd, alice); got.Int64() != 200 {
		t.Errorf("alice allowance = %s, want 200", got)
	}

	// Insufficient balance
	bank.Approve(usd, alice, big.NewInt(10_000))
	err = bank.TransferFrom(usd, alice, bob, big.NewInt(601))
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Errorf("err = %v, want ErrInsufficientBalance", err)
	}
}

func TestTokenBankTransfer(t *testing.T) {
	bank := NewTokenBank()
	bank.Mint(usd, alice, big.NewInt(1000))

	// Self-spend needs no allowance
	if err := bank.Transfer(usd, alice, bob, big.NewInt(400)); err != nil {
		t.Fatalf("transfer failed: %v", err)
	}
	if got := bank.BalanceOf(usd, alice); got.Int64() != 600 {
		t.Errorf("alice balance = %s, want 600", got)
	}
	if got := bank.BalanceOf(usd, bob); got.Int64() != 400 {
		t.Errorf("bob balance = %s, want 400", got)
	}
	if got := bank.Allowance(usd, alice); got.Sign() != 0 {
		t.Errorf("alice allowance = %s, want 0", got)
	}

	if err := bank.Transfer(usd, alice, bob, big.NewInt(601)); !errors.Is(err, ErrInsufficientBalance) {
		t.Errorf("err = %v, want ErrInsufficientBalance", err)
	}
	if err := bank.Transfer(usd, alice, bob, big.NewInt(-1)); err == nil {
		t.Error("negative transfer should be rejected")
	}
}

func TestNativeBankEscrowFlow(t *testing.T) {
	bank := NewNativeBank()
	bank.Credit(alice, big.NewInt(500))

	// Escrow more than the balance
	if err := bank.Escrow(alice, big.NewInt(501)); !errors.Is(err, ErrInsufficientBalance) {
		t.Errorf("over-escrow: err = %v, want ErrInsufficientBalance", err)
	}

	if err := bank.Escrow(alice, big.NewInt(300)); err != nil {
		t.Fatalf("escrow failed: %v", err)
	}
	if got := bank.BalanceOf(alice); got.Int64() != 200 {
		t.Errorf("alice balance = %s, want 200", got)
	}
	if got := bank.Escrowed(); got.Int64() != 300 {
		t.Errorf("escrow = %s, want 300", got)
	}

	// Send beyond escrow
	if err := bank.Send(bob, big.NewInt(301)); !errors.Is(err, ErrInsufficientEscrow) {
		t.Errorf("over-send: err = %v, want ErrInsufficientEscrow", err)
	}

	if err := bank.Send(bob, big.NewInt(300)); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if got := bank.BalanceOf(bob); got.Int64() != 300 {
		t.Errorf("bob balance = %s, want 300", got)
	}
	if got := bank.Escrowed(); got.Sign() != 0 {
		t.Errorf("escrow = %s, want 0", got)
	}
}

func TestNativeBankPay(t *testing.T) {
	bank := NewNativeBank()
	bank.Credit(alice, big.NewInt(100))

	if err := bank.Pay(alice, bob, big.NewInt(40)); err != nil {
		t.Fatalf("pay failed: %v", err)
	}
	if got := bank.BalanceOf(alice); got.Int64() != 60 {
		t.Errorf("alice balance = %s, want 60", got)
	}
	if got := bank.BalanceOf(bob); got.Int64() != 40 {
		t.Errorf("bob balance = %s, want 40", got)
	}

	if err := bank.Pay(alice, bob, big.NewInt(61)); !errors.Is(err, ErrInsufficientBalance) {
		t.Errorf("overpay: err = %v, want ErrInsufficientBalance", err)
	}
}

func TestWorldSnapshotRestore(t *testing.T) {
	world := NewWorld()
	world.Assets.Mint(collection, big.NewInt(1), alice)
	world.Tokens.Mint(usd, alice, big.NewInt(1000))
	world.Tokens.Approve(usd, alice, big.NewInt(1000))
	world.Native.Credit(alice, big.NewInt(500))
	world.Native.Escrow(alice, big.NewInt(100))

	snap := world.Snapshot()

	// Mutate everything
	world.Assets.Transfer(collection, big.NewInt(1), alice, bob)
	world.Tokens.TransferFrom(usd, alice, bob, big.NewInt(999))
	world.Native.Send(bob, big.NewInt(100))
	world.Native.Credit(bob, big.NewInt(777))

	world.Restore(snap)

	owner, _ := world.Assets.OwnerOf(collection, big.NewInt(1))
	if owner != alice {
		t.Errorf("owner after restore = %s, want alice", owner.Hex())
	}
	if got := world.Tokens.BalanceOf(usd, alice); got.Int64() != 1000 {
		t.Errorf("alice tokens after restore = %s, want 1000", got)
	}
	if got := world.Tokens.Allowance(usd, alice); got.Int64() != 1000 {
		t.Errorf("alice allowance after restore = %s, want 1000", got)
	}
	if got := world.Native.BalanceOf(bob); got.Sign() != 0 {
		t.Errorf("bob native after restore = %s, want 0", got)
	}
	if got := world.Native.Escrowed(); got.Int64() != 100 {
		t.Errorf("escrow after restore = %s, want 100", got)
	}
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	world := NewWorld()
	world.Native.Credit(alice, big.NewInt(100))

	snap := world.Snapshot()
	world.Native.Credit(alice, big.NewInt(900))

	// Mutations after the snapshot must not leak into it
	world.Restore(snap)
	if got := world.Native.BalanceOf(alice); got.Int64() != 100 {
		t.Errorf("balance after restore = %s, want 100", got)
	}
}
