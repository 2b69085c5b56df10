package exchange

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestLedgerImplicitOpen(t *testing.T) {
	ledger := NewMemoryLedger()

	// A hash never written is Open
	status, err := ledger.Status(common.HexToHash("0x01"))
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if status != StatusOpen {
		t.Errorf("status = %s, want open", status)
	}
}

func TestLedgerTransitions(t *testing.T) {
	ledger := NewMemoryLedger()
	hash := common.HexToHash("0x02")

	if err := ledger.SetStatus(hash, StatusFilled); err != nil {
		t.Fatalf("fill failed: %v", err)
	}
	status, _ := ledger.Status(hash)
	if status != StatusFilled {
		t.Errorf("status = %s, want filled", status)
	}

	// Terminal states are final
	if err := ledger.SetStatus(hash, StatusOpen); !errors.Is(err, ErrOrderNotOpen) {
		t.Errorf("reopening filled order: err = %v, want ErrOrderNotOpen", err)
	}
	if err := ledger.SetStatus(hash, StatusCancelled); !errors.Is(err, ErrOrderNotOpen) {
		t.Errorf("cancelling filled order: err = %v, want ErrOrderNotOpen", err)
	}
}

func TestLedgerCancelIsTerminal(t *testing.T) {
	ledger := NewMemoryLedger()
	hash := common.HexToHash("0x03")

	if err := ledger.SetStatus(hash, StatusCancelled); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if err := ledger.SetStatus(hash, StatusFilled); !errors.Is(err, ErrOrderNotOpen) {
		t.Errorf("filling cancelled order: err = %v, want ErrOrderNotOpen", err)
	}
}

func TestStatusString(t *testing.T) {
	cases := map[OrderStatus]string{
		StatusOpen:      "open",
		StatusFilled:    "filled",
		StatusCancelled: "cancelled",
		OrderStatus(99): "unknown",
	}
	for status, want := range cases {
		if got := status.String(); got != want {
			t.Errorf("OrderStatus(%d).String() = %q, want %q", status, got, want)
		}
	}
}

func TestStatusTerminal(t *testing.T) {
	if StatusOpen.Terminal() {
		t.Error("open should not be terminal")
	}
	if !StatusFilled.Terminal() || !StatusCancelled.Terminal() {
		t.Error("filled and cancelled should be terminal")
	}
}
