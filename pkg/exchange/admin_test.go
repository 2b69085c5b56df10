package exchange

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestAdminConfigDefaults(t *testing.T) {
	recipient := common.HexToAddress("0x00000000000000000000000000000000000000fe")
	admin, err := NewAdminConfig(250, recipient)
	if err != nil {
		t.Fatalf("new admin config: %v", err)
	}

	if admin.PlatformFeeBps() != 250 {
		t.Errorf("fee = %d, want 250", admin.PlatformFeeBps())
	}
	if admin.FeeRecipient() != recipient {
		t.Errorf("recipient = %s, want %s", admin.FeeRecipient().Hex(), recipient.Hex())
	}
}

func TestAdminConfigFeeBound(t *testing.T) {
	recipient := common.HexToAddress("0xfe")

	// The cap itself is allowed
	admin, err := NewAdminConfig(MaxPlatformFeeBps, recipient)
	if err != nil {
		t.Fatalf("fee at cap rejected: %v", err)
	}

	// One above is not
	if _, err := NewAdminConfig(MaxPlatformFeeBps+1, recipient); err == nil {
		t.Error("fee above cap should be rejected at construction")
	}
	if err := admin.SetPlatformFeeBps(MaxPlatformFeeBps + 1); err == nil {
		t.Error("fee above cap should be rejected on update")
	}

	// A rejected update leaves the old value in place
	if admin.PlatformFeeBps() != MaxPlatformFeeBps {
		t.Errorf("fee = %d after rejected update, want %d", admin.PlatformFeeBps(), MaxPlatformFeeBps)
	}
}

func TestAdminConfigUpdate(t *testing.T) {
	admin, _ := NewAdminConfig(250, common.HexToAddress("0xfe"))

	if err := admin.SetPlatformFeeBps(100); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if admin.PlatformFeeBps() != 100 {
		t.Errorf("fee = %d, want 100", admin.PlatformFeeBps())
	}

	next := common.HexToAddress("0x00000000000000000000000000000000000000ff")
	admin.SetFeeRecipient(next)
	if admin.FeeRecipient() != next {
		t.Errorf("recipient = %s, want %s", admin.FeeRecipient().Hex(), next.Hex())
	}
}
