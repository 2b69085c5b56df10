package params

import (
	"fmt"
	"math/big"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Protocol identifies the signing domain: orders signed for one chain or
// verifying contract are unusable on any other.
type Protocol struct {
	ChainID           *big.Int
	VerifyingContract string // 0x-hex address, zero for off-chain deployments
}

// Fees is the administrative fee and royalty-distributor configuration
type Fees struct {
	PlatformFeeBps     uint64 // exchange.NewAdminConfig rejects values above its cap
	FeeRecipient       string // 0x-hex address
	RoyaltyShareBps    uint64 // distributor's beneficiary cut per deposit
	RoyaltyBeneficiary string // 0x-hex address
	VaultAddress       string // 0x-hex address of the royalty distributor
	LegacyFeeOverflow  bool   // bug-compatible raw overflow instead of FeeOverflow
}

type Node struct {
	ListenAddr string
	DBPath     string
	LogFile    string
	DevnetSeed bool // fund demo accounts and mint demo collectibles at startup
}

type Config struct {
	Protocol Protocol
	Fees     Fees
	Node     Node
}

func Default() Config {
	return Config{
		Protocol: Protocol{
			ChainID:           big.NewInt(1337),
			VerifyingContract: "",
		},
		Fees: Fees{
			PlatformFeeBps:     250, // 2.5%
			FeeRecipient:       "",
			RoyaltyShareBps:    1000, // 10% of each deposit to the beneficiary
			RoyaltyBeneficiary: "",
			VaultAddress:       "",
			LegacyFeeOverflow:  false,
		},
		Node: Node{
			ListenAddr: ":8080",
			DBPath:     "data/settled",
			LogFile:    "data/settled.log",
			DevnetSeed: true,
		},
	}
}

// LoadFromEnv loads configuration from .env file (if exists) and environment
// variables. Priority: ENV > .env file > defaults.
func LoadFromEnv(envPath string) (Config, error) {
	cfg := Default()

	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load() // loads .env from current directory
	}

	if chainID := os.Getenv("CHAIN_ID"); chainID != "" {
		id, ok := new(big.Int).SetString(chainID, 10)
		if !ok {
			return cfg, fmt.Errorf("invalid CHAIN_ID: %s", chainID)
		}
		cfg.Protocol.ChainID = id
	}
	if contract := os.Getenv("VERIFYING_CONTRACT"); contract != "" {
		cfg.Protocol.VerifyingContract = contract
	}

	if fee := os.Getenv("PLATFORM_FEE_BPS"); fee != "" {
		bps, err := strconv.ParseUint(fee, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("invalid PLATFORM_FEE_BPS: %s", fee)
		}
		cfg.Fees.PlatformFeeBps = bps
	}
	if recipient := os.Getenv("FEE_RECIPIENT"); recipient != "" {
		cfg.Fees.FeeRecipient = recipient
	}
	if share := os.Getenv("ROYALTY_SHARE_BPS"); share != "" {
		bps, err := strconv.ParseUint(share, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("invalid ROYALTY_SHARE_BPS: %s", share)
		}
		cfg.Fees.RoyaltyShareBps = bps
	}
	if beneficiary := os.Getenv("ROYALTY_BENEFICIARY"); beneficiary != "" {
		cfg.Fees.RoyaltyBeneficiary = beneficiary
	}
	if vault := os.Getenv("VAULT_ADDRESS"); vault != "" {
		cfg.Fees.VaultAddress = vault
	}
	if legacy := os.Getenv("LEGACY_FEE_OVERFLOW"); legacy != "" {
		cfg.Fees.LegacyFeeOverflow = legacy == "true"
	}

	if addr := os.Getenv("LISTEN_ADDR"); addr != "" {
		cfg.Node.ListenAddr = addr
	}
	if path := os.Getenv("DB_PATH"); path != "" {
		cfg.Node.DBPath = path
	}
	if logFile := os.Getenv("LOG_FILE"); logFile != "" {
		cfg.Node.LogFile = logFile
	}
	if seed := os.Getenv("DEVNET_SEED"); seed != "" {
		cfg.Node.DevnetSeed = seed == "true"
	}

	return cfg, nil
}
