package main

import (
	"log"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/jwpark-dev/curiomatch/params"
	"github.com/jwpark-dev/curiomatch/pkg/api"
	"github.com/jwpark-dev/curiomatch/pkg/crypto"
	"github.com/jwpark-dev/curiomatch/pkg/exchange"
	"github.com/jwpark-dev/curiomatch/pkg/registry"
	"github.com/jwpark-dev/curiomatch/pkg/storage"
	"github.com/jwpark-dev/curiomatch/pkg/util"
)

func main() {
	// Load config from .env file and environment variables
	cfg, err := params.LoadFromEnv("")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := util.NewLoggerWithFile(cfg.Node.LogFile)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()
	sugar.Infow("logger_initialized", "log_file", cfg.Node.LogFile)

	// ---- Signing domain ----
	domain := crypto.EIP712Domain{
		Name:              "CurioMatch",
		Version:           "1",
		ChainID:           cfg.Protocol.ChainID,
		VerifyingContract: common.HexToAddress(cfg.Protocol.VerifyingContract),
	}
	codec := crypto.NewOrderCodec(domain)

	// ---- Persistence ----
	store, err := storage.Open(cfg.Node.DBPath)
	if err != nil {
		sugar.Fatalw("storage_open_failed", "path", cfg.Node.DBPath, "err", err)
	}
	defer store.Close()

	// ---- Collaborators ----
	world := registry.NewWorld()

	admin, err := exchange.NewAdminConfig(cfg.Fees.PlatformFeeBps, common.HexToAddress(cfg.Fees.FeeRecipient))
	if err != nil {
		sugar.Fatalw("fee_config_invalid", "err", err)
	}

	var vault *exchange.Vault
	if cfg.Fees.VaultAddress != "" {
		vault, err = exchange.NewVault(
			common.HexToAddress(cfg.Fees.VaultAddress),
			common.HexToAddress(cfg.Fees.RoyaltyBeneficiary),
			cfg.Fees.RoyaltyShareBps,
			world.Native,
			world.Tokens,
		)
		if err != nil {
			sugar.Fatalw("vault_config_invalid", "err", err)
		}
		vault = vault.WithStore(store)
	}

	// ---- Engine ----
	hub := api.NewHub()
	engine := exchange.NewMatcher(exchange.MatcherDeps{
		Codec:  codec,
		Ledger: store,
		Assets: world.Assets,
		Tokens: world.Tokens,
		Native: world.Native,
		Admin:  admin,
		Vault:  vault,
		Recorder: exchange.MultiRecorder{
			storage.NewEventRecorder(store, logger),
			api.NewHubRecorder(hub),
		},
		Logger: logger,
	}, exchange.MatcherConfig{
		LegacyFeeOverflow: cfg.Fees.LegacyFeeOverflow,
	})

	if cfg.Node.DevnetSeed {
		seedDevnet(world, sugar)
	}

	// ---- API ----
	server := api.NewServer(engine, world, store, hub)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start(cfg.Node.ListenAddr) }()

	sugar.Infow("settled_started",
		"listen", cfg.Node.ListenAddr,
		"chain_id", cfg.Protocol.ChainID.String(),
		"platform_fee_bps", cfg.Fees.PlatformFeeBps,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		sugar.Infow("shutting_down", "signal", sig.String())
	case err := <-errCh:
		sugar.Errorw("server_stopped", "err", err)
	}
}

// seedDevnet funds two demo accounts and mints a small demo collection so the
// API is exercisable out of the box. Keys are fresh per boot and logged.
func seedDevnet(world *registry.World, sugar *zap.SugaredLogger) {
	seller, err := crypto.GenerateKey()
	if err != nil {
		return
	}
	buyer, err := crypto.GenerateKey()
	if err != nil {
		return
	}

	collection := common.HexToAddress("0x00000000000000000000000000000000c0011ec7")
	oneEther := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

	for id := int64(1); id <= 3; id++ {
		_ = world.Assets.Mint(collection, big.NewInt(id), seller.Address())
	}
	world.Native.Credit(buyer.Address(), new(big.Int).Mul(oneEther, big.NewInt(100)))
	world.Native.Credit(seller.Address(), new(big.Int).Mul(oneEther, big.NewInt(10)))

	sugar.Infow("devnet_seeded",
		"collection", collection.Hex(),
		"seller", seller.Address().Hex(),
		"seller_key", seller.PrivateKeyHex(),
		"buyer", buyer.Address().Hex(),
		"buyer_key", buyer.PrivateKeyHex(),
	)
}
