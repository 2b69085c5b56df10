package exchange

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/jwpark-dev/curiomatch/pkg/crypto"
	"github.com/jwpark-dev/curiomatch/pkg/util"
)

// Matcher is the settlement engine: it validates a signed (buy, sell) order
// pair, computes the fee/royalty split at current configuration, executes the
// asset and payment transfers through the collaborator capabilities, and
// finalizes ledger state.
//
// The engine is logically single-threaded per settlement: the host serializes
// state-mutating calls and guarantees that a settlement's external effects
// commit together or not at all. The matcher's discipline is to evaluate every
// check before the first transfer and to propagate any transfer failure
// unwrapped so the host can discard the attempt.
type Matcher struct {
	codec    *crypto.OrderCodec
	ledger   OrderLedger
	assets   AssetRegistry
	tokens   FungibleTransfer
	native   NativeTransfer
	admin    Admin
	clock    util.Clock
	vault    *Vault // optional royalty distributor
	recorder Recorder
	logger   *zap.Logger

	// legacyFeeOverflow preserves the historical raw-overflow failure when a
	// fee raise pushes fee+royalty past 100% after royalty terms were signed
	legacyFeeOverflow bool
}

// MatcherDeps bundles the matcher's collaborators
type MatcherDeps struct {
	Codec    *crypto.OrderCodec
	Ledger   OrderLedger
	Assets   AssetRegistry
	Tokens   FungibleTransfer
	Native   NativeTransfer
	Admin    Admin
	Clock    util.Clock // defaults to util.RealClock
	Vault    *Vault     // nil = no distributor path
	Recorder Recorder   // defaults to NopRecorder
	Logger   *zap.Logger
}

// MatcherConfig carries behavior toggles
type MatcherConfig struct {
	// LegacyFeeOverflow: report fee+royalty > 100% as ErrArithmeticOverflow
	// (bug-compatible) instead of the explicit ErrFeeOverflow
	LegacyFeeOverflow bool
}

func NewMatcher(deps MatcherDeps, cfg MatcherConfig) *Matcher {
	if deps.Clock == nil {
		deps.Clock = util.RealClock{}
	}
	if deps.Recorder == nil {
		deps.Recorder = NopRecorder{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Matcher{
		codec:             deps.Codec,
		ledger:            deps.Ledger,
		assets:            deps.Assets,
		tokens:            deps.Tokens,
		native:            deps.Native,
		admin:             deps.Admin,
		clock:             deps.Clock,
		vault:             deps.Vault,
		recorder:          deps.Recorder,
		logger:            deps.Logger,
		legacyFeeOverflow: cfg.LegacyFeeOverflow,
	}
}

// HashOrder computes the canonical domain-separated hash of an order
func (m *Matcher) HashOrder(order *Order) (common.Hash, error) {
	digest, err := m.codec.HashOrder(order.Typed())
	if err != nil {
		return common.Hash{}, fmt.Errorf("hash order: %w", err)
	}
	return common.BytesToHash(digest), nil
}

// verifyMaker checks that signature over hash recovers the order's declared maker
func (m *Matcher) verifyMaker(order *Order, hash common.Hash, signature []byte) error {
	recovered, err := crypto.RecoverAddress(hash.Bytes(), signature)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if recovered != order.Maker {
		return fmt.Errorf("%w: recovered %s, maker %s",
			ErrInvalidSignature, recovered.Hex(), order.Maker.Hex())
	}
	return nil
}

// MatchOrders settles a complementary (buy, sell) pair.
//
// attachedPayment is the native currency accompanying the call: it must equal
// buy.Value exactly for native-denominated orders and be zero for
// token-denominated ones. caller must be the buy-side maker for fixed-price
// orders and the sell-side maker for auction orders.
func (m *Matcher) MatchOrders(buy *Order, buySig []byte, sell *Order, sellSig []byte,
	attachedPayment *big.Int, caller common.Address) (*SettlementRecord, error) {

	// 1. Hashes and signatures
	buyHash, err := m.HashOrder(buy)
	if err != nil {
		return nil, err
	}
	sellHash, err := m.HashOrder(sell)
	if err != nil {
		return nil, err
	}
	if err := m.verifyMaker(buy, buyHash, buySig); err != nil {
		return nil, err
	}
	if err := m.verifyMaker(sell, sellHash, sellSig); err != nil {
		return nil, err
	}

	// 2. Structural cross-check
	if !Matchable(buy, sell) {
		return nil, fmt.Errorf("%w: orders do not form a settleable pair", ErrInvalidOrderParameters)
	}

	// 3. Validity windows
	now := m.clock.Now().Unix()
	if !buy.InWindow(now) || !sell.InWindow(now) {
		return nil, fmt.Errorf("%w: now=%d", ErrOrderExpiredOrNotStarted, now)
	}

	// 4. Lifecycle
	for _, h := range []common.Hash{buyHash, sellHash} {
		status, err := m.ledger.Status(h)
		if err != nil {
			return nil, fmt.Errorf("ledger status: %w", err)
		}
		if status != StatusOpen {
			return nil, fmt.Errorf("%w: %s is %s", ErrOrderNotOpen, h.Hex(), status)
		}
	}

	// 5. Caller authorization: fixed-price pairs are executed by the buyer,
	// auction pairs by the seller settling a won bid
	executor := buy.Maker
	if buy.IsAuction {
		executor = sell.Maker
	}
	if caller != executor {
		return nil, fmt.Errorf("%w: caller %s, expected %s",
			ErrUnauthorizedCaller, caller.Hex(), executor.Hex())
	}

	// 6. Payment mode
	if attachedPayment == nil {
		attachedPayment = new(big.Int)
	}
	if buy.NativePayment() {
		if attachedPayment.Cmp(buy.Value) != 0 {
			return nil, fmt.Errorf("%w: attached %s, want %s",
				ErrInvalidPayment, attachedPayment, buy.Value)
		}
	} else if attachedPayment.Sign() != 0 {
		return nil, fmt.Errorf("%w: native payment attached to token-denominated order",
			ErrInvalidPayment)
	}

	// 7. Split at current configuration
	if !buy.Royalty.IsUint64() {
		return nil, fmt.Errorf("%w: royalty out of range", ErrInvalidOrderParameters)
	}
	royaltyBps := buy.Royalty.Uint64()
	feeBps := m.admin.PlatformFeeBps()
	split, err := SplitValue(buy.Value, feeBps, royaltyBps, m.legacyFeeOverflow)
	if err != nil {
		return nil, err
	}

	// 8. Asset transfer. Each side signed its own half-knowledge copy of the
	// transfer instruction; the guarded merge reconciles them without letting
	// either side override a pinned field.
	if owner, err := m.assets.OwnerOf(buy.Target, buy.TokenID); err != nil {
		return nil, fmt.Errorf("asset lookup: %w", err)
	} else if owner != sell.Maker {
		return nil, fmt.Errorf("%w: seller %s does not own token",
			ErrInvalidOrderParameters, sell.Maker.Hex())
	}

	buyInstr, err := EncodeTransferInstruction(common.Address{}, buy.Maker, buy.TokenID)
	if err != nil {
		return nil, err
	}
	sellInstr, err := EncodeTransferInstruction(sell.Maker, common.Address{}, sell.TokenID)
	if err != nil {
		return nil, err
	}
	merged, err := GuardedMerge(buyInstr, sellInstr, BuyerMask())
	if err != nil {
		return nil, err
	}
	from, to, tokenID, err := DecodeTransferInstruction(merged)
	if err != nil {
		return nil, fmt.Errorf("merged instruction: %w", err)
	}
	if err := m.assets.Transfer(buy.Target, tokenID, from, to); err != nil {
		return nil, fmt.Errorf("asset transfer: %w", err)
	}

	// 9. Payment distribution: net to seller, fee to the platform recipient,
	// royalty to the recipient or through the distributor vault
	if err := m.distribute(buy, sell.Maker, split); err != nil {
		return nil, err
	}

	// 10. Finalize and emit
	if err := m.ledger.SetStatus(buyHash, StatusFilled); err != nil {
		return nil, err
	}
	if err := m.ledger.SetStatus(sellHash, StatusFilled); err != nil {
		return nil, err
	}

	rec := &SettlementRecord{
		BuyHash:          buyHash.Hex(),
		SellHash:         sellHash.Hex(),
		Buyer:            buy.Maker.Hex(),
		Seller:           sell.Maker.Hex(),
		Caller:           caller.Hex(),
		Target:           buy.Target.Hex(),
		TokenID:          buy.TokenID.String(),
		PaymentToken:     buy.PaymentToken.Hex(),
		Value:            buy.Value.String(),
		FeeAmount:        split.FeeAmount.String(),
		RoyaltyAmount:    split.RoyaltyAmount.String(),
		NetAmount:        split.NetAmount.String(),
		RoyaltyRecipient: buy.RoyaltyRecipient.Hex(),
		RoyaltyBps:       buy.Royalty.String(),
		IsAuction:        buy.IsAuction,
		Timestamp:        now,
	}
	m.recorder.RecordSettlement(rec)
	m.logger.Info("settlement",
		zap.String("buy_hash", rec.BuyHash),
		zap.String("sell_hash", rec.SellHash),
		zap.String("token_id", rec.TokenID),
		zap.String("value", rec.Value),
		zap.String("fee", rec.FeeAmount),
		zap.String("royalty", rec.RoyaltyAmount),
	)
	return rec, nil
}

// distribute moves the split to its three payees in fixed order
func (m *Matcher) distribute(buy *Order, seller common.Address, split FeeRoyaltySplit) error {
	type payout struct {
		to     common.Address
		amount *big.Int
	}

	royaltyTo := buy.RoyaltyRecipient
	viaVault := m.vault != nil && royaltyTo == m.vault.Address()

	payouts := []payout{
		{seller, split.NetAmount},
		{m.admin.FeeRecipient(), split.FeeAmount},
		{royaltyTo, split.RoyaltyAmount},
	}

	for _, p := range payouts {
		if p.amount.Sign() == 0 {
			continue
		}
		var err error
		if buy.NativePayment() {
			err = m.native.Send(p.to, p.amount)
		} else {
			err = m.tokens.TransferFrom(buy.PaymentToken, buy.Maker, p.to, p.amount)
		}
		if err != nil {
			return fmt.Errorf("payment transfer: %w", err)
		}
	}

	if viaVault && split.RoyaltyAmount.Sign() > 0 {
		if err := m.vault.Deposit(buy.Target, buy.PaymentToken, split.RoyaltyAmount); err != nil {
			return fmt.Errorf("royalty deposit: %w", err)
		}
	}
	return nil
}

// Cancel transitions the maker's own open order to Cancelled
func (m *Matcher) Cancel(order *Order, caller common.Address) (*CancellationRecord, error) {
	hash, err := m.HashOrder(order)
	if err != nil {
		return nil, err
	}
	if caller != order.Maker {
		return nil, fmt.Errorf("%w: caller %s, maker %s",
			ErrUnauthorizedCancel, caller.Hex(), order.Maker.Hex())
	}

	status, err := m.ledger.Status(hash)
	if err != nil {
		return nil, fmt.Errorf("ledger status: %w", err)
	}
	if status != StatusOpen {
		return nil, fmt.Errorf("%w: %s is %s", ErrOrderNotOpen, hash.Hex(), status)
	}
	if err := m.ledger.SetStatus(hash, StatusCancelled); err != nil {
		return nil, err
	}

	rec := &CancellationRecord{
		OrderHash: hash.Hex(),
		Maker:     order.Maker.Hex(),
		Timestamp: m.clock.Now().Unix(),
	}
	m.recorder.RecordCancellation(rec)
	m.logger.Info("cancellation",
		zap.String("order_hash", rec.OrderHash),
		zap.String("maker", rec.Maker),
	)
	return rec, nil
}

// Status returns the lifecycle state for an order hash
func (m *Matcher) Status(hash common.Hash) (OrderStatus, error) {
	return m.ledger.Status(hash)
}

// StatusBatch returns lifecycle states for several order hashes at once
func (m *Matcher) StatusBatch(hashes []common.Hash) ([]OrderStatus, error) {
	out := make([]OrderStatus, len(hashes))
	for i, h := range hashes {
		status, err := m.ledger.Status(h)
		if err != nil {
			return nil, err
		}
		out[i] = status
	}
	return out, nil
}

// Fee returns the platform fee in effect for the next settlement
func (m *Matcher) Fee() uint64 {
	return m.admin.PlatformFeeBps()
}

// FeeRecipientAddr returns where platform fees are currently paid
func (m *Matcher) FeeRecipientAddr() common.Address {
	return m.admin.FeeRecipient()
}
