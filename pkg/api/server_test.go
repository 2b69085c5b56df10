package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	ethCrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/jwpark-dev/curiomatch/pkg/crypto"
	"github.com/jwpark-dev/curiomatch/pkg/exchange"
	"github.com/jwpark-dev/curiomatch/pkg/registry"
	"github.com/jwpark-dev/curiomatch/pkg/util"
)

var (
	testCollection   = common.HexToAddress("0x00000000000000000000000000000000c0011ec7")
	testFeeRecipient = common.HexToAddress("0x00000000000000000000000000000000000000fe")
)

// apiHarness is a server over the in-memory world with funded test accounts
type apiHarness struct {
	t      *testing.T
	server *Server
	world  *registry.World
	codec  *crypto.OrderCodec
	buyer  *crypto.Signer
	seller *crypto.Signer
	salt   int64
}

func newAPIHarness(t *testing.T) *apiHarness {
	t.Helper()

	world := registry.NewWorld()
	admin, err := exchange.NewAdminConfig(1000, testFeeRecipient) // 10%
	if err != nil {
		t.Fatalf("admin config: %v", err)
	}
	codec := crypto.NewOrderCodec(crypto.DefaultDomain())

	engine := exchange.NewMatcher(exchange.MatcherDeps{
		Codec:  codec,
		Ledger: exchange.NewMemoryLedger(),
		Assets: world.Assets,
		Tokens: world.Tokens,
		Native: world.Native,
		Admin:  admin,
		Clock:  util.FixedClock{T: time.Unix(1_700_000_000, 0)},
	}, exchange.MatcherConfig{})

	h := &apiHarness{
		t:      t,
		server: NewServer(engine, world, nil, nil),
		world:  world,
		codec:  codec,
		salt:   1,
	}
	h.buyer, _ = crypto.GenerateKey()
	h.seller, _ = crypto.GenerateKey()

	// Fund the buyer and mint the collectible to the seller
	world.Native.Credit(h.buyer.Address(), big.NewInt(1_000_000))
	if err := world.Assets.Mint(testCollection, big.NewInt(1), h.seller.Address()); err != nil {
		t.Fatalf("mint: %v", err)
	}
	return h
}

func (h *apiHarness) pair(value int64) (*exchange.Order, *exchange.Order) {
	h.t.Helper()
	base := func(isBuy bool, maker common.Address) *exchange.Order {
		h.salt++
		return &exchange.Order{
			IsBuySide: isBuy,
			Maker:     maker,
			Value:     big.NewInt(value),
			Royalty:   big.NewInt(0),
			Target:    testCollection,
			TokenID:   big.NewInt(1),
			Start:     big.NewInt(0),
			End:       big.NewInt(0),
			Salt:      big.NewInt(h.salt),
		}
	}
	return base(true, h.buyer.Address()), base(false, h.seller.Address())
}

func (h *apiHarness) signOrder(signer *crypto.Signer, order *exchange.Order) string {
	h.t.Helper()
	sig, err := h.codec.SignOrder(signer, order.Typed())
	if err != nil {
		h.t.Fatalf("sign order: %v", err)
	}
	return fmt.Sprintf("0x%x", sig)
}

func (h *apiHarness) signDigest(signer *crypto.Signer, digest string) string {
	h.t.Helper()
	sig, err := signer.Sign(ethCrypto.Keccak256([]byte(digest)))
	if err != nil {
		h.t.Fatalf("sign digest: %v", err)
	}
	return fmt.Sprintf("0x%x", sig)
}

func (h *apiHarness) matchRequest(buy, sell *exchange.Order, attached string) *MatchRequest {
	h.t.Helper()
	buyHash, _ := h.server.engine.HashOrder(buy)
	sellHash, _ := h.server.engine.HashOrder(sell)
	caller := h.buyer.Address()
	digest := fmt.Sprintf("MATCH:%s:%s:%s", buyHash.Hex(), sellHash.Hex(), caller.Hex())

	return &MatchRequest{
		BuyOrder:        exchange.FromOrder(buy),
		BuySignature:    h.signOrder(h.buyer, buy),
		SellOrder:       exchange.FromOrder(sell),
		SellSignature:   h.signOrder(h.seller, sell),
		AttachedPayment: attached,
		Caller:          caller.Hex(),
		CallerSignature: h.signDigest(h.buyer, digest),
	}
}

func (h *apiHarness) post(path string, body interface{}) *httptest.ResponseRecorder {
	h.t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		h.t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest("POST", path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.server.router.ServeHTTP(w, req)
	return w
}

func (h *apiHarness) get(path string) *httptest.ResponseRecorder {
	h.t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	w := httptest.NewRecorder()
	h.server.router.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	h := newAPIHarness(t)
	w := h.get("/health")
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestFeeEndpoint(t *testing.T) {
	h := newAPIHarness(t)
	w := h.get("/api/v1/fee")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var info FeeInfo
	if err := json.Unmarshal(w.Body.Bytes(), &info); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if info.PlatformFeeBps != 1000 {
		t.Errorf("fee = %d, want 1000", info.PlatformFeeBps)
	}
	if info.FeeRecipient != testFeeRecipient.Hex() {
		t.Errorf("recipient = %s, want %s", info.FeeRecipient, testFeeRecipient.Hex())
	}
}

func TestMatchEndpoint(t *testing.T) {
	h := newAPIHarness(t)
	buy, sell := h.pair(100)

	w := h.post("/api/v1/match", h.matchRequest(buy, sell, "100"))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", w.Code, w.Body.String())
	}

	var rec exchange.SettlementRecord
	if err := json.Unmarshal(w.Body.Bytes(), &rec); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if rec.NetAmount != "90" || rec.FeeAmount != "10" {
		t.Errorf("split = net %s / fee %s, want 90/10", rec.NetAmount, rec.FeeAmount)
	}

	// Effects landed
	owner, _ := h.world.Assets.OwnerOf(testCollection, big.NewInt(1))
	if owner != h.buyer.Address() {
		t.Errorf("owner = %s, want buyer", owner.Hex())
	}
	if got := h.world.Native.BalanceOf(h.seller.Address()); got.Int64() != 90 {
		t.Errorf("seller balance = %s, want 90", got)
	}

	// Status endpoint reflects the fill
	sw := h.get("/api/v1/orders/" + rec.BuyHash)
	var info OrderStatusInfo
	if err := json.Unmarshal(sw.Body.Bytes(), &info); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if info.Status != "filled" {
		t.Errorf("status = %s, want filled", info.Status)
	}
}

func TestMatchEndpointBadCallerSignature(t *testing.T) {
	h := newAPIHarness(t)
	buy, sell := h.pair(100)

	req := h.matchRequest(buy, sell, "100")
	req.CallerSignature = h.signDigest(h.seller, "MATCH:wrong")

	w := h.post("/api/v1/match", req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}

	// No effects
	owner, _ := h.world.Assets.OwnerOf(testCollection, big.NewInt(1))
	if owner != h.seller.Address() {
		t.Errorf("owner = %s, want seller (no transfer)", owner.Hex())
	}
}

func TestMatchEndpointRollsBackEscrow(t *testing.T) {
	h := newAPIHarness(t)

	// Pair whose engine-side validation fails after escrow: seller does not
	// own the collectible
	buy, sell := h.pair(100)
	buy.TokenID = big.NewInt(7)
	sell.TokenID = big.NewInt(7)

	before := h.world.Native.BalanceOf(h.buyer.Address())
	w := h.post("/api/v1/match", h.matchRequest(buy, sell, "100"))
	if w.Code == http.StatusOK {
		t.Fatal("match for unminted token should fail")
	}

	// Escrowed payment restored to the buyer
	if got := h.world.Native.BalanceOf(h.buyer.Address()); got.Cmp(before) != 0 {
		t.Errorf("buyer balance = %s after failed match, want %s", got, before)
	}
	if got := h.world.Native.Escrowed(); got.Sign() != 0 {
		t.Errorf("escrow = %s after failed match, want 0", got)
	}
}

func TestMatchEndpointReplayConflict(t *testing.T) {
	h := newAPIHarness(t)
	buy, sell := h.pair(100)
	req := h.matchRequest(buy, sell, "100")

	if w := h.post("/api/v1/match", req); w.Code != http.StatusOK {
		t.Fatalf("first match: status = %d (body: %s)", w.Code, w.Body.String())
	}
	if w := h.post("/api/v1/match", req); w.Code != http.StatusConflict {
		t.Fatalf("replay: status = %d, want 409", w.Code)
	}
}

func TestCancelEndpoint(t *testing.T) {
	h := newAPIHarness(t)
	_, sell := h.pair(100)

	hash, _ := h.server.engine.HashOrder(sell)
	digest := fmt.Sprintf("CANCEL:%s:%s", hash.Hex(), h.seller.Address().Hex())
	req := &CancelRequest{
		Order:           exchange.FromOrder(sell),
		Caller:          h.seller.Address().Hex(),
		CallerSignature: h.signDigest(h.seller, digest),
	}

	w := h.post("/api/v1/cancel", req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", w.Code, w.Body.String())
	}

	status, _ := h.server.engine.Status(hash)
	if status != exchange.StatusCancelled {
		t.Errorf("status = %s, want cancelled", status)
	}

	// Double cancel conflicts
	if w := h.post("/api/v1/cancel", req); w.Code != http.StatusConflict {
		t.Fatalf("double cancel: status = %d, want 409", w.Code)
	}
}

func TestCancelEndpointWrongSigner(t *testing.T) {
	h := newAPIHarness(t)
	_, sell := h.pair(100)

	// Buyer signs a cancel for the seller's order
	hash, _ := h.server.engine.HashOrder(sell)
	digest := fmt.Sprintf("CANCEL:%s:%s", hash.Hex(), h.seller.Address().Hex())
	req := &CancelRequest{
		Order:           exchange.FromOrder(sell),
		Caller:          h.seller.Address().Hex(),
		CallerSignature: h.signDigest(h.buyer, digest),
	}

	if w := h.post("/api/v1/cancel", req); w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
}

func TestStatusBatchEndpoint(t *testing.T) {
	h := newAPIHarness(t)
	buy, _ := h.pair(100)
	hash, _ := h.server.engine.HashOrder(buy)

	w := h.post("/api/v1/orders/status", &StatusBatchRequest{
		Hashes: []string{hash.Hex()},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var infos []OrderStatusInfo
	if err := json.Unmarshal(w.Body.Bytes(), &infos); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(infos) != 1 || infos[0].Status != "open" {
		t.Errorf("response = %+v, want one open entry", infos)
	}

	// Malformed hash rejected
	w = h.post("/api/v1/orders/status", &StatusBatchRequest{Hashes: []string{"nope"}})
	if w.Code != http.StatusBadRequest {
		t.Errorf("malformed hash: status = %d, want 400", w.Code)
	}
}

func TestSettlementsEndpointWithoutStore(t *testing.T) {
	h := newAPIHarness(t)
	w := h.get("/api/v1/settlements")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var records []*exchange.SettlementRecord
	if err := json.Unmarshal(w.Body.Bytes(), &records); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("got %d records without a store, want 0", len(records))
	}
}
