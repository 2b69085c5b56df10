package api

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/big"
	"net/http"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	ethCrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/jwpark-dev/curiomatch/pkg/crypto"
	"github.com/jwpark-dev/curiomatch/pkg/exchange"
	"github.com/jwpark-dev/curiomatch/pkg/registry"
	"github.com/jwpark-dev/curiomatch/pkg/storage"
)

const maxStatusBatch = 100

// Server exposes the settlement engine over REST and streams event records
// over WebSocket. It owns the all-or-nothing discipline around each call:
// world state is snapshotted before the engine runs and restored on failure,
// so a settlement's transfers and ledger update commit together or not at all.
type Server struct {
	engine *exchange.Matcher
	world  *registry.World
	store  *storage.Store // nil disables event history reads
	router *mux.Router
	hub    *Hub
}

// NewServer creates a new API server. hub may be created beforehand so a
// HubRecorder can be wired into the engine; pass nil to create one here.
func NewServer(engine *exchange.Matcher, world *registry.World, store *storage.Store, hub *Hub) *Server {
	if hub == nil {
		hub = NewHub()
	}
	s := &Server{
		engine: engine,
		world:  world,
		store:  store,
		router: mux.NewRouter(),
		hub:    hub,
	}
	s.setupRoutes()
	return s
}

// Hub returns the WebSocket hub, for wiring a HubRecorder into the engine
func (s *Server) Hub() *Hub {
	return s.hub
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	// Settlement entrypoints
	api.HandleFunc("/match", s.handleMatch).Methods("POST")
	api.HandleFunc("/cancel", s.handleCancel).Methods("POST")

	// Read accessors
	api.HandleFunc("/orders/status", s.handleStatusBatch).Methods("POST")
	api.HandleFunc("/orders/{hash}", s.handleOrderStatus).Methods("GET")
	api.HandleFunc("/fee", s.handleFee).Methods("GET")
	api.HandleFunc("/settlements", s.handleSettlements).Methods("GET")

	// WebSocket event stream
	s.router.HandleFunc("/ws", s.handleWebSocket)

	// Health check
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Start starts the API server
func (s *Server) Start(addr string) error {
	go s.hub.Run()

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:3001"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	handler := c.Handler(s.router)

	log.Printf("[api] server starting on %s", addr)
	return http.ListenAndServe(addr, handler)
}

// ==============================
// REST Handlers
// ==============================

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	var req MatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request", err.Error())
		return
	}
	if req.BuyOrder == nil || req.SellOrder == nil {
		respondError(w, http.StatusBadRequest, "invalid request", "both orders are required")
		return
	}

	buy, err := req.BuyOrder.ToOrder()
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid buy order", err.Error())
		return
	}
	sell, err := req.SellOrder.ToOrder()
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid sell order", err.Error())
		return
	}

	buySig, err := decodeSignature(req.BuySignature)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid buy signature", err.Error())
		return
	}
	sellSig, err := decodeSignature(req.SellSignature)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid sell signature", err.Error())
		return
	}

	attached := new(big.Int)
	if req.AttachedPayment != "" {
		var ok bool
		if attached, ok = new(big.Int).SetString(req.AttachedPayment, 10); !ok || attached.Sign() < 0 {
			respondError(w, http.StatusBadRequest, "invalid payment", req.AttachedPayment)
			return
		}
	}

	if req.Caller == "" {
		respondError(w, http.StatusBadRequest, "invalid request", "missing caller")
		return
	}
	caller := common.HexToAddress(req.Caller)

	buyHash, err := s.engine.HashOrder(buy)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid buy order", err.Error())
		return
	}
	sellHash, err := s.engine.HashOrder(sell)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid sell order", err.Error())
		return
	}

	digest := fmt.Sprintf("MATCH:%s:%s:%s", buyHash.Hex(), sellHash.Hex(), caller.Hex())
	if err := verifyCallerSignature(caller, digest, req.CallerSignature); err != nil {
		respondError(w, http.StatusForbidden, "caller authentication failed", err.Error())
		return
	}

	// Snapshot before any effect; restore on any failure so partial transfers
	// never persist
	snapshot := s.world.Snapshot()

	if buy.NativePayment() && attached.Sign() > 0 {
		if err := s.world.Native.Escrow(caller, attached); err != nil {
			respondError(w, http.StatusBadRequest, "payment escrow failed", err.Error())
			return
		}
	}

	rec, err := s.engine.MatchOrders(buy, buySig, sell, sellSig, attached, caller)
	if err != nil {
		s.world.Restore(snapshot)
		respondError(w, statusCodeFor(err), "settlement failed", err.Error())
		return
	}

	respondJSON(w, rec)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	var req CancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request", err.Error())
		return
	}
	if req.Order == nil || req.Caller == "" {
		respondError(w, http.StatusBadRequest, "invalid request", "order and caller are required")
		return
	}

	order, err := req.Order.ToOrder()
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid order", err.Error())
		return
	}
	caller := common.HexToAddress(req.Caller)

	hash, err := s.engine.HashOrder(order)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid order", err.Error())
		return
	}

	digest := fmt.Sprintf("CANCEL:%s:%s", hash.Hex(), caller.Hex())
	if err := verifyCallerSignature(caller, digest, req.CallerSignature); err != nil {
		respondError(w, http.StatusForbidden, "caller authentication failed", err.Error())
		return
	}

	rec, err := s.engine.Cancel(order, caller)
	if err != nil {
		respondError(w, statusCodeFor(err), "cancel failed", err.Error())
		return
	}

	respondJSON(w, rec)
}

func (s *Server) handleOrderStatus(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	hashHex := vars["hash"]
	if !strings.HasPrefix(hashHex, "0x") || len(hashHex) != 66 {
		respondError(w, http.StatusBadRequest, "invalid hash", hashHex)
		return
	}

	status, err := s.engine.Status(common.HexToHash(hashHex))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "status lookup failed", err.Error())
		return
	}

	respondJSON(w, OrderStatusInfo{Hash: hashHex, Status: status.String()})
}

func (s *Server) handleStatusBatch(w http.ResponseWriter, r *http.Request) {
	var req StatusBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request", err.Error())
		return
	}
	if len(req.Hashes) > maxStatusBatch {
		respondError(w, http.StatusBadRequest, "too many hashes",
			fmt.Sprintf("batch limit is %d", maxStatusBatch))
		return
	}

	hashes := make([]common.Hash, len(req.Hashes))
	for i, h := range req.Hashes {
		if !strings.HasPrefix(h, "0x") || len(h) != 66 {
			respondError(w, http.StatusBadRequest, "invalid hash", h)
			return
		}
		hashes[i] = common.HexToHash(h)
	}

	statuses, err := s.engine.StatusBatch(hashes)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "status lookup failed", err.Error())
		return
	}

	response := make([]OrderStatusInfo, len(statuses))
	for i, status := range statuses {
		response[i] = OrderStatusInfo{Hash: req.Hashes[i], Status: status.String()}
	}
	respondJSON(w, response)
}

func (s *Server) handleFee(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, FeeInfo{
		PlatformFeeBps: s.engine.Fee(),
		FeeRecipient:   s.engine.FeeRecipientAddr().Hex(),
	})
}

func (s *Server) handleSettlements(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		respondJSON(w, []*exchange.SettlementRecord{})
		return
	}

	limit := 50
	if q := r.URL.Query().Get("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 1 || n > 500 {
			respondError(w, http.StatusBadRequest, "invalid limit", q)
			return
		}
		limit = n
	}

	records, err := s.store.RecentSettlements(limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "event lookup failed", err.Error())
		return
	}
	if records == nil {
		records = []*exchange.SettlementRecord{}
	}
	respondJSON(w, records)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"})
}

// ==============================
// Helper Functions
// ==============================

// decodeSignature decodes a hex-encoded 65-byte signature (with or without 0x)
func decodeSignature(sig string) ([]byte, error) {
	sig = strings.TrimPrefix(sig, "0x")

	sigBytes, err := hex.DecodeString(sig)
	if err != nil {
		return nil, fmt.Errorf("invalid hex signature: %w", err)
	}
	if len(sigBytes) != 65 {
		return nil, fmt.Errorf("signature must be 65 bytes, got %d", len(sigBytes))
	}
	return sigBytes, nil
}

// verifyCallerSignature checks the caller signed keccak256(digest)
func verifyCallerSignature(caller common.Address, digest, sigHex string) error {
	sig, err := decodeSignature(sigHex)
	if err != nil {
		return err
	}
	hash := ethCrypto.Keccak256([]byte(digest))
	if !crypto.VerifySignature(caller, hash, sig) {
		return fmt.Errorf("signature does not match caller %s", caller.Hex())
	}
	return nil
}

// statusCodeFor maps engine errors to HTTP status codes
func statusCodeFor(err error) int {
	switch {
	case errors.Is(err, exchange.ErrUnauthorizedCaller),
		errors.Is(err, exchange.ErrUnauthorizedCancel),
		errors.Is(err, exchange.ErrInvalidSignature):
		return http.StatusForbidden
	case errors.Is(err, exchange.ErrOrderNotOpen):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

func respondJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, error string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   error,
		Message: message,
	})
}
