package api

import (
	"github.com/jwpark-dev/curiomatch/pkg/exchange"
)

// ==============================
// REST Request Types
// ==============================

// MatchRequest is the payload for POST /api/v1/match. Both orders carry their
// makers' EIP-712 signatures; the caller additionally signs the request digest
// keccak256("MATCH:<buyHash>:<sellHash>:<caller>") to prove its identity.
type MatchRequest struct {
	BuyOrder      *exchange.OrderPayload `json:"buyOrder"`
	BuySignature  string                 `json:"buySignature"`
	SellOrder     *exchange.OrderPayload `json:"sellOrder"`
	SellSignature string                 `json:"sellSignature"`

	// AttachedPayment is the native currency accompanying the settlement;
	// must be "0" (or empty) for token-denominated orders
	AttachedPayment string `json:"attachedPayment"`

	Caller          string `json:"caller"`
	CallerSignature string `json:"callerSignature"` // over keccak256("MATCH:<buyHash>:<sellHash>:<caller>")
}

// CancelRequest is the payload for POST /api/v1/cancel. The caller signs
// keccak256("CANCEL:<orderHash>:<caller>").
type CancelRequest struct {
	Order           *exchange.OrderPayload `json:"order"`
	Caller          string                 `json:"caller"`
	CallerSignature string                 `json:"callerSignature"`
}

// StatusBatchRequest is the payload for POST /api/v1/orders/status
type StatusBatchRequest struct {
	Hashes []string `json:"hashes"`
}

// ==============================
// REST Response Types
// ==============================

// OrderStatusInfo pairs an order hash with its lifecycle state
type OrderStatusInfo struct {
	Hash   string `json:"hash"`
	Status string `json:"status"` // "open", "filled", "cancelled"
}

// FeeInfo reports the platform fee configuration in effect
type FeeInfo struct {
	PlatformFeeBps uint64 `json:"platformFeeBps"`
	FeeRecipient   string `json:"feeRecipient"`
}

// ErrorResponse is returned for all errors
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ==============================
// WebSocket Types
// ==============================

// WSSubscribeRequest subscribes or unsubscribes the client from event channels
// ("settlements", "cancellations")
type WSSubscribeRequest struct {
	Op       string   `json:"op"` // "subscribe" or "unsubscribe"
	Channels []string `json:"channels"`
}

// WSEvent wraps a broadcast record with its channel name
type WSEvent struct {
	Channel string      `json:"channel"`
	Data    interface{} `json:"data"`
}
