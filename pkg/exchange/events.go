package exchange

// Settlement and cancellation records are append-only and observational:
// they exist for off-system indexing (event log, WebSocket stream) and are
// never read back by the engine.

// SettlementRecord is emitted after a successful match
type SettlementRecord struct {
	BuyHash          string `json:"buyHash"`
	SellHash         string `json:"sellHash"`
	Buyer            string `json:"buyer"`
	Seller           string `json:"seller"`
	Caller           string `json:"caller"`
	Target           string `json:"target"`
	TokenID          string `json:"tokenId"`
	PaymentToken     string `json:"paymentToken"` // zero address = native
	Value            string `json:"value"`
	FeeAmount        string `json:"feeAmount"`
	RoyaltyAmount    string `json:"royaltyAmount"`
	NetAmount        string `json:"netAmount"`
	RoyaltyRecipient string `json:"royaltyRecipient"`
	RoyaltyBps       string `json:"royaltyBps"`
	IsAuction        bool   `json:"isAuction"`
	Timestamp        int64  `json:"timestamp"` // Unix seconds
}

// CancellationRecord is emitted after a maker cancels an open order
type CancellationRecord struct {
	OrderHash string `json:"orderHash"`
	Maker     string `json:"maker"`
	Timestamp int64  `json:"timestamp"` // Unix seconds
}

// Recorder receives emitted records. Implementations must not fail the
// settlement; delivery problems are the sink's own concern.
type Recorder interface {
	RecordSettlement(rec *SettlementRecord)
	RecordCancellation(rec *CancellationRecord)
}

// NopRecorder discards all records
type NopRecorder struct{}

func (NopRecorder) RecordSettlement(*SettlementRecord)     {}
func (NopRecorder) RecordCancellation(*CancellationRecord) {}

// MultiRecorder fans a record out to several sinks in order
type MultiRecorder []Recorder

func (m MultiRecorder) RecordSettlement(rec *SettlementRecord) {
	for _, r := range m {
		r.RecordSettlement(rec)
	}
}

func (m MultiRecorder) RecordCancellation(rec *CancellationRecord) {
	for _, r := range m {
		r.RecordCancellation(rec)
	}
}
