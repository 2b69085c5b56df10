package storage

import (
	"go.uber.org/zap"

	"github.com/jwpark-dev/curiomatch/pkg/exchange"
)

// EventRecorder adapts the Store's event log to the engine's Recorder
// interface. Records are observational: a write failure is logged but never
// fails the settlement that produced it.
type EventRecorder struct {
	store  *Store
	logger *zap.Logger
}

func NewEventRecorder(store *Store, logger *zap.Logger) *EventRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventRecorder{store: store, logger: logger}
}

func (r *EventRecorder) RecordSettlement(rec *exchange.SettlementRecord) {
	if err := r.store.AppendSettlement(rec); err != nil {
		r.logger.Warn("settlement event write failed",
			zap.String("buy_hash", rec.BuyHash), zap.Error(err))
	}
}

func (r *EventRecorder) RecordCancellation(rec *exchange.CancellationRecord) {
	if err := r.store.AppendCancellation(rec); err != nil {
		r.logger.Warn("cancellation event write failed",
			zap.String("order_hash", rec.OrderHash), zap.Error(err))
	}
}

var _ exchange.Recorder = (*EventRecorder)(nil)
