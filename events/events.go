// Package events is the append-only sink for contract events.
package events

import (
	"context"

	"go.uber.org/zap"

	"vesting-project/models"
)

// Sink receives emitted events. The contract never reads them back.
type Sink interface {
	Emit(ctx context.Context, evt models.Event) error
}

// Lister is implemented by sinks that can replay what they stored
type Lister interface {
	List(ctx context.Context, limit int) ([]models.Event, error)
}

// NoopSink drops every event.
type NoopSink struct{}

func NewNoopSink() *NoopSink { return &NoopSink{} }

func (NoopSink) Emit(context.Context, models.Event) error { return nil }

// LogSink writes events as structured log lines
type LogSink struct {
	log *zap.Logger
}

func NewLogSink(log *zap.Logger) *LogSink {
	return &LogSink{log: log.Named("events")}
}

func (s *LogSink) Emit(_ context.Context, evt models.Event) error {
	s.log.Info("contract event",
		zap.String("id", evt.ID),
		zap.String("event_type", evt.Type),
		zap.String("contract_package_hash", evt.ContractPackageHash),
		zap.String("round_name", evt.RoundName),
		zap.String("recipient", evt.Recipient),
		zap.String("deposit_amount", evt.DepositAmount),
		zap.Uint64("block_time", evt.BlockTime))
	return nil
}
