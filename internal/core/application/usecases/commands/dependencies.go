// Package commands contains the operations that change dispatcher state:
// dispatching an order, recording a fired stage transition and cancelling an order.
// Every command is built through its constructor and validated by its handler.
package commands

import (
	"context"
	"log/slog"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/timeline"
	"fulfillment/internal/core/ports"
)

// Collaborators the handlers need beyond the ports.
type (
	// Clock supplies dispatch and transition timestamps.
	Clock interface {
		Now() time.Time
	}

	// Metrics receives dispatcher counters. Implemented by internal/pkg/metrics.
	Metrics interface {
		OrderDispatched(facility string)
		DispatchRejected(kind string)
		StageRecorded(stage string)
		StageDropped(stage string)
		StagePublishFailed(stage string)
	}
)

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

// NopMetrics discards every observation.
type NopMetrics struct{}

func (NopMetrics) OrderDispatched(string)    {}
func (NopMetrics) DispatchRejected(string)   {}
func (NopMetrics) StageRecorded(string)      {}
func (NopMetrics) StageDropped(string)       {}
func (NopMetrics) StagePublishFailed(string) {}

// eventAnnouncer publishes recorded events. Failures are logged and counted, never
// returned: the ledger is the source of truth and publishing is best effort.
type eventAnnouncer struct {
	publisher ports.StageEventPublisher
	metrics   Metrics
	logger    *slog.Logger
}

func (a eventAnnouncer) announce(ctx context.Context, orderID kernel.OrderID, event timeline.StageEvent) {
	if a.publisher == nil {
		return
	}

	if err := a.publisher.Publish(ctx, orderID, event); err != nil {
		a.metrics.StagePublishFailed(event.Stage().String())
		a.logger.WarnContext(ctx, "Stage event was not published",
			"order_id", orderID.String(), "stage", event.Stage().String(), "error", err)
	}
}
