package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fulfillment/internal/core/domain/model/timeline"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"
)

var ErrOrderNotFound = errors.New("order not found")

// RecordStageCommandHandler appends a fired transition to the order's timeline and
// announces it.
//
// Errors:
//   - ErrOrderNotFound when the order has no timeline; the scheduler treats this as a no-op
//   - timeline.ErrDispatchIsSuperseded when the order was dispatched again after the
//     transition was armed; the scheduler treats this as a no-op too
//   - the ledger's error when the append is rejected or fails; the transition is dropped
//
// Failed appends are never retried. A dropped stage leaves a gap in the timeline but
// later stages still append because they only need to follow the last recorded one.
type RecordStageCommandHandler struct {
	ledger    ports.StatusLedger
	metrics   Metrics
	announcer eventAnnouncer
	logger    *slog.Logger
}

func NewRecordStageCommandHandler(
	ledger ports.StatusLedger,
	publisher ports.StageEventPublisher,
	metrics Metrics,
	logger *slog.Logger,
) RecordStageCommandHandler {
	logger = logger.With("component", "record_stage_handler")
	return RecordStageCommandHandler{
		ledger:    ledger,
		metrics:   metrics,
		announcer: eventAnnouncer{publisher: publisher, metrics: metrics, logger: logger},
		logger:    logger,
	}
}

func (h RecordStageCommandHandler) Handle(ctx context.Context, cmd RecordStageCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	event, err := timeline.NewStageEvent(cmd.Stage(), cmd.Message(), cmd.FiredAt())
	if err != nil {
		return err
	}

	if err = h.ledger.AppendFor(ctx, cmd.OrderID(), cmd.DispatchID(), event); err != nil {
		h.metrics.StageDropped(cmd.Stage().String())
		if errors.Is(err, errs.ErrObjectNotFound) {
			return fmt.Errorf("%w: %w", ErrOrderNotFound, err)
		}
		return err
	}

	h.metrics.StageRecorded(cmd.Stage().String())
	h.logger.InfoContext(ctx, event.Message(), "order_id", cmd.OrderID().String(), "stage", cmd.Stage().String())
	h.announcer.announce(ctx, cmd.OrderID(), event)

	return nil
}
