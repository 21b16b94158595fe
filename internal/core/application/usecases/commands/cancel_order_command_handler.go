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

var ErrOrderAlreadyTerminal = errors.New("order already reached a terminal stage")

const cancelledMessage = "Order cancelled"

// CancelOrderCommandHandler stops an order's armed transitions and appends Cancelled.
//
// Errors:
//   - ErrOrderNotFound when the order was never dispatched
//   - ErrOrderAlreadyTerminal when the order is already Delivered or Cancelled,
//     including the case where Delivered fires while the cancellation is in flight
//
// Example:
//
//	cmd, _ := NewCancelOrderCommand("cart-42")
//	events, err := handler.Handle(ctx, cmd)
//	if errors.Is(err, ErrOrderAlreadyTerminal) {
//	    // too late, the parcel is delivered
//	}
//	// events ends with Cancelled
type CancelOrderCommandHandler struct {
	ledger    ports.StatusLedger
	scheduler ports.TransitionScheduler
	clock     Clock
	metrics   Metrics
	announcer eventAnnouncer
	logger    *slog.Logger
}

func NewCancelOrderCommandHandler(
	ledger ports.StatusLedger,
	scheduler ports.TransitionScheduler,
	publisher ports.StageEventPublisher,
	clock Clock,
	metrics Metrics,
	logger *slog.Logger,
) CancelOrderCommandHandler {
	logger = logger.With("component", "cancel_order_handler")
	return CancelOrderCommandHandler{
		ledger:    ledger,
		scheduler: scheduler,
		clock:     clock,
		metrics:   metrics,
		announcer: eventAnnouncer{publisher: publisher, metrics: metrics, logger: logger},
		logger:    logger,
	}
}

// Handle returns the timeline after the cancellation.
func (h CancelOrderCommandHandler) Handle(ctx context.Context, cmd CancelOrderCommand) ([]timeline.StageEvent, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	orderID := cmd.OrderID()

	events, err := h.ledger.Get(ctx, orderID)
	if err != nil {
		if errors.Is(err, errs.ErrObjectNotFound) {
			return nil, fmt.Errorf("%w: %w", ErrOrderNotFound, err)
		}
		return nil, err
	}

	if len(events) > 0 && events[len(events)-1].Stage().IsTerminal() {
		return nil, fmt.Errorf("%w: %s is %s", ErrOrderAlreadyTerminal, orderID, events[len(events)-1].Stage())
	}

	dropped := h.scheduler.Cancel(orderID)

	cancelled, err := timeline.NewStageEvent(timeline.Cancelled, cancelledMessage, h.clock.Now())
	if err != nil {
		return nil, err
	}

	if err = h.ledger.Append(ctx, orderID, cancelled); err != nil {
		switch {
		case errors.Is(err, errs.ErrObjectIsInInvalidState):
			return nil, fmt.Errorf("%w: %w", ErrOrderAlreadyTerminal, err)
		case errors.Is(err, errs.ErrObjectNotFound):
			return nil, fmt.Errorf("%w: %w", ErrOrderNotFound, err)
		}
		return nil, err
	}

	h.metrics.StageRecorded(timeline.Cancelled.String())
	h.logger.InfoContext(ctx, cancelledMessage,
		"order_id", orderID.String(), "stage", timeline.Cancelled.String(), "dropped_transitions", dropped)
	h.announcer.announce(ctx, orderID, cancelled)

	return h.ledger.Get(ctx, orderID)
}
