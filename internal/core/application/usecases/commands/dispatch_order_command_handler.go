package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/site"
	"fulfillment/internal/core/domain/model/timeline"
	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/core/ports"
)

var ErrNoCandidatesAvailable = errors.New("no candidates available")

// DispatchResult is returned to the caller as soon as the timeline is armed.
type DispatchResult struct {
	OrderID                 kernel.OrderID
	Facility                site.Site
	RelayPoint              site.Site
	DistanceToFacility      float64
	DistanceFacilityToRelay float64
	EstimatedTotal          time.Duration
	DispatchedAt            time.Time
}

// DispatchOrderCommandHandler resolves the nearest facility and relay point, records
// Pending and arms the remaining stage transitions. It never waits for the
// simulation: Handle returns before the first transition fires.
//
// Dispatching an order id that already has a timeline cancels the transitions
// still armed for it and replaces the timeline. Every dispatch gets its own
// dispatch id, so a transition of the earlier dispatch that is already being
// recorded is rejected by the ledger instead of landing on the new timeline.
//
// When the transitions cannot be armed the new timeline is discarded again, so a
// failed dispatch never leaves a Pending entry that would not advance.
//
// Example:
//
//	result, err := handler.Handle(ctx, cmd)
//	switch {
//	case errors.Is(err, ErrNoCandidatesAvailable):
//	    // a directory tier is empty, nothing was recorded
//	case err != nil:
//	    return err
//	}
//	fmt.Printf("%s ships from %s via %s", result.OrderID, result.Facility.Name(), result.RelayPoint.Name())
type DispatchOrderCommandHandler struct {
	directory ports.SiteDirectory
	ledger    ports.StatusLedger
	scheduler ports.TransitionScheduler
	resolver  services.NearestSiteResolver
	planner   services.DeliveryPlanner
	clock     Clock
	metrics   Metrics
	announcer eventAnnouncer
	logger    *slog.Logger
}

func NewDispatchOrderCommandHandler(
	directory ports.SiteDirectory,
	ledger ports.StatusLedger,
	scheduler ports.TransitionScheduler,
	publisher ports.StageEventPublisher,
	planner services.DeliveryPlanner,
	clock Clock,
	metrics Metrics,
	logger *slog.Logger,
) DispatchOrderCommandHandler {
	logger = logger.With("component", "dispatch_order_handler")
	return DispatchOrderCommandHandler{
		directory: directory,
		ledger:    ledger,
		scheduler: scheduler,
		resolver:  services.NewNearestSiteResolver(),
		planner:   planner,
		clock:     clock,
		metrics:   metrics,
		announcer: eventAnnouncer{publisher: publisher, metrics: metrics, logger: logger},
		logger:    logger,
	}
}

func (h DispatchOrderCommandHandler) Handle(ctx context.Context, cmd DispatchOrderCommand) (DispatchResult, error) {
	if err := cmd.Validate(); err != nil {
		return DispatchResult{}, err
	}

	facility, relay, err := h.resolve(ctx, cmd.Destination())
	if err != nil {
		if errors.Is(err, ErrNoCandidatesAvailable) {
			h.metrics.DispatchRejected("NoCandidatesAvailable")
		}
		return DispatchResult{}, err
	}

	plan, err := h.planner.Plan(cmd.Quantity(), facility, relay)
	if err != nil {
		return DispatchResult{}, err
	}

	now := h.clock.Now()
	pending, err := timeline.NewStageEvent(timeline.Pending, plan.PendingMessage, now)
	if err != nil {
		return DispatchResult{}, err
	}

	orderID := cmd.OrderID()
	dispatchID := kernel.NewUUID()
	if dropped := h.scheduler.Cancel(orderID); dropped > 0 {
		h.logger.InfoContext(ctx, "Order id dispatched again, previous timeline replaced",
			"order_id", orderID.String(), "dropped_transitions", dropped)
	}

	if err = h.ledger.Open(ctx, orderID, dispatchID, pending); err != nil {
		return DispatchResult{}, fmt.Errorf("open timeline: %w", err)
	}

	transitions := make([]ports.Transition, 0, len(plan.Transitions))
	for _, t := range plan.Transitions {
		transitions = append(transitions, ports.Transition{
			OrderID:    orderID,
			DispatchID: dispatchID,
			Stage:      t.Stage,
			Message:    t.Message,
			FireAt:     now.Add(t.Offset),
		})
	}

	if err = h.scheduler.Arm(orderID, transitions); err != nil {
		if discardErr := h.ledger.Discard(ctx, orderID, dispatchID); discardErr != nil {
			h.logger.ErrorContext(ctx, "Timeline of a failed dispatch was not discarded",
				"order_id", orderID.String(), "dispatch_id", dispatchID.String(), "error", discardErr)
		}
		return DispatchResult{}, fmt.Errorf("arm transitions: %w", err)
	}

	h.metrics.OrderDispatched(facility.Site.Name())
	h.metrics.StageRecorded(timeline.Pending.String())
	h.logger.InfoContext(ctx, "Order dispatched",
		"order_id", orderID.String(),
		"dispatch_id", dispatchID.String(),
		"stage", timeline.Pending.String(),
		"quantity", cmd.Quantity(),
		"items", len(cmd.Items()),
		"facility", facility.Site.Name(),
		"relay_point", relay.Site.Name(),
		"estimated_total", plan.EstimatedTotal,
	)
	h.announcer.announce(ctx, orderID, pending)

	return DispatchResult{
		OrderID:                 orderID,
		Facility:                facility.Site,
		RelayPoint:              relay.Site,
		DistanceToFacility:      facility.Distance,
		DistanceFacilityToRelay: relay.Distance,
		EstimatedTotal:          plan.EstimatedTotal,
		DispatchedAt:            pending.Timestamp(),
	}, nil
}

func (h DispatchOrderCommandHandler) resolve(
	ctx context.Context,
	destination kernel.Location,
) (services.Assignment, services.Assignment, error) {
	facilities, err := h.directory.Facilities(ctx)
	if err != nil {
		return services.Assignment{}, services.Assignment{}, fmt.Errorf("list facilities: %w", err)
	}

	facility, err := h.resolver.ResolveFacility(destination, facilities)
	if err != nil {
		if errors.Is(err, services.ErrNoCandidatesAvailable) {
			return services.Assignment{}, services.Assignment{}, fmt.Errorf("%w: no facilities", ErrNoCandidatesAvailable)
		}
		return services.Assignment{}, services.Assignment{}, err
	}

	relays, err := h.directory.RelayPoints(ctx)
	if err != nil {
		return services.Assignment{}, services.Assignment{}, fmt.Errorf("list relay points: %w", err)
	}

	relay, err := h.resolver.ResolveRelay(facility.Site, relays)
	if err != nil {
		if errors.Is(err, services.ErrNoCandidatesAvailable) {
			return services.Assignment{}, services.Assignment{}, fmt.Errorf("%w: no relay points", ErrNoCandidatesAvailable)
		}
		return services.Assignment{}, services.Assignment{}, err
	}

	return facility, relay, nil
}
