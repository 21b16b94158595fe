package ports

import (
	"context"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/timeline"
)

// StatusLedger keeps the timeline of every dispatched order, keyed by order id.
// Each timeline belongs to the dispatch that opened it.
//
// Unknown order ids are reported with an error wrapping errs.ErrObjectNotFound.
// Appends that break stage ordering are rejected with the timeline's own
// validation error and leave the entry unchanged.
//
// Example:
//
//	if err := ledger.Open(ctx, orderID, dispatchID, pending); err != nil {
//	    return err
//	}
//	_ = ledger.AppendFor(ctx, orderID, dispatchID, picking)
//	events, err := ledger.Get(ctx, orderID) // [Pending, Picking]
type StatusLedger interface {
	// Open creates the entry with its first event, replacing any earlier entry
	// stored under the same id.
	Open(ctx context.Context, orderID kernel.OrderID, dispatchID kernel.UUID, pending timeline.StageEvent) error

	// AppendFor adds an event armed by dispatchID. It fails with
	// timeline.ErrDispatchIsSuperseded when the order has since been dispatched again.
	AppendFor(ctx context.Context, orderID kernel.OrderID, dispatchID kernel.UUID, event timeline.StageEvent) error

	// Append adds an event to the current entry, whichever dispatch opened it.
	Append(ctx context.Context, orderID kernel.OrderID, event timeline.StageEvent) error

	// Discard removes the entry if dispatchID still owns it. Discarding an entry
	// that is gone or was replaced is not an error.
	Discard(ctx context.Context, orderID kernel.OrderID, dispatchID kernel.UUID) error

	// Get returns a copy of the entry's events in append order.
	Get(ctx context.Context, orderID kernel.OrderID) ([]timeline.StageEvent, error)
}
