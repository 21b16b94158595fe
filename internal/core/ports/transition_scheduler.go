package ports

import (
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/timeline"
)

// Transition is one deferred stage change armed for an order by one dispatch.
type Transition struct {
	OrderID    kernel.OrderID
	DispatchID kernel.UUID
	Stage      timeline.Stage
	Message    string
	FireAt     time.Time
}

// TransitionScheduler arms deferred stage transitions without blocking the caller.
type TransitionScheduler interface {
	// Arm schedules transitions for one order, replacing whatever was still armed
	// for that order id.
	Arm(orderID kernel.OrderID, transitions []Transition) error

	// Cancel drops every transition still armed for the order and reports how many
	// were dropped.
	Cancel(orderID kernel.OrderID) int
}
