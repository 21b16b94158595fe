// Package queries contains read-only operations over dispatcher state.
package queries

import (
	"errors"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/timeline"
	"fulfillment/internal/pkg/guard"
)

var ErrGetOrderStatusQueryIsNotConstructed = errors.New(
	"GetOrderStatusQuery must be created via NewGetOrderStatusQuery constructor",
)

// GetOrderStatusQuery reads the timeline recorded so far for one order.
//
// Example:
//
//	query, err := NewGetOrderStatusQuery("cart-42")
//	if err != nil {
//	    return err
//	}
//	status, err := handler.Handle(ctx, query)
//	if errors.Is(err, ErrOrderNotFound) {
//	    // never dispatched
//	}
//	for _, update := range status.Updates {
//	    fmt.Println(update.Stage(), update.Message())
//	}
type GetOrderStatusQuery struct {
	orderID kernel.OrderID

	guard guard.ConstructorGuard
}

func NewGetOrderStatusQuery(orderID string) (GetOrderStatusQuery, error) {
	id, err := kernel.NewOrderID(orderID)
	if err != nil {
		return GetOrderStatusQuery{}, err
	}

	return GetOrderStatusQuery{
		orderID: id,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

func (q GetOrderStatusQuery) Validate() error {
	return q.guard.Validate(ErrGetOrderStatusQueryIsNotConstructed)
}

func (q GetOrderStatusQuery) OrderID() kernel.OrderID {
	return q.orderID
}

// GetOrderStatusQueryResponse is a point-in-time snapshot of a timeline.
type GetOrderStatusQueryResponse struct {
	OrderID kernel.OrderID
	Updates []timeline.StageEvent
}

// IsTerminal reports whether the snapshot ends with Delivered or Cancelled.
func (r GetOrderStatusQueryResponse) IsTerminal() bool {
	return len(r.Updates) > 0 && r.Updates[len(r.Updates)-1].Stage().IsTerminal()
}
