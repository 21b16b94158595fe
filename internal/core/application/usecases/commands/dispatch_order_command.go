package commands

import (
	"errors"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var ErrDispatchOrderCommandIsNotConstructed = errors.New(
	"DispatchOrderCommand must be created via NewDispatchOrderCommand constructor",
)

// Item is one cart line forwarded by the commerce service. Items only feed the
// quantity default; they are never stored.
type Item struct {
	ProductID string
	Quantity  int
}

// DispatchOrderCommand asks the dispatcher to assign a facility and a relay point
// to an order and to start its delivery timeline.
//
// Defaults:
//   - an empty order id is replaced by a generated one
//   - a missing quantity is the sum of item quantities, or 1 without items
//
// Example:
//
//	destination, _ := kernel.NewLocation(2, 2)
//	cmd, err := NewDispatchOrderCommand("cart-42", destination, nil, []Item{{ProductID: "p1", Quantity: 2}})
//	if err != nil {
//	    return fmt.Errorf("invalid dispatch request: %w", err)
//	}
//	result, err := handler.Handle(ctx, cmd) // cmd.Quantity() == 2
type DispatchOrderCommand struct { //nolint:recvcheck //using for validation
	orderID     kernel.OrderID
	destination kernel.Location
	quantity    int
	items       []Item

	guard guard.ConstructorGuard
}

func NewDispatchOrderCommand(
	orderID string,
	destination kernel.Location,
	quantity *int,
	items []Item,
) (DispatchOrderCommand, error) {
	cmd := DispatchOrderCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setOrderID(orderID),
		cmd.setDestination(destination),
		cmd.setItems(items),
	); err != nil {
		return DispatchOrderCommand{}, err
	}

	if err := cmd.setQuantity(quantity); err != nil {
		return DispatchOrderCommand{}, err
	}

	return cmd, nil
}

func (c DispatchOrderCommand) Validate() error {
	return c.guard.Validate(ErrDispatchOrderCommandIsNotConstructed)
}

func (c DispatchOrderCommand) OrderID() kernel.OrderID {
	return c.orderID
}

func (c DispatchOrderCommand) Destination() kernel.Location {
	return c.destination
}

func (c DispatchOrderCommand) Quantity() int {
	return c.quantity
}

func (c DispatchOrderCommand) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

func (c *DispatchOrderCommand) setOrderID(orderID string) error {
	if orderID == "" {
		c.orderID = kernel.GenerateOrderID()
		return nil
	}

	id, err := kernel.NewOrderID(orderID)
	if err != nil {
		return err
	}

	c.orderID = id
	return nil
}

func (c *DispatchOrderCommand) setDestination(destination kernel.Location) error {
	if err := destination.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("deliveryLocation", err)
	}

	c.destination = destination
	return nil
}

func (c *DispatchOrderCommand) setItems(items []Item) error {
	for _, item := range items {
		if item.Quantity < 1 || item.Quantity > services.MaxQuantity {
			return errs.NewValueIsOutOfRangeError("items.quantity", item.Quantity, 1, services.MaxQuantity)
		}
	}

	c.items = make([]Item, len(items))
	copy(c.items, items)
	return nil
}

// setQuantity runs after setItems so the default can be derived from the items.
func (c *DispatchOrderCommand) setQuantity(quantity *int) error {
	q := 1
	switch {
	case quantity != nil:
		q = *quantity
	case len(c.items) > 0:
		q = 0
		for _, item := range c.items {
			q += item.Quantity
		}
	}

	if q < 1 || q > services.MaxQuantity {
		return errs.NewValueIsOutOfRangeError("quantity", q, 1, services.MaxQuantity)
	}

	c.quantity = q
	return nil
}
