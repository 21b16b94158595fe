package queries

import (
	"context"
	"errors"
	"fmt"

	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"
)

var ErrOrderNotFound = errors.New("order not found")

// GetOrderStatusQueryHandler serves status snapshots from the ledger. It has no side
// effects: two calls with no transition in between return equal responses.
type GetOrderStatusQueryHandler struct {
	ledger ports.StatusLedger
}

func NewGetOrderStatusQueryHandler(ledger ports.StatusLedger) GetOrderStatusQueryHandler {
	return GetOrderStatusQueryHandler{ledger: ledger}
}

// Handle returns ErrOrderNotFound for ids that were never dispatched. Whether that is
// surfaced to the caller as an error or an empty history is up to the transport.
func (h GetOrderStatusQueryHandler) Handle(
	ctx context.Context,
	query GetOrderStatusQuery,
) (GetOrderStatusQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetOrderStatusQueryResponse{}, err
	}

	events, err := h.ledger.Get(ctx, query.OrderID())
	if err != nil {
		if errors.Is(err, errs.ErrObjectNotFound) {
			return GetOrderStatusQueryResponse{}, fmt.Errorf("%w: %w", ErrOrderNotFound, err)
		}
		return GetOrderStatusQueryResponse{}, err
	}

	return GetOrderStatusQueryResponse{
		OrderID: query.OrderID(),
		Updates: events,
	}, nil
}
