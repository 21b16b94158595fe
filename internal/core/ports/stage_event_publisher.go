package ports

import (
	"context"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/timeline"
)

// StageEventPublisher announces recorded stage events to downstream consumers.
// Delivery is best effort.
type StageEventPublisher interface {
	Publish(ctx context.Context, orderID kernel.OrderID, event timeline.StageEvent) error
}
