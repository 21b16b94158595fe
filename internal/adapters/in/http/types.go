package http

import (
	"math"
	"time"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/site"
	"fulfillment/internal/core/domain/model/timeline"

	"github.com/google/uuid"
)

// Error kinds returned in the kind field of every error body.
const (
	KindInvalidRequest        = "InvalidRequest"
	KindNoCandidatesAvailable = "NoCandidatesAvailable"
	KindOrderNotFound         = "OrderNotFound"
	KindOrderAlreadyTerminal  = "OrderAlreadyTerminal"
	KindNotFound              = "NotFound"
	KindMethodNotAllowed      = "MethodNotAllowed"
	KindInternal              = "Internal"
)

type DispatchRequest struct {
	OrderID  *string       `json:"orderId,omitempty"`
	UserX    *float64      `json:"userX"`
	UserY    *float64      `json:"userY"`
	Quantity *int          `json:"quantity,omitempty"`
	Items    []ItemRequest `json:"items,omitempty"`
}

type ItemRequest struct {
	ProductID string `json:"productId,omitempty"`
	Quantity  int    `json:"quantity"`
}

type Site struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	X    float64   `json:"x"`
	Y    float64   `json:"y"`
}

type DispatchResult struct {
	OrderID                  string    `json:"orderId"`
	AssignedFacility         Site      `json:"assignedFacility"`
	AssignedRelayPoint       Site      `json:"assignedRelayPoint"`
	DistanceToFacility       float64   `json:"distanceToFacility"`
	DistanceFacilityToRelay  float64   `json:"distanceFacilityToRelay"`
	EstimatedTotalDurationMs int64     `json:"estimatedTotalDurationMs"`
	DispatchedAt             time.Time `json:"dispatchedAt"`
}

type StageEvent struct {
	Stage   string    `json:"stage"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

type OrderStatus struct {
	OrderID string       `json:"orderId"`
	Updates []StageEvent `json:"updates"`
}

type Error struct {
	Code    int    `json:"code"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func toSite(s site.Site) Site {
	return Site{
		ID:   s.ID().Bytes(),
		Name: s.Name(),
		X:    s.Location().X(),
		Y:    s.Location().Y(),
	}
}

func toDispatchResult(r commands.DispatchResult) DispatchResult {
	return DispatchResult{
		OrderID:                  r.OrderID.String(),
		AssignedFacility:         toSite(r.Facility),
		AssignedRelayPoint:       toSite(r.RelayPoint),
		DistanceToFacility:       roundDistance(r.DistanceToFacility),
		DistanceFacilityToRelay:  roundDistance(r.DistanceFacilityToRelay),
		EstimatedTotalDurationMs: r.EstimatedTotal.Milliseconds(),
		DispatchedAt:             r.DispatchedAt,
	}
}

func toOrderStatus(orderID kernel.OrderID, events []timeline.StageEvent) OrderStatus {
	updates := make([]StageEvent, 0, len(events))
	for _, e := range events {
		updates = append(updates, StageEvent{
			Stage:   e.Stage().String(),
			Message: e.Message(),
			Time:    e.Timestamp(),
		})
	}
	return OrderStatus{OrderID: orderID.String(), Updates: updates}
}

// roundDistance keeps two decimals on the wire.
func roundDistance(d float64) float64 {
	return math.Round(d*100) / 100
}

func (r DispatchRequest) toCommand() (commands.DispatchOrderCommand, error) {
	destination, err := r.destination()
	if err != nil {
		return commands.DispatchOrderCommand{}, err
	}

	var orderID string
	if r.OrderID != nil {
		orderID = *r.OrderID
	}

	items := make([]commands.Item, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, commands.Item{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	return commands.NewDispatchOrderCommand(orderID, destination, r.Quantity, items)
}

func (r DispatchRequest) destination() (kernel.Location, error) {
	if r.UserX == nil || r.UserY == nil {
		return kernel.Location{}, errUserCoordinatesRequired
	}
	return kernel.NewLocation(*r.UserX, *r.UserY)
}
