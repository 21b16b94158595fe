package services

import (
	"errors"
	"fmt"
	"math"
	"time"

	"fulfillment/internal/core/domain/model/timeline"
	"fulfillment/internal/pkg/errs"
)

// MaxQuantity bounds the item count of a single dispatch so planned offsets stay
// far from time.Duration overflow.
const MaxQuantity = 10000

const (
	DefaultPerItemPickDuration = 5 * time.Second
	DefaultSpeedFactor         = 3 * time.Second
	DefaultPickingStartDelay   = 100 * time.Millisecond
	DefaultDeliveredGrace      = 2 * time.Second
)

// PlannerConfig holds the simulation constants. SpeedFactor is the travel time
// per unit of distance.
type PlannerConfig struct {
	PerItemPickDuration time.Duration
	SpeedFactor         time.Duration
	PickingStartDelay   time.Duration
	DeliveredGrace      time.Duration
}

func DefaultPlannerConfig() PlannerConfig {
	return PlannerConfig{
		PerItemPickDuration: DefaultPerItemPickDuration,
		SpeedFactor:         DefaultSpeedFactor,
		PickingStartDelay:   DefaultPickingStartDelay,
		DeliveredGrace:      DefaultDeliveredGrace,
	}
}

func (c PlannerConfig) Validate() error {
	return errors.Join(
		durationInRange("perItemPickDuration", c.PerItemPickDuration, 0, time.Hour),
		durationInRange("speedFactor", c.SpeedFactor, 0, time.Minute),
		durationInRange("pickingStartDelay", c.PickingStartDelay, 0, time.Hour),
		durationInRange("deliveredGrace", c.DeliveredGrace, time.Millisecond, time.Hour),
	)
}

func durationInRange(param string, d, minValue, maxValue time.Duration) error {
	if d < minValue || d > maxValue {
		return errs.NewValueIsOutOfRangeError(param, d, minValue, maxValue)
	}
	return nil
}

// PlannedTransition is a stage to be recorded Offset after dispatch.
type PlannedTransition struct {
	Stage   timeline.Stage
	Offset  time.Duration
	Message string
}

// DeliveryPlan is the full simulated timeline of one dispatch.
type DeliveryPlan struct {
	PendingMessage string
	Transitions    []PlannedTransition
	EstimatedTotal time.Duration
}

// DeliveredOffset is the offset of the last transition.
func (p DeliveryPlan) DeliveredOffset() time.Duration {
	if len(p.Transitions) == 0 {
		return 0
	}
	return p.Transitions[len(p.Transitions)-1].Offset
}

// DeliveryPlanner turns the resolved sites and the order quantity into stage offsets.
//
// Offsets are measured from dispatch time:
//
//	Picking             pickingStartDelay
//	FacilityToRelay     pick                      pick = quantity × perItemPickDuration
//	RelayToDestination  pick + leg1               leg1 = facilityToRelay × speedFactor
//	Delivered           pick + leg1 + leg2 + grace  leg2 = relayToDestinationDistance × speedFactor
//
// Offsets never decrease along the stage order: a stage that would fire before its
// predecessor is moved onto the predecessor's offset. Delivered is always the grace
// after both the estimate and every other stage.
type DeliveryPlanner struct {
	cfg PlannerConfig
}

func NewDeliveryPlanner(cfg PlannerConfig) (DeliveryPlanner, error) {
	if err := cfg.Validate(); err != nil {
		return DeliveryPlanner{}, err
	}
	return DeliveryPlanner{cfg: cfg}, nil
}

func (p DeliveryPlanner) Config() PlannerConfig {
	return p.cfg
}

// Plan computes the timeline for an order whose facility and relay are resolved.
func (p DeliveryPlanner) Plan(quantity int, facility, relay Assignment) (DeliveryPlan, error) {
	if quantity < 1 || quantity > MaxQuantity {
		return DeliveryPlan{}, errs.NewValueIsOutOfRangeError("quantity", quantity, 1, MaxQuantity)
	}
	if err := errors.Join(facility.Site.Validate(), relay.Site.Validate()); err != nil {
		return DeliveryPlan{}, err
	}

	pick := time.Duration(quantity) * p.cfg.PerItemPickDuration
	toRelay, err := p.travel("distanceFacilityToRelay", relay.Distance)
	if err != nil {
		return DeliveryPlan{}, err
	}
	toDestination, err := p.travel("distanceToFacility", relayToDestinationDistance(facility, relay))
	if err != nil {
		return DeliveryPlan{}, err
	}

	total := pick + toRelay + toDestination
	facilityName, relayName := facility.Site.Name(), relay.Site.Name()

	transitions := []PlannedTransition{
		{
			Stage:   timeline.Picking,
			Offset:  p.cfg.PickingStartDelay,
			Message: fmt.Sprintf("Picking %d items at %s", quantity, facilityName),
		},
		{
			Stage:   timeline.FacilityToRelay,
			Offset:  pick,
			Message: fmt.Sprintf("Moving from %s to %s", facilityName, relayName),
		},
		{
			Stage:   timeline.RelayToDestination,
			Offset:  pick + toRelay,
			Message: fmt.Sprintf("Delivering from %s to customer", relayName),
		},
	}

	for i := 1; i < len(transitions); i++ {
		if transitions[i].Offset < transitions[i-1].Offset {
			transitions[i].Offset = transitions[i-1].Offset
		}
	}

	transitions = append(transitions, PlannedTransition{
		Stage:   timeline.Delivered,
		Offset:  max(total, transitions[len(transitions)-1].Offset) + p.cfg.DeliveredGrace,
		Message: "Order delivered",
	})

	return DeliveryPlan{
		PendingMessage: "Order created, waiting for processing",
		Transitions:    transitions,
		EstimatedTotal: total,
	}, nil
}

func (p DeliveryPlanner) travel(param string, distance float64) (time.Duration, error) {
	if math.IsNaN(distance) || math.IsInf(distance, 0) || distance < 0 {
		return 0, errs.NewValueIsInvalidErrorWithCause(param, fmt.Errorf("%v is not a finite non-negative distance", distance))
	}
	return time.Duration(math.Round(distance * float64(p.cfg.SpeedFactor))), nil
}

// relayToDestinationDistance approximates the relay-to-customer leg with the
// customer-to-facility distance.
func relayToDestinationDistance(facility, _ Assignment) float64 {
	return facility.Distance
}
