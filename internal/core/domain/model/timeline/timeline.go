package timeline

import (
	"errors"
	"fmt"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
)

var (
	ErrTimelineIsNotConstructed = errors.New("Timeline must be created via NewTimeline or RestoreTimeline")

	// ErrDispatchIsSuperseded rejects a stage armed by an earlier dispatch of the
	// same order id.
	ErrDispatchIsSuperseded = errors.New("stage belongs to a superseded dispatch")
)

// Timeline is the ordered stage history of one order: the entry the status
// ledger keeps per order id.
//
// Invariants:
//   - the first event is Pending
//   - stages are strictly increasing (no recurrence, no reordering)
//   - nothing is appended after Delivered or Cancelled
//   - a timeline belongs to exactly one dispatch; re-dispatching an order id
//     starts a new timeline with a new dispatch id
//
// Timeline is not safe for concurrent use; ledgers serialise access per order.
type Timeline struct {
	orderID       kernel.OrderID
	dispatchID    kernel.UUID
	events        []StageEvent
	isConstructed bool
}

// NewTimeline opens a timeline with its initial Pending event.
func NewTimeline(orderID kernel.OrderID, dispatchID kernel.UUID, pending StageEvent) (*Timeline, error) {
	if err := errors.Join(orderID.Validate(), dispatchID.Validate(), pending.Validate()); err != nil {
		return nil, err
	}

	if pending.Stage() != Pending {
		return nil, errs.NewValueIsInvalidErrorWithCause(
			"stage", fmt.Errorf("timeline must start with %s, got %s", Pending, pending.Stage()))
	}

	return &Timeline{
		orderID:       orderID,
		dispatchID:    dispatchID,
		events:        []StageEvent{pending},
		isConstructed: true,
	}, nil
}

// RestoreTimeline rebuilds a timeline from stored events, re-checking every invariant.
func RestoreTimeline(orderID kernel.OrderID, dispatchID kernel.UUID, events []StageEvent) (*Timeline, error) {
	if len(events) == 0 {
		return nil, errs.NewValueIsRequiredError("events")
	}

	t, err := NewTimeline(orderID, dispatchID, events[0])
	if err != nil {
		return nil, err
	}

	for _, e := range events[1:] {
		if err = t.Append(e); err != nil {
			return nil, err
		}
	}

	return t, nil
}

func (t *Timeline) Validate() error {
	if t == nil || !t.isConstructed {
		return ErrTimelineIsNotConstructed
	}
	return nil
}

func (t *Timeline) OrderID() kernel.OrderID {
	return t.orderID
}

// DispatchID identifies the dispatch that opened the timeline.
func (t *Timeline) DispatchID() kernel.UUID {
	return t.dispatchID
}

// AppendFor adds an event armed by dispatchID. Events of any other dispatch are
// rejected with ErrDispatchIsSuperseded.
func (t *Timeline) AppendFor(dispatchID kernel.UUID, event StageEvent) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if err := ValidateDispatch(t.dispatchID, dispatchID); err != nil {
		return err
	}
	return t.Append(event)
}

// Append adds an event after checking it may follow the current stage, whichever
// dispatch it comes from.
func (t *Timeline) Append(event StageEvent) error {
	if err := errors.Join(t.Validate(), event.Validate()); err != nil {
		return err
	}

	if err := event.Stage().ValidateFollows(t.Stage()); err != nil {
		return err
	}

	t.events = append(t.events, event)
	return nil
}

// Events returns a copy of the history in append order.
func (t *Timeline) Events() []StageEvent {
	out := make([]StageEvent, len(t.events))
	copy(out, t.events)
	return out
}

func (t *Timeline) Len() int {
	return len(t.events)
}

// Last returns the most recent event.
func (t *Timeline) Last() StageEvent {
	return t.events[len(t.events)-1]
}

// Stage is the stage of the most recent event.
func (t *Timeline) Stage() Stage {
	return t.Last().Stage()
}

func (t *Timeline) IsTerminal() bool {
	return t.Stage().IsTerminal()
}

// ValidateDispatch checks that an event armed by armed may join a timeline opened
// by current.
func ValidateDispatch(current, armed kernel.UUID) error {
	if err := armed.Validate(); err != nil {
		return err
	}
	if !current.IsEqual(armed) {
		return fmt.Errorf("%w: armed by %s, timeline opened by %s", ErrDispatchIsSuperseded, armed, current)
	}
	return nil
}
