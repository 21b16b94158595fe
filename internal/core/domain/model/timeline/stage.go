package timeline

import (
	"fmt"

	"fulfillment/internal/pkg/errs"
)

// Stage is one discrete phase of delivery progress.
//
// Stages advance in a fixed order and never go back:
//
//	Pending ──> Picking ──> FacilityToRelay ──> RelayToDestination ──> Delivered
//	   │           │               │                     │
//	   └───────────┴───────────────┴─────────────────────┴──> Cancelled
//
// Delivered and Cancelled are terminal.
type Stage int

const (
	// UnknownStage catches uninitialized values.
	UnknownStage Stage = iota

	// Pending is recorded synchronously when the order is dispatched.
	Pending

	// Picking means the facility is picking and packing the items.
	Picking

	// FacilityToRelay means the parcel is moving from the facility to the relay point.
	FacilityToRelay

	// RelayToDestination means the parcel left the relay point for the customer.
	RelayToDestination

	// Delivered is the terminal success stage.
	Delivered

	// Cancelled is the terminal stage recorded when the upstream system voids the order.
	Cancelled
)

// DeliveryStages lists the stages every non-cancelled order passes through, in order.
var DeliveryStages = []Stage{Pending, Picking, FacilityToRelay, RelayToDestination, Delivered}

func getStageStrings() map[Stage]string {
	return map[Stage]string{
		UnknownStage:       "Unknown",
		Pending:            "Pending",
		Picking:            "Picking",
		FacilityToRelay:    "FacilityToRelay",
		RelayToDestination: "RelayToDestination",
		Delivered:          "Delivered",
		Cancelled:          "Cancelled",
	}
}

// ParseStage is the inverse of String for valid stages.
func ParseStage(s string) (Stage, error) {
	for stage, str := range getStageStrings() {
		if stage != UnknownStage && str == s {
			return stage, nil
		}
	}
	return UnknownStage, errs.NewValueIsInvalidErrorWithCause("stage", fmt.Errorf("%q is not a valid stage", s))
}

func (s Stage) String() string {
	if str, ok := getStageStrings()[s]; ok {
		return str
	}
	return "Unknown"
}

// Validate accepts Pending through Cancelled.
func (s Stage) Validate() error {
	if s < Pending || s > Cancelled {
		return errs.NewValueIsInvalidErrorWithCause("stage", fmt.Errorf("%d is not a valid stage", s))
	}
	return nil
}

// IsTerminal reports whether nothing may follow the stage.
func (s Stage) IsTerminal() bool {
	return s == Delivered || s == Cancelled
}

// Index is the position of the stage in the delivery order. Cancelled sorts
// after every delivery stage.
func (s Stage) Index() int {
	return int(s)
}

// ValidateFollows checks that s may be appended after prev.
//
// A stage may follow any strictly earlier, non-terminal stage. Gaps are allowed:
// a transition whose write was dropped leaves a hole in the timeline but must not
// block the stages after it.
func (s Stage) ValidateFollows(prev Stage) error {
	if err := s.Validate(); err != nil {
		return err
	}

	if prev.IsTerminal() {
		return errs.NewObjectIsInInvalidStateErrorWithCause(
			"timeline", prev.String(), fmt.Errorf("%s cannot follow terminal stage %s", s, prev))
	}

	if s.Index() <= prev.Index() {
		return errs.NewValueIsInvalidErrorWithCause(
			"stage", fmt.Errorf("%s cannot follow %s", s, prev))
	}

	return nil
}

func (s Stage) MarshalText() ([]byte, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return []byte(s.String()), nil
}

func (s *Stage) UnmarshalText(text []byte) error {
	stage, err := ParseStage(string(text))
	if err != nil {
		return err
	}
	*s = stage
	return nil
}
