package site

import (
	"fmt"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
)

// Kind tells the two tiers of the directory apart.
type Kind int

const (
	// UnknownKind catches uninitialized values.
	UnknownKind Kind = iota

	// Facility is a fulfillment source where orders are picked and packed.
	Facility

	// RelayPoint is an intermediate hand-off location between a facility and the customer.
	RelayPoint
)

var (
	// FacilityNamespace and RelayPointNamespace seed name-derived site ids, so that
	// "F1" the facility and "F1" the relay point never collide.
	FacilityNamespace   = kernel.MustUUIDFromString("0b5a3f0e-7c1d-5e64-9a57-3f1c2d4e5f60")
	RelayPointNamespace = kernel.MustUUIDFromString("5c0e9d21-3b7a-5f48-8e16-a2b3c4d5e6f7")
)

func (k Kind) String() string {
	switch k {
	case Facility:
		return "Facility"
	case RelayPoint:
		return "RelayPoint"
	case UnknownKind:
		return "Unknown"
	default:
		return "Unknown"
	}
}

func (k Kind) Validate() error {
	if k != Facility && k != RelayPoint {
		return errs.NewValueIsInvalidErrorWithCause("kind", fmt.Errorf("%d is not a valid site kind", k))
	}
	return nil
}

// Namespace returns the UUID namespace used for name-derived ids of this kind.
func (k Kind) Namespace() kernel.UUID {
	if k == RelayPoint {
		return RelayPointNamespace
	}
	return FacilityNamespace
}
