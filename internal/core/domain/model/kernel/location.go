package kernel

import (
	"errors"
	"fmt"
	"math"

	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

// CoordinateLimit bounds both axes of the dispatch plane. Callers are expected to
// range-check delivery coordinates already; the limit only rejects garbage.
const CoordinateLimit = 1e6

// ErrLocationIsNotConstructed is returned when a zero-value Location is used.
var ErrLocationIsNotConstructed = errs.NewValueIsRequiredError(
	"location must be created via NewLocation constructor")

// Location is an immutable point in the 2D dispatch plane. Facilities, relay
// points and delivery destinations all share it.
//
// Example:
//
//	customer, err := kernel.NewLocation(2, 2)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(customer) // Location(2.00,2.00)
type Location struct { //nolint:recvcheck //using for validation
	x     float64
	y     float64
	guard guard.ConstructorGuard
}

// NewLocation creates a Location. Both coordinates must be finite and within
// [-CoordinateLimit..CoordinateLimit].
func NewLocation(x, y float64) (Location, error) {
	loc := Location{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(loc.setX(x), loc.setY(y)); err != nil {
		return Location{}, err
	}

	return loc, nil
}

// MustNewLocation is NewLocation for fixtures and constants; it panics on invalid input.
func MustNewLocation(x, y float64) Location {
	loc, err := NewLocation(x, y)
	if err != nil {
		panic(err)
	}
	return loc
}

// Validate reports whether the Location was built by NewLocation.
func (l Location) Validate() error {
	return l.guard.Validate(ErrLocationIsNotConstructed)
}

func (l Location) X() float64 {
	return l.x
}

func (l Location) Y() float64 {
	return l.y
}

func (l Location) String() string {
	return fmt.Sprintf("Location(%.2f,%.2f)", l.x, l.y)
}

// IsEqual compares two constructed locations coordinate by coordinate.
func (l Location) IsEqual(other Location) (bool, error) {
	if err := errors.Join(l.Validate(), other.Validate()); err != nil {
		return false, err
	}

	return l.x == other.x && l.y == other.y, nil
}

// Distance returns the straight-line (Euclidean) distance between two locations.
// Road networks are deliberately not modelled.
//
// Example:
//
//	f1 := kernel.MustNewLocation(0, 0)
//	customer := kernel.MustNewLocation(2, 2)
//	d, _ := customer.Distance(f1) // 2.828...
func (l Location) Distance(other Location) (float64, error) {
	if err := errors.Join(l.Validate(), other.Validate()); err != nil {
		return 0, err
	}

	return math.Hypot(l.x-other.x, l.y-other.y), nil
}

func (l *Location) setX(x float64) error {
	if err := validateCoordinate("x", x); err != nil {
		return err
	}

	l.x = x
	return nil
}

func (l *Location) setY(y float64) error {
	if err := validateCoordinate("y", y); err != nil {
		return err
	}

	l.y = y
	return nil
}

func validateCoordinate(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return errs.NewValueIsInvalidErrorWithCause(name, fmt.Errorf("%v is not a finite number", v))
	}
	if v < -CoordinateLimit || v > CoordinateLimit {
		return errs.NewValueIsOutOfRangeError(name, v, -CoordinateLimit, CoordinateLimit)
	}
	return nil
}
