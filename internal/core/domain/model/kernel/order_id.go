package kernel

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"fulfillment/internal/pkg/errs"

	"github.com/google/uuid"
)

// OrderIDMaxLength caps caller-supplied order identifiers.
const OrderIDMaxLength = 128

var ErrOrderIDIsNotConstructed = errs.NewValueIsRequiredError(
	"order id must be created via NewOrderID or GenerateOrderID")

// OrderID keys every timeline in the status ledger. The commerce service usually
// supplies its own identifier (a cart document id); when it does not, the
// dispatcher generates a UUID.
//
// The dispatcher does not enforce uniqueness: dispatching the same OrderID twice
// replaces the earlier timeline.
type OrderID struct {
	value string
}

// NewOrderID validates a caller-supplied identifier: 1..OrderIDMaxLength runes,
// valid UTF-8, no control characters or whitespace.
func NewOrderID(value string) (OrderID, error) {
	if value == "" {
		return OrderID{}, errs.NewValueIsRequiredError("orderId")
	}

	if !utf8.ValidString(value) {
		return OrderID{}, errs.NewValueIsInvalidErrorWithCause("orderId", fmt.Errorf("%q is not valid UTF-8", value))
	}

	if n := utf8.RuneCountInString(value); n > OrderIDMaxLength {
		return OrderID{}, errs.NewValueIsOutOfRangeError("orderId length", n, 1, OrderIDMaxLength)
	}

	for _, r := range value {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return OrderID{}, errs.NewValueIsInvalidErrorWithCause(
				"orderId", fmt.Errorf("%q contains whitespace or control characters", value))
		}
	}

	return OrderID{value: value}, nil
}

// GenerateOrderID returns a fresh random identifier for requests that carry none.
func GenerateOrderID() OrderID {
	return OrderID{value: uuid.NewString()}
}

func (o OrderID) String() string {
	return o.value
}

func (o OrderID) IsEqual(other OrderID) bool {
	return o.value == other.value
}

func (o OrderID) Validate() error {
	if o.value == "" {
		return ErrOrderIDIsNotConstructed
	}
	return nil
}
