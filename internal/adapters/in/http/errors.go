package http

import (
	"errors"
	"net/http"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/application/usecases/queries"
	"fulfillment/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

var errUserCoordinatesRequired = errs.NewValueIsRequiredError("userX, userY")

// classify maps an error to its HTTP status, kind and client-safe message. Only
// validation messages are echoed; everything unexpected becomes Internal.
func classify(err error) Error {
	var (
		contractErr *contractViolationError
		httpErr     *echo.HTTPError
	)

	switch {
	case errors.As(err, &contractErr):
		return Error{Code: http.StatusBadRequest, Kind: KindInvalidRequest, Message: contractErr.Error()}
	case errors.Is(err, commands.ErrNoCandidatesAvailable):
		return Error{
			Code:    http.StatusInternalServerError,
			Kind:    KindNoCandidatesAvailable,
			Message: "no facility or relay point is available",
		}
	case errors.Is(err, queries.ErrOrderNotFound), errors.Is(err, commands.ErrOrderNotFound):
		return Error{Code: http.StatusNotFound, Kind: KindOrderNotFound, Message: "order not found"}
	case errors.Is(err, commands.ErrOrderAlreadyTerminal):
		return Error{
			Code:    http.StatusConflict,
			Kind:    KindOrderAlreadyTerminal,
			Message: "order already reached a terminal stage",
		}
	case errors.Is(err, errs.ErrValueIsRequired),
		errors.Is(err, errs.ErrValueIsInvalid),
		errors.Is(err, errs.ErrValueIsOutOfRange):
		return Error{Code: http.StatusBadRequest, Kind: KindInvalidRequest, Message: err.Error()}
	case errors.As(err, &httpErr):
		return classifyHTTPError(httpErr)
	default:
		return Error{Code: http.StatusInternalServerError, Kind: KindInternal, Message: "internal server error"}
	}
}

func classifyHTTPError(he *echo.HTTPError) Error {
	switch {
	case he.Code == http.StatusNotFound:
		return Error{Code: he.Code, Kind: KindNotFound, Message: http.StatusText(he.Code)}
	case he.Code == http.StatusMethodNotAllowed:
		return Error{Code: he.Code, Kind: KindMethodNotAllowed, Message: http.StatusText(he.Code)}
	case he.Code >= 400 && he.Code < 500:
		return Error{Code: he.Code, Kind: KindInvalidRequest, Message: http.StatusText(he.Code)}
	default:
		return Error{Code: http.StatusInternalServerError, Kind: KindInternal, Message: "internal server error"}
	}
}
