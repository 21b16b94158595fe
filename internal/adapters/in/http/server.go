// Package http exposes the dispatcher over a JSON API served by echo.
package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/application/usecases/queries"
	"fulfillment/internal/core/domain/model/timeline"

	"github.com/labstack/echo/v4"
)

type DispatchOrderHandler interface {
	Handle(ctx context.Context, cmd commands.DispatchOrderCommand) (commands.DispatchResult, error)
}

type CancelOrderHandler interface {
	Handle(ctx context.Context, cmd commands.CancelOrderCommand) ([]timeline.StageEvent, error)
}

type GetOrderStatusHandler interface {
	Handle(ctx context.Context, query queries.GetOrderStatusQuery) (queries.GetOrderStatusQueryResponse, error)
}

// Server implements ServerInterface on top of the application use cases.
type Server struct {
	dispatchHandler DispatchOrderHandler
	cancelHandler   CancelOrderHandler
	statusHandler   GetOrderStatusHandler

	// unknownAsNotFound answers 404 for never-dispatched ids instead of an empty history.
	unknownAsNotFound bool
}

func NewServer(
	dispatchHandler DispatchOrderHandler,
	cancelHandler CancelOrderHandler,
	statusHandler GetOrderStatusHandler,
	unknownAsNotFound bool,
) *Server {
	return &Server{
		dispatchHandler:   dispatchHandler,
		cancelHandler:     cancelHandler,
		statusHandler:     statusHandler,
		unknownAsNotFound: unknownAsNotFound,
	}
}

// DispatchOrder handles POST /dispatch.
func (s *Server) DispatchOrder(ctx echo.Context) error {
	var req DispatchRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}

	cmd, err := req.toCommand()
	if err != nil {
		return err
	}

	result, err := s.dispatchHandler.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, toDispatchResult(result))
}

// GetOrderStatus handles GET /status/{orderId}.
func (s *Server) GetOrderStatus(ctx echo.Context, orderID string) error {
	query, err := queries.NewGetOrderStatusQuery(orderID)
	if err != nil {
		return err
	}

	status, err := s.statusHandler.Handle(ctx.Request().Context(), query)
	switch {
	case errors.Is(err, queries.ErrOrderNotFound) && !s.unknownAsNotFound:
		return ctx.JSON(http.StatusOK, toOrderStatus(query.OrderID(), nil))
	case err != nil:
		return err
	}

	return ctx.JSON(http.StatusOK, toOrderStatus(status.OrderID, status.Updates))
}

// CancelOrder handles DELETE /dispatch/{orderId}.
func (s *Server) CancelOrder(ctx echo.Context, orderID string) error {
	cmd, err := commands.NewCancelOrderCommand(orderID)
	if err != nil {
		return err
	}

	events, err := s.cancelHandler.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, toOrderStatus(cmd.OrderID(), events))
}

// Health handles GET /health.
func (s *Server) Health(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Healthy")
}

// errorHandler renders every error as {code, kind, message}. Internal causes are
// logged, never sent.
func errorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		body := classify(err)
		if body.Code >= http.StatusInternalServerError {
			logger.Error("Request failed",
				"method", c.Request().Method,
				"path", c.Path(),
				"kind", body.Kind,
				"error", err,
			)
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(body.Code)
		} else {
			writeErr = c.JSON(body.Code, body)
		}
		if writeErr != nil {
			logger.Error("Failed to write error response", "error", writeErr)
		}
	}
}
