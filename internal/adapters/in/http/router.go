package http

import (
	"log/slog"
	"time"

	"fulfillment/internal/pkg/metrics"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
)

// NewRouter assembles the echo instance: contract validation, request metrics and
// logging, the API routes, /metrics and the Swagger UI.
func NewRouter(server ServerInterface, m *metrics.Metrics, logger *slog.Logger) (*echo.Echo, error) {
	logger = logger.With("component", "http")

	doc, err := GetSwagger()
	if err != nil {
		return nil, err
	}

	validator, err := openAPIValidator(doc)
	if err != nil {
		return nil, err
	}

	if err = registerSwaggerDoc(doc); err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler(logger)

	e.Use(middleware.Recover())
	e.Use(observe(m, logger))
	e.Use(validator)

	RegisterHandlers(e, server)
	e.GET("/metrics", echo.WrapHandler(m.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e, nil
}

// observe records request metrics and logs one line per request.
func observe(m *metrics.Metrics, logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			m.IncrementHTTPRequestsInFlight()
			defer m.DecrementHTTPRequestsInFlight()

			start := time.Now()
			err := next(c)
			elapsed := time.Since(start)

			status := c.Response().Status
			if err != nil {
				status = classify(err).Code
			}

			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			m.RecordHTTPRequest(c.Request().Method, path, status, elapsed)

			level := slog.LevelInfo
			if path == "/metrics" || path == "/health" {
				level = slog.LevelDebug
			}
			logger.Log(c.Request().Context(), level, "HTTP request",
				"method", c.Request().Method,
				"path", path,
				"status", status,
				"duration_ms", elapsed.Milliseconds(),
			)

			return err
		}
	}
}
