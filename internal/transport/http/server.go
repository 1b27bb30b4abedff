// Package http assembles the HTTP application that serves the AG-UI endpoint.
package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/xiaot623/gogo/agui/internal/agui"
	"github.com/xiaot623/gogo/agui/internal/logging"
)

// EndpointPath is the single route the agent is mounted at.
const EndpointPath = "/"

// NewServer creates the echo application with the agent behind POST /.
// The cross-origin policy is open and only suited to local development.
func NewServer(runner agui.Runner, logger *zap.Logger) *echo.Echo {
	logger = logging.OrNop(logger)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(RequestLogger(logger))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(OpenCORS()))

	// Routes
	agui.RegisterEndpoint(e, EndpointPath, runner, logger)

	return e
}

// OpenCORS permits every origin, method and requested header, with
// credentials. The request origin is reflected instead of "*".
func OpenCORS() middleware.CORSConfig {
	return middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowCredentials: true,
		AllowMethods: []string{
			http.MethodGet, http.MethodHead, http.MethodPut, http.MethodPatch,
			http.MethodPost, http.MethodDelete, http.MethodOptions,
		},
		UnsafeWildcardOriginWithAllowCredentials: true,
	}
}

// RequestLogger writes one zap entry per request.
func RequestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				logger.Error("request", append(fields, zap.Error(v.Error))...)
				return nil
			}
			logger.Info("request", fields...)
			return nil
		},
	})
}
