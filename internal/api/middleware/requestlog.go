package middleware

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const requestIDHeader = "X-Request-ID"

// RequestLogOption configures the request logging middleware.
type RequestLogOption func(*requestLogConfig)

type requestLogConfig struct {
	skip map[string]struct{}
}

// SkipPaths suppresses the log line for the given request paths. Requests
// still get a request ID assigned and echoed back.
func SkipPaths(paths ...string) RequestLogOption {
	return func(cfg *requestLogConfig) {
		for _, p := range paths {
			cfg.skip[p] = struct{}{}
		}
	}
}

// RequestLog returns Echo middleware that logs each request with structured
// fields. A request ID is generated when the caller does not supply one and
// is echoed back in the response header. Server errors log at Error level.
func RequestLog(log *slog.Logger, opts ...RequestLogOption) echo.MiddlewareFunc {
	cfg := &requestLogConfig{skip: make(map[string]struct{})}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			reqID := c.Request().Header.Get(requestIDHeader)
			if reqID == "" {
				reqID = uuid.NewString()
			}
			c.Set("request_id", reqID)
			c.Response().Header().Set(requestIDHeader, reqID)

			err := next(c)

			path := c.Request().URL.Path
			if _, ok := cfg.skip[path]; ok {
				return err
			}

			status := c.Response().Status
			level := slog.LevelInfo
			if status >= 500 {
				level = slog.LevelError
			}
			log.Log(c.Request().Context(), level, "request",
				"method", c.Request().Method,
				"path", path,
				"status", status,
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", reqID,
			)

			return err
		}
	}
}
