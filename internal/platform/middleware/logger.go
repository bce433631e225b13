package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ehr/nursestation/internal/platform/auth"
)

// Logger writes one structured line per request. Requests that fail are
// logged at error level; health probes and scrapes at debug.
func Logger(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			req := c.Request()
			var evt *zerolog.Event
			switch {
			case err != nil:
				evt = logger.Error().Err(err)
			case isProbe(req.URL.Path):
				evt = logger.Debug()
			default:
				evt = logger.Info()
			}

			rid, _ := c.Get(requestIDKey).(string)
			evt = evt.
				Str("request_id", rid).
				Str("method", req.Method).
				Str("route", c.Path()).
				Int("status", c.Response().Status).
				Dur("latency", time.Since(start))
			if sid := auth.SessionIDFromContext(req.Context()); sid != "" {
				evt = evt.Str("session_id", sid).Str("user", auth.UserNameFromContext(req.Context()))
			}
			evt.Msg("request")
			return err
		}
	}
}

func isProbe(path string) bool {
	return path == "/health" || path == "/health/db" || path == "/metrics"
}
