package middleware

import (
	"net/http"
	"sync/atomic"

	"github.com/labstack/echo/v4"
)

// Readiness remembers whether the ward store finished initializing.
type Readiness struct {
	ready atomic.Bool
	err   atomic.Value // string
}

func NewReadiness() *Readiness {
	return &Readiness{}
}

func (r *Readiness) MarkReady() {
	r.err.Store("")
	r.ready.Store(true)
}

// MarkFailed records an initialization failure and keeps the gate closed.
func (r *Readiness) MarkFailed(err error) {
	r.ready.Store(false)
	if err != nil {
		r.err.Store(err.Error())
	}
}

func (r *Readiness) Ready() bool {
	return r.ready.Load()
}

func (r *Readiness) lastError() string {
	s, _ := r.err.Load().(string)
	return s
}

// RequireReady answers 503 until MarkReady has been called.
func (r *Readiness) RequireReady() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !r.Ready() {
				msg := "ward store is not initialized"
				if detail := r.lastError(); detail != "" {
					msg += ": " + detail
				}
				return echo.NewHTTPError(http.StatusServiceUnavailable, msg)
			}
			return next(c)
		}
	}
}
