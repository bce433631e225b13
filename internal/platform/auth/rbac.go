package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// Role names known to the ward.
const (
	RoleNurse  = "nurse"
	RoleDoctor = "doctor"
	RoleAdmin  = "admin"
)

// RequireRole returns middleware that checks if the user has at least one of
// the given roles. No role implies another.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if HasRole(RolesFromContext(c.Request().Context()), roles...) {
				return next(c)
			}
			return echo.NewHTTPError(http.StatusForbidden,
				fmt.Sprintf("required role: %s", strings.Join(roles, " or ")))
		}
	}
}

// HasRole reports whether any of userRoles is one of required.
func HasRole(userRoles []string, required ...string) bool {
	for _, want := range required {
		for _, has := range userRoles {
			if has == want {
				return true
			}
		}
	}
	return false
}
