package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func contextWithRole(role string) context.Context {
	return WithClaims(context.Background(), &Claims{Name: "test", Role: role})
}

func runRequireRole(role string, roles ...string) error {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if role != "" {
		req = req.WithContext(contextWithRole(role))
	}
	c := e.NewContext(req, httptest.NewRecorder())
	handler := func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}
	return RequireRole(roles...)(handler)(c)
}

func TestRequireRole_Allowed(t *testing.T) {
	if err := runRequireRole(RoleNurse, RoleNurse); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := runRequireRole(RoleDoctor, RoleNurse, RoleDoctor); err != nil {
		t.Fatalf("expected no error for any listed role, got %v", err)
	}
}

func TestRequireRole_Denied(t *testing.T) {
	tests := []struct {
		name string
		role string
	}{
		{"doctor", RoleDoctor},
		{"admin has no implicit access", RoleAdmin},
		{"no claims", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := runRequireRole(tt.role, RoleNurse)
			if err == nil {
				t.Fatal("expected error")
			}
			httpErr, ok := err.(*echo.HTTPError)
			if !ok {
				t.Fatalf("expected echo.HTTPError, got %T", err)
			}
			if httpErr.Code != http.StatusForbidden {
				t.Errorf("expected 403, got %d", httpErr.Code)
			}
		})
	}
}

func TestHasRole(t *testing.T) {
	if !HasRole([]string{RoleNurse}, RoleNurse) {
		t.Error("expected nurse to match")
	}
	if HasRole([]string{RoleNurse}, RoleAdmin) {
		t.Error("expected nurse not to match admin")
	}
	if HasRole(nil, RoleNurse) {
		t.Error("expected no roles not to match")
	}
}
