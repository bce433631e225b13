package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

var testSigningKey = []byte("test-secret-key-for-unit-tests-only")

func createTestToken(t *testing.T, claims Claims, key []byte) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenStr, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}
	return tokenStr
}

func runMiddleware(t *testing.T, ti *TokenIssuer, header string) (echo.Context, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen echo.Context
	handler := func(c echo.Context) error {
		seen = c
		return c.String(http.StatusOK, "ok")
	}
	err := SessionMiddleware(ti)(handler)(c)
	return seen, err
}

func expectStatus(t *testing.T, err error, want int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with status %d", want)
	}
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != want {
		t.Errorf("expected %d, got %d", want, httpErr.Code)
	}
}

func TestSessionMiddleware_MissingHeader(t *testing.T) {
	ti := NewTokenIssuer(testSigningKey, time.Hour, nil)
	_, err := runMiddleware(t, ti, "")
	expectStatus(t, err, http.StatusUnauthorized)
}

func TestSessionMiddleware_InvalidFormat(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"no bearer prefix", "Token abc123"},
		{"missing token", "Bearer"},
		{"empty value", "Bearer "},
		{"basic auth", "Basic dXNlcjpwYXNz"},
	}
	ti := NewTokenIssuer(testSigningKey, time.Hour, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runMiddleware(t, ti, tt.header)
			expectStatus(t, err, http.StatusUnauthorized)
		})
	}
}

func TestSessionMiddleware_ValidToken(t *testing.T) {
	ti := NewTokenIssuer(testSigningKey, time.Hour, nil)
	token, claims, err := ti.Issue("session-1", "Ana", RoleNurse)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if claims.Subject != "session-1" || claims.ID == "" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	c, err := runMiddleware(t, ti, "Bearer "+token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := c.Request().Context()
	if got := SessionIDFromContext(ctx); got != "session-1" {
		t.Errorf("expected session-1, got %q", got)
	}
	if got := UserNameFromContext(ctx); got != "Ana" {
		t.Errorf("expected Ana, got %q", got)
	}
	if roles := RolesFromContext(ctx); len(roles) != 1 || roles[0] != RoleNurse {
		t.Errorf("expected [nurse], got %v", roles)
	}
	if stored, ok := ClaimsFromEcho(c); !ok || stored.ID != claims.ID {
		t.Error("expected claims stored on the echo context")
	}
}

func TestSessionMiddleware_ExpiredToken(t *testing.T) {
	ti := NewTokenIssuer(testSigningKey, time.Hour, nil)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "session-1",
			Issuer:    defaultIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
		Name: "Ana",
		Role: RoleNurse,
	}
	_, err := runMiddleware(t, ti, "Bearer "+createTestToken(t, claims, testSigningKey))
	expectStatus(t, err, http.StatusUnauthorized)
}

func TestSessionMiddleware_WrongKeyOrIssuer(t *testing.T) {
	ti := NewTokenIssuer(testSigningKey, time.Hour, nil)
	exp := jwt.NewNumericDate(time.Now().Add(time.Hour))

	wrongKey := createTestToken(t, Claims{RegisteredClaims: jwt.RegisteredClaims{Issuer: defaultIssuer, ExpiresAt: exp}}, []byte("other-key"))
	_, err := runMiddleware(t, ti, "Bearer "+wrongKey)
	expectStatus(t, err, http.StatusUnauthorized)

	wrongIssuer := createTestToken(t, Claims{RegisteredClaims: jwt.RegisteredClaims{Issuer: "someone-else", ExpiresAt: exp}}, testSigningKey)
	_, err = runMiddleware(t, ti, "Bearer "+wrongIssuer)
	expectStatus(t, err, http.StatusUnauthorized)
}

func TestTokenIssuer_Revoke(t *testing.T) {
	store := NewTokenRevocationStore()
	ti := NewTokenIssuer(testSigningKey, time.Hour, store)
	token, claims, err := ti.Issue("session-1", "Ana", RoleNurse)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := ti.Parse(token); err != nil {
		t.Fatalf("expected valid token, got %v", err)
	}

	ti.Revoke(claims)
	if _, err := ti.Parse(token); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken after revoke, got %v", err)
	}
	_, err = runMiddleware(t, ti, "Bearer "+token)
	expectStatus(t, err, http.StatusUnauthorized)

	// A fresh login on the same session gets a working token.
	token2, _, _ := ti.Issue("session-1", "Ana", RoleNurse)
	if _, err := ti.Parse(token2); err != nil {
		t.Errorf("expected new token to be valid, got %v", err)
	}
}

func TestContextAccessors_Empty(t *testing.T) {
	ctx := context.Background()
	if SessionIDFromContext(ctx) != "" || UserNameFromContext(ctx) != "" || RolesFromContext(ctx) != nil {
		t.Error("expected zero values from an empty context")
	}
}

func TestUpgradeSessionMiddleware(t *testing.T) {
	store := NewTokenRevocationStore()
	ti := NewTokenIssuer(testSigningKey, time.Hour, store)
	token, claims, err := ti.Issue("session-1", "Ana", RoleNurse)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	run := func(query, header string) (echo.Context, error) {
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/ws"+query, nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		c := e.NewContext(req, httptest.NewRecorder())
		var seen echo.Context
		err := UpgradeSessionMiddleware(ti)(func(c echo.Context) error {
			seen = c
			return nil
		})(c)
		return seen, err
	}

	_, err = run("", "")
	expectStatus(t, err, http.StatusUnauthorized)

	c, err := run("?"+AccessTokenParam+"="+token, "")
	if err != nil {
		t.Fatalf("query token: %v", err)
	}
	if got := SessionIDFromContext(c.Request().Context()); got != "session-1" {
		t.Errorf("expected session-1, got %q", got)
	}

	if _, err := run("", "Bearer "+token); err != nil {
		t.Errorf("header token: %v", err)
	}
	_, err = run("?"+AccessTokenParam+"="+token, "Token "+token)
	expectStatus(t, err, http.StatusUnauthorized)

	ti.Revoke(claims)
	_, err = run("?"+AccessTokenParam+"="+token, "")
	expectStatus(t, err, http.StatusUnauthorized)
}
