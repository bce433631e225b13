package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	SessionIDKey contextKey = "session_id"
	UserNameKey  contextKey = "user_name"
	UserRolesKey contextKey = "user_roles"
	TokenIDKey   contextKey = "token_id"
)

const defaultIssuer = "nurse-station"

var ErrInvalidToken = errors.New("invalid token")

// Claims identify a logged-in view session. Subject carries the session id.
type Claims struct {
	jwt.RegisteredClaims
	Name string `json:"name"`
	Role string `json:"role"`
}

// TokenIssuer signs and verifies HS256 session tokens.
type TokenIssuer struct {
	key     []byte
	ttl     time.Duration
	issuer  string
	revoked *TokenRevocationStore
	now     func() time.Time
}

func NewTokenIssuer(signingKey []byte, ttl time.Duration, revoked *TokenRevocationStore) *TokenIssuer {
	return &TokenIssuer{
		key:     signingKey,
		ttl:     ttl,
		issuer:  defaultIssuer,
		revoked: revoked,
		now:     time.Now,
	}
}

// Issue returns a signed token for the session and its claims.
func (ti *TokenIssuer) Issue(sessionID, name, role string) (string, *Claims, error) {
	now := ti.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   sessionID,
			Issuer:    ti.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ti.ttl)),
		},
		Name: name,
		Role: role,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ti.key)
	if err != nil {
		return "", nil, fmt.Errorf("sign session token: %w", err)
	}
	return signed, claims, nil
}

// Parse verifies a token and rejects revoked ones.
func (ti *TokenIssuer) Parse(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return ti.key, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(ti.issuer),
		jwt.WithTimeFunc(ti.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if ti.revoked != nil && ti.revoked.IsRevoked(claims.ID) {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Revoke invalidates a token until its natural expiry.
func (ti *TokenIssuer) Revoke(claims *Claims) {
	if ti.revoked == nil || claims == nil {
		return
	}
	var exp time.Time
	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Time
	}
	ti.revoked.RevokeForSession(claims.ID, claims.Subject, exp)
}

// SessionMiddleware authenticates bearer session tokens and stores the
// claims on the request context.
func SessionMiddleware(ti *TokenIssuer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}
			tokenStr, err := bearerToken(authHeader)
			if err != nil {
				return err
			}
			return authenticate(c, ti, tokenStr, next)
		}
	}
}

// AccessTokenParam carries the session token on websocket upgrades.
const AccessTokenParam = "access_token"

// UpgradeSessionMiddleware authenticates websocket upgrades. Browsers cannot
// set headers on an upgrade request, so the token is also read from the
// access_token query parameter when no Authorization header is present.
func UpgradeSessionMiddleware(ti *TokenIssuer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenStr := c.QueryParam(AccessTokenParam)
			if authHeader := c.Request().Header.Get("Authorization"); authHeader != "" {
				var err error
				if tokenStr, err = bearerToken(authHeader); err != nil {
					return err
				}
			}
			if tokenStr == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing session token")
			}
			return authenticate(c, ti, tokenStr, next)
		}
	}
}

func bearerToken(authHeader string) (string, error) {
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
	}
	return parts[1], nil
}

func authenticate(c echo.Context, ti *TokenIssuer, tokenStr string, next echo.HandlerFunc) error {
	claims, err := ti.Parse(tokenStr)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}

	c.Set("claims", claims)
	c.SetRequest(c.Request().WithContext(WithClaims(c.Request().Context(), claims)))
	return next(c)
}

// WithClaims stores the claim values on ctx.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	ctx = context.WithValue(ctx, SessionIDKey, claims.Subject)
	ctx = context.WithValue(ctx, UserNameKey, claims.Name)
	ctx = context.WithValue(ctx, UserRolesKey, []string{claims.Role})
	ctx = context.WithValue(ctx, TokenIDKey, claims.ID)
	return ctx
}

// ClaimsFromEcho returns the claims stored by SessionMiddleware.
func ClaimsFromEcho(c echo.Context) (*Claims, bool) {
	claims, ok := c.Get("claims").(*Claims)
	return claims, ok
}

func SessionIDFromContext(ctx context.Context) string {
	sid, _ := ctx.Value(SessionIDKey).(string)
	return sid
}

func UserNameFromContext(ctx context.Context) string {
	name, _ := ctx.Value(UserNameKey).(string)
	return name
}

func RolesFromContext(ctx context.Context) []string {
	roles, _ := ctx.Value(UserRolesKey).([]string)
	return roles
}
