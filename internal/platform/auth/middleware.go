package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	UserIDKey    contextKey = "user_id"
	UserEmailKey contextKey = "user_email"
	UserRoleKey  contextKey = "user_role"
)

// UserLookup resolves a token subject (email) to the stable user identity.
// Returning an error rejects the request before any business logic runs.
type UserLookup func(ctx context.Context, email string) (id int64, role string, err error)

// JWTConfig configures the bearer-token middleware.
type JWTConfig struct {
	Secret []byte
	// Skipper returns true for requests that bypass authentication.
	Skipper func(c echo.Context) bool
	// Lookup, when set, verifies that the token's subject still maps to a
	// known user and takes the identity (id, role) from the store rather
	// than trusting the token's copy.
	Lookup UserLookup
}

// JWTMiddleware authenticates requests with a bearer token signed by this
// service. On success the resolved identity is stored on the request context.
func JWTMiddleware(cfg JWTConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.Skipper != nil && cfg.Skipper(c) {
				return next(c)
			}

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
			}

			claims, err := ParseToken(cfg.Secret, parts[1])
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			id, role := claims.UserID, claims.Role
			if cfg.Lookup != nil {
				id, role, err = cfg.Lookup(c.Request().Context(), claims.Subject)
				if err != nil {
					return echo.NewHTTPError(http.StatusUnauthorized, "unknown identity")
				}
			}

			c.SetRequest(c.Request().WithContext(
				WithIdentity(c.Request().Context(), id, claims.Subject, role)))

			return next(c)
		}
	}
}

// WithIdentity stores the authenticated identity on the context.
func WithIdentity(ctx context.Context, id int64, email, role string) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, id)
	ctx = context.WithValue(ctx, UserEmailKey, email)
	ctx = context.WithValue(ctx, UserRoleKey, role)
	return ctx
}

func UserIDFromContext(ctx context.Context) int64 {
	id, _ := ctx.Value(UserIDKey).(int64)
	return id
}

func EmailFromContext(ctx context.Context) string {
	email, _ := ctx.Value(UserEmailKey).(string)
	return email
}

func RoleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(UserRoleKey).(string)
	return role
}
