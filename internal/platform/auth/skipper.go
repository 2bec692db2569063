package auth

import (
	"github.com/labstack/echo/v4"
)

// publicPaths lists URL paths that bypass authentication: health checks and
// the endpoints a user needs before holding a token.
var publicPaths = map[string]bool{
	"/health":               true,
	"/api/v1/auth/register": true,
	"/api/v1/auth/login":    true,
}

// PublicPathSkipper returns true for requests whose path should skip
// authentication. Pass it as the Skipper on JWTConfig so registration, login,
// and health checks remain reachable without a bearer token.
func PublicPathSkipper(c echo.Context) bool {
	return publicPaths[c.Request().URL.Path]
}
