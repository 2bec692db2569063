package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

var testSecret = []byte("test-secret")

func TestTokenRoundTrip(t *testing.T) {
	token, err := IssueToken(testSecret, 42, "pat@example.com", "patient", time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims, err := ParseToken(testSecret, token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("expected uid 42, got %d", claims.UserID)
	}
	if claims.Subject != "pat@example.com" {
		t.Errorf("expected subject pat@example.com, got %s", claims.Subject)
	}
	if claims.Role != "patient" {
		t.Errorf("expected role patient, got %s", claims.Role)
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	token, _ := IssueToken(testSecret, 1, "a@b.c", "patient", time.Hour)
	if _, err := ParseToken([]byte("other-secret"), token); err == nil {
		t.Error("expected error for wrong secret")
	}
}

func TestParseToken_Expired(t *testing.T) {
	token, _ := IssueToken(testSecret, 1, "a@b.c", "patient", -time.Minute)
	if _, err := ParseToken(testSecret, token); err == nil {
		t.Error("expected error for expired token")
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("hunter22")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !CheckPassword(hash, "hunter22") {
		t.Error("expected password to verify")
	}
	if CheckPassword(hash, "wrong") {
		t.Error("expected wrong password to fail")
	}
}

func newAuthedContext(t *testing.T, e *echo.Echo, token string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestJWTMiddleware_ValidToken(t *testing.T) {
	e := echo.New()
	token, _ := IssueToken(testSecret, 7, "doc@example.com", "doctor", time.Hour)
	c, _ := newAuthedContext(t, e, token)

	mw := JWTMiddleware(JWTConfig{Secret: testSecret})
	err := mw(func(c echo.Context) error {
		ctx := c.Request().Context()
		if UserIDFromContext(ctx) != 7 {
			t.Errorf("expected uid 7, got %d", UserIDFromContext(ctx))
		}
		if RoleFromContext(ctx) != "doctor" {
			t.Errorf("expected role doctor, got %s", RoleFromContext(ctx))
		}
		return c.NoContent(http.StatusOK)
	})(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestJWTMiddleware_MissingHeader(t *testing.T) {
	e := echo.New()
	c, _ := newAuthedContext(t, e, "")

	mw := JWTMiddleware(JWTConfig{Secret: testSecret})
	err := mw(func(c echo.Context) error { return nil })(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", err)
	}
}

func TestJWTMiddleware_UnknownIdentityRejected(t *testing.T) {
	e := echo.New()
	token, _ := IssueToken(testSecret, 7, "ghost@example.com", "patient", time.Hour)
	c, _ := newAuthedContext(t, e, token)

	mw := JWTMiddleware(JWTConfig{
		Secret: testSecret,
		Lookup: func(ctx context.Context, email string) (int64, string, error) {
			return 0, "", fmt.Errorf("user not found")
		},
	})
	err := mw(func(c echo.Context) error { return nil })(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for unknown identity, got %v", err)
	}
}

func TestJWTMiddleware_LookupOverridesClaims(t *testing.T) {
	e := echo.New()
	// Token minted with a stale role; the store is authoritative.
	token, _ := IssueToken(testSecret, 7, "doc@example.com", "patient", time.Hour)
	c, _ := newAuthedContext(t, e, token)

	mw := JWTMiddleware(JWTConfig{
		Secret: testSecret,
		Lookup: func(ctx context.Context, email string) (int64, string, error) {
			return 9, "doctor", nil
		},
	})
	err := mw(func(c echo.Context) error {
		if RoleFromContext(c.Request().Context()) != "doctor" {
			t.Error("expected role from lookup, not token")
		}
		if UserIDFromContext(c.Request().Context()) != 9 {
			t.Error("expected id from lookup, not token")
		}
		return nil
	})(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestJWTMiddleware_SkipsPublicPaths(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	mw := JWTMiddleware(JWTConfig{Secret: testSecret, Skipper: PublicPathSkipper})
	called := false
	err := mw(func(c echo.Context) error {
		called = true
		return nil
	})(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("expected public path to bypass auth")
	}
}

func TestRequireRole(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetRequest(c.Request().WithContext(
		WithIdentity(c.Request().Context(), 1, "pat@example.com", "patient")))

	err := RequireRole("doctor")(func(c echo.Context) error { return nil })(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %v", err)
	}

	c.SetRequest(c.Request().WithContext(
		WithIdentity(c.Request().Context(), 2, "doc@example.com", "doctor")))
	if err := RequireRole("doctor")(func(c echo.Context) error { return nil })(c); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
