package identity

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/triage/intake/internal/platform/auth"
)

var (
	// ErrEmailTaken is returned when registering an email that already has
	// an account.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials is returned for a bad email/password pair. The
	// same error covers both cases so callers cannot probe for accounts.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

type Service struct {
	repo     Repository
	secret   []byte
	tokenTTL time.Duration
}

func NewService(repo Repository, secret string, tokenTTL time.Duration) *Service {
	return &Service{repo: repo, secret: []byte(secret), tokenTTL: tokenTTL}
}

// Register creates an account with a bcrypt-hashed password. The role
// defaults to patient when omitted.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return nil, fmt.Errorf("invalid email address")
	}
	if len(req.Password) < 6 {
		return nil, fmt.Errorf("password must be at least 6 characters")
	}
	if req.Role == "" {
		req.Role = RolePatient
	}
	if !ValidRole(req.Role) {
		return nil, fmt.Errorf("role must be %q or %q", RolePatient, RoleDoctor)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &User{
		Name:           req.Name,
		Email:          req.Email,
		HashedPassword: hash,
		Role:           req.Role,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login verifies the credentials and issues a signed bearer token.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	u, err := s.repo.GetByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !auth.CheckPassword(u.HashedPassword, req.Password) {
		return nil, ErrInvalidCredentials
	}

	token, err := auth.IssueToken(s.secret, u.ID, u.Email, u.Role, s.tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &TokenResponse{AccessToken: token, TokenType: "bearer", User: u}, nil
}

// Get returns the user by id.
func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// Lookup resolves an email to a live account. It backs the JWT middleware
// so revoked or deleted accounts are rejected even with a valid token.
func (s *Service) Lookup(ctx context.Context, email string) (int64, string, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return 0, "", err
	}
	return u.ID, u.Role, nil
}
