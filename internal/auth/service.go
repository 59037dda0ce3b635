package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/innkeep/innkeep/internal/rbac"
	"github.com/innkeep/innkeep/internal/session"
)

var (
	// ErrNotFound indicates the directory has no such user.
	ErrNotFound = errors.New("auth: user not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
)

// Service wraps authentication business rules.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Authenticate validates email/password credentials against the directory.
func (s *Service) Authenticate(ctx context.Context, email, password string) (session.Identity, error) {
	user, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return session.Identity{}, ErrInvalidCredentials
	}
	if !user.IsActive {
		return session.Identity{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return session.Identity{}, ErrInvalidCredentials
	}
	return session.Identity{ID: user.ID, Name: user.Name, Email: user.Email, RoleID: user.RoleID}, nil
}

// RecordLogin stamps the user's last successful login.
func (s *Service) RecordLogin(ctx context.Context, userID string, at time.Time) error {
	return s.repo.TouchLogin(ctx, userID, at)
}

// DemoAuthenticator accepts any credentials as the owner account, matching
// the dashboard's demo mode.
type DemoAuthenticator struct{}

// Authenticate implements session.Authenticator.
func (DemoAuthenticator) Authenticate(ctx context.Context, email, _ string) (session.Identity, error) {
	if err := ctx.Err(); err != nil {
		return session.Identity{}, err
	}
	return session.Identity{ID: "1", Name: "John Doe", Email: email, RoleID: rbac.RoleOwner}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var (
	_ session.Authenticator = (*Service)(nil)
	_ session.Authenticator = DemoAuthenticator{}
)
