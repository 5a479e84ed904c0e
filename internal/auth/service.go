package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/amsilks/amsilks-erp/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Authenticate validates username/password credentials.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// CreateUser hashes the password and stores a new account.
func (s *Service) CreateUser(ctx context.Context, in NewUser) (*User, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return nil, shared.NewFieldError("username", "is required")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = username
	}
	role := strings.ToLower(strings.TrimSpace(in.Role))
	if shared.RolePermissions(role) == nil {
		return nil, shared.NewFieldError("role", "must be admin or staff")
	}
	if len(in.Password) < 8 {
		return nil, shared.NewFieldError("password", "must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}
	return s.repo.CreateUser(ctx, User{Username: username, Name: name, Role: role, PasswordHash: string(hash)})
}

// UserRole returns the role of an active user. It satisfies rbac.RoleLookup.
func (s *Service) UserRole(ctx context.Context, userID int64) (string, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if !user.IsActive {
		return "", fmt.Errorf("auth: user %d inactive: %w", userID, shared.ErrNotFound)
	}
	return user.Role, nil
}

// RegisterSession persists the session metadata in postgres.
func (s *Service) RegisterSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	return s.repo.CreateSession(ctx, id, userID, expiresAt, ip, ua)
}

// RemoveSession deletes a session record from postgres.
func (s *Service) RemoveSession(ctx context.Context, id string) error {
	if err := s.repo.DeleteSession(ctx, id); err != nil && !errors.Is(err, shared.ErrNotFound) {
		return err
	}
	return nil
}
