// Package identity registers ward staff and checks their credentials.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials  = errors.New("invalid username or password")
	ErrInvalidRegistration = errors.New("invalid registration")
)

const (
	DefaultRole       = "nurse"
	minPasswordLength = 6
)

type Service struct {
	users  UserRepository
	cost   int
	logger zerolog.Logger
}

func NewService(users UserRepository, logger zerolog.Logger) *Service {
	return &Service{users: users, cost: bcrypt.DefaultCost, logger: logger}
}

// SetHashCost overrides the bcrypt cost. Tests use bcrypt.MinCost.
func (s *Service) SetHashCost(cost int) {
	s.cost = cost
}

// Register validates and stores a new staff user. The role defaults to nurse.
func (s *Service) Register(ctx context.Context, r Registration) (*StaffUser, error) {
	r.Name = strings.TrimSpace(r.Name)
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.TrimSpace(r.Email)
	r.Role = strings.TrimSpace(r.Role)

	switch {
	case r.Name == "":
		return nil, fmt.Errorf("%w: name is required", ErrInvalidRegistration)
	case r.Username == "":
		return nil, fmt.Errorf("%w: username is required", ErrInvalidRegistration)
	case r.Email == "" || !strings.Contains(r.Email, "@"):
		return nil, fmt.Errorf("%w: a valid email is required", ErrInvalidRegistration)
	case len(r.Password) < minPasswordLength:
		return nil, fmt.Errorf("%w: password must have at least %d characters", ErrInvalidRegistration, minPasswordLength)
	}
	if r.Role == "" {
		r.Role = DefaultRole
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(r.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &StaffUser{
		Name:         r.Name,
		Username:     r.Username,
		Email:        r.Email,
		PasswordHash: hash,
		Role:         r.Role,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	s.logger.Info().Str("username", u.Username).Str("role", u.Role).Msg("staff user registered")
	return u, nil
}

// Authenticate checks credentials and returns who logged in. Unknown users
// and wrong passwords give the same error.
func (s *Service) Authenticate(ctx context.Context, c Credentials) (Principal, error) {
	u, err := s.users.GetByUsername(ctx, strings.TrimSpace(c.Username))
	if errors.Is(err, ErrNotFound) {
		return Principal{}, ErrInvalidCredentials
	}
	if err != nil {
		return Principal{}, fmt.Errorf("load staff user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(c.Password)); err != nil {
		s.logger.Warn().Str("username", u.Username).Msg("failed login")
		return Principal{}, ErrInvalidCredentials
	}
	return Principal{Name: u.Name, Role: u.Role}, nil
}
