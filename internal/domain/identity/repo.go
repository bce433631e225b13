package identity

import (
	"context"
	"errors"
)

var (
	ErrNotFound      = errors.New("staff user not found")
	ErrUsernameTaken = errors.New("username already registered")
)

type UserRepository interface {
	Create(ctx context.Context, u *StaffUser) error
	GetByUsername(ctx context.Context, username string) (*StaffUser, error)
}
