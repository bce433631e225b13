package identity

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

type userRepoPG struct {
	pool *pgxpool.Pool
}

func NewUserRepoPG(pool *pgxpool.Pool) UserRepository {
	return &userRepoPG{pool: pool}
}

func (r *userRepoPG) Create(ctx context.Context, u *StaffUser) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO staff_user (name, username, email, password_hash, role)
		VALUES ($1, lower($2), $3, $4, $5)
		RETURNING id, created_at`,
		u.Name, u.Username, u.Email, u.PasswordHash, u.Role,
	).Scan(&u.ID, &u.CreatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrUsernameTaken
	}
	return err
}

func (r *userRepoPG) GetByUsername(ctx context.Context, username string) (*StaffUser, error) {
	var u StaffUser
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, username, email, password_hash, role, created_at
		FROM staff_user WHERE username = lower($1)`, username,
	).Scan(&u.ID, &u.Name, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
