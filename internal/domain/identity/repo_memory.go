package identity

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryUserRepo struct {
	mu    sync.RWMutex
	users map[string]*StaffUser // lower-cased username -> user
}

func NewMemoryUserRepo() UserRepository {
	return &memoryUserRepo{users: make(map[string]*StaffUser)}
}

func (r *memoryUserRepo) Create(_ context.Context, u *StaffUser) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(u.Username)
	if _, ok := r.users[key]; ok {
		return ErrUsernameTaken
	}
	u.ID = uuid.New()
	u.CreatedAt = time.Now()
	cp := *u
	r.users[key] = &cp
	return nil
}

func (r *memoryUserRepo) GetByUsername(_ context.Context, username string) (*StaffUser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[strings.ToLower(username)]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}
