package care

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Registry owns the live view sessions and expires idle ones.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	data   DataAccess
	ttl    time.Duration
	now    func() time.Time
	logger zerolog.Logger
}

func NewRegistry(data DataAccess, ttl time.Duration, logger zerolog.Logger) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		data:     data,
		ttl:      ttl,
		now:      time.Now,
		logger:   logger,
	}
}

// SetClock replaces the time source for new sessions and expiry.
func (r *Registry) SetClock(now func() time.Time) {
	r.now = now
}

// Open starts a logged-out session.
func (r *Registry) Open() *Session {
	s := newSession(uuid.NewString(), r.data, r.now, r.logger)

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	return s
}

// Get returns a session and marks it as used.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if ok {
		s.touch()
	}
	return s, ok
}

func (r *Registry) Close(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep removes sessions idle for longer than the TTL and returns how many
// were dropped.
func (r *Registry) Sweep() int {
	if r.ttl <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.ttl)

	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, s := range r.sessions {
		if s.idleSince().Before(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

// Run sweeps every interval until ctx is cancelled.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.logger.Debug().Int("expired", n).Msg("view sessions expired")
			}
		}
	}
}
