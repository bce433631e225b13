package auth

import (
	"context"
	"sync"
	"time"
)

type revocationEntry struct {
	ExpiresAt time.Time
	SessionID string
}

// TokenRevocationStore tracks logged-out session tokens by JTI until they
// would have expired anyway.
type TokenRevocationStore struct {
	mu         sync.RWMutex
	entries    map[string]revocationEntry // JTI -> entry
	now        func() time.Time
	sessionJTI map[string][]string // session id -> JTIs
}

func NewTokenRevocationStore() *TokenRevocationStore {
	return &TokenRevocationStore{
		entries:    make(map[string]revocationEntry),
		sessionJTI: make(map[string][]string),
		now:        time.Now,
	}
}

func (s *TokenRevocationStore) Revoke(jti string, expiresAt time.Time) {
	s.RevokeForSession(jti, "", expiresAt)
}

// RevokeForSession revokes jti and remembers which view session owned it.
func (s *TokenRevocationStore) RevokeForSession(jti, sessionID string, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[jti] = revocationEntry{ExpiresAt: expiresAt, SessionID: sessionID}
	if sessionID != "" {
		s.sessionJTI[sessionID] = append(s.sessionJTI[sessionID], jti)
	}
}

func (s *TokenRevocationStore) IsRevoked(jti string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.entries[jti]
	return ok
}

// Count returns the number of currently revoked tokens.
func (s *TokenRevocationStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Run removes expired entries every interval until ctx is done.
func (s *TokenRevocationStore) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Cleanup()
		}
	}
}

// Cleanup drops entries whose tokens are past expiry.
func (s *TokenRevocationStore) Cleanup() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for jti, entry := range s.entries {
		if !now.After(entry.ExpiresAt) {
			continue
		}
		delete(s.entries, jti)
		removed++

		if entry.SessionID == "" {
			continue
		}
		jtis := s.sessionJTI[entry.SessionID]
		for i, id := range jtis {
			if id == jti {
				s.sessionJTI[entry.SessionID] = append(jtis[:i], jtis[i+1:]...)
				break
			}
		}
		if len(s.sessionJTI[entry.SessionID]) == 0 {
			delete(s.sessionJTI, entry.SessionID)
		}
	}
	return removed
}
