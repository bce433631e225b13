package care

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func TestRegistry_OpenGetClose(t *testing.T) {
	r := NewRegistry(newFakeWard(), time.Hour, zerolog.Nop())
	s := r.Open()
	if s.State() != Initial() {
		t.Fatalf("new session must start logged out, got %+v", s.State())
	}
	got, ok := r.Get(s.ID)
	if !ok || got != s {
		t.Fatal("expected to find the opened session")
	}
	if r.Len() != 1 {
		t.Errorf("expected 1 session, got %d", r.Len())
	}
	r.Close(s.ID)
	if _, ok := r.Get(s.ID); ok {
		t.Error("expected session to be closed")
	}
}

func TestRegistry_Sweep(t *testing.T) {
	clock := &fakeClock{t: testNow}
	r := NewRegistry(newFakeWard(), 30*time.Minute, zerolog.Nop())
	r.SetClock(clock.now)

	idle := r.Open()
	active := r.Open()

	clock.t = clock.t.Add(20 * time.Minute)
	r.Get(active.ID)

	clock.t = clock.t.Add(15 * time.Minute)
	if n := r.Sweep(); n != 1 {
		t.Fatalf("expected 1 expired session, got %d", n)
	}
	if _, ok := r.Get(idle.ID); ok {
		t.Error("idle session should have expired")
	}
	if _, ok := r.Get(active.ID); !ok {
		t.Error("recently used session should survive")
	}
}

func TestRegistry_SweepDisabled(t *testing.T) {
	clock := &fakeClock{t: testNow}
	r := NewRegistry(newFakeWard(), 0, zerolog.Nop())
	r.SetClock(clock.now)
	r.Open()
	clock.t = clock.t.Add(48 * time.Hour)
	if n := r.Sweep(); n != 0 || r.Len() != 1 {
		t.Errorf("expected no expiry with zero ttl, got %d removed", n)
	}
}
