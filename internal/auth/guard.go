package auth

import (
	"sync"
	"time"
)

type attemptState struct {
	failures    int
	lastFailure time.Time
	lockedUntil time.Time
}

// Guard counts failed logins per client address and locks an address out
// once the limit is reached.
type Guard struct {
	mu          sync.Mutex
	entries     map[string]*attemptState
	maxAttempts int
	lockout     time.Duration
	now         func() time.Time
}

func NewGuard(maxAttempts int, lockout time.Duration) *Guard {
	return &Guard{
		entries:     make(map[string]*attemptState),
		maxAttempts: maxAttempts,
		lockout:     lockout,
		now:         time.Now,
	}
}

// WithClock replaces the time source, for tests.
func (g *Guard) WithClock(now func() time.Time) *Guard {
	g.now = now
	return g
}

func (g *Guard) IsLocked(addr string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	st, ok := g.entries[addr]
	if !ok || st.lockedUntil.IsZero() {
		return false
	}
	if g.now().Before(st.lockedUntil) {
		return true
	}
	delete(g.entries, addr)
	return false
}

// RegisterFailure records a failed attempt and reports whether the address
// is now locked.
func (g *Guard) RegisterFailure(addr string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	st, ok := g.entries[addr]
	if !ok || g.expired(st, now) {
		st = &attemptState{}
		g.entries[addr] = st
	}

	st.failures++
	st.lastFailure = now
	if st.failures >= g.maxAttempts {
		st.lockedUntil = now.Add(g.lockout)
	}
	return !st.lockedUntil.IsZero()
}

func (g *Guard) Reset(addr string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.entries, addr)
}

func (g *Guard) Failures(addr string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if st, ok := g.entries[addr]; ok && !g.expired(st, g.now()) {
		return st.failures
	}
	return 0
}

// Sweep drops expired entries and returns how many were removed.
func (g *Guard) Sweep() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	removed := 0
	for addr, st := range g.entries {
		if g.expired(st, now) {
			delete(g.entries, addr)
			removed++
		}
	}
	return removed
}

func (g *Guard) expired(st *attemptState, now time.Time) bool {
	if !st.lockedUntil.IsZero() {
		return !now.Before(st.lockedUntil)
	}
	return now.Sub(st.lastFailure) > g.lockout
}
