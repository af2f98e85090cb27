// Package ratelimit counts served commands per user inside a fixed-length
// window that restarts at the user's last served command.
package ratelimit

import (
	"sync"
	"time"

	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/pkg/errors"
)

type Config struct {
	Limit  int
	Window time.Duration
	// EvictAfter drops a user's record once it is this many windows old.
	// Zero keeps records for the life of the process.
	EvictAfter int
}

type userState struct {
	count       int
	windowStart time.Time
}

type Limiter struct {
	mu    sync.Mutex
	cfg   Config
	users map[discord.UserID]*userState
}

func New(cfg Config) (*Limiter, error) {
	if cfg.Limit <= 0 {
		return nil, errors.Errorf("rate limit must be positive, got %d", cfg.Limit)
	}
	if cfg.Window <= 0 {
		return nil, errors.Errorf("rate limit window must be positive, got %s", cfg.Window)
	}
	if cfg.EvictAfter < 0 {
		return nil, errors.Errorf("evict-after must not be negative, got %d", cfg.EvictAfter)
	}
	return &Limiter{
		cfg:   cfg,
		users: make(map[discord.UserID]*userState),
	}, nil
}

// TryConsume reports whether user may be served at now. Staff always may and
// their calls leave the record untouched. It does not count the attempt; see
// RecordConsumption.
func (l *Limiter) TryConsume(user discord.UserID, isStaff bool, now time.Time) bool {
	if isStaff {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	st := l.state(user, now)
	if now.Sub(st.windowStart) >= l.cfg.Window {
		st.count = 0
	}
	return st.count < l.cfg.Limit
}

// RecordConsumption counts one served command and restarts the window at now.
// Call it only for matched commands of non-staff users.
func (l *Limiter) RecordConsumption(user discord.UserID, now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	st := l.state(user, now)
	if now.Sub(st.windowStart) >= l.cfg.Window {
		st.count = 0
	}
	st.count++
	st.windowStart = now
}

// Count returns the stored count for user, 0 if unknown.
func (l *Limiter) Count(user discord.UserID) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	if st, ok := l.users[user]; ok {
		return st.count
	}
	return 0
}

// Len returns the number of users being tracked.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.users)
}

// Prune forgets users whose window started EvictAfter or more windows before
// now and returns how many were dropped. Such records would roll over on the
// next attempt anyway, so dropping them changes no decision.
func (l *Limiter) Prune(now time.Time) int {
	if l.cfg.EvictAfter == 0 {
		return 0
	}
	maxAge := time.Duration(l.cfg.EvictAfter) * l.cfg.Window

	l.mu.Lock()
	defer l.mu.Unlock()

	var n int
	for id, st := range l.users {
		if now.Sub(st.windowStart) >= maxAge {
			delete(l.users, id)
			n++
		}
	}
	return n
}

// state must be called with mu held.
func (l *Limiter) state(user discord.UserID, now time.Time) *userState {
	st, ok := l.users[user]
	if !ok {
		st = &userState{windowStart: now}
		l.users[user] = st
	}
	return st
}
