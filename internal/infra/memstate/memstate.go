// Package memstate holds the in-process fallbacks used when no Redis is configured.
// State is lost on restart and not shared between processes.
package memstate

import (
	"context"
	"sync"
	"time"

	"telegram-markov-bot/internal/domain/model"
	"telegram-markov-bot/internal/domain/ports/repository"
)

var _ repository.DialogStateRepository = (*StateRepo)(nil)

type stateEntry struct {
	state   model.DialogState
	expires time.Time
}

// StateRepo is a map-backed DialogStateRepository with the same expiry as the Redis one.
type StateRepo struct {
	mu  sync.Mutex
	m   map[model.DialogKey]stateEntry
	ttl time.Duration
	now func() time.Time
}

func NewStateRepo(ttl time.Duration) *StateRepo {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &StateRepo{m: make(map[model.DialogKey]stateEntry), ttl: ttl, now: time.Now}
}

func (r *StateRepo) SetState(_ context.Context, key model.DialogKey, state *model.DialogState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if state == nil || !state.Step.Pending() {
		delete(r.m, key)
		return nil
	}
	r.m[key] = stateEntry{state: *state, expires: r.now().Add(r.ttl)}
	return nil
}

func (r *StateRepo) GetState(_ context.Context, key model.DialogKey) (*model.DialogState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.m[key]
	if !ok {
		return &model.DialogState{}, nil
	}
	if r.now().After(e.expires) {
		delete(r.m, key)
		return &model.DialogState{}, nil
	}
	st := e.state
	return &st, nil
}

func (r *StateRepo) ClearState(_ context.Context, key model.DialogKey) error {
	r.mu.Lock()
	delete(r.m, key)
	r.mu.Unlock()
	return nil
}

// Sweep drops expired dialogs and reports how many were removed.
func (r *StateRepo) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	n := 0
	for k, e := range r.m {
		if now.After(e.expires) {
			delete(r.m, k)
			n++
		}
	}
	return n
}

type window struct {
	count int
	reset time.Time
}

// RateLimiter is a fixed-window counter mirroring the Redis limiter.
type RateLimiter struct {
	mu  sync.Mutex
	m   map[string]*window
	now func() time.Time
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{m: make(map[string]*window), now: time.Now}
}

func (r *RateLimiter) Allow(_ context.Context, key string, limit int, win time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	w, ok := r.m[key]
	if !ok || !now.Before(w.reset) {
		w = &window{reset: now.Add(win)}
		r.m[key] = w
	}
	w.count++
	return w.count <= limit, nil
}

// Sweep drops closed windows so idle users do not accumulate.
func (r *RateLimiter) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	n := 0
	for k, w := range r.m {
		if !now.Before(w.reset) {
			delete(r.m, k)
			n++
		}
	}
	return n
}
