package session

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/matzehuels/lovecontract/pkg/errors"
)

// DefaultIdleTTL is how long an untouched session survives.
const DefaultIdleTTL = 30 * time.Minute

// DefaultMaxSessions bounds the number of live sessions.
const DefaultMaxSessions = 1000

// Factory builds and loads a coordinator for a new session.
type Factory func(ctx context.Context) (*Coordinator, error)

type entry struct {
	coord    *Coordinator
	lastSeen time.Time
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithMaxSessions bounds the number of live sessions. A non-positive n
// uses DefaultMaxSessions.
func WithMaxSessions(n int) RegistryOption {
	return func(r *Registry) {
		if n > 0 {
			r.max = n
		}
	}
}

// Registry maps session IDs to coordinators.
type Registry struct {
	factory Factory
	ttl     time.Duration
	max     int
	clock   clock.Clock

	mu       sync.Mutex
	sessions map[string]*entry
}

// NewRegistry returns an empty registry. A non-positive ttl uses
// DefaultIdleTTL; a nil clock uses wall time.
func NewRegistry(factory Factory, ttl time.Duration, c clock.Clock, opts ...RegistryOption) *Registry {
	if ttl <= 0 {
		ttl = DefaultIdleTTL
	}
	if c == nil {
		c = clock.New()
	}
	r := &Registry{factory: factory, ttl: ttl, max: DefaultMaxSessions, clock: c, sessions: make(map[string]*entry)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create starts a new session and returns its ID. When the registry is full
// idle sessions are evicted first; if it is still full Create fails with
// TOO_MANY_SESSIONS and live sessions are left alone.
func (r *Registry) Create(ctx context.Context) (string, *Coordinator, error) {
	if r.full() {
		r.Evict()
		if r.full() {
			return "", nil, r.errFull()
		}
	}

	coord, err := r.factory(ctx)
	if err != nil {
		return "", nil, err
	}
	id := uuid.NewString()

	r.mu.Lock()
	if len(r.sessions) >= r.max {
		r.mu.Unlock()
		_ = coord.Close()
		return "", nil, r.errFull()
	}
	r.sessions[id] = &entry{coord: coord, lastSeen: r.clock.Now()}
	r.mu.Unlock()
	return id, coord, nil
}

func (r *Registry) full() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions) >= r.max
}

func (r *Registry) errFull() error {
	return errors.New(errors.ErrCodeTooManySessions, "too many signing sessions (limit %d), try again later", r.max)
}

// Get returns the session and marks it as used.
func (r *Registry) Get(id string) (*Coordinator, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, errors.New(errors.ErrCodeSessionNotFound, "malformed session id")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeSessionNotFound, "session %s not found", id)
	}
	e.lastSeen = r.clock.Now()
	return e.coord, nil
}

// GetOrCreate returns the session for id, or a new one when id is unknown.
// The returned ID is the one to hand back to the client.
func (r *Registry) GetOrCreate(ctx context.Context, id string) (string, *Coordinator, error) {
	if id != "" {
		if coord, err := r.Get(id); err == nil {
			return id, coord, nil
		}
	}
	return r.Create(ctx)
}

// Remove closes and forgets a session.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	e, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if ok {
		_ = e.coord.Close()
	}
	return ok
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Evict closes sessions idle for longer than the TTL and returns how many
// were removed.
func (r *Registry) Evict() int {
	cutoff := r.clock.Now().Add(-r.ttl)

	r.mu.Lock()
	var stale []*Coordinator
	for id, e := range r.sessions {
		if e.lastSeen.Before(cutoff) {
			stale = append(stale, e.coord)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, coord := range stale {
		_ = coord.Close()
	}
	return len(stale)
}

// Run evicts idle sessions every interval until ctx is done, then closes
// every remaining session.
func (r *Registry) Run(ctx context.Context, interval time.Duration) error {
	ticker := r.clock.Ticker(interval)
	defer ticker.Stop()
	defer r.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.Evict()
		}
	}
}

// Close closes every session.
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*entry)
	r.mu.Unlock()

	for _, e := range sessions {
		_ = e.coord.Close()
	}
}
