package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultTTL is how long an untouched session is kept.
const DefaultTTL = 2 * time.Hour

// ErrNotFound is returned for unknown or expired session ids.
var ErrNotFound = errors.New("session not found")

type entry struct {
	sess      Session
	expiresAt time.Time
}

// Registry keeps sessions in memory keyed by id. Each access extends the
// session's lifetime by the TTL.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*entry
	ttl      time.Duration
	now      func() time.Time
}

// NewRegistry creates a registry. A non-positive ttl uses DefaultTTL.
func NewRegistry(ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Registry{sessions: make(map[string]*entry), ttl: ttl, now: time.Now}
}

// Create stores a new collecting session and returns its id.
func (r *Registry) Create() (string, Session) {
	id := uuid.NewString()
	s := New()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[id] = &entry{sess: s, expiresAt: r.now().Add(r.ttl)}
	return id, s
}

// lookup returns the live entry for id. Expired entries are dropped.
// Callers hold r.mu.
func (r *Registry) lookup(id string) (*entry, error) {
	e, ok := r.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	now := r.now()
	if now.After(e.expiresAt) {
		delete(r.sessions, id)
		return nil, ErrNotFound
	}
	e.expiresAt = now.Add(r.ttl)
	return e, nil
}

// Get returns the session with the given id.
func (r *Registry) Get(id string) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, err := r.lookup(id)
	if err != nil {
		return Session{}, err
	}
	return e.sess, nil
}

// Update applies fn to the session atomically. The stored session is
// replaced only when fn succeeds; the stored value is returned either way.
func (r *Registry) Update(id string, fn func(Session) (Session, error)) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, err := r.lookup(id)
	if err != nil {
		return Session{}, err
	}
	next, err := fn(e.sess)
	if err != nil {
		return e.sess, err
	}
	e.sess = next
	return next, nil
}

// Delete removes a session.
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Len returns the number of stored sessions, expired ones included.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Cleanup removes all expired sessions and returns how many were removed.
func (r *Registry) Cleanup() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	n := 0
	for id, e := range r.sessions {
		if now.After(e.expiresAt) {
			delete(r.sessions, id)
			n++
		}
	}
	return n
}

// RunCleanup calls Cleanup every interval until ctx is done.
func (r *Registry) RunCleanup(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := r.Cleanup(); n > 0 {
				slog.Debug("expired sessions removed", "count", n)
			}
		}
	}
}
