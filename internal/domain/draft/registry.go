package draft

import (
	"sort"
	"sync"

	"github.com/ckwame-jpg/fantasy-tool/pkg/metrics"
)

// Factory builds a new session for a draft id.
type Factory func(draftID string) *Session

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithCapacity bounds the number of sessions; past it the least recently used one is evicted.
// Zero keeps every session.
func WithCapacity(n int) RegistryOption {
	return func(r *Registry) {
		if n > 0 {
			r.capacity = n
		}
	}
}

// WithPinned exempts the sessions keep reports true for from eviction.
func WithPinned(keep func(draftID string) bool) RegistryOption {
	return func(r *Registry) { r.pinned = keep }
}

// WithEvictHook is called with every evicted draft id, outside the registry lock.
func WithEvictHook(fn func(draftID string)) RegistryOption {
	return func(r *Registry) { r.onEvict = fn }
}

// Registry holds one Session per draft id.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	used     map[string]uint64
	tick     uint64
	factory  Factory

	capacity int
	pinned   func(draftID string) bool
	onEvict  func(draftID string)
}

// NewRegistry creates an empty registry.
func NewRegistry(factory Factory, opts ...RegistryOption) *Registry {
	r := &Registry{
		sessions: make(map[string]*Session),
		used:     make(map[string]uint64),
		factory:  factory,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Session returns the session for draftID, creating it on first use. created is true for a new session.
func (r *Registry) Session(draftID string) (s *Session, created bool) {
	r.mu.Lock()
	if s, ok := r.sessions[draftID]; ok {
		r.touchLocked(draftID)
		r.mu.Unlock()
		return s, false
	}
	s = r.factory(draftID)
	r.sessions[draftID] = s
	r.touchLocked(draftID)
	evicted := r.evictLocked(draftID)
	metrics.UpdateDraftSessions(len(r.sessions))
	r.mu.Unlock()

	for _, id := range evicted {
		metrics.DeleteDraftedPlayers(id)
		if r.onEvict != nil {
			r.onEvict(id)
		}
	}
	return s, true
}

func (r *Registry) touchLocked(draftID string) {
	r.tick++
	r.used[draftID] = r.tick
}

// evictLocked drops least recently used sessions until the registry fits its capacity.
// keep and pinned sessions are never dropped, so the registry may stay over capacity.
func (r *Registry) evictLocked(keep string) []string {
	if r.capacity == 0 {
		return nil
	}
	var evicted []string
	for len(r.sessions) > r.capacity {
		victim, oldest := "", uint64(0)
		for id := range r.sessions {
			if id == keep || (r.pinned != nil && r.pinned(id)) {
				continue
			}
			if victim == "" || r.used[id] < oldest {
				victim, oldest = id, r.used[id]
			}
		}
		if victim == "" {
			break
		}
		delete(r.sessions, victim)
		delete(r.used, victim)
		evicted = append(evicted, victim)
	}
	return evicted
}

// Lookup returns an existing session.
func (r *Registry) Lookup(draftID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[draftID]
	if ok {
		r.touchLocked(draftID)
	}
	return s, ok
}

// IDs lists known draft ids in sorted order.
func (r *Registry) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
