package state

import (
	"sync"
	"time"
)

type AppStore = Store[AppState, Action]

type registryEntry struct {
	store    *AppStore
	lastSeen time.Time
}

// Registry keeps one AppStore per session id. Notify, when set, is
// subscribed to every store the registry creates. With a limit set, creating
// a store past it evicts the least recently used one.
type Registry struct {
	mu       sync.Mutex
	stores   map[string]*registryEntry
	language string
	limit    int
	notify   func(sid string, state AppState)
	now      func() time.Time
}

func NewRegistry(defaultLanguage string, notify func(sid string, state AppState)) *Registry {
	return &Registry{
		stores:   make(map[string]*registryEntry),
		language: defaultLanguage,
		notify:   notify,
		now:      time.Now,
	}
}

// SetLimit caps the number of live stores. Zero means no cap.
func (r *Registry) SetLimit(limit int) {
	r.mu.Lock()
	r.limit = limit
	r.mu.Unlock()
}

// Get returns the store for sid, creating it on first use.
func (r *Registry) Get(sid string) *AppStore {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.stores[sid]; ok {
		e.lastSeen = r.now()
		return e.store
	}

	if r.limit > 0 {
		for len(r.stores) >= r.limit {
			r.evictOldestLocked()
		}
	}

	store := NewStore[AppState, Action](InitialState(r.language), Reduce)
	if r.notify != nil {
		store.Subscribe(func(s AppState) { r.notify(sid, s) })
	}
	r.stores[sid] = &registryEntry{store: store, lastSeen: r.now()}
	return store
}

// Lookup returns the store for sid without creating one.
func (r *Registry) Lookup(sid string) (*AppStore, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.stores[sid]
	if !ok {
		return nil, false
	}
	e.lastSeen = r.now()
	return e.store, true
}

// Detached returns a fresh store the registry does not keep, for sessions
// that have no cookie yet.
func (r *Registry) Detached() *AppStore {
	return NewStore[AppState, Action](InitialState(r.language), Reduce)
}

// Dispatch applies action to the session's store.
func (r *Registry) Dispatch(sid string, action Action) AppState {
	return r.Get(sid).Dispatch(action)
}

func (r *Registry) Remove(sid string) {
	r.mu.Lock()
	delete(r.stores, sid)
	r.mu.Unlock()
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stores)
}

// Sweep drops stores not touched for maxIdle and returns how many went.
func (r *Registry) Sweep(maxIdle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-maxIdle)
	removed := 0
	for sid, e := range r.stores {
		if e.lastSeen.Before(cutoff) {
			delete(r.stores, sid)
			removed++
		}
	}
	return removed
}

func (r *Registry) evictOldestLocked() {
	var oldest string
	var oldestSeen time.Time
	for sid, e := range r.stores {
		if oldest == "" || e.lastSeen.Before(oldestSeen) {
			oldest, oldestSeen = sid, e.lastSeen
		}
	}
	delete(r.stores, oldest)
}
