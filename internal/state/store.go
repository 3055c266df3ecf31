package state

import "sync"

// Reducer computes the next state. It must not perform I/O.
type Reducer[S, A any] func(state S, action A) S

// Store holds one state value and serializes dispatches against it.
type Store[S, A any] struct {
	mu        sync.RWMutex
	state     S
	reduce    Reducer[S, A]
	listeners map[int]func(S)
	nextID    int
}

func NewStore[S, A any](initial S, reduce Reducer[S, A]) *Store[S, A] {
	return &Store[S, A]{
		state:     initial,
		reduce:    reduce,
		listeners: make(map[int]func(S)),
	}
}

// Dispatch applies action and notifies subscribers with the new state.
// Listeners run after the lock is released, so they may read the store.
func (s *Store[S, A]) Dispatch(action A) S {
	s.mu.Lock()
	s.state = s.reduce(s.state, action)
	next := s.state
	listeners := make([]func(S), 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(next)
	}
	return next
}

func (s *Store[S, A]) State() S {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Subscribe registers listener and returns a func removing it.
func (s *Store[S, A]) Subscribe(listener func(S)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = listener
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}
