package store

import (
	"sync"
)

// Listener is called after each dispatched action with the state before and
// after it, together with the revision the new state was published under.
// Listeners run on the dispatching goroutine and must not call Dispatch.
type Listener func(prev, next State, rev uint64, a Action)

// Store is the observable container around Reduce. Dispatches are
// serialized; readers never block on listeners.
type Store struct {
	dispatchMu sync.Mutex

	mu        sync.RWMutex
	state     State
	rev       uint64
	listeners []subscription
	nextSub   int
}

type subscription struct {
	id int
	fn Listener
}

// New returns a store seeded with initial.
func New(initial State) *Store {
	return &Store{state: initial.normalized()}
}

// State returns the current state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Revision counts dispatched actions since the store was created.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rev
}

// Dispatch reduces a into the current state, notifies subscribers in
// subscription order and returns the new state.
func (s *Store) Dispatch(a Action) State {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	s.mu.Lock()
	prev := s.state
	next := Reduce(prev, a)
	s.state = next
	s.rev++
	rev := s.rev
	listeners := make([]subscription, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, sub := range listeners {
		sub.fn(prev, next, rev, a)
	}
	return next
}

// Subscribe registers fn and returns a function that removes it.
func (s *Store) Subscribe(fn Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.listeners = append(s.listeners, subscription{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, sub := range s.listeners {
				if sub.id == id {
					s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
					return
				}
			}
		})
	}
}
