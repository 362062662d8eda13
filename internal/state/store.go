// Package state holds the dashboard's process-wide state container: one state
// tree, one dispatch entry point, and subscriptions notified in reduction
// order.
package state

import (
	"sync"
	"sync/atomic"
)

// Action is anything a reducer can react to.
type Action interface {
	ActionType() string
}

// Reducer computes the next state. It must not retain or mutate the previous
// state's slices or maps.
type Reducer[S any] func(state S, action Action) S

// DispatchFunc delivers an action to the next stage of the chain.
type DispatchFunc func(action Action)

// Middleware wraps the dispatch chain. getState returns the state as of the
// call.
type Middleware[S any] func(getState func() S, next DispatchFunc) DispatchFunc

// Dispatcher is the capability slices need: dispatching actions and drawing
// request ids for async operations.
type Dispatcher interface {
	Dispatch(action Action)
	NextRequestID() uint64
}

// Option configures a Store.
type Option[S any] func(*Store[S])

// WithMiddleware appends middleware; the first one given sees actions first.
func WithMiddleware[S any](mw ...Middleware[S]) Option[S] {
	return func(s *Store[S]) { s.middleware = append(s.middleware, mw...) }
}

type subscription[S any] struct {
	id     uint64
	fn     func(S)
	active atomic.Bool
}

// Store serializes every reduction behind a single lock and delivers state
// snapshots to subscribers strictly in the order the reductions happened.
type Store[S any] struct {
	mu        sync.Mutex
	state     S
	reducer   Reducer[S]
	subs      []*subscription[S]
	nextSubID uint64
	pending   []S
	draining  bool

	middleware []Middleware[S]
	dispatch   DispatchFunc
	requestSeq atomic.Uint64
}

// New builds a store around reducer, starting from initial.
func New[S any](reducer Reducer[S], initial S, opts ...Option[S]) *Store[S] {
	s := &Store[S]{
		state:   initial,
		reducer: reducer,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	dispatch := DispatchFunc(s.reduce)
	for i := len(s.middleware) - 1; i >= 0; i-- {
		if s.middleware[i] != nil {
			dispatch = s.middleware[i](s.State, dispatch)
		}
	}
	s.dispatch = dispatch
	return s
}

// Dispatch runs action through the middleware chain and the reducer.
func (s *Store[S]) Dispatch(action Action) {
	if action == nil {
		return
	}
	s.dispatch(action)
}

// State returns the current state.
func (s *Store[S]) State() S {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// NextRequestID issues a store-unique, monotonically increasing id.
func (s *Store[S]) NextRequestID() uint64 {
	return s.requestSeq.Add(1)
}

// Subscribe registers fn for every state change and returns a function that
// removes it. fn may dispatch; the nested change is delivered after fn returns.
func (s *Store[S]) Subscribe(fn func(S)) (unsubscribe func()) {
	s.mu.Lock()
	s.nextSubID++
	sub := &subscription[S]{id: s.nextSubID, fn: fn}
	sub.active.Store(true)
	s.subs = append(s.subs, sub)
	s.mu.Unlock()

	return func() {
		if !sub.active.CompareAndSwap(true, false) {
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		kept := make([]*subscription[S], 0, len(s.subs))
		for _, existing := range s.subs {
			if existing.id != sub.id {
				kept = append(kept, existing)
			}
		}
		s.subs = kept
	}
}

func (s *Store[S]) reduce(action Action) {
	s.mu.Lock()
	s.state = s.reducer(s.state, action)
	s.pending = append(s.pending, s.state)
	if s.draining {
		s.mu.Unlock()
		return
	}
	s.draining = true
	for len(s.pending) > 0 {
		next := s.pending[0]
		s.pending = s.pending[1:]
		subs := s.subs
		s.mu.Unlock()
		for _, sub := range subs {
			if sub.active.Load() {
				sub.fn(next)
			}
		}
		s.mu.Lock()
	}
	s.pending = nil
	s.draining = false
	s.mu.Unlock()
}

// Select returns a getter for one projection of the store, typically a slice.
func Select[S, T any](s *Store[S], selector func(S) T) func() T {
	return func() T { return selector(s.State()) }
}
