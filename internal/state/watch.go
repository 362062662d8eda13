package state

import (
	"reflect"
	"sync"
)

// Watch calls fn with the selected projection each time it differs from the
// previously observed one. The projection at registration time is the
// baseline and is not reported. A nil equal falls back to reflect.DeepEqual.
func Watch[S, T any](s *Store[S], selector func(S) T, equal func(a, b T) bool, fn func(T)) (unsubscribe func()) {
	if equal == nil {
		equal = func(a, b T) bool { return reflect.DeepEqual(a, b) }
	}
	var mu sync.Mutex
	last := selector(s.State())
	return s.Subscribe(func(next S) {
		selected := selector(next)
		mu.Lock()
		if equal(last, selected) {
			mu.Unlock()
			return
		}
		last = selected
		mu.Unlock()
		fn(selected)
	})
}

// Equal is an equality function for comparable projections.
func Equal[T comparable](a, b T) bool { return a == b }
