// Package signal implements observer registration with fire-and-forget notification.
package signal

import (
	"sort"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"
)

// Signal fans a payload out to every registered observer. It is safe for
// concurrent use; observers are called in registration order on the
// goroutine calling Notify.
type Signal[P any] struct {
	nextID    atomic.Uint64
	observers *xsync.MapOf[uint64, func(P)]
}

// New returns a signal with no observers.
func New[P any]() *Signal[P] {
	return &Signal[P]{observers: xsync.NewMapOf[uint64, func(P)]()}
}

// Observe registers fn and returns a function that removes it again.
func (s *Signal[P]) Observe(fn func(P)) (cancel func()) {
	if fn == nil {
		return func() {}
	}
	id := s.nextID.Add(1)
	s.observers.Store(id, fn)

	var once atomic.Bool
	return func() {
		if once.CompareAndSwap(false, true) {
			s.observers.Delete(id)
		}
	}
}

// Len returns the number of registered observers.
func (s *Signal[P]) Len() int {
	return s.observers.Size()
}

// Notify delivers payload to the observers registered at the time of the call.
func (s *Signal[P]) Notify(payload P) {
	type entry struct {
		id uint64
		fn func(P)
	}

	var entries []entry
	s.observers.Range(func(id uint64, fn func(P)) bool {
		entries = append(entries, entry{id: id, fn: fn})
		return true
	})
	if len(entries) == 0 {
		return
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].id < entries[j].id })

	for _, e := range entries {
		e.fn(payload)
	}
}
