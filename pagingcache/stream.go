package pagingcache

import (
	"context"
	"sync"
)

// RangeStream collects the partial results of one range request. Results are
// retained, so a stream can be read again after Rewind.
type RangeStream[T any] struct {
	mu      sync.Mutex
	results []RangeResult[T]
	next    int
	done    bool
	err     error
	changed chan struct{}
	stop    func() bool
}

func newRangeStream[T any]() *RangeStream[T] {
	return &RangeStream[T]{changed: make(chan struct{})}
}

// Range issues GetRange and exposes its deliveries as a stream. The stream
// ends with ctx.Err() if ctx is done before the request terminates.
func (c *Cache[T]) Range(ctx context.Context, offset, limit int) (*RangeStream[T], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := newRangeStream[T]()
	if err := c.GetRange(offset, limit, s.callbacks()); err != nil {
		return nil, err
	}
	s.mu.Lock()
	if !s.done {
		s.stop = context.AfterFunc(ctx, func() { s.finish(ctx.Err()) })
	}
	s.mu.Unlock()
	return s, nil
}

func (s *RangeStream[T]) callbacks() RangeCallbacks[T] {
	return RangeCallbacks[T]{
		OnSuccess: s.push,
		OnFailure: s.finish,
		OnDone:    func() { s.finish(nil) },
	}
}

func (s *RangeStream[T]) push(r RangeResult[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return
	}
	s.results = append(s.results, r)
	s.wakeLocked()
}

func (s *RangeStream[T]) finish(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return
	}
	s.done = true
	s.err = err
	if s.stop != nil {
		s.stop()
	}
	s.wakeLocked()
}

func (s *RangeStream[T]) wakeLocked() {
	close(s.changed)
	s.changed = make(chan struct{})
}

// Next blocks until the next result is available. It returns false once the
// stream has ended and every result was read, or when ctx is done.
func (s *RangeStream[T]) Next(ctx context.Context) (RangeResult[T], bool) {
	for {
		s.mu.Lock()
		if s.next < len(s.results) {
			r := s.results[s.next]
			s.next++
			s.mu.Unlock()
			return r, true
		}
		if s.done {
			s.mu.Unlock()
			return RangeResult[T]{}, false
		}
		ch := s.changed
		s.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return RangeResult[T]{}, false
		}
	}
}

// Wait blocks until the stream ends and returns its last result.
func (s *RangeStream[T]) Wait(ctx context.Context) (RangeResult[T], error) {
	for {
		s.mu.Lock()
		if s.done {
			last, _ := s.lastLocked()
			err := s.err
			s.mu.Unlock()
			return last, err
		}
		ch := s.changed
		s.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return RangeResult[T]{}, ctx.Err()
		}
	}
}

// Err returns the terminal failure, if any.
func (s *RangeStream[T]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Done reports whether the stream has ended.
func (s *RangeStream[T]) Done() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// Last returns the most recent result.
func (s *RangeStream[T]) Last() (RangeResult[T], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastLocked()
}

func (s *RangeStream[T]) lastLocked() (RangeResult[T], bool) {
	if len(s.results) == 0 {
		return RangeResult[T]{}, false
	}
	return s.results[len(s.results)-1], true
}

// Results returns a copy of every result received so far.
func (s *RangeStream[T]) Results() []RangeResult[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RangeResult[T](nil), s.results...)
}

// Rewind restarts Next from the first result.
func (s *RangeStream[T]) Rewind() {
	s.mu.Lock()
	s.next = 0
	s.mu.Unlock()
}
