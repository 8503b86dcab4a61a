package pagingcache

import (
	"context"
	"reflect"
	"time"
)

// LoadResponse is a page returned by a RemoteLoader. ResultOffset shifts the
// items relative to the requested offset for segmented replies; ResponseLen,
// when non-zero, is the length the source reports for the whole window.
type LoadResponse[T any] struct {
	Items        []T
	ResultOffset int
	ResponseLen  int
}

// LoadCallbacks receive the outcome of a single LoadRange call. Exactly one
// of them is honored; later calls are ignored.
type LoadCallbacks[T any] struct {
	OnSuccess func(LoadResponse[T])
	OnFailure func(error)
}

// Cancelable is a handle to an in-flight load. Cancel is best effort.
type Cancelable interface {
	Cancel()
}

// CancelFunc adapts a plain function to Cancelable.
type CancelFunc func()

// Cancel calls f.
func (f CancelFunc) Cancel() { f() }

// RemoteLoader supplies remote pages to a Cache.
type RemoteLoader[T any] interface {
	// CacheName identifies the dataset in the snapshot store. An empty name
	// disables bootstrap and persistence.
	CacheName() string

	// LoadRange fetches [offset, offset+limit). It must eventually call one of
	// the callbacks, from any goroutine. The returned handle may be nil.
	LoadRange(offset, limit int, cb LoadCallbacks[T]) Cancelable
}

// CompletionDetector overrides the end-of-data test for a loader.
type CompletionDetector[T any] interface {
	IsComplete(results []T, readLimit, resultOffset, responseLen int) bool
}

// PendingMatcher overrides how pending items are matched against each other
// and against loaded items.
type PendingMatcher[T any] interface {
	PendingItemsEqual(newItem, existing T) bool
}

// ChangeDiffer computes the changeset reported with a refresh.
type ChangeDiffer[T any] interface {
	DiffAgainstPrevious(newItems, oldItems []T) any
}

// BlockingLoader is a synchronous loader. Wrap it with Async to use it as a
// RemoteLoader.
type BlockingLoader[T any] interface {
	CacheName() string
	Load(ctx context.Context, offset, limit int) (LoadResponse[T], error)
}

// AsyncLoader runs a BlockingLoader on its own goroutine per load.
type AsyncLoader[T any] struct {
	inner   BlockingLoader[T]
	timeout time.Duration
}

// Async adapts a BlockingLoader to RemoteLoader. Canceling the returned
// handle cancels the load's context.
func Async[T any](inner BlockingLoader[T]) *AsyncLoader[T] {
	return &AsyncLoader[T]{inner: inner}
}

// WithTimeout bounds each load with a deadline. Zero disables it.
func (a *AsyncLoader[T]) WithTimeout(d time.Duration) *AsyncLoader[T] {
	a.timeout = d
	return a
}

// Unwrap returns the wrapped loader.
func (a *AsyncLoader[T]) Unwrap() BlockingLoader[T] {
	return a.inner
}

func (a *AsyncLoader[T]) CacheName() string {
	return a.inner.CacheName()
}

func (a *AsyncLoader[T]) LoadRange(offset, limit int, cb LoadCallbacks[T]) Cancelable {
	ctx, cancel := context.WithCancel(context.Background())
	if a.timeout > 0 {
		var stop context.CancelFunc
		ctx, stop = context.WithTimeout(ctx, a.timeout)
		parent := cancel
		cancel = func() { stop(); parent() }
	}
	go func() {
		defer cancel()
		resp, err := a.inner.Load(ctx, offset, limit)
		if err != nil {
			cb.OnFailure(err)
			return
		}
		cb.OnSuccess(resp)
	}()
	return CancelFunc(cancel)
}

// hooks are the loader overrides resolved once at construction.
type hooks[T any] struct {
	isComplete func(results []T, readLimit, resultOffset, responseLen int) bool
	equal      func(newItem, existing T) bool
	diff       func(newItems, oldItems []T) any
}

func resolveHooks[T any](loader RemoteLoader[T]) hooks[T] {
	h := hooks[T]{
		isComplete: defaultIsComplete[T],
		equal:      defaultPendingEqual[T],
		diff:       func([]T, []T) any { return nil },
	}
	var layers []any
	if u, ok := loader.(interface{ Unwrap() BlockingLoader[T] }); ok {
		layers = append(layers, u.Unwrap())
	}
	// the outer loader wins over the wrapped one
	layers = append(layers, loader)
	for _, l := range layers {
		if d, ok := l.(CompletionDetector[T]); ok {
			h.isComplete = d.IsComplete
		}
		if m, ok := l.(PendingMatcher[T]); ok {
			h.equal = m.PendingItemsEqual
		}
		if d, ok := l.(ChangeDiffer[T]); ok {
			h.diff = d.DiffAgainstPrevious
		}
	}
	return h
}

// defaultIsComplete treats a short page as the end of the data. A reported
// ResponseLen takes precedence over the number of items returned.
func defaultIsComplete[T any](results []T, readLimit, _ int, responseLen int) bool {
	n := responseLen
	if n == 0 {
		n = len(results)
	}
	return n < readLimit
}

func defaultPendingEqual[T any](newItem, existing T) bool {
	a, b := any(newItem), any(existing)
	if a == nil || b == nil {
		return a == b
	}
	if reflect.ValueOf(a).Comparable() && reflect.ValueOf(b).Comparable() {
		return a == b
	}
	return reflect.DeepEqual(a, b)
}
