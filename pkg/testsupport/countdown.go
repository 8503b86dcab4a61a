package testsupport

import (
	"errors"
	"sync"

	pagingcache "github.com/goliatone/go-paging-cache/pagingcache"
)

// ErrScripted is the failure returned by a CountdownLoader set to fail.
var ErrScripted = errors.New("FAIL")

// LoadCall records the window of one LoadRange call.
type LoadCall struct {
	Offset int
	Limit  int
}

type heldLoad struct {
	call     LoadCall
	cb       pagingcache.LoadCallbacks[int]
	canceled bool
}

// CountdownLoader serves a dataset of MaxCount ints where item i is
// MaxCount-i, with Bonus added to item 0. Loads answer synchronously unless
// the loader is held.
type CountdownLoader struct {
	Name     string
	MaxCount int

	mu       sync.Mutex
	bonus    int
	hold     bool
	fail     error
	history  []LoadCall
	held     []*heldLoad
	canceled int
}

// NewCountdownLoader returns a loader over maxCount items with no cache name.
func NewCountdownLoader(maxCount int) *CountdownLoader {
	return &CountdownLoader{MaxCount: maxCount}
}

// CacheName implements pagingcache.RemoteLoader.
func (l *CountdownLoader) CacheName() string {
	return l.Name
}

// LoadRange implements pagingcache.RemoteLoader.
func (l *CountdownLoader) LoadRange(offset, limit int, cb pagingcache.LoadCallbacks[int]) pagingcache.Cancelable {
	l.mu.Lock()
	call := LoadCall{Offset: offset, Limit: limit}
	l.history = append(l.history, call)
	if l.hold {
		h := &heldLoad{call: call, cb: cb}
		l.held = append(l.held, h)
		l.mu.Unlock()
		return pagingcache.CancelFunc(func() {
			l.mu.Lock()
			if !h.canceled {
				h.canceled = true
				l.canceled++
			}
			l.mu.Unlock()
		})
	}
	l.mu.Unlock()

	l.answer(call, cb)
	return nil
}

func (l *CountdownLoader) answer(call LoadCall, cb pagingcache.LoadCallbacks[int]) {
	l.mu.Lock()
	fail := l.fail
	items := l.itemsLocked(call.Offset, call.Limit)
	l.mu.Unlock()

	if fail != nil {
		cb.OnFailure(fail)
		return
	}
	cb.OnSuccess(pagingcache.LoadResponse[int]{Items: items})
}

func (l *CountdownLoader) itemsLocked(offset, limit int) []int {
	items := []int{}
	for i := offset; i < offset+limit && i < l.MaxCount; i++ {
		v := l.MaxCount - i
		if i == 0 {
			v += l.bonus
		}
		items = append(items, v)
	}
	return items
}

// Items returns what a load of [offset, offset+limit) would answer now.
func (l *CountdownLoader) Items(offset, limit int) []int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.itemsLocked(offset, limit)
}

// SetBonus changes the value added to item 0.
func (l *CountdownLoader) SetBonus(n int) {
	l.mu.Lock()
	l.bonus = n
	l.mu.Unlock()
}

// FailWith makes later answers fail with err. Nil restores success.
func (l *CountdownLoader) FailWith(err error) {
	l.mu.Lock()
	l.fail = err
	l.mu.Unlock()
}

// Hold queues later loads until Release or ReleaseNext.
func (l *CountdownLoader) Hold() {
	l.mu.Lock()
	l.hold = true
	l.mu.Unlock()
}

// Release stops holding and answers every queued load in arrival order,
// canceled ones included. It returns the number answered.
func (l *CountdownLoader) Release() int {
	l.mu.Lock()
	l.hold = false
	held := l.held
	l.held = nil
	l.mu.Unlock()

	for _, h := range held {
		l.answer(h.call, h.cb)
	}
	return len(held)
}

// ReleaseNext answers the oldest queued load and keeps holding.
func (l *CountdownLoader) ReleaseNext() bool {
	return l.releaseAt(0)
}

// ReleaseLast answers the newest queued load and keeps holding.
func (l *CountdownLoader) ReleaseLast() bool {
	l.mu.Lock()
	n := len(l.held)
	l.mu.Unlock()
	return l.releaseAt(n - 1)
}

func (l *CountdownLoader) releaseAt(i int) bool {
	l.mu.Lock()
	if i < 0 || i >= len(l.held) {
		l.mu.Unlock()
		return false
	}
	h := l.held[i]
	l.held = append(l.held[:i], l.held[i+1:]...)
	l.mu.Unlock()

	l.answer(h.call, h.cb)
	return true
}

// Held returns the number of queued loads.
func (l *CountdownLoader) Held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.held)
}

// History returns every LoadRange call in order.
func (l *CountdownLoader) History() []LoadCall {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]LoadCall(nil), l.history...)
}

// Loads returns the number of LoadRange calls.
func (l *CountdownLoader) Loads() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.history)
}

// Canceled returns the number of held loads canceled by the engine.
func (l *CountdownLoader) Canceled() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.canceled
}
