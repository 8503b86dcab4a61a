package pagingcache

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/goliatone/go-paging-cache/internal/gate"
	"github.com/goliatone/go-paging-cache/internal/runloop"
	"github.com/goliatone/go-paging-cache/internal/signal"
)

// RangeResult is one delivery for a range request. Results may be shorter
// than Limit asked for; Limit here is the number of items returned.
type RangeResult[T any] struct {
	Offset  int
	Limit   int
	Results []T
}

// RangeCallbacks receive the deliveries of a range request. OnSuccess can fire
// several times as data arrives. OnDone and OnFailure are terminal and
// mutually exclusive. Nil callbacks are skipped.
type RangeCallbacks[T any] struct {
	OnSuccess func(RangeResult[T])
	OnFailure func(error)
	OnDone    func()
}

// RefreshResult is delivered to every caller waiting on a refresh.
type RefreshResult[T any] struct {
	Results []T
	Changed any
	Limit   int
}

// RefreshCallbacks receive the outcome of a refresh.
type RefreshCallbacks[T any] struct {
	OnSuccess func(RefreshResult[T])
	OnFailure func(error)
}

// LengthChange is published whenever the known size may have changed.
type LengthChange struct {
	KnownSize int
}

// ItemUpdate is published by NotifyUpdatedItem.
type ItemUpdate struct {
	Index int
}

// chunk is a load response waiting for the gap before it to be filled.
type chunk[T any] struct {
	start    int
	items    []T
	complete bool
}

// Cache pages an ordered remote dataset into memory. It satisfies range
// requests from head pending items, loaded items and tail pending items,
// coalesces remote reads with a lookahead window and discards responses
// issued before the latest Cancel or Refresh.
//
// All methods are safe for concurrent use. Callbacks run on the scheduler,
// one at a time, never inside the call that triggered them.
type Cache[T any] struct {
	loader RemoteLoader[T]
	hooks  hooks[T]
	name   string
	cfg    Config
	log    *slog.Logger
	sched  Scheduler
	owned  *runloop.Loop

	lengths *signal.Signal[LengthChange]
	updates *signal.Signal[ItemUpdate]
	saver   *debouncer

	mu                sync.Mutex
	cache             []T
	parked            []chunk[T]
	hole              int
	pending           pendingLists[T]
	blocked           blockedQueue[T]
	seq               sequenceGuard
	inflight          *registry
	gate              *gate.Gate
	requestUpperBound int
	initialPageSize   int
	remoteLoaded      bool
	savedCache        bool
	complete          bool
	closed            bool
}

// New builds a cache over loader.
func New[T any](loader RemoteLoader[T], cfg Config) (*Cache[T], error) {
	if loader == nil {
		return nil, ErrNilLoader
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	c := &Cache[T]{
		loader:          loader,
		hooks:           resolveHooks(loader),
		name:            loader.CacheName(),
		cfg:             cfg,
		sched:           cfg.Scheduler,
		lengths:         signal.New[LengthChange](),
		updates:         signal.New[ItemUpdate](),
		inflight:        newRegistry(),
		gate:            gate.New(),
		initialPageSize: cfg.InitialPageSize,
		hole:            -1,
	}
	c.pending.equal = c.hooks.equal
	c.log = cfg.Logger.With("component", "pagingcache", "dataset", c.name)
	if c.sched == nil {
		c.owned = runloop.NewLoop()
		c.sched = c.owned
	}
	c.saver = newDebouncer(cfg.CacheSaveDelay, c.persistSnapshot)
	return c, nil
}

// GetRange requests [offset, offset+limit). Invalid windows are rejected
// with a *RangeError before any callback is scheduled.
func (c *Cache[T]) GetRange(offset, limit int, cb RangeCallbacks[T]) error {
	if offset < 0 {
		return &RangeError{Offset: offset, Limit: limit, Err: ErrInvalidOffset}
	}
	if limit < 0 {
		return &RangeError{Offset: offset, Limit: limit, Err: ErrInvalidLimit}
	}
	if c.isClosed() {
		return ErrClosed
	}

	c.sched.Post(func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.closed {
			c.fail(cb, &RangeError{Offset: offset, Limit: limit, Err: ErrClosed})
			return
		}
		c.gate.Queue(gate.Op{
			OnSuccess: func(any) { c.getRange(offset, limit, cb) },
			OnFailure: func(err error) {
				c.fail(cb, &RangeError{Offset: offset, Limit: limit, Err: err})
			},
		})
	})
	return nil
}

// getRange serves a request admitted through the gate. Called with mu held.
func (c *Cache[T]) getRange(offset, limit int, cb RangeCallbacks[T]) {
	ex := c.extract(offset, limit)
	if c.complete || len(ex.available) > 0 {
		c.deliver(cb, offset, ex.available)
	}
	if c.complete {
		c.done(cb)
		return
	}
	if ex.remainingLimit > 0 {
		c.blocked.push(&blockedRequest[T]{offset: ex.remainingOffset, limit: ex.remainingLimit, cb: cb})
		c.cfg.Metrics.BlockedRequests(c.blocked.len())
	} else {
		c.done(cb)
	}

	lookahead := c.cfg.Lookahead
	if offset+limit+lookahead <= c.requestUpperBound {
		c.log.Debug("range coalesced", "offset", offset, "limit", limit, "upper_bound", c.requestUpperBound)
		return
	}

	readOffset := c.requestUpperBound
	readLimit := limit
	// remote reads are addressed without the head pending items
	if rel := ex.remainingOffset - len(c.pending.head); rel > readOffset {
		readLimit = rel + limit - readOffset
	}
	readLimit += lookahead
	if readLimit <= 0 {
		return
	}

	if offset == 0 && c.name != "" && !c.remoteLoaded && c.cfg.Store != nil {
		c.bootstrap()
	}
	c.requestUpperBound = readOffset + readLimit
	c.issueLoad(readOffset, readLimit,
		func(resp LoadResponse[T]) { c.applyLoad(readOffset, readLimit, resp) },
		func(err error) { c.failLoad(readOffset, readLimit, err) },
	)
}

// issueLoad posts the loader call for a window stamped with the current
// sequence. Responses run as their own tasks with mu held and are dropped
// when the sequence has moved on. Called with mu held.
func (c *Cache[T]) issueLoad(readOffset, readLimit int, onSuccess func(LoadResponse[T]), onFailure func(error)) {
	seq := c.seq.current()
	id := c.inflight.reserve(readOffset, readLimit)
	c.cfg.Metrics.LoadIssued(readLimit)
	c.log.Debug("load issued", "read_offset", readOffset, "read_limit", readLimit, "sequence", seq)

	settle := func(apply func()) {
		c.sched.Post(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			c.inflight.release(id)
			if !c.seq.valid(seq) || c.closed {
				c.cfg.Metrics.StaleDropped()
				c.log.Debug("stale response dropped", "read_offset", readOffset, "sequence", seq)
				return
			}
			apply()
		})
	}

	var once sync.Once
	callbacks := LoadCallbacks[T]{
		OnSuccess: func(resp LoadResponse[T]) {
			once.Do(func() { settle(func() { onSuccess(resp) }) })
		},
		OnFailure: func(err error) {
			once.Do(func() { settle(func() { onFailure(err) }) })
		},
	}

	c.sched.Post(func() {
		if !c.isCurrent(seq) {
			return
		}
		h := c.loader.LoadRange(readOffset, readLimit, callbacks)
		if h == nil {
			return
		}
		c.mu.Lock()
		attached := c.inflight.attach(id, h)
		stale := !c.seq.valid(seq)
		c.mu.Unlock()
		if !attached && stale {
			h.Cancel()
		}
	})
}

// applyLoad merges a remote page into the cache. Called with mu held.
func (c *Cache[T]) applyLoad(readOffset, readLimit int, resp LoadResponse[T]) {
	if !c.remoteLoaded {
		c.cache = nil
		c.parked = nil
		c.hole = -1
	}
	c.remoteLoaded = true

	done := c.hooks.isComplete(resp.Items, readLimit, resp.ResultOffset, resp.ResponseLen)
	c.placeChunk(chunk[T]{start: readOffset + resp.ResultOffset, items: resp.Items, complete: done})

	if !c.savedCache && readOffset == 0 && c.name != "" && c.cfg.Store != nil &&
		(resp.ResponseLen == 0 || len(c.cache) == resp.ResponseLen) {
		c.initialPageSize = readLimit
		c.savedCache = true
		c.saver.schedule()
	}

	for i := len(resp.Items) - 1; i >= 0; i-- {
		c.pending.remove(resp.Items[i], true)
	}

	c.log.Debug("load applied", "read_offset", readOffset, "items", len(resp.Items), "complete", c.complete, "known_size", c.knownSize())
	c.notifyBlocked()
	c.notifyLength()
}

// placeChunk splices ch into the cache, or parks it while an outstanding
// load can still fill the gap in front of it.
func (c *Cache[T]) placeChunk(ch chunk[T]) {
	if c.mustWait(ch.start) {
		i := 0
		for i < len(c.parked) && c.parked[i].start <= ch.start {
			i++
		}
		c.parked = append(c.parked, chunk[T]{})
		copy(c.parked[i+1:], c.parked[i:])
		c.parked[i] = ch
		return
	}
	c.spliceChunk(ch)
	c.drainParked()
}

// mustWait reports whether a chunk starting at start has to stay parked.
// Gaps behind a failed window stay open until the next Refresh.
func (c *Cache[T]) mustWait(start int) bool {
	if start <= len(c.cache) {
		return false
	}
	if c.hole >= len(c.cache) && c.hole < start {
		return true
	}
	return c.inflight.covers(len(c.cache), start)
}

// spliceChunk writes ch at its offset. A start past the end, with nothing
// left to fill the gap, is clamped to the end of the cache.
func (c *Cache[T]) spliceChunk(ch chunk[T]) {
	start := min(ch.start, len(c.cache))
	c.cache = splice(c.cache, start, ch.items)
	if start+len(ch.items) >= len(c.cache) {
		c.complete = ch.complete
	}
}

// drainParked places the parked chunks that no longer have to wait.
func (c *Cache[T]) drainParked() {
	for len(c.parked) > 0 && !c.mustWait(c.parked[0].start) {
		next := c.parked[0]
		c.parked = c.parked[1:]
		c.spliceChunk(next)
	}
}

// failLoad fails the blocked requests overlapping the failed window. Called
// with mu held.
func (c *Cache[T]) failLoad(readOffset, readLimit int, err error) {
	c.cfg.Metrics.LoadFailed()
	c.log.Warn("load failed", "read_offset", readOffset, "read_limit", readLimit, "error", err)

	if end := readOffset + readLimit; end > len(c.cache) {
		at := max(readOffset, len(c.cache))
		if c.hole < len(c.cache) || at < c.hole {
			c.hole = at
		}
	}
	rerr := &RangeError{Offset: readOffset, Limit: readLimit, Err: err}
	c.blocked.sweep(func(r *blockedRequest[T]) bool {
		if !rangeOverlap(r.offset, r.limit, readOffset, readLimit) {
			return false
		}
		c.fail(r.cb, rerr)
		return true
	})
	c.cfg.Metrics.BlockedRequests(c.blocked.len())
}

// notifyBlocked delivers newly available data to blocked requests, removing
// those now satisfied and narrowing the rest. Called with mu held.
func (c *Cache[T]) notifyBlocked() {
	known := c.knownSize()
	c.blocked.sweep(func(r *blockedRequest[T]) bool {
		if !c.complete && r.offset >= known {
			return false
		}
		ex := c.extract(r.offset, r.limit)
		if !c.complete && len(ex.available) == 0 {
			return false
		}
		c.deliver(r.cb, r.offset, ex.available)
		if c.complete || (c.remoteLoaded && ex.remainingLimit == 0) {
			c.done(r.cb)
			return true
		}
		if c.remoteLoaded {
			r.offset, r.limit = ex.remainingOffset, ex.remainingLimit
		}
		return false
	})
	c.cfg.Metrics.BlockedRequests(c.blocked.len())
}

// Refresh reloads the dataset from offset 0 and replaces the cache. Calls
// made while a refresh is running wait for it and receive the same result.
func (c *Cache[T]) Refresh(cb RefreshCallbacks[T]) {
	c.sched.Post(func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.closed {
			c.post(func() {
				if cb.OnFailure != nil {
					cb.OnFailure(ErrClosed)
				}
			})
			return
		}

		op := c.refreshOp(cb)
		if !c.gate.IsOpen() {
			c.gate.Queue(op)
			c.log.Debug("refresh joined", "waiting", c.gate.Len())
			return
		}

		c.cancelActivity()
		c.gate.Close()
		c.gate.Queue(op)
		c.remoteLoaded = false
		c.savedCache = false
		c.complete = false

		limit := c.initialPageSize
		readLimit := limit + c.cfg.Lookahead
		c.log.Info("refresh started", "read_limit", readLimit, "sequence", c.seq.current())
		c.issueLoad(0, readLimit,
			func(resp LoadResponse[T]) { c.applyRefresh(readLimit, limit, resp) },
			func(err error) {
				c.log.Warn("refresh failed", "error", err)
				c.gate.Fail(fmt.Errorf("refresh: %w", err))
			},
		)
	})
}

func (c *Cache[T]) refreshOp(cb RefreshCallbacks[T]) gate.Op {
	return gate.Op{
		OnSuccess: func(result any) {
			res, ok := result.(RefreshResult[T])
			c.post(func() {
				switch {
				case !ok:
					if cb.OnFailure != nil {
						cb.OnFailure(ErrCanceled)
					}
				case cb.OnSuccess != nil:
					cb.OnSuccess(res)
				}
			})
		},
		OnFailure: func(err error) {
			c.post(func() {
				if cb.OnFailure != nil {
					cb.OnFailure(err)
				}
			})
		},
	}
}

// applyRefresh installs a refresh response and reopens the gate. Called with
// mu held.
func (c *Cache[T]) applyRefresh(readLimit, limit int, resp LoadResponse[T]) {
	c.cfg.Metrics.Refreshed()

	if resp.ResultOffset != 0 {
		c.requestUpperBound = readLimit
		c.applyLoad(0, readLimit, resp)
		c.gate.Succeed(RefreshResult[T]{Results: append([]T(nil), c.cache...), Limit: limit})
		return
	}

	changed := c.hooks.diff(resp.Items, c.cache)
	c.remoteLoaded = true
	c.complete = c.hooks.isComplete(resp.Items, readLimit, resp.ResultOffset, resp.ResponseLen)
	c.requestUpperBound = readLimit
	c.cache = append([]T(nil), resp.Items...)
	c.parked = nil
	c.hole = -1
	c.pending.clear()

	if c.name != "" && c.cfg.Store != nil && (resp.ResponseLen == 0 || len(c.cache) == resp.ResponseLen) {
		c.savedCache = true
		c.saver.schedule()
	}

	c.log.Info("refresh applied", "items", len(c.cache), "complete", c.complete)
	c.gate.Succeed(RefreshResult[T]{Results: append([]T(nil), c.cache...), Changed: changed, Limit: limit})
	c.notifyBlocked()
	c.notifyLength()
}

// Cancel drops all in-flight activity. Every blocked request fails with
// ErrCanceled and its own window; a running refresh fails its callers with
// ErrCanceled. The cache contents are kept.
func (c *Cache[T]) Cancel() {
	c.sched.Post(func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.cfg.Metrics.Canceled()

		blocked := c.blocked.drain()
		c.cancelActivity()
		for _, r := range blocked {
			c.fail(r.cb, &RangeError{Offset: r.offset, Limit: r.limit, Err: ErrCanceled})
		}
		c.cfg.Metrics.BlockedRequests(c.blocked.len())
		c.log.Info("canceled", "blocked", len(blocked), "sequence", c.seq.current())
	})
}

// cancelActivity invalidates outstanding loads, rewinds the upper bound to
// the confirmed data and reopens the gate. Called with mu held.
func (c *Cache[T]) cancelActivity() {
	n := c.inflight.cancelAll()
	c.seq.advance()
	c.parked = nil
	c.hole = -1
	// abandoned windows must be requested again
	c.requestUpperBound = 0
	if c.remoteLoaded {
		c.requestUpperBound = len(c.cache)
	}
	c.log.Debug("in-flight loads canceled", "count", n, "sequence", c.seq.current())
	c.gate.Succeed(nil)
}

// AddPending inserts a speculative item before offset 0, or after the last
// loaded item when tail is set.
func (c *Cache[T]) AddPending(item T, tail bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending.add(item, tail)
	c.notifyLength()
}

// RemovePending removes the first matching pending item and returns its
// former index.
func (c *Cache[T]) RemovePending(item T, tail bool) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i, ok := c.pending.remove(item, tail)
	if ok {
		c.notifyLength()
	}
	return i, ok
}

// HeadPending returns a copy of the head pending items.
func (c *Cache[T]) HeadPending() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]T(nil), c.pending.head...)
}

// TailPending returns a copy of the tail pending items.
func (c *Cache[T]) TailPending() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]T(nil), c.pending.tail...)
}

// KnownSize is the number of head pending, loaded and tail pending items.
func (c *Cache[T]) KnownSize() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.knownSize()
}

func (c *Cache[T]) knownSize() int {
	return len(c.pending.head) + len(c.cache) + len(c.pending.tail)
}

// IsComplete reports whether the remote source is known to be exhausted.
func (c *Cache[T]) IsComplete() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.complete
}

// SequenceID returns the current generation.
func (c *Cache[T]) SequenceID() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq.current()
}

// RequestUpperBound is the end of the furthest window requested so far.
func (c *Cache[T]) RequestUpperBound() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requestUpperBound
}

// InitialPageSize is the window the next Refresh reads before lookahead.
func (c *Cache[T]) InitialPageSize() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initialPageSize
}

// BlockedCount is the number of requests waiting for data.
func (c *Cache[T]) BlockedCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.blocked.len()
}

// InFlight is the number of loads issued and not yet settled.
func (c *Cache[T]) InFlight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inflight.len()
}

// ObserveLength registers fn for known size changes.
func (c *Cache[T]) ObserveLength(fn func(LengthChange)) (unsubscribe func()) {
	return c.lengths.Observe(fn)
}

// Observe registers fn for item updates.
func (c *Cache[T]) Observe(fn func(ItemUpdate)) (unsubscribe func()) {
	return c.updates.Observe(fn)
}

// NotifyUpdatedItem tells observers the item at index changed.
func (c *Cache[T]) NotifyUpdatedItem(index int) {
	c.post(func() { c.updates.Notify(ItemUpdate{Index: index}) })
}

// Close stops persistence, fails blocked requests with ErrClosed and stops
// the scheduler if the cache owns it. It must not be called from a callback.
func (c *Cache[T]) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.saver.stop()
	c.inflight.cancelAll()
	c.seq.advance()
	for _, r := range c.blocked.drain() {
		c.fail(r.cb, &RangeError{Offset: r.offset, Limit: r.limit, Err: ErrClosed})
	}
	c.gate.Fail(ErrClosed)
	c.mu.Unlock()

	if c.owned != nil {
		c.owned.Close()
	}
	return nil
}

func (c *Cache[T]) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Cache[T]) isCurrent(seq uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq.valid(seq)
}

func (c *Cache[T]) extract(offset, limit int) extraction[T] {
	return extractRange(c.pending.head, c.cache, c.pending.tail, c.remoteLoaded, offset, limit)
}

func (c *Cache[T]) post(fn func()) {
	c.sched.Post(fn)
}

func (c *Cache[T]) deliver(cb RangeCallbacks[T], offset int, items []T) {
	if cb.OnSuccess == nil {
		return
	}
	res := RangeResult[T]{Offset: offset, Limit: len(items), Results: append(make([]T, 0, len(items)), items...)}
	c.post(func() { cb.OnSuccess(res) })
}

func (c *Cache[T]) done(cb RangeCallbacks[T]) {
	if cb.OnDone == nil {
		return
	}
	c.post(cb.OnDone)
}

func (c *Cache[T]) fail(cb RangeCallbacks[T], err error) {
	if cb.OnFailure == nil {
		return
	}
	c.post(func() { cb.OnFailure(err) })
}

func (c *Cache[T]) notifyLength() {
	change := LengthChange{KnownSize: c.knownSize()}
	c.post(func() { c.lengths.Notify(change) })
}
