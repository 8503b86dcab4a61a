package pagingcache

import (
	"context"
	"sync"
	"time"
)

// debouncer coalesces snapshot requests into one write per quiet period.
type debouncer struct {
	delay time.Duration
	fire  func()

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
}

func newDebouncer(delay time.Duration, fire func()) *debouncer {
	return &debouncer{delay: delay, fire: fire}
}

func (d *debouncer) schedule() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.delay <= 0 {
		d.fire()
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.fire)
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// persistSnapshot posts a task that captures the confirmed cache and writes
// it to the store in the background. Failures are logged and dropped.
func (c *Cache[T]) persistSnapshot() {
	c.sched.Post(func() {
		c.mu.Lock()
		if c.closed || !c.remoteLoaded {
			c.mu.Unlock()
			return
		}
		items := append([]T(nil), c.cache...)
		c.mu.Unlock()

		c.sched.Go(func() {
			blob, err := c.cfg.Codec.Marshal(items)
			if err != nil {
				c.log.Warn("snapshot encode failed", "error", err)
				return
			}
			ctx, cancel := c.storeContext()
			defer cancel()
			if err := c.cfg.Store.Store(ctx, c.name, blob); err != nil {
				c.log.Warn("snapshot write failed", "error", err)
				return
			}
			c.log.Debug("snapshot written", "items", len(items), "bytes", len(blob))
		})
	})
}

// bootstrap reads the stored snapshot in the background and seeds the cache
// with it if no remote response has arrived in the meantime.
func (c *Cache[T]) bootstrap() {
	seq := c.seq.current()
	c.sched.Go(func() {
		items, hit := c.readSnapshot()
		c.sched.Post(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			c.cfg.Metrics.Bootstrap(hit)
			if !hit {
				return
			}
			if c.remoteLoaded || !c.seq.valid(seq) {
				c.log.Debug("snapshot ignored", "items", len(items))
				return
			}
			c.initialPageSize = max(c.initialPageSize, len(items))
			c.cache = items
			c.log.Debug("cache seeded from snapshot", "items", len(items))
			c.notifyBlocked()
			c.notifyLength()
		})
	})
}

func (c *Cache[T]) readSnapshot() ([]T, bool) {
	ctx, cancel := c.storeContext()
	defer cancel()

	blob, ok, err := c.cfg.Store.Load(ctx, c.name)
	if err != nil {
		c.log.Warn("snapshot read failed", "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var items []T
	if err := c.cfg.Codec.Unmarshal(blob, &items); err != nil {
		c.log.Warn("snapshot decode failed", "error", err)
		return nil, false
	}
	return items, true
}

func (c *Cache[T]) storeContext() (context.Context, context.CancelFunc) {
	if c.cfg.StoreTimeout > 0 {
		return context.WithTimeout(context.Background(), c.cfg.StoreTimeout)
	}
	return context.WithCancel(context.Background())
}
