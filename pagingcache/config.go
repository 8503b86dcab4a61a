package pagingcache

import (
	"io"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-paging-cache/cache"
	"github.com/goliatone/go-paging-cache/internal/cacheinfra"
)

// Scheduler runs engine work. Post tasks run one at a time in FIFO order;
// Go runs fn off the serialized path.
type Scheduler interface {
	Post(task func())
	Go(fn func())
}

// Metrics receives engine events. All methods must be safe for concurrent use.
type Metrics interface {
	LoadIssued(limit int)
	LoadFailed()
	StaleDropped()
	BlockedRequests(n int)
	Bootstrap(hit bool)
	Refreshed()
	Canceled()
}

// Config tunes a Cache. Start from DefaultConfig.
type Config struct {
	// Lookahead is the number of extra items read past each request.
	Lookahead int

	// InitialPageSize sizes the first window a Refresh reads. It grows to
	// match a bootstrap snapshot or the first full load.
	InitialPageSize int

	// CacheSaveDelay debounces snapshot writes. Zero writes on the next turn.
	CacheSaveDelay time.Duration

	// StoreTimeout bounds each snapshot load or write. Zero disables it.
	StoreTimeout time.Duration

	// Store holds dataset snapshots. Nil disables bootstrap and persistence.
	Store cache.Store

	// Codec encodes snapshots. Defaults to cache.JSONCodec.
	Codec cache.Codec

	// Scheduler runs engine tasks. Nil starts a dedicated loop owned by the
	// cache and stopped by Close.
	Scheduler Scheduler

	Logger  *slog.Logger
	Metrics Metrics
}

// DefaultConfig returns the standard engine settings.
func DefaultConfig() Config {
	return Config{
		Lookahead:       20,
		InitialPageSize: 20,
		CacheSaveDelay:  5 * time.Second,
		StoreTimeout:    5 * time.Second,
	}
}

// Validate checks the numeric settings.
func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.Lookahead, validation.Min(0).Error("must be non-negative")),
		validation.Field(&c.InitialPageSize, validation.Required.Error("must be greater than 0"), validation.Min(1)),
		validation.Field(&c.CacheSaveDelay, validation.Min(time.Duration(0)).Error("must be non-negative")),
		validation.Field(&c.StoreTimeout, validation.Min(time.Duration(0)).Error("must be non-negative")),
	)
	return cacheinfra.ToConfigError(err)
}

func (c Config) withDefaults() Config {
	if c.Codec == nil {
		c.Codec = cache.JSONCodec{}
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if c.Metrics == nil {
		c.Metrics = noopMetrics{}
	}
	return c
}

type noopMetrics struct{}

func (noopMetrics) LoadIssued(int)      {}
func (noopMetrics) LoadFailed()         {}
func (noopMetrics) StaleDropped()       {}
func (noopMetrics) BlockedRequests(int) {}
func (noopMetrics) Bootstrap(bool)      {}
func (noopMetrics) Refreshed()          {}
func (noopMetrics) Canceled()           {}
