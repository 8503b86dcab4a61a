package di

import (
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/goliatone/go-paging-cache/cache"
	pagingcache "github.com/goliatone/go-paging-cache/pagingcache"
	"github.com/goliatone/go-paging-cache/pkg/metrics"
	"github.com/goliatone/go-paging-cache/repositoryloader"
)

// Options configure a Container.
type Options struct {
	// Memory sizes the in-process snapshot tier.
	Memory cache.Config

	// Badger adds a durable tier behind the memory tier. Nil keeps
	// snapshots in memory only.
	Badger *cache.BadgerConfig

	// Engine is the template every paging cache starts from. Its Store,
	// Logger and Metrics are filled in by the container when unset.
	Engine pagingcache.Config

	Logger *slog.Logger

	// Registerer receives the paging cache collectors. Nil disables metrics.
	Registerer prometheus.Registerer
	Namespace  string
}

// DefaultOptions returns memory-only snapshots and the default engine settings.
func DefaultOptions() Options {
	return Options{
		Memory: cache.DefaultConfig(),
		Engine: pagingcache.DefaultConfig(),
	}
}

// Container provides dependency injection for paging cache components.
// It owns the snapshot store, the key serializer and the metrics shared by
// every cache it creates.
type Container struct {
	store         cache.Store
	durable       cache.DurableStore
	keySerializer cache.KeySerializer
	metrics       *metrics.Prometheus
	logger        *slog.Logger
	engine        pagingcache.Config
	memory        cache.Config
}

// NewContainer validates opts and opens the snapshot tiers.
func NewContainer(opts Options) (*Container, error) {
	if err := opts.Engine.Validate(); err != nil {
		return nil, err
	}

	var durable cache.DurableStore
	if opts.Badger != nil {
		var err error
		durable, err = cache.OpenBadgerStore(*opts.Badger)
		if err != nil {
			return nil, err
		}
	}

	var backing cache.Store
	if durable != nil {
		backing = durable
	}
	store, err := cache.NewTieredStore(opts.Memory, backing)
	if err != nil {
		if durable != nil {
			durable.Close()
		}
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	c := &Container{
		store:         store,
		durable:       durable,
		keySerializer: cache.NewDefaultKeySerializer(),
		logger:        logger,
		engine:        opts.Engine,
		memory:        opts.Memory,
	}
	if opts.Registerer != nil {
		c.metrics = metrics.NewPrometheus(opts.Registerer, opts.Namespace)
	}
	return c, nil
}

// NewContainerWithDefaults creates a container from DefaultOptions.
func NewContainerWithDefaults() (*Container, error) {
	return NewContainer(DefaultOptions())
}

// Store returns the shared snapshot store.
func (c *Container) Store() cache.Store {
	return c.store
}

// KeySerializer returns the serializer used for snapshot names.
func (c *Container) KeySerializer() cache.KeySerializer {
	return c.keySerializer
}

// Metrics returns the shared collectors, or nil when metrics are disabled.
func (c *Container) Metrics() *metrics.Prometheus {
	return c.metrics
}

// MemoryConfig returns the memory tier configuration.
func (c *Container) MemoryConfig() cache.Config {
	return c.memory
}

// EngineConfig returns the engine template with the container's store,
// logger and metrics applied.
func (c *Container) EngineConfig() pagingcache.Config {
	cfg := c.engine
	if cfg.Store == nil {
		cfg.Store = c.store
	}
	if cfg.Logger == nil {
		cfg.Logger = c.logger
	}
	if cfg.Metrics == nil && c.metrics != nil {
		cfg.Metrics = c.metrics
	}
	return cfg
}

// Close releases the durable tier. Caches created by the container must be
// closed first.
func (c *Container) Close() error {
	if c.durable == nil {
		return nil
	}
	return c.durable.Close()
}

// NewPagingCache creates a cache over loader using the container's engine
// configuration.
//
// Since Go methods cannot have type parameters, this is provided as a package-level function.
// Example: NewPagingCache[User](container, loader)
func NewPagingCache[T any](c *Container, loader pagingcache.RemoteLoader[T]) (*pagingcache.Cache[T], error) {
	return pagingcache.New(loader, c.EngineConfig())
}

// NewRepositoryCache pages lister through a cache. An empty Dataset defaults
// to the snake_case name of T and the container's key serializer is used
// unless opts names one.
func NewRepositoryCache[T any](c *Container, lister repositoryloader.Lister[T], opts repositoryloader.Options) (*pagingcache.Cache[T], error) {
	if opts.Dataset == "" {
		opts.Dataset = repositoryloader.DatasetName[T]()
	}
	if opts.KeySerializer == nil {
		opts.KeySerializer = c.keySerializer
	}
	return NewPagingCache[T](c, repositoryloader.NewRemote(lister, opts))
}
