package cache

import (
	"time"

	"github.com/goliatone/go-paging-cache/internal/cacheinfra"
)

// Config exposes the memory tier configuration for consumers of the cache package.
type Config struct {
	Capacity             int
	NumShards            int
	TTL                  time.Duration
	EvictionPercentage   int
	EarlyRefresh         *EarlyRefreshConfig
	MissingRecordStorage bool
	EvictionInterval     time.Duration
}

// EarlyRefreshConfig mirrors the underlying sturdyc early refresh options.
type EarlyRefreshConfig struct {
	MinAsyncRefreshTime time.Duration
	MaxAsyncRefreshTime time.Duration
	SyncRefreshTime     time.Duration
	RetryBaseDelay      time.Duration
}

// BadgerConfig configures the durable snapshot store.
type BadgerConfig struct {
	Dir        string
	InMemory   bool
	TTL        time.Duration
	KeyPrefix  string
	SyncWrites bool
}

// ConfigError reports the first invalid field of a configuration.
type ConfigError = cacheinfra.ConfigError

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() Config {
	return convertFromInternal(cacheinfra.DefaultConfig())
}

// DefaultBadgerConfig returns a BadgerConfig rooted at dir.
func DefaultBadgerConfig(dir string) BadgerConfig {
	c := cacheinfra.DefaultBadgerConfig(dir)
	return BadgerConfig{Dir: c.Dir, InMemory: c.InMemory, TTL: c.TTL, KeyPrefix: c.KeyPrefix, SyncWrites: c.SyncWrites}
}

// Validate checks whether the configuration values are valid.
func (c Config) Validate() error {
	return c.toInternal().Validate()
}

// Validate checks whether the badger configuration values are valid.
func (c BadgerConfig) Validate() error {
	return c.toInternal().Validate()
}

// NewMemoryStore builds a process local snapshot store.
func NewMemoryStore(cfg Config) (Store, error) {
	store, err := cacheinfra.NewSturdycStore(cfg.toInternal(), nil)
	if err != nil {
		return nil, err
	}
	return store, nil
}

// NewTieredStore builds a memory tier that reads through to and writes through to backing.
func NewTieredStore(cfg Config, backing Store) (Store, error) {
	if backing == nil {
		return NewMemoryStore(cfg)
	}
	store, err := cacheinfra.NewSturdycStore(cfg.toInternal(), backing)
	if err != nil {
		return nil, err
	}
	return store, nil
}

// OpenBadgerStore opens the durable snapshot store.
func OpenBadgerStore(cfg BadgerConfig) (DurableStore, error) {
	store, err := cacheinfra.OpenBadgerStore(cfg.toInternal())
	if err != nil {
		return nil, err
	}
	return store, nil
}

func (c BadgerConfig) toInternal() cacheinfra.BadgerConfig {
	return cacheinfra.BadgerConfig{
		Dir:        c.Dir,
		InMemory:   c.InMemory,
		TTL:        c.TTL,
		KeyPrefix:  c.KeyPrefix,
		SyncWrites: c.SyncWrites,
	}
}

func (c Config) toInternal() cacheinfra.Config {
	var early *cacheinfra.EarlyRefreshConfig
	if c.EarlyRefresh != nil {
		early = &cacheinfra.EarlyRefreshConfig{
			MinAsyncRefreshTime: c.EarlyRefresh.MinAsyncRefreshTime,
			MaxAsyncRefreshTime: c.EarlyRefresh.MaxAsyncRefreshTime,
			SyncRefreshTime:     c.EarlyRefresh.SyncRefreshTime,
			RetryBaseDelay:      c.EarlyRefresh.RetryBaseDelay,
		}
	}

	return cacheinfra.Config{
		Capacity:             c.Capacity,
		NumShards:            c.NumShards,
		TTL:                  c.TTL,
		EvictionPercentage:   c.EvictionPercentage,
		EarlyRefresh:         early,
		MissingRecordStorage: c.MissingRecordStorage,
		EvictionInterval:     c.EvictionInterval,
	}
}

func convertFromInternal(cfg cacheinfra.Config) Config {
	var early *EarlyRefreshConfig
	if cfg.EarlyRefresh != nil {
		early = &EarlyRefreshConfig{
			MinAsyncRefreshTime: cfg.EarlyRefresh.MinAsyncRefreshTime,
			MaxAsyncRefreshTime: cfg.EarlyRefresh.MaxAsyncRefreshTime,
			SyncRefreshTime:     cfg.EarlyRefresh.SyncRefreshTime,
			RetryBaseDelay:      cfg.EarlyRefresh.RetryBaseDelay,
		}
	}

	return Config{
		Capacity:             cfg.Capacity,
		NumShards:            cfg.NumShards,
		TTL:                  cfg.TTL,
		EvictionPercentage:   cfg.EvictionPercentage,
		EarlyRefresh:         early,
		MissingRecordStorage: cfg.MissingRecordStorage,
		EvictionInterval:     cfg.EvictionInterval,
	}
}
