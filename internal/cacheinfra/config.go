package cacheinfra

import (
	"errors"
	"sort"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/viccon/sturdyc"
)

// Config holds the configuration for the sturdyc backed memory tier.
type Config struct {
	// Capacity defines the maximum number of datasets the tier keeps.
	// Must be greater than 0.
	Capacity int

	// NumShards determines the number of cache shards for concurrent access.
	// Must be greater than 0. Default: 64
	NumShards int

	// TTL is how long a persisted dataset snapshot is served from memory.
	// Must be greater than 0.
	TTL time.Duration

	// EvictionPercentage specifies what percentage of entries to evict
	// when the tier reaches its capacity. Must be between 1-100.
	EvictionPercentage int

	// EarlyRefresh reloads hot snapshots from the backing store before they
	// expire. Only meaningful when the tier fronts a backing store.
	// If nil, early refresh is disabled.
	EarlyRefresh *EarlyRefreshConfig

	// MissingRecordStorage remembers datasets the backing store does not
	// have, so repeated bootstrap attempts do not hit it again.
	MissingRecordStorage bool

	// EvictionInterval sets how often the tier checks for expired entries.
	// Zero value uses the sturdyc default.
	EvictionInterval time.Duration
}

// EarlyRefreshConfig configures early refresh behavior.
type EarlyRefreshConfig struct {
	MinAsyncRefreshTime time.Duration
	MaxAsyncRefreshTime time.Duration
	SyncRefreshTime     time.Duration
	RetryBaseDelay      time.Duration
}

// BadgerConfig configures the durable badger tier.
type BadgerConfig struct {
	// Dir is the badger data directory. Required unless InMemory is set.
	Dir string

	// InMemory runs badger without touching disk. Used by tests and demos.
	InMemory bool

	// TTL expires stored snapshots. Zero keeps them until overwritten.
	TTL time.Duration

	// KeyPrefix namespaces dataset keys inside a shared database.
	KeyPrefix string

	// SyncWrites fsyncs every store.
	SyncWrites bool
}

// DefaultConfig returns a Config with sensible defaults for a dataset snapshot tier.
func DefaultConfig() Config {
	return Config{
		Capacity:           1000,
		NumShards:          64,
		TTL:                30 * time.Minute,
		EvictionPercentage: 10,
		EarlyRefresh: &EarlyRefreshConfig{
			MinAsyncRefreshTime: 5 * time.Minute,
			MaxAsyncRefreshTime: 10 * time.Minute,
			SyncRefreshTime:     20 * time.Minute,
			RetryBaseDelay:      250 * time.Millisecond,
		},
		MissingRecordStorage: true,
	}
}

// DefaultBadgerConfig returns a BadgerConfig rooted at dir.
func DefaultBadgerConfig(dir string) BadgerConfig {
	return BadgerConfig{
		Dir:       dir,
		TTL:       7 * 24 * time.Hour,
		KeyPrefix: "paging:",
	}
}

// ToSturdycOptions converts the optional parts of Config to sturdyc options.
// Capacity, NumShards, TTL and EvictionPercentage go to sturdyc.New directly.
func (c Config) ToSturdycOptions() []sturdyc.Option {
	var options []sturdyc.Option

	if c.EarlyRefresh != nil {
		options = append(options, sturdyc.WithEarlyRefreshes(
			c.EarlyRefresh.MinAsyncRefreshTime,
			c.EarlyRefresh.MaxAsyncRefreshTime,
			c.EarlyRefresh.SyncRefreshTime,
			c.EarlyRefresh.RetryBaseDelay,
		))
	}

	if c.MissingRecordStorage {
		options = append(options, sturdyc.WithMissingRecordStorage())
	}

	if c.EvictionInterval > 0 {
		options = append(options, sturdyc.WithEvictionInterval(c.EvictionInterval))
	}

	return options
}

// Validate checks if the configuration values are valid.
func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.Capacity, validation.Required.Error("must be greater than 0"), validation.Min(1)),
		validation.Field(&c.NumShards, validation.Required.Error("must be greater than 0"), validation.Min(1)),
		validation.Field(&c.TTL, validation.Required.Error("must be greater than 0"), validation.Min(time.Duration(1))),
		validation.Field(&c.EvictionPercentage,
			validation.Required.Error("must be between 1 and 100"),
			validation.Min(1).Error("must be between 1 and 100"),
			validation.Max(100).Error("must be between 1 and 100"),
		),
		validation.Field(&c.EarlyRefresh),
		validation.Field(&c.EvictionInterval, validation.Min(time.Duration(0)).Error("must be non-negative")),
	)
	return ToConfigError(err)
}

// Validate checks that every early refresh duration is non-negative.
func (c EarlyRefreshConfig) Validate() error {
	nonNegative := validation.Min(time.Duration(0)).Error("must be non-negative")
	return validation.ValidateStruct(&c,
		validation.Field(&c.MinAsyncRefreshTime, nonNegative),
		validation.Field(&c.MaxAsyncRefreshTime, nonNegative),
		validation.Field(&c.SyncRefreshTime, nonNegative),
		validation.Field(&c.RetryBaseDelay, nonNegative),
	)
}

// Validate checks the badger tier configuration.
func (c BadgerConfig) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.Dir, validation.When(!c.InMemory, validation.Required.Error("is required unless InMemory is set"))),
		validation.Field(&c.TTL, validation.Min(time.Duration(0)).Error("must be non-negative")),
	)
	return ToConfigError(err)
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "config error in field " + e.Field + ": " + e.Message
}

// ToConfigError flattens ozzo validation errors into the first failing field,
// ordered by name so the reported field is stable.
func ToConfigError(err error) error {
	if err == nil {
		return nil
	}

	var errs validation.Errors
	if !errors.As(err, &errs) {
		return err
	}

	field, msg := firstFieldError("", errs)
	if field == "" {
		return err
	}
	return &ConfigError{Field: field, Message: msg}
}

func firstFieldError(prefix string, errs validation.Errors) (string, string) {
	keys := make([]string, 0, len(errs))
	for k := range errs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		name := k
		if prefix != "" {
			name = prefix + "." + k
		}

		var nested validation.Errors
		if errors.As(errs[k], &nested) {
			if field, msg := firstFieldError(name, nested); field != "" {
				return field, msg
			}
			continue
		}
		return name, errs[k].Error()
	}
	return "", ""
}
