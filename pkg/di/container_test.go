package di

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/goliatone/go-paging-cache/cache"
	pagingcache "github.com/goliatone/go-paging-cache/pagingcache"
)

func TestNewContainer(t *testing.T) {
	opts := DefaultOptions()
	opts.Memory = cache.Config{
		Capacity:           1000,
		NumShards:          256,
		TTL:                5 * time.Minute,
		EvictionPercentage: 10,
		EarlyRefresh: &cache.EarlyRefreshConfig{
			MinAsyncRefreshTime: 10 * time.Second,
			MaxAsyncRefreshTime: 20 * time.Second,
			SyncRefreshTime:     30 * time.Second,
			RetryBaseDelay:      100 * time.Millisecond,
		},
		MissingRecordStorage: true,
	}

	container, err := NewContainer(opts)
	if err != nil {
		t.Fatalf("NewContainer() failed: %v", err)
	}
	defer container.Close()

	if container.Store() == nil {
		t.Error("Container should have a non-nil store")
	}
	if container.KeySerializer() == nil {
		t.Error("Container should have a non-nil key serializer")
	}
	if container.Metrics() != nil {
		t.Error("metrics should be disabled without a registerer")
	}

	stored := container.MemoryConfig()
	if stored.Capacity != opts.Memory.Capacity || stored.TTL != opts.Memory.TTL {
		t.Errorf("unexpected memory config %+v", stored)
	}
}

func TestNewContainerWithDefaults(t *testing.T) {
	container, err := NewContainerWithDefaults()
	if err != nil {
		t.Fatalf("NewContainerWithDefaults() failed: %v", err)
	}
	defer container.Close()

	cfg := container.EngineConfig()
	defaults := pagingcache.DefaultConfig()
	if cfg.Lookahead != defaults.Lookahead || cfg.InitialPageSize != defaults.InitialPageSize {
		t.Errorf("expected default engine settings, got %+v", cfg)
	}
	if cfg.Store == nil || cfg.Logger == nil {
		t.Error("EngineConfig should carry the container store and logger")
	}
	if cfg.Metrics != nil {
		t.Error("EngineConfig should leave metrics unset without a registerer")
	}
}

func TestNewContainer_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		opts func(*Options)
	}{
		{
			name: "memory capacity",
			opts: func(o *Options) { o.Memory.Capacity = 0 },
		},
		{
			name: "engine lookahead",
			opts: func(o *Options) { o.Engine.Lookahead = -1 },
		},
		{
			name: "badger dir",
			opts: func(o *Options) { o.Badger = &cache.BadgerConfig{} },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.opts(&opts)

			_, err := NewContainer(opts)
			var cerr *cache.ConfigError
			if !errors.As(err, &cerr) {
				t.Fatalf("expected *cache.ConfigError, got %v", err)
			}
			if cerr.Field == "" {
				t.Errorf("expected a field name, got %+v", cerr)
			}
		})
	}
}

func TestContainerSingletonBehavior(t *testing.T) {
	container, err := NewContainerWithDefaults()
	if err != nil {
		t.Fatalf("NewContainerWithDefaults() failed: %v", err)
	}
	defer container.Close()

	if container.Store() != container.Store() {
		t.Error("Store() should return the same instance (singleton behavior)")
	}
	if container.KeySerializer() != container.KeySerializer() {
		t.Error("KeySerializer() should return the same instance (singleton behavior)")
	}
	if container.EngineConfig().Store != container.Store() {
		t.Error("EngineConfig() should share the container store")
	}
}

func TestContainer_Metrics(t *testing.T) {
	opts := DefaultOptions()
	opts.Registerer = prometheus.NewRegistry()
	opts.Namespace = "test"

	container, err := NewContainer(opts)
	if err != nil {
		t.Fatalf("NewContainer() failed: %v", err)
	}
	defer container.Close()

	if container.Metrics() == nil {
		t.Fatal("expected metrics with a registerer")
	}
	if container.EngineConfig().Metrics == nil {
		t.Error("EngineConfig should carry the container metrics")
	}
}

func TestKeySerializerIntegration(t *testing.T) {
	container, err := NewContainerWithDefaults()
	if err != nil {
		t.Fatalf("NewContainerWithDefaults() failed: %v", err)
	}
	defer container.Close()

	testCases := []struct {
		name     string
		dataset  string
		args     []any
		expected string
	}{
		{name: "no args", dataset: "users", expected: "users"},
		{name: "single string arg", dataset: "users", args: []any{"tenant-1"}, expected: "users::tenant-1"},
		{name: "multiple args", dataset: "orders", args: []any{"eu", 10, true}, expected: "orders::eu::10::true"},
		{name: "nil arg", dataset: "feed", args: []any{nil}, expected: "feed::nil"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := container.KeySerializer().SerializeKey(tc.dataset, tc.args...)
			if result != tc.expected {
				t.Errorf("Expected key %q, got %q", tc.expected, result)
			}
		})
	}
}
