package cacheinfra

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeBacking struct {
	mu       sync.Mutex
	data     map[string][]byte
	loads    int
	stores   int
	deletes  int
	loadErr  error
	storeErr error
}

func newFakeBacking() *fakeBacking {
	return &fakeBacking{data: map[string][]byte{}}
}

func (f *fakeBacking) Load(ctx context.Context, name string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	if f.loadErr != nil {
		return nil, false, f.loadErr
	}
	blob, ok := f.data[name]
	return blob, ok, nil
}

func (f *fakeBacking) Store(ctx context.Context, name string, blob []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stores++
	if f.storeErr != nil {
		return f.storeErr
	}
	f.data[name] = blob
	return nil
}

func (f *fakeBacking) Delete(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	delete(f.data, name)
	return nil
}

func memoryConfig() Config {
	return Config{Capacity: 100, NumShards: 2, TTL: time.Minute, EvictionPercentage: 10}
}

func TestNewSturdycStore_InvalidConfig(t *testing.T) {
	store, err := NewSturdycStore(Config{}, nil)
	if err == nil {
		t.Fatal("expected error for zero config")
	}
	if store != nil {
		t.Error("expected nil store when config is invalid")
	}
}

func TestSturdycStore_MemoryOnly(t *testing.T) {
	store, err := NewSturdycStore(memoryConfig(), nil)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	ctx := context.Background()

	if _, ok, err := store.Load(ctx, "contacts"); ok || err != nil {
		t.Fatalf("expected clean miss, got ok=%v err=%v", ok, err)
	}

	if err := store.Store(ctx, "contacts", []byte(`[1,2,3]`)); err != nil {
		t.Fatalf("store failed: %v", err)
	}

	blob, ok, err := store.Load(ctx, "contacts")
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if string(blob) != `[1,2,3]` {
		t.Errorf("unexpected blob %q", blob)
	}
	if store.Size() != 1 {
		t.Errorf("expected 1 entry, got %d", store.Size())
	}

	if err := store.Delete(ctx, "contacts"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, ok, _ := store.Load(ctx, "contacts"); ok {
		t.Error("expected miss after delete")
	}
}

func TestSturdycStore_ReadThroughBacking(t *testing.T) {
	backing := newFakeBacking()
	backing.data["inbox"] = []byte(`["a"]`)

	store, err := NewSturdycStore(memoryConfig(), backing)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		blob, ok, err := store.Load(ctx, "inbox")
		if err != nil || !ok {
			t.Fatalf("load %d: expected hit, got ok=%v err=%v", i, ok, err)
		}
		if string(blob) != `["a"]` {
			t.Errorf("load %d: unexpected blob %q", i, blob)
		}
	}

	if backing.loads != 1 {
		t.Errorf("expected backing to be read once, got %d", backing.loads)
	}
}

func TestSturdycStore_MissingRecordStorage(t *testing.T) {
	backing := newFakeBacking()

	cfg := memoryConfig()
	cfg.MissingRecordStorage = true
	store, err := NewSturdycStore(cfg, backing)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, ok, err := store.Load(ctx, "missing"); ok || err != nil {
			t.Fatalf("load %d: expected clean miss, got ok=%v err=%v", i, ok, err)
		}
	}
	if backing.loads != 1 {
		t.Errorf("expected missing record to be remembered, backing read %d times", backing.loads)
	}

	if err := store.Store(ctx, "missing", []byte("x")); err != nil {
		t.Fatalf("store failed: %v", err)
	}
	if _, ok, _ := store.Load(ctx, "missing"); !ok {
		t.Error("expected hit after store overrides missing record")
	}
}

func TestSturdycStore_BackingErrors(t *testing.T) {
	backing := newFakeBacking()
	backing.loadErr = errors.New("disk gone")
	backing.storeErr = errors.New("read only")

	store, err := NewSturdycStore(memoryConfig(), backing)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	ctx := context.Background()

	if _, _, err := store.Load(ctx, "x"); err == nil {
		t.Error("expected backing load error to surface")
	}
	if err := store.Store(ctx, "x", []byte("1")); err == nil {
		t.Error("expected backing store error to surface")
	}
	if store.Size() != 0 {
		t.Error("failed write must not populate memory tier")
	}
}

func TestSturdycStore_CanceledContext(t *testing.T) {
	store, err := NewSturdycStore(memoryConfig(), nil)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, _, err := store.Load(ctx, "x"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if err := store.Store(ctx, "x", nil); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestBadgerStore_RoundTrip(t *testing.T) {
	store, err := OpenBadgerStore(BadgerConfig{InMemory: true, KeyPrefix: "test:"})
	if err != nil {
		t.Fatalf("failed to open badger: %v", err)
	}
	defer store.Close()
	ctx := context.Background()

	if _, ok, err := store.Load(ctx, "feed"); ok || err != nil {
		t.Fatalf("expected clean miss, got ok=%v err=%v", ok, err)
	}

	if err := store.Store(ctx, "feed", []byte(`[10,9]`)); err != nil {
		t.Fatalf("store failed: %v", err)
	}
	blob, ok, err := store.Load(ctx, "feed")
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if string(blob) != `[10,9]` {
		t.Errorf("unexpected blob %q", blob)
	}

	if err := store.Delete(ctx, "feed"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, ok, _ := store.Load(ctx, "feed"); ok {
		t.Error("expected miss after delete")
	}
}

func TestBadgerStore_OnDisk(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := OpenBadgerStore(DefaultBadgerConfig(dir))
	if err != nil {
		t.Fatalf("failed to open badger: %v", err)
	}
	if err := store.Store(ctx, "feed", []byte("persisted")); err != nil {
		t.Fatalf("store failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	reopened, err := OpenBadgerStore(DefaultBadgerConfig(dir))
	if err != nil {
		t.Fatalf("failed to reopen badger: %v", err)
	}
	defer reopened.Close()

	blob, ok, err := reopened.Load(ctx, "feed")
	if err != nil || !ok {
		t.Fatalf("expected persisted snapshot, got ok=%v err=%v", ok, err)
	}
	if string(blob) != "persisted" {
		t.Errorf("unexpected blob %q", blob)
	}
}

func TestTieredStore_BadgerBacking(t *testing.T) {
	durable, err := OpenBadgerStore(BadgerConfig{InMemory: true})
	if err != nil {
		t.Fatalf("failed to open badger: %v", err)
	}
	defer durable.Close()

	store, err := NewSturdycStore(memoryConfig(), durable)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	ctx := context.Background()

	if err := store.Store(ctx, "feed", []byte("v1")); err != nil {
		t.Fatalf("store failed: %v", err)
	}

	blob, ok, err := durable.Load(ctx, "feed")
	if err != nil || !ok || string(blob) != "v1" {
		t.Fatalf("expected write-through to badger, got %q ok=%v err=%v", blob, ok, err)
	}

	if err := store.Delete(ctx, "feed"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, ok, _ := durable.Load(ctx, "feed"); ok {
		t.Error("expected delete to reach badger")
	}
}
