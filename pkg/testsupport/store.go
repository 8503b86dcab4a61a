package testsupport

import (
	"context"
	"sync"
)

// SnapshotStore is an in-memory cache.Store that counts its calls.
type SnapshotStore struct {
	mu     sync.Mutex
	blobs  map[string][]byte
	loads  int
	stores int
	err    error
}

// NewSnapshotStore returns an empty store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{blobs: make(map[string][]byte)}
}

func (s *SnapshotStore) Load(ctx context.Context, name string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	if s.err != nil {
		return nil, false, s.err
	}
	blob, ok := s.blobs[name]
	return blob, ok, ctx.Err()
}

func (s *SnapshotStore) Store(ctx context.Context, name string, blob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stores++
	if s.err != nil {
		return s.err
	}
	s.blobs[name] = append([]byte(nil), blob...)
	return nil
}

// Put seeds a snapshot without counting a store.
func (s *SnapshotStore) Put(name string, blob []byte) {
	s.mu.Lock()
	s.blobs[name] = append([]byte(nil), blob...)
	s.mu.Unlock()
}

// Get returns the stored snapshot.
func (s *SnapshotStore) Get(name string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	blob, ok := s.blobs[name]
	return blob, ok
}

// FailWith makes every call fail with err. Nil restores normal behavior.
func (s *SnapshotStore) FailWith(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// Loads returns the number of Load calls.
func (s *SnapshotStore) Loads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loads
}

// Stores returns the number of Store calls.
func (s *SnapshotStore) Stores() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stores
}
