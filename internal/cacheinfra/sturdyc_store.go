// Package cacheinfra contains the concrete snapshot stores behind cache.Store.
package cacheinfra

import (
	"context"
	"errors"

	"github.com/viccon/sturdyc"
)

// blobStore mirrors cache.Store. It is redeclared here because the cache
// package imports cacheinfra.
type blobStore interface {
	Load(ctx context.Context, name string) ([]byte, bool, error)
	Store(ctx context.Context, name string, blob []byte) error
}

type blobDeleter interface {
	Delete(ctx context.Context, name string) error
}

// SturdycStore keeps dataset snapshots in a sturdyc client. When a backing
// store is configured it acts as a read-through tier in front of it: misses
// are fetched from the backing store and writes go to both.
type SturdycStore struct {
	client  *sturdyc.Client[[]byte]
	backing blobStore
}

// NewSturdycStore validates cfg and builds the memory tier. backing may be nil.
func NewSturdycStore(cfg Config, backing blobStore) (*SturdycStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := sturdyc.New[[]byte](
		cfg.Capacity,
		cfg.NumShards,
		cfg.TTL,
		cfg.EvictionPercentage,
		cfg.ToSturdycOptions()...,
	)

	return &SturdycStore{client: client, backing: backing}, nil
}

// Load returns the snapshot stored under name. A missing snapshot is reported
// as ok == false with a nil error.
func (s *SturdycStore) Load(ctx context.Context, name string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	if s.backing == nil {
		blob, ok := s.client.Get(name)
		return blob, ok, nil
	}

	blob, err := s.client.GetOrFetch(ctx, name, func(ctx context.Context) ([]byte, error) {
		blob, ok, err := s.backing.Load(ctx, name)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, sturdyc.ErrNotFound
		}
		return blob, nil
	})

	switch {
	case err == nil:
		return blob, true, nil
	case errors.Is(err, sturdyc.ErrNotFound), errors.Is(err, sturdyc.ErrMissingRecord):
		return nil, false, nil
	default:
		return nil, false, err
	}
}

// Store writes blob to the backing store first, then to memory.
func (s *SturdycStore) Store(ctx context.Context, name string, blob []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if s.backing != nil {
		if err := s.backing.Store(ctx, name, blob); err != nil {
			return err
		}
	}

	s.client.Set(name, append([]byte(nil), blob...))
	return nil
}

// Delete removes the snapshot from memory and, when supported, from the backing store.
func (s *SturdycStore) Delete(ctx context.Context, name string) error {
	s.client.Delete(name)

	if d, ok := s.backing.(blobDeleter); ok {
		return d.Delete(ctx, name)
	}
	return nil
}

// Size returns the number of snapshots held in memory.
func (s *SturdycStore) Size() int {
	return s.client.Size()
}
