// Package cache provides the snapshot storage used to bootstrap paging caches.
//
// # Overview
//
// A paging cache that has loaded its first full window from the remote source
// persists that window as a snapshot. The next time a cache for the same
// dataset starts cold, it reads the snapshot and serves it optimistically while
// the authoritative remote read is still outstanding.
//
// This package exports:
//
//   - Store: the best effort snapshot store interface
//   - Codec: snapshot serialization (JSONCodec, MsgpackCodec)
//   - KeySerializer: builds stable dataset names from a dataset and arguments
//
// and constructors for the bundled implementations:
//
//   - NewMemoryStore: a sturdyc backed in-process store
//   - OpenBadgerStore: a badger backed durable store
//   - NewTieredStore: a memory tier reading and writing through to another store
//
// # Basic Usage
//
//	durable, err := cache.OpenBadgerStore(cache.DefaultBadgerConfig("/var/lib/app/snapshots"))
//	if err != nil {
//		return err
//	}
//	defer durable.Close()
//
//	store, err := cache.NewTieredStore(cache.DefaultConfig(), durable)
//
// # Dataset Names
//
// Snapshot names must be identical across restarts, so the default serializer
// never encodes memory addresses. Functions and channels contribute only their
// type, maps are encoded with sorted keys, and argument lists that would
// produce a key longer than MaxKeyLength are replaced by an xxhash digest:
//
//	serializer := cache.NewDefaultKeySerializer()
//	name := serializer.SerializeKey("mail", accountID, "inbox")
//
// # Error Handling
//
// Stores report failures as errors, but paging caches treat every store or
// codec error as a cache miss: a broken snapshot never prevents the remote
// load from running.
package cache
