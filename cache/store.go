package cache

import (
	"context"
	"encoding/json"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// Store persists serialized dataset snapshots used to bootstrap a cold paging cache.
// Implementations are best effort: callers treat any error as a cache miss.
type Store interface {
	// Load returns the snapshot stored under name. ok is false on a miss.
	Load(ctx context.Context, name string) (blob []byte, ok bool, err error)

	// Store replaces the snapshot stored under name.
	Store(ctx context.Context, name string, blob []byte) error
}

// Deleter is implemented by stores that can drop a snapshot.
type Deleter interface {
	Delete(ctx context.Context, name string) error
}

// DurableStore is a Store backed by an on-disk database that must be closed.
type DurableStore interface {
	Store
	Deleter
	io.Closer
}

// Codec converts dataset snapshots to and from the blobs kept in a Store.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// JSONCodec encodes snapshots as JSON. It is the default codec.
type JSONCodec struct{}

func (JSONCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (JSONCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// MsgpackCodec encodes snapshots with msgpack, which is smaller and faster
// to decode for large datasets.
type MsgpackCodec struct{}

func (MsgpackCodec) Marshal(v any) ([]byte, error)      { return msgpack.Marshal(v) }
func (MsgpackCodec) Unmarshal(data []byte, v any) error { return msgpack.Unmarshal(data, v) }
