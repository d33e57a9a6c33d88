// Package store is the boundary to the remote document tree: named collections
// of keyed JSON-like records, readable once or as a live stream of full
// snapshots.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Collection names.
const (
	Events        = "events"
	Users         = "users"
	Registrations = "registrations"
	Admins        = "admins"
)

// ErrNotFound is returned by Get and Update when the key does not exist.
var ErrNotFound = errors.New("record not found")

type serverValue struct{ name string }

// ServerTimestamp is replaced with the write time in ms since epoch when a
// value is stored.
var ServerTimestamp = serverValue{name: "timestamp"}

// Child is one keyed record of a snapshot.
type Child struct {
	Key   string
	Value Value
}

// Snapshot is the full content of a collection at one point in time, in key
// order.
type Snapshot struct {
	Collection string
	Children   []Child
}

// Len returns the number of records.
func (s Snapshot) Len() int { return len(s.Children) }

// Store is implemented by every backend.
type Store interface {
	// Subscribe delivers the current snapshot and then a fresh one after every
	// change. Consumers that fall behind only see the latest snapshot. A failed
	// initial load is returned as an error. The channel closes with ctx.
	Subscribe(ctx context.Context, collection string) (<-chan Snapshot, error)
	Once(ctx context.Context, collection string) (Snapshot, error)
	Get(ctx context.Context, collection, key string) (Value, error)
	Set(ctx context.Context, collection, key string, v Value) error
	// Update merges patch into an existing record. A nil field value deletes it.
	Update(ctx context.Context, collection, key string, patch Value) error
	// Remove deletes key; removing a missing key is not an error.
	Remove(ctx context.Context, collection, key string) error
	// Push stores v under a new time-ordered key and returns it.
	Push(ctx context.Context, collection string, v Value) (string, error)
	Close() error
}

// NewPushKey returns a key that sorts after every key generated before it.
func NewPushKey() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// resolve returns a copy of v with server values filled in.
func resolve(v Value, now time.Time) Value {
	out := v.Clone()
	for k, field := range out {
		if sv, ok := field.(serverValue); ok && sv == ServerTimestamp {
			out[k] = now.UnixMilli()
		}
	}
	return out
}

// merge applies patch onto base in place.
func merge(base, patch Value, now time.Time) Value {
	if base == nil {
		base = Value{}
	}
	for k, field := range resolve(patch, now) {
		if field == nil {
			delete(base, k)
			continue
		}
		base[k] = field
	}
	return base
}
