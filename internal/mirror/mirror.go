// Package mirror keeps an in-process copy of a remote collection that is fully
// replaced on every change.
package mirror

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"technofest/internal/model"
	"technofest/internal/store"
)

// Decoder turns one stored record into T.
type Decoder[T any] func(key string, v store.Value) T

// Mirror holds the latest known list of a collection. Run is the only
// writer; readers get copies.
type Mirror[T any] struct {
	store      store.Store
	collection string
	decode     Decoder[T]
	less       func(a, b T) bool

	mu        sync.RWMutex
	items     []T
	loaded    bool
	listeners []func([]T)
}

// New builds a mirror of collection. less may be nil to keep key order.
func New[T any](s store.Store, collection string, decode Decoder[T], less func(a, b T) bool) *Mirror[T] {
	return &Mirror[T]{
		store:      s,
		collection: collection,
		decode:     decode,
		less:       less,
		items:      []T{},
	}
}

// NewEventMirror mirrors the events collection, newest first. Events without
// a creation time sort last.
func NewEventMirror(s store.Store) *Mirror[model.Event] {
	return New(s, store.Events, model.EventFromValue, func(a, b model.Event) bool {
		return a.CreatedAt > b.CreatedAt
	})
}

// OnChange registers fn to receive every new list. Register before Run.
func (m *Mirror[T]) OnChange(fn func([]T)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// Run subscribes and applies snapshots until ctx is done. A failed initial
// subscription is returned and leaves the list as it was.
func (m *Mirror[T]) Run(ctx context.Context) error {
	snaps, err := m.store.Subscribe(ctx, m.collection)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", m.collection, err)
	}
	for snap := range snaps {
		m.Apply(snap)
	}
	return ctx.Err()
}

// Apply replaces the list with snap and notifies listeners.
func (m *Mirror[T]) Apply(snap store.Snapshot) {
	items := make([]T, 0, snap.Len())
	for _, child := range snap.Children {
		items = append(items, m.decode(child.Key, child.Value))
	}
	if m.less != nil {
		sort.SliceStable(items, func(i, j int) bool { return m.less(items[i], items[j]) })
	}

	m.mu.Lock()
	m.items = items
	m.loaded = true
	listeners := append([]func([]T){}, m.listeners...)
	m.mu.Unlock()

	slog.Debug("mirror refreshed", slog.String("collection", m.collection), slog.Int("count", len(items)))
	for _, fn := range listeners {
		fn(copyOf(items))
	}
}

// Items returns a copy of the current list.
func (m *Mirror[T]) Items() []T {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyOf(m.items)
}

// Loaded reports whether any snapshot has been applied.
func (m *Mirror[T]) Loaded() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loaded
}

func copyOf[T any](items []T) []T {
	out := make([]T, len(items))
	copy(out, items)
	return out
}
