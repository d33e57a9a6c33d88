package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Memory keeps every collection in process. Used by tests and STORE_DRIVER=memory.
type Memory struct {
	mu    sync.RWMutex
	data  map[string]map[string]Value
	feed  *feed
	now   func() time.Time
	fails map[string]error
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		data:  make(map[string]map[string]Value),
		feed:  newFeed(),
		now:   time.Now,
		fails: make(map[string]error),
	}
}

// SetClock overrides the time used for ServerTimestamp.
func (m *Memory) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// FailReads makes every read of collection return err until cleared with nil.
func (m *Memory) FailReads(collection string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.fails, collection)
		return
	}
	m.fails[collection] = err
}

func (m *Memory) Subscribe(ctx context.Context, collection string) (<-chan Snapshot, error) {
	return m.feed.subscribe(ctx, collection, func(ctx context.Context) (Snapshot, error) {
		return m.Once(ctx, collection)
	})
}

func (m *Memory) Once(ctx context.Context, collection string) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.fails[collection]; err != nil {
		return Snapshot{}, err
	}

	records := m.data[collection]
	keys := make([]string, 0, len(records))
	for k := range records {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	snap := Snapshot{Collection: collection, Children: make([]Child, 0, len(keys))}
	for _, k := range keys {
		snap.Children = append(snap.Children, Child{Key: k, Value: records[k].Clone()})
	}
	return snap, nil
}

func (m *Memory) Get(ctx context.Context, collection, key string) (Value, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.fails[collection]; err != nil {
		return nil, err
	}
	v, ok := m.data[collection][key]
	if !ok {
		return nil, ErrNotFound
	}
	return v.Clone(), nil
}

func (m *Memory) Set(ctx context.Context, collection, key string, v Value) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	if m.data[collection] == nil {
		m.data[collection] = make(map[string]Value)
	}
	m.data[collection][key] = resolve(v, m.now())
	m.mu.Unlock()

	m.feed.notify(collection)
	return nil
}

func (m *Memory) Update(ctx context.Context, collection, key string, patch Value) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	current, ok := m.data[collection][key]
	if !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	m.data[collection][key] = merge(current.Clone(), patch, m.now())
	m.mu.Unlock()

	m.feed.notify(collection)
	return nil
}

func (m *Memory) Remove(ctx context.Context, collection, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	_, ok := m.data[collection][key]
	delete(m.data[collection], key)
	m.mu.Unlock()

	if ok {
		m.feed.notify(collection)
	}
	return nil
}

func (m *Memory) Push(ctx context.Context, collection string, v Value) (string, error) {
	key, err := NewPushKey()
	if err != nil {
		return "", err
	}
	if err := m.Set(ctx, collection, key, v); err != nil {
		return "", err
	}
	return key, nil
}

func (m *Memory) Close() error { return nil }
