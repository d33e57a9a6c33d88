// Package notify keeps the admin notification list and feeds it from new
// records appearing in the store.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"technofest/internal/model"
)

// StorageKey is where the list is persisted.
const StorageKey = "admin_notifications"

// DefaultLimit caps how many notifications are kept.
const DefaultLimit = 100

// Persister saves the list between restarts. *cache.Client satisfies it.
type Persister interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Center is a newest-first notification list with read flags.
type Center struct {
	persist Persister
	limit   int
	now     func() time.Time

	mu     sync.Mutex
	items  []model.Notification
	lastID int64
}

// NewCenter returns an empty center. persist may be nil.
func NewCenter(persist Persister) *Center {
	return &Center{persist: persist, limit: DefaultLimit, now: time.Now, items: []model.Notification{}}
}

// Load restores a previously saved list. A missing or corrupt list leaves
// the center empty.
func (c *Center) Load(ctx context.Context) {
	if c.persist == nil {
		return
	}
	data, err := c.persist.Get(ctx, StorageKey)
	if err != nil || data == nil {
		return
	}
	var items []model.Notification
	if err := json.Unmarshal(data, &items); err != nil {
		slog.Warn("load notifications", slog.Any("error", err))
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = items
	for _, n := range items {
		if n.ID > c.lastID {
			c.lastID = n.ID
		}
	}
}

// Add puts a new unread notification at the top of the list.
func (c *Center) Add(ctx context.Context, message, typ string) model.Notification {
	if typ == "" {
		typ = model.NotificationInfo
	}
	c.mu.Lock()
	now := c.now()
	id := now.UnixMilli()
	if id <= c.lastID {
		id = c.lastID + 1
	}
	c.lastID = id

	n := model.Notification{
		ID:      id,
		Message: message,
		Type:    typ,
		Time:    now.UTC().Format(time.RFC3339Nano),
	}
	c.items = append([]model.Notification{n}, c.items...)
	if len(c.items) > c.limit {
		c.items = c.items[:c.limit]
	}
	c.mu.Unlock()

	c.save(ctx)
	return n
}

// List returns a copy, newest first.
func (c *Center) List() []model.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.Notification, len(c.items))
	copy(out, c.items)
	return out
}

// Unread is the badge count.
func (c *Center) Unread() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, item := range c.items {
		if !item.Read {
			n++
		}
	}
	return n
}

// MarkRead flags one notification. It reports whether id was found.
func (c *Center) MarkRead(ctx context.Context, id int64) bool {
	c.mu.Lock()
	found := false
	for i := range c.items {
		if c.items[i].ID == id {
			c.items[i].Read = true
			found = true
			break
		}
	}
	c.mu.Unlock()

	if found {
		c.save(ctx)
	}
	return found
}

// MarkAllRead flags every notification, as opening the panel does.
func (c *Center) MarkAllRead(ctx context.Context) {
	c.mu.Lock()
	for i := range c.items {
		c.items[i].Read = true
	}
	c.mu.Unlock()
	c.save(ctx)
}

// Clear empties the list.
func (c *Center) Clear(ctx context.Context) {
	c.mu.Lock()
	c.items = []model.Notification{}
	c.mu.Unlock()
	c.save(ctx)
}

func (c *Center) save(ctx context.Context) {
	if c.persist == nil {
		return
	}
	payload, err := json.Marshal(c.List())
	if err != nil {
		slog.Error("save notifications", slog.Any("error", err))
		return
	}
	if err := c.persist.Set(ctx, StorageKey, payload, 0); err != nil {
		slog.Error("save notifications", slog.Any("error", err))
	}
}
