package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const keySep = "/"

// Badger stores each record as JSON under "<collection>/<key>" in an embedded
// badger database. Change notification is process-local.
type Badger struct {
	db   *badger.DB
	feed *feed
	now  func() time.Time
}

// NewBadger wraps an open database. Close closes it.
func NewBadger(db *badger.DB) *Badger {
	return &Badger{db: db, feed: newFeed(), now: time.Now}
}

func recordKey(collection, key string) []byte {
	return []byte(collection + keySep + key)
}

func (b *Badger) Subscribe(ctx context.Context, collection string) (<-chan Snapshot, error) {
	return b.feed.subscribe(ctx, collection, func(ctx context.Context) (Snapshot, error) {
		return b.Once(ctx, collection)
	})
}

func (b *Badger) Once(ctx context.Context, collection string) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	snap := Snapshot{Collection: collection, Children: []Child{}}
	prefix := []byte(collection + keySep)

	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			raw, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			v, err := Decode(raw)
			if err != nil {
				return err
			}
			key := strings.TrimPrefix(string(item.Key()), string(prefix))
			snap.Children = append(snap.Children, Child{Key: key, Value: v})
		}
		return nil
	})
	if err != nil {
		return Snapshot{}, fmt.Errorf("scan %s: %w", collection, err)
	}
	return snap, nil
}

func (b *Badger) Get(ctx context.Context, collection, key string) (Value, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var v Value
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(recordKey(collection, key))
		if err != nil {
			return err
		}
		raw, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		v, err = Decode(raw)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", collection, key, err)
	}
	return v, nil
}

func (b *Badger) Set(ctx context.Context, collection, key string, v Value) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := Encode(resolve(v, b.now()))
	if err != nil {
		return err
	}
	if err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(recordKey(collection, key), raw)
	}); err != nil {
		return fmt.Errorf("set %s/%s: %w", collection, key, err)
	}
	b.feed.notify(collection)
	return nil
}

func (b *Badger) Update(ctx context.Context, collection, key string, patch Value) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := b.db.Update(func(txn *badger.Txn) error {
		k := recordKey(collection, key)
		item, err := txn.Get(k)
		if err != nil {
			return err
		}
		raw, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		current, err := Decode(raw)
		if err != nil {
			return err
		}
		next, err := Encode(merge(current, patch, b.now()))
		if err != nil {
			return err
		}
		return txn.Set(k, next)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, key, err)
	}
	b.feed.notify(collection)
	return nil
}

func (b *Badger) Remove(ctx context.Context, collection, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(recordKey(collection, key))
	}); err != nil {
		return fmt.Errorf("remove %s/%s: %w", collection, key, err)
	}
	b.feed.notify(collection)
	return nil
}

func (b *Badger) Push(ctx context.Context, collection string, v Value) (string, error) {
	key, err := NewPushKey()
	if err != nil {
		return "", err
	}
	if err := b.Set(ctx, collection, key, v); err != nil {
		return "", err
	}
	return key, nil
}

func (b *Badger) Close() error {
	return b.db.Close()
}
