package store

import (
	"context"
	"log/slog"
	"sync"
)

// feed fans change kicks out to subscribers of a collection. Kicks carry no
// data; a woken subscriber reloads the whole collection.
type feed struct {
	mu   sync.Mutex
	subs map[string]map[chan struct{}]struct{}
}

func newFeed() *feed {
	return &feed{subs: make(map[string]map[chan struct{}]struct{})}
}

func (f *feed) add(collection string) chan struct{} {
	kick := make(chan struct{}, 1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subs[collection] == nil {
		f.subs[collection] = make(map[chan struct{}]struct{})
	}
	f.subs[collection][kick] = struct{}{}
	return kick
}

func (f *feed) remove(collection string, kick chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.subs[collection], kick)
}

// notify wakes every subscriber of collection. Pending kicks coalesce.
func (f *feed) notify(collection string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for kick := range f.subs[collection] {
		select {
		case kick <- struct{}{}:
		default:
		}
	}
}

type loader func(ctx context.Context) (Snapshot, error)

// subscribe runs the snapshot loop shared by all backends. The initial
// snapshot is always delivered; later ones coalesce so a slow consumer only
// receives the newest.
func (f *feed) subscribe(ctx context.Context, collection string, load loader) (<-chan Snapshot, error) {
	kick := f.add(collection)
	first, err := load(ctx)
	if err != nil {
		f.remove(collection, kick)
		return nil, err
	}

	out := make(chan Snapshot)
	go func() {
		defer close(out)
		defer f.remove(collection, kick)

		select {
		case out <- first:
		case <-ctx.Done():
			return
		}

		var pending *Snapshot
		for {
			var send chan<- Snapshot
			var next Snapshot
			if pending != nil {
				send = out
				next = *pending
			}
			select {
			case <-ctx.Done():
				return
			case send <- next:
				pending = nil
			case <-kick:
				snap, err := load(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					slog.Error("reload snapshot", slog.String("collection", collection), slog.Any("error", err))
					continue
				}
				pending = &snap
			}
		}
	}()
	return out, nil
}
