package notify

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"technofest/internal/model"
	"technofest/internal/store"
)

type watched struct {
	collection string
	typ        string
	message    func(store.Value) string
}

var watchList = []watched{
	{store.Events, model.NotificationEvent, func(v store.Value) string { return "New event added: " + v.String("title") }},
	{store.Users, model.NotificationUser, func(v store.Value) string { return "New user registered: " + v.String("email") }},
	{store.Registrations, model.NotificationRegistration, func(store.Value) string { return "New event registration" }},
}

// OnAdded is called for every notification the watcher creates.
type OnAdded func(model.Notification)

// Watch subscribes to events, users and registrations and adds a
// notification for each record that appears after the first snapshot. It
// returns when ctx is done or any subscription fails to start.
func Watch(ctx context.Context, s store.Store, center *Center, onAdded OnAdded) error {
	wctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(wctx)
	for _, w := range watchList {
		snaps, err := s.Subscribe(gctx, w.collection)
		if err != nil {
			return fmt.Errorf("watch %s: %w", w.collection, err)
		}
		g.Go(func() error {
			watchCollection(gctx, snaps, w, center, onAdded)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func watchCollection(ctx context.Context, snaps <-chan store.Snapshot, w watched, center *Center, onAdded OnAdded) {
	var seen map[string]struct{}
	for snap := range snaps {
		if seen == nil {
			seen = make(map[string]struct{}, snap.Len())
			for _, ch := range snap.Children {
				seen[ch.Key] = struct{}{}
			}
			continue
		}
		for _, ch := range snap.Children {
			if _, ok := seen[ch.Key]; ok {
				continue
			}
			seen[ch.Key] = struct{}{}
			n := center.Add(ctx, w.message(ch.Value), w.typ)
			slog.Debug("notification added", slog.String("collection", w.collection), slog.String("key", ch.Key))
			if onAdded != nil {
				onAdded(n)
			}
		}
	}
}
