package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"technofest/internal/cache"
	apperrors "technofest/internal/errors"
	"technofest/internal/metrics"
	"technofest/internal/model"
	"technofest/internal/store"
)

// ReportCacheKey holds the last computed report in redis.
const ReportCacheKey = "dashboard:report"

// Fetch loads the three collections concurrently. Any failure aborts the
// whole fetch.
func Fetch(ctx context.Context, s store.Store) (Collections, error) {
	var events, users, regs store.Snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		events, err = s.Once(gctx, store.Events)
		return err
	})
	g.Go(func() (err error) {
		users, err = s.Once(gctx, store.Users)
		return err
	})
	g.Go(func() (err error) {
		regs, err = s.Once(gctx, store.Registrations)
		return err
	})
	if err := g.Wait(); err != nil {
		return Collections{}, err
	}

	c := Collections{
		Events:        make([]model.Event, 0, events.Len()),
		Users:         make([]model.User, 0, users.Len()),
		Registrations: make([]model.Registration, 0, regs.Len()),
	}
	for _, ch := range events.Children {
		c.Events = append(c.Events, model.EventFromValue(ch.Key, ch.Value))
	}
	for _, ch := range users.Children {
		c.Users = append(c.Users, model.UserFromValue(ch.Key, ch.Value))
	}
	for _, ch := range regs.Children {
		c.Registrations = append(c.Registrations, model.RegistrationFromValue(ch.Key, ch.Value))
	}
	return c, nil
}

// Reporter produces dashboard reports and keeps the latest one cached.
type Reporter struct {
	store   store.Store
	cache   *cache.Client
	metrics metrics.Recorder
	loc     *time.Location
	now     func() time.Time
	ttl     time.Duration
}

// NewReporter builds a Reporter computing "today" in loc. cache and rec may
// be nil.
func NewReporter(s store.Store, c *cache.Client, rec metrics.Recorder, loc *time.Location) *Reporter {
	if rec == nil {
		rec = metrics.Nop{}
	}
	if loc == nil {
		loc = time.Local
	}
	return &Reporter{store: s, cache: c, metrics: rec, loc: loc, now: time.Now, ttl: 10 * time.Minute}
}

// Now is the reporter's clock in its configured zone.
func (r *Reporter) Now() time.Time {
	return r.now().In(r.loc)
}

// Report fetches everything and computes a fresh report, caching it.
func (r *Reporter) Report(ctx context.Context) (model.Report, error) {
	start := time.Now()
	c, err := Fetch(ctx, r.store)
	if err != nil {
		r.metrics.RecordReportFailure()
		slog.Error("load dashboard data", slog.Any("error", err))
		return model.Report{}, fmt.Errorf("%w: %v", apperrors.ErrDashboardUnavailable, err)
	}

	report := Compute(c, r.Now())
	r.metrics.RecordReport(report, time.Since(start))

	if payload, err := json.Marshal(report); err == nil {
		_ = r.cache.Set(ctx, ReportCacheKey, payload, r.ttl)
	}
	return report, nil
}

// Cached returns the last cached report, or computes one when none is cached
// or refresh is set.
func (r *Reporter) Cached(ctx context.Context, refresh bool) (model.Report, error) {
	if !refresh {
		if data, _ := r.cache.Get(ctx, ReportCacheKey); data != nil {
			var report model.Report
			if err := json.Unmarshal(data, &report); err == nil {
				return report, nil
			}
		}
	}
	return r.Report(ctx)
}
