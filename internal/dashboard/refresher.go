package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Refresher recomputes the cached report on a cron schedule.
type Refresher struct {
	reporter *Reporter
	cron     *cron.Cron
	timeout  time.Duration
}

// NewRefresher schedules reporter.Report on spec, e.g. "@every 1m" or
// "*/5 * * * *".
func NewRefresher(reporter *Reporter, spec string) (*Refresher, error) {
	r := &Refresher{
		reporter: reporter,
		cron:     cron.New(),
		timeout:  30 * time.Second,
	}
	if _, err := r.cron.AddFunc(spec, r.refresh); err != nil {
		return nil, fmt.Errorf("schedule dashboard refresh %q: %w", spec, err)
	}
	return r, nil
}

func (r *Refresher) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	report, err := r.reporter.Report(ctx)
	if err != nil {
		// already logged by the reporter
		return
	}
	slog.Debug("dashboard refreshed",
		slog.Int("events", report.Stats.TotalEvents),
		slog.Int("registrations", report.Stats.TotalRegistrations),
	)
}

// Start runs the schedule in the background.
func (r *Refresher) Start() {
	r.cron.Start()
}

// Stop halts the schedule and waits for a running refresh to finish or ctx
// to expire.
func (r *Refresher) Stop(ctx context.Context) {
	done := r.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}
