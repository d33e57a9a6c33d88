// Package dashboard aggregates the admin dashboard figures from the events,
// users and registrations collections.
package dashboard

import (
	"time"

	"github.com/dustin/go-humanize"

	"technofest/internal/model"
)

// Today returns midnight of now's calendar day, in now's location.
func Today(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}

// IsUpcoming reports whether e is dated today or later. Events without a
// valid date are not upcoming.
func IsUpcoming(e model.Event, now time.Time) bool {
	day, ok := e.EventDate(now.Location())
	if !ok {
		return false
	}
	return !day.Before(Today(now))
}

// CountUpcoming counts events dated today or later.
func CountUpcoming(events []model.Event, now time.Time) int {
	n := 0
	for _, e := range events {
		if IsUpcoming(e, now) {
			n++
		}
	}
	return n
}

// StatusOf classifies e against today. An event without a usable date is
// treated as happening today.
func StatusOf(e model.Event, now time.Time) model.EventStatus {
	today := Today(now)
	day, ok := e.EventDate(now.Location())
	if !ok {
		day = today
	}
	switch {
	case day.Before(today):
		return model.EventCompleted
	case day.Equal(today):
		return model.EventOngoing
	default:
		return model.EventUpcoming
	}
}

// TimeAgo renders a ms timestamp relative to now, e.g. "3 hours ago".
// A zero timestamp renders as "".
func TimeAgo(ms int64, now time.Time) string {
	if ms <= 0 {
		return ""
	}
	return humanize.RelTime(time.UnixMilli(ms), now, "ago", "from now")
}
