package dashboard

import (
	"sort"
	"time"

	"technofest/internal/model"
)

const (
	recentLimit  = 5
	popularLimit = 5

	iconEventCreated = "fa-calendar-plus"
	iconRegistration = "fa-clipboard-check"
)

// Collections are the normalized records a report is computed from, each in
// store key order.
type Collections struct {
	Events        []model.Event
	Users         []model.User
	Registrations []model.Registration
}

// Compute builds the full dashboard report. It is pure: the same input and
// now always give the same report.
func Compute(c Collections, now time.Time) model.Report {
	return model.Report{
		Stats: model.Stats{
			TotalEvents:        len(c.Events),
			TotalUsers:         len(c.Users),
			TotalRegistrations: len(c.Registrations),
			UpcomingEvents:     CountUpcoming(c.Events, now),
		},
		RecentActivity: RecentActivity(c.Events, c.Registrations, now),
		PopularEvents:  PopularEvents(c.Events),
		GeneratedAt:    now.UnixMilli(),
	}
}

// RecentActivity merges the five newest events by creation time with the five
// newest registrations, newest first. Ties keep events ahead of
// registrations.
func RecentActivity(events []model.Event, regs []model.Registration, now time.Time) []model.Activity {
	activities := make([]model.Activity, 0, 2*recentLimit)

	for _, e := range lastByTime(events, func(e model.Event) int64 { return e.CreatedAt }) {
		activities = append(activities, model.Activity{
			Type:  model.ActivityEvent,
			Title: "New Event Created - " + e.Title,
			Time:  e.CreatedAt,
			Icon:  iconEventCreated,
		})
	}
	for _, r := range lastByTime(regs, func(r model.Registration) int64 { return r.RegisteredAt }) {
		activities = append(activities, model.Activity{
			Type:  model.ActivityRegistration,
			Title: "New Registration",
			Time:  r.RegisteredAt,
			Icon:  iconRegistration,
		})
	}

	sort.SliceStable(activities, func(i, j int) bool {
		return activities[i].Time > activities[j].Time
	})
	for i := range activities {
		activities[i].TimeAgo = TimeAgo(activities[i].Time, now)
	}
	return activities
}

// lastByTime orders items ascending by ts and keeps the last recentLimit.
func lastByTime[T any](items []T, ts func(T) int64) []T {
	sorted := make([]T, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool { return ts(sorted[i]) < ts(sorted[j]) })
	if len(sorted) > recentLimit {
		sorted = sorted[len(sorted)-recentLimit:]
	}
	return sorted
}

// PopularEvents ranks events by participants, keeping key order among equals,
// and returns the top five.
func PopularEvents(events []model.Event) []model.PopularEvent {
	sorted := make([]model.Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Participants > sorted[j].Participants
	})
	if len(sorted) > popularLimit {
		sorted = sorted[:popularLimit]
	}

	out := make([]model.PopularEvent, 0, len(sorted))
	for i, e := range sorted {
		out = append(out, model.PopularEvent{
			Rank:         i + 1,
			ID:           e.ID,
			Title:        e.Title,
			Participants: e.Participants,
		})
	}
	return out
}

// EventRows pairs each event with its status, newest created first.
func EventRows(events []model.Event, now time.Time) []model.EventRow {
	sorted := make([]model.Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].CreatedAt > sorted[j].CreatedAt })

	rows := make([]model.EventRow, 0, len(sorted))
	for _, e := range sorted {
		rows = append(rows, model.EventRow{Event: e, Status: StatusOf(e, now)})
	}
	return rows
}
