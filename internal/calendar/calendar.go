// Package calendar exports the event catalogue as an iCalendar feed.
package calendar

import (
	"time"

	ical "github.com/arran4/golang-ical"

	"technofest/internal/model"
)

const (
	// ProductID identifies the feed producer.
	ProductID = "-//technofest//events//EN"
	// DefaultDuration is assumed for every event; records carry no end time.
	DefaultDuration = 2 * time.Hour
)

// Build renders events in order. Times are read in loc; events without a
// parseable date are left out.
func Build(events []model.Event, loc *time.Location, stamp time.Time) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(ProductID)

	for _, e := range events {
		start, ok := e.StartsAt(loc)
		if !ok {
			continue
		}
		ev := cal.AddEvent(e.ID + "@technofest")
		ev.SetDtStampTime(stamp)
		if e.CreatedAt > 0 {
			ev.SetCreatedTime(time.UnixMilli(e.CreatedAt))
		}
		if e.UpdatedAt > 0 {
			ev.SetModifiedAt(time.UnixMilli(e.UpdatedAt))
		}
		ev.SetStartAt(start)
		ev.SetEndAt(start.Add(DefaultDuration))
		ev.SetSummary(e.Title)
		ev.SetLocation(e.Venue)
		if e.Description != "" {
			ev.SetDescription(e.Description)
		}
		if e.RegistrationLink != "" {
			ev.SetURL(e.RegistrationLink)
		}
		ev.SetProperty(ical.ComponentPropertyCategories, e.Category)
	}
	return cal.Serialize()
}
