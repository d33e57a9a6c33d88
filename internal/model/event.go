package model

import (
	"strings"
	"time"

	"technofest/internal/store"
)

// Defaults applied to event fields that are absent or empty.
const (
	DefaultCategory = "technical"
	DefaultVenue    = "Main Auditorium"
	DefaultImageURL = "https://images.unsplash.com/photo-1515187029135-18ee286d815b?ixlib=rb-4.0.3&auto=format&fit=crop&w=500&q=80"

	// DateLayout is the calendar date format of Event.Date.
	DateLayout = "2006-01-02"
	// TimeLayout is the wall clock format of Event.Time.
	TimeLayout = "15:04"
)

// Event is a catalogue entry after normalization. Every field holds a usable
// value, so filtering and rendering never deal with absent data.
type Event struct {
	ID               string `json:"id" yaml:"-"`
	Title            string `json:"title" yaml:"title"`
	Description      string `json:"description" yaml:"description"`
	Category         string `json:"category" yaml:"category"`
	Date             string `json:"date" yaml:"date"`
	Time             string `json:"time" yaml:"time"`
	Venue            string `json:"venue" yaml:"venue"`
	RegistrationLink string `json:"registrationLink" yaml:"registrationLink"`
	ImageURL         string `json:"imageUrl" yaml:"imageUrl"`
	MaxParticipants  *int   `json:"maxParticipants" yaml:"maxParticipants"`
	Participants     int    `json:"participants" yaml:"participants"`
	CreatedAt        int64  `json:"createdAt" yaml:"-"`
	UpdatedAt        int64  `json:"updatedAt" yaml:"-"`
	CreatedBy        string `json:"createdBy" yaml:"-"`
}

// EventFromValue normalizes a stored record.
func EventFromValue(key string, v store.Value) Event {
	e := Event{
		ID:               key,
		Title:            v.String("title"),
		Description:      v.String("description"),
		Category:         orDefault(v.String("category"), DefaultCategory),
		Date:             v.String("date"),
		Time:             v.String("time"),
		Venue:            orDefault(v.String("venue"), DefaultVenue),
		RegistrationLink: v.String("registrationLink"),
		ImageURL:         orDefault(v.String("imageUrl"), DefaultImageURL),
		CreatedAt:        Millis(v["createdAt"]),
		UpdatedAt:        Millis(v["updatedAt"]),
		CreatedBy:        v.String("createdBy"),
	}
	if n, ok := v.Int("participants"); ok && n > 0 {
		e.Participants = int(n)
	}
	if n, ok := v.Int("maxParticipants"); ok && n > 0 {
		limit := int(n)
		e.MaxParticipants = &limit
	}
	return e
}

// EventDate parses Date as a calendar day in loc.
func (e Event) EventDate(loc *time.Location) (time.Time, bool) {
	if e.Date == "" {
		return time.Time{}, false
	}
	d, err := time.ParseInLocation(DateLayout, strings.TrimSpace(e.Date), loc)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// StartsAt combines Date and Time in loc. A missing or bad time means midnight.
func (e Event) StartsAt(loc *time.Location) (time.Time, bool) {
	day, ok := e.EventDate(loc)
	if !ok {
		return time.Time{}, false
	}
	clock, err := time.ParseInLocation(TimeLayout, strings.TrimSpace(e.Time), loc)
	if err != nil {
		return day, true
	}
	return time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), 0, 0, loc), true
}

// Millis reads a timestamp stored as ms since epoch or as an RFC3339 string.
// Anything else is 0.
func Millis(x any) int64 {
	if n, ok := store.ToInt(x); ok {
		return n
	}
	if s, ok := x.(string); ok {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t.UnixMilli()
		}
	}
	return 0
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
