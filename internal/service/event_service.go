package service

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"technofest/internal/calendar"
	"technofest/internal/catalog"
	"technofest/internal/dashboard"
	apperrors "technofest/internal/errors"
	"technofest/internal/model"
	"technofest/internal/repository"
	"technofest/internal/store"
)

// DefaultCreator is recorded as createdBy when no signed-in actor is known.
const DefaultCreator = "admin"

// EventInput is the admin event form.
type EventInput struct {
	Title            string `json:"title" validate:"required"`
	Description      string `json:"description" validate:"required"`
	Category         string `json:"category" validate:"required"`
	Date             string `json:"date" validate:"required,datetime=2006-01-02"`
	Time             string `json:"time" validate:"required,datetime=15:04"`
	Venue            string `json:"venue" validate:"required"`
	RegistrationLink string `json:"registrationLink" validate:"required,url"`
	ImageURL         string `json:"imageUrl" validate:"required,url"`
	MaxParticipants  *int   `json:"maxParticipants,omitempty" validate:"omitempty,gt=0"`
}

var eventMessages = map[string]string{
	"title.required":            "Event title is required",
	"description.required":      "Event description is required",
	"category.required":         "Category is required",
	"date.required":             "Event date is required",
	"date.datetime":             "Please enter a valid date",
	"time.required":             "Event time is required",
	"time.datetime":             "Please enter a valid time",
	"venue.required":            "Venue is required",
	"registrationLink.required": "Registration link is required",
	"registrationLink.url":      "Please enter a valid registration link",
	"imageUrl.required":         "Event image URL is required",
	"imageUrl.url":              "Please enter a valid image URL",
	"maxParticipants.gt":        "Maximum participants must be a positive number",
}

// textPolicy strips every tag. Stored text is plain and unescaped so search
// matches what users read; escaping happens when it is rendered.
var textPolicy = bluemonday.StrictPolicy()

// EventSource is the live list of events, normally the events mirror.
type EventSource interface {
	Items() []model.Event
	Loaded() bool
}

// RegistrationRecorder records registrations without reporting failures.
type RegistrationRecorder interface {
	Record(ctx context.Context, eventID, userID string)
}

// EventService handles catalogue reads and admin writes.
type EventService interface {
	List(ctx context.Context, q catalog.Query) (catalog.Result, error)
	Get(ctx context.Context, id string) (model.Event, error)
	Create(ctx context.Context, actor string, in EventInput) (model.Event, error)
	Update(ctx context.Context, id string, in EventInput) (model.Event, error)
	Delete(ctx context.Context, id string) error
	Register(ctx context.Context, uid, eventID string) (link string, err error)
	Calendar(ctx context.Context) (string, error)
}

type eventService struct {
	events   repository.EventRepository
	source   EventSource
	recorder RegistrationRecorder
	loc      *time.Location
	now      func() time.Time
}

// NewEventService creates a new event service. source may be nil, in which
// case every read fetches the collection once.
func NewEventService(events repository.EventRepository, source EventSource, recorder RegistrationRecorder, loc *time.Location) EventService {
	if loc == nil {
		loc = time.Local
	}
	return &eventService{
		events:   events,
		source:   source,
		recorder: recorder,
		loc:      loc,
		now:      time.Now,
	}
}

// List filters the current catalogue, newest first.
func (s *eventService) List(ctx context.Context, q catalog.Query) (catalog.Result, error) {
	events, err := s.current(ctx)
	if err != nil {
		return catalog.Result{}, err
	}
	return catalog.Filter(events, q), nil
}

func (s *eventService) Get(ctx context.Context, id string) (model.Event, error) {
	return s.events.Get(ctx, id)
}

// Create validates and pushes a new event with server-side timestamps.
func (s *eventService) Create(ctx context.Context, actor string, in EventInput) (model.Event, error) {
	in = sanitizeEvent(in)
	if err := s.validateEvent(in); err != nil {
		return model.Event{}, err
	}
	if actor == "" {
		actor = DefaultCreator
	}

	fields := eventFields(in)
	fields["createdAt"] = store.ServerTimestamp
	fields["createdBy"] = actor
	if in.MaxParticipants == nil {
		delete(fields, "maxParticipants")
	}

	id, err := s.events.Create(ctx, fields)
	if err != nil {
		return model.Event{}, fmt.Errorf("create event: %w", err)
	}
	slog.InfoContext(ctx, "event created", slog.String("event_id", id), slog.String("created_by", actor))
	return s.events.Get(ctx, id)
}

// Update overwrites the form fields of an existing event. createdAt and
// createdBy are left alone.
func (s *eventService) Update(ctx context.Context, id string, in EventInput) (model.Event, error) {
	in = sanitizeEvent(in)
	if err := s.validateEvent(in); err != nil {
		return model.Event{}, err
	}
	if err := s.events.Update(ctx, id, eventFields(in)); err != nil {
		return model.Event{}, err
	}
	slog.InfoContext(ctx, "event updated", slog.String("event_id", id))
	return s.events.Get(ctx, id)
}

// Delete removes an event; a missing one is not an error.
func (s *eventService) Delete(ctx context.Context, id string) error {
	if err := s.events.Delete(ctx, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "event deleted", slog.String("event_id", id))
	return nil
}

// Register hands back the event's registration link and records the
// registration in the background.
func (s *eventService) Register(ctx context.Context, uid, eventID string) (string, error) {
	if uid == "" {
		return "", apperrors.ErrNotSignedIn
	}
	event, err := s.events.Get(ctx, eventID)
	if err != nil {
		return "", err
	}
	if event.RegistrationLink == "" {
		return "", apperrors.ErrNoRegistrationLink
	}
	if s.recorder != nil {
		s.recorder.Record(ctx, eventID, uid)
	}
	return event.RegistrationLink, nil
}

// Calendar renders the current catalogue as iCalendar text.
func (s *eventService) Calendar(ctx context.Context) (string, error) {
	events, err := s.current(ctx)
	if err != nil {
		return "", err
	}
	return calendar.Build(events, s.loc, s.now()), nil
}

func (s *eventService) current(ctx context.Context) ([]model.Event, error) {
	if s.source != nil && s.source.Loaded() {
		return s.source.Items(), nil
	}
	events, err := s.events.List(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "load events", slog.Any("error", err))
		return nil, fmt.Errorf("%w: %v", apperrors.ErrEventsUnavailable, err)
	}
	return events, nil
}

func (s *eventService) validateEvent(in EventInput) error {
	fields := ValidationFields(validate.Struct(in), eventMessages)
	if _, bad := fields["date"]; !bad {
		day, err := time.ParseInLocation(model.DateLayout, in.Date, s.loc)
		if err == nil && day.Before(dashboard.Today(s.now().In(s.loc))) {
			fields["date"] = "Event date cannot be in the past"
		}
	}
	return apperrors.NewValidationError(fields)
}

func sanitizeEvent(in EventInput) EventInput {
	in.Title = plainText(in.Title)
	in.Category = plainText(in.Category)
	in.Venue = plainText(in.Venue)
	in.Description = plainText(in.Description)
	in.Date = strings.TrimSpace(in.Date)
	in.Time = strings.TrimSpace(in.Time)
	in.RegistrationLink = strings.TrimSpace(in.RegistrationLink)
	in.ImageURL = strings.TrimSpace(in.ImageURL)
	return in
}

// plainText strips all markup and leaves unescaped text.
func plainText(s string) string {
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(s)))
}

func eventFields(in EventInput) store.Value {
	v := store.Value{
		"title":            in.Title,
		"description":      in.Description,
		"category":         in.Category,
		"date":             in.Date,
		"time":             in.Time,
		"venue":            in.Venue,
		"registrationLink": in.RegistrationLink,
		"imageUrl":         in.ImageURL,
		"updatedAt":        store.ServerTimestamp,
		"maxParticipants":  nil,
	}
	if in.MaxParticipants != nil {
		v["maxParticipants"] = *in.MaxParticipants
	}
	return v
}
