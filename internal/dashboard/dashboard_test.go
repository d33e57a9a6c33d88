package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "technofest/internal/errors"
	"technofest/internal/model"
	"technofest/internal/store"
)

var now = time.Date(2025, 3, 14, 15, 0, 0, 0, time.UTC)

func TestCountUpcoming_TodayCounts(t *testing.T) {
	events := []model.Event{
		{ID: "y", Date: "2025-03-13"},
		{ID: "t", Date: "2025-03-14"},
		{ID: "n", Date: "2025-03-15"},
		{ID: "none"},
		{ID: "bad", Date: "soon"},
	}

	assert.Equal(t, 2, CountUpcoming(events, now))
}

func TestCountUpcoming_UsesZoneOfNow(t *testing.T) {
	// 23:30 UTC on the 14th is already the 15th in Kolkata.
	late := time.Date(2025, 3, 14, 23, 30, 0, 0, time.UTC)
	kolkata := time.FixedZone("IST", 5*3600+1800)
	events := []model.Event{{Date: "2025-03-14"}}

	assert.Equal(t, 1, CountUpcoming(events, late))
	assert.Equal(t, 0, CountUpcoming(events, late.In(kolkata)))
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		date string
		want model.EventStatus
	}{
		{"2025-03-13", model.EventCompleted},
		{"2025-03-14", model.EventOngoing},
		{"2025-03-15", model.EventUpcoming},
		{"", model.EventOngoing},
	}
	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusOf(model.Event{Date: tt.date}, now))
		})
	}
}

func TestPopularEvents_StableRanking(t *testing.T) {
	events := []model.Event{
		{ID: "a", Title: "A", Participants: 3},
		{ID: "b", Title: "B", Participants: 10},
		{ID: "c", Title: "C", Participants: 1},
		{ID: "d", Title: "D", Participants: 10},
	}

	got := PopularEvents(events)

	require.Len(t, got, 4)
	assert.Equal(t, model.PopularEvent{Rank: 1, ID: "b", Title: "B", Participants: 10}, got[0])
	assert.Equal(t, "d", got[1].ID)
	assert.Equal(t, "a", got[2].ID)
	assert.Equal(t, "c", got[3].ID)
	assert.Equal(t, 4, got[3].Rank)
}

func TestPopularEvents_TopFive(t *testing.T) {
	var events []model.Event
	for i := 0; i < 8; i++ {
		events = append(events, model.Event{ID: string(rune('a' + i)), Participants: i})
	}

	got := PopularEvents(events)

	require.Len(t, got, 5)
	assert.Equal(t, "h", got[0].ID)
	assert.Equal(t, 5, got[4].Rank)
}

func TestPopularEvents_MissingParticipantsIsZero(t *testing.T) {
	events := []model.Event{
		model.EventFromValue("a", store.Value{"title": "No count"}),
		model.EventFromValue("b", store.Value{"title": "Two", "participants": 2}),
	}

	got := PopularEvents(events)

	assert.Equal(t, "b", got[0].ID)
	assert.Equal(t, 0, got[1].Participants)
}

func TestRecentActivity_MergesNewestFirst(t *testing.T) {
	base := now.Add(-time.Hour).UnixMilli()
	events := []model.Event{
		{Title: "E1", CreatedAt: base + 1000},
		{Title: "E2", CreatedAt: base + 3000},
	}
	regs := []model.Registration{
		{RegisteredAt: base + 2000},
		{RegisteredAt: base + 4000},
	}

	got := RecentActivity(events, regs, now)

	require.Len(t, got, 4)
	assert.Equal(t, []int64{base + 4000, base + 3000, base + 2000, base + 1000},
		[]int64{got[0].Time, got[1].Time, got[2].Time, got[3].Time})
	assert.Equal(t, "New Registration", got[0].Title)
	assert.Equal(t, "fa-clipboard-check", got[0].Icon)
	assert.Equal(t, "New Event Created - E2", got[1].Title)
	assert.Equal(t, "fa-calendar-plus", got[1].Icon)
	assert.Equal(t, "59 minutes ago", got[3].TimeAgo)
}

func TestRecentActivity_KeepsFiveOfEach(t *testing.T) {
	var events []model.Event
	var regs []model.Registration
	for i := 1; i <= 7; i++ {
		events = append(events, model.Event{Title: "E", CreatedAt: int64(i * 10)})
		regs = append(regs, model.Registration{RegisteredAt: int64(i*10 + 5)})
	}

	got := RecentActivity(events, regs, now)

	require.Len(t, got, 10)
	assert.Equal(t, int64(75), got[0].Time)
	assert.Equal(t, int64(30), got[9].Time)
}

func TestRecentActivity_TiesKeepEventsFirst(t *testing.T) {
	got := RecentActivity(
		[]model.Event{{Title: "E", CreatedAt: 50}},
		[]model.Registration{{RegisteredAt: 50}},
		now,
	)

	require.Len(t, got, 2)
	assert.Equal(t, model.ActivityEvent, got[0].Type)
}

func TestCompute_Totals(t *testing.T) {
	c := Collections{
		Events:        []model.Event{{Date: "2025-03-20"}, {Date: "2025-01-01"}},
		Users:         []model.User{{ID: "u1"}, {ID: "u2"}, {ID: "u3"}},
		Registrations: []model.Registration{{ID: "r1"}},
	}

	r := Compute(c, now)

	assert.Equal(t, model.Stats{TotalEvents: 2, TotalUsers: 3, TotalRegistrations: 1, UpcomingEvents: 1}, r.Stats)
	assert.Equal(t, now.UnixMilli(), r.GeneratedAt)
}

func TestEventRows_NewestFirstWithStatus(t *testing.T) {
	rows := EventRows([]model.Event{
		{ID: "old", CreatedAt: 1, Date: "2025-01-01"},
		{ID: "new", CreatedAt: 2, Date: "2025-12-01"},
	}, now)

	require.Len(t, rows, 2)
	assert.Equal(t, "new", rows[0].ID)
	assert.Equal(t, model.EventUpcoming, rows[0].Status)
	assert.Equal(t, model.EventCompleted, rows[1].Status)
}

func TestReporter_Report(t *testing.T) {
	s := store.NewMemory()
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, store.Events, "e1", store.Value{"title": "Expo", "date": "2025-03-14", "participants": 4, "createdAt": now.UnixMilli()}))
	require.NoError(t, s.Set(ctx, store.Users, "u1", store.Value{"email": "a@b.co"}))

	r := NewReporter(s, nil, nil, time.UTC)
	r.now = func() time.Time { return now }

	report, err := r.Report(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Stats.TotalEvents)
	assert.Equal(t, 1, report.Stats.TotalUsers)
	assert.Equal(t, 0, report.Stats.TotalRegistrations)
	assert.Equal(t, 1, report.Stats.UpcomingEvents)
	require.Len(t, report.PopularEvents, 1)
	assert.Equal(t, 4, report.PopularEvents[0].Participants)

	cached, err := r.Cached(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, report.Stats, cached.Stats)
}

func TestReporter_AnyFailureAbortsReport(t *testing.T) {
	s := store.NewMemory()
	s.FailReads(store.Registrations, errors.New("permission denied"))

	r := NewReporter(s, nil, nil, time.UTC)
	_, err := r.Report(context.Background())

	assert.ErrorIs(t, err, apperrors.ErrDashboardUnavailable)
}

func TestTimeAgo(t *testing.T) {
	assert.Equal(t, "", TimeAgo(0, now))
	assert.Equal(t, "2 days ago", TimeAgo(now.Add(-48*time.Hour).UnixMilli(), now))
}

func TestNewRefresher_RejectsBadSpec(t *testing.T) {
	_, err := NewRefresher(NewReporter(store.NewMemory(), nil, nil, time.UTC), "not a schedule")
	assert.Error(t, err)

	r, err := NewRefresher(NewReporter(store.NewMemory(), nil, nil, time.UTC), "@every 1h")
	require.NoError(t, err)
	r.Start()
	r.Stop(context.Background())
}
