package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"technofest/internal/dashboard"
	apperrors "technofest/internal/errors"
	"technofest/internal/model"
	"technofest/internal/notify"
	"technofest/internal/store"
)

func newAdminService(t *testing.T) (AdminService, *store.Memory, *notify.Center) {
	t.Helper()
	mem := store.NewMemory()
	center := notify.NewCenter(nil)
	return NewAdminService(mem, dashboard.NewReporter(mem, nil, nil, time.UTC), center), mem, center
}

func seedCollections(t *testing.T, mem *store.Memory) {
	t.Helper()
	ctx := context.Background()
	today := time.Now().UTC().Format(model.DateLayout)
	require.NoError(t, mem.Set(ctx, store.Events, "old", store.Value{"title": "Old", "date": "2000-01-01", "createdAt": 1, "participants": 4}))
	require.NoError(t, mem.Set(ctx, store.Events, "now", store.Value{"title": "Now", "date": today, "createdAt": 2}))
	require.NoError(t, mem.Set(ctx, store.Users, "u1", store.Value{"name": "Ana", "email": "ana@fest.io"}))
	require.NoError(t, mem.Set(ctx, store.Registrations, "r1", store.Value{"eventId": "old", "userId": "u1", "registeredAt": 3}))
}

func TestAdminService_Dashboard(t *testing.T) {
	svc, mem, _ := newAdminService(t)
	seedCollections(t, mem)

	report, err := svc.Dashboard(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Stats.TotalEvents)
	assert.Equal(t, 1, report.Stats.TotalUsers)
	assert.Equal(t, 1, report.Stats.TotalRegistrations)
	assert.Equal(t, 1, report.Stats.UpcomingEvents)
	require.NotEmpty(t, report.PopularEvents)
	assert.Equal(t, "old", report.PopularEvents[0].ID)

	mem.FailReads(store.Users, errors.New("offline"))
	_, err = svc.Dashboard(context.Background(), true)
	assert.ErrorIs(t, err, apperrors.ErrDashboardUnavailable)
}

func TestAdminService_EventsTable(t *testing.T) {
	svc, mem, _ := newAdminService(t)
	seedCollections(t, mem)

	rows, err := svc.EventsTable(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "now", rows[0].ID)
	assert.Equal(t, model.EventOngoing, rows[0].Status)
	assert.Equal(t, model.EventCompleted, rows[1].Status)
}

func TestAdminService_Backup(t *testing.T) {
	svc, mem, _ := newAdminService(t)
	seedCollections(t, mem)

	backup, err := svc.Backup(context.Background())
	require.NoError(t, err)
	assert.Len(t, backup.Events, 2)
	assert.Equal(t, "Ana", backup.Users["u1"]["name"])
	assert.Equal(t, "old", backup.Registrations["r1"]["eventId"])

	at, err := time.Parse(BackupTimeLayout, backup.BackedUpAt)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), at, time.Minute)

	mem.FailReads(store.Registrations, errors.New("offline"))
	_, err = svc.Backup(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrStoreUnavailable)
}

func TestAdminService_GrantRevoke(t *testing.T) {
	svc, mem, _ := newAdminService(t)
	seedCollections(t, mem)
	ctx := context.Background()

	assert.ErrorIs(t, svc.GrantAdmin(ctx, "ghost"), apperrors.ErrUserNotFound)

	var verr *apperrors.ValidationError
	assert.ErrorAs(t, svc.GrantAdmin(ctx, ""), &verr)

	require.NoError(t, svc.GrantAdmin(ctx, "u1"))
	ok, err := svc.IsAdmin(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, svc.RevokeAdmin(ctx, "u1"))
	require.NoError(t, svc.RevokeAdmin(ctx, "u1"))
	ok, err = svc.IsAdmin(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAdminService_Notifications(t *testing.T) {
	svc, _, center := newAdminService(t)
	ctx := context.Background()

	first := center.Add(ctx, "New event added: Hackathon", model.NotificationEvent)
	center.Add(ctx, "New event registration", model.NotificationRegistration)

	list := svc.Notifications()
	assert.Len(t, list.Items, 2)
	assert.Equal(t, 2, list.Unread)

	require.NoError(t, svc.MarkNotificationRead(ctx, first.ID))
	assert.Equal(t, 1, svc.Notifications().Unread)
	assert.ErrorIs(t, svc.MarkNotificationRead(ctx, 42), apperrors.ErrNotificationNotFound)

	assert.Equal(t, 0, svc.MarkAllNotificationsRead(ctx).Unread)

	svc.ClearNotifications(ctx)
	assert.Empty(t, svc.Notifications().Items)
}
