package service

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"technofest/internal/dashboard"
	apperrors "technofest/internal/errors"
	"technofest/internal/model"
	"technofest/internal/notify"
	"technofest/internal/repository"
	"technofest/internal/store"
)

// BackupTimeLayout matches JavaScript's Date.toISOString.
const BackupTimeLayout = "2006-01-02T15:04:05.000Z"

// NotificationList is the notification panel content.
type NotificationList struct {
	Items  []model.Notification `json:"items"`
	Unread int                  `json:"unread"`
}

// AdminService serves the admin dashboard pages.
type AdminService interface {
	Dashboard(ctx context.Context, refresh bool) (model.Report, error)
	EventsTable(ctx context.Context) ([]model.EventRow, error)
	Users(ctx context.Context) ([]model.User, error)
	Registrations(ctx context.Context) ([]model.Registration, error)
	Backup(ctx context.Context) (model.Backup, error)
	IsAdmin(ctx context.Context, uid string) (bool, error)
	GrantAdmin(ctx context.Context, uid string) error
	RevokeAdmin(ctx context.Context, uid string) error
	Notifications() NotificationList
	MarkNotificationRead(ctx context.Context, id int64) error
	MarkAllNotificationsRead(ctx context.Context) NotificationList
	ClearNotifications(ctx context.Context)
}

type adminService struct {
	store         store.Store
	reporter      *dashboard.Reporter
	events        repository.EventRepository
	users         repository.UserRepository
	registrations repository.RegistrationRepository
	admins        repository.AdminRepository
	center        *notify.Center
}

// NewAdminService creates a new admin service.
func NewAdminService(
	s store.Store,
	reporter *dashboard.Reporter,
	center *notify.Center,
) AdminService {
	return &adminService{
		store:         s,
		reporter:      reporter,
		events:        repository.NewEventRepository(s),
		users:         repository.NewUserRepository(s),
		registrations: repository.NewRegistrationRepository(s),
		admins:        repository.NewAdminRepository(s),
		center:        center,
	}
}

// Dashboard returns the cached report unless refresh is set.
func (s *adminService) Dashboard(ctx context.Context, refresh bool) (model.Report, error) {
	return s.reporter.Cached(ctx, refresh)
}

// EventsTable lists every event with its status, newest first.
func (s *adminService) EventsTable(ctx context.Context) ([]model.EventRow, error) {
	events, err := s.events.List(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "load events table", slog.Any("error", err))
		return nil, fmt.Errorf("%w: %v", apperrors.ErrEventsUnavailable, err)
	}
	return dashboard.EventRows(events, s.reporter.Now()), nil
}

func (s *adminService) Users(ctx context.Context) ([]model.User, error) {
	return s.users.List(ctx)
}

func (s *adminService) Registrations(ctx context.Context) ([]model.Registration, error) {
	return s.registrations.List(ctx)
}

// Backup dumps the three collections as stored.
func (s *adminService) Backup(ctx context.Context) (model.Backup, error) {
	collections := []string{store.Events, store.Users, store.Registrations}
	dumps := make([]map[string]map[string]any, len(collections))

	g, gctx := errgroup.WithContext(ctx)
	for i, name := range collections {
		g.Go(func() error {
			snap, err := s.store.Once(gctx, name)
			if err != nil {
				return fmt.Errorf("backup %s: %w", name, err)
			}
			dump := make(map[string]map[string]any, snap.Len())
			for _, ch := range snap.Children {
				dump[ch.Key] = map[string]any(ch.Value)
			}
			dumps[i] = dump
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		slog.ErrorContext(ctx, "backup failed", slog.Any("error", err))
		return model.Backup{}, fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err)
	}

	return model.Backup{
		Events:        dumps[0],
		Users:         dumps[1],
		Registrations: dumps[2],
		BackedUpAt:    s.reporter.Now().UTC().Format(BackupTimeLayout),
	}, nil
}

func (s *adminService) IsAdmin(ctx context.Context, uid string) (bool, error) {
	return s.admins.IsAdmin(ctx, uid)
}

// GrantAdmin adds a known user to the admin set.
func (s *adminService) GrantAdmin(ctx context.Context, uid string) error {
	if uid == "" {
		return apperrors.NewValidationError(map[string]string{"uid": "This field is required"})
	}
	if _, err := s.users.Get(ctx, uid); err != nil {
		return err
	}
	if err := s.admins.Grant(ctx, uid); err != nil {
		return err
	}
	slog.InfoContext(ctx, "admin granted", slog.String("uid", uid))
	return nil
}

// RevokeAdmin removes uid from the admin set; revoking a non-admin is a no-op.
func (s *adminService) RevokeAdmin(ctx context.Context, uid string) error {
	if uid == "" {
		return apperrors.NewValidationError(map[string]string{"uid": "This field is required"})
	}
	if err := s.admins.Revoke(ctx, uid); err != nil {
		return err
	}
	slog.InfoContext(ctx, "admin revoked", slog.String("uid", uid))
	return nil
}

func (s *adminService) Notifications() NotificationList {
	return NotificationList{Items: s.center.List(), Unread: s.center.Unread()}
}

func (s *adminService) MarkNotificationRead(ctx context.Context, id int64) error {
	if !s.center.MarkRead(ctx, id) {
		return apperrors.ErrNotificationNotFound
	}
	return nil
}

// MarkAllNotificationsRead is what opening the panel does.
func (s *adminService) MarkAllNotificationsRead(ctx context.Context) NotificationList {
	s.center.MarkAllRead(ctx)
	return s.Notifications()
}

func (s *adminService) ClearNotifications(ctx context.Context) {
	s.center.Clear(ctx)
}

