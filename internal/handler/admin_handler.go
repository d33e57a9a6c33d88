package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"technofest/internal/errors"
	"technofest/internal/service"
)

// AdminHandler serves the admin dashboard.
type AdminHandler struct {
	adminService service.AdminService
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(adminService service.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

// RequireAdmin rejects callers that are not in the admin set. It must run
// after the JWT middleware.
func (h *AdminHandler) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		uid := userID(c)
		if uid == "" {
			return httpError(errors.ErrInvalidToken)
		}
		ok, err := h.adminService.IsAdmin(c.Request().Context(), uid)
		if err != nil {
			return httpError(err)
		}
		if !ok {
			return httpError(errors.ErrForbidden)
		}
		return next(c)
	}
}

// Dashboard godoc
// @Summary Dashboard report
// @Description Totals, upcoming count, recent activity and popular events. Served from cache unless refresh is set.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param refresh query bool false "Recompute instead of using the cached report"
// @Success 200 {object} model.Report
// @Failure 502 {object} errors.ErrorResponse
// @Router /admin/dashboard [get]
func (h *AdminHandler) Dashboard(c echo.Context) error {
	refresh, _ := strconv.ParseBool(c.QueryParam("refresh"))
	report, err := h.adminService.Dashboard(c.Request().Context(), refresh)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, report)
}

// Events godoc
// @Summary Events table
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.EventRow
// @Router /admin/events [get]
func (h *AdminHandler) Events(c echo.Context) error {
	rows, err := h.adminService.EventsTable(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, rows)
}

// Users godoc
// @Summary All user profiles
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.User
// @Router /admin/users [get]
func (h *AdminHandler) Users(c echo.Context) error {
	users, err := h.adminService.Users(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, users)
}

// Registrations godoc
// @Summary All registrations
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Registration
// @Router /admin/registrations [get]
func (h *AdminHandler) Registrations(c echo.Context) error {
	regs, err := h.adminService.Registrations(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, regs)
}

// Backup godoc
// @Summary Download a JSON backup
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.Backup
// @Router /admin/backup [get]
func (h *AdminHandler) Backup(c echo.Context) error {
	backup, err := h.adminService.Backup(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	name := fmt.Sprintf("technofest-backup-%s.json", backup.BackedUpAt[:10])
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.JSON(http.StatusOK, backup)
}

// GrantAdmin godoc
// @Summary Grant admin rights
// @Tags admin
// @Security BearerAuth
// @Param uid path string true "User ID"
// @Success 204
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/admins/{uid} [put]
func (h *AdminHandler) GrantAdmin(c echo.Context) error {
	if err := h.adminService.GrantAdmin(c.Request().Context(), c.Param("uid")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// RevokeAdmin godoc
// @Summary Revoke admin rights
// @Tags admin
// @Security BearerAuth
// @Param uid path string true "User ID"
// @Success 204
// @Router /admin/admins/{uid} [delete]
func (h *AdminHandler) RevokeAdmin(c echo.Context) error {
	if err := h.adminService.RevokeAdmin(c.Request().Context(), c.Param("uid")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Notifications godoc
// @Summary Notification panel
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.NotificationList
// @Router /admin/notifications [get]
func (h *AdminHandler) Notifications(c echo.Context) error {
	return c.JSON(http.StatusOK, h.adminService.Notifications())
}

// MarkAllRead godoc
// @Summary Mark every notification read
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.NotificationList
// @Router /admin/notifications/read [post]
func (h *AdminHandler) MarkAllRead(c echo.Context) error {
	return c.JSON(http.StatusOK, h.adminService.MarkAllNotificationsRead(c.Request().Context()))
}

// MarkRead godoc
// @Summary Mark one notification read
// @Tags admin
// @Security BearerAuth
// @Param id path int true "Notification ID"
// @Success 204
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/notifications/{id}/read [post]
func (h *AdminHandler) MarkRead(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid notification id",
			Code:  "INVALID_ID",
		})
	}
	if err := h.adminService.MarkNotificationRead(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ClearNotifications godoc
// @Summary Clear the notification list
// @Tags admin
// @Security BearerAuth
// @Success 204
// @Router /admin/notifications [delete]
func (h *AdminHandler) ClearNotifications(c echo.Context) error {
	h.adminService.ClearNotifications(c.Request().Context())
	return c.NoContent(http.StatusNoContent)
}
