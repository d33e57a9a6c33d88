package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"technofest/internal/catalog"
	"technofest/internal/service"
)

// EventHandler serves the public catalogue and the admin event writes.
type EventHandler struct {
	eventService service.EventService
}

// NewEventHandler creates a new event handler.
func NewEventHandler(eventService service.EventService) *EventHandler {
	return &EventHandler{eventService: eventService}
}

// RegistrationResponse carries the link the client should open.
type RegistrationResponse struct {
	RegistrationLink string `json:"registrationLink"`
	Message          string `json:"message"`
}

// List godoc
// @Summary List events
// @Description Filters the catalogue by a case-insensitive term and an exact category.
// @Tags events
// @Produce json
// @Param q query string false "Search term"
// @Param category query string false "Category, or all"
// @Success 200 {object} catalog.Result
// @Failure 503 {object} errors.ErrorResponse
// @Router /events [get]
func (h *EventHandler) List(c echo.Context) error {
	q := catalog.NewQuery(c.QueryParam("q"), c.QueryParam("category"))
	res, err := h.eventService.List(c.Request().Context(), q)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, res)
}

// Get godoc
// @Summary Get an event
// @Tags events
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} model.Event
// @Failure 404 {object} errors.ErrorResponse
// @Router /events/{id} [get]
func (h *EventHandler) Get(c echo.Context) error {
	event, err := h.eventService.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, event)
}

// Calendar godoc
// @Summary Catalogue as iCalendar
// @Tags events
// @Produce text/calendar
// @Success 200 {string} string
// @Router /events.ics [get]
func (h *EventHandler) Calendar(c echo.Context) error {
	body, err := h.eventService.Calendar(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `inline; filename="technofest.ics"`)
	return c.Blob(http.StatusOK, "text/calendar; charset=utf-8", []byte(body))
}

// Register godoc
// @Summary Register for an event
// @Description Returns the event's registration link and records the registration in the background.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Success 200 {object} RegistrationResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /events/{id}/register [post]
func (h *EventHandler) Register(c echo.Context) error {
	link, err := h.eventService.Register(c.Request().Context(), userID(c), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, RegistrationResponse{
		RegistrationLink: link,
		Message:          "Redirecting to registration form...",
	})
}

// Create godoc
// @Summary Add an event
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.EventInput true "Event"
// @Success 201 {object} model.Event
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /events [post]
func (h *EventHandler) Create(c echo.Context) error {
	var req service.EventInput
	if err := c.Bind(&req); err != nil {
		return invalidBody()
	}
	event, err := h.eventService.Create(c.Request().Context(), userID(c), req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, event)
}

// Update godoc
// @Summary Update an event
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Param request body service.EventInput true "Event"
// @Success 200 {object} model.Event
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /events/{id} [put]
func (h *EventHandler) Update(c echo.Context) error {
	var req service.EventInput
	if err := c.Bind(&req); err != nil {
		return invalidBody()
	}
	event, err := h.eventService.Update(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, event)
}

// Delete godoc
// @Summary Delete an event
// @Tags events
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Success 204
// @Failure 403 {object} errors.ErrorResponse
// @Router /events/{id} [delete]
func (h *EventHandler) Delete(c echo.Context) error {
	if err := h.eventService.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
