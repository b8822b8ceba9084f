package controllers

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"eventplanner/internal/delivery/http/helpers"
	"eventplanner/internal/delivery/http/middleware"
	"eventplanner/internal/domain"
)

const maxFieldLen = 255

// CreateEventRequest is the request body for POST /events.
type CreateEventRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Invitees    []string  `json:"invitees"`
}

// Validate implements Validator. Required fields and the time order are checked by the service.
func (c CreateEventRequest) Validate() []string {
	var errs []string
	if len(c.Title) > maxFieldLen {
		errs = append(errs, "title must be at most 255 characters")
	}
	if len(c.Location) > maxFieldLen {
		errs = append(errs, "location must be at most 255 characters")
	}
	return append(errs, validateInvitees(c.Invitees)...)
}

func (c CreateEventRequest) fields() domain.EventFields {
	return domain.EventFields{
		Title:       c.Title,
		Description: c.Description,
		Location:    c.Location,
		StartTime:   c.StartTime,
		EndTime:     c.EndTime,
	}
}

// UpdateEventRequest is the request body for PATCH /events/{eventID}. Omitted fields are
// unchanged. Omitting invitees (or sending null) keeps the list; an empty array clears it.
type UpdateEventRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Location    *string    `json:"location"`
	StartTime   *time.Time `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
	Invitees    []string   `json:"invitees"`
}

// Validate implements Validator.
func (u UpdateEventRequest) Validate() []string {
	var errs []string
	if u.Title != nil && len(*u.Title) > maxFieldLen {
		errs = append(errs, "title must be at most 255 characters")
	}
	if u.Location != nil && len(*u.Location) > maxFieldLen {
		errs = append(errs, "location must be at most 255 characters")
	}
	return append(errs, validateInvitees(u.Invitees)...)
}

func (u UpdateEventRequest) patch() domain.EventPatch {
	return domain.EventPatch{
		Title:       u.Title,
		Description: u.Description,
		Location:    u.Location,
		StartTime:   u.StartTime,
		EndTime:     u.EndTime,
	}
}

func validateInvitees(emails []string) []string {
	var errs []string
	for i, e := range emails {
		if !helpers.ValidEmail(e) {
			errs = append(errs, fmt.Sprintf("invitees[%d] must be a valid email address", i))
		}
	}
	return errs
}

// EventSuccessResponse is the success envelope for single-event responses.
type EventSuccessResponse struct {
	Data  *domain.EventView `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// EventPageResponse is one page of events with its pagination metadata.
type EventPageResponse struct {
	Events []*domain.EventView `json:"events"`
	helpers.PaginationMeta
}

// EventPageSuccessResponse is the success envelope for GET /events (200).
type EventPageSuccessResponse struct {
	Data  *EventPageResponse `json:"data"`
	Error *helpers.APIError  `json:"error"`
}

// LocationsSuccessResponse is the success envelope for GET /locations (200).
type LocationsSuccessResponse struct {
	Data  []*domain.LocationWeather `json:"data"`
	Error *helpers.APIError         `json:"error"`
}

// DeleteEventResponse is the response body for DELETE /events/{eventID}.
type DeleteEventResponse struct {
	Status string `json:"status"`
}

type EventController struct {
	Logger  *slog.Logger
	Service domain.EventService
}

func NewEventController(logger *slog.Logger, svc domain.EventService) *EventController {
	return &EventController{
		Logger:  logger,
		Service: svc,
	}
}

// actor returns the authenticated actor id or writes a 401.
func actor(w http.ResponseWriter, r *http.Request) (string, bool) {
	actorID, ok := middleware.ActorIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
	}
	return actorID, ok
}

// writeView writes a view, downgrading to a partial-failure envelope when the write went
// through but a follow-up step did not.
func (c *EventController) writeView(w http.ResponseWriter, r *http.Request, status int, view *domain.EventView, err error) {
	if err == nil {
		helpers.WriteJSONSuccess(w, status, view)
		return
	}
	if pf, ok := helpers.PartialFailure(err); ok && view != nil {
		c.Logger.WarnContext(r.Context(), "partial failure", "path", r.URL.Path, "stage", pf.Stage, "err", err)
		helpers.WriteJSONPartial(w, status, view, pf.Error(), pf.NotifyFailures)
		return
	}
	helpers.WriteServiceError(w, r, c.Logger, err)
}

// CreateEvent godoc
// @Summary Create an event
// @Description Creates an event owned by the authenticated user and invites the given emails. Invitees receive an email asynchronously. When notifications could not be queued the event is still created and the response carries error.code partial_failure next to data.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param event body CreateEventRequest true "Event data"
// @Success 201 {object} controllers.EventSuccessResponse "data contains the created event, invitees and weather"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [post]
func (c *EventController) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req CreateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	view, err := c.Service.CreateEvent(r.Context(), actorID, req.fields(), req.Invitees)
	c.writeView(w, r, http.StatusCreated, view, err)
}

// ListEvents godoc
// @Summary List my events
// @Description Returns the authenticated user's events ordered by start time, five per page by default. When both start_time and end_time are given only events overlapping that date range are returned.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param start_time query string false "Range start (YYYY-MM-DD)"
// @Param end_time query string false "Range end (YYYY-MM-DD)"
// @Param page query int false "Page number (default 1)"
// @Param per_page query int false "Page size (default 5, max 100)"
// @Success 200 {object} controllers.EventPageSuccessResponse "data contains events and pagination"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [get]
func (c *EventController) ListEvents(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	rng, err := helpers.ParseDateRange(r)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	page, err := c.Service.ListEvents(r.Context(), actorID, rng, helpers.ParsePagination(r))
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, EventPageResponse{
		Events:         page.Events,
		PaginationMeta: helpers.NewPaginationMeta(page.Page, page.PageSize, page.Total),
	})
}

// GetEvent godoc
// @Summary Get an event
// @Description Returns the event, its invitee emails and the weather at its location on its start date. Weather failures are reported inside the weather object.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.EventSuccessResponse "data contains event, invitees and weather"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID} [get]
func (c *EventController) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	view, err := c.Service.GetEvent(r.Context(), eventID, actorID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, view)
}

// UpdateEvent godoc
// @Summary Update an event
// @Description Updates the given fields and, when invitees is present, makes the invitee list equal to it. Newly added invitees are emailed. If the fields were saved but the invitee update failed the response carries error.code partial_failure next to data.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param body body UpdateEventRequest true "Fields to update (all optional)"
// @Success 200 {object} controllers.EventSuccessResponse "data contains the updated event and the invitee delta"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not owner)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID} [patch]
func (c *EventController) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	var req UpdateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	view, err := c.Service.UpdateEvent(r.Context(), eventID, actorID, req.patch(), req.Invitees)
	c.writeView(w, r, http.StatusOK, view, err)
}

// DeleteEvent godoc
// @Summary Delete an event
// @Description Soft-deletes the event and removes its invitees. Only the owner can delete.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} helpers.APIResponse "data.status: deleted"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not owner)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID} [delete]
func (c *EventController) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	if err := c.Service.DeleteEvent(r.Context(), eventID, actorID); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, DeleteEventResponse{Status: "deleted"})
}

// ExportCalendar godoc
// @Summary Export an event as iCalendar
// @Description Returns the event as a text/calendar document with invitees as attendees.
// @Tags events
// @Produce text/calendar
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {string} string "iCalendar document"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/calendar.ics [get]
func (c *EventController) ExportCalendar(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	body, err := c.Service.ExportCalendar(r.Context(), eventID, actorID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="event-%s.ics"`, eventID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// ListLocations godoc
// @Summary List my event locations with weather
// @Description Returns the distinct (location, start, end) combinations of the authenticated user's events, each with the weather at that location on the start date. Accepts the same date range as GET /events.
// @Tags locations
// @Produce json
// @Security BearerAuth
// @Param start_time query string false "Range start (YYYY-MM-DD)"
// @Param end_time query string false "Range end (YYYY-MM-DD)"
// @Success 200 {object} controllers.LocationsSuccessResponse "data contains locations with weather"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /locations [get]
func (c *EventController) ListLocations(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	rng, err := helpers.ParseDateRange(r)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	locations, err := c.Service.ListDistinctLocations(r.Context(), actorID, rng)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, locations)
}
