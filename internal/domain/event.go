package domain

import (
	"context"
	"time"
)

// Event is a calendar event owned by a single user.
// swagger:model Event
type Event struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewEvent returns a new Event with the given fields. ID is typically set by the repository on create.
func NewEvent(ownerID string, fields EventFields, createdAt, updatedAt time.Time) *Event {
	return &Event{
		OwnerID:     ownerID,
		Title:       fields.Title,
		Description: fields.Description,
		Location:    fields.Location,
		StartTime:   fields.StartTime,
		EndTime:     fields.EndTime,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}
}

// EventFields holds the caller-supplied fields of a new event.
type EventFields struct {
	Title       string
	Description string
	Location    string
	StartTime   time.Time
	EndTime     time.Time
}

// Validate checks required fields and the end >= start invariant.
func (f EventFields) Validate() error {
	var errs []FieldError
	if f.Title == "" {
		errs = append(errs, FieldError{"title", "required"})
	}
	if f.Location == "" {
		errs = append(errs, FieldError{"location", "required"})
	}
	if f.StartTime.IsZero() {
		errs = append(errs, FieldError{"start_time", "required"})
	}
	if f.EndTime.IsZero() {
		errs = append(errs, FieldError{"end_time", "required"})
	}
	if !f.StartTime.IsZero() && !f.EndTime.IsZero() && f.EndTime.Before(f.StartTime) {
		errs = append(errs, FieldError{"end_time", "must not be before start_time"})
	}
	return NewValidationError(errs)
}

// EventPatch holds a partial update. Nil fields are left unchanged.
type EventPatch struct {
	Title       *string
	Description *string
	Location    *string
	StartTime   *time.Time
	EndTime     *time.Time
}

// Empty reports whether the patch changes nothing.
func (p EventPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Location == nil && p.StartTime == nil && p.EndTime == nil
}

// Apply returns the fields of e with the patch applied, without mutating e.
func (p EventPatch) Apply(e *Event) EventFields {
	f := EventFields{
		Title:       e.Title,
		Description: e.Description,
		Location:    e.Location,
		StartTime:   e.StartTime,
		EndTime:     e.EndTime,
	}
	if p.Title != nil {
		f.Title = *p.Title
	}
	if p.Description != nil {
		f.Description = *p.Description
	}
	if p.Location != nil {
		f.Location = *p.Location
	}
	if p.StartTime != nil {
		f.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		f.EndTime = *p.EndTime
	}
	return f
}

// EventFilter narrows ListByOwner and ListLocations to one owner's live events.
type EventFilter struct {
	OwnerID string
	Range   DateRange
	Page    PaginationParams
}

// EventLocation is one distinct (location, start, end) row of an owner's events.
type EventLocation struct {
	Location  string
	StartTime time.Time
	EndTime   time.Time
}

// EventRepository defines the interface for event storage. Reads never return soft-deleted rows.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	// GetForUpdate loads a live event and locks its row until the ambient transaction ends.
	GetForUpdate(ctx context.Context, id string) (*Event, error)
	ListByOwner(ctx context.Context, filter EventFilter) ([]*Event, int, error)
	ListLocations(ctx context.Context, filter EventFilter) ([]*EventLocation, error)
	Update(ctx context.Context, id string, patch EventPatch) (*Event, error)
	// SoftDelete sets the tombstone and removes the event's invitees in the same transaction.
	SoftDelete(ctx context.Context, id string) error
}

// Transactor runs fn inside one storage transaction. Repositories called with the
// context passed to fn join that transaction; the work commits once when fn returns nil.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// EventView is the response shape of an event: the stored entity plus view-only data.
// swagger:model EventView
type EventView struct {
	Event     *Event           `json:"event"`
	Invitees  []string         `json:"invitees"`
	Weather   *WeatherRecord   `json:"weather,omitempty"`
	Reconcile *ReconcileResult `json:"reconcile,omitempty"`
}

// EventPage is one page of an owner's events.
type EventPage struct {
	Events   []*EventView `json:"events"`
	Total    int          `json:"total"`
	Page     int          `json:"current_page"`
	PageSize int          `json:"per_page"`
}

// LocationWeather is a distinct event location annotated with its weather.
// swagger:model LocationWeather
type LocationWeather struct {
	Location  string         `json:"location"`
	StartTime time.Time      `json:"start_time"`
	EndTime   time.Time      `json:"end_time"`
	Weather   *WeatherRecord `json:"weather_conditions"`
}

// EventService defines the event lifecycle operations exposed to the delivery layer.
type EventService interface {
	CreateEvent(ctx context.Context, actorID string, fields EventFields, invitees []string) (*EventView, error)
	// UpdateEvent applies patch and, when invitees is non-nil, reconciles the invitee list to it.
	UpdateEvent(ctx context.Context, eventID, actorID string, patch EventPatch, invitees []string) (*EventView, error)
	DeleteEvent(ctx context.Context, eventID, actorID string) error
	GetEvent(ctx context.Context, eventID, actorID string) (*EventView, error)
	ListEvents(ctx context.Context, actorID string, rng DateRange, params PaginationParams) (*EventPage, error)
	ListDistinctLocations(ctx context.Context, actorID string, rng DateRange) ([]*LocationWeather, error)
	ExportCalendar(ctx context.Context, eventID, actorID string) ([]byte, error)
}

// CalendarEncoder renders an event and its invitees as an iCalendar document.
type CalendarEncoder interface {
	Encode(event *Event, invitees []string) ([]byte, error)
}
