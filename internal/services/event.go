package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"eventplanner/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DefaultPageSize is the page size of ListEvents when the caller gives none.
const DefaultPageSize = 5

type eventService struct {
	eventRepo      domain.EventRepository
	inviteeRepo    domain.InviteeRepository
	reconciler     domain.InviteeReconciler
	weather        domain.WeatherService
	authz          domain.Authorizer
	calendar       domain.CalendarEncoder
	logger         *slog.Logger
	contextTimeout time.Duration
}

func NewEventService(eventRepo domain.EventRepository,
	inviteeRepo domain.InviteeRepository,
	reconciler domain.InviteeReconciler,
	weather domain.WeatherService,
	authz domain.Authorizer,
	calendar domain.CalendarEncoder,
	logger *slog.Logger,
	timeout time.Duration,
) domain.EventService {
	return &eventService{
		eventRepo:      eventRepo,
		inviteeRepo:    inviteeRepo,
		reconciler:     reconciler,
		weather:        weather,
		authz:          authz,
		calendar:       calendar,
		logger:         logger,
		contextTimeout: timeout,
	}
}

func (s *eventService) start(ctx context.Context, op, actorID string, attrs ...attribute.KeyValue) (context.Context, context.CancelFunc, trace.Span) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	attrs = append(attrs, attribute.String("actor.id", actorID))
	ctx, span := tracer.Start(ctx, "EventService."+op, trace.WithAttributes(attrs...))
	return ctx, cancel, span
}

func (s *eventService) authorize(ctx context.Context, actorID string, action domain.Action, event *domain.Event) error {
	if s.authz.Decide(ctx, actorID, action, event) != domain.Allow {
		attrs := []any{"actor_id", actorID, "action", string(action)}
		if event != nil {
			attrs = append(attrs, "event_id", event.ID)
		}
		s.logger.Warn("authorization denied", attrs...)
		return domain.ErrUnauthorized
	}
	return nil
}

func (s *eventService) load(ctx context.Context, eventID string) (*domain.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, storageErr("get event", err)
	}
	return event, nil
}

func (s *eventService) inviteeEmails(ctx context.Context, eventID string) ([]string, error) {
	invitees, err := s.inviteeRepo.ListByEventID(ctx, eventID)
	if err != nil {
		return nil, storageErr("list invitees", err)
	}
	return domain.InviteeEmails(invitees), nil
}

func (s *eventService) weatherFor(ctx context.Context, location string, at time.Time) *domain.WeatherRecord {
	return s.weather.GetWeather(ctx, location, at.Format(domain.DateLayout))
}

// reconcileErr turns a reconciliation outcome into the error reported next to a
// persisted event: a failed reconcile or rejected notifications are partial failures.
func reconcileErr(res *domain.ReconcileResult, err error) error {
	if err != nil {
		return &domain.PartialFailureError{Stage: domain.StageInvitees, Err: err}
	}
	if len(res.NotifyFailures) > 0 {
		return &domain.PartialFailureError{Stage: domain.StageNotifications, NotifyFailures: res.NotifyFailures}
	}
	return nil
}

func (s *eventService) CreateEvent(ctx context.Context, actorID string, fields domain.EventFields, invitees []string) (*domain.EventView, error) {
	ctx, cancel, span := s.start(ctx, "CreateEvent", actorID)
	defer cancel()
	defer span.End()

	if err := fields.Validate(); err != nil {
		return nil, fail(span, err)
	}
	if err := s.authorize(ctx, actorID, domain.ActionCreate, nil); err != nil {
		return nil, fail(span, err)
	}

	now := time.Now()
	event := domain.NewEvent(actorID, fields, now, now)
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, fail(span, storageErr("create event", err))
	}
	span.SetAttributes(attribute.String("event.id", event.ID))
	s.logger.Info("event created", "event_id", event.ID, "owner_id", actorID)

	view := &domain.EventView{Event: event, Invitees: []string{}}
	var partial error
	if len(invitees) > 0 {
		res, err := s.reconciler.Reconcile(ctx, event.ID, invitees)
		if partial = reconcileErr(res, err); res != nil {
			view.Reconcile = res
			view.Invitees = res.Added
		}
	}
	view.Weather = s.weatherFor(ctx, event.Location, event.StartTime)
	return view, fail(span, partial)
}

func (s *eventService) UpdateEvent(ctx context.Context, eventID, actorID string, patch domain.EventPatch, invitees []string) (*domain.EventView, error) {
	ctx, cancel, span := s.start(ctx, "UpdateEvent", actorID, attribute.String("event.id", eventID))
	defer cancel()
	defer span.End()

	event, err := s.load(ctx, eventID)
	if err != nil {
		return nil, fail(span, err)
	}
	if err := s.authorize(ctx, actorID, domain.ActionUpdate, event); err != nil {
		return nil, fail(span, err)
	}
	if err := patch.Apply(event).Validate(); err != nil {
		return nil, fail(span, err)
	}

	updated := event
	if !patch.Empty() {
		updated, err = s.eventRepo.Update(ctx, eventID, patch)
		if err != nil {
			return nil, fail(span, storageErr("update event", err))
		}
		s.logger.Info("event updated", "event_id", eventID)
	}

	view := &domain.EventView{Event: updated}
	var partial error
	if invitees != nil {
		res, err := s.reconciler.Reconcile(ctx, eventID, invitees)
		if err != nil && patch.Empty() {
			// Nothing was written, so this is a plain failure.
			return nil, fail(span, fmt.Errorf("update invitees: %w", err))
		}
		partial = reconcileErr(res, err)
		view.Reconcile = res
	}

	emails, err := s.inviteeEmails(ctx, eventID)
	if err != nil {
		s.logger.Warn("invitees unavailable for response", "event_id", eventID, "error", err)
		emails = []string{}
	}
	view.Invitees = emails
	return view, fail(span, partial)
}

func (s *eventService) DeleteEvent(ctx context.Context, eventID, actorID string) error {
	ctx, cancel, span := s.start(ctx, "DeleteEvent", actorID, attribute.String("event.id", eventID))
	defer cancel()
	defer span.End()

	event, err := s.load(ctx, eventID)
	if err != nil {
		return fail(span, err)
	}
	if err := s.authorize(ctx, actorID, domain.ActionDelete, event); err != nil {
		return fail(span, err)
	}
	if err := s.eventRepo.SoftDelete(ctx, eventID); err != nil {
		return fail(span, storageErr("delete event", err))
	}
	s.logger.Info("event deleted", "event_id", eventID)
	return nil
}

func (s *eventService) GetEvent(ctx context.Context, eventID, actorID string) (*domain.EventView, error) {
	ctx, cancel, span := s.start(ctx, "GetEvent", actorID, attribute.String("event.id", eventID))
	defer cancel()
	defer span.End()

	event, err := s.load(ctx, eventID)
	if err != nil {
		return nil, fail(span, err)
	}
	if err := s.authorize(ctx, actorID, domain.ActionView, event); err != nil {
		return nil, fail(span, err)
	}
	emails, err := s.inviteeEmails(ctx, eventID)
	if err != nil {
		return nil, fail(span, err)
	}
	return &domain.EventView{
		Event:    event,
		Invitees: emails,
		Weather:  s.weatherFor(ctx, event.Location, event.StartTime),
	}, nil
}

func (s *eventService) ListEvents(ctx context.Context, actorID string, rng domain.DateRange, params domain.PaginationParams) (*domain.EventPage, error) {
	ctx, cancel, span := s.start(ctx, "ListEvents", actorID)
	defer cancel()
	defer span.End()

	if err := s.authorize(ctx, actorID, domain.ActionViewAny, nil); err != nil {
		return nil, fail(span, err)
	}
	if err := rng.Validate(); err != nil {
		return nil, fail(span, err)
	}
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 {
		params.PageSize = DefaultPageSize
	}

	events, total, err := s.eventRepo.ListByOwner(ctx, domain.EventFilter{OwnerID: actorID, Range: rng, Page: params})
	if err != nil {
		return nil, fail(span, storageErr("list events", err))
	}
	ids := make([]string, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.ID)
	}
	byEvent, err := s.inviteeRepo.ListByEventIDs(ctx, ids)
	if err != nil {
		return nil, fail(span, storageErr("list invitees", err))
	}

	page := &domain.EventPage{
		Events:   make([]*domain.EventView, 0, len(events)),
		Total:    total,
		Page:     params.Page,
		PageSize: params.PageSize,
	}
	for _, e := range events {
		page.Events = append(page.Events, &domain.EventView{Event: e, Invitees: domain.InviteeEmails(byEvent[e.ID])})
	}
	return page, nil
}

func (s *eventService) ListDistinctLocations(ctx context.Context, actorID string, rng domain.DateRange) ([]*domain.LocationWeather, error) {
	ctx, cancel, span := s.start(ctx, "ListDistinctLocations", actorID)
	defer cancel()
	defer span.End()

	if err := s.authorize(ctx, actorID, domain.ActionViewAny, nil); err != nil {
		return nil, fail(span, err)
	}
	if err := rng.Validate(); err != nil {
		return nil, fail(span, err)
	}
	locations, err := s.eventRepo.ListLocations(ctx, domain.EventFilter{OwnerID: actorID, Range: rng})
	if err != nil {
		return nil, fail(span, storageErr("list locations", err))
	}
	out := make([]*domain.LocationWeather, 0, len(locations))
	for _, l := range locations {
		out = append(out, &domain.LocationWeather{
			Location:  l.Location,
			StartTime: l.StartTime,
			EndTime:   l.EndTime,
			Weather:   s.weatherFor(ctx, l.Location, l.StartTime),
		})
	}
	return out, nil
}

func (s *eventService) ExportCalendar(ctx context.Context, eventID, actorID string) ([]byte, error) {
	ctx, cancel, span := s.start(ctx, "ExportCalendar", actorID, attribute.String("event.id", eventID))
	defer cancel()
	defer span.End()

	event, err := s.load(ctx, eventID)
	if err != nil {
		return nil, fail(span, err)
	}
	if err := s.authorize(ctx, actorID, domain.ActionView, event); err != nil {
		return nil, fail(span, err)
	}
	emails, err := s.inviteeEmails(ctx, eventID)
	if err != nil {
		return nil, fail(span, err)
	}
	body, err := s.calendar.Encode(event, emails)
	if err != nil {
		return nil, fail(span, fmt.Errorf("encode calendar: %w", err))
	}
	return body, nil
}
