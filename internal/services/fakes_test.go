package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"eventplanner/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var errDB = errors.New("db down")

// fakeStore is an in-memory EventRepository, InviteeRepository and Transactor. A
// transaction snapshots the invitee table and restores it when fn or commit fails.
type fakeStore struct {
	mu          sync.Mutex
	events      map[string]*domain.Event
	deleted     map[string]time.Time // soft-delete tombstones by event id
	invitees    map[string][]*domain.Invitee
	nextEvent   int
	nextInvitee int

	calls  int // every repository call
	writes int // Create, Update, SoftDelete, Add, Remove

	createErr error
	updateErr error
	addErr    error
	addErrAt  int // fail the n-th Add (1-based) when addErr is set; 0 fails every Add
	adds      int
	commitErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		events:      make(map[string]*domain.Event),
		deleted:     make(map[string]time.Time),
		invitees:    make(map[string][]*domain.Invitee),
		nextEvent:   1,
		nextInvitee: 1,
	}
}

func (f *fakeStore) seedEvent(ownerID, title, location string, start time.Time) *domain.Event {
	e := domain.NewEvent(ownerID, domain.EventFields{
		Title: title, Location: location, StartTime: start, EndTime: start.Add(time.Hour),
	}, start, start)
	f.mu.Lock()
	defer f.mu.Unlock()
	e.ID = fmt.Sprintf("ev-%d", f.nextEvent)
	f.nextEvent++
	f.events[e.ID] = e
	return e
}

func (f *fakeStore) seedInvitees(eventID string, emails ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, email := range emails {
		f.invitees[eventID] = append(f.invitees[eventID], f.newInviteeLocked(eventID, email))
	}
}

func (f *fakeStore) newInviteeLocked(eventID, email string) *domain.Invitee {
	inv := &domain.Invitee{ID: fmt.Sprintf("inv-%d", f.nextInvitee), EventID: eventID, Email: email, CreatedAt: time.Now()}
	f.nextInvitee++
	return inv
}

func (f *fakeStore) emails(eventID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return domain.InviteeEmails(f.invitees[eventID])
}

func (f *fakeStore) counts() (calls, writes int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls, f.writes
}

func (f *fakeStore) live(id string) (*domain.Event, bool) {
	e, ok := f.events[id]
	if _, gone := f.deleted[id]; !ok || gone {
		return nil, false
	}
	return e, true
}

// EventRepository

func (f *fakeStore) Create(ctx context.Context, e *domain.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.createErr != nil {
		return f.createErr
	}
	f.writes++
	e.ID = fmt.Sprintf("ev-%d", f.nextEvent)
	f.nextEvent++
	cp := *e
	f.events[e.ID] = &cp
	return nil
}

func (f *fakeStore) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	e, ok := f.live(id)
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (f *fakeStore) GetForUpdate(ctx context.Context, id string) (*domain.Event, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeStore) ownerEvents(filter domain.EventFilter) []*domain.Event {
	var out []*domain.Event
	for _, e := range f.events {
		if _, gone := f.deleted[e.ID]; e.OwnerID != filter.OwnerID || gone {
			continue
		}
		if filter.Range.Active() {
			from, to := filter.Range.Bounds()
			startIn := !e.StartTime.Before(from) && e.StartTime.Before(to)
			endIn := !e.EndTime.Before(from) && e.EndTime.Before(to)
			spans := e.StartTime.Before(from) && !e.EndTime.Before(to)
			if !startIn && !endIn && !spans {
				continue
			}
		}
		cp := *e
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out
}

func (f *fakeStore) ListByOwner(ctx context.Context, filter domain.EventFilter) ([]*domain.Event, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	all := f.ownerEvents(filter)
	start := filter.Page.Offset()
	if start > len(all) {
		start = len(all)
	}
	end := start + filter.Page.PageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], len(all), nil
}

func (f *fakeStore) ListLocations(ctx context.Context, filter domain.EventFilter) ([]*domain.EventLocation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	seen := make(map[domain.EventLocation]bool)
	var out []*domain.EventLocation
	for _, e := range f.ownerEvents(filter) {
		l := domain.EventLocation{Location: e.Location, StartTime: e.StartTime, EndTime: e.EndTime}
		if seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, &l)
	}
	return out, nil
}

func (f *fakeStore) Update(ctx context.Context, id string, patch domain.EventPatch) (*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	e, ok := f.live(id)
	if !ok {
		return nil, domain.ErrNotFound
	}
	f.writes++
	fields := patch.Apply(e)
	e.Title, e.Description, e.Location = fields.Title, fields.Description, fields.Location
	e.StartTime, e.EndTime = fields.StartTime, fields.EndTime
	e.UpdatedAt = time.Now()
	cp := *e
	return &cp, nil
}

func (f *fakeStore) SoftDelete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	e, ok := f.live(id)
	if !ok {
		return domain.ErrNotFound
	}
	f.writes++
	f.deleted[e.ID] = time.Now()
	delete(f.invitees, id)
	return nil
}

// InviteeRepository

func (f *fakeStore) ListByEventID(ctx context.Context, eventID string) ([]*domain.Invitee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	out := make([]*domain.Invitee, 0, len(f.invitees[eventID]))
	for _, inv := range f.invitees[eventID] {
		cp := *inv
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeStore) ListByEventIDs(ctx context.Context, eventIDs []string) (map[string][]*domain.Invitee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	out := make(map[string][]*domain.Invitee, len(eventIDs))
	for _, id := range eventIDs {
		out[id] = append([]*domain.Invitee(nil), f.invitees[id]...)
	}
	return out, nil
}

func (f *fakeStore) Add(ctx context.Context, eventID, email string) (*domain.Invitee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.adds++
	if f.addErr != nil && (f.addErrAt == 0 || f.addErrAt == f.adds) {
		return nil, f.addErr
	}
	if _, ok := f.live(eventID); !ok {
		return nil, domain.ErrNotFound
	}
	f.writes++
	inv := f.newInviteeLocked(eventID, email)
	f.invitees[eventID] = append(f.invitees[eventID], inv)
	return inv, nil
}

func (f *fakeStore) Remove(ctx context.Context, inviteeID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	for eventID, list := range f.invitees {
		for i, inv := range list {
			if inv.ID == inviteeID {
				f.writes++
				f.invitees[eventID] = append(list[:i:i], list[i+1:]...)
				return nil
			}
		}
	}
	return domain.ErrNotFound
}

// Transactor

func (f *fakeStore) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.mu.Lock()
	snapshot := make(map[string][]*domain.Invitee, len(f.invitees))
	for k, v := range f.invitees {
		snapshot[k] = append([]*domain.Invitee(nil), v...)
	}
	f.mu.Unlock()

	err := fn(ctx)
	if err == nil && f.commitErr != nil {
		err = fmt.Errorf("%w: commit transaction: %v", domain.ErrStorage, f.commitErr)
	}
	if err != nil {
		f.mu.Lock()
		f.invitees = snapshot
		f.mu.Unlock()
	}
	return err
}

// fakeDispatcher records accepted notifications and rejects the emails in reject.
type fakeDispatcher struct {
	mu     sync.Mutex
	sent   []domain.InvitationNotification
	reject map[string]bool
}

func (d *fakeDispatcher) Enqueue(ctx context.Context, n domain.InvitationNotification) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.reject[n.Email] {
		return domain.ErrQueueFull
	}
	d.sent = append(d.sent, n)
	return nil
}

func (d *fakeDispatcher) emails() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, 0, len(d.sent))
	for _, n := range d.sent {
		out = append(out, n.Email)
	}
	return out
}

// ownerAuthorizer allows class-level actions for any actor and event actions for the owner.
type ownerAuthorizer struct{}

func (ownerAuthorizer) Decide(ctx context.Context, actorID string, action domain.Action, event *domain.Event) domain.Decision {
	if actorID == "" {
		return domain.Deny
	}
	if event == nil {
		return domain.Allow
	}
	return domain.Decision(event.OwnerID == actorID)
}

type denyAll struct{}

func (denyAll) Decide(context.Context, string, domain.Action, *domain.Event) domain.Decision {
	return domain.Deny
}

// fakeWeather returns a fixed record and counts lookups.
type fakeWeather struct {
	mu    sync.Mutex
	calls []string
}

func (w *fakeWeather) GetWeather(ctx context.Context, location, date string) *domain.WeatherRecord {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls = append(w.calls, location+"|"+date)
	temp := 21.5
	return &domain.WeatherRecord{Location: location, Date: date, Condition: "Sunny", TemperatureC: &temp}
}

type fakeCalendar struct{}

func (fakeCalendar) Encode(event *domain.Event, invitees []string) ([]byte, error) {
	return []byte(fmt.Sprintf("BEGIN:VCALENDAR %s %v", event.Title, invitees)), nil
}
