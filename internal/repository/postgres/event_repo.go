package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"eventplanner/internal/domain"
)

const eventColumns = `id, owner_id, title, description, location, start_time, end_time, created_at, updated_at`

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*domain.Event, error) {
	e := &domain.Event{}
	var descNull sql.NullString
	if err := row.Scan(&e.ID, &e.OwnerID, &e.Title, &descNull, &e.Location, &e.StartTime, &e.EndTime, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	e.Description = descNull.String
	return e, nil
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	query := `
		INSERT INTO events (owner_id, title, description, location, start_time, end_time, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	return conn(ctx, r.DB).QueryRowContext(ctx, query,
		e.OwnerID, e.Title, e.Description, e.Location, e.StartTime, e.EndTime, e.CreatedAt, e.UpdatedAt,
	).Scan(&e.ID)
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE id = $1 AND deleted_at IS NULL
	`
	return r.getOne(ctx, query, id)
}

func (r *eventRepository) GetForUpdate(ctx context.Context, id string) (*domain.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE id = $1 AND deleted_at IS NULL
		FOR UPDATE
	`
	return r.getOne(ctx, query, id)
}

func (r *eventRepository) getOne(ctx context.Context, query string, args ...any) (*domain.Event, error) {
	e, err := scanEvent(conn(ctx, r.DB).QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isMalformedID(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

// ownerFilter builds the WHERE clause shared by ListByOwner and ListLocations. An active
// range keeps events starting in it, ending in it, or spanning it.
func ownerFilter(filter domain.EventFilter) (string, []any) {
	cond := "WHERE owner_id = $1 AND deleted_at IS NULL"
	args := []any{filter.OwnerID}
	if filter.Range.Active() {
		from, to := filter.Range.Bounds()
		cond += ` AND ((start_time >= $2 AND start_time < $3)
			OR (end_time >= $2 AND end_time < $3)
			OR (start_time < $2 AND end_time >= $3))`
		args = append(args, from, to)
	}
	return cond, args
}

func (r *eventRepository) ListByOwner(ctx context.Context, filter domain.EventFilter) ([]*domain.Event, int, error) {
	cond, args := ownerFilter(filter)
	q := conn(ctx, r.DB)

	var total int
	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM events "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	n := len(args) + 1
	query := fmt.Sprintf(`
		SELECT %s
		FROM events
		%s
		ORDER BY start_time ASC, id ASC
		LIMIT $%d OFFSET $%d
	`, eventColumns, cond, n, n+1)
	args = append(args, filter.Page.PageSize, filter.Page.Offset())

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, 0, err
		}
		events = append(events, e)
	}
	return events, total, rows.Err()
}

func (r *eventRepository) ListLocations(ctx context.Context, filter domain.EventFilter) ([]*domain.EventLocation, error) {
	cond, args := ownerFilter(filter)
	query := `
		SELECT DISTINCT location, start_time, end_time
		FROM events
		` + cond + `
		ORDER BY start_time ASC
	`
	rows, err := conn(ctx, r.DB).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	locations := make([]*domain.EventLocation, 0)
	for rows.Next() {
		l := &domain.EventLocation{}
		if err := rows.Scan(&l.Location, &l.StartTime, &l.EndTime); err != nil {
			return nil, err
		}
		locations = append(locations, l)
	}
	return locations, rows.Err()
}

func (r *eventRepository) Update(ctx context.Context, eventID string, patch domain.EventPatch) (*domain.Event, error) {
	setClauses := []string{"updated_at = NOW()"}
	args := []any{}
	n := 1
	set := func(column string, v any) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, n))
		args = append(args, v)
		n++
	}
	if patch.Title != nil {
		set("title", *patch.Title)
	}
	if patch.Description != nil {
		set("description", *patch.Description)
	}
	if patch.Location != nil {
		set("location", *patch.Location)
	}
	if patch.StartTime != nil {
		set("start_time", *patch.StartTime)
	}
	if patch.EndTime != nil {
		set("end_time", *patch.EndTime)
	}
	if n == 1 {
		// No fields to update; just fetch current row
		return r.GetByID(ctx, eventID)
	}
	args = append(args, eventID)
	query := fmt.Sprintf(`
		UPDATE events SET %s
		WHERE id = $%d AND deleted_at IS NULL
		RETURNING %s
	`, strings.Join(setClauses, ", "), n, eventColumns)
	return r.getOne(ctx, query, args...)
}

func (r *eventRepository) SoftDelete(ctx context.Context, id string) error {
	return withinTx(ctx, r.DB, func(ctx context.Context) error {
		q := conn(ctx, r.DB)
		result, err := q.ExecContext(ctx,
			`UPDATE events SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
		if err != nil {
			if isMalformedID(err) {
				return domain.ErrNotFound
			}
			return err
		}
		rows, _ := result.RowsAffected()
		if rows == 0 {
			return domain.ErrNotFound
		}
		if _, err := q.ExecContext(ctx, `DELETE FROM event_invitees WHERE event_id = $1`, id); err != nil {
			return err
		}
		return nil
	})
}
