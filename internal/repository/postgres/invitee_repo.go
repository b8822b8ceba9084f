package postgres

import (
	"context"
	"database/sql"

	"eventplanner/internal/domain"

	"github.com/lib/pq"
)

type inviteeRepository struct {
	DB *sql.DB
}

func NewInviteeRepository(db *sql.DB) domain.InviteeRepository {
	return &inviteeRepository{
		DB: db,
	}
}

func (r *inviteeRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.Invitee, error) {
	query := `
		SELECT id, event_id, email, created_at
		FROM event_invitees
		WHERE event_id = $1
		ORDER BY created_at ASC, id ASC
	`
	rows, err := conn(ctx, r.DB).QueryContext(ctx, query, eventID)
	if err != nil {
		if isMalformedID(err) {
			return []*domain.Invitee{}, nil
		}
		return nil, err
	}
	defer rows.Close()

	var invs []*domain.Invitee
	for rows.Next() {
		inv := &domain.Invitee{}
		if err := rows.Scan(&inv.ID, &inv.EventID, &inv.Email, &inv.CreatedAt); err != nil {
			return nil, err
		}
		invs = append(invs, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if invs == nil {
		invs = []*domain.Invitee{}
	}
	return invs, nil
}

// ListByEventIDs loads the invitees of several events in one round trip, keyed by event id.
func (r *inviteeRepository) ListByEventIDs(ctx context.Context, eventIDs []string) (map[string][]*domain.Invitee, error) {
	out := make(map[string][]*domain.Invitee, len(eventIDs))
	if len(eventIDs) == 0 {
		return out, nil
	}
	query := `
		SELECT id, event_id, email, created_at
		FROM event_invitees
		WHERE event_id = ANY($1)
		ORDER BY created_at ASC, id ASC
	`
	rows, err := conn(ctx, r.DB).QueryContext(ctx, query, pq.Array(eventIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		inv := &domain.Invitee{}
		if err := rows.Scan(&inv.ID, &inv.EventID, &inv.Email, &inv.CreatedAt); err != nil {
			return nil, err
		}
		out[inv.EventID] = append(out[inv.EventID], inv)
	}
	return out, rows.Err()
}

func (r *inviteeRepository) Add(ctx context.Context, eventID, email string) (*domain.Invitee, error) {
	query := `
		INSERT INTO event_invitees (event_id, email, created_at)
		VALUES ($1, $2, NOW())
		RETURNING id, event_id, email, created_at
	`
	inv := &domain.Invitee{}
	err := conn(ctx, r.DB).QueryRowContext(ctx, query, eventID, email).
		Scan(&inv.ID, &inv.EventID, &inv.Email, &inv.CreatedAt)
	if err != nil {
		switch pgCode(err) {
		case codeForeignKeyViolation, codeInvalidTextRep:
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return inv, nil
}

func (r *inviteeRepository) Remove(ctx context.Context, inviteeID string) error {
	result, err := conn(ctx, r.DB).ExecContext(ctx, `DELETE FROM event_invitees WHERE id = $1`, inviteeID)
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
	return nil
}
