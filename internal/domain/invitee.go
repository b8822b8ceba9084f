package domain

import (
	"context"
	"time"
)

// Invitee is an email address invited to an event.
// swagger:model Invitee
type Invitee struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// InviteeRepository defines storage operations for event invitees.
type InviteeRepository interface {
	ListByEventID(ctx context.Context, eventID string) ([]*Invitee, error)
	// ListByEventIDs returns invitees grouped by event id.
	ListByEventIDs(ctx context.Context, eventIDs []string) (map[string][]*Invitee, error)
	Add(ctx context.Context, eventID, email string) (*Invitee, error)
	Remove(ctx context.Context, inviteeID string) error
}

// NotifyFailure records an invitee whose notification could not be enqueued.
type NotifyFailure struct {
	Email string `json:"email"`
	Error string `json:"error"`
}

// ReconcileResult describes the delta applied by one reconciliation.
// swagger:model ReconcileResult
type ReconcileResult struct {
	Added          []string        `json:"added"`
	Removed        []string        `json:"removed"`
	NotifyFailures []NotifyFailure `json:"notify_failures,omitempty"`
}

// Changed reports whether any row was written.
func (r *ReconcileResult) Changed() bool { return len(r.Added) > 0 || len(r.Removed) > 0 }

// NormalizeInvitees removes exact duplicates, keeping the first occurrence and the
// original order. Emails are compared as-is: no trimming or case folding.
func NormalizeInvitees(emails []string) []string {
	seen := make(map[string]struct{}, len(emails))
	out := make([]string, 0, len(emails))
	for _, e := range emails {
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	return out
}

// InviteeEmails returns the emails of invitees in order.
func InviteeEmails(invitees []*Invitee) []string {
	out := make([]string, 0, len(invitees))
	for _, inv := range invitees {
		out = append(out, inv.Email)
	}
	return out
}

// InviteeReconciler brings an event's invitee list to a desired set of emails.
type InviteeReconciler interface {
	Reconcile(ctx context.Context, eventID string, desired []string) (*ReconcileResult, error)
}
