package domain

import (
	"context"
	"errors"
	"time"
)

// ErrQueueFull is returned by a dispatcher that cannot accept more work.
var ErrQueueFull = errors.New("notification queue full")

// InvitationNotification asks for one invitation email. It carries a snapshot of the
// event so the sender does not need to read the store.
type InvitationNotification struct {
	EventID   string    `json:"event_id"`
	Email     string    `json:"email"`
	OwnerID   string    `json:"owner_id"`
	Title     string    `json:"title"`
	Location  string    `json:"location"`
	StartTime time.Time `json:"start_time"`
}

// NewInvitationNotification builds the notification for email on event.
func NewInvitationNotification(event *Event, email string) InvitationNotification {
	return InvitationNotification{
		EventID:   event.ID,
		Email:     email,
		OwnerID:   event.OwnerID,
		Title:     event.Title,
		Location:  event.Location,
		StartTime: event.StartTime,
	}
}

// NotificationDispatcher accepts notifications for asynchronous delivery. A nil error
// means the request was accepted; delivery is the dispatcher's concern.
type NotificationDispatcher interface {
	Enqueue(ctx context.Context, n InvitationNotification) error
}

// InvitationSender delivers one invitation. Dispatcher workers call it.
type InvitationSender interface {
	SendEventInvitation(ctx context.Context, n *InvitationNotification) error
}
