package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"eventplanner/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type inviteeReconciler struct {
	eventRepo   domain.EventRepository
	inviteeRepo domain.InviteeRepository
	tx          domain.Transactor
	dispatcher  domain.NotificationDispatcher
	locks       *keyedMutex
	logger      *slog.Logger
}

// NewInviteeReconciler returns an InviteeReconciler that applies each delta in one
// transaction and enqueues one invitation per added email after commit.
func NewInviteeReconciler(
	eventRepo domain.EventRepository,
	inviteeRepo domain.InviteeRepository,
	tx domain.Transactor,
	dispatcher domain.NotificationDispatcher,
	logger *slog.Logger,
) domain.InviteeReconciler {
	return &inviteeReconciler{
		eventRepo:   eventRepo,
		inviteeRepo: inviteeRepo,
		tx:          tx,
		dispatcher:  dispatcher,
		locks:       newKeyedMutex(),
		logger:      logger,
	}
}

func (r *inviteeReconciler) Reconcile(ctx context.Context, eventID string, desired []string) (*domain.ReconcileResult, error) {
	ctx, span := tracer.Start(ctx, "InviteeReconciler.Reconcile", trace.WithAttributes(
		attribute.String("event.id", eventID),
		attribute.Int("invitees.desired", len(desired)),
	))
	defer span.End()

	want := domain.NormalizeInvitees(desired)
	wanted := wantSet(want)

	unlock := r.locks.Lock(eventID)
	defer unlock()

	result := &domain.ReconcileResult{Added: []string{}, Removed: []string{}}
	var event *domain.Event
	err := r.tx.WithinTx(ctx, func(ctx context.Context) error {
		// Row lock: a concurrent delete or reconcile in another process waits here.
		e, err := r.eventRepo.GetForUpdate(ctx, eventID)
		if err != nil {
			return err
		}
		event = e

		current, err := r.inviteeRepo.ListByEventID(ctx, eventID)
		if err != nil {
			return fmt.Errorf("list invitees: %w", err)
		}
		removals, additions := diffInvitees(current, want)

		removed := make(map[string]struct{}, len(removals))
		for _, inv := range removals {
			if err := r.inviteeRepo.Remove(ctx, inv.ID); err != nil {
				return fmt.Errorf("remove invitee %s: %w", inv.Email, err)
			}
			if _, kept := wanted[inv.Email]; kept {
				continue
			}
			if _, seen := removed[inv.Email]; !seen {
				removed[inv.Email] = struct{}{}
				result.Removed = append(result.Removed, inv.Email)
			}
		}
		for _, email := range additions {
			if _, err := r.inviteeRepo.Add(ctx, eventID, email); err != nil {
				return fmt.Errorf("add invitee %s: %w", email, err)
			}
			result.Added = append(result.Added, email)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, storageErr("reconcile invitees", err)
	}

	for _, email := range result.Added {
		if err := r.dispatcher.Enqueue(ctx, domain.NewInvitationNotification(event, email)); err != nil {
			r.logger.Warn("invitation not enqueued", "event_id", eventID, "email", email, "error", err)
			result.NotifyFailures = append(result.NotifyFailures, domain.NotifyFailure{Email: email, Error: err.Error()})
		}
	}

	span.SetAttributes(
		attribute.Int("invitees.added", len(result.Added)),
		attribute.Int("invitees.removed", len(result.Removed)),
	)
	if result.Changed() {
		r.logger.Info("invitees reconciled", "event_id", eventID, "added", len(result.Added), "removed", len(result.Removed))
	}
	return result, nil
}

// diffInvitees compares by email value. Removals are rows whose email is not wanted plus
// extra rows repeating an email already kept; additions are wanted emails with no row.
func diffInvitees(current []*domain.Invitee, want []string) (removals []*domain.Invitee, additions []string) {
	wanted := wantSet(want)
	kept := make(map[string]struct{}, len(current))
	for _, inv := range current {
		if _, ok := wanted[inv.Email]; !ok {
			removals = append(removals, inv)
			continue
		}
		if _, dup := kept[inv.Email]; dup {
			removals = append(removals, inv)
			continue
		}
		kept[inv.Email] = struct{}{}
	}
	for _, email := range want {
		if _, ok := kept[email]; !ok {
			additions = append(additions, email)
		}
	}
	return removals, additions
}

func wantSet(want []string) map[string]struct{} {
	s := make(map[string]struct{}, len(want))
	for _, e := range want {
		s[e] = struct{}{}
	}
	return s
}
