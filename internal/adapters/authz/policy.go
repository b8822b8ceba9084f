package authz

import (
	"context"

	"eventplanner/internal/domain"
)

// EventPolicy grants class-level actions (viewAny, create) to any identified actor and
// per-event actions to the event's owner. Admins may act on any event.
type EventPolicy struct {
	admins map[string]struct{}
}

// NewEventPolicy returns a policy that treats adminIDs as owners of every event.
func NewEventPolicy(adminIDs ...string) *EventPolicy {
	admins := make(map[string]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		if id != "" {
			admins[id] = struct{}{}
		}
	}
	return &EventPolicy{admins: admins}
}

func (p *EventPolicy) Decide(_ context.Context, actorID string, action domain.Action, event *domain.Event) domain.Decision {
	if actorID == "" {
		return domain.Deny
	}
	switch action {
	case domain.ActionViewAny, domain.ActionCreate:
		return domain.Allow
	case domain.ActionView, domain.ActionUpdate, domain.ActionDelete:
		if event == nil {
			return domain.Deny
		}
		if event.OwnerID == actorID {
			return domain.Allow
		}
		if _, ok := p.admins[actorID]; ok {
			return domain.Allow
		}
		return domain.Deny
	default:
		return domain.Deny
	}
}
