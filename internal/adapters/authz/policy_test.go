package authz

import (
	"context"
	"testing"

	"eventplanner/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestEventPolicy_Decide(t *testing.T) {
	ctx := context.Background()
	owned := &domain.Event{ID: "ev-1", OwnerID: "user-1"}
	policy := NewEventPolicy("admin-1", "")

	tests := []struct {
		name   string
		actor  string
		action domain.Action
		event  *domain.Event
		want   domain.Decision
	}{
		{"any user lists", "user-2", domain.ActionViewAny, nil, domain.Allow},
		{"any user creates", "user-2", domain.ActionCreate, nil, domain.Allow},
		{"owner views", "user-1", domain.ActionView, owned, domain.Allow},
		{"owner updates", "user-1", domain.ActionUpdate, owned, domain.Allow},
		{"owner deletes", "user-1", domain.ActionDelete, owned, domain.Allow},
		{"stranger views", "user-2", domain.ActionView, owned, domain.Deny},
		{"stranger updates", "user-2", domain.ActionUpdate, owned, domain.Deny},
		{"stranger deletes", "user-2", domain.ActionDelete, owned, domain.Deny},
		{"admin updates", "admin-1", domain.ActionUpdate, owned, domain.Allow},
		{"anonymous creates", "", domain.ActionCreate, nil, domain.Deny},
		{"anonymous views", "", domain.ActionView, owned, domain.Deny},
		{"event action without event", "user-1", domain.ActionView, nil, domain.Deny},
		{"unknown action", "user-1", domain.Action("publish"), owned, domain.Deny},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, policy.Decide(ctx, tt.actor, tt.action, tt.event))
		})
	}
}
