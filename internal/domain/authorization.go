package domain

import "context"

// Action is an operation subject to authorization.
type Action string

const (
	ActionViewAny Action = "viewAny"
	ActionView    Action = "view"
	ActionCreate  Action = "create"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
)

// Decision is the outcome of an authorization check.
type Decision bool

const (
	Deny  Decision = false
	Allow Decision = true
)

// Authorizer decides whether actorID may perform action. event is nil for class-level
// actions (viewAny, create).
type Authorizer interface {
	Decide(ctx context.Context, actorID string, action Action, event *Event) Decision
}
