package event

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Outbound event names.
const (
	NameJoin          = "join"
	NameLeave         = "leave"
	NameChat          = "chat"
	NameDeath         = "death"
	NameAutomodFlag   = "automod-flag"
	NameAutomodAction = "automod-action"
	NameRealmCrashed  = "realm-crashed"
	NameRealmClosed   = "realm-closed"
	NameConnected     = "connected"
	NameDisconnected  = "disconnected"
	NameKicked        = "kicked"
	NameError         = "error"
)

// Event is one outbound notification about a tenant.
type Event struct {
	ID        uuid.UUID              `json:"id"`
	Name      string                 `json:"name"`
	Tenant    string                 `json:"tenant"`
	Timestamp time.Time              `json:"timestamp"`
	Payload   map[string]interface{} `json:"payload"`
}

// Emitter publishes outbound events. Emit never blocks the caller.
type Emitter interface {
	Emit(name, tenant string, payload map[string]interface{})
}

// Subscriber receives events from the bus, one at a time and in order.
type Subscriber interface {
	Deliver(ctx context.Context, e Event) error
}

// SubscriberFunc adapts a function to Subscriber.
type SubscriberFunc func(ctx context.Context, e Event) error

// Deliver implements Subscriber.
func (f SubscriberFunc) Deliver(ctx context.Context, e Event) error {
	return f(ctx, e)
}

// Discard is an Emitter that drops every event.
type Discard struct{}

// Emit implements Emitter.
func (Discard) Emit(name, tenant string, payload map[string]interface{}) {}
