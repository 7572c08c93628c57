package handler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AccelByte/extend-realm-guard/pkg/common"
	"github.com/AccelByte/extend-realm-guard/pkg/connection"
	"github.com/AccelByte/extend-realm-guard/pkg/metrics"
	"github.com/AccelByte/extend-realm-guard/pkg/service"
	"github.com/AccelByte/extend-realm-guard/pkg/signal"
	"github.com/goccy/go-json"
)

// Control operations accepted on the control subject.
const (
	OpConnect    = "connect"
	OpDisconnect = "disconnect"
)

var (
	// ErrInvalidControl is returned for control messages that cannot be applied.
	ErrInvalidControl = errors.New("invalid control message")
)

// Sessions is the part of the lifecycle manager the game client drives.
type Sessions interface {
	Connect(ctx context.Context, tenant string, realm service.Realm, creds connection.Credentials) (*connection.SessionHandle, error)
	Disconnect(ctx context.Context, tenant string) bool
	Dispatch(ctx context.Context, tenant string, sig signal.Signal) error
}

// ControlMessage asks for a tenant session to be opened or closed.
type ControlMessage struct {
	Op       string        `json:"op"`
	Tenant   string        `json:"tenant"`
	Realm    service.Realm `json:"realm"`
	BotXUID  string        `json:"botXuid"`
	Gamertag string        `json:"gamertag"`
	Token    string        `json:"token"`
}

// DefaultDispatchTimeout bounds how long one event waits for room in its
// tenant's inbox.
const DefaultDispatchTimeout = 250 * time.Millisecond

// Ingest turns messages from the game client into lifecycle calls and
// ordered tenant events.
type Ingest struct {
	processor       *signal.Processor
	sessions        Sessions
	dispatchTimeout time.Duration
}

// IngestOption configures an Ingest.
type IngestOption func(*Ingest)

// WithDispatchTimeout sets how long an event may wait for a full inbox
// before it is dropped. Non-positive values keep the default.
func WithDispatchTimeout(d time.Duration) IngestOption {
	return func(h *Ingest) {
		if d > 0 {
			h.dispatchTimeout = d
		}
	}
}

// NewIngest creates a new ingest handler
func NewIngest(processor *signal.Processor, sessions Sessions, opts ...IngestOption) *Ingest {
	h := &Ingest{
		processor:       processor,
		sessions:        sessions,
		dispatchTimeout: DefaultDispatchTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// OnEvent decodes one event envelope and queues it on its tenant's session.
func (h *Ingest) OnEvent(ctx context.Context, data []byte) error {
	scope := common.StartScope(ctx, "Ingest.OnEvent")
	defer scope.Finish()

	raw, sig, err := h.processor.Decode(scope.Ctx, data)
	if err != nil {
		metrics.IngestRejected.WithLabelValues("decode").Inc()
		scope.TraceError(err)
		scope.Log.Warnf("dropping undecodable event: %v", err)
		return err
	}
	scope.WithTenant(raw.Tenant).SetAttributes("event.type", raw.Type)

	// A tenant with a backed-up inbox must not stall the shared subscription.
	dispatchCtx, cancel := context.WithTimeout(scope.Ctx, h.dispatchTimeout)
	defer cancel()

	if err := h.sessions.Dispatch(dispatchCtx, raw.Tenant, sig); err != nil {
		reason := "dispatch"
		switch {
		case errors.Is(err, connection.ErrNoSession):
			reason = "no_session"
		case errors.Is(err, connection.ErrInboxFull):
			reason = "inbox_full"
		}
		metrics.IngestRejected.WithLabelValues(reason).Inc()
		scope.TraceError(err)
		scope.Log.Debugf("dropping %s event: %v", raw.Type, err)
		return err
	}
	return nil
}

// OnControl applies one control message.
func (h *Ingest) OnControl(ctx context.Context, data []byte) error {
	scope := common.StartScope(ctx, "Ingest.OnControl")
	defer scope.Finish()

	var msg ControlMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		metrics.IngestRejected.WithLabelValues("control").Inc()
		return fmt.Errorf("%w: %v", ErrInvalidControl, err)
	}
	if msg.Tenant == "" {
		metrics.IngestRejected.WithLabelValues("control").Inc()
		return fmt.Errorf("%w: tenant is empty", ErrInvalidControl)
	}
	scope.WithTenant(msg.Tenant).SetAttributes("control.op", msg.Op)

	switch msg.Op {
	case OpConnect:
		handle, err := h.sessions.Connect(scope.Ctx, msg.Tenant, msg.Realm, connection.Credentials{
			BotXUID:  msg.BotXUID,
			Gamertag: msg.Gamertag,
			Token:    msg.Token,
		})
		if err != nil {
			scope.TraceError(err)
			return err
		}
		scope.Log.Infof("connect requested for realm %s (session %s, token %s)", msg.Realm.ID, handle.ID, common.RedactSecret(msg.Token))
		return nil

	case OpDisconnect:
		if !h.sessions.Disconnect(scope.Ctx, msg.Tenant) {
			scope.Log.Info("disconnect requested with no live session")
		}
		return nil
	}

	metrics.IngestRejected.WithLabelValues("control").Inc()
	return fmt.Errorf("%w: unknown op %q", ErrInvalidControl, msg.Op)
}
