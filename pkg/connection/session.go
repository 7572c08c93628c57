package connection

import (
	"time"

	"github.com/AccelByte/extend-realm-guard/pkg/service"
	"github.com/AccelByte/extend-realm-guard/pkg/signal"
	"github.com/AccelByte/extend-realm-guard/pkg/state"
	"github.com/google/uuid"
)

// Credentials identify the session client inside the realm. Token is
// opaque and never logged.
type Credentials struct {
	BotXUID  string
	Gamertag string
	Token    string
}

// SessionHandle refers to one connection lifetime of a tenant.
type SessionHandle struct {
	ID        uuid.UUID
	Tenant    string
	Realm     service.Realm
	CreatedAt time.Time

	done <-chan struct{}
}

// Done is closed once the session has been torn down.
func (h *SessionHandle) Done() <-chan struct{} {
	return h.done
}

// SessionSnapshot is a read-only view of a tenant session.
type SessionSnapshot struct {
	ID                uuid.UUID             `json:"id"`
	Tenant            string                `json:"tenant"`
	Realm             service.Realm         `json:"realm"`
	Status            Status                `json:"status"`
	Classification    Classification        `json:"classification,omitempty"`
	CloseReason       string                `json:"closeReason,omitempty"`
	CreatedAt         time.Time             `json:"createdAt"`
	ConnectedAt       time.Time             `json:"connectedAt"`
	EndedAt           time.Time             `json:"endedAt"`
	OnlinePlayers     []state.PlayerSession `json:"onlinePlayers"`
	LastPlayerJoined  *state.PlayerSession  `json:"lastPlayerJoined,omitempty"`
	IncidentTriggered bool                  `json:"incidentTriggered"`
	HistorySize       int                   `json:"historySize"`
}

// Live reports whether the snapshot describes a session not yet torn down.
func (s *SessionSnapshot) Live() bool {
	return !s.Status.Terminal()
}

// Requests handled by a session's goroutine.
type (
	eventRequest struct {
		sig signal.Signal
	}

	profileResult struct {
		xuid    string
		profile *service.Profile
		err     error
	}

	sweepRequest struct{}

	snapshotRequest struct {
		reply chan *SessionSnapshot
	}

	terminateRequest struct {
		kind   TerminalKind
		reason string
		reply  chan struct{}
	}
)
