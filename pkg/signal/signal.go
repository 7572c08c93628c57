package signal

import (
	"strings"
	"time"
)

// Signal represents one decoded game event with player context.
// Signals are produced by the game client (or the ingest Processor) and
// are consumed by the pipeline and the Rule Engine for evaluation.
type Signal interface {
	// Type returns the signal type identifier (e.g., "join", "chat", "packet").
	Type() string

	// XUID returns the subject player's unique id. It may be empty for
	// events that only carry a display name, such as chat.
	XUID() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time

	// Metadata returns additional signal-specific data for logging and outbound events.
	Metadata() map[string]interface{}

	// Context returns the player context attached by the pipeline.
	Context() *PlayerContext

	// SetContext attaches player context before detectors run.
	SetContext(ctx *PlayerContext)
}

// PlayerContext describes the subject player as known to the tenant's
// session tracker at the time the signal is evaluated.
type PlayerContext struct {
	Tenant string
	// Key identifies the player in sliding windows: the xuid when known,
	// otherwise the display name.
	Key         string
	XUID        string
	Gamertag    string
	DeviceClass string
	Online      bool
	IsFirstJoin bool
	JoinedAt    time.Time
}

// NameKey is the window key for a player known only by display name.
func NameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// BaseSignal carries the fields shared by every signal type.
// Concrete signals embed it and add their own payload.
type BaseSignal struct {
	signalType string
	xuid       string
	timestamp  time.Time
	metadata   map[string]interface{}
	context    *PlayerContext
}

// NewBaseSignal creates the shared part of a signal.
func NewBaseSignal(signalType, xuid string, timestamp time.Time, metadata map[string]interface{}) BaseSignal {
	if metadata == nil {
		metadata = make(map[string]interface{})
	}
	return BaseSignal{
		signalType: signalType,
		xuid:       xuid,
		timestamp:  timestamp,
		metadata:   metadata,
	}
}

// Type implements Signal interface.
func (s *BaseSignal) Type() string {
	return s.signalType
}

// XUID implements Signal interface.
func (s *BaseSignal) XUID() string {
	return s.xuid
}

// Timestamp implements Signal interface.
func (s *BaseSignal) Timestamp() time.Time {
	return s.timestamp
}

// Metadata implements Signal interface.
func (s *BaseSignal) Metadata() map[string]interface{} {
	return s.metadata
}

// Context implements Signal interface.
func (s *BaseSignal) Context() *PlayerContext {
	return s.context
}

// SetContext implements Signal interface.
func (s *BaseSignal) SetContext(ctx *PlayerContext) {
	s.context = ctx
}
