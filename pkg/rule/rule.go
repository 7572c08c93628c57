package rule

import (
	"context"
	"time"

	"github.com/AccelByte/extend-realm-guard/pkg/settings"
	"github.com/AccelByte/extend-realm-guard/pkg/signal"
)

// Rule is one detector. Rules evaluate signals and return detection flags.
// Rules are registered in a Registry and evaluated by the Engine.
type Rule interface {
	// ID returns unique rule identifier.
	ID() string

	// Name returns human-readable rule name.
	Name() string

	// SignalTypes returns which signal types this rule handles.
	// An empty slice means the rule handles all signal types.
	SignalTypes() []string

	// Enabled reports whether the tenant settings switch this rule on.
	Enabled(s *settings.TenantSettings) bool

	// Evaluate inspects the signal and returns the flags it raised.
	// Local computation only; a rule never performs I/O.
	// Returns an error wrapping ErrMalformedEvent when a field cannot be
	// interpreted; the engine then treats the rule as not flagged.
	Evaluate(ctx context.Context, in *Input) ([]Flag, error)

	// Config returns the rule's configuration.
	Config() RuleConfig
}

// Input is everything a rule may read for one evaluation.
type Input struct {
	Tenant   string
	Settings *settings.TenantSettings
	Signal   signal.Signal
	Windows  *Windows
	Now      time.Time
}

// Player returns the key identifying the subject player in windows.
func (in *Input) Player() string {
	if c := in.Signal.Context(); c != nil && c.Key != "" {
		return c.Key
	}
	return in.Signal.XUID()
}
