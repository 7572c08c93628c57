package pipeline

import (
	"github.com/AccelByte/extend-realm-guard/pkg/rule"
	"github.com/AccelByte/extend-realm-guard/pkg/service"
	"github.com/AccelByte/extend-realm-guard/pkg/state"
	"github.com/jonboulle/clockwork"
)

// Tenant is the per-connection state the pipeline reads and updates.
// It is owned by the tenant's session goroutine and must not be shared.
type Tenant struct {
	ID      string
	Realm   service.Realm
	BotXUID string
	Tracker *state.Tracker
	Windows *rule.Windows
	// Enforced holds the xuids that already received a detector-triggered
	// enforcement during this connection lifetime.
	Enforced map[string]bool
}

// NewTenant creates empty pipeline state for one connection lifetime.
func NewTenant(id string, realm service.Realm, botXUID string, clock clockwork.Clock, maxHistory int) *Tenant {
	return &Tenant{
		ID:       id,
		Realm:    realm,
		BotXUID:  botXUID,
		Tracker:  state.NewTracker(clock, maxHistory),
		Windows:  rule.NewWindows(),
		Enforced: make(map[string]bool),
	}
}

// MarkEnforced records an enforcement for xuid. It returns false when the
// player was already enforced against.
func (t *Tenant) MarkEnforced(xuid string) bool {
	if t.Enforced[xuid] {
		return false
	}
	t.Enforced[xuid] = true
	return true
}

// ForgetOffline drops enforced entries of players no longer online.
func (t *Tenant) ForgetOffline() int {
	removed := 0
	for xuid := range t.Enforced {
		if !t.Tracker.IsOnline(xuid) {
			delete(t.Enforced, xuid)
			removed++
		}
	}
	return removed
}

// Outcome reports what one Process call did.
type Outcome struct {
	// Joined is set for a tracked join of a player other than the bot.
	Joined *state.PlayerSession
	// Left is set when a leave closed a live session.
	Left *state.LeaveSummary
	// Verdict is nil when detection was skipped.
	Verdict *rule.Verdict
	// Enforced reports whether an enforcement was submitted.
	Enforced bool
}
