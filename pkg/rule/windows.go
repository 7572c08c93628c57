package rule

import (
	"time"

	"github.com/AccelByte/extend-realm-guard/pkg/window"
)

// Window categories.
const (
	CategoryChat    = "chat"
	CategoryCommand = "command"
	CategoryAnomaly = "anomaly"
)

const (
	defaultWindow    = 10 * time.Second
	packetRateWindow = time.Second
)

// Windows is the per-tenant rate state detectors read and update.
// It is owned by the tenant's session goroutine.
type Windows struct {
	Chat       *window.Tracker[string]
	Commands   *window.Tracker[string]
	Anomalies  *window.Tracker[string]
	PacketRate *window.Counters
}

// NewWindows creates empty windows for one tenant.
func NewWindows() *Windows {
	return &Windows{
		Chat:       window.NewTracker[string](defaultWindow),
		Commands:   window.NewTracker[string](defaultWindow),
		Anomalies:  window.NewTracker[string](defaultWindow),
		PacketRate: window.NewCounters(packetRateWindow),
	}
}

// RemovePlayer drops all state for a player.
func (w *Windows) RemovePlayer(player string) int {
	return w.Chat.RemovePlayer(player) +
		w.Commands.RemovePlayer(player) +
		w.Anomalies.RemovePlayer(player) +
		w.PacketRate.RemovePlayer(player)
}

// Sweep drops every window and counter idle for longer than maxAge.
func (w *Windows) Sweep(now time.Time, maxAge time.Duration) int {
	return w.Chat.Sweep(now, maxAge) +
		w.Commands.Sweep(now, maxAge) +
		w.Anomalies.Sweep(now, maxAge) +
		w.PacketRate.Sweep(now, maxAge)
}

// Len returns the total number of tracked keys.
func (w *Windows) Len() int {
	return w.Chat.Len() + w.Commands.Len() + w.Anomalies.Len() + w.PacketRate.Len()
}
