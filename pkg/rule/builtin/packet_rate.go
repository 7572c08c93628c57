package builtin

import (
	"context"

	"github.com/AccelByte/extend-realm-guard/pkg/rule"
	"github.com/AccelByte/extend-realm-guard/pkg/settings"
	"github.com/AccelByte/extend-realm-guard/pkg/signal"
	"github.com/AccelByte/extend-realm-guard/pkg/window"
	"github.com/sirupsen/logrus"
)

const (
	// PacketRateRuleID is the identifier for the packet rate check
	PacketRateRuleID = "packet_rate"

	DefaultPacketBudget     = 100
	DefaultBurstMultiplier  = 2
	DefaultFloodMultiplier  = 5
	DefaultSustainedWindows = 3
)

var defaultPacketBudgets = map[string]int{
	"move_player":           30,
	"player_auth_input":     30,
	"animate":               20,
	"text":                  10,
	"command_request":       10,
	"inventory_transaction": 30,
	"interact":              20,
	"player_action":         30,
	"mob_equipment":         20,
	"level_sound_event":     30,
}

// PacketRateRule counts packets per player and type in 1-second windows.
type PacketRateRule struct {
	base
	budgets       map[string]int
	defaultBudget int
	burst         int
	flood         int
	sustained     int
}

// NewPacketRateRule creates a new packet rate rule.
func NewPacketRateRule(config rule.RuleConfig) *PacketRateRule {
	r := &PacketRateRule{
		base:          base{config: config},
		budgets:       config.GetIntMap("budgets", defaultPacketBudgets),
		defaultBudget: config.GetInt("default_budget", DefaultPacketBudget),
		burst:         config.GetInt("burst_multiplier", DefaultBurstMultiplier),
		flood:         config.GetInt("flood_multiplier", DefaultFloodMultiplier),
		sustained:     config.GetInt("sustained_windows", DefaultSustainedWindows),
	}
	if r.defaultBudget <= 0 {
		r.defaultBudget = DefaultPacketBudget
	}
	if r.burst <= 0 {
		r.burst = DefaultBurstMultiplier
	}
	if r.flood <= 0 {
		r.flood = DefaultFloodMultiplier
	}
	if r.sustained <= 0 {
		r.sustained = DefaultSustainedWindows
	}

	logrus.Infof("creating packet rate rule with %d budgets, default=%d", len(r.budgets), r.defaultBudget)

	return r
}

// Name returns the rule name.
func (r *PacketRateRule) Name() string {
	return "Packet Rate Check"
}

// SignalTypes returns the signal types this rule handles.
func (r *PacketRateRule) SignalTypes() []string {
	return []string{signal.TypePacket}
}

// Enabled reports whether the tenant enables the check.
func (r *PacketRateRule) Enabled(s *settings.TenantSettings) bool {
	return s.Checks.PacketRate.Enabled
}

// Budget returns the per-second budget for a packet type. Tenant
// overrides win over the rule's own table.
func (r *PacketRateRule) Budget(s *settings.TenantSettings, packetType string) int {
	if b, ok := s.Checks.PacketRate.Budgets[packetType]; ok && b > 0 {
		return b
	}
	if b, ok := r.budgets[packetType]; ok && b > 0 {
		return b
	}
	return r.defaultBudget
}

// Evaluate counts the packet. Each threshold flags once per window, on the
// packet that crosses it.
func (r *PacketRateRule) Evaluate(ctx context.Context, in *rule.Input) ([]rule.Flag, error) {
	p, ok := in.Signal.(*signal.PacketSignal)
	if !ok {
		return nil, rule.Malformed("expected PacketSignal, got %T", in.Signal)
	}
	if p.PacketType == "" {
		return nil, rule.Malformed("packet without type")
	}

	budget := r.Budget(in.Settings, p.PacketType)
	key := window.Key{Player: in.Player(), Category: p.PacketType}
	sample := in.Windows.PacketRate.Increment(key, in.Now, budget)

	var flags []rule.Flag
	switch sample.Count {
	case r.flood*budget + 1:
		flags = append(flags, flag(rule.SeverityCritical, "%d %s packets in 1s (budget %d)", sample.Count, p.PacketType, budget))
	case r.burst*budget + 1:
		flags = append(flags, flag(rule.SeverityHigh, "%d %s packets in 1s (budget %d)", sample.Count, p.PacketType, budget))
	}

	// The current window joins the streak once it goes over budget.
	if sample.Count == budget+1 && sample.Consecutive+1 >= r.sustained {
		flags = append(flags, flag(rule.SeverityHigh, "%s over budget for %d consecutive seconds", p.PacketType, sample.Consecutive+1))
	}

	return flags, nil
}
