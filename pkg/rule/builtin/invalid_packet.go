package builtin

import (
	"context"
	"math"
	"sort"

	"github.com/AccelByte/extend-realm-guard/pkg/rule"
	"github.com/AccelByte/extend-realm-guard/pkg/settings"
	"github.com/AccelByte/extend-realm-guard/pkg/signal"
	"github.com/AccelByte/extend-realm-guard/pkg/window"
	"github.com/sirupsen/logrus"
)

const (
	// InvalidPacketRuleID is the identifier for the packet sanity check
	InvalidPacketRuleID = "invalid_packet"

	DefaultWorldHorizontalLimit = 30_000_000.0
	DefaultWorldMinY            = -2048.0
	DefaultWorldMaxY            = 4096.0
	DefaultMaxVelocity          = 100.0
	DefaultMaxSlot              = 255
	DefaultMaxPacketCount       = 255
	DefaultMaxStringLength      = 10_000
)

// InvalidPacketRule checks decoded packet fields for values no legitimate
// client sends. Every signal with an anomaly is also recorded in the
// anomaly window so repeated offenders escalate.
type InvalidPacketRule struct {
	base
	horizontal float64
	minY       float64
	maxY       float64
	maxSpeed   float64
	maxSlot    int
	maxCount   int
	maxString  int
}

// NewInvalidPacketRule creates a new invalid packet rule.
func NewInvalidPacketRule(config rule.RuleConfig) *InvalidPacketRule {
	r := &InvalidPacketRule{
		base:       base{config: config},
		horizontal: config.GetFloat("world_horizontal_limit", DefaultWorldHorizontalLimit),
		minY:       config.GetFloat("world_min_y", DefaultWorldMinY),
		maxY:       config.GetFloat("world_max_y", DefaultWorldMaxY),
		maxSpeed:   config.GetFloat("max_velocity", DefaultMaxVelocity),
		maxSlot:    config.GetInt("max_slot", DefaultMaxSlot),
		maxCount:   config.GetInt("max_count", DefaultMaxPacketCount),
		maxString:  config.GetInt("max_string_length", DefaultMaxStringLength),
	}

	logrus.Infof("creating invalid packet rule with max_velocity=%.0f, max_string_length=%d", r.maxSpeed, r.maxString)

	return r
}

// Name returns the rule name.
func (r *InvalidPacketRule) Name() string {
	return "Invalid Packet Check"
}

// SignalTypes returns the signal types this rule handles.
func (r *InvalidPacketRule) SignalTypes() []string {
	return []string{signal.TypePacket, signal.TypeInventory}
}

// Enabled reports whether the tenant enables the check.
func (r *InvalidPacketRule) Enabled(s *settings.TenantSettings) bool {
	return s.Checks.InvalidPacket.Enabled
}

// Evaluate checks the packet and updates the anomaly window.
func (r *InvalidPacketRule) Evaluate(ctx context.Context, in *rule.Input) ([]rule.Flag, error) {
	var flags []rule.Flag
	switch sig := in.Signal.(type) {
	case *signal.PacketSignal:
		flags = r.checkPacket(sig)
	case *signal.InventorySignal:
		flags = r.checkInventory(sig)
	default:
		return nil, rule.Malformed("expected PacketSignal or InventorySignal, got %T", in.Signal)
	}
	if len(flags) == 0 {
		return nil, nil
	}

	cfg := in.Settings.Checks.InvalidPacket
	key := window.Key{Player: in.Player(), Category: rule.CategoryAnomaly}
	count := in.Windows.Anomalies.Window(key, cfg.AnomalyWindow()).Add(flags[0].Reason, in.Now)
	if count >= cfg.AnomalyThreshold {
		flags = append(flags, flag(rule.SeverityHigh, "%d packet anomalies in %ds", count, cfg.AnomalyWindowSeconds))
	}

	return flags, nil
}

func (r *InvalidPacketRule) checkPacket(p *signal.PacketSignal) []rule.Flag {
	var flags []rule.Flag

	if !finite(p) {
		// Bounds checks are meaningless on NaN or Inf.
		flags = append(flags, flag(rule.SeverityCritical, "%s carries non-finite numbers", p.PacketType))
	} else {
		if pos := p.Position; pos != nil {
			if math.Abs(pos.X) > r.horizontal || math.Abs(pos.Z) > r.horizontal || pos.Y < r.minY || pos.Y > r.maxY {
				flags = append(flags, flag(rule.SeverityHigh, "%s position (%.0f, %.0f, %.0f) outside the world", p.PacketType, pos.X, pos.Y, pos.Z))
			}
		}
		if v := p.Velocity; v != nil {
			if speed := math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z); speed > r.maxSpeed {
				flags = append(flags, flag(rule.SeverityHigh, "%s velocity %.1f (max %.0f)", p.PacketType, speed, r.maxSpeed))
			}
		}
		if rot := p.Rotation; rot != nil {
			if math.Abs(rot.Pitch) > 90 || math.Abs(rot.Yaw) > 360 || math.Abs(rot.HeadYaw) > 360 {
				flags = append(flags, flag(rule.SeverityMedium, "%s rotation out of range (pitch %.1f, yaw %.1f)", p.PacketType, rot.Pitch, rot.Yaw))
			}
		}
	}

	if p.Slot != nil && (*p.Slot < 0 || *p.Slot > r.maxSlot) {
		flags = append(flags, flag(rule.SeverityHigh, "%s slot %d out of range", p.PacketType, *p.Slot))
	}
	if p.Count != nil && (*p.Count < 0 || *p.Count > r.maxCount) {
		flags = append(flags, flag(rule.SeverityHigh, "%s count %d out of range", p.PacketType, *p.Count))
	}

	if name, n := r.longestString(p.Strings); name != "" {
		flags = append(flags, flag(rule.SeverityCritical, "%s field %q is %d characters", p.PacketType, name, n))
	}

	return flags
}

func (r *InvalidPacketRule) checkInventory(inv *signal.InventorySignal) []rule.Flag {
	var flags []rule.Flag
	badSlot, longString := false, false
	for _, item := range inv.Items {
		if !badSlot && (item.Slot < 0 || item.Slot > r.maxSlot) {
			badSlot = true
			flags = append(flags, flag(rule.SeverityHigh, "inventory slot %d out of range", item.Slot))
		}
		if !longString {
			if name, n := r.longestString(item.Strings); name != "" {
				longString = true
				flags = append(flags, flag(rule.SeverityCritical, "item %s field %q is %d characters", item.ID, name, n))
			}
		}
	}
	return flags
}

// longestString returns the first field, in name order, longer than the limit.
func (r *InvalidPacketRule) longestString(fields map[string]string) (string, int) {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if n := len(fields[name]); n > r.maxString {
			return name, n
		}
	}
	return "", 0
}

func finite(p *signal.PacketSignal) bool {
	values := make([]float64, 0, 9+len(p.Numbers))
	if p.Position != nil {
		values = append(values, p.Position.X, p.Position.Y, p.Position.Z)
	}
	if p.Velocity != nil {
		values = append(values, p.Velocity.X, p.Velocity.Y, p.Velocity.Z)
	}
	if p.Rotation != nil {
		values = append(values, p.Rotation.Pitch, p.Rotation.Yaw, p.Rotation.HeadYaw)
	}
	for _, v := range p.Numbers {
		values = append(values, v)
	}
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
