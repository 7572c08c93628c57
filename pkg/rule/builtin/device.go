package builtin

import (
	"context"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/AccelByte/extend-realm-guard/pkg/rule"
	"github.com/AccelByte/extend-realm-guard/pkg/settings"
	"github.com/AccelByte/extend-realm-guard/pkg/signal"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	// DeviceRuleID is the identifier for the device and platform check
	DeviceRuleID = "device"

	// DefaultMaxDeviceModelLength is the longest accepted device model string
	DefaultMaxDeviceModelLength = 64
)

var defaultHostileClients = []string{
	"horion",
	"zephyr",
	"toolbox",
	"ambrosial",
	"nukkit",
	"proxy",
	"packet",
}

var (
	localePattern   = regexp.MustCompile(`^[a-z]{2,3}_[A-Z]{2}$`)
	deviceIDPattern = regexp.MustCompile(`^[0-9A-Za-z-]{8,128}$`)
)

// DeviceRule cross-checks the device data a joining player declares.
type DeviceRule struct {
	base
	maxModelLength int
	hostileClients []string
}

// NewDeviceRule creates a new device rule.
func NewDeviceRule(config rule.RuleConfig) *DeviceRule {
	r := &DeviceRule{
		base:           base{config: config},
		maxModelLength: config.GetInt("max_model_length", DefaultMaxDeviceModelLength),
		hostileClients: config.GetStringSlice("hostile_clients", defaultHostileClients),
	}

	logrus.Infof("creating device rule with %d hostile client markers", len(r.hostileClients))

	return r
}

// Name returns the rule name.
func (r *DeviceRule) Name() string {
	return "Device Check"
}

// SignalTypes returns the signal types this rule handles.
func (r *DeviceRule) SignalTypes() []string {
	return []string{signal.TypeJoin}
}

// Enabled reports whether the tenant enables the check.
func (r *DeviceRule) Enabled(s *settings.TenantSettings) bool {
	return s.Checks.Device.Enabled
}

// Evaluate checks the declared device of a joining player.
func (r *DeviceRule) Evaluate(ctx context.Context, in *rule.Input) ([]rule.Flag, error) {
	join, ok := in.Signal.(*signal.JoinSignal)
	if !ok {
		return nil, rule.Malformed("expected JoinSignal, got %T", in.Signal)
	}
	d := join.Facts.Device

	var flags []rule.Flag

	switch {
	case d.Platform == signal.PlatformDedicated:
		flags = append(flags, flag(rule.SeverityHigh, "server platform id %d on a player", d.Platform))
	case signal.PlatformName(d.Platform) == "Unknown":
		flags = append(flags, flag(rule.SeverityHigh, "unknown platform id %d", d.Platform))
	}

	if signal.IsConsole(d.Platform) && d.InputMode != signal.InputGamepad && d.DefaultInputMode != signal.InputGamepad {
		flags = append(flags, flag(rule.SeverityMedium, "%s without controller input (mode %d)", signal.PlatformName(d.Platform), d.InputMode))
	}

	model := strings.ToLower(d.DeviceModel)
	for _, marker := range r.hostileClients {
		if marker != "" && strings.Contains(model, strings.ToLower(marker)) {
			flags = append(flags, flag(rule.SeverityCritical, "device model %q matches hostile client %q", d.DeviceModel, marker))
			break
		}
	}

	if utf8.RuneCountInString(d.DeviceModel) > r.maxModelLength {
		flags = append(flags, flag(rule.SeverityHigh, "device model is %d characters", utf8.RuneCountInString(d.DeviceModel)))
	} else if !printable(d.DeviceModel) {
		flags = append(flags, flag(rule.SeverityHigh, "device model has non-printable characters"))
	}

	if reason := checkDeviceID(d.DeviceID); reason != "" {
		flags = append(flags, flag(rule.SeverityHigh, "%s", reason))
	}

	if !localePattern.MatchString(d.Locale) {
		flags = append(flags, flag(rule.SeverityLow, "suspicious locale %q", d.Locale))
	}

	if d.EditorMode {
		flags = append(flags, flag(rule.SeverityHigh, "client reports editor mode"))
	}
	if d.UntrustedSkin {
		flags = append(flags, flag(rule.SeverityMedium, "client reports an untrusted skin"))
	}

	return flags, nil
}

func checkDeviceID(id string) string {
	if strings.TrimSpace(id) == "" {
		return "empty device id"
	}
	if parsed, err := uuid.Parse(id); err == nil && parsed == uuid.Nil {
		return "zero device id"
	}
	if strings.Trim(id, "0-") == "" {
		return "zero device id"
	}
	if !deviceIDPattern.MatchString(id) {
		return "malformed device id"
	}
	return ""
}

func printable(s string) bool {
	for _, r := range s {
		if !unicode.IsPrint(r) {
			return false
		}
	}
	return true
}
