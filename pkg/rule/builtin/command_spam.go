package builtin

import (
	"context"
	"strings"

	"github.com/AccelByte/extend-realm-guard/pkg/rule"
	"github.com/AccelByte/extend-realm-guard/pkg/settings"
	"github.com/AccelByte/extend-realm-guard/pkg/signal"
	"github.com/AccelByte/extend-realm-guard/pkg/window"
	"github.com/sirupsen/logrus"
)

const (
	// CommandSpamRuleID is the identifier for the command spam check
	CommandSpamRuleID = "command_spam"

	// DefaultRepetitiveRatio is the share of one command that marks the
	// window as bot-like
	DefaultRepetitiveRatio = 0.70
)

// CommandSpamRule tracks each player's recent commands in a sliding window.
type CommandSpamRule struct {
	base
	repetitiveRatio float64
}

// NewCommandSpamRule creates a new command spam rule.
func NewCommandSpamRule(config rule.RuleConfig) *CommandSpamRule {
	r := &CommandSpamRule{
		base:            base{config: config},
		repetitiveRatio: config.GetFloat("repetitive_ratio", DefaultRepetitiveRatio),
	}

	logrus.Infof("creating command spam rule with repetitive_ratio=%.2f", r.repetitiveRatio)

	return r
}

// Name returns the rule name.
func (r *CommandSpamRule) Name() string {
	return "Command Spam Check"
}

// SignalTypes returns the signal types this rule handles.
func (r *CommandSpamRule) SignalTypes() []string {
	return []string{signal.TypeCommand}
}

// Enabled reports whether the tenant enables the check.
func (r *CommandSpamRule) Enabled(s *settings.TenantSettings) bool {
	return s.Checks.CommandSpam.Enabled
}

// Evaluate records the command and checks the player's window.
func (r *CommandSpamRule) Evaluate(ctx context.Context, in *rule.Input) ([]rule.Flag, error) {
	cmd, ok := in.Signal.(*signal.CommandSignal)
	if !ok {
		return nil, rule.Malformed("expected CommandSignal, got %T", in.Signal)
	}
	name := commandName(cmd.Command)
	if name == "" {
		return nil, rule.Malformed("empty command")
	}
	cfg := in.Settings.Checks.CommandSpam

	key := window.Key{Player: in.Player(), Category: rule.CategoryCommand}
	w := in.Windows.Commands.Window(key, cfg.Window())
	count := w.Add(name, in.Now)
	if count <= cfg.MaxCommands {
		return nil, nil
	}

	counts := make(map[string]int)
	top, topCount := "", 0
	for _, e := range w.Entries(in.Now) {
		counts[e.Value]++
		if counts[e.Value] > topCount {
			top, topCount = e.Value, counts[e.Value]
		}
	}

	if ratio := float64(topCount) / float64(count); ratio > r.repetitiveRatio {
		return []rule.Flag{flag(rule.SeverityHigh, "%d commands in %ds, %.0f%% /%s", count, cfg.TimeWindowSeconds, ratio*100, top)}, nil
	}
	return []rule.Flag{flag(rule.SeverityMedium, "%d commands in %ds (max %d)", count, cfg.TimeWindowSeconds, cfg.MaxCommands)}, nil
}

// commandName returns the lowercased command word without its slash.
func commandName(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(strings.TrimPrefix(fields[0], "/"))
}
