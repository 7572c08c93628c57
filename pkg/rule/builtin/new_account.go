package builtin

import (
	"context"

	"github.com/AccelByte/extend-realm-guard/pkg/rule"
	"github.com/AccelByte/extend-realm-guard/pkg/settings"
	"github.com/AccelByte/extend-realm-guard/pkg/signal"
	"github.com/sirupsen/logrus"
)

// NewAccountRuleID is the identifier for the remote profile check
const NewAccountRuleID = "new_account"

// NewAccountRule flags accounts whose remote profile looks freshly made.
// It runs on profile results posted back into the tenant's event stream;
// a failed lookup never produces a signal, so it is never flagged.
type NewAccountRule struct {
	base
}

// NewNewAccountRule creates a new account rule.
func NewNewAccountRule(config rule.RuleConfig) *NewAccountRule {
	logrus.Infof("creating new account rule")

	return &NewAccountRule{base: base{config: config}}
}

// Name returns the rule name.
func (r *NewAccountRule) Name() string {
	return "New Account Check"
}

// SignalTypes returns the signal types this rule handles.
func (r *NewAccountRule) SignalTypes() []string {
	return []string{signal.TypeProfile}
}

// Enabled reports whether the tenant enables the check.
func (r *NewAccountRule) Enabled(s *settings.TenantSettings) bool {
	return s.Checks.NewAccount.Enabled
}

// Evaluate checks the fetched profile.
func (r *NewAccountRule) Evaluate(ctx context.Context, in *rule.Input) ([]rule.Flag, error) {
	profile, ok := in.Signal.(*signal.ProfileSignal)
	if !ok {
		return nil, rule.Malformed("expected ProfileSignal, got %T", in.Signal)
	}
	if profile.Gamerscore < 0 || profile.Followers < 0 {
		return nil, rule.Malformed("negative profile counters")
	}

	minScore := in.Settings.Checks.NewAccount.MinGamerscore
	if profile.Gamerscore == 0 && profile.Followers == 0 {
		return []rule.Flag{flag(rule.SeverityMedium, "empty profile: no gamerscore and no followers")}, nil
	}
	if profile.Gamerscore < minScore {
		return []rule.Flag{flag(rule.SeverityLow, "gamerscore %d below %d", profile.Gamerscore, minScore)}, nil
	}
	return nil, nil
}
