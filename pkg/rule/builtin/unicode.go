package builtin

import (
	"context"
	"regexp"
	"unicode/utf8"

	"github.com/AccelByte/extend-realm-guard/pkg/rule"
	"github.com/AccelByte/extend-realm-guard/pkg/settings"
	"github.com/AccelByte/extend-realm-guard/pkg/signal"
	"github.com/rivo/uniseg"
	"github.com/sirupsen/logrus"
)

const (
	// UnicodeRuleID is the identifier for the unicode payload check
	UnicodeRuleID = "unicode"

	DefaultInvisibleThreshold = 3
	DefaultZalgoThreshold     = 20
	DefaultMinVisibleRatio    = 0.30
	DefaultVisibleRatioMinLen = 10
)

var (
	invisiblePattern = regexp.MustCompile(`[\x{200B}-\x{200D}\x{2060}-\x{2064}\x{FEFF}\x{180E}\x{3164}\x{115F}\x{1160}\x{FFA0}\x{00AD}]`)
	bidiPattern      = regexp.MustCompile(`[\x{202A}-\x{202E}\x{2066}-\x{2069}]`)
	controlPattern   = regexp.MustCompile(`[\x{0000}-\x{0008}\x{000B}\x{000C}\x{000E}-\x{001F}\x{007F}-\x{009F}]`)
	combiningPattern = regexp.MustCompile(`\p{M}`)
)

// UnicodeRule looks for chat text built to hide content or break rendering.
type UnicodeRule struct {
	base
	invisibleThreshold int
	zalgoThreshold     int
	minVisibleRatio    float64
	ratioMinLength     int
}

// NewUnicodeRule creates a new unicode rule.
func NewUnicodeRule(config rule.RuleConfig) *UnicodeRule {
	r := &UnicodeRule{
		base:               base{config: config},
		invisibleThreshold: config.GetInt("invisible_threshold", DefaultInvisibleThreshold),
		zalgoThreshold:     config.GetInt("zalgo_threshold", DefaultZalgoThreshold),
		minVisibleRatio:    config.GetFloat("min_visible_ratio", DefaultMinVisibleRatio),
		ratioMinLength:     config.GetInt("visible_ratio_min_length", DefaultVisibleRatioMinLen),
	}

	logrus.Infof("creating unicode rule with zalgo_threshold=%d", r.zalgoThreshold)

	return r
}

// Name returns the rule name.
func (r *UnicodeRule) Name() string {
	return "Unicode Payload Check"
}

// SignalTypes returns the signal types this rule handles.
func (r *UnicodeRule) SignalTypes() []string {
	return []string{signal.TypeChat}
}

// Enabled reports whether the tenant enables the check.
func (r *UnicodeRule) Enabled(s *settings.TenantSettings) bool {
	return s.Checks.Unicode.Enabled
}

// Evaluate checks one chat message.
func (r *UnicodeRule) Evaluate(ctx context.Context, in *rule.Input) ([]rule.Flag, error) {
	chat, ok := in.Signal.(*signal.ChatSignal)
	if !ok {
		return nil, rule.Malformed("expected ChatSignal, got %T", in.Signal)
	}
	text := chat.Text
	if !utf8.ValidString(text) {
		return nil, rule.Malformed("chat text is not valid UTF-8")
	}

	var flags []rule.Flag

	if n := len(invisiblePattern.FindAllStringIndex(text, -1)); n >= r.invisibleThreshold {
		flags = append(flags, flag(rule.SeverityMedium, "%d invisible characters", n))
	}
	if bidiPattern.MatchString(text) {
		flags = append(flags, flag(rule.SeverityHigh, "bidirectional override characters"))
	}
	if controlPattern.MatchString(text) {
		flags = append(flags, flag(rule.SeverityHigh, "control characters"))
	}
	if n := len(combiningPattern.FindAllStringIndex(text, -1)); n > r.zalgoThreshold {
		flags = append(flags, flag(rule.SeverityHigh, "%d combining marks", n))
	}

	raw := utf8.RuneCountInString(text)
	if raw > r.ratioMinLength {
		visible := visibleLength(text)
		if ratio := float64(visible) / float64(raw); ratio < r.minVisibleRatio {
			flags = append(flags, flag(rule.SeverityMedium, "only %d of %d characters are visible", visible, raw))
		}
	}

	return flags, nil
}

// visibleLength counts user-perceived characters once invisible, bidi and
// control runes are removed.
func visibleLength(text string) int {
	stripped := invisiblePattern.ReplaceAllString(text, "")
	stripped = bidiPattern.ReplaceAllString(stripped, "")
	stripped = controlPattern.ReplaceAllString(stripped, "")
	return uniseg.GraphemeClusterCount(stripped)
}
