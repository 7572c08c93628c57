package builtin

import (
	"context"
	"net/netip"
	"regexp"
	"strings"

	"github.com/AccelByte/extend-realm-guard/pkg/rule"
	"github.com/AccelByte/extend-realm-guard/pkg/settings"
	"github.com/AccelByte/extend-realm-guard/pkg/signal"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/unicode/norm"
)

// AdvertisingRuleID is the identifier for the advertising check
const AdvertisingRuleID = "advertising"

var defaultAllowedDomains = []string{
	"minecraft.net",
	"mojang.com",
	"xbox.com",
	"microsoft.com",
}

var (
	invitePattern     = regexp.MustCompile(`\b(?:discord\.gg|discord(?:app)?\.com/invite|dsc\.gg|invite\.gg)/[a-z0-9-]+`)
	ipPattern         = regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}(?::\d{2,5})?\b`)
	domainPattern     = regexp.MustCompile(`\b((?:[a-z0-9-]+\.)+(?:net|com|org|gg|io|me|pro|xyz|club|fun|world|us|uk|co|tv|mc))(?::\d{2,5})?\b`)
	solicitPattern    = regexp.MustCompile(`\b(?:sub(?:scribe)? to|follow (?:me|my)|check out my (?:channel|stream|server)|twitch\.tv/|youtube\.com/(?:c/|channel/|@)|youtu\.be/|tiktok\.com/@)`)
	sellingPattern    = regexp.MustCompile(`(?:\b(?:selling|buying|for sale|wts|wtb|paypal|cashapp|venmo)\b|\$\s?\d+|\b\d+\s?(?:usd|dollars)\b)`)
	invisibleStripper = strings.NewReplacer("\u200b", "", "\u200c", "", "\u200d", "", "\u2060", "", "\ufeff", "")
)

// inviteHosts are reported by the invite pattern rather than as domains.
var inviteHosts = map[string]bool{
	"discord.gg":     true,
	"discord.com":    true,
	"discordapp.com": true,
	"dsc.gg":         true,
	"invite.gg":      true,
}

// AdvertisingRule looks for server, invite and selling spam in chat.
type AdvertisingRule struct {
	base
	allowed []string
}

// NewAdvertisingRule creates a new advertising rule. Tenants extend the
// allow-list through settings.
func NewAdvertisingRule(config rule.RuleConfig) *AdvertisingRule {
	r := &AdvertisingRule{
		base:    base{config: config},
		allowed: config.GetStringSlice("allowed_domains", defaultAllowedDomains),
	}

	logrus.Infof("creating advertising rule with %d allowed domains", len(r.allowed))

	return r
}

// Name returns the rule name.
func (r *AdvertisingRule) Name() string {
	return "Advertising Check"
}

// SignalTypes returns the signal types this rule handles.
func (r *AdvertisingRule) SignalTypes() []string {
	return []string{signal.TypeChat}
}

// Enabled reports whether the tenant enables the check.
func (r *AdvertisingRule) Enabled(s *settings.TenantSettings) bool {
	return s.Checks.Advertising.Enabled
}

// Evaluate checks one chat message.
func (r *AdvertisingRule) Evaluate(ctx context.Context, in *rule.Input) ([]rule.Flag, error) {
	chat, ok := in.Signal.(*signal.ChatSignal)
	if !ok {
		return nil, rule.Malformed("expected ChatSignal, got %T", in.Signal)
	}

	// NFKC folds full-width and stylised letters onto ASCII.
	text := strings.ToLower(norm.NFKC.String(chat.Text))
	text = invisibleStripper.Replace(text)
	allowed := append(append([]string(nil), r.allowed...), in.Settings.Checks.Advertising.AllowedDomains...)

	var flags []rule.Flag

	for _, m := range invitePattern.FindAllString(text, -1) {
		if !isAllowed(m[:strings.Index(m, "/")], allowed) {
			flags = append(flags, flag(rule.SeverityHigh, "invite link %q", m))
			break
		}
	}
	for _, m := range ipPattern.FindAllString(text, -1) {
		if validIPv4(m) {
			flags = append(flags, flag(rule.SeverityHigh, "server address %q", m))
			break
		}
	}
	for _, m := range domainPattern.FindAllStringSubmatch(text, -1) {
		host := m[1]
		if isAllowed(host, allowed) || inviteHosts[host] {
			continue
		}
		flags = append(flags, flag(rule.SeverityMedium, "domain %q", host))
		break
	}
	if m := solicitPattern.FindString(text); m != "" {
		flags = append(flags, flag(rule.SeverityLow, "solicitation %q", m))
	}
	if m := sellingPattern.FindString(text); m != "" {
		flags = append(flags, flag(rule.SeverityMedium, "selling or trading %q", strings.TrimSpace(m)))
	}

	return flags, nil
}

// isAllowed reports whether host is an allowed domain or a subdomain of one.
func isAllowed(host string, allowed []string) bool {
	host = strings.TrimSuffix(host, ".")
	for _, a := range allowed {
		a = strings.ToLower(strings.TrimSpace(a))
		if a == "" {
			continue
		}
		if host == a || strings.HasSuffix(host, "."+a) {
			return true
		}
	}
	return false
}

// validIPv4 reports whether addr, with any port removed, is a dotted IPv4
// address.
func validIPv4(addr string) bool {
	host, _, _ := strings.Cut(addr, ":")
	ip, err := netip.ParseAddr(host)
	return err == nil && ip.Is4()
}
