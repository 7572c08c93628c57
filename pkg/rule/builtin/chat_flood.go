package builtin

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/AccelByte/extend-realm-guard/pkg/rule"
	"github.com/AccelByte/extend-realm-guard/pkg/settings"
	"github.com/AccelByte/extend-realm-guard/pkg/signal"
	"github.com/AccelByte/extend-realm-guard/pkg/window"
	"github.com/sirupsen/logrus"
)

const (
	// ChatFloodRuleID is the identifier for the chat flood check
	ChatFloodRuleID = "chat_flood"

	DefaultRapidGap           = 500 * time.Millisecond
	DefaultRapidGapCount      = 3
	DefaultDominantCharRatio  = 0.70
	DefaultDominantCharMinLen = 10
	DefaultMaxMessageLength   = 200
)

// ChatFloodRule tracks each player's recent messages in a sliding window.
// Rate and duplicate thresholds come from tenant settings.
type ChatFloodRule struct {
	base
	rapidGap      time.Duration
	rapidCount    int
	dominantRatio float64
	dominantMin   int
	maxLength     int
}

// NewChatFloodRule creates a new chat flood rule.
func NewChatFloodRule(config rule.RuleConfig) *ChatFloodRule {
	r := &ChatFloodRule{
		base:          base{config: config},
		rapidGap:      time.Duration(config.GetInt("rapid_gap_ms", int(DefaultRapidGap/time.Millisecond))) * time.Millisecond,
		rapidCount:    config.GetInt("rapid_gap_count", DefaultRapidGapCount),
		dominantRatio: config.GetFloat("dominant_char_ratio", DefaultDominantCharRatio),
		dominantMin:   config.GetInt("dominant_char_min_length", DefaultDominantCharMinLen),
		maxLength:     config.GetInt("max_message_length", DefaultMaxMessageLength),
	}

	logrus.Infof("creating chat flood rule with rapid_gap=%v, max_length=%d", r.rapidGap, r.maxLength)

	return r
}

// Name returns the rule name.
func (r *ChatFloodRule) Name() string {
	return "Chat Flood Check"
}

// SignalTypes returns the signal types this rule handles.
func (r *ChatFloodRule) SignalTypes() []string {
	return []string{signal.TypeChat}
}

// Enabled reports whether the tenant enables the check.
func (r *ChatFloodRule) Enabled(s *settings.TenantSettings) bool {
	return s.Checks.ChatFlood.Enabled
}

// Evaluate records the message and checks the player's window.
func (r *ChatFloodRule) Evaluate(ctx context.Context, in *rule.Input) ([]rule.Flag, error) {
	chat, ok := in.Signal.(*signal.ChatSignal)
	if !ok {
		return nil, rule.Malformed("expected ChatSignal, got %T", in.Signal)
	}
	cfg := in.Settings.Checks.ChatFlood

	key := window.Key{Player: in.Player(), Category: rule.CategoryChat}
	w := in.Windows.Chat.Window(key, cfg.Window())
	normalized := strings.ToLower(strings.TrimSpace(chat.Text))
	count := w.Add(normalized, in.Now)
	entries := w.Entries(in.Now)

	var flags []rule.Flag

	if count > cfg.MaxMessages {
		flags = append(flags, flag(rule.SeverityHigh, "%d messages in %ds (max %d)", count, cfg.TimeWindowSeconds, cfg.MaxMessages))
	}

	duplicates := 0
	for _, e := range entries {
		if e.Value == normalized {
			duplicates++
		}
	}
	if normalized != "" && duplicates >= cfg.DuplicateThreshold {
		flags = append(flags, flag(rule.SeverityHigh, "same message sent %d times in %ds", duplicates, cfg.TimeWindowSeconds))
	}

	rapid := 0
	for i := 1; i < len(entries); i++ {
		if entries[i].Timestamp.Sub(entries[i-1].Timestamp) < r.rapidGap {
			rapid++
		}
	}
	if rapid >= r.rapidCount {
		flags = append(flags, flag(rule.SeverityMedium, "%d messages less than %v apart", rapid, r.rapidGap))
	}

	length := utf8.RuneCountInString(chat.Text)
	if length > r.dominantMin {
		if ch, ratio := dominantRune(chat.Text); ratio > r.dominantRatio {
			flags = append(flags, flag(rule.SeverityLow, "message is %.0f%% %q", ratio*100, ch))
		}
	}
	if length > r.maxLength {
		flags = append(flags, flag(rule.SeverityMedium, "message is %d characters (max %d)", length, r.maxLength))
	}

	return flags, nil
}

// dominantRune returns the most frequent rune and its share of the text.
func dominantRune(text string) (rune, float64) {
	counts := make(map[rune]int)
	total := 0
	for _, r := range text {
		counts[r]++
		total++
	}
	var best rune
	top := 0
	for r, n := range counts {
		if n > top || (n == top && r < best) {
			best, top = r, n
		}
	}
	if total == 0 {
		return 0, 0
	}
	return best, float64(top) / float64(total)
}
