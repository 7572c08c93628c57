package rule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/AccelByte/extend-realm-guard/pkg/settings"
	"github.com/AccelByte/extend-realm-guard/pkg/signal"
)

// testRule returns fixed flags for testing
type testRule struct {
	id          string
	signalTypes []string
	config      RuleConfig
	flags       []Flag
	err         error
	panics      bool
	disabled    bool
	calls       int
}

func (r *testRule) ID() string            { return r.id }
func (r *testRule) Name() string          { return r.id }
func (r *testRule) SignalTypes() []string { return r.signalTypes }
func (r *testRule) Config() RuleConfig    { return r.config }

func (r *testRule) Enabled(s *settings.TenantSettings) bool { return !r.disabled }

func (r *testRule) Evaluate(ctx context.Context, in *Input) ([]Flag, error) {
	r.calls++
	if r.panics {
		panic("index out of range")
	}
	return r.flags, r.err
}

func newTestRule(id string, flags ...Flag) *testRule {
	return &testRule{
		id:          id,
		signalTypes: []string{signal.TypeChat},
		config:      RuleConfig{ID: id, Enabled: true},
		flags:       flags,
	}
}

func chatInput(text string) *Input {
	sig := signal.NewChatSignal(time.Now(), "x1", "Steve", text)
	sig.SetContext(&signal.PlayerContext{Tenant: "guild-1", Key: "x1", XUID: "x1"})
	return &Input{Tenant: "guild-1", Signal: sig}
}

func TestEngine_Evaluate_NilSignal(t *testing.T) {
	engine := NewEngine(NewRegistry())

	verdict := engine.Evaluate(context.Background(), nil)
	if verdict == nil || verdict.Flagged {
		t.Errorf("expected empty verdict, got %+v", verdict)
	}
}

func TestEngine_Evaluate_NoRules(t *testing.T) {
	engine := NewEngine(NewRegistry())

	verdict := engine.Evaluate(context.Background(), chatInput("hi"))
	if verdict.Flagged {
		t.Errorf("expected no flags, got %+v", verdict.Flags)
	}
}

func TestEngine_Evaluate_AggregatesFlags(t *testing.T) {
	registry := NewRegistry()
	registry.Register(newTestRule("a", Flag{Reason: "first", Severity: SeverityMedium}))
	registry.Register(newTestRule("b", Flag{Reason: "second", Severity: SeverityHigh}))

	verdict := NewEngine(registry).Evaluate(context.Background(), chatInput("hi"))

	if !verdict.Flagged {
		t.Fatal("expected flagged verdict")
	}
	if len(verdict.Flags) != 2 {
		t.Fatalf("expected 2 flags, got %d", len(verdict.Flags))
	}
	if verdict.Flags[0].Check != "a" || verdict.Flags[1].Check != "b" {
		t.Errorf("flags should carry rule IDs in registration order: %+v", verdict.Flags)
	}
	if verdict.Severity != SeverityHigh {
		t.Errorf("Severity = %s, expected HIGH", verdict.Severity)
	}
	if verdict.AutoBan {
		t.Error("one HIGH flag must not auto-ban")
	}
}

func TestEngine_Evaluate_FailingRuleDoesNotStopOthers(t *testing.T) {
	registry := NewRegistry()
	broken := newTestRule("broken")
	broken.err = errors.New("bad field")
	panicking := newTestRule("panicking")
	panicking.panics = true
	healthy := newTestRule("healthy", Flag{Reason: "ok", Severity: SeverityCritical})

	registry.Register(broken)
	registry.Register(panicking)
	registry.Register(healthy)

	verdict := NewEngine(registry).Evaluate(context.Background(), chatInput("hi"))

	if len(verdict.Flags) != 1 || verdict.Flags[0].Check != "healthy" {
		t.Fatalf("expected only the healthy rule's flag, got %+v", verdict.Flags)
	}
	if !verdict.AutoBan {
		t.Error("CRITICAL flag should auto-ban")
	}
	if healthy.calls != 1 {
		t.Errorf("healthy rule called %d times, expected 1", healthy.calls)
	}
}

func TestEngine_Evaluate_SkipsDisabled(t *testing.T) {
	registry := NewRegistry()
	off := newTestRule("off", Flag{Reason: "x", Severity: SeverityCritical})
	off.disabled = true
	inactive := newTestRule("inactive", Flag{Reason: "x", Severity: SeverityCritical})
	inactive.config.Enabled = false

	registry.Register(off)
	registry.Register(inactive)

	verdict := NewEngine(registry).Evaluate(context.Background(), chatInput("hi"))
	if verdict.Flagged {
		t.Errorf("disabled rules must not flag: %+v", verdict.Flags)
	}
	if off.calls != 0 || inactive.calls != 0 {
		t.Error("disabled rules must not be evaluated")
	}
}

func TestEngine_Evaluate_DispatchesBySignalType(t *testing.T) {
	registry := NewRegistry()
	chat := newTestRule("chat", Flag{Reason: "x", Severity: SeverityLow})
	packet := newTestRule("packet", Flag{Reason: "x", Severity: SeverityLow})
	packet.signalTypes = []string{signal.TypePacket}
	all := newTestRule("all", Flag{Reason: "x", Severity: SeverityLow})
	all.signalTypes = nil

	registry.Register(all)
	registry.Register(chat)
	registry.Register(packet)

	verdict := NewEngine(registry).Evaluate(context.Background(), chatInput("hi"))

	if packet.calls != 0 {
		t.Error("packet rule must not see chat signals")
	}
	if len(verdict.Flags) != 2 {
		t.Fatalf("expected 2 flags, got %d", len(verdict.Flags))
	}
	if verdict.Flags[0].Check != "chat" || verdict.Flags[1].Check != "all" {
		t.Errorf("type-specific rules should run before wildcard rules: %+v", verdict.Flags)
	}
}

func TestNewVerdict_AutoBanPolicy(t *testing.T) {
	tests := []struct {
		name     string
		flags    []Flag
		severity Severity
		autoBan  bool
	}{
		{"none", nil, SeverityNone, false},
		{"low and medium", []Flag{{Severity: SeverityLow}, {Severity: SeverityMedium}}, SeverityMedium, false},
		{"one high", []Flag{{Severity: SeverityHigh}}, SeverityHigh, false},
		{"two high", []Flag{{Severity: SeverityHigh}, {Severity: SeverityHigh}}, SeverityHigh, true},
		{"one critical", []Flag{{Severity: SeverityLow}, {Severity: SeverityCritical}}, SeverityCritical, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewVerdict(tt.flags)
			if v.Severity != tt.severity {
				t.Errorf("Severity = %s, expected %s", v.Severity, tt.severity)
			}
			if v.AutoBan != tt.autoBan {
				t.Errorf("AutoBan = %v, expected %v", v.AutoBan, tt.autoBan)
			}
			if v.Flagged != (len(tt.flags) > 0) {
				t.Errorf("Flagged = %v", v.Flagged)
			}
		})
	}
}

func TestSeverity_Text(t *testing.T) {
	for _, s := range []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical} {
		text, _ := s.MarshalText()
		var decoded Severity
		if err := decoded.UnmarshalText(text); err != nil {
			t.Fatalf("UnmarshalText(%s) error = %v", text, err)
		}
		if decoded != s {
			t.Errorf("decoded %s as %s", text, decoded)
		}
	}
	var s Severity
	if err := s.UnmarshalText([]byte("severe")); err == nil {
		t.Error("expected error for unknown severity")
	}
}

func TestVerdict_ChecksAndReason(t *testing.T) {
	v := NewVerdict([]Flag{
		{Check: "chat_flood", Reason: "rate", Severity: SeverityHigh},
		{Check: "chat_flood", Reason: "duplicates", Severity: SeverityHigh},
		{Check: "advertising", Reason: "invite", Severity: SeverityHigh},
	})

	checks := v.Checks()
	if len(checks) != 2 || checks[0] != "chat_flood" || checks[1] != "advertising" {
		t.Errorf("Checks() = %v", checks)
	}
	if v.Reason() != "chat_flood: rate; chat_flood: duplicates; advertising: invite" {
		t.Errorf("Reason() = %q", v.Reason())
	}
}

func TestMalformed_Wraps(t *testing.T) {
	err := Malformed("slot %d", -1)
	if !errors.Is(err, ErrMalformedEvent) {
		t.Error("expected ErrMalformedEvent")
	}
}
