package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/AccelByte/extend-realm-guard/pkg/action"
	"github.com/AccelByte/extend-realm-guard/pkg/event"
	"github.com/AccelByte/extend-realm-guard/pkg/rule"
	"github.com/AccelByte/extend-realm-guard/pkg/service"
	"github.com/AccelByte/extend-realm-guard/pkg/settings"
	"github.com/AccelByte/extend-realm-guard/pkg/signal"
	"github.com/AccelByte/extend-realm-guard/pkg/window"
	"github.com/jonboulle/clockwork"
)

// recordingEnforcer captures submitted enforcement
type recordingEnforcer struct {
	mu       sync.Mutex
	requests []*action.Request
	actions  []string
}

func (e *recordingEnforcer) Submit(ctx context.Context, actionID string, req *action.Request) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.actions = append(e.actions, actionID)
	e.requests = append(e.requests, req)
}

func (e *recordingEnforcer) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.requests)
}

type fixture struct {
	manager  *Manager
	tenant   *Tenant
	enforcer *recordingEnforcer
	events   *event.Recorder
	settings *settings.TenantSettings
	clock    *clockwork.FakeClock
}

func newFixture(rules ...rule.Rule) *fixture {
	registry := rule.NewRegistry()
	for _, r := range rules {
		registry.Register(r)
	}
	f := &fixture{
		enforcer: &recordingEnforcer{},
		events:   &event.Recorder{},
		settings: settings.Default(),
		clock:    clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)),
	}
	f.manager = NewManager(rule.NewEngine(registry), f.enforcer, f.events, settings.Static{Settings: f.settings})
	f.tenant = NewTenant("guild-1", service.Realm{ID: "r-1", Name: "Survival"}, "bot-xuid", f.clock, 100)
	return f
}

func (f *fixture) join(xuid, gamertag string) *Outcome {
	facts := signal.PlayerFacts{XUID: xuid, Gamertag: gamertag, Device: signal.DeviceInfo{Platform: signal.PlatformAndroid}}
	return f.manager.Process(context.Background(), f.tenant, signal.NewJoinSignal(f.clock.Now(), facts))
}

func (f *fixture) chat(xuid, sender, text string) *Outcome {
	return f.manager.Process(context.Background(), f.tenant, signal.NewChatSignal(f.clock.Now(), xuid, sender, text))
}

func criticalChatRule() *mockRule {
	return &mockRule{
		id:          "unicode",
		signalTypes: []string{signal.TypeChat},
		flags:       []rule.Flag{{Reason: "bidi override", Severity: rule.SeverityCritical}},
	}
}

func TestManager_ProcessJoin(t *testing.T) {
	f := newFixture()

	outcome := f.join("x1", "Steve")
	if outcome.Joined == nil || outcome.Joined.XUID != "x1" || !outcome.Joined.IsFirstJoin {
		t.Fatalf("expected first join for x1, got %+v", outcome.Joined)
	}
	if !f.tenant.Tracker.IsOnline("x1") {
		t.Error("expected x1 to be online")
	}

	joins := f.events.Named(event.NameJoin)
	if len(joins) != 1 {
		t.Fatalf("expected 1 join event, got %d", len(joins))
	}
	if joins[0].Payload["gamertag"] != "Steve" || joins[0].Payload["device"] != "Android" || joins[0].Payload["isFirstJoin"] != true {
		t.Errorf("unexpected join payload: %v", joins[0].Payload)
	}
}

func TestManager_ProcessJoinIgnoresBot(t *testing.T) {
	f := newFixture()

	outcome := f.join("bot-xuid", "GuardBot")
	if outcome.Joined != nil || outcome.Verdict != nil {
		t.Errorf("expected bot join to be ignored, got %+v", outcome)
	}
	if f.tenant.Tracker.IsOnline("bot-xuid") || len(f.events.Events()) != 0 {
		t.Error("expected no tracking or events for the bot")
	}
}

func TestManager_ProcessLeave(t *testing.T) {
	f := newFixture()
	f.join("x1", "Steve")
	f.chat("", "steve", "hello")
	f.clock.Advance(90 * time.Second)

	outcome := f.manager.Process(context.Background(), f.tenant, signal.NewLeaveSignal(f.clock.Now(), "x1", "Steve"))
	if outcome.Left == nil {
		t.Fatal("expected leave summary")
	}
	if outcome.Left.Duration != 90*time.Second || outcome.Left.Messages != 1 {
		t.Errorf("unexpected summary: %+v", outcome.Left)
	}

	leaves := f.events.Named(event.NameLeave)
	if len(leaves) != 1 || leaves[0].Payload["durationSeconds"] != int64(90) {
		t.Errorf("unexpected leave events: %v", leaves)
	}

	// Second leave is a no-op
	outcome = f.manager.Process(context.Background(), f.tenant, signal.NewLeaveSignal(f.clock.Now(), "x1", "Steve"))
	if outcome.Left != nil || len(f.events.Named(event.NameLeave)) != 1 {
		t.Error("expected repeated leave to be ignored")
	}
}

func TestManager_ProcessLeaveClearsNameKeyedWindows(t *testing.T) {
	tests := []struct {
		name     string
		gamertag string
	}{
		{"mixed case", "Steve"},
		{"padded", "  Steve "},
		{"upper case", "STEVE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.join("x1", tt.gamertag)

			// State recorded before the sender resolved to an xuid.
			now := f.clock.Now()
			key := signal.NameKey(tt.gamertag)
			f.tenant.Windows.Chat.Add(window.Key{Player: key, Category: rule.CategoryChat}, "hello", now)
			f.tenant.Windows.PacketRate.Increment(window.Key{Player: key, Category: "text"}, now, 10)

			f.manager.Process(context.Background(), f.tenant, signal.NewLeaveSignal(now, "x1", tt.gamertag))

			if n := f.tenant.Windows.Len(); n != 0 {
				t.Errorf("windows left after leave = %d, want 0", n)
			}
		})
	}
}

func TestManager_ProcessChatResolvesSender(t *testing.T) {
	f := newFixture()
	f.join("x1", "Steve")

	f.chat("", "Steve", "hi all")

	session, _ := f.tenant.Tracker.Session("x1")
	if session.MessageCount != 1 {
		t.Errorf("expected 1 message recorded, got %d", session.MessageCount)
	}
	chats := f.events.Named(event.NameChat)
	if len(chats) != 1 || chats[0].Payload["xuid"] != "x1" || chats[0].Payload["text"] != "hi all" {
		t.Errorf("unexpected chat events: %v", chats)
	}
}

func TestManager_ProcessDeath(t *testing.T) {
	f := newFixture()
	f.join("x1", "Steve")

	outcome := f.manager.Process(context.Background(), f.tenant, signal.NewDeathSignal(f.clock.Now(), "Steve", "lava"))
	if outcome.Verdict != nil {
		t.Error("expected deaths to skip detection")
	}
	session, _ := f.tenant.Tracker.Session("x1")
	if session.DeathCount != 1 {
		t.Errorf("expected 1 death recorded, got %d", session.DeathCount)
	}
	if deaths := f.events.Named(event.NameDeath); len(deaths) != 1 || deaths[0].Payload["cause"] != "lava" {
		t.Errorf("unexpected death events: %v", deaths)
	}
}

func TestManager_FlagWithoutAutoBan(t *testing.T) {
	f := newFixture(&mockRule{
		id:          "chat_flood",
		signalTypes: []string{signal.TypeChat},
		flags:       []rule.Flag{{Reason: "duplicates", Severity: rule.SeverityHigh}},
	})
	f.join("x1", "Steve")

	outcome := f.chat("x1", "Steve", "buy now")
	if outcome.Verdict == nil || !outcome.Verdict.Flagged || outcome.Verdict.AutoBan {
		t.Fatalf("expected flagged verdict without autoBan, got %+v", outcome.Verdict)
	}
	if outcome.Enforced || f.enforcer.count() != 0 {
		t.Error("expected no enforcement for a single HIGH flag")
	}

	flags := f.events.Named(event.NameAutomodFlag)
	if len(flags) != 1 {
		t.Fatalf("expected 1 automod-flag event, got %d", len(flags))
	}
	if flags[0].Payload["severity"] != "HIGH" || flags[0].Payload["autoBan"] != false || flags[0].Payload["xuid"] != "x1" {
		t.Errorf("unexpected flag payload: %v", flags[0].Payload)
	}
}

func TestManager_AutoBanEnforcesOncePerPlayer(t *testing.T) {
	f := newFixture(criticalChatRule())
	f.join("x1", "Steve")
	f.join("x2", "Alex")

	first := f.chat("x1", "Steve", "spam")
	second := f.chat("x1", "Steve", "spam")
	other := f.chat("x2", "Alex", "spam")

	if !first.Enforced || second.Enforced || !other.Enforced {
		t.Errorf("expected enforcement for first and other only, got %v %v %v", first.Enforced, second.Enforced, other.Enforced)
	}
	if f.enforcer.count() != 2 {
		t.Fatalf("expected 2 submissions, got %d", f.enforcer.count())
	}

	req := f.enforcer.requests[0]
	if f.enforcer.actions[0] != "ban" || req.XUID != "x1" || req.Gamertag != "Steve" || req.Realm.ID != "r-1" {
		t.Errorf("unexpected request: %s %+v", f.enforcer.actions[0], req)
	}
	if req.Source != action.SourceDetector || req.Rule != "unicode" || req.Reason != "unicode: bidi override" {
		t.Errorf("unexpected request details: %+v", req)
	}

	// Every flagged verdict is still reported
	if got := len(f.events.Named(event.NameAutomodFlag)); got != 3 {
		t.Errorf("expected 3 automod-flag events, got %d", got)
	}
}

func TestManager_AutoBanUsesTenantAction(t *testing.T) {
	f := newFixture(criticalChatRule())
	f.settings.Automod.Action = "kick"
	f.join("x1", "Steve")

	f.chat("x1", "Steve", "x")
	if len(f.enforcer.actions) != 1 || f.enforcer.actions[0] != "kick" {
		t.Errorf("expected kick submission, got %v", f.enforcer.actions)
	}
}

func TestManager_SkipsEnforcement(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *fixture)
		xuid  string
		sender string
	}{
		{
			name:  "automod disabled",
			setup: func(f *fixture) { f.settings.Automod.Enabled = false },
			xuid:  "x1",
			sender: "Steve",
		},
		{
			name:  "unresolved sender",
			setup: func(f *fixture) {},
			sender: "Nobody",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(criticalChatRule())
			f.join("x1", "Steve")
			tt.setup(f)

			outcome := f.chat(tt.xuid, tt.sender, "x")
			if outcome.Verdict == nil || !outcome.Verdict.AutoBan {
				t.Fatalf("expected autoBan verdict, got %+v", outcome.Verdict)
			}
			if outcome.Enforced || f.enforcer.count() != 0 {
				t.Error("expected no enforcement")
			}
		})
	}
}

func TestManager_ExemptAndBotSkipDetection(t *testing.T) {
	f := newFixture(criticalChatRule())
	f.settings.ExemptXUIDs = []string{"x1"}
	f.join("x1", "Steve")

	if outcome := f.chat("x1", "Steve", "x"); outcome.Verdict != nil {
		t.Errorf("expected exempt player to skip detection, got %+v", outcome.Verdict)
	}
	if outcome := f.chat("bot-xuid", "GuardBot", "x"); outcome.Verdict != nil {
		t.Errorf("expected bot to skip detection, got %+v", outcome.Verdict)
	}
	if len(f.events.Named(event.NameAutomodFlag)) != 0 {
		t.Error("expected no automod-flag events")
	}
}

func TestManager_ConnectionSignalsAreIgnored(t *testing.T) {
	f := newFixture(&mockRule{id: "any"})

	outcome := f.manager.Process(context.Background(), f.tenant, signal.NewConnectionSignal(f.clock.Now(), signal.ConnectionClose, "bye"))
	if outcome.Verdict != nil || len(f.events.Events()) != 0 {
		t.Errorf("expected connection signal to be ignored, got %+v", outcome)
	}
}

func TestManager_NilSignal(t *testing.T) {
	f := newFixture()
	if outcome := f.manager.Process(context.Background(), f.tenant, nil); outcome == nil || outcome.Verdict != nil {
		t.Errorf("expected empty outcome, got %+v", outcome)
	}
}
