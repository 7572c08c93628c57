package pipeline_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/AccelByte/extend-realm-guard/pkg/action"
	actionBuiltin "github.com/AccelByte/extend-realm-guard/pkg/action/builtin"
	"github.com/AccelByte/extend-realm-guard/pkg/event"
	"github.com/AccelByte/extend-realm-guard/pkg/pipeline"
	"github.com/AccelByte/extend-realm-guard/pkg/rule"
	ruleBuiltin "github.com/AccelByte/extend-realm-guard/pkg/rule/builtin"
	"github.com/AccelByte/extend-realm-guard/pkg/service"
	"github.com/AccelByte/extend-realm-guard/pkg/service/mock"
	"github.com/AccelByte/extend-realm-guard/pkg/settings"
	"github.com/AccelByte/extend-realm-guard/pkg/signal"
	"github.com/jonboulle/clockwork"
)

type stack struct {
	manager  *pipeline.Manager
	executor *action.Executor
	bans     *mock.BanApplier
	events   *event.Recorder
	tenant   *pipeline.Tenant
	clock    *clockwork.FakeClock
}

// newStack wires the builtin rules and actions the way the service does.
func newStack(t *testing.T) *stack {
	t.Helper()

	ruleBuiltin.RegisterBuiltinRules()
	ruleRegistry := rule.NewRegistry()
	if err := rule.RegisterRules(ruleRegistry, ruleBuiltin.DefaultConfigs()); err != nil {
		t.Fatalf("failed to register rules: %v", err)
	}

	bans := mock.NewBanApplier()
	actionBuiltin.RegisterActions(&actionBuiltin.Dependencies{Bans: bans, Commands: mock.NewCommandSender()})
	actionRegistry := action.NewRegistry()
	if err := action.RegisterActions(actionRegistry, actionBuiltin.DefaultConfigs()); err != nil {
		t.Fatalf("failed to register actions: %v", err)
	}

	events := &event.Recorder{}
	executor := action.NewExecutor(actionRegistry, events, time.Second)
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	return &stack{
		manager:  pipeline.NewManager(rule.NewEngine(ruleRegistry), executor, events, settings.Static{}),
		executor: executor,
		bans:     bans,
		events:   events,
		tenant:   pipeline.NewTenant("guild-1", service.Realm{ID: "r-1", Name: "Survival"}, "bot", clock, 100),
		clock:    clock,
	}
}

func (s *stack) process(sig signal.Signal) *pipeline.Outcome {
	return s.manager.Process(context.Background(), s.tenant, sig)
}

func TestIntegration_CriticalInventoryBansOnce(t *testing.T) {
	s := newStack(t)
	s.process(signal.NewJoinSignal(s.clock.Now(), signal.PlayerFacts{XUID: "x1", Gamertag: "Griefer"}))

	items := []signal.ItemStack{{Slot: 3, ID: "command_block", Count: 1}}
	for i := 0; i < 3; i++ {
		s.process(signal.NewInventorySignal(s.clock.Now(), "x1", items))
	}
	s.executor.Wait()

	calls := s.bans.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected exactly 1 ban call, got %d", len(calls))
	}
	if calls[0].XUID != "x1" || calls[0].Realm.ID != "r-1" {
		t.Errorf("unexpected ban call: %+v", calls[0])
	}

	outcomes := s.events.Named(event.NameAutomodAction)
	if len(outcomes) != 1 || outcomes[0].Payload["success"] != true || outcomes[0].Payload["rule"] != "inventory" {
		t.Errorf("unexpected automod-action events: %v", outcomes)
	}
	if got := len(s.events.Named(event.NameAutomodFlag)); got != 3 {
		t.Errorf("expected 3 automod-flag events, got %d", got)
	}
}

func TestIntegration_FailedBanIsReported(t *testing.T) {
	s := newStack(t)
	s.bans.DefaultError = errors.New("realm api down")
	s.process(signal.NewJoinSignal(s.clock.Now(), signal.PlayerFacts{XUID: "x1", Gamertag: "Griefer"}))

	outcome := s.process(signal.NewInventorySignal(s.clock.Now(), "x1", []signal.ItemStack{{Slot: 0, ID: "minecraft:jigsaw", Count: 1}}))
	if !outcome.Enforced {
		t.Fatal("expected enforcement to be submitted")
	}
	s.executor.Wait()

	outcomes := s.events.Named(event.NameAutomodAction)
	if len(outcomes) != 1 || outcomes[0].Payload["success"] != false || outcomes[0].Payload["error"] == "" {
		t.Errorf("unexpected automod-action events: %v", outcomes)
	}
	if s.bans.CallCount() != 1 {
		t.Errorf("expected a single ban attempt, got %d", s.bans.CallCount())
	}
}

func TestIntegration_DuplicateChatFlagsWithoutBan(t *testing.T) {
	s := newStack(t)
	s.process(signal.NewJoinSignal(s.clock.Now(), signal.PlayerFacts{XUID: "x1", Gamertag: "Steve"}))

	var last *pipeline.Outcome
	for i := 0; i < 3; i++ {
		last = s.process(signal.NewChatSignal(s.clock.Now(), "", "Steve", "hello everyone"))
		s.clock.Advance(time.Second)
	}
	s.executor.Wait()

	if last.Verdict == nil || !last.Verdict.Flagged {
		t.Fatalf("expected third duplicate to be flagged, got %+v", last.Verdict)
	}
	if last.Verdict.Severity != rule.SeverityHigh {
		t.Errorf("expected HIGH severity, got %s", last.Verdict.Severity)
	}
	if s.bans.CallCount() != 0 {
		t.Errorf("expected no ban for chat flood, got %d", s.bans.CallCount())
	}
	session, _ := s.tenant.Tracker.Session("x1")
	if session.MessageCount != 3 {
		t.Errorf("expected 3 messages recorded, got %d", session.MessageCount)
	}
}
