package action

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/AccelByte/extend-realm-guard/pkg/event"
	"github.com/AccelByte/extend-realm-guard/pkg/service"
)

func testRequest() *Request {
	return &Request{
		Tenant:   "realm-1",
		Realm:    service.Realm{ID: "r-1", Name: "Survival"},
		XUID:     "2535400000000001",
		Gamertag: "Steve",
		Reason:   "invalid_packet: non-finite position",
		Rule:     "invalid_packet",
		Source:   SourceDetector,
	}
}

func TestExecutor_ApplySuccess(t *testing.T) {
	registry := NewRegistry()
	ban := newMockAction("ban", true)
	registry.Register(ban)
	recorder := &event.Recorder{}

	executor := NewExecutor(registry, recorder, time.Second)
	result := executor.Apply(context.Background(), "ban", testRequest())

	if !result.Success || result.Error != nil {
		t.Fatalf("Apply() = %+v, want success", result)
	}
	if ban.calls != 1 {
		t.Errorf("Execute called %d times, want 1", ban.calls)
	}

	events := recorder.Named(event.NameAutomodAction)
	if len(events) != 1 {
		t.Fatalf("Expected 1 automod-action event, got %d", len(events))
	}
	payload := events[0].Payload
	if payload["success"] != true || payload["error"] != "" {
		t.Errorf("payload = %v", payload)
	}
	if payload["action"] != "ban" || payload["xuid"] != "2535400000000001" || payload["source"] != SourceDetector {
		t.Errorf("payload = %v", payload)
	}
	if events[0].Tenant != "realm-1" {
		t.Errorf("tenant = %s", events[0].Tenant)
	}
}

func TestExecutor_ApplyFailureIsReportedOnce(t *testing.T) {
	registry := NewRegistry()
	capErr := errors.New("realm api unavailable")
	ban := newMockAction("ban", true)
	ban.execute = func(ctx context.Context, req *Request) error { return capErr }
	registry.Register(ban)
	recorder := &event.Recorder{}

	executor := NewExecutor(registry, recorder, time.Second)
	result := executor.Apply(context.Background(), "ban", testRequest())

	if result.Success {
		t.Fatal("Expected failed result")
	}
	if !errors.Is(result.Error, ErrEnforcementFailed) || !errors.Is(result.Error, capErr) {
		t.Errorf("error = %v, want ErrEnforcementFailed wrapping cause", result.Error)
	}
	if ban.calls != 1 {
		t.Errorf("Execute called %d times, want exactly 1", ban.calls)
	}

	events := recorder.Named(event.NameAutomodAction)
	if len(events) != 1 {
		t.Fatalf("Expected 1 automod-action event, got %d", len(events))
	}
	if events[0].Payload["success"] != false || events[0].Payload["error"] == "" {
		t.Errorf("payload = %v", events[0].Payload)
	}
}

func TestExecutor_ApplyRecoversPanic(t *testing.T) {
	registry := NewRegistry()
	ban := newMockAction("ban", true)
	ban.execute = func(ctx context.Context, req *Request) error { panic("boom") }
	registry.Register(ban)
	recorder := &event.Recorder{}

	result := NewExecutor(registry, recorder, time.Second).Apply(context.Background(), "ban", testRequest())
	if result.Success || !errors.Is(result.Error, ErrEnforcementFailed) {
		t.Errorf("Apply() = %+v, want enforcement failure", result)
	}
	if len(recorder.Named(event.NameAutomodAction)) != 1 {
		t.Error("Expected automod-action event after panic")
	}
}

func TestExecutor_ApplyUnresolvable(t *testing.T) {
	registry := NewRegistry()
	registry.Register(newMockAction("kick", false))

	tests := []struct {
		name    string
		id      string
		req     *Request
		wantErr error
	}{
		{name: "unknown action", id: "ban", req: testRequest(), wantErr: ErrActionNotFound},
		{name: "disabled action", id: "kick", req: testRequest(), wantErr: ErrActionDisabled},
		{name: "no target", id: "kick", req: &Request{Tenant: "realm-1"}, wantErr: ErrMissingTarget},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := &event.Recorder{}
			result := NewExecutor(registry, recorder, time.Second).Apply(context.Background(), tt.id, tt.req)
			if result.Success {
				t.Fatal("Expected failed result")
			}
			if !errors.Is(result.Error, tt.wantErr) || !errors.Is(result.Error, ErrEnforcementFailed) {
				t.Errorf("error = %v, want %v", result.Error, tt.wantErr)
			}
			if len(recorder.Named(event.NameAutomodAction)) != 1 {
				t.Error("Expected automod-action event")
			}
		})
	}
}

func TestExecutor_ApplyTimeout(t *testing.T) {
	registry := NewRegistry()
	ban := newMockAction("ban", true)
	ban.execute = func(ctx context.Context, req *Request) error {
		<-ctx.Done()
		return ctx.Err()
	}
	registry.Register(ban)

	result := NewExecutor(registry, nil, 20*time.Millisecond).Apply(context.Background(), "ban", testRequest())
	if !errors.Is(result.Error, context.DeadlineExceeded) {
		t.Errorf("error = %v, want deadline exceeded", result.Error)
	}
}

func TestExecutor_SubmitSurvivesCancel(t *testing.T) {
	registry := NewRegistry()
	var executed int32
	release := make(chan struct{})
	ban := newMockAction("ban", true)
	ban.execute = func(ctx context.Context, req *Request) error {
		<-release
		atomic.AddInt32(&executed, 1)
		return ctx.Err()
	}
	registry.Register(ban)
	recorder := &event.Recorder{}

	executor := NewExecutor(registry, recorder, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	executor.Submit(ctx, "ban", testRequest())
	cancel()
	close(release)
	executor.Wait()

	if atomic.LoadInt32(&executed) != 1 {
		t.Fatalf("Expected 1 execution, got %d", executed)
	}
	events := recorder.Named(event.NameAutomodAction)
	if len(events) != 1 || events[0].Payload["success"] != true {
		t.Errorf("events = %v, want one successful outcome", events)
	}
}

func TestExecutor_ShutdownTimesOut(t *testing.T) {
	registry := NewRegistry()
	release := make(chan struct{})
	ban := newMockAction("ban", true)
	ban.execute = func(ctx context.Context, req *Request) error {
		<-release
		return nil
	}
	registry.Register(ban)

	executor := NewExecutor(registry, nil, time.Second)
	executor.Submit(context.Background(), "ban", testRequest())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := executor.Shutdown(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Shutdown() error = %v, want deadline exceeded", err)
	}

	close(release)
	if err := executor.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}
