package builtin

import (
	"context"
	"errors"
	"testing"

	"github.com/AccelByte/extend-realm-guard/pkg/action"
	"github.com/AccelByte/extend-realm-guard/pkg/service"
	"github.com/AccelByte/extend-realm-guard/pkg/service/mock"
)

func request() *action.Request {
	return &action.Request{
		Tenant:   "realm-1",
		Realm:    service.Realm{ID: "r-1", Name: "Survival"},
		XUID:     "2535400000000001",
		Gamertag: "Steve",
		Reason:   "inventory: critical item",
		Source:   action.SourceDetector,
	}
}

func TestBanAction_Execute(t *testing.T) {
	bans := mock.NewBanApplier()
	ban := NewBanAction(action.ActionConfig{ID: BanActionID, Enabled: true}, bans)

	if err := ban.Execute(context.Background(), request()); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	calls := bans.Calls()
	if len(calls) != 1 {
		t.Fatalf("ApplyBan called %d times, want 1", len(calls))
	}
	if calls[0].Tenant != "realm-1" || calls[0].Realm.ID != "r-1" || calls[0].XUID != "2535400000000001" || calls[0].Reason != "inventory: critical item" {
		t.Errorf("call = %+v", calls[0])
	}
}

func TestBanAction_ExecuteError(t *testing.T) {
	bans := mock.NewBanApplier()
	bans.DefaultError = service.ErrBanRejected
	ban := NewBanAction(action.ActionConfig{ID: BanActionID, Enabled: true}, bans)

	if err := ban.Execute(context.Background(), request()); !errors.Is(err, service.ErrBanRejected) {
		t.Errorf("Execute() error = %v, want ErrBanRejected", err)
	}
	if bans.CallCount() != 1 {
		t.Errorf("ApplyBan called %d times, want 1", bans.CallCount())
	}
}

func TestKickAction_Command(t *testing.T) {
	tests := []struct {
		name     string
		template string
		req      *action.Request
		want     string
	}{
		{
			name: "default template",
			req:  request(),
			want: `/kick "Steve" inventory: critical item`,
		},
		{
			name:     "custom template",
			template: "/kick {xuid}",
			req:      request(),
			want:     "/kick 2535400000000001",
		},
		{
			name: "quotes stripped",
			req:  &action.Request{XUID: "x1", Gamertag: `Ste"ve`, Reason: "spam\nnow"},
			want: `/kick "Steve" spamnow`,
		},
		{
			name: "falls back to xuid",
			req:  &action.Request{XUID: "x1"},
			want: `/kick "x1"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := action.ActionConfig{ID: KickActionID, Enabled: true}
			if tt.template != "" {
				config.Parameters = map[string]interface{}{"command": tt.template}
			}
			kick := NewKickAction(config, mock.NewCommandSender())
			if got := kick.Command(tt.req); got != tt.want {
				t.Errorf("Command() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKickAction_Execute(t *testing.T) {
	commands := mock.NewCommandSender()
	kick := NewKickAction(action.ActionConfig{ID: KickActionID, Enabled: true}, commands)

	if err := kick.Execute(context.Background(), request()); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	calls := commands.Calls()
	if len(calls) != 1 || calls[0].Tenant != "realm-1" || calls[0].Command != `/kick "Steve" inventory: critical item` {
		t.Errorf("calls = %+v", calls)
	}
}

func TestDefaultConfigs(t *testing.T) {
	configs := DefaultConfigs()
	if len(configs) != 2 {
		t.Fatalf("Expected 2 configs, got %d", len(configs))
	}
	for _, c := range configs {
		if !c.Enabled || c.ID != c.Type {
			t.Errorf("config = %+v", c)
		}
	}
}
