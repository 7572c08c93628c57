package event

import (
	"context"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
)

func runNATS(t *testing.T) *server.Server {
	t.Helper()
	ns, err := server.NewServer(&server.Options{
		Host:   "127.0.0.1",
		Port:   -1,
		NoLog:  true,
		NoSigs: true,
	})
	if err != nil {
		t.Fatalf("create NATS server: %v", err)
	}
	go ns.Start()
	if !ns.ReadyForConnections(5 * time.Second) {
		ns.Shutdown()
		t.Fatal("NATS server not ready")
	}
	t.Cleanup(ns.Shutdown)
	return ns
}

func TestNATSSink_Subject(t *testing.T) {
	sink := NewNATSSink(nil, "")

	tests := []struct {
		tenant string
		name   string
		want   string
	}{
		{"realm-1", NameAutomodFlag, "realm_guard.realm-1.automod-flag"},
		{"my.realm", NameJoin, "realm_guard.my_realm.join"},
		{"a b*", NameLeave, "realm_guard.a_b_.leave"},
		{"", NameError, "realm_guard._.error"},
	}

	for _, tt := range tests {
		if got := sink.Subject(Event{Tenant: tt.tenant, Name: tt.name}); got != tt.want {
			t.Errorf("Subject(%q, %q) = %q, want %q", tt.tenant, tt.name, got, tt.want)
		}
	}
}

func TestNATSSink_Deliver(t *testing.T) {
	ns := runNATS(t)

	nc, err := ConnectNATS(ns.ClientURL(), "realm-guard-test")
	if err != nil {
		t.Fatalf("ConnectNATS() error = %v", err)
	}
	defer nc.Close()

	sub, err := nc.SubscribeSync("guard.realm-1.>")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := nc.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	sink := NewNATSSink(nc, "guard")
	e := Event{
		ID:        uuid.New(),
		Name:      NameAutomodAction,
		Tenant:    "realm-1",
		Timestamp: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Payload:   map[string]interface{}{"success": true, "action": "ban"},
	}
	if err := sink.Deliver(context.Background(), e); err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}

	msg, err := sub.NextMsg(2 * time.Second)
	if err != nil {
		t.Fatalf("NextMsg() error = %v", err)
	}
	if msg.Subject != "guard.realm-1.automod-action" {
		t.Errorf("subject = %s", msg.Subject)
	}

	var got Event
	if err := json.Unmarshal(msg.Data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.ID != e.ID || got.Name != e.Name || got.Tenant != e.Tenant {
		t.Errorf("got %+v, want %+v", got, e)
	}
	if got.Payload["success"] != true {
		t.Errorf("payload = %v", got.Payload)
	}
}

func TestNATSSink_ThroughBus(t *testing.T) {
	ns := runNATS(t)

	nc, err := nats.Connect(ns.ClientURL())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer nc.Close()

	sub, err := nc.SubscribeSync("realm_guard.>")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	nc.Flush()

	bus := NewBus(16, nil)
	bus.Subscribe(NewNATSSink(nc, ""))
	bus.Subscribe(LogSink{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go bus.Serve(ctx)

	bus.Emit(NameRealmCrashed, "realm-9", map[string]interface{}{"reason": "connection reset"})

	msg, err := sub.NextMsg(2 * time.Second)
	if err != nil {
		t.Fatalf("NextMsg() error = %v", err)
	}
	if msg.Subject != "realm_guard.realm-9.realm-crashed" {
		t.Errorf("subject = %s", msg.Subject)
	}
}

func TestNATSHealthChecker(t *testing.T) {
	ns := runNATS(t)
	nc, err := nats.Connect(ns.ClientURL())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}

	check := NewNATSHealthChecker(nc)
	if check.Name() != "nats" {
		t.Errorf("Name() = %q, want nats", check.Name())
	}
	if err := check.Check(context.Background()); err != nil {
		t.Errorf("Check() on open connection = %v", err)
	}

	nc.Close()
	if err := check.Check(context.Background()); err == nil {
		t.Error("Check() on closed connection should fail")
	}
}
