package handler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/AccelByte/extend-realm-guard/pkg/signal"
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

func TestNATSListener_Subjects(t *testing.T) {
	l := NewNATSListener(nil, nil, "")
	if got := l.EventsSubject(); got != "realm_guard.ingest.events" {
		t.Errorf("EventsSubject() = %q", got)
	}
	if got := l.ControlSubject(); got != "realm_guard.ingest.control" {
		t.Errorf("ControlSubject() = %q", got)
	}
}

func TestNATSListener_Serve(t *testing.T) {
	ns := runNATS(t)
	nc, err := nats.Connect(ns.ClientURL())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer nc.Close()

	sessions := newFakeSessions()
	listener := NewNATSListener(nc, newTestIngest(sessions), "guard")

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- listener.Serve(ctx) }()

	// The control request doubles as a readiness check for both subscriptions.
	var reply *nats.Msg
	deadline := time.Now().Add(5 * time.Second)
	for {
		reply, err = nc.Request(listener.ControlSubject(), []byte(`{"op":"connect","tenant":"guild-1","realm":{"id":"r-1"}}`), 200*time.Millisecond)
		if err == nil || time.Now().After(deadline) {
			break
		}
	}
	if err != nil {
		t.Fatalf("control request failed: %v", err)
	}
	if string(reply.Data) != "ok" {
		t.Fatalf("control reply = %q, want ok", reply.Data)
	}

	for _, text := range []string{"one", "two", "three"} {
		payload := []byte(`{"type":"chat","tenant":"guild-1","data":{"sender":"Steve","text":"` + text + `"}}`)
		if err := nc.Publish(listener.EventsSubject(), payload); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}
	if err := nc.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	waitUntil := time.Now().Add(5 * time.Second)
	for len(sessions.Dispatched()) < 3 && time.Now().Before(waitUntil) {
		time.Sleep(10 * time.Millisecond)
	}
	calls := sessions.Dispatched()
	if len(calls) != 3 {
		t.Fatalf("expected 3 dispatches, got %d", len(calls))
	}
	// Per-subject delivery keeps the publish order.
	want := []string{"one", "two", "three"}
	for i, c := range calls {
		chat, ok := c.Signal.(*signal.ChatSignal)
		if !ok {
			t.Fatalf("dispatch %d is %T, want *signal.ChatSignal", i, c.Signal)
		}
		if chat.Text != want[i] {
			t.Errorf("dispatch %d text = %q, want %q", i, chat.Text, want[i])
		}
	}

	cancel()
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() error = %v, want context.Canceled", err)
	}
}
