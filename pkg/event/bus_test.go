package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/AccelByte/extend-realm-guard/pkg/metrics"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func collect(ch chan Event) Subscriber {
	return SubscriberFunc(func(ctx context.Context, e Event) error {
		ch <- e
		return nil
	})
}

func receive(t *testing.T, ch chan Event) Event {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestBus_DeliversInOrder(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	bus := NewBus(16, clock)
	ch := make(chan Event, 16)
	bus.Subscribe(collect(ch))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go bus.Serve(ctx)

	names := []string{NameConnected, NameJoin, NameChat, NameLeave}
	for _, name := range names {
		bus.Emit(name, "realm-1", nil)
	}

	for i, want := range names {
		e := receive(t, ch)
		if e.Name != want {
			t.Errorf("event %d = %s, want %s", i, e.Name, want)
		}
		if e.Tenant != "realm-1" {
			t.Errorf("tenant = %s, want realm-1", e.Tenant)
		}
		if !e.Timestamp.Equal(clock.Now()) {
			t.Errorf("timestamp = %v, want %v", e.Timestamp, clock.Now())
		}
	}
}

func TestBus_TenantSubscribers(t *testing.T) {
	bus := NewBus(16, nil)
	all := make(chan Event, 16)
	onlyB := make(chan Event, 16)
	bus.Subscribe(collect(all))
	bus.SubscribeTenant("realm-b", collect(onlyB))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go bus.Serve(ctx)

	bus.Emit(NameJoin, "realm-a", nil)
	bus.Emit(NameJoin, "realm-b", nil)

	receive(t, all)
	receive(t, all)
	if e := receive(t, onlyB); e.Tenant != "realm-b" {
		t.Errorf("tenant subscriber got %s", e.Tenant)
	}
	select {
	case e := <-onlyB:
		t.Errorf("tenant subscriber got extra event for %s", e.Tenant)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus(16, nil)
	ch := make(chan Event, 16)
	unsubscribe := bus.Subscribe(collect(ch))
	unsubscribe()

	ctx, cancel := context.WithCancel(context.Background())
	bus.Emit(NameJoin, "realm-1", nil)
	cancel()
	bus.Serve(ctx)

	if len(ch) != 0 {
		t.Errorf("removed subscriber received %d events", len(ch))
	}
}

func TestBus_EmitNeverBlocks(t *testing.T) {
	bus := NewBus(2, nil)
	before := testutil.ToFloat64(metrics.EventsDropped.WithLabelValues("events"))

	done := make(chan struct{})
	go func() {
		for i := 0; i < 5; i++ {
			bus.Emit(NameChat, "realm-1", nil)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Emit blocked on a full queue")
	}

	if bus.Pending() != 2 {
		t.Errorf("Pending() = %d, want 2", bus.Pending())
	}
	after := testutil.ToFloat64(metrics.EventsDropped.WithLabelValues("events"))
	if after-before != 3 {
		t.Errorf("dropped = %v, want 3", after-before)
	}
}

func TestBus_DrainsOnShutdown(t *testing.T) {
	bus := NewBus(16, nil)
	ch := make(chan Event, 16)
	bus.Subscribe(collect(ch))

	for i := 0; i < 3; i++ {
		bus.Emit(NameChat, "realm-1", nil)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := bus.Serve(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() error = %v, want context.Canceled", err)
	}
	if len(ch) != 3 {
		t.Errorf("drained %d events, want 3", len(ch))
	}
}

func TestBus_FailingSubscriberDoesNotStopOthers(t *testing.T) {
	bus := NewBus(16, nil)
	ch := make(chan Event, 16)
	bus.Subscribe(SubscriberFunc(func(ctx context.Context, e Event) error {
		return errors.New("sink down")
	}))
	bus.Subscribe(collect(ch))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go bus.Serve(ctx)

	bus.Emit(NameJoin, "realm-1", nil)
	receive(t, ch)
}

func TestRecorder(t *testing.T) {
	var r Recorder
	r.Emit(NameJoin, "realm-1", map[string]interface{}{"xuid": "x1"})
	r.Emit(NameAutomodFlag, "realm-1", nil)
	r.Emit(NameJoin, "realm-1", nil)

	if got := len(r.Named(NameJoin)); got != 2 {
		t.Errorf("Named(join) = %d, want 2", got)
	}
	names := r.Names()
	if len(names) != 3 || names[1] != NameAutomodFlag {
		t.Errorf("Names() = %v", names)
	}
	r.Reset()
	if len(r.Events()) != 0 {
		t.Error("Reset() kept events")
	}
}
