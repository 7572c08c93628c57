package event

import (
	"context"
	"sync"
	"time"

	"github.com/AccelByte/extend-realm-guard/pkg/metrics"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultQueueSize is the bus buffer used when none is given.
	DefaultQueueSize = 1024

	drainTimeout = 5 * time.Second
)

type subscription struct {
	id     uint64
	tenant string
	sub    Subscriber
}

// Bus fans events out to subscribers on its own goroutine. Emit enqueues
// without blocking; when the queue is full the event is dropped and
// counted.
type Bus struct {
	queue chan Event
	clock clockwork.Clock

	mu     sync.RWMutex
	nextID uint64
	subs   []subscription
}

// NewBus creates a bus with the given queue size.
func NewBus(size int, clock clockwork.Clock) *Bus {
	if size <= 0 {
		size = DefaultQueueSize
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Bus{
		queue: make(chan Event, size),
		clock: clock,
	}
}

// Emit implements Emitter.
func (b *Bus) Emit(name, tenant string, payload map[string]interface{}) {
	e := Event{
		ID:        uuid.New(),
		Name:      name,
		Tenant:    tenant,
		Timestamp: b.clock.Now().UTC(),
		Payload:   payload,
	}

	select {
	case b.queue <- e:
	default:
		metrics.EventsDropped.WithLabelValues("events").Inc()
		logrus.WithFields(logrus.Fields{
			"tenant": tenant,
			"event":  name,
		}).Warn("event queue full, dropping event")
	}
}

// Subscribe registers a subscriber for every tenant. The returned function
// removes it.
func (b *Bus) Subscribe(sub Subscriber) func() {
	return b.add("", sub)
}

// SubscribeTenant registers a subscriber for one tenant's events.
func (b *Bus) SubscribeTenant(tenant string, sub Subscriber) func() {
	return b.add(tenant, sub)
}

func (b *Bus) add(tenant string, sub Subscriber) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, tenant: tenant, sub: sub})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.subs {
			if s.id == id {
				b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

// Pending returns the number of queued events.
func (b *Bus) Pending() int {
	return len(b.queue)
}

// Serve delivers queued events until ctx is cancelled, then drains what is
// left. It implements suture.Service.
func (b *Bus) Serve(ctx context.Context) error {
	for {
		select {
		case e := <-b.queue:
			b.deliver(ctx, e)
		case <-ctx.Done():
			b.drain()
			return ctx.Err()
		}
	}
}

// String implements fmt.Stringer for supervisor logs.
func (b *Bus) String() string {
	return "event-bus"
}

func (b *Bus) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()

	for {
		select {
		case e := <-b.queue:
			b.deliver(ctx, e)
		default:
			return
		}
	}
}

func (b *Bus) deliver(ctx context.Context, e Event) {
	b.mu.RLock()
	subs := make([]Subscriber, 0, len(b.subs))
	for _, s := range b.subs {
		if s.tenant == "" || s.tenant == e.Tenant {
			subs = append(subs, s.sub)
		}
	}
	b.mu.RUnlock()

	for _, sub := range subs {
		if err := sub.Deliver(ctx, e); err != nil {
			logrus.WithFields(logrus.Fields{
				"tenant": e.Tenant,
				"event":  e.Name,
			}).Warnf("event subscriber failed: %v", err)
		}
	}
}
