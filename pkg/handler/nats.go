package handler

import (
	"context"
	"fmt"

	"github.com/AccelByte/extend-realm-guard/pkg/event"
	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

// Subscriber is the part of a NATS connection the listener uses.
type Subscriber interface {
	Subscribe(subject string, cb nats.MsgHandler) (*nats.Subscription, error)
}

// NATSListener feeds the ingest handler from two NATS subjects:
// <prefix>.ingest.events carries event envelopes and
// <prefix>.ingest.control carries control messages. Each subscription is
// delivered on its own goroutine, so events keep their publish order.
type NATSListener struct {
	conn   Subscriber
	ingest *Ingest
	prefix string
}

// NewNATSListener creates a listener. It does not subscribe until Serve.
func NewNATSListener(conn Subscriber, ingest *Ingest, prefix string) *NATSListener {
	if prefix == "" {
		prefix = event.DefaultSubjectPrefix
	}
	return &NATSListener{conn: conn, ingest: ingest, prefix: prefix}
}

// EventsSubject returns the subject event envelopes are read from.
func (l *NATSListener) EventsSubject() string {
	return l.prefix + ".ingest.events"
}

// ControlSubject returns the subject control messages are read from.
func (l *NATSListener) ControlSubject() string {
	return l.prefix + ".ingest.control"
}

// Serve subscribes and blocks until ctx is cancelled.
func (l *NATSListener) Serve(ctx context.Context) error {
	events, err := l.conn.Subscribe(l.EventsSubject(), func(msg *nats.Msg) {
		_ = l.ingest.OnEvent(ctx, msg.Data)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", l.EventsSubject(), err)
	}
	defer events.Unsubscribe()

	control, err := l.conn.Subscribe(l.ControlSubject(), func(msg *nats.Msg) {
		reply := []byte("ok")
		if err := l.ingest.OnControl(ctx, msg.Data); err != nil {
			logrus.Warnf("control message rejected: %v", err)
			reply = []byte(err.Error())
		}
		if msg.Reply != "" {
			if err := msg.Respond(reply); err != nil {
				logrus.Warnf("failed to answer control message: %v", err)
			}
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", l.ControlSubject(), err)
	}
	defer control.Unsubscribe()

	logrus.Infof("listening for game client messages on %s and %s", l.EventsSubject(), l.ControlSubject())
	<-ctx.Done()
	return ctx.Err()
}

// String implements fmt.Stringer for the supervisor.
func (l *NATSListener) String() string {
	return "nats-ingest"
}
