package event

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

// DefaultSubjectPrefix is the NATS subject prefix used when none is configured.
const DefaultSubjectPrefix = "realm_guard"

// LogSink writes every event to the log.
type LogSink struct{}

// Deliver implements Subscriber.
func (LogSink) Deliver(ctx context.Context, e Event) error {
	logrus.WithFields(logrus.Fields{
		"tenant":   e.Tenant,
		"event":    e.Name,
		"event_id": e.ID.String(),
	}).Infof("%s %v", e.Name, e.Payload)
	return nil
}

// Publisher is the part of a NATS connection the sink uses.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATSSink publishes every event as JSON on <prefix>.<tenant>.<event>.
type NATSSink struct {
	conn   Publisher
	prefix string
}

// NewNATSSink creates a sink publishing through conn.
func NewNATSSink(conn Publisher, prefix string) *NATSSink {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &NATSSink{conn: conn, prefix: prefix}
}

// Subject returns the subject an event is published on.
func (s *NATSSink) Subject(e Event) string {
	return s.prefix + "." + SubjectToken(e.Tenant) + "." + SubjectToken(e.Name)
}

// Deliver implements Subscriber.
func (s *NATSSink) Deliver(ctx context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", e.Name, err)
	}
	if err := s.conn.Publish(s.Subject(e), data); err != nil {
		return fmt.Errorf("publish event %s: %w", e.Name, err)
	}
	return nil
}

// ConnectNATS dials a NATS server with reconnects enabled.
func ConnectNATS(url, name string) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(10),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logrus.Warnf("nats disconnected: %v", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logrus.Infof("nats reconnected to %s", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return nc, nil
}

// SubjectToken replaces characters that carry meaning in NATS subjects.
func SubjectToken(s string) string {
	if s == "" {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\r', '\n':
			return '_'
		}
		return r
	}, s)
}
