package event

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
)

// NATSHealthChecker reports whether the event connection is up.
type NATSHealthChecker struct {
	conn *nats.Conn
}

// NewNATSHealthChecker creates a health checker for conn.
func NewNATSHealthChecker(conn *nats.Conn) *NATSHealthChecker {
	return &NATSHealthChecker{conn: conn}
}

// Name identifies the dependency in health reports.
func (h *NATSHealthChecker) Name() string {
	return "nats"
}

// Check fails unless the connection is established.
func (h *NATSHealthChecker) Check(ctx context.Context) error {
	if status := h.conn.Status(); status != nats.CONNECTED {
		return fmt.Errorf("nats connection is %s", status)
	}
	return nil
}
