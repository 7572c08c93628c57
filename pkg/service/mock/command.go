package mock

import (
	"context"
	"sync"
)

// CommandSender is a mock implementation of service.CommandSender for testing
type CommandSender struct {
	// SendCommandFunc is called when SendCommand is invoked
	SendCommandFunc func(ctx context.Context, tenant, command string) error

	DefaultError error

	mu    sync.Mutex
	calls []SendCommandCall
	sent  chan SendCommandCall
}

// SendCommandCall tracks parameters for SendCommand calls
type SendCommandCall struct {
	Tenant  string
	Command string
}

// NewCommandSender creates a new mock CommandSender. Every call is also
// published on Sent so tests can wait for asynchronous sends.
func NewCommandSender() *CommandSender {
	return &CommandSender{sent: make(chan SendCommandCall, 64)}
}

// SendCommand implements service.CommandSender
func (m *CommandSender) SendCommand(ctx context.Context, tenant, command string) error {
	call := SendCommandCall{Tenant: tenant, Command: command}
	m.mu.Lock()
	m.calls = append(m.calls, call)
	fn := m.SendCommandFunc
	m.mu.Unlock()

	if m.sent != nil {
		select {
		case m.sent <- call:
		default:
		}
	}

	if fn != nil {
		return fn(ctx, tenant, command)
	}
	return m.DefaultError
}

// Sent returns the channel every call is published on
func (m *CommandSender) Sent() <-chan SendCommandCall {
	return m.sent
}

// Calls returns a copy of the recorded calls
func (m *CommandSender) Calls() []SendCommandCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SendCommandCall(nil), m.calls...)
}
