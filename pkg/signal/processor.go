package signal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

var (
	// ErrUnknownEventType is returned for events with no registered processor.
	ErrUnknownEventType = errors.New("unknown event type")

	// ErrInvalidEvent is returned when the event envelope cannot be decoded.
	ErrInvalidEvent = errors.New("invalid event")
)

// RawEvent is the envelope the game client publishes for every decoded
// event. Data holds the type-specific payload.
type RawEvent struct {
	Type      string          `json:"type"`
	Tenant    string          `json:"tenant"`
	XUID      string          `json:"xuid,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// Processor converts raw event envelopes into signals using the
// registered event processors.
type Processor struct {
	registry *EventProcessorRegistry
	clock    clockwork.Clock
}

// NewProcessor creates a new signal processor with an empty registry.
func NewProcessor(clock clockwork.Clock) *Processor {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Processor{
		registry: NewEventProcessorRegistry(),
		clock:    clock,
	}
}

// GetEventProcessorRegistry returns the registry used by this processor.
func (p *Processor) GetEventProcessorRegistry() *EventProcessorRegistry {
	return p.registry
}

// Decode parses one envelope and converts it into a signal. The returned
// envelope identifies the tenant the signal belongs to.
func (p *Processor) Decode(ctx context.Context, payload []byte) (*RawEvent, Signal, error) {
	var raw RawEvent
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if raw.Type == "" {
		return nil, nil, fmt.Errorf("%w: event type is empty", ErrInvalidEvent)
	}
	if raw.Tenant == "" {
		return nil, nil, fmt.Errorf("%w: tenant is empty", ErrInvalidEvent)
	}
	if raw.Timestamp.IsZero() {
		raw.Timestamp = p.clock.Now()
	}

	processor := p.registry.Get(raw.Type)
	if processor == nil {
		return &raw, nil, fmt.Errorf("%w: %s", ErrUnknownEventType, raw.Type)
	}

	sig, err := processor.Process(ctx, &raw)
	if err != nil {
		return &raw, nil, fmt.Errorf("failed to process %s event for tenant %s: %w", raw.Type, raw.Tenant, err)
	}

	logrus.Debugf("decoded %s event for tenant %s", raw.Type, raw.Tenant)
	return &raw, sig, nil
}
