package builtin

import (
	"context"
	"fmt"

	"github.com/AccelByte/extend-realm-guard/pkg/signal"
)

type connectionPayload struct {
	Kind   string `json:"kind"`
	Reason string `json:"reason"`
}

// ConnectionEventProcessor decodes the bot's own connection state changes.
type ConnectionEventProcessor struct{}

func (p *ConnectionEventProcessor) EventType() string {
	return signal.TypeConnection
}

func (p *ConnectionEventProcessor) Process(ctx context.Context, event *signal.RawEvent) (signal.Signal, error) {
	var payload connectionPayload
	if err := decodeData(event, &payload); err != nil {
		return nil, err
	}

	kind := signal.ConnectionKind(payload.Kind)
	switch kind {
	case signal.ConnectionSpawn, signal.ConnectionClose, signal.ConnectionError, signal.ConnectionKick:
	default:
		return nil, fmt.Errorf("unknown connection kind %q", payload.Kind)
	}

	return signal.NewConnectionSignal(event.Timestamp, kind, payload.Reason), nil
}
