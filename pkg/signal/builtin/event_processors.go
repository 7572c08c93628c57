package builtin

import (
	"fmt"

	"github.com/AccelByte/extend-realm-guard/pkg/signal"
	"github.com/goccy/go-json"
)

// RegisterEventProcessors registers all built-in event processors.
func RegisterEventProcessors(registry *signal.EventProcessorRegistry) {
	registry.Register(&JoinEventProcessor{})
	registry.Register(&LeaveEventProcessor{})
	registry.Register(&DeathEventProcessor{})
	registry.Register(&ChatEventProcessor{})
	registry.Register(&CommandEventProcessor{})
	registry.Register(&InventoryEventProcessor{})
	registry.Register(&PacketEventProcessor{})
	registry.Register(&ConnectionEventProcessor{})
}

// decodeData unmarshals the type-specific payload of an event.
func decodeData(event *signal.RawEvent, out interface{}) error {
	if event == nil {
		return fmt.Errorf("event is nil")
	}
	if len(event.Data) == 0 {
		return fmt.Errorf("%s event has no data", event.Type)
	}
	if err := json.Unmarshal(event.Data, out); err != nil {
		return fmt.Errorf("failed to decode %s event data: %w", event.Type, err)
	}
	return nil
}
