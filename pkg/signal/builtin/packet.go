package builtin

import (
	"context"
	"fmt"

	"github.com/AccelByte/extend-realm-guard/pkg/signal"
)

type inventoryPayload struct {
	Items []signal.ItemStack `json:"items"`
}

// InventoryEventProcessor decodes inventory transaction events.
type InventoryEventProcessor struct{}

func (p *InventoryEventProcessor) EventType() string {
	return signal.TypeInventory
}

func (p *InventoryEventProcessor) Process(ctx context.Context, event *signal.RawEvent) (signal.Signal, error) {
	var payload inventoryPayload
	if err := decodeData(event, &payload); err != nil {
		return nil, err
	}
	if event.XUID == "" {
		return nil, fmt.Errorf("xuid is empty in inventory event")
	}
	return signal.NewInventorySignal(event.Timestamp, event.XUID, payload.Items), nil
}

type packetPayload struct {
	Packet   string             `json:"packet"`
	Position *signal.Vec3       `json:"position,omitempty"`
	Velocity *signal.Vec3       `json:"velocity,omitempty"`
	Rotation *signal.Rotation   `json:"rotation,omitempty"`
	Slot     *int               `json:"slot,omitempty"`
	Count    *int               `json:"count,omitempty"`
	Strings  map[string]string  `json:"strings,omitempty"`
	Numbers  map[string]float64 `json:"numbers,omitempty"`
}

// PacketEventProcessor decodes generic packet events.
type PacketEventProcessor struct{}

func (p *PacketEventProcessor) EventType() string {
	return signal.TypePacket
}

func (p *PacketEventProcessor) Process(ctx context.Context, event *signal.RawEvent) (signal.Signal, error) {
	var payload packetPayload
	if err := decodeData(event, &payload); err != nil {
		return nil, err
	}
	if payload.Packet == "" {
		return nil, fmt.Errorf("packet type is empty in packet event")
	}
	if event.XUID == "" {
		return nil, fmt.Errorf("xuid is empty in packet event")
	}

	sig := signal.NewPacketSignal(event.Timestamp, event.XUID, payload.Packet)
	sig.Position = payload.Position
	sig.Velocity = payload.Velocity
	sig.Rotation = payload.Rotation
	sig.Slot = payload.Slot
	sig.Count = payload.Count
	sig.Strings = payload.Strings
	sig.Numbers = payload.Numbers
	return sig, nil
}
