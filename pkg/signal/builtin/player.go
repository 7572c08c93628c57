package builtin

import (
	"context"
	"fmt"

	"github.com/AccelByte/extend-realm-guard/pkg/signal"
)

// JoinEventProcessor decodes player join events.
type JoinEventProcessor struct{}

func (p *JoinEventProcessor) EventType() string {
	return signal.TypeJoin
}

func (p *JoinEventProcessor) Process(ctx context.Context, event *signal.RawEvent) (signal.Signal, error) {
	var facts signal.PlayerFacts
	if err := decodeData(event, &facts); err != nil {
		return nil, err
	}
	if facts.XUID == "" {
		facts.XUID = event.XUID
	}
	if facts.XUID == "" {
		return nil, fmt.Errorf("xuid is empty in join event")
	}
	return signal.NewJoinSignal(event.Timestamp, facts), nil
}

type leavePayload struct {
	XUID     string `json:"xuid"`
	Gamertag string `json:"gamertag"`
}

// LeaveEventProcessor decodes player leave events.
type LeaveEventProcessor struct{}

func (p *LeaveEventProcessor) EventType() string {
	return signal.TypeLeave
}

func (p *LeaveEventProcessor) Process(ctx context.Context, event *signal.RawEvent) (signal.Signal, error) {
	var payload leavePayload
	if err := decodeData(event, &payload); err != nil {
		return nil, err
	}
	if payload.XUID == "" {
		payload.XUID = event.XUID
	}
	if payload.XUID == "" {
		return nil, fmt.Errorf("xuid is empty in leave event")
	}
	return signal.NewLeaveSignal(event.Timestamp, payload.XUID, payload.Gamertag), nil
}

type deathPayload struct {
	Player string `json:"player"`
	Cause  string `json:"cause"`
}

// DeathEventProcessor decodes death messages.
type DeathEventProcessor struct{}

func (p *DeathEventProcessor) EventType() string {
	return signal.TypeDeath
}

func (p *DeathEventProcessor) Process(ctx context.Context, event *signal.RawEvent) (signal.Signal, error) {
	var payload deathPayload
	if err := decodeData(event, &payload); err != nil {
		return nil, err
	}
	if payload.Player == "" {
		return nil, fmt.Errorf("player is empty in death event")
	}
	return signal.NewDeathSignal(event.Timestamp, payload.Player, payload.Cause), nil
}
