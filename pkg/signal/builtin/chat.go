package builtin

import (
	"context"
	"fmt"

	"github.com/AccelByte/extend-realm-guard/pkg/signal"
)

type chatPayload struct {
	Sender string `json:"sender"`
	XUID   string `json:"xuid"`
	Text   string `json:"text"`
}

// ChatEventProcessor decodes chat text events.
type ChatEventProcessor struct{}

func (p *ChatEventProcessor) EventType() string {
	return signal.TypeChat
}

func (p *ChatEventProcessor) Process(ctx context.Context, event *signal.RawEvent) (signal.Signal, error) {
	var payload chatPayload
	if err := decodeData(event, &payload); err != nil {
		return nil, err
	}
	xuid := payload.XUID
	if xuid == "" {
		xuid = event.XUID
	}
	if payload.Sender == "" && xuid == "" {
		return nil, fmt.Errorf("chat event has no sender")
	}
	return signal.NewChatSignal(event.Timestamp, xuid, payload.Sender, payload.Text), nil
}

type commandPayload struct {
	Sender  string `json:"sender"`
	XUID    string `json:"xuid"`
	Command string `json:"command"`
}

// CommandEventProcessor decodes command request events.
type CommandEventProcessor struct{}

func (p *CommandEventProcessor) EventType() string {
	return signal.TypeCommand
}

func (p *CommandEventProcessor) Process(ctx context.Context, event *signal.RawEvent) (signal.Signal, error) {
	var payload commandPayload
	if err := decodeData(event, &payload); err != nil {
		return nil, err
	}
	if payload.Command == "" {
		return nil, fmt.Errorf("command is empty in command event")
	}
	xuid := payload.XUID
	if xuid == "" {
		xuid = event.XUID
	}
	return signal.NewCommandSignal(event.Timestamp, xuid, payload.Sender, payload.Command), nil
}
