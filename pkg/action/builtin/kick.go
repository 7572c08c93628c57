package builtin

import (
	"context"
	"strings"

	"github.com/AccelByte/extend-realm-guard/pkg/action"
	"github.com/AccelByte/extend-realm-guard/pkg/service"
	"github.com/sirupsen/logrus"
)

const (
	KickActionID = "kick"

	// DefaultKickCommand is expanded with {gamertag}, {xuid} and {reason}.
	DefaultKickCommand = `/kick "{gamertag}" {reason}`
)

// KickAction removes a player from the live session with a server command.
type KickAction struct {
	config   action.ActionConfig
	commands service.CommandSender
	template string
}

// NewKickAction creates a new kick action.
func NewKickAction(config action.ActionConfig, commands service.CommandSender) *KickAction {
	logrus.Infof("creating kick action: %s", config.ID)
	return &KickAction{
		config:   config,
		commands: commands,
		template: config.GetParameterString("command", DefaultKickCommand),
	}
}

func (a *KickAction) ID() string {
	return a.config.ID
}

func (a *KickAction) Name() string {
	return a.config.Name
}

func (a *KickAction) Config() action.ActionConfig {
	return a.config
}

// Command renders the kick command for req.
func (a *KickAction) Command(req *action.Request) string {
	target := req.Gamertag
	if target == "" {
		target = req.XUID
	}
	r := strings.NewReplacer(
		"{gamertag}", sanitize(target),
		"{xuid}", sanitize(req.XUID),
		"{reason}", sanitize(req.Reason),
	)
	return strings.TrimSpace(r.Replace(a.template))
}

// Execute sends the kick command once.
func (a *KickAction) Execute(ctx context.Context, req *action.Request) error {
	return a.commands.SendCommand(ctx, req.Tenant, a.Command(req))
}

// sanitize strips characters that would break out of a quoted command argument.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '"', '\n', '\r':
			return -1
		}
		return r
	}, s)
}
