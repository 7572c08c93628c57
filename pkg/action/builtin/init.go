package builtin

import (
	"github.com/AccelByte/extend-realm-guard/pkg/action"
	"github.com/AccelByte/extend-realm-guard/pkg/service"
)

// Dependencies holds dependencies needed by built-in actions.
type Dependencies struct {
	Bans     service.BanApplier
	Commands service.CommandSender
}

// RegisterActions registers built-in action factories with dependencies.
func RegisterActions(deps *Dependencies) {
	// Register ban action
	action.RegisterActionType(BanActionID, func(config action.ActionConfig) (action.Action, error) {
		if deps.Bans == nil {
			return nil, action.ErrInvalidConfig
		}
		return NewBanAction(config, deps.Bans), nil
	})

	// Register kick action
	action.RegisterActionType(KickActionID, func(config action.ActionConfig) (action.Action, error) {
		if deps.Commands == nil {
			return nil, action.ErrInvalidConfig
		}
		return NewKickAction(config, deps.Commands), nil
	})
}

// DefaultConfigs returns the enabled configuration of every built-in action.
func DefaultConfigs() []action.ActionConfig {
	return []action.ActionConfig{
		{ID: BanActionID, Name: "Realm Ban", Type: BanActionID, Enabled: true},
		{
			ID:      KickActionID,
			Name:    "Kick Player",
			Type:    KickActionID,
			Enabled: true,
			Parameters: map[string]interface{}{
				"command": DefaultKickCommand,
			},
		},
	}
}
