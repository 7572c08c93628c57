package builtin

import (
	"context"

	"github.com/AccelByte/extend-realm-guard/pkg/action"
	"github.com/AccelByte/extend-realm-guard/pkg/service"
	"github.com/sirupsen/logrus"
)

const BanActionID = "ban"

// BanAction bans a player from the realm through the ban capability.
type BanAction struct {
	config action.ActionConfig
	bans   service.BanApplier
}

// NewBanAction creates a new ban action.
func NewBanAction(config action.ActionConfig, bans service.BanApplier) *BanAction {
	logrus.Infof("creating ban action: %s", config.ID)
	return &BanAction{
		config: config,
		bans:   bans,
	}
}

func (a *BanAction) ID() string {
	return a.config.ID
}

func (a *BanAction) Name() string {
	return a.config.Name
}

func (a *BanAction) Config() action.ActionConfig {
	return a.config
}

// Execute applies the ban. The capability is called exactly once.
func (a *BanAction) Execute(ctx context.Context, req *action.Request) error {
	return a.bans.ApplyBan(ctx, req.Tenant, req.Realm, req.XUID, req.Reason)
}
