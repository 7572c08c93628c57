// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package bootstrap

import (
	"fmt"
	"time"

	"github.com/AccelByte/extend-realm-guard/pkg/action"
	actionBuiltin "github.com/AccelByte/extend-realm-guard/pkg/action/builtin"
	"github.com/AccelByte/extend-realm-guard/pkg/event"
	"github.com/AccelByte/extend-realm-guard/pkg/pipeline"
	"github.com/sirupsen/logrus"
)

// InitActionExecutor creates and initializes an action executor with actions from pipeline config.
//
// ============================================================
// DEVELOPER: Register custom action types here.
// ============================================================
// Actions are the enforcement capabilities a verdict or a crash
// attribution can trigger. Tenant settings pick the action by ID
// (automod.action); crash attribution uses CRASH_ACTION.
//
// Steps to add a new action:
// 1. Create your action in pkg/action/builtin/ (see examples)
// 2. Implement the Action interface
// 3. Register the action type in pkg/action/builtin/init.go
// 4. Add action configuration to config/pipeline.yaml
//
// The builtin actions:
// - ban  → applies a realm ban through the ban API
// - kick → issues a kick command through the game client
//
// When config/pipeline.yaml lists no actions, every builtin action is enabled.
// ============================================================
func InitActionExecutor(
	pipelineConfig *pipeline.Config,
	deps *actionBuiltin.Dependencies,
	emitter event.Emitter,
	timeout time.Duration,
) (*action.Executor, *action.Registry, error) {
	actionBuiltin.RegisterActions(deps)

	actionConfigs := convertActionConfigs(pipelineConfig.Actions)
	if len(actionConfigs) == 0 {
		logrus.Info("no actions configured, using builtin defaults")
		actionConfigs = actionBuiltin.DefaultConfigs()
	}

	registry := action.NewRegistry()
	if err := action.RegisterActions(registry, actionConfigs); err != nil {
		return nil, nil, fmt.Errorf("failed to register actions: %w", err)
	}

	logrus.Infof("registered %d actions", registry.Count())

	executor := action.NewExecutor(registry, emitter, timeout)
	logrus.Infof("initialized action executor")

	return executor, registry, nil
}

func convertActionConfigs(configs []pipeline.ActionConfig) []action.ActionConfig {
	result := make([]action.ActionConfig, len(configs))
	for i, ac := range configs {
		result[i] = action.ActionConfig{
			ID:         ac.ID,
			Name:       ac.Name,
			Type:       ac.Type,
			Enabled:    ac.Enabled,
			Parameters: ac.Parameters,
		}
	}
	return result
}
