// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package bootstrap

import (
	"sort"

	"github.com/AccelByte/extend-realm-guard/pkg/event"
	"github.com/AccelByte/extend-realm-guard/pkg/pipeline"
	"github.com/AccelByte/extend-realm-guard/pkg/rule"
	"github.com/AccelByte/extend-realm-guard/pkg/settings"
	"github.com/sirupsen/logrus"
)

// InitPipeline creates the per-event dispatch pipeline.
//
// ============================================================
// DEVELOPER: Pipeline flow
// ============================================================
// For every tenant event the pipeline runs:
// Signal → Tracker → Rules → Enforcement
//
// Enforcement is picked per tenant from settings (automod.action),
// not from config/pipeline.yaml. To switch a tenant from bans to kicks,
// edit its settings entry.
// ============================================================
func InitPipeline(
	ruleEngine *rule.Engine,
	enforcer pipeline.Enforcer,
	emitter event.Emitter,
	provider settings.Provider,
) *pipeline.Manager {
	manager := pipeline.NewManager(ruleEngine, enforcer, emitter, provider)
	logrus.Infof("initialized pipeline manager")
	return manager
}

// EnforcementActions returns the action IDs that settings and crash
// attribution can submit, for wiring validation.
func EnforcementActions(provider settings.Provider, tenants []string, crashAction string) []string {
	seen := map[string]bool{}
	add := func(id string) {
		if id != "" {
			seen[id] = true
		}
	}

	add(crashAction)
	// The empty tenant resolves to the defaults block.
	add(provider.Get("").Automod.Action)
	for _, tenant := range tenants {
		add(provider.Get(tenant).Automod.Action)
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
