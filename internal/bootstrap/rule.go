// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package bootstrap

import (
	"fmt"

	"github.com/AccelByte/extend-realm-guard/pkg/pipeline"
	"github.com/AccelByte/extend-realm-guard/pkg/rule"
	ruleBuiltin "github.com/AccelByte/extend-realm-guard/pkg/rule/builtin"
	"github.com/sirupsen/logrus"
)

// InitRuleEngine creates and initializes a rule engine with rules from pipeline config.
//
// ============================================================
// DEVELOPER: Register custom rule types here.
// ============================================================
// Rules are the detectors. Each rule type inspects one or more signal
// types and returns flags with a severity; the engine folds them into a
// verdict.
//
// Steps to add a new rule:
// 1. Create your rule in pkg/rule/builtin/ (see examples)
// 2. Implement the Rule interface
// 3. Register the rule type in pkg/rule/builtin/init.go
// 4. Add rule configuration to config/pipeline.yaml
//
// When config/pipeline.yaml lists no rules, every builtin rule is enabled.
// ============================================================
func InitRuleEngine(pipelineConfig *pipeline.Config) (*rule.Engine, *rule.Registry, error) {
	ruleBuiltin.RegisterBuiltinRules()

	// ============================================================
	// DEVELOPER: Register custom rule types below
	// ============================================================
	// rule.RegisterRuleType("my_custom_rule", func(cfg rule.RuleConfig) (rule.Rule, error) {
	//     return mycustom.NewMyRule(cfg), nil
	// })
	// ============================================================

	ruleConfigs := convertRuleConfigs(pipelineConfig.Rules)
	if len(ruleConfigs) == 0 {
		logrus.Info("no rules configured, using builtin defaults")
		ruleConfigs = ruleBuiltin.DefaultConfigs()
	}

	registry := rule.NewRegistry()
	if err := rule.RegisterRules(registry, ruleConfigs); err != nil {
		return nil, nil, fmt.Errorf("failed to register rules: %w", err)
	}

	logrus.Infof("registered %d rules", registry.Count())

	engine := rule.NewEngine(registry)
	logrus.Infof("initialized rule engine")

	return engine, registry, nil
}

func convertRuleConfigs(configs []pipeline.RuleConfig) []rule.RuleConfig {
	result := make([]rule.RuleConfig, len(configs))
	for i, rc := range configs {
		result[i] = rule.RuleConfig{
			ID:         rc.ID,
			Name:       rc.Name,
			Type:       rc.Type,
			Enabled:    rc.Enabled,
			Parameters: rc.Parameters,
		}
	}
	return result
}
