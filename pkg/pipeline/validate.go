package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"github.com/AccelByte/extend-realm-guard/pkg/action"
	"github.com/AccelByte/extend-realm-guard/pkg/rule"
)

// ValidateWiring validates that the pipeline is correctly wired.
// It checks that:
// - All enabled rules in config have registered instances
// - All enabled actions in config have registered instances
// - Every action tenant settings enforce with resolves to an enabled action
//
// This catches common mistakes like:
// - Forgetting to register a rule type factory
// - Typos in rule/action IDs or types
// - A tenant pointing automod at an action that does not exist
func ValidateWiring(ruleRegistry *rule.Registry, actionRegistry *action.Registry, config *Config, enforcementActions []string) error {
	var errors []string

	// Check that every enabled rule in config has a registered instance
	for _, rc := range config.Rules {
		if !rc.Enabled {
			continue
		}

		r := ruleRegistry.Get(rc.ID)
		if r == nil {
			errors = append(errors, fmt.Sprintf("rule '%s' (type=%s) is enabled in config but not registered", rc.ID, rc.Type))
		}
	}

	// Check that every enabled action in config has a registered instance
	for _, ac := range config.Actions {
		if !ac.Enabled {
			continue
		}

		a := actionRegistry.Get(ac.ID)
		if a == nil {
			errors = append(errors, fmt.Sprintf("action '%s' (type=%s) is enabled in config but not registered", ac.ID, ac.Type))
		}
	}

	seen := make(map[string]bool)
	for _, id := range enforcementActions {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		if _, err := actionRegistry.Resolve(id); err != nil {
			errors = append(errors, fmt.Sprintf("enforcement action '%s' cannot be applied: %v", id, err))
		}
	}

	if len(errors) > 0 {
		sort.Strings(errors)
		return fmt.Errorf("pipeline wiring validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}
