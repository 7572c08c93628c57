package rule

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// RuleFactory builds a rule from its pipeline.yaml entry.
type RuleFactory func(config RuleConfig) (Rule, error)

var (
	factoriesMu sync.RWMutex
	factories   = make(map[string]RuleFactory)
)

// RegisterRuleType binds a rule type name to its factory. Registering the
// same type again replaces the previous factory.
func RegisterRuleType(ruleType string, factory RuleFactory) {
	factoriesMu.Lock()
	factories[ruleType] = factory
	factoriesMu.Unlock()
	logrus.Debugf("rule type %s available", ruleType)
}

// IsRuleTypeRegistered reports whether a factory exists for ruleType.
func IsRuleTypeRegistered(ruleType string) bool {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	_, ok := factories[ruleType]
	return ok
}

func ruleTypes() string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// CreateRule builds the rule for config. A disabled entry yields a nil rule
// and no error.
func CreateRule(config RuleConfig) (Rule, error) {
	if !config.Enabled {
		logrus.Infof("rule %s disabled in pipeline config", config.ID)
		return nil, nil
	}

	factoriesMu.RLock()
	factory, ok := factories[config.Type]
	if !ok {
		known := ruleTypes()
		factoriesMu.RUnlock()
		return nil, fmt.Errorf("unknown rule type %q (known: %s)", config.Type, known)
	}
	factoriesMu.RUnlock()

	return factory(config)
}

// RegisterRules builds every configured detector and adds it to registry.
// Entries whose factory fails are logged and skipped so one bad detector
// does not take the others down; a duplicate ID is fatal.
func RegisterRules(registry *Registry, configs []RuleConfig) error {
	registered := 0
	for _, config := range configs {
		r, err := CreateRule(config)
		if err != nil {
			logrus.Warnf("rule %s skipped: %v", config.ID, err)
			continue
		}
		if r == nil {
			continue
		}
		if err := registry.Register(r); err != nil {
			return fmt.Errorf("register rule %s: %w", r.ID(), err)
		}
		registered++
	}

	logrus.Infof("%d of %d configured rules active", registered, len(configs))
	return nil
}
