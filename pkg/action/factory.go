package action

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// ActionFactory builds an enforcement action from its pipeline.yaml entry.
type ActionFactory func(config ActionConfig) (Action, error)

var (
	factoriesMu sync.RWMutex
	factories   = make(map[string]ActionFactory)
)

// RegisterActionType binds an action type name to its factory. The builtin
// package re-registers its types whenever its dependencies change.
func RegisterActionType(actionType string, factory ActionFactory) {
	factoriesMu.Lock()
	factories[actionType] = factory
	factoriesMu.Unlock()
	logrus.Debugf("action type %s available", actionType)
}

// IsActionTypeRegistered reports whether a factory exists for actionType.
func IsActionTypeRegistered(actionType string) bool {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	_, ok := factories[actionType]
	return ok
}

// CreateAction builds the action for config. A disabled entry yields a nil
// action and no error.
func CreateAction(config ActionConfig) (Action, error) {
	if !config.Enabled {
		logrus.Infof("action %s disabled in pipeline config", config.ID)
		return nil, nil
	}

	factoriesMu.RLock()
	factory, ok := factories[config.Type]
	if !ok {
		names := make([]string, 0, len(factories))
		for name := range factories {
			names = append(names, name)
		}
		factoriesMu.RUnlock()
		sort.Strings(names)
		return nil, fmt.Errorf("unknown action type %q (known: %s)", config.Type, strings.Join(names, ", "))
	}
	factoriesMu.RUnlock()

	return factory(config)
}

// RegisterActions builds every configured enforcement action and adds it to
// registry. A failing factory is logged and skipped; wiring validation later
// reports any enforcement a tenant needs that ended up missing.
func RegisterActions(registry *Registry, configs []ActionConfig) error {
	registered := 0
	for _, config := range configs {
		a, err := CreateAction(config)
		if err != nil {
			logrus.Warnf("action %s skipped: %v", config.ID, err)
			continue
		}
		if a == nil {
			continue
		}
		if err := registry.Register(a); err != nil {
			return fmt.Errorf("register action %s: %w", a.ID(), err)
		}
		registered++
	}

	logrus.Infof("%d of %d configured actions active", registered, len(configs))
	return nil
}
