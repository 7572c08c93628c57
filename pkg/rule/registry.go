package rule

import (
	"fmt"
	"sync"
)

// wildcard is the dispatch key for rules that handle every signal type.
const wildcard = "*"

// Registry manages available rules.
// It provides thread-safe registration and lookup of rules, and keeps a
// dispatch table from signal type to rules in registration order.
type Registry struct {
	rules    map[string]Rule
	order    []string
	dispatch map[string][]Rule
	mu       sync.RWMutex
}

// NewRegistry creates a new empty rule registry.
func NewRegistry() *Registry {
	return &Registry{
		rules:    make(map[string]Rule),
		dispatch: make(map[string][]Rule),
	}
}

// Register adds a rule to the registry.
// Returns an error if a rule with the same ID already exists.
func (r *Registry) Register(rule Rule) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rules[rule.ID()]; exists {
		return fmt.Errorf("rule %s already registered", rule.ID())
	}

	r.rules[rule.ID()] = rule
	r.order = append(r.order, rule.ID())
	r.rebuild()
	return nil
}

// Unregister removes a rule from the registry.
// Returns an error if the rule doesn't exist.
func (r *Registry) Unregister(ruleID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rules[ruleID]; !exists {
		return fmt.Errorf("rule %s not found", ruleID)
	}

	delete(r.rules, ruleID)
	for i, id := range r.order {
		if id == ruleID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.rebuild()
	return nil
}

// rebuild recomputes the dispatch table. Callers hold the write lock.
func (r *Registry) rebuild() {
	dispatch := make(map[string][]Rule)
	for _, id := range r.order {
		rule := r.rules[id]
		types := rule.SignalTypes()
		if len(types) == 0 {
			dispatch[wildcard] = append(dispatch[wildcard], rule)
			continue
		}
		for _, st := range types {
			dispatch[st] = append(dispatch[st], rule)
		}
	}
	r.dispatch = dispatch
}

// Get returns a rule by ID.
// Returns nil if the rule doesn't exist.
func (r *Registry) Get(ruleID string) Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.rules[ruleID]
}

// GetBySignalType returns all enabled rules that handle a specific signal type.
// Type-specific rules come first in registration order, then rules that
// handle every signal type.
func (r *Registry) GetBySignalType(signalType string) []Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matching []Rule
	for _, key := range []string{signalType, wildcard} {
		for _, rule := range r.dispatch[key] {
			// Skip disabled rules
			if !rule.Config().Enabled {
				continue
			}
			matching = append(matching, rule)
		}
	}

	return matching
}

// SignalTypes returns the signal types with at least one registered rule.
func (r *Registry) SignalTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.dispatch))
	for st := range r.dispatch {
		if st != wildcard {
			types = append(types, st)
		}
	}
	return types
}

// GetAll returns all registered rules in registration order.
func (r *Registry) GetAll() []Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rules := make([]Rule, 0, len(r.order))
	for _, id := range r.order {
		rules = append(rules, r.rules[id])
	}

	return rules
}

// Count returns the number of registered rules.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.rules)
}
