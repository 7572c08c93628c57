package action

import (
	"fmt"
	"sync"
)

// Registry manages available actions.
// It provides thread-safe registration and lookup of actions.
type Registry struct {
	actions map[string]Action
	order   []string
	mu      sync.RWMutex
}

// NewRegistry creates a new empty action registry.
func NewRegistry() *Registry {
	return &Registry{
		actions: make(map[string]Action),
	}
}

// Register adds an action to the registry.
// Returns an error if an action with the same ID already exists.
func (r *Registry) Register(action Action) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.actions[action.ID()]; exists {
		return fmt.Errorf("action %s already registered", action.ID())
	}

	r.actions[action.ID()] = action
	r.order = append(r.order, action.ID())
	return nil
}

// Unregister removes an action from the registry.
// Returns an error if the action doesn't exist.
func (r *Registry) Unregister(actionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.actions[actionID]; !exists {
		return fmt.Errorf("action %s not found", actionID)
	}

	delete(r.actions, actionID)
	for i, id := range r.order {
		if id == actionID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// Get returns an action by ID.
// Returns nil if the action doesn't exist.
func (r *Registry) Get(actionID string) Action {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.actions[actionID]
}

// Resolve returns an enabled action by ID, or ErrActionNotFound /
// ErrActionDisabled.
func (r *Registry) Resolve(actionID string) (Action, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	action, ok := r.actions[actionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrActionNotFound, actionID)
	}
	if !action.Config().Enabled {
		return nil, fmt.Errorf("%w: %s", ErrActionDisabled, actionID)
	}
	return action, nil
}

// GetAll returns all registered actions in registration order.
func (r *Registry) GetAll() []Action {
	r.mu.RLock()
	defer r.mu.RUnlock()

	actions := make([]Action, 0, len(r.order))
	for _, id := range r.order {
		actions = append(actions, r.actions[id])
	}

	return actions
}

// Count returns the number of registered actions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.actions)
}
