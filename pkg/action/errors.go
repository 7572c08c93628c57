package action

import "errors"

var (
	// ErrEnforcementFailed wraps every capability failure reported in an
	// automod-action outcome.
	ErrEnforcementFailed = errors.New("enforcement failed")

	// ErrActionDisabled indicates that an action is disabled in configuration.
	ErrActionDisabled = errors.New("action is disabled")

	// ErrActionNotFound indicates that a requested action doesn't exist in the registry.
	ErrActionNotFound = errors.New("action not found in registry")

	// ErrInvalidConfig indicates that an action's configuration is invalid.
	ErrInvalidConfig = errors.New("invalid action configuration")

	// ErrMissingTarget indicates that the request names no player.
	ErrMissingTarget = errors.New("missing enforcement target")
)
