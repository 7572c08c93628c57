package action

import (
	"context"

	"github.com/AccelByte/extend-realm-guard/pkg/service"
)

// Enforcement sources.
const (
	SourceDetector         = "detector"
	SourceCrashAttribution = "crash-attribution"
)

// Action enforces against one player through an external capability.
// Actions are registered in a Registry and applied by the Executor.
type Action interface {
	// ID returns unique action identifier.
	ID() string

	// Name returns human-readable action name.
	Name() string

	// Execute performs the enforcement once. No retries.
	Execute(ctx context.Context, req *Request) error

	// Config returns the action's configuration.
	Config() ActionConfig
}

// Request describes one enforcement against one player.
type Request struct {
	Tenant   string
	Realm    service.Realm
	XUID     string
	Gamertag string
	Reason   string
	// Rule names what triggered the enforcement: the flagged checks or
	// the trigger kind of a crash attribution.
	Rule   string
	Source string
}

// ActionResult represents the outcome of one Apply.
type ActionResult struct {
	ActionID string
	Success  bool
	Error    error
	Metadata map[string]interface{}
}

// NewActionResult creates a successful action result.
func NewActionResult(actionID string) *ActionResult {
	return &ActionResult{
		ActionID: actionID,
		Success:  true,
		Metadata: make(map[string]interface{}),
	}
}

// NewActionError creates a failed action result with an error.
func NewActionError(actionID string, err error) *ActionResult {
	return &ActionResult{
		ActionID: actionID,
		Success:  false,
		Error:    err,
		Metadata: make(map[string]interface{}),
	}
}

// WithMetadata adds metadata to the result and returns it for chaining.
func (r *ActionResult) WithMetadata(key string, value interface{}) *ActionResult {
	r.Metadata[key] = value
	return r
}

// Payload returns the automod-action event payload for the result.
func (r *ActionResult) Payload(req *Request) map[string]interface{} {
	errText := ""
	if r.Error != nil {
		errText = r.Error.Error()
	}
	payload := map[string]interface{}{
		"success":  r.Success,
		"error":    errText,
		"action":   r.ActionID,
		"reason":   req.Reason,
		"rule":     req.Rule,
		"source":   req.Source,
		"xuid":     req.XUID,
		"gamertag": req.Gamertag,
		"realm_id": req.Realm.ID,
	}
	for k, v := range r.Metadata {
		if _, taken := payload[k]; !taken {
			payload[k] = v
		}
	}
	return payload
}
