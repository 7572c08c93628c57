package action

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/AccelByte/extend-realm-guard/pkg/event"
	"github.com/AccelByte/extend-realm-guard/pkg/metrics"
	"github.com/sirupsen/logrus"
)

// DefaultTimeout bounds one enforcement call.
const DefaultTimeout = 10 * time.Second

// Executor applies registered actions. Every Apply calls the capability at
// most once and always emits an automod-action event describing the outcome.
type Executor struct {
	registry *Registry
	emitter  event.Emitter
	timeout  time.Duration

	wg sync.WaitGroup
}

// NewExecutor creates a new action executor.
func NewExecutor(registry *Registry, emitter event.Emitter, timeout time.Duration) *Executor {
	if emitter == nil {
		emitter = event.Discard{}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Executor{
		registry: registry,
		emitter:  emitter,
		timeout:  timeout,
	}
}

// Apply runs actionID against req once. Failures are reported in the result
// and the emitted event, never returned.
func (e *Executor) Apply(ctx context.Context, actionID string, req *Request) *ActionResult {
	result := e.apply(ctx, actionID, req)

	outcome := "success"
	if !result.Success {
		outcome = "failure"
	}
	metrics.EnforcementOutcomes.WithLabelValues(actionID, outcome).Inc()
	e.emitter.Emit(event.NameAutomodAction, req.Tenant, result.Payload(req))

	return result
}

func (e *Executor) apply(ctx context.Context, actionID string, req *Request) (result *ActionResult) {
	if req.XUID == "" {
		return NewActionError(actionID, fmt.Errorf("%w: %w", ErrEnforcementFailed, ErrMissingTarget))
	}

	action, err := e.registry.Resolve(actionID)
	if err != nil {
		logrus.Warnf("cannot apply action %s for %s: %v", actionID, req.XUID, err)
		return NewActionError(actionID, fmt.Errorf("%w: %w", ErrEnforcementFailed, err))
	}

	defer func() {
		if r := recover(); r != nil {
			logrus.Errorf("action %s panicked for %s: %v", actionID, req.XUID, r)
			result = NewActionError(actionID, fmt.Errorf("%w: panic: %v", ErrEnforcementFailed, r))
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	logrus.Infof("executing action %s for %s on %s (rule: %s)", actionID, req.XUID, req.Tenant, req.Rule)

	if err := action.Execute(ctx, req); err != nil {
		if !errors.Is(err, ErrEnforcementFailed) {
			err = fmt.Errorf("%w: %w", ErrEnforcementFailed, err)
		}
		logrus.Errorf("action %s failed for %s: %v", actionID, req.XUID, err)
		return NewActionError(actionID, err)
	}

	logrus.Infof("action %s completed successfully for %s", actionID, req.XUID)
	return NewActionResult(actionID)
}

// Submit applies actionID in the background. The call outlives ctx
// cancellation but still carries its values.
func (e *Executor) Submit(ctx context.Context, actionID string, req *Request) {
	detached := context.WithoutCancel(ctx)
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.Apply(detached, actionID, req)
	}()
}

// Wait blocks until all submitted applications finish.
func (e *Executor) Wait() {
	e.wg.Wait()
}

// Shutdown waits for submitted applications or for ctx to end.
func (e *Executor) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// GetRegistry returns the action registry used by this executor.
func (e *Executor) GetRegistry() *Registry {
	return e.registry
}
