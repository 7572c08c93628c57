package rule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AccelByte/extend-realm-guard/pkg/metrics"
	"github.com/AccelByte/extend-realm-guard/pkg/settings"
	"github.com/sirupsen/logrus"
)

// Engine evaluates signals against registered rules and returns verdicts.
type Engine struct {
	registry *Registry
}

// NewEngine creates a new rule evaluation engine.
func NewEngine(registry *Registry) *Engine {
	return &Engine{
		registry: registry,
	}
}

// Evaluate runs every enabled rule for the signal type and aggregates the
// flags into one verdict. A rule that fails or panics is logged as a
// malformed event and contributes no flags; the remaining rules still run.
func (e *Engine) Evaluate(ctx context.Context, in *Input) *Verdict {
	if in == nil || in.Signal == nil {
		return NewVerdict(nil)
	}
	if in.Settings == nil {
		in.Settings = settings.Default()
	}
	if in.Windows == nil {
		in.Windows = NewWindows()
	}
	if in.Now.IsZero() {
		in.Now = in.Signal.Timestamp()
	}

	// Get rules that handle this signal type
	rules := e.registry.GetBySignalType(in.Signal.Type())
	if len(rules) == 0 {
		logrus.Debugf("no rules found for signal type '%s'", in.Signal.Type())
		return NewVerdict(nil)
	}

	var flags []Flag
	for _, rule := range rules {
		if !rule.Enabled(in.Settings) {
			continue
		}

		raised, err := e.evaluate(ctx, rule, in)
		if err != nil {
			metrics.DetectorErrors.WithLabelValues(rule.ID()).Inc()
			logrus.WithFields(logrus.Fields{
				"tenant": in.Tenant,
				"player": in.Player(),
				"check":  rule.ID(),
				"signal": in.Signal.Type(),
			}).Warnf("rule evaluation skipped: %v", err)
			// Continue evaluating other rules even if one fails
			continue
		}

		for _, f := range raised {
			if f.Check == "" {
				f.Check = rule.ID()
			}
			metrics.DetectorFlags.WithLabelValues(f.Check, f.Severity.String()).Inc()
			flags = append(flags, f)
		}
	}

	verdict := NewVerdict(flags)
	if verdict.Flagged {
		logrus.Infof("signal %s for %s flagged %s (autoBan=%v): %s",
			in.Signal.Type(), in.Player(), verdict.Severity, verdict.AutoBan, verdict.Reason())
	}
	return verdict
}

// evaluate calls one rule and converts a panic into ErrMalformedEvent.
func (e *Engine) evaluate(ctx context.Context, rule Rule, in *Input) (flags []Flag, err error) {
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			flags = nil
			err = fmt.Errorf("%w: rule panicked: %v", ErrMalformedEvent, p)
		}
		metrics.DetectorDuration.WithLabelValues(rule.ID()).Observe(time.Since(start).Seconds())
	}()

	flags, err = rule.Evaluate(ctx, in)
	if err != nil && !errors.Is(err, ErrMalformedEvent) {
		err = fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	return flags, err
}

// GetRegistry returns the rule registry used by this engine.
func (e *Engine) GetRegistry() *Registry {
	return e.registry
}
