package pipeline

import (
	"context"
	"strings"

	"github.com/AccelByte/extend-realm-guard/pkg/action"
	"github.com/AccelByte/extend-realm-guard/pkg/event"
	"github.com/AccelByte/extend-realm-guard/pkg/metrics"
	"github.com/AccelByte/extend-realm-guard/pkg/rule"
	"github.com/AccelByte/extend-realm-guard/pkg/settings"
	"github.com/AccelByte/extend-realm-guard/pkg/signal"
	"github.com/sirupsen/logrus"
)

// Enforcer submits enforcement without waiting for its outcome.
type Enforcer interface {
	Submit(ctx context.Context, actionID string, req *action.Request)
}

// Manager orchestrates the per-event flow for one tenant:
// Signal → Tracker → Rules → Enforcement
type Manager struct {
	engine   *rule.Engine
	enforcer Enforcer
	emitter  event.Emitter
	settings settings.Provider
}

// NewManager creates a new pipeline manager with all required components.
func NewManager(engine *rule.Engine, enforcer Enforcer, emitter event.Emitter, provider settings.Provider) *Manager {
	if emitter == nil {
		emitter = event.Discard{}
	}
	if provider == nil {
		provider = settings.Static{}
	}
	return &Manager{
		engine:   engine,
		enforcer: enforcer,
		emitter:  emitter,
		settings: provider,
	}
}

// Process runs one decoded signal through player tracking and detection.
// It never blocks on enforcement and never fails; malformed input degrades
// to no verdict.
func (m *Manager) Process(ctx context.Context, t *Tenant, sig signal.Signal) *Outcome {
	outcome := &Outcome{}
	if sig == nil {
		return outcome
	}
	metrics.EventsProcessed.WithLabelValues(sig.Type()).Inc()

	s := m.settings.Get(t.ID)
	playerCtx := m.track(t, sig, outcome)
	if playerCtx == nil {
		return outcome
	}
	sig.SetContext(playerCtx)

	if playerCtx.XUID != "" && playerCtx.XUID == t.BotXUID {
		return outcome
	}
	if s.IsExempt(playerCtx.XUID) {
		logrus.Debugf("skipping detection for exempt player %s on %s", playerCtx.XUID, t.ID)
		return outcome
	}

	verdict := m.engine.Evaluate(ctx, &rule.Input{
		Tenant:   t.ID,
		Settings: s,
		Signal:   sig,
		Windows:  t.Windows,
		Now:      sig.Timestamp(),
	})
	outcome.Verdict = verdict
	if !verdict.Flagged {
		return outcome
	}

	m.emitter.Emit(event.NameAutomodFlag, t.ID, map[string]interface{}{
		"xuid":     playerCtx.XUID,
		"gamertag": playerCtx.Gamertag,
		"signal":   sig.Type(),
		"severity": verdict.Severity.String(),
		"autoBan":  verdict.AutoBan,
		"flags":    verdict.Flags,
		"reason":   verdict.Reason(),
	})

	if verdict.AutoBan {
		outcome.Enforced = m.enforce(ctx, t, s, playerCtx, verdict)
	}
	return outcome
}

// track applies the signal to the tenant tracker, emits the matching
// outbound event, and returns the subject's player context. It returns nil
// for signals that are not evaluated.
func (m *Manager) track(t *Tenant, sig signal.Signal, outcome *Outcome) *signal.PlayerContext {
	switch s := sig.(type) {
	case *signal.JoinSignal:
		if s.Facts.XUID == t.BotXUID {
			return nil
		}
		session := t.Tracker.OnJoin(s.Facts)
		outcome.Joined = session
		m.emitter.Emit(event.NameJoin, t.ID, map[string]interface{}{
			"xuid":        session.XUID,
			"gamertag":    session.Gamertag,
			"device":      session.DeviceClass,
			"isFirstJoin": session.IsFirstJoin,
		})

	case *signal.LeaveSignal:
		summary, ok := t.Tracker.OnLeave(s.XUID())
		if !ok {
			logrus.Debugf("leave for unknown player %s on %s", s.XUID(), t.ID)
			return nil
		}
		outcome.Left = summary
		t.Windows.RemovePlayer(summary.XUID)
		if key := signal.NameKey(summary.Gamertag); key != "" {
			t.Windows.RemovePlayer(key)
		}
		m.emitter.Emit(event.NameLeave, t.ID, map[string]interface{}{
			"xuid":            summary.XUID,
			"gamertag":        summary.Gamertag,
			"durationSeconds": int64(summary.Duration.Seconds()),
			"messages":        summary.Messages,
			"deaths":          summary.Deaths,
		})
		return nil

	case *signal.ChatSignal:
		t.Tracker.RecordMessage(s.SenderName)
		m.emitter.Emit(event.NameChat, t.ID, map[string]interface{}{
			"sender": s.SenderName,
			"xuid":   m.resolve(t, s.XUID(), s.SenderName),
			"text":   s.Text,
		})
		return m.playerContext(t, s.XUID(), s.SenderName)

	case *signal.CommandSignal:
		return m.playerContext(t, s.XUID(), s.SenderName)

	case *signal.DeathSignal:
		t.Tracker.RecordDeath(s.PlayerName)
		m.emitter.Emit(event.NameDeath, t.ID, map[string]interface{}{
			"player": s.PlayerName,
			"cause":  s.Cause,
		})
		return nil

	case *signal.ConnectionSignal:
		// Connection state changes belong to the session lifecycle.
		return nil
	}

	return m.playerContext(t, sig.XUID(), "")
}

// resolve returns the xuid for a signal that may carry only a display name.
func (m *Manager) resolve(t *Tenant, xuid, name string) string {
	if xuid != "" {
		return xuid
	}
	if name == "" {
		return ""
	}
	resolved, _ := t.Tracker.XUIDByName(name)
	return resolved
}

func (m *Manager) playerContext(t *Tenant, xuid, name string) *signal.PlayerContext {
	xuid = m.resolve(t, xuid, name)
	pc := &signal.PlayerContext{
		Tenant:   t.ID,
		XUID:     xuid,
		Gamertag: name,
		Key:      xuid,
	}
	if pc.Key == "" {
		pc.Key = signal.NameKey(name)
	}
	if pc.Key == "" {
		return pc
	}
	if session, ok := t.Tracker.Session(xuid); ok {
		pc.Gamertag = session.Gamertag
		pc.DeviceClass = session.DeviceClass
		pc.Online = true
		pc.IsFirstJoin = session.IsFirstJoin
		pc.JoinedAt = session.JoinedAt
	}
	return pc
}

// enforce submits one enforcement per xuid per connection lifetime.
func (m *Manager) enforce(ctx context.Context, t *Tenant, s *settings.TenantSettings, pc *signal.PlayerContext, verdict *rule.Verdict) bool {
	log := logrus.WithFields(logrus.Fields{
		"tenant": t.ID,
		"xuid":   pc.XUID,
		"checks": strings.Join(verdict.Checks(), ","),
	})

	if !s.Automod.Enabled {
		log.Info("automod disabled, not enforcing verdict")
		return false
	}
	if pc.XUID == "" {
		log.Warnf("cannot enforce against unresolved player %q", pc.Key)
		return false
	}
	if !t.MarkEnforced(pc.XUID) {
		log.Debug("player already enforced against in this session")
		return false
	}

	log.Infof("submitting %s for %s verdict", s.Automod.Action, verdict.Severity)
	m.enforcer.Submit(ctx, s.Automod.Action, &action.Request{
		Tenant:   t.ID,
		Realm:    t.Realm,
		XUID:     pc.XUID,
		Gamertag: pc.Gamertag,
		Reason:   verdict.Reason(),
		Rule:     strings.Join(verdict.Checks(), ","),
		Source:   action.SourceDetector,
	})
	return true
}
