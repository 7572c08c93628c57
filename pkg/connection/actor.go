package connection

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/AccelByte/extend-realm-guard/pkg/action"
	"github.com/AccelByte/extend-realm-guard/pkg/event"
	"github.com/AccelByte/extend-realm-guard/pkg/metrics"
	"github.com/AccelByte/extend-realm-guard/pkg/pipeline"
	"github.com/AccelByte/extend-realm-guard/pkg/service"
	"github.com/AccelByte/extend-realm-guard/pkg/signal"
	"github.com/AccelByte/extend-realm-guard/pkg/state"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

// session is one connection lifetime of a tenant. Fields below inbox are
// owned by the run goroutine.
type session struct {
	m         *Manager
	id        uuid.UUID
	tenant    string
	realm     service.Realm
	creds     Credentials
	createdAt time.Time

	inbox chan interface{}
	done  chan struct{}
	// saved is closed once the teardown history save has finished.
	saved chan struct{}
	final atomic.Pointer[SessionSnapshot]

	status            Status
	classification    Classification
	closeReason       string
	connectedAt       time.Time
	endedAt           time.Time
	lastJoined        *state.PlayerSession
	incidentTriggered bool
	pipe              *pipeline.Tenant
	reassert          clockwork.Ticker
}

func (s *session) live() bool {
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}

func (s *session) log() *logrus.Entry {
	return logrus.WithFields(logrus.Fields{
		"tenant":  s.tenant,
		"session": s.id,
	})
}

// run drains the inbox until the session is torn down.
func (s *session) run() {
	defer s.m.actors.Done()

	for {
		var tick <-chan time.Time
		if s.reassert != nil {
			tick = s.reassert.Chan()
		}

		select {
		case req := <-s.inbox:
			if s.handle(req) {
				return
			}
		case <-tick:
			s.assertMode()
		}
	}
}

// handle processes one request and reports whether the session ended.
func (s *session) handle(req interface{}) bool {
	switch r := req.(type) {
	case eventRequest:
		return s.handleEvent(r.sig)

	case profileResult:
		s.handleProfile(r)

	case sweepRequest:
		s.sweep()

	case snapshotRequest:
		r.reply <- s.buildSnapshot()

	case terminateRequest:
		s.teardown(r.kind, r.reason)
		close(r.reply)
		return true
	}
	return false
}

func (s *session) handleEvent(sig signal.Signal) bool {
	if sig == nil {
		return false
	}
	if conn, ok := sig.(*signal.ConnectionSignal); ok {
		return s.handleConnection(conn)
	}

	outcome := s.m.deps.Pipeline.Process(s.m.base, s.pipe, sig)
	if outcome.Joined != nil {
		joined := *outcome.Joined
		s.lastJoined = &joined
		s.lookupProfile(joined.XUID)
	}
	return false
}

func (s *session) handleConnection(sig *signal.ConnectionSignal) bool {
	switch sig.Kind {
	case signal.ConnectionSpawn:
		s.spawn()
		return false
	case signal.ConnectionClose:
		s.teardown(KindClose, sig.Reason)
	case signal.ConnectionError:
		s.teardown(KindError, sig.Reason)
	case signal.ConnectionKick:
		s.teardown(KindKick, sig.Reason)
	default:
		s.log().Warnf("ignoring connection signal of kind %q", sig.Kind)
		return false
	}
	return true
}

// spawn moves Connecting to Connected and starts the mode re-assertion.
func (s *session) spawn() {
	if s.status != StatusConnecting {
		s.log().Debugf("spawn ignored in status %s", s.status)
		return
	}
	s.status = StatusConnected
	s.connectedAt = s.m.deps.Clock.Now()
	metrics.SessionTransitions.WithLabelValues(string(StatusConnected)).Inc()

	s.m.deps.Emitter.Emit(event.NameConnected, s.tenant, map[string]interface{}{
		"sessionId": s.id.String(),
		"realmId":   s.realm.ID,
		"realmName": s.realm.Name,
	})
	s.log().Info("tenant session connected")

	s.reassert = s.m.deps.Clock.NewTicker(s.m.cfg.ReassertInterval)
	s.assertMode()
}

// assertMode sends the tenant's mode command without blocking the session.
func (s *session) assertMode() {
	command := s.m.deps.Settings.Get(s.tenant).Session.ModeCommand
	if command == "" {
		return
	}
	tenant := s.tenant
	commands := s.m.deps.Commands
	s.m.goBackground(func(ctx context.Context) {
		if err := commands.SendCommand(ctx, tenant, command); err != nil {
			logrus.Warnf("failed to re-assert mode for tenant %s: %v", tenant, err)
		}
	})
}

// lookupProfile fetches the remote profile and posts the result back.
func (s *session) lookupProfile(xuid string) {
	if s.m.deps.Profiles == nil || xuid == "" {
		return
	}
	if !s.m.deps.Settings.Get(s.tenant).Checks.NewAccount.Enabled {
		return
	}

	profiles := s.m.deps.Profiles
	tenant := s.tenant
	inbox := s.inbox
	done := s.done
	s.m.goBackground(func(ctx context.Context) {
		profile, err := profiles.FetchProfile(ctx, tenant, xuid)
		select {
		case inbox <- profileResult{xuid: xuid, profile: profile, err: err}:
		case <-done:
		}
	})
}

func (s *session) handleProfile(r profileResult) {
	if r.err != nil || r.profile == nil {
		metrics.ProfileLookups.WithLabelValues("unavailable").Inc()
		s.log().Debugf("profile for %s unavailable, not evaluated: %v", r.xuid, r.err)
		return
	}
	metrics.ProfileLookups.WithLabelValues("ok").Inc()

	if !s.pipe.Tracker.IsOnline(r.xuid) {
		return
	}
	sig := signal.NewProfileSignal(s.m.deps.Clock.Now(), r.xuid, r.profile.Gamerscore, r.profile.Followers, r.profile.Tier)
	s.m.deps.Pipeline.Process(s.m.base, s.pipe, sig)
}

func (s *session) sweep() {
	now := s.m.deps.Clock.Now()
	windows := s.pipe.Windows.Sweep(now, s.m.cfg.SweepMaxAge)
	history := s.pipe.Tracker.Prune(s.m.cfg.HistoryMaxAge)
	enforced := s.pipe.ForgetOffline()

	metrics.SweepRemoved.WithLabelValues("window").Add(float64(windows))
	metrics.SweepRemoved.WithLabelValues("history").Add(float64(history))
	metrics.SweepRemoved.WithLabelValues("enforced").Add(float64(enforced))

	if windows+history+enforced > 0 {
		s.log().Debugf("sweep removed %d window keys, %d history records, %d enforced entries", windows, history, enforced)
	}
}

// teardown classifies the end of the session and releases its resources.
func (s *session) teardown(kind TerminalKind, reason string) {
	if s.reassert != nil {
		s.reassert.Stop()
		s.reassert = nil
	}

	tenantSettings := s.m.deps.Settings.Get(s.tenant)
	decision := Classify(s.status, kind, reason, tenantSettings.CrashAttribution.TreatUnexpectedCloseAsCrash)
	previous := s.status
	s.status = decision.Status
	s.classification = decision.Classification
	s.closeReason = reason
	s.endedAt = s.m.deps.Clock.Now()

	s.log().WithFields(logrus.Fields{
		"from":           previous,
		"kind":           kind,
		"classification": decision.Classification,
	}).Infof("tenant session ended: %s", reason)

	payload := map[string]interface{}{
		"sessionId":      s.id.String(),
		"realmId":        s.realm.ID,
		"status":         string(decision.Status),
		"classification": string(decision.Classification),
		"kind":           string(kind),
		"reason":         reason,
	}
	if s.lastJoined != nil {
		payload["lastPlayerXuid"] = s.lastJoined.XUID
		payload["lastPlayerGamertag"] = s.lastJoined.Gamertag
	}
	s.m.deps.Emitter.Emit(terminalEvent(decision.Status), s.tenant, payload)

	if decision.Classification == RealmCrashed {
		s.attributeCrash(kind)
	}

	s.saveHistory()

	metrics.SessionTransitions.WithLabelValues(string(decision.Status)).Inc()
	metrics.LiveSessions.Dec()

	s.final.Store(s.buildSnapshot())
	close(s.done)
}

// attributeCrash bans the last joiner at most once per connection lifetime.
func (s *session) attributeCrash(kind TerminalKind) {
	if !s.m.deps.Settings.Get(s.tenant).CrashAttribution.Enabled {
		s.log().Info("crash attribution disabled, not banning")
		return
	}
	if s.incidentTriggered {
		return
	}
	s.incidentTriggered = true

	req := &action.Request{
		Tenant: s.tenant,
		Realm:  s.realm,
		Reason: fmt.Sprintf("%s: crash-attributed ban", kind),
		Rule:   string(kind),
		Source: action.SourceCrashAttribution,
	}
	if s.lastJoined != nil {
		req.XUID = s.lastJoined.XUID
		req.Gamertag = s.lastJoined.Gamertag
	}
	// An empty target is reported as a failed outcome by the executor.
	s.log().Warnf("realm crashed, attributing to last joiner %q", req.XUID)
	s.m.deps.Enforcer.Submit(s.m.base, s.m.cfg.CrashAction, req)
}

func (s *session) saveHistory() {
	if s.m.deps.History == nil {
		close(s.saved)
		return
	}
	records := s.pipe.Tracker.Snapshot()
	history := s.m.deps.History
	tenant := s.tenant
	saved := s.saved
	s.m.goBackground(func(ctx context.Context) {
		defer close(saved)
		if err := history.SaveHistory(ctx, tenant, records); err != nil {
			logrus.Errorf("failed to save history for tenant %s: %v", tenant, err)
		}
	})
}

func (s *session) buildSnapshot() *SessionSnapshot {
	snap := &SessionSnapshot{
		ID:                s.id,
		Tenant:            s.tenant,
		Realm:             s.realm,
		Status:            s.status,
		Classification:    s.classification,
		CloseReason:       s.closeReason,
		CreatedAt:         s.createdAt,
		ConnectedAt:       s.connectedAt,
		EndedAt:           s.endedAt,
		OnlinePlayers:     s.pipe.Tracker.Online(),
		IncidentTriggered: s.incidentTriggered,
		HistorySize:       s.pipe.Tracker.HistoryLen(),
	}
	if s.lastJoined != nil {
		joined := *s.lastJoined
		snap.LastPlayerJoined = &joined
	}
	return snap
}

// snapshot returns the live view through the inbox, or the final snapshot.
func (s *session) snapshot() *SessionSnapshot {
	reply := make(chan *SessionSnapshot, 1)
	select {
	case s.inbox <- snapshotRequest{reply: reply}:
	case <-s.done:
		return s.final.Load()
	}
	select {
	case snap := <-reply:
		return snap
	case <-s.done:
		return s.final.Load()
	}
}

// terminate asks the goroutine to tear down and waits for it. It returns
// false when the session ended before the request was accepted.
func (s *session) terminate(ctx context.Context, kind TerminalKind, reason string) bool {
	reply := make(chan struct{})
	select {
	case s.inbox <- terminateRequest{kind: kind, reason: reason, reply: reply}:
	case <-s.done:
		return false
	case <-ctx.Done():
		return false
	}
	select {
	case <-reply:
		return true
	case <-s.done:
		// Another terminal signal queued ahead of the request ended the session.
		select {
		case <-reply:
			return true
		default:
			return false
		}
	case <-ctx.Done():
		return false
	}
}

func terminalEvent(status Status) string {
	switch status {
	case StatusRealmCrashed:
		return event.NameRealmCrashed
	case StatusRealmClosed:
		return event.NameRealmClosed
	case StatusKicked:
		return event.NameKicked
	case StatusError:
		return event.NameError
	}
	return event.NameDisconnected
}
