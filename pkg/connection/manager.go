package connection

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/AccelByte/extend-realm-guard/pkg/event"
	"github.com/AccelByte/extend-realm-guard/pkg/metrics"
	"github.com/AccelByte/extend-realm-guard/pkg/pipeline"
	"github.com/AccelByte/extend-realm-guard/pkg/service"
	"github.com/AccelByte/extend-realm-guard/pkg/settings"
	"github.com/AccelByte/extend-realm-guard/pkg/signal"
	"github.com/AccelByte/extend-realm-guard/pkg/state"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

const (
	DefaultReassertInterval = 30 * time.Second
	DefaultSweepInterval    = 5 * time.Minute
	DefaultSweepMaxAge      = 30 * time.Minute
	DefaultInboxSize        = 256
	DefaultIOTimeout        = 5 * time.Second
	DefaultCrashAction      = "ban"
)

// Config tunes the lifecycle manager. Zero values use the defaults.
type Config struct {
	ReassertInterval time.Duration
	SweepInterval    time.Duration
	SweepMaxAge      time.Duration
	// HistoryMaxAge drops offline history older than this on sweep.
	// Zero keeps history until it is evicted by the cap.
	HistoryMaxAge     time.Duration
	MaxHistoryEntries int
	InboxSize         int
	// IOTimeout bounds profile lookups, mode commands and history writes.
	IOTimeout time.Duration
	// CrashAction is the action applied by crash attribution.
	CrashAction string
}

func (c Config) withDefaults() Config {
	if c.ReassertInterval <= 0 {
		c.ReassertInterval = DefaultReassertInterval
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = DefaultSweepInterval
	}
	if c.SweepMaxAge <= 0 {
		c.SweepMaxAge = DefaultSweepMaxAge
	}
	if c.MaxHistoryEntries <= 0 {
		c.MaxHistoryEntries = state.DefaultMaxHistoryEntries
	}
	if c.InboxSize <= 0 {
		c.InboxSize = DefaultInboxSize
	}
	if c.IOTimeout <= 0 {
		c.IOTimeout = DefaultIOTimeout
	}
	if c.CrashAction == "" {
		c.CrashAction = DefaultCrashAction
	}
	return c
}

// Dependencies are the collaborators shared by every tenant session.
// Profiles and History are optional.
type Dependencies struct {
	Pipeline *pipeline.Manager
	Enforcer pipeline.Enforcer
	Emitter  event.Emitter
	Settings settings.Provider
	Commands service.CommandSender
	Profiles service.ProfileFetcher
	History  state.HistoryStore
	Clock    clockwork.Clock
}

// Manager owns one session goroutine per tenant. The tenant map is the only
// state shared between goroutines and is guarded by mu.
type Manager struct {
	cfg  Config
	deps Dependencies

	// base outlives callers' contexts; it is cancelled when Shutdown completes.
	base   context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	sessions map[string]*session
	closed   bool

	actors     sync.WaitGroup
	background sync.WaitGroup
}

// NewManager creates a lifecycle manager.
func NewManager(cfg Config, deps Dependencies) *Manager {
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	if deps.Emitter == nil {
		deps.Emitter = event.Discard{}
	}
	if deps.Settings == nil {
		deps.Settings = settings.Static{}
	}
	if deps.Commands == nil {
		deps.Commands = service.LogCommandSender{}
	}

	base, cancel := context.WithCancel(context.Background())
	return &Manager{
		cfg:      cfg.withDefaults(),
		deps:     deps,
		base:     base,
		cancel:   cancel,
		sessions: make(map[string]*session),
	}
}

// Connect starts a new session for tenant. It fails with ErrAlreadyConnected
// while a live session exists; a terminated session is replaced.
func (m *Manager) Connect(ctx context.Context, tenant string, realm service.Realm, creds Credentials) (*SessionHandle, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrManagerClosed
	}
	previous, ok := m.sessions[tenant]
	if ok && previous.live() {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrAlreadyConnected, tenant)
	}
	s := m.newSession(tenant, realm, creds)
	m.sessions[tenant] = s
	m.actors.Add(1)
	m.mu.Unlock()

	// The tracker is not shared until the goroutine starts.
	if previous != nil {
		m.awaitSave(ctx, previous)
	}
	m.restoreHistory(ctx, s)

	metrics.LiveSessions.Inc()
	metrics.SessionTransitions.WithLabelValues(string(StatusConnecting)).Inc()
	logrus.WithFields(logrus.Fields{
		"tenant":  tenant,
		"session": s.id,
		"realm":   realm.ID,
	}).Info("tenant session connecting")

	go s.run()

	return &SessionHandle{
		ID:        s.id,
		Tenant:    tenant,
		Realm:     realm,
		CreatedAt: s.createdAt,
		done:      s.done,
	}, nil
}

// Disconnect tears down the tenant's live session as a normal close.
// It returns false when there was no live session.
func (m *Manager) Disconnect(ctx context.Context, tenant string) bool {
	s := m.live(tenant)
	if s == nil {
		return false
	}
	return s.terminate(ctx, KindDisconnect, "disconnect requested")
}

// Status returns a snapshot of the tenant's session, live or final.
// It returns nil when the tenant never connected.
func (m *Manager) Status(tenant string) *SessionSnapshot {
	m.mu.Lock()
	s, ok := m.sessions[tenant]
	m.mu.Unlock()
	if !ok {
		return nil
	}
	return s.snapshot()
}

// Dispatch enqueues one decoded event on the tenant's ordered queue.
func (m *Manager) Dispatch(ctx context.Context, tenant string, sig signal.Signal) error {
	s := m.live(tenant)
	if s == nil {
		return fmt.Errorf("%w: %s", ErrNoSession, tenant)
	}
	req := eventRequest{sig: sig}
	select {
	case s.inbox <- req:
		return nil
	default:
	}
	select {
	case s.inbox <- req:
		return nil
	case <-s.done:
		return fmt.Errorf("%w: %s", ErrNoSession, tenant)
	case <-ctx.Done():
		return fmt.Errorf("%w: %s: %w", ErrInboxFull, tenant, ctx.Err())
	}
}

// Tenants returns the tenants with a live session, sorted.
func (m *Manager) Tenants() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	tenants := make([]string, 0, len(m.sessions))
	for id, s := range m.sessions {
		if s.live() {
			tenants = append(tenants, id)
		}
	}
	sort.Strings(tenants)
	return tenants
}

// Sweep asks every live session to prune expired state. A session whose
// inbox is full skips this round.
func (m *Manager) Sweep() int {
	m.mu.Lock()
	live := make([]*session, 0, len(m.sessions))
	for _, s := range m.sessions {
		if s.live() {
			live = append(live, s)
		}
	}
	m.mu.Unlock()

	posted := 0
	for _, s := range live {
		select {
		case s.inbox <- sweepRequest{}:
			posted++
		case <-s.done:
		default:
			logrus.Warnf("skipping sweep for tenant %s: inbox full", s.tenant)
		}
	}
	return posted
}

// Serve runs the periodic sweep until ctx is cancelled.
func (m *Manager) Serve(ctx context.Context) error {
	ticker := m.deps.Clock.NewTicker(m.cfg.SweepInterval)
	defer ticker.Stop()

	logrus.Infof("session sweep running every %v (max age %v)", m.cfg.SweepInterval, m.cfg.SweepMaxAge)
	for {
		select {
		case <-ticker.Chan():
			m.Sweep()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// String implements fmt.Stringer for the supervisor.
func (m *Manager) String() string {
	return "connection-manager"
}

// Shutdown tears down every live session and waits for background work.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	m.closed = true
	live := make([]*session, 0, len(m.sessions))
	for _, s := range m.sessions {
		if s.live() {
			live = append(live, s)
		}
	}
	m.mu.Unlock()

	for _, s := range live {
		s.terminate(ctx, KindDisconnect, "shutdown")
	}

	done := make(chan struct{})
	go func() {
		m.actors.Wait()
		m.background.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.cancel()
		logrus.Infof("connection manager stopped (%d sessions torn down)", len(live))
		return nil
	case <-ctx.Done():
		m.cancel()
		return fmt.Errorf("connection manager shutdown: %w", ctx.Err())
	}
}

// live returns the tenant's live session or nil.
func (m *Manager) live(tenant string) *session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[tenant]
	if !ok || !s.live() {
		return nil
	}
	return s
}

func (m *Manager) newSession(tenant string, realm service.Realm, creds Credentials) *session {
	now := m.deps.Clock.Now()
	return &session{
		m:         m,
		id:        uuid.New(),
		tenant:    tenant,
		realm:     realm,
		creds:     creds,
		createdAt: now,
		inbox:     make(chan interface{}, m.cfg.InboxSize),
		done:      make(chan struct{}),
		saved:     make(chan struct{}),
		status:    StatusConnecting,
		pipe:      pipeline.NewTenant(tenant, realm, creds.BotXUID, m.deps.Clock, m.cfg.MaxHistoryEntries),
	}
}

// awaitSave waits for the previous lifetime's history save so the new
// session loads what it wrote.
func (m *Manager) awaitSave(ctx context.Context, previous *session) {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.IOTimeout)
	defer cancel()

	select {
	case <-previous.saved:
	case <-ctx.Done():
		logrus.Warnf("history save for tenant %s still pending, loading anyway: %v", previous.tenant, ctx.Err())
	}
}

func (m *Manager) restoreHistory(ctx context.Context, s *session) {
	if m.deps.History == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, m.cfg.IOTimeout)
	defer cancel()

	records, err := m.deps.History.LoadHistory(ctx, s.tenant)
	if err != nil {
		logrus.Warnf("failed to load history for tenant %s, starting empty: %v", s.tenant, err)
		return
	}
	restored := s.pipe.Tracker.Restore(records)
	logrus.Debugf("restored %d history records for tenant %s", restored, s.tenant)
}

// goBackground runs fn on a tracked goroutine with a bounded context.
func (m *Manager) goBackground(fn func(ctx context.Context)) {
	m.background.Add(1)
	go func() {
		defer m.background.Done()
		ctx, cancel := context.WithTimeout(m.base, m.cfg.IOTimeout)
		defer cancel()
		fn(ctx)
	}()
}
