package mock

import (
	"context"
	"sync"

	"github.com/AccelByte/extend-realm-guard/pkg/service"
)

// BanApplier is a mock implementation of service.BanApplier for testing
type BanApplier struct {
	// ApplyBanFunc is called when ApplyBan is invoked
	ApplyBanFunc func(ctx context.Context, tenant string, realm service.Realm, xuid, reason string) error

	DefaultError error

	mu    sync.Mutex
	calls []ApplyBanCall
}

// ApplyBanCall tracks parameters for ApplyBan calls
type ApplyBanCall struct {
	Tenant string
	Realm  service.Realm
	XUID   string
	Reason string
}

// NewBanApplier creates a new mock BanApplier that always succeeds
func NewBanApplier() *BanApplier {
	return &BanApplier{}
}

// ApplyBan implements service.BanApplier
func (m *BanApplier) ApplyBan(ctx context.Context, tenant string, realm service.Realm, xuid, reason string) error {
	m.mu.Lock()
	m.calls = append(m.calls, ApplyBanCall{Tenant: tenant, Realm: realm, XUID: xuid, Reason: reason})
	fn := m.ApplyBanFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, tenant, realm, xuid, reason)
	}
	return m.DefaultError
}

// Calls returns a copy of the recorded calls
func (m *BanApplier) Calls() []ApplyBanCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ApplyBanCall(nil), m.calls...)
}

// CallCount returns the number of ApplyBan calls
func (m *BanApplier) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}
