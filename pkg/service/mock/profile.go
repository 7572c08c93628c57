package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/AccelByte/extend-realm-guard/pkg/service"
)

// ProfileFetcher is a mock implementation of service.ProfileFetcher for testing
type ProfileFetcher struct {
	// FetchProfileFunc is called when FetchProfile is invoked
	FetchProfileFunc func(ctx context.Context, tenant, xuid string) (*service.Profile, error)

	// Profiles are returned by xuid when FetchProfileFunc is nil
	Profiles     map[string]*service.Profile
	DefaultError error

	mu    sync.Mutex
	calls []FetchProfileCall
}

// FetchProfileCall tracks parameters for FetchProfile calls
type FetchProfileCall struct {
	Tenant string
	XUID   string
}

// NewProfileFetcher creates a new mock ProfileFetcher with no profiles
func NewProfileFetcher() *ProfileFetcher {
	return &ProfileFetcher{
		Profiles: make(map[string]*service.Profile),
	}
}

// FetchProfile implements service.ProfileFetcher
func (m *ProfileFetcher) FetchProfile(ctx context.Context, tenant, xuid string) (*service.Profile, error) {
	m.mu.Lock()
	m.calls = append(m.calls, FetchProfileCall{Tenant: tenant, XUID: xuid})
	fn := m.FetchProfileFunc
	profile, ok := m.Profiles[xuid]
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, tenant, xuid)
	}
	if m.DefaultError != nil {
		return nil, m.DefaultError
	}
	if !ok {
		return nil, fmt.Errorf("%w: no profile for %s", service.ErrProfileUnavailable, xuid)
	}
	return profile, nil
}

// Calls returns a copy of the recorded calls
func (m *ProfileFetcher) Calls() []FetchProfileCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]FetchProfileCall(nil), m.calls...)
}
