package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

const maxProfileBody = 1 << 20

// ProfileClientConfig configures the HTTP profile fetcher.
type ProfileClientConfig struct {
	BaseURL string
	Timeout time.Duration
	// RatePerSecond and Burst limit outbound lookups across all tenants.
	RatePerSecond float64
	Burst         int
	Breaker       BreakerConfig
}

// HTTPProfileFetcher fetches profiles from
// GET {BaseURL}/tenants/{tenant}/profiles/{xuid}.
type HTTPProfileFetcher struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[*Profile]
}

// NewHTTPProfileFetcher creates a fetcher. A zero rate disables limiting.
func NewHTTPProfileFetcher(cfg ProfileClientConfig) *HTTPProfileFetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	return &HTTPProfileFetcher{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(limit, cfg.Burst),
		breaker: newBreaker[*Profile]("profile-api", cfg.Breaker),
	}
}

// FetchProfile implements ProfileFetcher.
func (f *HTTPProfileFetcher) FetchProfile(ctx context.Context, tenant, xuid string) (*Profile, error) {
	if xuid == "" {
		return nil, fmt.Errorf("%w: empty xuid", ErrProfileUnavailable)
	}
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limit: %v", ErrProfileUnavailable, err)
	}

	profile, err := f.breaker.Execute(func() (*Profile, error) {
		return f.fetch(ctx, tenant, xuid)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProfileUnavailable, err)
	}
	return profile, nil
}

func (f *HTTPProfileFetcher) fetch(ctx context.Context, tenant, xuid string) (*Profile, error) {
	endpoint := fmt.Sprintf("%s/tenants/%s/profiles/%s", f.baseURL, url.PathEscape(tenant), url.PathEscape(xuid))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request profile: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProfileBody))
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("profile api returned %d", resp.StatusCode)
	}

	var profile Profile
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	if profile.XUID == "" {
		profile.XUID = xuid
	}
	return &profile, nil
}
