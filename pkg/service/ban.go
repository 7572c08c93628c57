package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
)

// BanClientConfig configures the HTTP ban applier.
type BanClientConfig struct {
	BaseURL string
	Timeout time.Duration
	Breaker BreakerConfig
}

// HTTPBanApplier posts bans to POST {BaseURL}/tenants/{tenant}/bans.
type HTTPBanApplier struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[struct{}]
}

// NewHTTPBanApplier creates a ban applier.
func NewHTTPBanApplier(cfg BanClientConfig) *HTTPBanApplier {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &HTTPBanApplier{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: cfg.Timeout},
		breaker: newBreaker[struct{}]("ban-api", cfg.Breaker),
	}
}

// ApplyBan implements BanApplier.
func (b *HTTPBanApplier) ApplyBan(ctx context.Context, tenant string, realm Realm, xuid, reason string) error {
	_, err := b.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, b.post(ctx, tenant, banRequest{
			RealmID:   realm.ID,
			RealmName: realm.Name,
			XUID:      xuid,
			Reason:    reason,
		})
	})
	if err != nil {
		return fmt.Errorf("apply ban to %s in %s: %w", xuid, tenant, err)
	}
	return nil
}

func (b *HTTPBanApplier) post(ctx context.Context, tenant string, body banRequest) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode ban: %w", err)
	}

	endpoint := fmt.Sprintf("%s/tenants/%s/bans", b.baseURL, url.PathEscape(tenant))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("request ban: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: ban api returned %d", ErrBanRejected, resp.StatusCode)
	}
	return nil
}
