// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package server

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/AccelByte/extend-realm-guard/pkg/metrics"
	"google.golang.org/grpc/health/grpc_health_v1"
)

type fakeCheck struct {
	name string
	err  error
}

func (f *fakeCheck) Name() string                    { return f.name }
func (f *fakeCheck) Check(ctx context.Context) error { return f.err }

func servingStatus(t *testing.T, s *GRPCServer, service string) grpc_health_v1.HealthCheckResponse_ServingStatus {
	t.Helper()
	resp, err := s.health.Check(context.Background(), &grpc_health_v1.HealthCheckRequest{Service: service})
	if err != nil {
		t.Fatalf("health Check(%q) error = %v", service, err)
	}
	return resp.GetStatus()
}

func TestGRPCServer_HealthFollowsChecks(t *testing.T) {
	redis := &fakeCheck{name: "redis"}
	nats := &fakeCheck{name: "nats"}
	s := NewGRPCServer(0, redis, nats)
	if err := s.Setup(); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	s.updateHealth(context.Background())
	if got := servingStatus(t, s, ""); got != grpc_health_v1.HealthCheckResponse_SERVING {
		t.Errorf("overall = %s, want SERVING", got)
	}

	redis.err = errors.New("connection refused")
	s.updateHealth(context.Background())
	if got := servingStatus(t, s, "redis"); got != grpc_health_v1.HealthCheckResponse_NOT_SERVING {
		t.Errorf("redis = %s, want NOT_SERVING", got)
	}
	if got := servingStatus(t, s, "nats"); got != grpc_health_v1.HealthCheckResponse_SERVING {
		t.Errorf("nats = %s, want SERVING", got)
	}
	if got := servingStatus(t, s, ""); got != grpc_health_v1.HealthCheckResponse_NOT_SERVING {
		t.Errorf("overall = %s, want NOT_SERVING", got)
	}
}

func TestMetricsServer_ExposesApplicationMetrics(t *testing.T) {
	m := NewMetricsServer(0, "/metrics")
	if err := m.Setup(); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	metrics.SessionTransitions.WithLabelValues("Connected").Inc()

	rec := httptest.NewRecorder()
	m.server.Handler.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "session_transitions_total") {
		t.Error("application metrics missing from /metrics")
	}
}
