// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package server

import (
	"context"
	"fmt"

	"github.com/AccelByte/extend-realm-guard/pkg/common"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/propagators/b3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// Propagator carries trace context on the gRPC surface and on the spans
// started around ingest. B3 comes first for the Zipkin collector, then W3C
// trace context and baggage.
func Propagator() propagation.TextMapPropagator {
	return propagation.NewCompositeTextMapPropagator(
		b3.New(),
		propagation.TraceContext{},
		propagation.Baggage{},
	)
}

// SetupTelemetry installs the Zipkin tracer provider and the propagator
// globally. The returned function flushes pending spans.
func SetupTelemetry(ctx context.Context, serviceName, environment string, instance int) (func(context.Context) error, error) {
	provider, err := common.NewTracerProvider(serviceName, environment, int64(instance))
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer provider: %w", err)
	}

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(Propagator())
	logrus.Infof("tracing enabled for %s (environment %s, instance %d)", serviceName, environment, instance)

	return func(ctx context.Context) error {
		if err := provider.Shutdown(ctx); err != nil {
			return fmt.Errorf("flush spans: %w", err)
		}
		logrus.Info("tracing stopped")
		return nil
	}, nil
}
