// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package server

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/propagators/b3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/specbot/kickbot/pkg/common"
)

// SetupTelemetry initializes OpenTelemetry tracer and propagators.
// Returns a shutdown function that should be called on application shutdown.
//
// ============================================================
// DEVELOPER: OpenTelemetry configuration
// ============================================================
// Every spectator cycle and every kick opens a span (see
// pkg/common/scope.go). Spans are exported to Zipkin when
// ZIPKIN_URL is set, e.g. http://localhost:9411/api/v2/spans.
//
// Trace context is propagated on outgoing gateway and webhook
// requests using B3 and W3C TraceContext/Baggage.
// ============================================================
func SetupTelemetry(ctx context.Context, serviceName, environment string, id int, zipkinURL string) (func(context.Context) error, error) {
	// ============================================================
	// Create tracer provider with service metadata
	// ============================================================
	tracerProvider, err := common.NewTracerProvider(serviceName, environment, int64(id), zipkinURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer provider: %w", err)
	}

	otel.SetTracerProvider(tracerProvider)
	logrus.Infof("set tracer provider: (name: %s environment: %s id: %d)", serviceName, environment, id)

	// ============================================================
	// Configure trace context propagation
	// ============================================================
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			b3.New(),                   // Zipkin B3 propagation
			propagation.TraceContext{}, // W3C Trace Context
			propagation.Baggage{},      // W3C Baggage
		),
	)
	logrus.Infof("set text map propagator")

	// Return cleanup function
	shutdown := func(ctx context.Context) error {
		logrus.Info("shutting down telemetry...")
		if err := tracerProvider.Shutdown(ctx); err != nil {
			return err
		}
		logrus.Info("telemetry stopped")
		return nil
	}

	return shutdown, nil
}
