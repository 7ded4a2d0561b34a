// Package telemetry wires the OpenTelemetry meter provider used by the
// collector and exposes the ingest counters it records.
package telemetry

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

const (
	// DefaultEndpoint is the OTLP/gRPC collector address.
	DefaultEndpoint = "127.0.0.1:4317"

	// DefaultInterval is how often metrics are pushed.
	DefaultInterval = 15 * time.Second

	// MeterName scopes every instrument this module creates.
	MeterName = "github.com/tinytelemetry/logrelay"
)

// Config controls the OTLP exporter.
type Config struct {
	ServiceName string
	Endpoint    string
	Interval    time.Duration
}

// Init installs a global meter provider that pushes to an OTLP/gRPC
// endpoint. The returned function flushes pending exports and must be
// called on shutdown.
func Init(ctx context.Context, cfg Config) (func(), error) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "logstats"
	}

	res, err := resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithProcess(),
		resource.WithTelemetrySDK(),
		resource.WithHost(),
		resource.WithAttributes(attribute.String("service.name", cfg.ServiceName)),
	)
	if err != nil {
		// partial resources are still usable
		log.Printf("telemetry: resource detection: %v", err)
	}

	exp, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithInsecure(),
		otlpmetricgrpc.WithEndpoint(cfg.Endpoint),
	)
	if err != nil {
		return nil, fmt.Errorf("create otlp metric exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(cfg.Interval))),
	)
	otel.SetMeterProvider(provider)

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			log.Printf("telemetry: failed to push last exports: %v", err)
			otel.Handle(err)
		}
	}, nil
}
