// internal/common/observability/metrics.go
package observability

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Observability holds the OpenTelemetry meter and tracer providers.
type Observability struct {
	meterProvider  *metric.MeterProvider
	meter          otelmetric.Meter
	navCounter     otelmetric.Int64Counter
	completionTime otelmetric.Float64Histogram
	tracing        *Tracing
}

// New creates the meter provider behind a Prometheus exporter. A non-empty
// jaegerEndpoint also installs a tracer provider.
func New(serviceName, jaegerEndpoint string) *Observability {
	obs := &Observability{tracing: NewTracing(serviceName, jaegerEndpoint)}

	exporter, err := prometheus.New()
	if err != nil {
		log.Printf("Failed to create Prometheus exporter: %v", err)
		return obs
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	navCounter, _ := meter.Int64Counter(
		"onboarding.navigation",
		otelmetric.WithDescription("Number of navigation calls"),
	)

	completionTime, _ := meter.Float64Histogram(
		"onboarding.completion.duration",
		otelmetric.WithDescription("Finalization duration"),
		otelmetric.WithUnit("ms"),
	)

	obs.meterProvider = provider
	obs.meter = meter
	obs.navCounter = navCounter
	obs.completionTime = completionTime
	return obs
}

// RecordNavigation counts one navigation call.
func (o *Observability) RecordNavigation(ctx context.Context, role, direction string, moved bool) {
	if o == nil || o.navCounter == nil {
		return
	}
	o.navCounter.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("role", role),
		attribute.String("direction", direction),
		attribute.Bool("moved", moved),
	))
}

// RecordCompletion records how long finalization took.
func (o *Observability) RecordCompletion(ctx context.Context, duration time.Duration, role, outcome string) {
	if o == nil || o.completionTime == nil {
		return
	}
	o.completionTime.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
		attribute.String("role", role),
		attribute.String("outcome", outcome),
	))
}

// Tracing returns the tracer wrapper; never nil.
func (o *Observability) Tracing() *Tracing {
	if o == nil || o.tracing == nil {
		return &Tracing{}
	}
	return o.tracing
}

func (o *Observability) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if o.meterProvider != nil {
		_ = o.meterProvider.Shutdown(ctx)
	}
	o.Tracing().Shutdown(ctx)
}
