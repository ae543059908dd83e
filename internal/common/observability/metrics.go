// internal/common/observability/metrics.go
package observability

import (
	"context"
	"time"

	"franchise-portal/internal/common/logger"

	prom "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Observability records coordinator timings through an OpenTelemetry meter
// exported in Prometheus format. A zero value records nothing.
type Observability struct {
	meterProvider *metric.MeterProvider
	meter         otelmetric.Meter
	fetchDuration otelmetric.Float64Histogram
	dispatched    otelmetric.Int64Counter
}

// New registers the exporter with the default Prometheus registry.
func New(serviceName string, log logger.Logger) *Observability {
	return NewWithRegisterer(serviceName, prom.DefaultRegisterer, log)
}

func NewWithRegisterer(serviceName string, reg prom.Registerer, log logger.Logger) *Observability {
	exporter, err := prometheus.New(prometheus.WithRegisterer(reg))
	if err != nil {
		log.Warn("failed to create prometheus exporter", map[string]interface{}{"error": err})
		return &Observability{}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	fetchDuration, _ := meter.Float64Histogram(
		"portal.fetch.duration",
		otelmetric.WithDescription("Duration of portal backend requests"),
		otelmetric.WithUnit("ms"),
	)

	dispatched, _ := meter.Int64Counter(
		"portal.events.dispatched",
		otelmetric.WithDescription("Number of stream events dispatched by effect"),
	)

	return &Observability{
		meterProvider: provider,
		meter:         meter,
		fetchDuration: fetchDuration,
		dispatched:    dispatched,
	}
}

// RecordFetch records one backend request; op names the endpoint.
func (o *Observability) RecordFetch(ctx context.Context, op string, duration time.Duration, result string) {
	if o == nil || o.fetchDuration == nil {
		return
	}
	o.fetchDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
		attribute.String("op", op),
		attribute.String("result", result),
	))
}

// RecordDispatch records the effect chosen for one event.
func (o *Observability) RecordDispatch(ctx context.Context, eventType, effect string) {
	if o == nil || o.dispatched == nil {
		return
	}
	o.dispatched.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("type", eventType),
		attribute.String("effect", effect),
	))
}

func (o *Observability) Shutdown() {
	if o == nil || o.meterProvider == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = o.meterProvider.Shutdown(ctx)
}
