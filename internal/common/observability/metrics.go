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

// Observability exposes the engine's metrics through the Prometheus exporter.
type Observability struct {
	meterProvider        *metric.MeterProvider
	meter                otelmetric.Meter
	questionCounter      otelmetric.Int64Counter
	resolveDuration      otelmetric.Float64Histogram
	cacheHitCounter      otelmetric.Int64Counter
	unresolvedTokens     otelmetric.Int64Counter
	translationFallbacks otelmetric.Int64Counter
}

func New(serviceName string) *Observability {
	exporter, err := prometheus.New()
	if err != nil {
		log.Printf("Failed to create Prometheus exporter: %v", err)
		return &Observability{}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	questionCounter, _ := meter.Int64Counter(
		"questions.processed",
		otelmetric.WithDescription("Number of questions processed"),
	)

	resolveDuration, _ := meter.Float64Histogram(
		"questions.resolve_duration",
		otelmetric.WithDescription("Question resolution duration"),
		otelmetric.WithUnit("ms"),
	)

	cacheHitCounter, _ := meter.Int64Counter(
		"answers.cache_hits",
		otelmetric.WithDescription("Answer cache hits"),
	)

	unresolvedTokens, _ := meter.Int64Counter(
		"dates.unresolved_tokens",
		otelmetric.WithDescription("Relative date tokens that fell back to the anchor year"),
	)

	translationFallbacks, _ := meter.Int64Counter(
		"translation.fallbacks",
		otelmetric.WithDescription("Term expansions that fell back to the original term"),
	)

	return &Observability{
		meterProvider:        provider,
		meter:                meter,
		questionCounter:      questionCounter,
		resolveDuration:      resolveDuration,
		cacheHitCounter:      cacheHitCounter,
		unresolvedTokens:     unresolvedTokens,
		translationFallbacks: translationFallbacks,
	}
}

// RecordQuestion counts one processed question by processing type.
func (o *Observability) RecordQuestion(ctx context.Context, processingType string) {
	if o.questionCounter != nil {
		o.questionCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("processing_type", processingType),
		))
	}
}

// RecordResolveDuration records the wall time of one resolution.
func (o *Observability) RecordResolveDuration(ctx context.Context, duration time.Duration, processingType string) {
	if o.resolveDuration != nil {
		o.resolveDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("processing_type", processingType),
		))
	}
}

// RecordCacheHit counts one answer served from cache.
func (o *Observability) RecordCacheHit(ctx context.Context) {
	if o.cacheHitCounter != nil {
		o.cacheHitCounter.Add(ctx, 1)
	}
}

// RecordUnresolvedDateToken counts one relative-date token that resolved to
// the anchor year because it was not recognized.
func (o *Observability) RecordUnresolvedDateToken(ctx context.Context) {
	if o.unresolvedTokens != nil {
		o.unresolvedTokens.Add(ctx, 1)
	}
}

// RecordTranslationFallback counts one term expansion that returned only the
// original term after a service failure.
func (o *Observability) RecordTranslationFallback(ctx context.Context) {
	if o.translationFallbacks != nil {
		o.translationFallbacks.Add(ctx, 1)
	}
}

func (o *Observability) Shutdown() {
	if o.meterProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		o.meterProvider.Shutdown(ctx)
	}
}
