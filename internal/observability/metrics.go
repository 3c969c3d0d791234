package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Business events counted under atspro_business_events.
const (
	EventSignup               = "signup"
	EventLogin                = "login"
	EventJobCreated           = "job_created"
	EventApplicationSubmitted = "application_submitted"
	EventStatusChanged        = "status_changed"
	EventInterviewScheduled   = "interview_scheduled"
	EventBiasAlert            = "bias_alert"
)

// Metrics groups the custom instruments. Zero-valued fields are skipped.
type Metrics struct {
	aiRequests     metric.Int64Counter
	aiErrors       metric.Int64Counter
	aiDuration     metric.Float64Histogram
	aiInputTokens  metric.Int64Counter
	aiOutputTokens metric.Int64Counter

	businessEvents metric.Int64Counter

	rateLimitHits metric.Int64Counter
	certReloads   metric.Int64Counter
	certExpiry    metric.Float64Gauge
}

func newMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	if m.aiRequests, err = meter.Int64Counter("atspro_ai_requests",
		metric.WithDescription("AI operations attempted")); err != nil {
		return nil, err
	}
	if m.aiErrors, err = meter.Int64Counter("atspro_ai_errors",
		metric.WithDescription("AI operations that failed")); err != nil {
		return nil, err
	}
	if m.aiDuration, err = meter.Float64Histogram("atspro_ai_duration_seconds",
		metric.WithDescription("AI operation latency"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 2, 5, 10, 20, 30, 60)); err != nil {
		return nil, err
	}
	if m.aiInputTokens, err = meter.Int64Counter("atspro_ai_input_tokens",
		metric.WithDescription("Prompt tokens sent to AI providers")); err != nil {
		return nil, err
	}
	if m.aiOutputTokens, err = meter.Int64Counter("atspro_ai_output_tokens",
		metric.WithDescription("Completion tokens returned by AI providers")); err != nil {
		return nil, err
	}
	if m.businessEvents, err = meter.Int64Counter("atspro_business_events",
		metric.WithDescription("Recruitment events by kind")); err != nil {
		return nil, err
	}
	if m.rateLimitHits, err = meter.Int64Counter("atspro_rate_limit_hits",
		metric.WithDescription("Requests rejected by the rate limiter")); err != nil {
		return nil, err
	}
	if m.certReloads, err = meter.Int64Counter("atspro_cert_reloads",
		metric.WithDescription("TLS certificate reload attempts")); err != nil {
		return nil, err
	}
	if m.certExpiry, err = meter.Float64Gauge("atspro_cert_expiry_days",
		metric.WithDescription("Days until the serving certificate expires")); err != nil {
		return nil, err
	}
	return m, nil
}

// AIUsage is the token accounting reported by an AI call.
type AIUsage struct {
	InputTokens  int64
	OutputTokens int64
}

// TrackAIOperation times fn and records request, error, latency and token
// metrics for it.
func (om *ObservabilityManager) TrackAIOperation(ctx context.Context, operation, provider string, fn func(context.Context) (*AIUsage, error)) error {
	start := time.Now()
	usage, err := fn(ctx)
	om.RecordAIOperation(ctx, operation, provider, time.Since(start), usage, err)
	return err
}

// RecordAIOperation records the outcome of a completed AI call.
func (om *ObservabilityManager) RecordAIOperation(ctx context.Context, operation, provider string, elapsed time.Duration, usage *AIUsage, err error) {
	if !om.Enabled() || !om.config.CustomMetrics.AIOperations.Enabled || om.metrics.aiRequests == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("provider", provider),
	)
	om.metrics.aiRequests.Add(ctx, 1, attrs)
	if err != nil {
		om.metrics.aiErrors.Add(ctx, 1, attrs)
	}
	if om.config.CustomMetrics.AIOperations.TrackDuration {
		om.metrics.aiDuration.Record(ctx, elapsed.Seconds(), attrs)
	}
	if usage != nil && om.config.CustomMetrics.AIOperations.TrackTokenUsage {
		om.metrics.aiInputTokens.Add(ctx, usage.InputTokens, attrs)
		om.metrics.aiOutputTokens.Add(ctx, usage.OutputTokens, attrs)
	}
}

// RecordBusinessEvent counts one recruitment event.
func (om *ObservabilityManager) RecordBusinessEvent(ctx context.Context, event string) {
	if !om.Enabled() || !om.config.CustomMetrics.BusinessMetrics.Enabled || om.metrics.businessEvents == nil {
		return
	}
	om.metrics.businessEvents.Add(ctx, 1, metric.WithAttributes(attribute.String("event", event)))
}

// RecordRateLimitHit counts a throttled request.
func (om *ObservabilityManager) RecordRateLimitHit(ctx context.Context, route string) {
	if !om.Enabled() || !om.config.CustomMetrics.Infrastructure.TrackRateLimits || om.metrics.rateLimitHits == nil {
		return
	}
	om.metrics.rateLimitHits.Add(ctx, 1, metric.WithAttributes(attribute.String("route", route)))
}

// RecordCertReload counts a certificate reload and, on success, records how
// long the new certificate remains valid.
func (om *ObservabilityManager) RecordCertReload(ctx context.Context, notAfter time.Time, err error) {
	if !om.Enabled() || !om.config.CustomMetrics.Infrastructure.TrackCertExpiry || om.metrics.certReloads == nil {
		return
	}
	om.metrics.certReloads.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", err == nil)))
	if err == nil && !notAfter.IsZero() {
		om.metrics.certExpiry.Record(ctx, time.Until(notAfter).Hours()/24)
	}
}
