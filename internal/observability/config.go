package observability

import (
	"net/http"

	"atspro/internal/config"

	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// GetObservabilityConfig resolves the effective telemetry settings, filling the
// service identity from the build when the file leaves it blank.
func GetObservabilityConfig(cfg *config.Config, version string) config.ObservabilityConfig {
	if cfg == nil {
		return config.ObservabilityConfig{
			ServiceName:    "atspro",
			ServiceVersion: version,
			SampleRate:     1.0,
		}
	}

	obs := cfg.Observability
	if obs.ServiceName == "" {
		obs.ServiceName = "atspro"
	}
	if obs.ServiceVersion == "" {
		obs.ServiceVersion = version
	}
	if obs.SampleRate <= 0 {
		obs.SampleRate = 1.0
	}
	if obs.Prometheus.Endpoint == "" {
		obs.Prometheus.Endpoint = "/metrics"
	}
	return obs
}

// ObservabilityMiddleware opens a span per request and tags it with the
// route pattern the mux matched.
func ObservabilityMiddleware(om *ObservabilityManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !om.Enabled() {
			return next
		}
		tracer := om.Tracer("atspro.http")
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracer.Start(r.Context(), r.Method+" "+r.URL.Path,
				oteltrace.WithSpanKind(oteltrace.SpanKindInternal))
			defer span.End()

			next.ServeHTTP(w, r.WithContext(ctx))

			span.SetAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.route", r.Pattern),
				attribute.String("http.user_agent", r.UserAgent()),
			)
		})
	}
}
