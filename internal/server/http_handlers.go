package server

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

const healthCheckTimeout = 5 * time.Second

// healthHandler provides a comprehensive health check endpoint including
// database and AI model status
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	response := map[string]any{
		"status":  "healthy",
		"service": "atspro",
		"version": s.Version,
	}
	overallHealthy := true

	dbStatus := map[string]any{"available": true}
	if err := s.ATS.Store().Ping(ctx); err != nil {
		dbStatus["available"] = false
		dbStatus["error"] = err.Error()
		overallHealthy = false
	}
	response["database"] = dbStatus

	if svc := s.ATS.AI(); svc != nil {
		models := svc.ModelInfo(ctx)
		response["ai_models"] = models
		for _, info := range models {
			if info != nil && !info.Available {
				overallHealthy = false
			}
		}
		response["circuit_breakers"] = svc.CircuitBreakerStats()
	}

	if certStatus := s.checkCertificateHealth(); certStatus != nil {
		response["certificates"] = certStatus
		if healthy, ok := certStatus["healthy"].(bool); ok && !healthy {
			overallHealthy = false
		}
	}

	status := http.StatusOK
	if !overallHealthy {
		response["status"] = "degraded"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, response)
}

// checkCertificateHealth checks the health of TLS certificates
func (s *Server) checkCertificateHealth() map[string]any {
	if s.CertificateManager == nil {
		return nil
	}

	certStatus := make(map[string]any)

	timeToExpiry, err := s.CertificateManager.CheckExpiry()
	if err != nil {
		certStatus["healthy"] = false
		certStatus["error"] = fmt.Sprintf("Failed to check certificate expiry: %v", err)
		return certStatus
	}

	// Unhealthy within a day of expiry, warning within a week
	criticalThreshold := 24 * time.Hour
	warningThreshold := 7 * 24 * time.Hour

	certStatus["time_to_expiry_hours"] = int(timeToExpiry.Hours())
	certStatus["time_to_expiry"] = timeToExpiry.String()

	switch {
	case timeToExpiry <= 0:
		certStatus["healthy"] = false
		certStatus["status"] = "expired"
		certStatus["message"] = "Certificate has expired"
	case timeToExpiry <= criticalThreshold:
		certStatus["healthy"] = false
		certStatus["status"] = "critical"
		certStatus["message"] = "Certificate expires within 24 hours"
	case timeToExpiry <= warningThreshold:
		certStatus["healthy"] = true
		certStatus["status"] = "warning"
		certStatus["message"] = "Certificate expires within 7 days"
	default:
		certStatus["healthy"] = true
		certStatus["status"] = "ok"
		certStatus["message"] = "Certificate is valid"
	}

	autoReload := map[string]any{"enabled": s.TLSConfig.AutoReload.Enabled}
	if s.CertificateManager.fileWatcher != nil {
		autoReload["file_watcher_running"] = s.CertificateManager.fileWatcher.IsRunning()
		autoReload["watched_files"] = s.CertificateManager.fileWatcher.GetWatchedFiles()
	}
	if s.CertificateManager.vaultWatcher != nil {
		autoReload["vault_watcher_status"] = s.CertificateManager.vaultWatcher.Status()
	}
	certStatus["auto_reload"] = autoReload

	metrics := s.CertificateManager.GetMetrics()
	certStatus["metrics"] = map[string]any{
		"reload_count":         metrics.ReloadCount,
		"reload_success_count": metrics.ReloadSuccessCount,
		"reload_failure_count": metrics.ReloadFailureCount,
		"last_reload_time":     metrics.LastReloadTime,
		"last_reload_success":  metrics.LastReloadSuccess,
		"last_reload_error":    metrics.LastReloadError,
	}

	return certStatus
}

// statsHandler provides server statistics including rate limiting info
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"service": "atspro",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
			"tls_mode":               s.TLSConfig.Mode,
		},
	}

	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{
			"enabled": false,
		}
	}

	if s.RateLimit != nil {
		response["rate_limit_config"] = map[string]any{
			"enabled":          s.RateLimit.Enabled,
			"requests_per_min": s.RateLimit.RequestsPerMin,
			"burst_capacity":   s.RateLimit.BurstCapacity,
			"by_ip":            s.RateLimit.ByIP,
			"by_user":          s.RateLimit.ByUser,
		}
	}

	writeJSON(w, http.StatusOK, response)
}
