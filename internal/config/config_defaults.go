package config

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// App
	v.SetDefault("app.logLevel", "info")
	v.SetDefault("app.defaultFormat", "json")
	v.SetDefault("app.supportedFormats", []string{"json", "text", "markdown"})
	v.SetDefault("app.maxFileSize", 5*1024*1024) // resumes
	v.SetDefault("app.publicURL", "http://localhost:8080")

	// Server
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.readTimeout", 30*time.Second)
	v.SetDefault("server.writeTimeout", 90*time.Second) // AI tools can be slow
	v.SetDefault("server.idleTimeout", 120*time.Second)
	v.SetDefault("server.maxRequestSize", 6*1024*1024)

	v.SetDefault("server.tls.mode", "disabled")
	v.SetDefault("server.tls.certFile", "")
	v.SetDefault("server.tls.keyFile", "")
	v.SetDefault("server.tls.caFile", "")
	v.SetDefault("server.tls.minVersion", "1.2")
	v.SetDefault("server.tls.cipherSuites", []string{})
	v.SetDefault("server.tls.clientAuthPolicy", "require")
	v.SetDefault("server.tls.autoReload.enabled", true)
	v.SetDefault("server.tls.autoReload.debounceDelay", time.Second)
	v.SetDefault("server.tls.autoReload.vaultPollInterval", 5*time.Minute)

	v.SetDefault("server.rateLimit.enabled", true)
	v.SetDefault("server.rateLimit.requestsPerMin", 120)
	v.SetDefault("server.rateLimit.burstCapacity", 20)
	v.SetDefault("server.rateLimit.byIP", true)
	v.SetDefault("server.rateLimit.byUser", true)

	// Database
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "atspro")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "atspro.db")
	v.SetDefault("database.sslMode", "disable")
	v.SetDefault("database.maxOpenConns", 10)
	v.SetDefault("database.maxIdleConns", 5)
	v.SetDefault("database.connMaxLifetime", 30*time.Minute)
	v.SetDefault("database.autoMigrate", true)
	v.SetDefault("database.logQueries", false)

	// Auth
	v.SetDefault("auth.jwtSecret", "")
	v.SetDefault("auth.tokenTTL", 24*time.Hour)
	v.SetDefault("auth.issuer", "atspro")
	v.SetDefault("auth.bcryptCost", 10)
	v.SetDefault("auth.google.enabled", false)
	v.SetDefault("auth.google.clientID", "")
	v.SetDefault("auth.google.clientSecret", "")
	v.SetDefault("auth.google.redirectURL", "")

	// AI - global
	v.SetDefault("ai.provider", ProviderLocal)
	v.SetDefault("ai.model", "gemini-2.0-flash")
	v.SetDefault("ai.timeout", 60*time.Second)
	v.SetDefault("ai.apiKey", "")
	v.SetDefault("ai.maxRetries", 3)
	v.SetDefault("ai.temperature", 0.2)
	v.SetDefault("ai.useSystemPrompts", true)

	// AI - per operation. Matching and bias detection want repeatable output.
	opTemperatures := map[string]float64{
		OpResumeMatch:      0.1,
		OpInterviewSummary: 0.3,
		OpChatSummary:      0.3,
		OpBiasDetection:    0.0,
	}
	for _, op := range Operations {
		prefix := "ai." + op
		v.SetDefault(prefix+".provider", "")
		v.SetDefault(prefix+".model", "")
		v.SetDefault(prefix+".apiKey", "")
		v.SetDefault(prefix+".temperature", opTemperatures[op])

		v.SetDefault(prefix+".circuitBreaker.enabled", true)
		v.SetDefault(prefix+".circuitBreaker.maxRequests", 3)
		v.SetDefault(prefix+".circuitBreaker.interval", 60*time.Second)
		v.SetDefault(prefix+".circuitBreaker.timeout", 60*time.Second)
		v.SetDefault(prefix+".circuitBreaker.minRequests", 3)
		v.SetDefault(prefix+".circuitBreaker.failureThreshold", 0.6)
	}

	// Vault
	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.address", "")
	v.SetDefault("vault.token", "")
	v.SetDefault("vault.tokenFile", "")
	v.SetDefault("vault.namespace", "")
	v.SetDefault("vault.secrets.geminiKey", "")
	v.SetDefault("vault.secrets.jwtSecret", "")
	v.SetDefault("vault.secrets.databasePassword", "")
	v.SetDefault("vault.secrets.googleClientSecret", "")
	v.SetDefault("vault.secrets.tlsCerts", "")

	// Observability
	v.SetDefault("observability.enabled", true)
	v.SetDefault("observability.serviceName", "atspro")
	v.SetDefault("observability.serviceVersion", "")
	v.SetDefault("observability.serviceInstance", "")
	v.SetDefault("observability.consoleOutput", false)
	v.SetDefault("observability.prettyPrint", true)
	v.SetDefault("observability.sampleRate", 1.0)
	v.SetDefault("observability.metrics.collectionInterval", 15*time.Second)
	v.SetDefault("observability.customMetrics.aiOperations.enabled", true)
	v.SetDefault("observability.customMetrics.aiOperations.trackDuration", true)
	v.SetDefault("observability.customMetrics.aiOperations.trackTokenUsage", true)
	v.SetDefault("observability.customMetrics.businessMetrics.enabled", true)
	v.SetDefault("observability.customMetrics.infrastructure.trackRateLimits", true)
	v.SetDefault("observability.customMetrics.infrastructure.trackCertExpiry", true)
	v.SetDefault("observability.prometheus.enabled", true)
	v.SetDefault("observability.prometheus.endpoint", "/metrics")
	v.SetDefault("observability.prometheus.port", "9090")
	v.SetDefault("observability.otlp.enabled", false)
	v.SetDefault("observability.otlp.endpoint", "http://localhost:4318")
	v.SetDefault("observability.otlp.insecure", true)
	v.SetDefault("observability.otlp.headers", map[string]string{})
}
