package server

import (
	"time"

	"atspro/internal/ats"
	"atspro/internal/auth"
	"atspro/internal/config"
	"atspro/internal/errors"
	"atspro/internal/observability"
)

// LoginRequest represents the request body for the login endpoint
// PasswordCheckRequest represents the request body for the password meter
// ErrorResponse represents an error response
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type PasswordCheckRequest struct {
	Password string `json:"password"`
}

type JobStatusRequest struct {
	IsActive *bool `json:"is_active"`
}

type BiasReviewRequest struct {
	HRResponse string `json:"hr_response"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	// Full application configuration
	AppConfig *config.Config

	// TLS Configuration
	TLSConfig config.TLSConfig

	// Certificate management
	CertificateManager *CertificateManager

	// Timeout configurations
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Request size limit
	MaxRequestSize int64

	// Rate limiting
	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	// Application services
	ATS    *ats.Service
	Tokens *auth.TokenIssuer
	Google *auth.GoogleProvider

	Observability *observability.ObservabilityManager
	Logger        *errors.Logger
}

// ServerConfig holds what NewServer needs besides the loaded configuration
type ServerConfig struct {
	Version       string
	ATS           *ats.Service
	Tokens        *auth.TokenIssuer
	Google        *auth.GoogleProvider // nil when Google sign-in is disabled
	Observability *observability.ObservabilityManager
}

// NewServer creates a new Server instance from the application configuration
func NewServer(appCfg *config.Config, cfg ServerConfig, logger *errors.Logger) *Server {
	if logger == nil {
		logger = errors.NewNopLogger()
	}

	rl := appCfg.Server.RateLimit
	var rateLimiter *RateLimiter
	if rl.Enabled {
		rateLimiter = NewRateLimiter(rl.RequestsPerMin, rl.BurstCapacity, logger)
	}

	return &Server{
		Host:           appCfg.Server.Host,
		Port:           appCfg.Server.Port,
		Version:        cfg.Version,
		AppConfig:      appCfg,
		TLSConfig:      appCfg.Server.TLS,
		ReadTimeout:    appCfg.Server.ReadTimeout,
		WriteTimeout:   appCfg.Server.WriteTimeout,
		IdleTimeout:    appCfg.Server.IdleTimeout,
		MaxRequestSize: appCfg.Server.MaxRequestSize,
		RateLimit:      &rl,
		RateLimiter:    rateLimiter,
		ATS:            cfg.ATS,
		Tokens:         cfg.Tokens,
		Google:         cfg.Google,
		Observability:  cfg.Observability,
		Logger:         logger,
	}
}
