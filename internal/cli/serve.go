package cli

import (
	"context"
	"fmt"
	"time"

	"atspro/internal/ai"
	"atspro/internal/ats"
	"atspro/internal/auth"
	"atspro/internal/config"
	"atspro/internal/errors"
	"atspro/internal/observability"
	"atspro/internal/resume"
	"atspro/internal/server"
	"atspro/internal/store"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the HTTP server that exposes the job board, hiring pipeline,
messaging, dashboards and AI tools as a JSON API under /api/v1.

Operational endpoints:
- GET /health: database, AI provider and certificate status
- GET /stats: rate limiting statistics

TLS Configuration:
- Use --tls-mode to set TLS mode: disabled, server, mutual
- Use --cert-file and --key-file for TLS certificates
- Use --ca-file for mutual TLS client certificate verification`,
	RunE: runServe,
}

// flags holds command line overrides. Only flags the user actually set are
// applied on top of the loaded configuration.
var flags = viper.New()

func init() {
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().String("host", "", "Host to bind to (default from config)")
	serveCmd.Flags().String("tls-mode", "", "TLS mode: disabled, server, mutual (overrides config)")
	serveCmd.Flags().String("cert-file", "", "Server certificate file (PEM, overrides config)")
	serveCmd.Flags().String("key-file", "", "Server private key file (PEM, overrides config)")
	serveCmd.Flags().String("ca-file", "", "CA certificate file for client cert verification (PEM, overrides config)")

	bindFlag := func(key, flagName string) {
		if err := flags.BindPFlag(key, serveCmd.Flags().Lookup(flagName)); err != nil {
			panic(err)
		}
	}

	bindFlag("server.port", "port")
	bindFlag("server.host", "host")
	bindFlag("server.tls.mode", "tls-mode")
	bindFlag("server.tls.certfile", "cert-file")
	bindFlag("server.tls.keyfile", "key-file")
	bindFlag("server.tls.cafile", "ca-file")
}

// applyServeFlags copies changed flags into cfg
func applyServeFlags(cfg *config.Config) {
	overrides := []struct {
		key    string
		target *string
	}{
		{"server.port", &cfg.Server.Port},
		{"server.host", &cfg.Server.Host},
		{"server.tls.mode", &cfg.Server.TLS.Mode},
		{"server.tls.certfile", &cfg.Server.TLS.CertFile},
		{"server.tls.keyfile", &cfg.Server.TLS.KeyFile},
		{"server.tls.cafile", &cfg.Server.TLS.CAFile},
	}
	for _, o := range overrides {
		if flags.IsSet(o.key) {
			*o.target = flags.GetString(o.key)
		}
	}
}

// app bundles everything a command needs to run tracker operations.
type app struct {
	store  *store.Store
	ai     *ai.Service
	obs    *observability.ObservabilityManager
	tokens *auth.TokenIssuer
	ats    *ats.Service
	logger *errors.Logger
}

// newApp opens the database and builds the service graph
func newApp(cfg *config.Config, logger *errors.Logger) (*app, error) {
	obs, err := observability.NewObservabilityManager(cfg.Observability, Version, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}

	st, err := store.Open(cfg.Database, logger)
	if err != nil {
		shutdownObservability(obs, logger)
		return nil, err
	}
	if cfg.Database.AutoMigrate {
		if err := st.Migrate(context.Background()); err != nil {
			_ = st.Close()
			shutdownObservability(obs, logger)
			return nil, err
		}
	}

	aiService, err := ai.NewService(cfg, obs, logger)
	if err != nil {
		_ = st.Close()
		shutdownObservability(obs, logger)
		return nil, fmt.Errorf("failed to create AI service: %w", err)
	}

	tokens := auth.NewTokenIssuer(cfg.Auth)
	svc := ats.New(ats.Deps{
		Store:         st,
		Tokens:        tokens,
		AI:            aiService,
		Extractor:     resume.NewExtractor(cfg.App.MaxFileSize, logger),
		Observability: obs,
		Logger:        logger,
	}, ats.Options{BcryptCost: cfg.Auth.BcryptCost})

	return &app{store: st, ai: aiService, obs: obs, tokens: tokens, ats: svc, logger: logger}, nil
}

func (a *app) Close() {
	if err := a.ai.Close(); err != nil {
		a.logger.LogError(err, "Failed to close AI service")
	}
	if err := a.store.Close(); err != nil {
		a.logger.LogError(err, "Failed to close database")
	}
	shutdownObservability(a.obs, a.logger)
}

func shutdownObservability(obs *observability.ObservabilityManager, logger *errors.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := obs.Shutdown(ctx); err != nil {
		logger.LogError(err, "Failed to shutdown observability")
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := getConfigFromContext(cmd.Context())
	if err != nil {
		return err
	}
	logger, err := getLoggerFromContext(cmd.Context())
	if err != nil {
		return err
	}

	applyServeFlags(cfg)
	// Validate TLS configuration after applying overrides
	if err := cfg.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("invalid TLS configuration: %w", err)
	}

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	var google *auth.GoogleProvider
	if cfg.Auth.Google.Enabled {
		google = auth.NewGoogleProvider(cfg.Auth.Google)
	}

	return server.NewServer(cfg, server.ServerConfig{
		Version:       Version,
		ATS:           a.ats,
		Tokens:        a.tokens,
		Google:        google,
		Observability: a.obs,
	}, logger).Start()
}
