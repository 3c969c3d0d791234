package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"atspro/internal/errors"

	"github.com/hashicorp/vault/api"
)

// VaultConfig holds Vault connection configuration
type VaultConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Address   string `mapstructure:"address"`
	Token     string `mapstructure:"token"`
	TokenFile string `mapstructure:"tokenFile"`
	Namespace string `mapstructure:"namespace"`

	Secrets VaultSecrets `mapstructure:"secrets"`
}

// VaultSecrets defines where to find secrets in Vault (KV v2 paths)
type VaultSecrets struct {
	GeminiKey          string `mapstructure:"geminiKey"`          // key "api_key"
	JWTSecret          string `mapstructure:"jwtSecret"`          // key "secret"
	DatabasePassword   string `mapstructure:"databasePassword"`   // key "password"
	GoogleClientSecret string `mapstructure:"googleClientSecret"` // key "client_secret"
	TLSCerts           string `mapstructure:"tlsCerts"`           // keys "cert", "key", "ca"
}

// VaultClient wraps the Vault API client
type VaultClient struct {
	client *api.Client
	logger *errors.Logger
}

// NewVaultClient creates a new Vault client from configuration
func NewVaultClient(config VaultConfig, logger *errors.Logger) (*VaultClient, error) {
	if !config.Enabled {
		return nil, nil
	}
	if logger == nil {
		logger = errors.NewNopLogger()
	}

	logger.Debug("Initializing Vault client",
		"address", config.Address,
		"namespace", config.Namespace,
		"token_file", config.TokenFile,
		"has_token", config.Token != "")

	vaultConfig := api.DefaultConfig()
	if config.Address != "" {
		vaultConfig.Address = config.Address
	}
	client, err := api.NewClient(vaultConfig)
	if err != nil {
		logger.LogError(err, "Failed to create Vault client")
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	if config.Namespace != "" {
		client.SetNamespace(config.Namespace)
	}

	token, err := resolveVaultToken(config)
	if err != nil {
		logger.LogError(err, "Vault token is required when Vault is enabled")
		return nil, err
	}
	client.SetToken(token)

	health, err := client.Sys().Health()
	if err != nil {
		logger.LogError(err, "Failed to connect to Vault", "address", config.Address)
		return nil, fmt.Errorf("failed to connect to vault: %w", err)
	}
	logger.Info("Successfully connected to Vault",
		"address", config.Address,
		"version", health.Version,
		"sealed", health.Sealed)

	return &VaultClient{client: client, logger: logger}, nil
}

// resolveVaultToken resolves the Vault token from config or file
func resolveVaultToken(config VaultConfig) (string, error) {
	token := config.Token
	if token == "" && config.TokenFile != "" {
		tokenBytes, err := os.ReadFile(config.TokenFile)
		if err != nil {
			return "", fmt.Errorf("failed to read vault token file: %w", err)
		}
		token = strings.TrimSpace(string(tokenBytes))
	}
	if token == "" {
		return "", fmt.Errorf("vault token is required when vault is enabled")
	}
	return token, nil
}

// VaultSecret represents a secret read from Vault's KVv2 engine.
type VaultSecret struct {
	Data    map[string]any
	Version int64
}

// GetSecretV2 retrieves a secret from a Vault KVv2 store.
func (vc *VaultClient) GetSecretV2(path string) (*VaultSecret, error) {
	if vc == nil {
		return nil, fmt.Errorf("vault client not initialized")
	}
	vc.logger.Debug("Reading secret from Vault", "path", path)

	secret, err := vc.client.Logical().Read(path)
	if err != nil {
		vc.logger.LogError(err, "Failed to read secret from Vault", "path", path)
		return nil, fmt.Errorf("failed to read secret from %s: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("secret not found at path: %s", path)
	}
	return parseKV2(secret.Data, path)
}

// parseKV2 unpacks the data/metadata envelope of a KV v2 read.
func parseKV2(raw map[string]any, path string) (*VaultSecret, error) {
	data, ok := raw["data"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("secret at %s is not in KVv2 format (missing 'data' field)", path)
	}
	metadata, ok := raw["metadata"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("secret at %s is not in KVv2 format (missing 'metadata' field)", path)
	}
	versionRaw, ok := metadata["version"]
	if !ok {
		return nil, fmt.Errorf("secret metadata at %s is missing 'version' field", path)
	}
	version, err := parseVersionValue(versionRaw, path)
	if err != nil {
		return nil, err
	}
	return &VaultSecret{Data: data, Version: version}, nil
}

// parseVersionValue parses version value from the types the JSON decoder may produce
func parseVersionValue(versionRaw any, path string) (int64, error) {
	switch v := versionRaw.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case string:
		version, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("could not parse secret version at %s: %w", path, err)
		}
		return version, nil
	default:
		return 0, fmt.Errorf("unexpected type for version at %s: %T", path, versionRaw)
	}
}

// GetStringSecret retrieves a string value from a Vault secret
func (vc *VaultClient) GetStringSecret(path, key string) (string, error) {
	secret, err := vc.GetSecretV2(path)
	if err != nil {
		return "", err
	}
	return stringField(secret, path, key)
}

func stringField(secret *VaultSecret, path, key string) (string, error) {
	value, ok := secret.Data[key]
	if !ok {
		return "", fmt.Errorf("key '%s' not found in secret %s", key, path)
	}
	strValue, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("value for key '%s' is not a string in secret %s", key, path)
	}
	return strValue, nil
}

// secretReader is the part of VaultClient the loaders need.
type secretReader interface {
	GetSecretV2(path string) (*VaultSecret, error)
}

// ApplyVaultSecrets loads secrets from Vault and applies them to the config
func ApplyVaultSecrets(config *Config, logger *errors.Logger) error {
	if !config.Vault.Enabled {
		return nil
	}
	if logger == nil {
		logger = errors.NewNopLogger()
	}

	client, err := NewVaultClient(config.Vault, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize vault client: %w", err)
	}
	if err := applySecrets(client, config, logger); err != nil {
		return err
	}

	config.vaultApplied = true
	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration after applying vault secrets: %w", err)
	}
	return nil
}

// applySecrets copies every configured secret into config.
func applySecrets(client secretReader, config *Config, logger *errors.Logger) error {
	paths := config.Vault.Secrets

	single := []struct {
		name  string
		path  string
		key   string
		apply func(string)
	}{
		{"gemini api key", paths.GeminiKey, "api_key", func(v string) { applyGeminiKeyToConfig(config, v) }},
		{"jwt secret", paths.JWTSecret, "secret", func(v string) { config.Auth.JWTSecret = v }},
		{"database password", paths.DatabasePassword, "password", func(v string) { config.Database.Password = v }},
		{"google client secret", paths.GoogleClientSecret, "client_secret", func(v string) { config.Auth.Google.ClientSecret = v }},
	}

	for _, s := range single {
		if s.path == "" {
			continue
		}
		secret, err := client.GetSecretV2(s.path)
		if err != nil {
			logger.LogError(err, "Failed to load secret from Vault", "secret", s.name, "path", s.path)
			return fmt.Errorf("failed to load %s from vault: %w", s.name, err)
		}
		value, err := stringField(secret, s.path, s.key)
		if err != nil {
			return fmt.Errorf("failed to load %s from vault: %w", s.name, err)
		}
		if value == "" {
			logger.Warn("Empty secret found in Vault", "secret", s.name, "path", s.path)
			continue
		}
		s.apply(value)
		logger.Info("Secret loaded from Vault", "secret", s.name, "version", secret.Version)
	}

	if paths.TLSCerts != "" {
		tlsData, err := client.GetSecretV2(paths.TLSCerts)
		if err != nil {
			logger.LogError(err, "Failed to load TLS certificates from Vault", "path", paths.TLSCerts)
			return fmt.Errorf("failed to load TLS certificates from vault: %w", err)
		}
		loaded := loadTLSCertificateContent(config, tlsData)
		logger.Info("TLS certificates loaded from Vault", "certificates_loaded", loaded)
	}

	return nil
}

// applyGeminiKeyToConfig applies the Gemini API key to every AI operation
// that has no key of its own
func applyGeminiKeyToConfig(config *Config, geminiKey string) {
	config.AI.APIKey = geminiKey
	for _, op := range Operations {
		if raw := config.operationConfig(op); raw.APIKey == "" {
			raw.APIKey = geminiKey
		}
	}
}

// loadTLSCertificateContent copies PEM content from a Vault secret. File paths
// are cleared so the content takes effect.
func loadTLSCertificateContent(config *Config, tlsData *VaultSecret) int {
	tls := &config.Server.TLS
	count := 0
	fields := []struct {
		key     string
		content *string
		file    *string
	}{
		{"cert", &tls.CertContent, &tls.CertFile},
		{"key", &tls.KeyContent, &tls.KeyFile},
		{"ca", &tls.CAContent, &tls.CAFile},
	}
	for _, f := range fields {
		if content, ok := tlsData.Data[f.key].(string); ok && content != "" {
			*f.content = content
			*f.file = ""
			count++
		}
	}
	return count
}
