package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "ATSPRO"

// Config holds all application configuration
// Secret precedence order:
// 1. Vault (if configured) - Highest priority
// 2. Config File values
// 3. Environment Variables (ATSPRO_AUTH_JWTSECRET, ATSPRO_AI_APIKEY, etc.)
// 4. .env file (loaded into the environment before viper reads it)
// 5. Default values - Lowest priority
type Config struct {
	App           AppConfig           `mapstructure:"app"`
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Auth          AuthConfig          `mapstructure:"auth"`
	AI            AIConfig            `mapstructure:"ai"`
	Vault         VaultConfig         `mapstructure:"vault"`
	Observability ObservabilityConfig `mapstructure:"observability"`

	prompts      map[string]LoadedPrompts
	vaultApplied bool
}

// AppConfig holds general application configuration
type AppConfig struct {
	LogLevel         string   `mapstructure:"logLevel"`
	DefaultFormat    string   `mapstructure:"defaultFormat"`
	SupportedFormats []string `mapstructure:"supportedFormats"`
	MaxFileSize      int64    `mapstructure:"maxFileSize"`
	PublicURL        string   `mapstructure:"publicURL"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           string        `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"readTimeout"`
	WriteTimeout   time.Duration `mapstructure:"writeTimeout"`
	IdleTimeout    time.Duration `mapstructure:"idleTimeout"`
	MaxRequestSize int64         `mapstructure:"maxRequestSize"`

	TLS       TLSConfig       `mapstructure:"tls"`
	RateLimit RateLimitConfig `mapstructure:"rateLimit"`
}

// TLSConfig holds TLS/mTLS configuration
type TLSConfig struct {
	Mode     string `mapstructure:"mode"`     // disabled, server, mutual
	CertFile string `mapstructure:"certFile"` // PEM
	KeyFile  string `mapstructure:"keyFile"`  // PEM
	CAFile   string `mapstructure:"caFile"`   // PEM, required for mutual mode

	// Filled from Vault instead of files
	CertContent string `mapstructure:"certContent"`
	KeyContent  string `mapstructure:"keyContent"`
	CAContent   string `mapstructure:"caContent"`

	MinVersion       string   `mapstructure:"minVersion"` // 1.2, 1.3
	CipherSuites     []string `mapstructure:"cipherSuites"`
	ClientAuthPolicy string   `mapstructure:"clientAuthPolicy"` // require, request, verify

	AutoReload AutoReloadConfig `mapstructure:"autoReload"`
}

// AutoReloadConfig holds configuration for automatic certificate reloading
type AutoReloadConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	DebounceDelay time.Duration `mapstructure:"debounceDelay"`

	// VaultPollInterval applies when certificates come from vault.secrets.tlsCerts.
	VaultPollInterval time.Duration `mapstructure:"vaultPollInterval"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled        bool `mapstructure:"enabled"`
	RequestsPerMin int  `mapstructure:"requestsPerMin"`
	BurstCapacity  int  `mapstructure:"burstCapacity"`
	ByIP           bool `mapstructure:"byIP"`
	ByUser         bool `mapstructure:"byUser"` // keyed by the authenticated user id when present
}

// DatabaseConfig selects and tunes the SQL backend.
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // postgres, sqlite
	DSN             string        `mapstructure:"dsn"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslMode"`
	MaxOpenConns    int           `mapstructure:"maxOpenConns"`
	MaxIdleConns    int           `mapstructure:"maxIdleConns"`
	ConnMaxLifetime time.Duration `mapstructure:"connMaxLifetime"`
	AutoMigrate     bool          `mapstructure:"autoMigrate"`
	LogQueries      bool          `mapstructure:"logQueries"`
}

// ConnectionString returns the DSN for the configured driver. An explicit dsn
// always wins; otherwise postgres gets a key=value string built from the parts
// and sqlite uses Name as the file path.
func (d DatabaseConfig) ConnectionString() string {
	if d.DSN != "" {
		return d.DSN
	}
	switch d.Driver {
	case "sqlite":
		return d.Name
	default:
		parts := []string{
			fmt.Sprintf("host=%s", d.Host),
			fmt.Sprintf("port=%d", d.Port),
			fmt.Sprintf("user=%s", d.User),
			fmt.Sprintf("dbname=%s", d.Name),
			fmt.Sprintf("sslmode=%s", d.SSLMode),
		}
		if d.Password != "" {
			parts = append(parts, fmt.Sprintf("password=%s", d.Password))
		}
		return strings.Join(parts, " ")
	}
}

// AuthConfig configures session tokens and sign-in providers.
type AuthConfig struct {
	JWTSecret  string        `mapstructure:"jwtSecret"`
	TokenTTL   time.Duration `mapstructure:"tokenTTL"`
	Issuer     string        `mapstructure:"issuer"`
	BcryptCost int           `mapstructure:"bcryptCost"`
	Google     GoogleConfig  `mapstructure:"google"`
}

// GoogleConfig enables "Sign in with Google".
type GoogleConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	ClientID     string `mapstructure:"clientID"`
	ClientSecret string `mapstructure:"clientSecret"`
	RedirectURL  string `mapstructure:"redirectURL"`
}

// LoadConfig loads configuration from .env, environment variables and a config file
func LoadConfig() (*Config, error) {
	log.Println("[CONFIG] Starting configuration loading process")

	loadDotEnv()

	v := viper.New()

	setDefaults(v)
	log.Println("[CONFIG] Applied default configuration values")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	log.Printf("[CONFIG] Configured environment variable handling with prefix '%s'", envPrefix)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/atspro/")
	v.AddConfigPath("$HOME/.atspro")
	v.AddConfigPath(".")
	log.Println("[CONFIG] Configured config file search paths: /etc/atspro/, $HOME/.atspro, .")

	configFileUsed := ""
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		log.Println("[CONFIG] No config file found, using defaults and environment variables")
	} else {
		configFileUsed = v.ConfigFileUsed()
		log.Printf("[CONFIG] Successfully loaded config file: %s", configFileUsed)
	}

	return loadFromViper(v, configFileUsed)
}

// loadFromViper finishes loading once viper knows every source. Split out so
// tests can feed a preconfigured viper instance.
func loadFromViper(v *viper.Viper, configFileUsed string) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	log.Println("[CONFIG] Successfully unmarshaled configuration")

	config.applyFallbacks()
	log.Println("[CONFIG] Applied configuration fallbacks")

	config.logConfigurationSources(configFileUsed)

	if err := config.loadPromptsFromFiles(); err != nil {
		return nil, fmt.Errorf("failed to load custom prompts from files: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log.Println("[CONFIG] Configuration loading completed successfully")
	return &config, nil
}

// loadDotEnv reads .env into the process environment. Existing variables win.
func loadDotEnv() {
	path := os.Getenv(envPrefix + "_ENV_FILE")
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := godotenv.Load(path); err != nil {
		log.Printf("[CONFIG] Failed to load %s: %v", path, err)
		return
	}
	log.Printf("[CONFIG] Loaded environment from %s", path)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Secrets that Vault will provide are checked again after ApplyVaultSecrets.
	pending := func(path string) bool {
		return c.Vault.Enabled && !c.vaultApplied && path != ""
	}

	if len(c.Auth.JWTSecret) < 32 && !pending(c.Vault.Secrets.JWTSecret) {
		return fmt.Errorf("auth.jwtSecret must be at least 32 bytes (set %s_AUTH_JWTSECRET)", envPrefix)
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.tokenTTL must be positive")
	}
	if c.Auth.Google.Enabled {
		if c.Auth.Google.ClientID == "" || (c.Auth.Google.ClientSecret == "" && !pending(c.Vault.Secrets.GoogleClientSecret)) {
			return fmt.Errorf("google sign-in requires clientID and clientSecret")
		}
		if _, err := url.ParseRequestURI(c.Auth.Google.RedirectURL); err != nil {
			return fmt.Errorf("invalid google redirectURL: %w", err)
		}
	}

	switch c.Database.Driver {
	case "postgres":
		if c.Database.DSN == "" && (c.Database.Host == "" || c.Database.Name == "") {
			return fmt.Errorf("postgres requires database.dsn or database.host and database.name")
		}
	case "sqlite":
		if c.Database.ConnectionString() == "" {
			return fmt.Errorf("sqlite requires database.dsn or database.name")
		}
	default:
		return fmt.Errorf("unsupported database driver: %s (must be 'postgres' or 'sqlite')", c.Database.Driver)
	}

	if c.AI.Timeout <= 0 {
		return fmt.Errorf("AI timeout must be positive")
	}
	for _, op := range Operations {
		opCfg := c.GetOperationConfig(op)
		switch opCfg.Provider {
		case ProviderGemini:
			if opCfg.APIKey == "" && !pending(c.Vault.Secrets.GeminiKey) {
				return fmt.Errorf("%s: gemini provider requires an API key (set %s_AI_APIKEY)", op, envPrefix)
			}
		case ProviderLocal:
		default:
			return fmt.Errorf("%s: unsupported AI provider: %s", op, opCfg.Provider)
		}
	}

	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	validFormats := make(map[string]bool)
	for _, format := range c.App.SupportedFormats {
		validFormats[format] = true
	}
	if !validFormats[c.App.DefaultFormat] {
		return fmt.Errorf("invalid default format: %s", c.App.DefaultFormat)
	}

	if !pending(c.Vault.Secrets.TLSCerts) {
		if err := c.ValidateTLSConfig(); err != nil {
			return fmt.Errorf("TLS configuration error: %w", err)
		}
	}

	return nil
}
