package config

import "time"

const (
	ProviderGemini = "gemini"
	ProviderLocal  = "local"
)

// AI operation names, also used as config keys under ai.*
const (
	OpResumeMatch      = "resumeMatch"
	OpInterviewSummary = "interviewSummary"
	OpChatSummary      = "chatSummary"
	OpBiasDetection    = "biasDetection"
)

// Operations lists every AI operation in a stable order.
var Operations = []string{OpResumeMatch, OpInterviewSummary, OpChatSummary, OpBiasDetection}

// AIConfig holds AI service configuration
type AIConfig struct {
	// Global/fallback configuration
	Provider         string        `mapstructure:"provider"`
	Model            string        `mapstructure:"model"`
	Timeout          time.Duration `mapstructure:"timeout"`
	APIKey           string        `mapstructure:"apiKey"`
	MaxRetries       int           `mapstructure:"maxRetries"`
	Temperature      float32       `mapstructure:"temperature"`
	UseSystemPrompts bool          `mapstructure:"useSystemPrompts"`

	// Operation-specific configurations
	ResumeMatch      OperationAIConfig `mapstructure:"resumeMatch"`
	InterviewSummary OperationAIConfig `mapstructure:"interviewSummary"`
	ChatSummary      OperationAIConfig `mapstructure:"chatSummary"`
	BiasDetection    OperationAIConfig `mapstructure:"biasDetection"`
}

// CircuitBreakerConfig represents circuit breaker configuration
type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	MaxRequests      uint32        `mapstructure:"maxRequests"`      // allowed when half-open
	Interval         time.Duration `mapstructure:"interval"`         // clears counts while closed
	Timeout          time.Duration `mapstructure:"timeout"`          // open -> half-open
	MinRequests      uint32        `mapstructure:"minRequests"`      // before tripping is considered
	FailureThreshold float64       `mapstructure:"failureThreshold"` // 0.0-1.0
}

// OperationAIConfig holds AI configuration for specific operations. Pointer
// fields distinguish "unset" from an explicit zero.
type OperationAIConfig struct {
	Provider         string               `mapstructure:"provider"`
	Model            string               `mapstructure:"model"`
	BaseURL          string               `mapstructure:"baseURL"` // optional API endpoint override
	Timeout          *time.Duration       `mapstructure:"timeout"`
	APIKey           string               `mapstructure:"apiKey"`
	MaxRetries       *int                 `mapstructure:"maxRetries"`
	Temperature      *float32             `mapstructure:"temperature"`
	UseSystemPrompts *bool                `mapstructure:"useSystemPrompts"`
	Prompts          PromptConfig         `mapstructure:"prompts"`
	CircuitBreaker   CircuitBreakerConfig `mapstructure:"circuitBreaker"`
}

// PromptConfig overrides the built-in prompts of one operation, inline or
// from a file. A file wins over the inline text.
type PromptConfig struct {
	System     string `mapstructure:"system"`
	SystemFile string `mapstructure:"systemFile"`
	User       string `mapstructure:"user"`
	UserFile   string `mapstructure:"userFile"`
}

// operationConfig returns a pointer to the raw config block of op.
func (c *Config) operationConfig(op string) *OperationAIConfig {
	switch op {
	case OpResumeMatch:
		return &c.AI.ResumeMatch
	case OpInterviewSummary:
		return &c.AI.InterviewSummary
	case OpChatSummary:
		return &c.AI.ChatSummary
	case OpBiasDetection:
		return &c.AI.BiasDetection
	}
	return nil
}

// GetOperationConfig returns the AI configuration for op with fallback to the
// global ai.* values. Unknown operations get the global values only.
func (c *Config) GetOperationConfig(op string) OperationAIConfig {
	var opCfg OperationAIConfig
	if raw := c.operationConfig(op); raw != nil {
		opCfg = *raw
	}
	c.applyOperationDefaults(&opCfg)
	return opCfg
}

// applyOperationDefaults applies global defaults to operation-specific configuration
func (c *Config) applyOperationDefaults(opCfg *OperationAIConfig) {
	if opCfg.Provider == "" {
		opCfg.Provider = c.AI.Provider
	}
	if opCfg.Model == "" {
		opCfg.Model = c.AI.Model
	}
	if opCfg.Timeout == nil {
		timeout := c.AI.Timeout
		opCfg.Timeout = &timeout
	}
	if opCfg.APIKey == "" {
		opCfg.APIKey = c.AI.APIKey
	}
	if opCfg.MaxRetries == nil {
		retries := c.AI.MaxRetries
		opCfg.MaxRetries = &retries
	}
	if opCfg.Temperature == nil {
		temperature := c.AI.Temperature
		opCfg.Temperature = &temperature
	}
	if opCfg.UseSystemPrompts == nil {
		use := c.AI.UseSystemPrompts
		opCfg.UseSystemPrompts = &use
	}
}

// GetPrompts returns the custom prompts resolved for op: file content first,
// then inline config. Empty fields mean "use the built-in prompt".
func (c *Config) GetPrompts(op string) LoadedPrompts {
	loaded := c.prompts[op]
	if raw := c.operationConfig(op); raw != nil {
		if loaded.System == "" {
			loaded.System = raw.Prompts.System
		}
		if loaded.User == "" {
			loaded.User = raw.Prompts.User
		}
	}
	return loaded
}
