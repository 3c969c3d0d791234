package ai

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
	"net"
	"net/http"
	"strings"
	"time"

	"atspro/internal/config"
	appErrors "atspro/internal/errors"
	"atspro/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

const modelCheckTimeout = 10 * time.Second

// GeminiProvider implements AIProvider for Google Gemini
type GeminiProvider struct {
	client         *genai.Client
	config         config.OperationAIConfig
	operation      string
	prompts        config.LoadedPrompts
	circuitBreaker *AICircuitBreaker
	modelBreaker   *ModelCircuitBreaker
	logger         *appErrors.Logger
	sleep          func(context.Context, time.Duration) error
}

var _ AIProvider = (*GeminiProvider)(nil)

// NewGeminiProvider creates a provider bound to one operation. Custom prompts
// apply to that operation only; the other methods use the built-in prompts.
func NewGeminiProvider(cfg config.OperationAIConfig, operation string, prompts config.LoadedPrompts, logger *appErrors.Logger) (*GeminiProvider, error) {
	if logger == nil {
		logger = appErrors.NewNopLogger()
	}
	if cfg.APIKey == "" {
		return nil, appErrors.NewConfigError(appErrors.ErrCodeMissingAPIKey,
			fmt.Sprintf("Gemini API key is required for %s", operation), nil)
	}
	if cfg.Timeout == nil || cfg.MaxRetries == nil || cfg.Temperature == nil || cfg.UseSystemPrompts == nil {
		return nil, appErrors.NewConfigError(appErrors.ErrCodeInvalidConfig,
			"AI operation config must be resolved with GetOperationConfig", nil)
	}

	clientCfg := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: *cfg.Timeout},
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(context.Background(), clientCfg)
	if err != nil {
		return nil, appErrors.NewAIError(appErrors.ErrCodeAIServiceFailed,
			"Failed to create Gemini client", err)
	}

	return &GeminiProvider{
		client:         client,
		config:         cfg,
		operation:      operation,
		prompts:        prompts,
		circuitBreaker: NewAICircuitBreaker(operation, cfg.CircuitBreaker, logger),
		modelBreaker:   NewModelCircuitBreaker(operation, cfg.CircuitBreaker, logger),
		logger:         logger,
		sleep:          sleepContext,
	}, nil
}

func (g *GeminiProvider) Name() string { return config.ProviderGemini }

// GetModelInfo checks the readiness and availability of the configured model
func (g *GeminiProvider) GetModelInfo(ctx context.Context) *ModelInfo {
	info := &ModelInfo{Provider: config.ProviderGemini, Name: g.config.Model}

	checkCtx, cancel := context.WithTimeout(ctx, modelCheckTimeout)
	defer cancel()

	model, err := g.modelBreaker.Execute(func() (*genai.Model, error) {
		return g.client.Models.Get(checkCtx, g.config.Model, &genai.GetModelConfig{})
	})
	if err != nil {
		info.Error = fmt.Sprintf("Failed to get model info: %v", err)
		g.logger.Warn("Model availability check failed",
			"model", g.config.Model,
			"operation", g.operation,
			"error", err.Error())
		return info
	}

	info.Available = true
	info.DisplayName = model.DisplayName
	info.Version = model.Version
	return info
}

// CircuitBreakerStats reports both breakers for the health endpoint.
func (g *GeminiProvider) CircuitBreakerStats() map[string]any {
	return map[string]any{
		"ai_operations":    g.circuitBreaker.GetStats(),
		"model_operations": g.modelBreaker.GetStats(),
		"overall_healthy":  g.circuitBreaker.IsHealthy() && g.modelBreaker.IsHealthy(),
	}
}

func (g *GeminiProvider) Close() error { return nil }

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// backoffDelay is 2^(attempt-1) seconds plus up to 10% jitter, capped at 30s.
func backoffDelay(attempt int) time.Duration {
	base := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
	var jitter time.Duration
	if limit := int64(float64(base) * 0.1); limit > 0 {
		if n, err := rand.Int(rand.Reader, big.NewInt(limit)); err == nil {
			jitter = time.Duration(n.Int64())
		}
	}
	return min(base+jitter, 30*time.Second)
}

// executeWithRetry retries fn on transient failures with exponential backoff
func (g *GeminiProvider) executeWithRetry(ctx context.Context, operation string, fn func() (*genai.GenerateContentResponse, error)) (*genai.GenerateContentResponse, error) {
	maxRetries := *g.config.MaxRetries
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			g.logger.Warn("Retrying AI operation",
				"operation", operation,
				"attempt", attempt,
				"max_retries", maxRetries,
				"error", lastErr.Error())
			if err := g.sleep(ctx, backoffDelay(attempt)); err != nil {
				return nil, err
			}
		}

		result, err := fn()
		if err == nil {
			if attempt > 0 {
				g.logger.Info("AI operation succeeded after retry",
					"operation", operation,
					"total_attempts", attempt+1)
			}
			return result, nil
		}
		lastErr = err

		if !isRetryableError(err) {
			break
		}
	}

	g.logger.LogError(lastErr, "AI operation failed",
		"operation", operation,
		"max_retries", maxRetries)
	return nil, fmt.Errorf("operation '%s' failed: %w", operation, lastErr)
}

// isRetryableError reports whether err is a network failure or a transient
// HTTP status from the API.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
	}
	return false
}

// promptsFor returns the system prompt and the unformatted user template.
func (g *GeminiProvider) promptsFor(operation string) (string, string) {
	system, user := DefaultSystemPrompts[operation], DefaultUserPrompts[operation]
	if operation == g.operation {
		system = resolvePrompt(g.prompts.System, system)
		user = resolvePrompt(g.prompts.User, user)
	}
	return system, user
}

// executeAIOperation runs one structured generation with tracing, breaker and
// retry, decoding the JSON answer into Out.
func executeAIOperation[Out any](
	ctx context.Context,
	g *GeminiProvider,
	operation string,
	userPrompt string,
	systemPrompt string,
	genaiConfig *genai.GenerateContentConfig,
	spanAttributes ...attribute.KeyValue,
) (Out, *TokenUsage, error) {
	var output Out
	ctx, span := otel.Tracer("atspro.ai.gemini").Start(ctx, "gemini."+operation)
	defer span.End()

	span.SetAttributes(
		attribute.String("ai.provider", config.ProviderGemini),
		attribute.String("ai.model", g.config.Model),
		attribute.Float64("ai.temperature", float64(*g.config.Temperature)),
	)
	span.SetAttributes(spanAttributes...)

	if *g.config.UseSystemPrompts && systemPrompt != "" {
		genaiConfig.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}
	if *g.config.Temperature > 0 {
		genaiConfig.Temperature = g.config.Temperature
	}

	result, err := g.circuitBreaker.Execute(func() (*genai.GenerateContentResponse, error) {
		return g.executeWithRetry(ctx, operation, func() (*genai.GenerateContentResponse, error) {
			return g.client.Models.GenerateContent(ctx, g.config.Model, genai.Text(userPrompt), genaiConfig)
		})
	})
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return output, nil, appErrors.NewAIError(appErrors.ErrCodeAIServiceFailed,
			"The AI service could not complete the request. Please try again.", err).
			WithContext("operation", operation)
	}

	if err := json.Unmarshal([]byte(result.Text()), &output); err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return output, nil, appErrors.NewAIError(appErrors.ErrCodeAIServiceFailed,
			"The AI service returned an unreadable answer. Please try again.", err).
			WithContext("operation", operation)
	}

	usage := extractTokenUsage(result)
	if usage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", usage.InputTokens),
			attribute.Int64("ai.tokens.output", usage.OutputTokens),
			attribute.Int64("ai.tokens.total", usage.TotalTokens),
		)
	}
	span.SetAttributes(attribute.Bool("success", true))
	return output, usage, nil
}

// MatchResume scores a resume against a job posting
func (g *GeminiProvider) MatchResume(ctx context.Context, input types.MatchResumeInput) (types.MatchResumeOutput, *TokenUsage, error) {
	system, user := g.promptsFor(config.OpResumeMatch)
	out, usage, err := executeAIOperation[types.MatchResumeOutput](ctx, g, "resume_match",
		fmt.Sprintf(user, jobText(input), input.Resume), system, buildMatchSchema(),
		attribute.Int("input.resume_length", len(input.Resume)),
		attribute.Int("input.job_length", len(input.JobDescription)),
	)
	if err != nil {
		return types.MatchResumeOutput{}, nil, err
	}
	out.MatchScore = clampFloat(out.MatchScore, 0, 100)
	return out, usage, nil
}

// SummarizeInterview structures an interview transcript
func (g *GeminiProvider) SummarizeInterview(ctx context.Context, input types.SummarizeInterviewInput) (types.SummarizeInterviewOutput, *TokenUsage, error) {
	system, user := g.promptsFor(config.OpInterviewSummary)
	out, usage, err := executeAIOperation[types.SummarizeInterviewOutput](ctx, g, "interview_summary",
		fmt.Sprintf(user, input.InterviewType, input.Transcript), system, buildInterviewSchema(),
		attribute.Int("input.transcript_length", len(input.Transcript)),
	)
	if err != nil {
		return types.SummarizeInterviewOutput{}, nil, err
	}
	clampInterviewScores(&out)
	return out, usage, nil
}

// SummarizeChat extracts candidate facts from a chat transcript
func (g *GeminiProvider) SummarizeChat(ctx context.Context, input types.SummarizeChatInput) (types.SummarizeChatOutput, *TokenUsage, error) {
	system, user := g.promptsFor(config.OpChatSummary)
	out, usage, err := executeAIOperation[types.SummarizeChatOutput](ctx, g, "chat_summary",
		fmt.Sprintf(user, strings.Join(input.Transcript, "\n")), system, buildChatSchema(),
		attribute.Int("input.messages", len(input.Transcript)),
	)
	if err != nil {
		return types.SummarizeChatOutput{}, nil, err
	}
	out.ConfidenceScore = clampFloat(out.ConfidenceScore, 0, 1)
	if !out.InterestLevel.Valid() {
		out.InterestLevel = ""
	}
	return out, usage, nil
}

// DetectBias screens recruiter-written content for biased language
func (g *GeminiProvider) DetectBias(ctx context.Context, input types.DetectBiasInput) (types.DetectBiasOutput, *TokenUsage, error) {
	system, user := g.promptsFor(config.OpBiasDetection)
	out, usage, err := executeAIOperation[types.DetectBiasOutput](ctx, g, "bias_detection",
		fmt.Sprintf(user, strings.ReplaceAll(string(input.SourceType), "_", " "), input.Content), system, buildBiasSchema(),
		attribute.Int("input.content_length", len(input.Content)),
		attribute.String("input.source_type", string(input.SourceType)),
	)
	if err != nil {
		return types.DetectBiasOutput{}, nil, err
	}
	if !out.SeverityLevel.Valid() {
		return types.DetectBiasOutput{}, nil, appErrors.NewAIError(appErrors.ErrCodeAIServiceFailed,
			"The AI service returned an unreadable answer. Please try again.",
			fmt.Errorf("unknown severity %q", out.SeverityLevel))
	}
	return out, usage, nil
}

// jobText renders the posting section of the match prompt.
func jobText(input types.MatchResumeInput) string {
	var b strings.Builder
	if input.JobTitle != "" {
		fmt.Fprintf(&b, "Title: %s\n\n", input.JobTitle)
	}
	b.WriteString(input.JobDescription)
	if len(input.RequiredSkills) > 0 {
		fmt.Fprintf(&b, "\n\nRequired skills: %s", strings.Join(input.RequiredSkills, ", "))
	}
	return b.String()
}

// extractTokenUsage extracts token usage information from Gemini API response
func extractTokenUsage(result *genai.GenerateContentResponse) *TokenUsage {
	if result == nil || result.UsageMetadata == nil {
		return nil
	}
	usage := result.UsageMetadata
	return &TokenUsage{
		InputTokens:  int64(usage.PromptTokenCount),
		OutputTokens: int64(usage.CandidatesTokenCount),
		TotalTokens:  int64(usage.TotalTokenCount),
	}
}
