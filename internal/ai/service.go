package ai

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"atspro/internal/config"
	"atspro/internal/errors"
	"atspro/internal/observability"
	"atspro/internal/types"
)

// Service routes each AI operation to the provider configured for it and
// records metrics around every call.
type Service struct {
	providers map[string]AIProvider
	obs       *observability.ObservabilityManager
	logger    *errors.Logger
}

// NewService builds one provider per operation from cfg.
func NewService(cfg *config.Config, obs *observability.ObservabilityManager, logger *errors.Logger) (*Service, error) {
	if logger == nil {
		logger = errors.NewNopLogger()
	}
	s := &Service{providers: make(map[string]AIProvider, len(config.Operations)), obs: obs, logger: logger}

	for _, op := range config.Operations {
		opCfg := cfg.GetOperationConfig(op)
		logger.Debug("Initializing AI provider",
			"operation", op,
			"provider", opCfg.Provider,
			"model", opCfg.Model)

		var (
			provider AIProvider
			err      error
		)
		switch opCfg.Provider {
		case config.ProviderGemini:
			provider, err = NewGeminiProvider(opCfg, op, cfg.GetPrompts(op), logger)
		case config.ProviderLocal, "":
			provider = NewLocalProvider()
		default:
			err = errors.NewConfigError(errors.ErrCodeInvalidConfig,
				fmt.Sprintf("Unsupported AI provider %q for %s", opCfg.Provider, op), nil)
		}
		if err != nil {
			_ = s.Close()
			return nil, err
		}
		s.providers[op] = provider
	}
	return s, nil
}

// NewServiceWithProvider serves every operation from one provider.
func NewServiceWithProvider(provider AIProvider, obs *observability.ObservabilityManager, logger *errors.Logger) *Service {
	if logger == nil {
		logger = errors.NewNopLogger()
	}
	s := &Service{providers: make(map[string]AIProvider, len(config.Operations)), obs: obs, logger: logger}
	for _, op := range config.Operations {
		s.providers[op] = provider
	}
	return s
}

// ProviderName reports which backend serves op.
func (s *Service) ProviderName(op string) string {
	if p, ok := s.providers[op]; ok {
		return p.Name()
	}
	return ""
}

func run[In, Out any](ctx context.Context, s *Service, op string, input In,
	call func(AIProvider, context.Context, In) (Out, *TokenUsage, error)) (Out, error) {
	var out Out
	provider, ok := s.providers[op]
	if !ok {
		return out, errors.NewAIError(errors.ErrCodeAIUnavailable, "This AI tool is not available right now.", nil).
			WithContext("operation", op)
	}

	err := s.obs.TrackAIOperation(ctx, op, provider.Name(), func(ctx context.Context) (*observability.AIUsage, error) {
		var (
			usage *TokenUsage
			err   error
		)
		out, usage, err = call(provider, ctx, input)
		if usage == nil {
			return nil, err
		}
		return &observability.AIUsage{InputTokens: usage.InputTokens, OutputTokens: usage.OutputTokens}, err
	})
	if err != nil {
		err = classify(err, op)
		s.logger.LogError(err, "AI operation failed", "operation", op, "provider", provider.Name())
		return out, err
	}
	s.logger.Debug("AI operation completed", "operation", op, "provider", provider.Name())
	return out, nil
}

// classify turns raw provider failures into AppErrors.
func classify(err error, op string) error {
	if _, ok := errors.As(err); ok {
		return err
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.NewAIError(errors.ErrCodeAITimeout, "The AI service took too long to respond. Please try again.", err).
			WithContext("operation", op)
	}
	return errors.NewAIError(errors.ErrCodeAIServiceFailed, "The AI service could not complete the request. Please try again.", err).
		WithContext("operation", op)
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, fmt.Sprintf("%s is required.", field), nil)
	}
	return nil
}

// MatchResume scores a resume against a job posting
func (s *Service) MatchResume(ctx context.Context, input types.MatchResumeInput) (types.MatchResumeOutput, error) {
	if err := required("Resume", input.Resume); err != nil {
		return types.MatchResumeOutput{}, err
	}
	if err := required("Job description", input.JobDescription); err != nil {
		return types.MatchResumeOutput{}, err
	}
	return run(ctx, s, config.OpResumeMatch, input, AIProvider.MatchResume)
}

// SummarizeInterview structures an interview transcript
func (s *Service) SummarizeInterview(ctx context.Context, input types.SummarizeInterviewInput) (types.SummarizeInterviewOutput, error) {
	if err := required("Transcript", input.Transcript); err != nil {
		return types.SummarizeInterviewOutput{}, err
	}
	return run(ctx, s, config.OpInterviewSummary, input, AIProvider.SummarizeInterview)
}

// SummarizeChat analyses a recruiter/candidate conversation
func (s *Service) SummarizeChat(ctx context.Context, input types.SummarizeChatInput) (types.SummarizeChatOutput, error) {
	if err := required("Transcript", strings.Join(input.Transcript, "")); err != nil {
		return types.SummarizeChatOutput{}, err
	}
	return run(ctx, s, config.OpChatSummary, input, AIProvider.SummarizeChat)
}

// DetectBias screens recruiter-written content
func (s *Service) DetectBias(ctx context.Context, input types.DetectBiasInput) (types.DetectBiasOutput, error) {
	if err := required("Content", input.Content); err != nil {
		return types.DetectBiasOutput{}, err
	}
	return run(ctx, s, config.OpBiasDetection, input, AIProvider.DetectBias)
}

// ModelInfo reports model availability per operation for health checks.
func (s *Service) ModelInfo(ctx context.Context) map[string]*ModelInfo {
	info := make(map[string]*ModelInfo, len(s.providers))
	for op, p := range s.providers {
		info[op] = p.GetModelInfo(ctx)
	}
	return info
}

// CircuitBreakerStats collects breaker state from providers that have one.
func (s *Service) CircuitBreakerStats() map[string]any {
	stats := map[string]any{}
	for op, p := range s.providers {
		if b, ok := p.(interface{ CircuitBreakerStats() map[string]any }); ok {
			stats[op] = b.CircuitBreakerStats()
		}
	}
	return stats
}

// Close releases every distinct provider once.
func (s *Service) Close() error {
	seen := map[AIProvider]bool{}
	var errs []error
	for _, p := range s.providers {
		if p == nil || seen[p] {
			continue
		}
		seen[p] = true
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}
