package ai

import (
	"context"

	"atspro/internal/types"
)

// AIProvider is implemented by every backend that can serve the AI tools.
// Token usage may be nil when the backend does not report it.
type AIProvider interface {
	MatchResume(ctx context.Context, input types.MatchResumeInput) (types.MatchResumeOutput, *TokenUsage, error)
	SummarizeInterview(ctx context.Context, input types.SummarizeInterviewInput) (types.SummarizeInterviewOutput, *TokenUsage, error)
	SummarizeChat(ctx context.Context, input types.SummarizeChatInput) (types.SummarizeChatOutput, *TokenUsage, error)
	DetectBias(ctx context.Context, input types.DetectBiasInput) (types.DetectBiasOutput, *TokenUsage, error)
	Name() string
	GetModelInfo(ctx context.Context) *ModelInfo
	Close() error
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// ModelInfo represents information about the AI model
type ModelInfo struct {
	Provider    string `json:"provider"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version,omitempty"`
	Available   bool   `json:"available"`
	Error       string `json:"error,omitempty"`
}
