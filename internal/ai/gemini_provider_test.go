package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"atspro/internal/config"
	appErrors "atspro/internal/errors"
	"atspro/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

func timePtr(d time.Duration) *time.Duration { return &d }
func intPtr(i int) *int                      { return &i }
func float32Ptr(f float32) *float32          { return &f }
func boolPtr(b bool) *bool                   { return &b }

func geminiConfig(baseURL string) config.OperationAIConfig {
	return config.OperationAIConfig{
		Provider:         config.ProviderGemini,
		Model:            "gemini-test",
		BaseURL:          baseURL,
		APIKey:           "test-key",
		Timeout:          timePtr(5 * time.Second),
		MaxRetries:       intPtr(2),
		Temperature:      float32Ptr(0.2),
		UseSystemPrompts: boolPtr(true),
	}
}

// fakeGemini answers generateContent calls with payload as the model text.
func fakeGemini(t *testing.T, payload any, seen *string) *httptest.Server {
	t.Helper()
	text, err := json.Marshal(payload)
	require.NoError(t, err)

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, ":generateContent") {
			http.NotFound(w, r)
			return
		}
		body, _ := io.ReadAll(r.Body)
		if seen != nil {
			*seen = string(body)
		}
		resp := map[string]any{
			"candidates": []any{map[string]any{
				"content":      map[string]any{"role": "model", "parts": []any{map[string]any{"text": string(text)}}},
				"finishReason": "STOP",
			}},
			"usageMetadata": map[string]any{"promptTokenCount": 11, "candidatesTokenCount": 7, "totalTokenCount": 18},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestGeminiMatchResume(t *testing.T) {
	var body string
	srv := fakeGemini(t, types.MatchResumeOutput{MatchScore: 140, Summary: "Strong backend profile"}, &body)
	defer srv.Close()

	g, err := NewGeminiProvider(geminiConfig(srv.URL), config.OpResumeMatch,
		config.LoadedPrompts{System: "custom recruiter persona"}, nil)
	require.NoError(t, err)

	out, usage, err := g.MatchResume(context.Background(), types.MatchResumeInput{
		Resume:         "Go engineer with Kubernetes",
		JobDescription: "Platform role",
		JobTitle:       "SRE",
	})
	require.NoError(t, err)
	assert.Equal(t, 100.0, out.MatchScore, "scores are clamped to 0..100")
	assert.Equal(t, "Strong backend profile", out.Summary)
	require.NotNil(t, usage)
	assert.Equal(t, int64(11), usage.InputTokens)
	assert.Equal(t, int64(18), usage.TotalTokens)

	assert.Contains(t, body, "Go engineer with Kubernetes")
	assert.Contains(t, body, "Title: SRE")
	assert.Contains(t, body, "custom recruiter persona")
}

func TestGeminiDetectBiasRejectsUnknownSeverity(t *testing.T) {
	srv := fakeGemini(t, map[string]any{"severity_level": "apocalyptic"}, nil)
	defer srv.Close()

	g, err := NewGeminiProvider(geminiConfig(srv.URL), config.OpBiasDetection, config.LoadedPrompts{}, nil)
	require.NoError(t, err)

	_, _, err = g.DetectBias(context.Background(), types.DetectBiasInput{Content: "text"})
	assert.True(t, appErrors.Is(err, appErrors.ErrorTypeAI))
}

func TestNewGeminiProviderRequiresKey(t *testing.T) {
	cfg := geminiConfig("")
	cfg.APIKey = ""
	_, err := NewGeminiProvider(cfg, config.OpResumeMatch, config.LoadedPrompts{}, nil)
	appErr, ok := appErrors.As(err)
	require.True(t, ok)
	assert.Equal(t, appErrors.ErrCodeMissingAPIKey, appErr.Code)

	cfg = geminiConfig("")
	cfg.Timeout = nil
	_, err = NewGeminiProvider(cfg, config.OpResumeMatch, config.LoadedPrompts{}, nil)
	assert.True(t, appErrors.Is(err, appErrors.ErrorTypeConfig))
}

func TestPromptsFor(t *testing.T) {
	g := &GeminiProvider{operation: config.OpChatSummary, prompts: config.LoadedPrompts{User: "custom %s"}}

	system, user := g.promptsFor(config.OpChatSummary)
	assert.Equal(t, DefaultSystemPrompts[config.OpChatSummary], system)
	assert.Equal(t, "custom %s", user)

	_, user = g.promptsFor(config.OpBiasDetection)
	assert.Equal(t, DefaultUserPrompts[config.OpBiasDetection], user, "custom prompts stay with their operation")

	for _, op := range config.Operations {
		assert.NotEmpty(t, DefaultSystemPrompts[op], op)
		assert.NotEmpty(t, DefaultUserPrompts[op], op)
	}
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		err       error
		retryable bool
	}{
		{nil, false},
		{errors.New("bad request"), false},
		{context.Canceled, false},
		{timeoutErr{}, true},
		{&googleapi.Error{Code: http.StatusTooManyRequests}, true},
		{&googleapi.Error{Code: http.StatusServiceUnavailable}, true},
		{fmt.Errorf("wrapped: %w", &googleapi.Error{Code: http.StatusBadGateway}), true},
		{&googleapi.Error{Code: http.StatusBadRequest}, false},
		{&googleapi.Error{Code: http.StatusUnauthorized}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.retryable, isRetryableError(tt.err), "%v", tt.err)
	}
}

func TestExecuteWithRetry(t *testing.T) {
	var delays []time.Duration
	g := &GeminiProvider{
		config: geminiConfig(""),
		logger: appErrors.NewNopLogger(),
		sleep: func(_ context.Context, d time.Duration) error {
			delays = append(delays, d)
			return nil
		},
	}

	attempts := 0
	resp, err := g.executeWithRetry(context.Background(), "resume_match", func() (*genai.GenerateContentResponse, error) {
		attempts++
		if attempts < 3 {
			return nil, &googleapi.Error{Code: http.StatusServiceUnavailable}
		}
		return &genai.GenerateContentResponse{}, nil
	})
	require.NoError(t, err)
	assert.NotNil(t, resp)
	assert.Equal(t, 3, attempts)
	require.Len(t, delays, 2)
	assert.GreaterOrEqual(t, delays[0], time.Second)
	assert.GreaterOrEqual(t, delays[1], 2*time.Second)

	attempts = 0
	_, err = g.executeWithRetry(context.Background(), "resume_match", func() (*genai.GenerateContentResponse, error) {
		attempts++
		return nil, &googleapi.Error{Code: http.StatusBadRequest}
	})
	assert.Error(t, err)
	assert.Equal(t, 1, attempts, "client errors are not retried")
}

func TestBackoffDelayIsCapped(t *testing.T) {
	assert.GreaterOrEqual(t, backoffDelay(1), time.Second)
	assert.Less(t, backoffDelay(1), 1100*time.Millisecond+time.Millisecond)
	assert.Equal(t, 30*time.Second, backoffDelay(10))
}
