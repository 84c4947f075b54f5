package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/allerpredict/allerpredict/internal/domain"
)

// BackendName identifies this generation backend in metrics and health output.
const BackendName = "openai"

// GeneratorConfig holds the chat completion settings.
type GeneratorConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	Timeout     time.Duration
	Logger      *zap.Logger
}

// Generator produces text through the OpenAI-compatible chat completion API.
// The prompt is sent as a single user message.
type Generator struct {
	client      *openai.Client
	model       string
	temperature float32
	timeout     time.Duration
	logger      *zap.Logger
}

// NewGenerator creates a chat completion generator.
func NewGenerator(cfg *GeneratorConfig) *Generator {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		client:      newClient(cfg.APIKey, cfg.BaseURL, 0),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout,
		logger:      logger,
	}
}

// Backend implements domain.GenerationBackend.
func (g *Generator) Backend() string { return BackendName }

// Model implements domain.GenerationBackend.
func (g *Generator) Model() string { return g.model }

// Generate implements domain.Generator.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: g.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", classifyChatError(ctx, err)
	}

	if len(resp.Choices) == 0 {
		return "", domain.NewGenerationError(domain.FailureEmptyOutput, errors.New("no choices in response"))
	}
	out := resp.Choices[0].Message.Content
	if strings.TrimSpace(out) == "" {
		return "", domain.NewGenerationError(domain.FailureEmptyOutput, nil)
	}

	g.logger.Debug("Chat completion finished",
		zap.String("model", g.model),
		zap.String("finish_reason", string(resp.Choices[0].FinishReason)),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
	)
	return out, nil
}

// HealthCheck verifies API availability via ListModels.
func (g *Generator) HealthCheck(ctx context.Context) error {
	if _, err := g.client.ListModels(ctx); err != nil {
		return domain.NewGenerationError(domain.FailureProvider, fmt.Errorf("list models: %w", err))
	}
	return nil
}

func classifyChatError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return domain.NewGenerationError(domain.FailureTimeout, err)
	case errors.Is(err, context.Canceled):
		return domain.NewGenerationError(domain.FailureCanceled, err)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		kind := domain.FailureProvider
		if apiErr.HTTPStatusCode == http.StatusNotFound {
			kind = domain.FailureNotFound
		}
		return domain.NewGenerationError(kind, fmt.Errorf("chat API error %d: %s", apiErr.HTTPStatusCode, apiErr.Message))
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		kind := domain.FailureProvider
		if reqErr.HTTPStatusCode == http.StatusNotFound {
			kind = domain.FailureNotFound
		}
		detail := extractDetail(reqErr.Body)
		if detail == "" {
			detail = string(reqErr.Body)
		}
		return domain.NewGenerationError(kind, fmt.Errorf("chat API error %d: %s", reqErr.HTTPStatusCode, detail))
	}

	return domain.NewGenerationError(domain.FailureProvider, err)
}
