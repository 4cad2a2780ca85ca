// Package llm talks to an OpenAI-compatible chat completion endpoint for the
// two model calls a book query makes.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	apperrors "library-ai-workers/internal/common/errors"
	"library-ai-workers/internal/common/logger"
	"library-ai-workers/internal/common/metrics"
)

const (
	OperationClassify = "classify_intent"
	OperationAnswer   = "generate_answer"
)

type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Timeout     time.Duration
	MaxRetries  int
	Temperature float64
}

// OpenAIClient implements aiquery.LanguageModel. Retries are off unless
// MaxRetries is set, so one failed call fails the query.
type OpenAIClient struct {
	client      openai.Client
	model       string
	temperature float64
	timeout     time.Duration
	log         logger.Logger
}

func NewOpenAIClient(cfg Config, httpClient *http.Client, log logger.Logger) *OpenAIClient {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}

	return &OpenAIClient{
		client:      openai.NewClient(opts...),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout,
		log:         logger.ForComponent(log, "llm"),
	}
}

// ClassifyIntent returns the model's raw text; it is usually JSON, sometimes
// wrapped in a markdown fence.
func (c *OpenAIClient) ClassifyIntent(ctx context.Context, query, contextDescription string) (string, error) {
	return c.complete(ctx, OperationClassify,
		buildClassifySystemPrompt(),
		buildClassifyUserPrompt(query, contextDescription),
	)
}

func (c *OpenAIClient) GenerateAnswer(ctx context.Context, query, serializedData string) (string, error) {
	return c.complete(ctx, OperationAnswer,
		answerSystemPrompt,
		buildAnswerUserPrompt(query, serializedData),
	)
}

func (c *OpenAIClient) complete(ctx context.Context, operation, systemPrompt, userPrompt string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	completion, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
		Temperature: openai.Float(c.temperature),
	})
	duration := time.Since(start)

	if err != nil {
		metrics.LLMCallDuration.WithLabelValues(operation, metrics.OutcomeFailure).Observe(duration.Seconds())
		return "", c.mapError(ctx, operation, err)
	}
	if len(completion.Choices) == 0 {
		metrics.LLMCallDuration.WithLabelValues(operation, metrics.OutcomeFailure).Observe(duration.Seconds())
		return "", apperrors.NewExternalServiceError("language-model", fmt.Errorf("%s: no choices in completion", operation))
	}

	metrics.LLMCallDuration.WithLabelValues(operation, metrics.OutcomeSuccess).Observe(duration.Seconds())
	content := strings.TrimSpace(completion.Choices[0].Message.Content)

	c.log.Debug("Model call completed", map[string]interface{}{
		"operation":        operation,
		"model":            c.model,
		"durationMs":       duration.Milliseconds(),
		"promptTokens":     completion.Usage.PromptTokens,
		"completionTokens": completion.Usage.CompletionTokens,
	})
	return content, nil
}

func (c *OpenAIClient) mapError(ctx context.Context, operation string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return apperrors.NewLLMTimeoutError(operation, err)
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		c.log.Warn("Model API returned an error", map[string]interface{}{
			"operation":  operation,
			"statusCode": apiErr.StatusCode,
		})
		return apperrors.NewExternalServiceError("language-model", fmt.Errorf("%s: status %d: %w", operation, apiErr.StatusCode, err))
	}

	return apperrors.NewExternalServiceError("language-model", fmt.Errorf("%s: %w", operation, err))
}
