package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
)

// GroqConfig configures the Groq-backed completion client. Groq exposes an
// OpenAI-compatible chat-completions API, so the client is built on the
// OpenAI SDK with a custom base URL.
type GroqConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	// Timeout bounds each individual upstream call.
	Timeout time.Duration
	// MaxRetries is the number of additional attempts after a transport
	// failure. Provider rejections (4xx) are never retried.
	MaxRetries int
}

// GroqClient calls the Groq chat-completions API. It is stateless and safe
// for concurrent use; construct one at startup and share it.
type GroqClient struct {
	client     *openai.Client
	model      string
	timeout    time.Duration
	maxRetries int
	logger     zerolog.Logger
}

// NewGroqClient constructs a Groq-backed LLM client.
func NewGroqClient(cfg GroqConfig, logger zerolog.Logger) *GroqClient {
	oaCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oaCfg.BaseURL = cfg.BaseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &GroqClient{
		client:     openai.NewClientWithConfig(oaCfg),
		model:      cfg.Model,
		timeout:    timeout,
		maxRetries: cfg.MaxRetries,
		logger:     logger,
	}
}

// Complete sends the request to the chat-completions API and returns the
// first choice's content. Transport failures are retried with exponential
// backoff up to the configured limit.
func (c *GroqClient) Complete(ctx context.Context, req Request) (string, error) {
	oaMsgs := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		oaMsgs = append(oaMsgs, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	for _, m := range req.Messages {
		role := m.Role
		if role != openai.ChatMessageRoleUser && role != openai.ChatMessageRoleAssistant {
			// coerce anything unknown to user
			role = openai.ChatMessageRoleUser
		}
		oaMsgs = append(oaMsgs, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	var lastErr error
	backoff := 500 * time.Millisecond
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.logger.Warn().
				Err(lastErr).
				Int("attempt", attempt).
				Msg("retrying upstream model call")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", fmt.Errorf("%w: %v", ErrUpstream, ctx.Err())
			}
			backoff *= 2
		}

		content, err := c.completeOnce(ctx, req, oaMsgs)
		if err == nil {
			return content, nil
		}
		lastErr = err
		if !retryable(err) {
			return "", err
		}
	}
	return "", lastErr
}

func (c *GroqClient) completeOnce(ctx context.Context, req Request, msgs []openai.ChatCompletionMessage) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    msgs,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return "", fmt.Errorf("%w after %s", ErrTimeout, c.timeout)
		}
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("%w: %w", ErrUpstream, apiErr)
		}
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty response", ErrUpstream)
	}
	return resp.Choices[0].Message.Content, nil
}

// retryable reports whether an attempt failed in a way a retry could fix:
// network errors and 5xx responses. Timeouts and 4xx rejections are final.
func retryable(err error) bool {
	if errors.Is(err, ErrTimeout) {
		return false
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode >= 500
	}
	return errors.Is(err, ErrUpstream)
}
