package advisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	openai "github.com/sashabaranov/go-openai"

	"github.com/FOLIOGEN/foliogen/internal/models"
)

// Provider names accepted in requests and configuration.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderMock      = "mock"
)

// Default models per provider, used when a request names none.
const (
	DefaultOpenAIModel    = "gpt-3.5-turbo"
	DefaultAnthropicModel = "claude-sonnet-4-20250514"
)

const (
	// maxAttempts bounds provider calls per generation: the first try plus
	// one retry on a retryable transport failure.
	maxAttempts = 2

	// retryBaseDelay is the wait before the retry, on top of jitter.
	retryBaseDelay = 1 * time.Second

	defaultCallTimeout  = 60 * time.Second
	samplingTemperature = 0.7
	anthropicMaxTokens  = 4096
)

// Advisor generates a validated portfolio from an investment thesis.
type Advisor interface {
	Generate(ctx context.Context, req Request) (*Result, error)
}

// Request carries one generation's inputs. APIKey belongs to the submitting
// user and must never reach logs or telemetry.
type Request struct {
	Thesis   string
	APIKey   string
	Provider string
	Model    string
}

// Usage reports token consumption as the provider accounted it. Anthropic's
// input and output tokens map onto the same two fields.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// Result is one successful generation.
type Result struct {
	Portfolio     models.PortfolioResponse
	Normalization Normalization
	Provider      string
	Model         string
	Usage         Usage
	Attempts      int
	Duration      time.Duration
}

// Config controls provider selection and call behavior.
type Config struct {
	DefaultProvider string        // provider used when a request names none
	OpenAIModel     string        // default model for openai requests
	AnthropicModel  string        // default model for anthropic requests
	Timeout         time.Duration // per-attempt deadline
}

// Client produces portfolios through LLM provider APIs. Provider SDK clients
// are constructed per call because credentials arrive with each request.
type Client struct {
	cfg     Config
	prompts PromptTemplates
	logger  *slog.Logger
}

// NewClient creates a provider-backed advisor. Zero config fields fall back
// to defaults.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.DefaultProvider == "" {
		cfg.DefaultProvider = ProviderOpenAI
	}
	if cfg.OpenAIModel == "" {
		cfg.OpenAIModel = DefaultOpenAIModel
	}
	if cfg.AnthropicModel == "" {
		cfg.AnthropicModel = DefaultAnthropicModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultCallTimeout
	}
	return &Client{
		cfg:     cfg,
		prompts: DefaultPromptTemplates(),
		logger:  logger,
	}
}

// Generate builds the prompt, calls the selected provider under the
// configured timeout with at most one retry, and validates the reply.
func (c *Client) Generate(ctx context.Context, req Request) (*Result, error) {
	provider := req.Provider
	if provider == "" {
		provider = c.cfg.DefaultProvider
	}
	model := req.Model
	if model == "" {
		model = c.defaultModel(provider)
	}

	prompt := c.prompts.BuildPortfolioPrompt(req.Thesis)

	start := time.Now()
	var (
		text    string
		usage   Usage
		callErr error
	)
	attempts := 0
	for attempt := 0; attempt < maxAttempts; attempt++ {
		attempts++
		callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
		text, usage, callErr = c.call(callCtx, provider, model, req.APIKey, prompt)
		cancel()
		if callErr == nil {
			break
		}

		if attempt+1 < maxAttempts && isRetryableError(callErr) {
			delay := retryBaseDelay + time.Duration(rand.Intn(500))*time.Millisecond
			c.logger.Warn("provider call failed, retrying",
				"provider", provider,
				"model", model,
				"attempt", attempts,
				"delay", delay,
				"error", callErr)
			select {
			case <-time.After(delay):
				continue
			case <-ctx.Done():
			}
		}
		break
	}
	duration := time.Since(start)

	if callErr != nil {
		return nil, &TransportError{
			Provider: provider,
			Attempts: attempts,
			Timeout:  isTimeoutError(callErr),
			Err:      callErr,
		}
	}

	portfolio, norm, err := ParsePortfolio(text)
	if err != nil {
		return nil, err
	}

	c.logger.Info("portfolio generated",
		"provider", provider,
		"model", model,
		"assets", len(portfolio.Portfolio),
		"normalization_applied", norm.Applied,
		"attempts", attempts,
		"duration_ms", duration.Milliseconds())

	return &Result{
		Portfolio:     portfolio,
		Normalization: norm,
		Provider:      provider,
		Model:         model,
		Usage:         usage,
		Attempts:      attempts,
		Duration:      duration,
	}, nil
}

func (c *Client) defaultModel(provider string) string {
	if provider == ProviderAnthropic {
		return c.cfg.AnthropicModel
	}
	return c.cfg.OpenAIModel
}

func (c *Client) call(ctx context.Context, provider, model, apiKey, prompt string) (string, Usage, error) {
	switch provider {
	case ProviderOpenAI:
		return c.callOpenAI(ctx, model, apiKey, prompt)
	case ProviderAnthropic:
		return c.callAnthropic(ctx, model, apiKey, prompt)
	default:
		return "", Usage{}, fmt.Errorf("unsupported provider: %s", provider)
	}
}

func (c *Client) callOpenAI(ctx context.Context, model, apiKey, prompt string) (string, Usage, error) {
	client := openai.NewClient(apiKey)

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Temperature: samplingTemperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", Usage{}, fmt.Errorf("openai api error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", Usage{}, fmt.Errorf("no completion choices returned from model %s", model)
	}
	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", Usage{}, fmt.Errorf("empty completion from model %s (finish_reason: %s)", model, resp.Choices[0].FinishReason)
	}

	usage := Usage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}
	return content, usage, nil
}

func (c *Client) callAnthropic(ctx context.Context, model, apiKey, prompt string) (string, Usage, error) {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	message, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(model),
		MaxTokens:   anthropicMaxTokens,
		Temperature: anthropic.Float(samplingTemperature),
		System: []anthropic.TextBlockParam{
			{Text: c.prompts.JSONOnlySystem},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", Usage{}, fmt.Errorf("anthropic api error: %w", err)
	}

	if len(message.Content) == 0 {
		return "", Usage{}, fmt.Errorf("no content blocks returned from model %s", model)
	}

	usage := Usage{
		PromptTokens:     int(message.Usage.InputTokens),
		CompletionTokens: int(message.Usage.OutputTokens),
	}
	return message.Content[0].Text, usage, nil
}

// isTimeoutError reports whether the failure was deadline expiry rather
// than a refusal from the provider.
func isTimeoutError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return strings.Contains(err.Error(), "context deadline exceeded")
}

// isRetryableError classifies failures worth the single retry: rate limits,
// provider-side 5xx errors and network-level failures. Timeouts, auth and
// other client errors are final. Provider SDK errors reduce to strings here,
// matching how their status surfaces across SDK versions.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if isTimeoutError(err) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	errStr := err.Error()
	fragments := []string{
		"429",
		"Too Many Requests",
		"Rate limit",
		"rate_limit",
		"status code: 5",
		"500 Internal",
		"502 Bad Gateway",
		"503 Service",
		"overloaded_error",
		"connection refused",
		"connection reset",
		"no such host",
		"unexpected EOF",
	}
	for _, fragment := range fragments {
		if strings.Contains(errStr, fragment) {
			return true
		}
	}
	return false
}
