package explain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/robottwo/codexplain/internal/styles"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL             = "https://api.openai.com/v1"
	DefaultModel               = openai.GPT3Dot5Turbo
	DefaultTemperature         = 0.3
	DefaultMaxTokens           = 500
	DefaultRateLimitWait       = 20 * time.Second
	DefaultMaxRateLimitRetries = 3
)

const SystemPrompt = "Explain code in simple terms for beginners."

var (
	ErrNoCredential    = errors.New("no API credential configured")
	ErrRateLimited     = errors.New("rate limit retries exhausted")
	ErrEmptyCompletion = errors.New("completion contained no text")
)

// UserPrompt embeds code in the fixed instruction sent as the user message.
func UserPrompt(code string) string {
	return fmt.Sprintf(`Explain this code:

%s

Focus on:
1. Purpose
2. Key components
3. Example usage
4. Common pitfalls`, code)
}

// RemoteConfig is everything the remote explainer needs. The credential is
// passed in here rather than read from the environment.
type RemoteConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int

	// RateLimitWait is the pause before re-sending a request rejected with 429.
	RateLimitWait time.Duration
	// MaxRateLimitRetries caps how many times a 429 is retried. Zero disables retrying.
	MaxRateLimitRetries int

	RequestTimeout time.Duration
	UserAgent      string
	// Headers are extra headers sent with every request.
	Headers map[string]string
}

type RemoteExplainer struct {
	llmClient *openai.Client
	config    RemoteConfig
	out       io.Writer
	styles    *styles.Styler
	logger    *zap.Logger
	sleep     func(ctx context.Context, d time.Duration) error
}

func NewRemoteExplainer(config RemoteConfig, out io.Writer, logger *zap.Logger) (*RemoteExplainer, error) {
	if strings.TrimSpace(config.APIKey) == "" {
		return nil, ErrNoCredential
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Model == "" {
		config.Model = DefaultModel
	}
	// A zero temperature would be dropped from the request body.
	if config.Temperature <= 0 {
		config.Temperature = DefaultTemperature
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = DefaultMaxTokens
	}
	if config.MaxRateLimitRetries < 0 {
		config.MaxRateLimitRetries = 0
	}
	if config.UserAgent == "" {
		config.UserAgent = "codexplain"
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	clientConfig.BaseURL = strings.TrimSuffix(config.BaseURL, "/")
	clientConfig.HTTPClient = newHTTPClient(config.UserAgent, config.Headers, config.RequestTimeout)

	return &RemoteExplainer{
		llmClient: openai.NewClientWithConfig(clientConfig),
		config:    config,
		out:       out,
		styles:    styles.New(out),
		logger:    logger,
		sleep:     sleepContext,
	}, nil
}

func (e *RemoteExplainer) request(code string) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model: e.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: SystemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: UserPrompt(code),
			},
		},
		Temperature: e.config.Temperature,
		MaxTokens:   e.config.MaxTokens,
	}
}

// Explain sends code to the chat-completion endpoint. A 429 response is
// retried after RateLimitWait, at most MaxRateLimitRetries times. Any other
// failure is reported on out and returned, leaving the caller to fall back.
func (e *RemoteExplainer) Explain(ctx context.Context, code string) (*Explanation, error) {
	request := e.request(code)

	for attempt := 0; ; attempt++ {
		e.logger.Debug(
			"explaining code using LLM",
			zap.String("model", request.Model),
			zap.Int("attempt", attempt+1),
		)

		text, err := e.complete(ctx, request)
		if err == nil {
			return &Explanation{Text: text, Source: SourceRemote}, nil
		}

		status := httpStatusCode(err)
		if status == http.StatusTooManyRequests {
			if attempt >= e.config.MaxRateLimitRetries {
				e.logger.Warn("giving up after repeated rate limiting", zap.Int("retries", attempt), zap.Error(err))
				fmt.Fprintln(e.out, e.styles.ERROR(fmt.Sprintf("OpenAI Error: %v", err)))
				return nil, fmt.Errorf("%w after %d retries: %w", ErrRateLimited, attempt, err)
			}

			e.logger.Warn("rate limited by LLM endpoint", zap.Duration("wait", e.config.RateLimitWait))
			fmt.Fprintln(e.out, e.styles.WARNING(fmt.Sprintf(
				"⚠️ OpenAI API rate limit reached. Waiting %d seconds...",
				int(e.config.RateLimitWait.Seconds()),
			)))
			if err := e.sleep(ctx, e.config.RateLimitWait); err != nil {
				return nil, err
			}
			continue
		}

		if errors.Is(err, ErrEmptyCompletion) {
			e.logger.Debug("LLM returned no explanation text")
			return nil, err
		}

		e.logger.Error("LLM explanation failed", zap.Int("status", status), zap.Error(err))
		if status != 0 {
			fmt.Fprintln(e.out, e.styles.ERROR(fmt.Sprintf("OpenAI Error: %v", err)))
		} else {
			fmt.Fprintln(e.out, e.styles.ERROR(fmt.Sprintf("API Error: %v", err)))
		}
		return nil, err
	}
}

func (e *RemoteExplainer) complete(ctx context.Context, request openai.ChatCompletionRequest) (string, error) {
	chatCompletion, err := e.llmClient.CreateChatCompletion(ctx, request)
	if err != nil {
		return "", err
	}

	if len(chatCompletion.Choices) == 0 || chatCompletion.Choices[0].Message.Content == "" {
		return "", ErrEmptyCompletion
	}

	e.logger.Debug(
		"LLM explanation response",
		zap.String("finish_reason", string(chatCompletion.Choices[0].FinishReason)),
		zap.Int("completion_tokens", chatCompletion.Usage.CompletionTokens),
	)

	return chatCompletion.Choices[0].Message.Content, nil
}

// httpStatusCode extracts the HTTP status from a go-openai error, or 0 when
// the failure never produced a response.
func httpStatusCode(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
