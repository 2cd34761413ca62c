package responder

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/diogo/learnchat/internal/models"
)

// ErrNoChoices is returned when the upstream completion carries no answer
var ErrNoChoices = errors.New("completion returned no choices")

// OpenAI answers through the chat completions API
type OpenAI struct {
	client      openai.Client
	model       string
	maxTokens   int64
	temperature float64
}

var _ Responder = (*OpenAI)(nil)

// OpenAIOption configures the OpenAI responder
type OpenAIOption func(*openAIConfig)

type openAIConfig struct {
	model       string
	maxTokens   int64
	temperature float64
	request     []option.RequestOption
}

// WithModel sets the completion model
func WithModel(model string) OpenAIOption {
	return func(c *openAIConfig) {
		if model != "" {
			c.model = model
		}
	}
}

// WithMaxTokens caps the completion length
func WithMaxTokens(n int) OpenAIOption {
	return func(c *openAIConfig) {
		if n > 0 {
			c.maxTokens = int64(n)
		}
	}
}

// WithTemperature sets the sampling temperature
func WithTemperature(t float64) OpenAIOption {
	return func(c *openAIConfig) {
		c.temperature = t
	}
}

// WithRequestOptions passes options to the underlying SDK client, e.g. a
// base URL
func WithRequestOptions(opts ...option.RequestOption) OpenAIOption {
	return func(c *openAIConfig) {
		c.request = append(c.request, opts...)
	}
}

// NewOpenAI creates a responder using apiKey
func NewOpenAI(apiKey string, opts ...OpenAIOption) *OpenAI {
	cfg := &openAIConfig{
		model:       string(openai.ChatModelGPT3_5Turbo),
		maxTokens:   500,
		temperature: 0.7,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	reqOpts := append([]option.RequestOption{option.WithAPIKey(apiKey)}, cfg.request...)

	return &OpenAI{
		client:      openai.NewClient(reqOpts...),
		model:       cfg.model,
		maxTokens:   cfg.maxTokens,
		temperature: cfg.temperature,
	}
}

// Model returns the completion model
func (o *OpenAI) Model() string {
	return o.model
}

// Respond sends message as a single user turn
func (o *OpenAI) Respond(ctx context.Context, message string) (Answer, error) {
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(message),
		},
		MaxTokens:   openai.Int(o.maxTokens),
		Temperature: openai.Float(o.temperature),
	})
	if err != nil {
		return Answer{}, fmt.Errorf("openai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Answer{}, ErrNoChoices
	}

	return Answer{Text: resp.Choices[0].Message.Content, Source: models.SourceOpenAI}, nil
}
