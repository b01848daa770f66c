package recommend

import (
	"context"
	"errors"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/ukydev/lunch-recommender/internal/resilience"
)

const (
	DefaultModel       = openai.GPT4oMini
	DefaultTemperature = 0.7

	upstreamName = "openai"
)

type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIConfig configures the chat-completion backend.
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
}

// OpenAIChat is an LLM backed by the OpenAI chat-completions API.
type OpenAIChat struct {
	client      chatCompleter
	model       string
	temperature float32
	breaker     *gobreaker.CircuitBreaker[string]
}

// NewOpenAIChat creates an OpenAI-backed LLM.
func NewOpenAIChat(cfg OpenAIConfig, logger logrus.FieldLogger) *OpenAIChat {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return newOpenAIChat(openai.NewClientWithConfig(clientCfg), cfg, logger)
}

func newOpenAIChat(client chatCompleter, cfg OpenAIConfig, logger logrus.FieldLogger) *OpenAIChat {
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return &OpenAIChat{
		client:      client,
		model:       model,
		temperature: cfg.Temperature,
		breaker:     resilience.NewBreaker[string](upstreamName, logger.WithField("component", "openai")),
	}
}

// Complete sends one system and one user message and returns the reply text.
func (o *OpenAIChat) Complete(ctx context.Context, system, prompt string) (string, error) {
	content, err := o.breaker.Execute(func() (string, error) {
		resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       o.model,
			Temperature: o.temperature,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: system},
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
		})
		if err != nil {
			return "", err
		}
		if len(resp.Choices) == 0 {
			return "", errors.New("chat completion returned no choices")
		}
		return resp.Choices[0].Message.Content, nil
	})
	resilience.Record(upstreamName, err)
	return content, err
}
