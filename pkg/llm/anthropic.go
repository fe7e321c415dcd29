package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"
)

const (
	ProviderAnthropic     = "anthropic"
	DefaultAnthropicModel = "claude-3-5-haiku-latest"
)

type AnthropicClient struct {
	client *anthropic.Client
	model  string
}

func NewAnthropicClient(apiKey, model, baseURL string) *AnthropicClient {
	var opts []anthropic.ClientOption
	if baseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(baseURL))
	}
	if model == "" {
		model = DefaultAnthropicModel
	}
	return &AnthropicClient{
		client: anthropic.NewClient(apiKey, opts...),
		model:  model,
	}
}

func (c *AnthropicClient) Provider() string { return ProviderAnthropic }

func (c *AnthropicClient) Model() string { return c.model }

func (c *AnthropicClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	temperature := req.Temperature
	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:  anthropic.Model(c.model),
		System: req.System,
		Messages: []anthropic.Message{
			{
				Role: anthropic.RoleUser,
				Content: []anthropic.MessageContent{
					anthropic.NewTextMessageContent(req.Prompt),
				},
			},
		},
		MaxTokens:   req.MaxTokens,
		Temperature: &temperature,
	})
	if err != nil {
		return "", wrap(ProviderAnthropic, err, classifyAnthropic)
	}

	for _, content := range resp.Content {
		if content.Text != nil {
			return *content.Text, nil
		}
	}
	return "", &CompletionError{Provider: ProviderAnthropic, Kind: KindOther, Err: fmt.Errorf("no response content")}
}

func classifyAnthropic(err error) ErrorKind {
	var apiErr *anthropic.APIError
	if !errors.As(err, &apiErr) {
		return KindOther
	}
	if strings.Contains(strings.ToLower(apiErr.Message), "credit balance") {
		return KindQuotaExceeded
	}
	switch string(apiErr.Type) {
	case "authentication_error", "permission_error":
		return KindAuth
	case "rate_limit_error", "overloaded_error":
		return KindRateLimited
	default:
		return KindOther
	}
}
