package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

const (
	ProviderOpenAI      = "openai"
	DefaultOpenAIModel  = "gpt-4o-mini"
	quotaErrorCode      = "insufficient_quota"
	openAIEmbeddingsMax = 256
)

type OpenAIClient struct {
	client         *openai.Client
	model          string
	embeddingModel string
}

func NewOpenAIClient(apiKey, model, embeddingModel, baseURL string) *OpenAIClient {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if model == "" {
		model = DefaultOpenAIModel
	}
	if embeddingModel == "" {
		embeddingModel = string(openai.SmallEmbedding3)
	}
	return &OpenAIClient{
		client:         openai.NewClientWithConfig(config),
		model:          model,
		embeddingModel: embeddingModel,
	}
}

func (c *OpenAIClient) Provider() string { return ProviderOpenAI }

func (c *OpenAIClient) Model() string { return c.model }

func (c *OpenAIClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	var messages []openai.ChatCompletionMessage
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return "", wrap(ProviderOpenAI, err, classifyOpenAI)
	}
	if len(resp.Choices) == 0 {
		return "", &CompletionError{Provider: ProviderOpenAI, Kind: KindOther, Err: fmt.Errorf("no response choices")}
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *OpenAIClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += openAIEmbeddingsMax {
		end := min(start+openAIEmbeddingsMax, len(texts))
		batch := texts[start:end]

		resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: batch,
			Model: openai.EmbeddingModel(c.embeddingModel),
		})
		if err != nil {
			return nil, wrap(ProviderOpenAI, err, classifyOpenAI)
		}
		if len(resp.Data) != len(batch) {
			return nil, &CompletionError{
				Provider: ProviderOpenAI,
				Kind:     KindOther,
				Err:      fmt.Errorf("expected %d embeddings, got %d", len(batch), len(resp.Data)),
			}
		}

		vectors := make([][]float32, len(batch))
		for i, d := range resp.Data {
			idx := d.Index
			if idx < 0 || idx >= len(batch) {
				idx = i
			}
			vectors[idx] = d.Embedding
		}
		out = append(out, vectors...)
	}
	return out, nil
}

func classifyOpenAI(err error) ErrorKind {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if fmt.Sprint(apiErr.Code) == quotaErrorCode || apiErr.Type == quotaErrorCode {
			return KindQuotaExceeded
		}
		if apiErr.HTTPStatusCode == 429 && strings.Contains(strings.ToLower(apiErr.Message), "quota") {
			return KindQuotaExceeded
		}
		return kindFromStatus(apiErr.HTTPStatusCode)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return kindFromStatus(reqErr.HTTPStatusCode)
	}
	return KindOther
}
