package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"liyu1981.xyz/soil-monitor-service/pkg/common"
	"liyu1981.xyz/soil-monitor-service/pkg/config"
)

const DefaultTimeout = 30 * time.Second

// NewCompleter builds the configured completion client wrapped with a per-call
// timeout. A missing API key yields an unavailable completer instead of an
// error so the rest of the service still starts.
func NewCompleter(ctx context.Context, cfg config.LLMConfig) (Completer, error) {
	logger := common.GetLoggerWith(common.LoggerNameLLM)
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))

	if cfg.APIKey == "" {
		logger.Warn("No API key configured, completion disabled", zap.String("provider", provider))
		return NewUnavailableCompleter(provider, cfg.Model), nil
	}

	var c Completer
	switch provider {
	case "", ProviderOpenAI:
		c = NewOpenAIClient(cfg.APIKey, cfg.Model, "", cfg.BaseURL)
	case ProviderAnthropic, "claude":
		c = NewAnthropicClient(cfg.APIKey, cfg.Model, cfg.BaseURL)
	case ProviderGemini:
		gc, err := NewGeminiClient(ctx, cfg.APIKey, cfg.Model, "")
		if err != nil {
			return nil, err
		}
		c = gc
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", provider)
	}

	logger.Info("Completion client ready", zap.String("provider", c.Provider()), zap.String("model", c.Model()))
	return WithCompletionTimeout(c, cfg.Timeout()), nil
}

func NewEmbedder(ctx context.Context, cfg config.EmbeddingConfig) (Embedder, error) {
	logger := common.GetLoggerWith(common.LoggerNameLLM)
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))

	var e Embedder
	switch provider {
	case "", ProviderHashing:
		e = NewHashingEmbedder(cfg.Dimensions)
	case ProviderOllama:
		e = NewOllamaEmbedder(cfg.BaseURL, cfg.Model)
	case ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openai embeddings need an API key")
		}
		e = NewOpenAIClient(cfg.APIKey, "", cfg.Model, cfg.BaseURL)
	case ProviderGemini:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("gemini embeddings need an API key")
		}
		gc, err := NewGeminiClient(ctx, cfg.APIKey, "", cfg.Model)
		if err != nil {
			return nil, err
		}
		e = gc
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", provider)
	}

	logger.Info("Embedder ready", zap.String("provider", provider))
	return WithEmbeddingTimeout(e, cfg.Timeout()), nil
}

type timeoutCompleter struct {
	Completer
	timeout time.Duration
}

func WithCompletionTimeout(c Completer, timeout time.Duration) Completer {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &timeoutCompleter{Completer: c, timeout: timeout}
}

func (t *timeoutCompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	out, err := t.Completer.Complete(ctx, req)
	if err != nil {
		return "", wrap(t.Provider(), err, nil)
	}
	return out, nil
}

type timeoutEmbedder struct {
	Embedder
	timeout time.Duration
}

func WithEmbeddingTimeout(e Embedder, timeout time.Duration) Embedder {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &timeoutEmbedder{Embedder: e, timeout: timeout}
}

func (t *timeoutEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.Embedder.Embed(ctx, texts)
}

type unavailableCompleter struct {
	provider string
	model    string
}

func NewUnavailableCompleter(provider, model string) Completer {
	if provider == "" {
		provider = ProviderOpenAI
	}
	return &unavailableCompleter{provider: provider, model: model}
}

func (u *unavailableCompleter) Provider() string { return u.provider }

func (u *unavailableCompleter) Model() string { return u.model }

func (u *unavailableCompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	return "", &CompletionError{Provider: u.provider, Kind: KindAuth, Err: ErrUnavailable}
}
