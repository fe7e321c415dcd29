package llm_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"liyu1981.xyz/soil-monitor-service/pkg/common"
	"liyu1981.xyz/soil-monitor-service/pkg/llm"
)

type chatRequest struct {
	Model       string  `json:"model"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float32 `json:"temperature"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func newOpenAIServer(t *testing.T, handler http.HandlerFunc) *llm.OpenAIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return llm.NewOpenAIClient("sk-test", "gpt-4o-mini", "", srv.URL+"/v1")
}

func writeOpenAIError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprintf(w, `{"error":{"message":%q,"type":"invalid_request_error","code":%q}}`, msg, code)
}

func TestOpenAIClient_Complete(t *testing.T) {
	common.SetTestLoggerNop()

	var got chatRequest
	client := newOpenAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"c1","object":"chat.completion","created":1,"model":"gpt-4o-mini",
			"choices":[{"index":0,"message":{"role":"assistant","content":"{\"moisture_min\": 40}"},"finish_reason":"stop"}]}`)
	})

	out, err := client.Complete(context.Background(), llm.CompletionRequest{
		System:      "Return JSON only.",
		Prompt:      "tomato guide",
		MaxTokens:   400,
		Temperature: 0.1,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"moisture_min": 40}`, out)

	assert.Equal(t, "gpt-4o-mini", got.Model)
	assert.Equal(t, 400, got.MaxTokens)
	assert.InDelta(t, 0.1, got.Temperature, 1e-6)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "Return JSON only.", got.Messages[0].Content)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Equal(t, "tomato guide", got.Messages[1].Content)
}

func TestOpenAIClient_Complete_ErrorKinds(t *testing.T) {
	common.SetTestLoggerNop()

	cases := []struct {
		name   string
		status int
		code   string
		msg    string
		kind   llm.ErrorKind
	}{
		{"auth", http.StatusUnauthorized, "invalid_api_key", "Incorrect API key provided", llm.KindAuth},
		{"rate", http.StatusTooManyRequests, "rate_limit_exceeded", "Rate limit reached", llm.KindRateLimited},
		{"quota", http.StatusTooManyRequests, "insufficient_quota", "You exceeded your current quota", llm.KindQuotaExceeded},
		{"other", http.StatusInternalServerError, "server_error", "The server had an error", llm.KindOther},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			client := newOpenAIServer(t, func(w http.ResponseWriter, r *http.Request) {
				writeOpenAIError(w, c.status, c.code, c.msg)
			})
			_, err := client.Complete(context.Background(), llm.CompletionRequest{Prompt: "ping", MaxTokens: 5})
			require.Error(t, err)

			var ce *llm.CompletionError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, c.kind, ce.Kind)
			assert.Equal(t, llm.ProviderOpenAI, ce.Provider)
		})
	}
}

func TestOpenAIClient_Complete_Timeout(t *testing.T) {
	common.SetTestLoggerNop()

	client := newOpenAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	c := llm.WithCompletionTimeout(client, 50*time.Millisecond)
	_, err := c.Complete(context.Background(), llm.CompletionRequest{Prompt: "ping"})
	require.Error(t, err)
	assert.Equal(t, llm.KindTimeout, llm.KindOf(err))

	var ce *llm.CompletionError
	require.ErrorAs(t, err, &ce)
	assert.True(t, ce.Retryable())
}

func TestOpenAIClient_Embed_OrdersByIndex(t *testing.T) {
	common.SetTestLoggerNop()

	client := newOpenAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		var body struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []string{"first", "second"}, body.Input)
		assert.Equal(t, "text-embedding-3-small", body.Model)

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"object":"list","model":"text-embedding-3-small","data":[
			{"object":"embedding","index":1,"embedding":[0.3,0.4]},
			{"object":"embedding","index":0,"embedding":[0.1,0.2]}]}`)
	})

	vecs, err := client.Embed(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.InDeltaSlice(t, []float32{0.1, 0.2}, vecs[0], 1e-6)
	assert.InDeltaSlice(t, []float32{0.3, 0.4}, vecs[1], 1e-6)
}
