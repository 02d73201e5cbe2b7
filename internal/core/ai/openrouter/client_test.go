package openrouter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"food-analyzer/internal/core/ai/provider"
	"food-analyzer/internal/infrastructure/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFactory(url string) *Factory {
	return NewFactory(config.OpenRouterConfig{
		APIKey:    "sk-default",
		Model:     "vision-model",
		BaseURL:   url,
		MaxTokens: 512,
		Timeout:   5 * time.Second,
	})
}

func TestGenerateSendsImageAndSampling(t *testing.T) {
	var got Request
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","choices":[{"message":{"content":"{\"status\":\"not_found\",\"message\":\"нет\"}"}}]}`))
	}))
	defer srv.Close()

	p, err := newTestFactory(srv.URL).New(context.Background(), "sk-caller")
	require.NoError(t, err)

	resp, err := p.Generate(context.Background(), &provider.Request{
		Prompt:   "prompt",
		Image:    provider.Image{Data: []byte{1, 2, 3}, MIMEType: "image/png"},
		Sampling: provider.Sampling{Temperature: 0.1, TopP: 0.95, TopK: 1, JSON: true},
	})
	require.NoError(t, err)

	assert.Equal(t, `{"status":"not_found","message":"нет"}`, resp.Text)
	assert.Equal(t, "Bearer sk-caller", auth)
	assert.Equal(t, "vision-model", got.Model)
	assert.InDelta(t, 0.1, got.Temperature, 1e-6)
	assert.Equal(t, 1, got.TopK)
	require.NotNil(t, got.ResponseFormat)
	assert.Equal(t, "json_object", got.ResponseFormat.Type)
	require.Len(t, got.Messages, 1)
	require.Len(t, got.Messages[0].Content, 2)
	assert.True(t, strings.HasPrefix(got.Messages[0].Content[1].ImageURL.URL, "data:image/png;base64,"))
}

func TestGenerateFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "non-200", status: http.StatusTooManyRequests, body: `{"error":{"message":"quota"}}`},
		{name: "empty choices", status: http.StatusOK, body: `{"choices":[]}`},
		{name: "garbage", status: http.StatusOK, body: `<html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			p, err := newTestFactory(srv.URL).New(context.Background(), "")
			require.NoError(t, err)

			_, err = p.Generate(context.Background(), &provider.Request{Prompt: "p"})
			assert.Error(t, err)
		})
	}
}

func TestFactoryRequiresCredential(t *testing.T) {
	f := NewFactory(config.OpenRouterConfig{BaseURL: "http://localhost"})
	_, err := f.New(context.Background(), "")
	assert.ErrorIs(t, err, provider.ErrMissingCredential)
}
