package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"food-analyzer/internal/core/ai/provider"
	"food-analyzer/internal/infrastructure/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wireRequest generateContent 請求中測試關心的欄位
type wireRequest struct {
	Contents []struct {
		Role  string `json:"role"`
		Parts []struct {
			Text       string `json:"text"`
			InlineData *struct {
				Data     []byte `json:"data"`
				MIMEType string `json:"mimeType"`
			} `json:"inlineData"`
		} `json:"parts"`
	} `json:"contents"`
	GenerationConfig struct {
		Temperature      float64 `json:"temperature"`
		TopP             float64 `json:"topP"`
		TopK             float64 `json:"topK"`
		ResponseMIMEType string  `json:"responseMimeType"`
	} `json:"generationConfig"`
}

func newTestClient(t *testing.T, handler http.HandlerFunc) provider.Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	f := NewFactory(config.GeminiConfig{Model: "gemini-test", BaseURL: srv.URL, Timeout: 5 * time.Second})
	p, err := f.New(context.Background(), "caller-key")
	require.NoError(t, err)
	return p
}

func TestFactoryRequiresCredential(t *testing.T) {
	f := NewFactory(config.GeminiConfig{Model: "gemini-3-flash-preview"})
	_, err := f.New(context.Background(), "")
	assert.ErrorIs(t, err, provider.ErrMissingCredential)
}

func TestFactoryPrefersCallerCredential(t *testing.T) {
	f := NewFactory(config.GeminiConfig{Model: "gemini-3-flash-preview", Timeout: time.Second})
	p, err := f.New(context.Background(), "caller-key")
	require.NoError(t, err)
	assert.Equal(t, "gemini:gemini-3-flash-preview", p.Name())
}

func TestGenerateSendsImageAndSampling(t *testing.T) {
	var got wireRequest
	var path, key string
	p := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		key = r.Header.Get("x-goog-api-key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"{\"status\":\"not_found\",\"message\":\"нет\"}"}]},"finishReason":"STOP"}]}`))
	})

	resp, err := p.Generate(context.Background(), &provider.Request{
		Prompt:   "prompt",
		Image:    provider.Image{Data: []byte{0xff, 0xd8, 0xff}, MIMEType: "image/jpeg"},
		Sampling: provider.Sampling{Temperature: 0.1, TopP: 0.95, TopK: 1, JSON: true},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"status":"not_found","message":"нет"}`, resp.Text)

	assert.Equal(t, "/v1beta/models/gemini-test:generateContent", path)
	assert.Equal(t, "caller-key", key)

	require.Len(t, got.Contents, 1)
	assert.Equal(t, "user", got.Contents[0].Role)
	require.Len(t, got.Contents[0].Parts, 2)
	assert.Equal(t, "prompt", got.Contents[0].Parts[0].Text)
	require.NotNil(t, got.Contents[0].Parts[1].InlineData)
	assert.Equal(t, "image/jpeg", got.Contents[0].Parts[1].InlineData.MIMEType)
	assert.Equal(t, []byte{0xff, 0xd8, 0xff}, got.Contents[0].Parts[1].InlineData.Data)

	assert.InDelta(t, 0.1, got.GenerationConfig.Temperature, 1e-6)
	assert.InDelta(t, 0.95, got.GenerationConfig.TopP, 1e-6)
	assert.InDelta(t, 1, got.GenerationConfig.TopK, 1e-6)
	assert.Equal(t, "application/json", got.GenerationConfig.ResponseMIMEType)
}

func TestGenerateWithoutTextIsCallFailure(t *testing.T) {
	for name, body := range map[string]string{
		"no candidates":  `{"candidates":[]}`,
		"prompt blocked": `{"promptFeedback":{"blockReason":"SAFETY"}}`,
		"empty parts":    `{"candidates":[{"content":{"role":"model","parts":[]},"finishReason":"SAFETY"}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			p := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(body))
			})

			_, err := p.Generate(context.Background(), &provider.Request{Prompt: "prompt"})
			assert.ErrorIs(t, err, errEmptyResponse)
		})
	}
}

func TestGenerateUpstreamError(t *testing.T) {
	p := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":429,"message":"quota","status":"RESOURCE_EXHAUSTED"}}`))
	})

	_, err := p.Generate(context.Background(), &provider.Request{Prompt: "prompt"})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, errEmptyResponse)
}
