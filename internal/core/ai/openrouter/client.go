package openrouter

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"food-analyzer/internal/core/ai/provider"
	"food-analyzer/internal/infrastructure/config"
	"food-analyzer/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// ErrEmptyChoices 回應中沒有任何 choice
var ErrEmptyChoices = errors.New("no choices in OpenRouter response")

// Request 表示 API 請求
type Request struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Temperature    float32         `json:"temperature"`
	TopP           float32         `json:"top_p,omitempty"`
	TopK           int             `json:"top_k,omitempty"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

// Message 消息結構
type Message struct {
	Role    string    `json:"role"`
	Content []Content `json:"content"`
}

// Content 內容結構
type Content struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL 圖片 URL 結構
type ImageURL struct {
	URL string `json:"url"`
}

// ResponseFormat 強制輸出格式
type ResponseFormat struct {
	Type string `json:"type"`
}

// Response OpenRouter 響應結構
type Response struct {
	ID      string   `json:"id"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
}

// Choice 選擇結構
type Choice struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
}

// Client OpenRouter 客戶端
type Client struct {
	client    *resty.Client
	model     string
	maxTokens int
}

// Factory 依憑證建立 OpenRouter 客戶端
type Factory struct {
	cfg config.OpenRouterConfig
}

// NewFactory 創建 OpenRouter 客戶端工廠
func NewFactory(cfg config.OpenRouterConfig) *Factory {
	return &Factory{cfg: cfg}
}

// New 建立客戶端，credential 為空時使用設定檔中的金鑰
func (f *Factory) New(_ context.Context, credential string) (provider.Provider, error) {
	key := credential
	if key == "" {
		key = f.cfg.APIKey
	}
	if key == "" {
		return nil, provider.ErrMissingCredential
	}

	client := resty.New().
		SetBaseURL(f.cfg.BaseURL).
		SetTimeout(f.cfg.Timeout).
		SetAuthToken(key).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-Title", "Food Analyzer")

	return &Client{
		client:    client,
		model:     f.cfg.Model,
		maxTokens: f.cfg.MaxTokens,
	}, nil
}

// Name 實作 provider.Provider
func (c *Client) Name() string {
	return "openrouter:" + c.model
}

// Generate 生成回應
func (c *Client) Generate(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	content := []Content{{Type: "text", Text: req.Prompt}}
	if len(req.Image.Data) > 0 {
		url := fmt.Sprintf("data:%s;base64,%s", req.Image.MIMEType, base64.StdEncoding.EncodeToString(req.Image.Data))
		content = append(content, Content{Type: "image_url", ImageURL: &ImageURL{URL: url}})
	}

	body := Request{
		Model:       c.model,
		Messages:    []Message{{Role: "user", Content: content}},
		MaxTokens:   c.maxTokens,
		Temperature: req.Sampling.Temperature,
		TopP:        req.Sampling.TopP,
		TopK:        req.Sampling.TopK,
	}
	if req.Sampling.JSON {
		body.ResponseFormat = &ResponseFormat{Type: "json_object"}
	}

	common.LogDebug("Sending request to OpenRouter",
		zap.String("model", c.model),
		zap.Int("image_bytes", len(req.Image.Data)),
	)

	start := time.Now()
	text, err := c.send(ctx, &body)
	common.LogUpstreamCall(c.Name(), time.Since(start), err)
	if err != nil {
		return nil, err
	}

	return &provider.Response{Text: text, Model: c.model}, nil
}

func (c *Client) send(ctx context.Context, body *Request) (string, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(body).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("failed to send request to OpenRouter: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("OpenRouter API returned status %d", resp.StatusCode())
	}

	var result Response
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return "", fmt.Errorf("failed to parse OpenRouter response: %w", err)
	}

	if len(result.Choices) == 0 {
		return "", ErrEmptyChoices
	}

	return result.Choices[0].Message.Content, nil
}
