package gemini

import (
	"context"
	"errors"
	"fmt"
	"time"

	"food-analyzer/internal/core/ai/provider"
	"food-analyzer/internal/infrastructure/config"
	"food-analyzer/internal/pkg/common"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// errEmptyResponse 回應沒有候選結果（例如被安全過濾）
var errEmptyResponse = errors.New("gemini returned no text")

// Client Gemini 圖片辨識客戶端
type Client struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// Factory 依憑證建立 Gemini 客戶端
type Factory struct {
	defaultKey string
	model      string
	baseURL    string
	timeout    time.Duration
}

// NewFactory 創建 Gemini 客戶端工廠
func NewFactory(cfg config.GeminiConfig) *Factory {
	return &Factory{
		defaultKey: cfg.APIKey,
		model:      cfg.Model,
		baseURL:    cfg.BaseURL,
		timeout:    cfg.Timeout,
	}
}

// New 建立客戶端，credential 為空時使用設定檔中的金鑰
func (f *Factory) New(ctx context.Context, credential string) (provider.Provider, error) {
	key := credential
	if key == "" {
		key = f.defaultKey
	}
	if key == "" {
		return nil, provider.ErrMissingCredential
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
	}
	if f.baseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: f.baseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &Client{
		client:  client,
		model:   f.model,
		timeout: f.timeout,
	}, nil
}

// Name 實作 provider.Provider
func (c *Client) Name() string {
	return "gemini:" + c.model
}

// Generate 送出提示詞與圖片，回傳模型輸出的原始文字
func (c *Client) Generate(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	parts := []*genai.Part{genai.NewPartFromText(req.Prompt)}
	if len(req.Image.Data) > 0 {
		parts = append(parts, genai.NewPartFromBytes(req.Image.Data, req.Image.MIMEType))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	genCfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(req.Sampling.Temperature),
		TopP:        genai.Ptr(req.Sampling.TopP),
		TopK:        genai.Ptr(float32(req.Sampling.TopK)),
	}
	if req.Sampling.JSON {
		genCfg.ResponseMIMEType = "application/json"
	}

	common.LogDebug("Sending request to Gemini",
		zap.String("model", c.model),
		zap.Int("image_bytes", len(req.Image.Data)),
	)

	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, genCfg)
	common.LogUpstreamCall(c.Name(), time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("gemini generate failed: %w", err)
	}

	text := resp.Text()
	if text == "" {
		reason := "no candidates"
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			reason = string(resp.PromptFeedback.BlockReason)
		} else if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason != "" {
			reason = string(resp.Candidates[0].FinishReason)
		}
		return nil, fmt.Errorf("%w: %s", errEmptyResponse, reason)
	}

	return &provider.Response{
		Text:  text,
		Model: c.model,
	}, nil
}
