package provider

import (
	"context"
	"errors"
)

// ErrMissingCredential 未提供 API 金鑰
var ErrMissingCredential = errors.New("missing api credential")

// Image 送往模型的圖片
type Image struct {
	Data     []byte
	MIMEType string
}

// Sampling 取樣參數
type Sampling struct {
	Temperature float32
	TopP        float32
	TopK        int
	JSON        bool // 要求模型只輸出 JSON
}

// Request 表示發送到 AI 提供者的單次請求（無對話歷史）
type Request struct {
	Prompt   string
	Image    Image
	Sampling Sampling
}

// Response 表示從 AI 提供者收到的響應
type Response struct {
	Text  string
	Model string
}

// Provider 定義 AI 提供者介面
type Provider interface {
	// Generate 生成 AI 響應
	Generate(ctx context.Context, req *Request) (*Response, error)

	// Name 提供者名稱，用於日誌
	Name() string
}

// Factory 依憑證建立 Provider，每次分析呼叫一次
type Factory interface {
	New(ctx context.Context, credential string) (Provider, error)
}

// FactoryFunc 讓普通函式實作 Factory
type FactoryFunc func(ctx context.Context, credential string) (Provider, error)

// New 實作 Factory
func (f FactoryFunc) New(ctx context.Context, credential string) (Provider, error) {
	return f(ctx, credential)
}
