package analysis

import (
	"context"
	"fmt"

	"food-analyzer/internal/core/ai/provider"
	"food-analyzer/internal/pkg/common"

	"go.uber.org/zap"
)

// Substitute 測試用的替代回應，正式環境中忽略。
// Err 非空時模擬上游呼叫失敗。
type Substitute struct {
	Text string
	Err  error
}

// Request 單次圖片分析請求
type Request struct {
	Image      Image
	Credential string
	Substitute *Substitute
}

// Invoker 呼叫圖片辨識服務並把所有失敗歸類為 Outcome
type Invoker struct {
	factory    provider.Factory
	bounds     Bounds
	production bool
}

// NewInvoker 創建 Invoker，production 為 true 時不接受替代回應
func NewInvoker(factory provider.Factory, bounds Bounds, production bool) *Invoker {
	return &Invoker{
		factory:    factory,
		bounds:     bounds,
		production: production,
	}
}

// Analyze 分析一張圖片，只嘗試一次，不會回傳錯誤
func (inv *Invoker) Analyze(ctx context.Context, req Request) Outcome {
	if outcome, ok := inv.bounds.Check(req.Image); !ok {
		common.LogInfo("圖片尺寸不符",
			zap.Int("width", req.Image.Width),
			zap.Int("height", req.Image.Height),
		)
		return outcome
	}

	p, err := inv.factory.New(ctx, req.Credential)
	if err != nil {
		common.LogError("Ошибка инициализации клиента", zap.Error(err))
		return Failure(MsgServiceUnavailable)
	}

	text, err := inv.generate(ctx, p, req)
	if err != nil {
		common.LogError("Ошибка при анализе", zap.String("provider", p.Name()), zap.Error(err))
		return Failure(MsgAnalysisFailed)
	}

	return Extract(text)
}

func (inv *Invoker) generate(ctx context.Context, p provider.Provider, req Request) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("provider panic: %v", r)
		}
	}()

	if req.Substitute != nil && !inv.production {
		return req.Substitute.Text, req.Substitute.Err
	}

	resp, err := p.Generate(ctx, buildRequest(req.Image))
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}
