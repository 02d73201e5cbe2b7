package analysis

import (
	"context"
	"errors"
	"time"

	"food-analyzer/internal/core/gate"
	"food-analyzer/internal/pkg/common"

	"go.uber.org/zap"
)

// DefaultDeadline 從取得呼叫者鎖開始計算的整體期限
const DefaultDeadline = 45 * time.Second

// ErrAnalysisTimeout 分析超過期限
var ErrAnalysisTimeout = errors.New("image analysis timed out")

// Service 以呼叫者為單位序列化圖片分析
type Service struct {
	gate     *gate.Registry
	invoker  *Invoker
	deadline time.Duration
	launch   func(ctx context.Context, req Request) <-chan Outcome
}

// NewService 創建分析服務
func NewService(registry *gate.Registry, invoker *Invoker, deadline time.Duration) *Service {
	if deadline <= 0 {
		deadline = DefaultDeadline
	}
	s := &Service{
		gate:     registry,
		invoker:  invoker,
		deadline: deadline,
	}
	s.launch = s.run
	return s
}

// run 在背景執行一次分析
func (s *Service) run(ctx context.Context, req Request) <-chan Outcome {
	done := make(chan Outcome, 1)
	go func() {
		done <- s.invoker.Analyze(ctx, req)
	}()
	return done
}

// Analyze 在呼叫者鎖內執行分析。
// 回傳的錯誤只有 ErrAnalysisTimeout 或 ctx 的錯誤，其餘失敗都在 Outcome 中。
func (s *Service) Analyze(ctx context.Context, caller string, req Request) (Outcome, error) {
	release, err := s.gate.Acquire(ctx, caller)
	if err != nil {
		return Outcome{}, err
	}
	defer release()

	runCtx, cancel := context.WithTimeout(ctx, s.deadline)
	defer cancel()

	start := time.Now()
	done := s.launch(runCtx, req)

	select {
	case outcome := <-done:
		return s.finish(ctx, runCtx, caller, start, outcome)

	case <-runCtx.Done():
		// 結果與期限同時就緒時以結果為準
		select {
		case outcome := <-done:
			return s.finish(ctx, runCtx, caller, start, outcome)
		default:
		}
		if s.timedOut(ctx, runCtx) {
			return Outcome{}, s.timeout(caller, start)
		}
		return Outcome{}, ctx.Err()
	}
}

// finish 呼叫失敗且期限已到時回報逾時，其餘結果原樣回傳
func (s *Service) finish(ctx, runCtx context.Context, caller string, start time.Time, outcome Outcome) (Outcome, error) {
	if outcome.Status == StatusError && outcome.Message == MsgAnalysisFailed {
		if s.timedOut(ctx, runCtx) {
			return Outcome{}, s.timeout(caller, start)
		}
		if err := ctx.Err(); err != nil {
			return Outcome{}, err
		}
	}
	common.LogDebug("Analysis result",
		zap.String("caller", caller),
		zap.String("status", string(outcome.Status)),
		zap.Duration("duration", time.Since(start)),
	)
	return outcome, nil
}

func (s *Service) timedOut(parent, run context.Context) bool {
	return parent.Err() == nil && errors.Is(run.Err(), context.DeadlineExceeded)
}

func (s *Service) timeout(caller string, start time.Time) error {
	common.LogError("Food analysis timed out",
		zap.String("caller", caller),
		zap.Duration("deadline", s.deadline),
		zap.Duration("elapsed", time.Since(start)),
	)
	return ErrAnalysisTimeout
}

// Deadline 目前使用的期限
func (s *Service) Deadline() time.Duration {
	return s.deadline
}
