package nutrition

import (
	"context"
	"errors"
	"time"

	"food-analyzer/internal/pkg/common"

	"go.uber.org/zap"
)

// DefaultDeadline 單次查詢的整體期限
const DefaultDeadline = 15 * time.Second

// Searcher 回傳候選資料的搜尋來源
type Searcher interface {
	Search(ctx context.Context, query string) ([]Candidate, error)
}

// Service 營養查詢服務
type Service struct {
	searcher Searcher
	cache    Cache
	deadline time.Duration
}

// NewService 創建查詢服務，cache 可為 nil
func NewService(searcher Searcher, cache Cache, deadline time.Duration) *Service {
	if deadline <= 0 {
		deadline = DefaultDeadline
	}
	return &Service{
		searcher: searcher,
		cache:    cache,
		deadline: deadline,
	}
}

// Lookup 查詢每 100 克的營養估計。
// 沒有可用資料回傳 ErrNotFound，超過期限回傳 ErrSearchTimeout。
func (s *Service) Lookup(ctx context.Context, name string) (*Estimate, error) {
	if s.cache != nil {
		estimate, err := s.cache.Get(ctx, name)
		if err == nil {
			common.LogDebug("Search cache hit", zap.String("query", name))
			return estimate, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			common.LogWarn("Search cache unavailable", zap.Error(err))
		}
	}

	runCtx, cancel := context.WithTimeout(ctx, s.deadline)
	defer cancel()

	type result struct {
		estimate *Estimate
		err      error
	}
	done := make(chan result, 1)
	go func() {
		estimate, err := s.lookup(runCtx, name)
		done <- result{estimate, err}
	}()

	var res result
	select {
	case res = <-done:
	case <-runCtx.Done():
		res.err = runCtx.Err()
	}

	if res.err != nil {
		if ctx.Err() == nil && errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			common.LogError("Food searching timed out",
				zap.String("query", name),
				zap.Duration("deadline", s.deadline),
			)
			return nil, ErrSearchTimeout
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, ErrNotFound
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, name, res.estimate); err != nil {
			common.LogWarn("Failed to cache search result", zap.Error(err))
		}
	}
	return res.estimate, nil
}

func (s *Service) lookup(ctx context.Context, name string) (*Estimate, error) {
	candidates, err := s.searcher.Search(ctx, name)
	if err != nil {
		common.LogError("Ошибка поиска", zap.String("query", name), zap.Error(err))
		return nil, err
	}

	estimate, err := Aggregate(name, candidates)
	if err != nil {
		if !errors.Is(err, errNoMatch) {
			common.LogError("Ошибка поиска", zap.String("query", name), zap.Error(err))
		}
		return nil, err
	}

	common.LogDebug("Search result",
		zap.String("query", name),
		zap.Int("candidates", len(candidates)),
		zap.Float64("calories", estimate.Calories),
	)
	return estimate, nil
}

// Deadline 目前使用的期限
func (s *Service) Deadline() time.Duration {
	return s.deadline
}
