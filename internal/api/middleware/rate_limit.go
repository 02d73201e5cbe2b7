package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"food-analyzer/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// bucket 單一來源的令牌桶
type bucket struct {
	tokens   float64
	lastTime time.Time
}

// RateLimiter 依來源 IP 分桶的限流器
type RateLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	capacity float64
	rate     float64 // 每秒補充的令牌數
	window   time.Duration
	now      func() time.Time

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewRateLimiter 創建新的限流器，每個來源在 window 內最多 requests 次。
// pruneInterval > 0 時定期移除已補滿的桶，使用完畢需呼叫 Close。
func NewRateLimiter(requests int, window, pruneInterval time.Duration) *RateLimiter {
	rl := &RateLimiter{
		buckets:  make(map[string]*bucket),
		capacity: float64(requests),
		rate:     float64(requests) / window.Seconds(),
		window:   window,
		now:      time.Now,
		done:     make(chan struct{}),
	}

	if pruneInterval > 0 {
		rl.wg.Add(1)
		go rl.startPrune(pruneInterval)
	}
	return rl
}

// startPrune 定期清理閒置的桶
func (rl *RateLimiter) startPrune(interval time.Duration) {
	defer rl.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := rl.Prune(); n > 0 {
				common.LogDebug("Pruned idle rate limit buckets",
					zap.Int("count", n),
					zap.Int("remaining", rl.Len()),
				)
			}
		case <-rl.done:
			return
		}
	}
}

// Close 停止背景清理，重複呼叫無副作用
func (rl *RateLimiter) Close() {
	rl.closeOnce.Do(func() {
		close(rl.done)
		rl.wg.Wait()
	})
}

// Allow 檢查 key 是否還有令牌
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{tokens: rl.capacity, lastTime: now}
		rl.buckets[key] = b
	}

	elapsed := now.Sub(b.lastTime).Seconds()
	b.lastTime = now
	b.tokens = math.Min(rl.capacity, b.tokens+elapsed*rl.rate)

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// Prune 移除已補滿的桶
func (rl *RateLimiter) Prune() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	removed := 0
	for key, b := range rl.buckets {
		if b.tokens+now.Sub(b.lastTime).Seconds()*rl.rate >= rl.capacity {
			delete(rl.buckets, key)
			removed++
		}
	}
	return removed
}

// Len 目前的桶數
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}

// RateLimit 限流中間件
func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	retryAfter := strconv.Itoa(int(math.Ceil(limiter.window.Seconds())))

	return func(c *gin.Context) {
		if limiter.Allow(c.ClientIP()) {
			c.Next()
			return
		}

		common.LogInfo("Rate limit exceeded",
			zap.String("ip", c.ClientIP()),
			zap.String("path", c.Request.URL.Path),
		)

		c.Header("Retry-After", retryAfter)
		c.AbortWithStatusJSON(http.StatusTooManyRequests, common.ErrTooManyRequests.Response(false))
	}
}
