// Package gate 確保同一呼叫者同時只有一個昂貴操作在執行。
package gate

import (
	"context"
	"sync"
	"time"

	"food-analyzer/internal/pkg/common"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// Options 註冊表設定
type Options struct {
	IdleTTL         time.Duration // 閒置多久後可被淘汰
	MaxSize         int           // 軟上限，使用中的條目不會被淘汰
	CleanupInterval time.Duration // 背景清理間隔，<=0 時不啟動
}

// Stats 註冊表統計
type Stats struct {
	Size      int   `json:"size"`
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
	Waits     int64 `json:"waits"`
}

// entry 單一呼叫者的鎖
type entry struct {
	sem        *semaphore.Weighted
	refs       int // 持有或等待中的請求數
	expiresAt  time.Time
	lastAccess time.Time
}

// Registry 呼叫者 -> 互斥鎖 的限時註冊表
type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry
	opts    Options
	stats   Stats
	now     func() time.Time

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewRegistry 創建新的註冊表
func NewRegistry(opts Options) *Registry {
	r := &Registry{
		entries: make(map[string]*entry),
		opts:    opts,
		now:     time.Now,
		done:    make(chan struct{}),
	}

	if opts.CleanupInterval > 0 {
		r.wg.Add(1)
		go r.startCleanup()
	}

	common.LogInfo("呼叫者鎖註冊表已初始化",
		zap.Duration("idle_ttl", opts.IdleTTL),
		zap.Int("max_size", opts.MaxSize),
		zap.Duration("cleanup_interval", opts.CleanupInterval),
	)

	return r
}

// Acquire 取得 key 對應的鎖，阻塞直到前一個同 key 請求釋放或 ctx 結束。
// 回傳的 release 必須呼叫，重複呼叫無副作用。
func (r *Registry) Acquire(ctx context.Context, key string) (func(), error) {
	e := r.checkout(key)

	if !e.sem.TryAcquire(1) {
		r.mu.Lock()
		r.stats.Waits++
		r.mu.Unlock()

		if err := e.sem.Acquire(ctx, 1); err != nil {
			r.checkin(e)
			return nil, err
		}
	}

	var once sync.Once
	release := func() {
		once.Do(func() {
			e.sem.Release(1)
			r.checkin(e)
		})
	}
	return release, nil
}

// Do 在持有 key 的鎖期間執行 fn，任何情況下都會釋放
func (r *Registry) Do(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	release, err := r.Acquire(ctx, key)
	if err != nil {
		return err
	}
	defer release()
	return fn(ctx)
}

// checkout 在全局鎖內查找或建立條目並延長存活時間
func (r *Registry) checkout(key string) *entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	e, ok := r.entries[key]
	if ok {
		r.stats.Hits++
	} else {
		r.stats.Misses++
		if r.opts.MaxSize > 0 && len(r.entries) >= r.opts.MaxSize {
			r.makeRoom(now)
		}
		e = &entry{sem: semaphore.NewWeighted(1)}
		r.entries[key] = e
	}

	e.refs++
	e.lastAccess = now
	e.expiresAt = now.Add(r.opts.IdleTTL)
	return e
}

// checkin 釋放引用並重新計算閒置時間
func (r *Registry) checkin(e *entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	e.refs--
	e.lastAccess = now
	e.expiresAt = now.Add(r.opts.IdleTTL)
}

// makeRoom 容量已滿時先清過期，再淘汰最久未用的閒置條目
func (r *Registry) makeRoom(now time.Time) {
	if r.cleanup(now) > 0 {
		return
	}

	var oldestKey string
	var oldestAccess time.Time
	for key, e := range r.entries {
		if e.refs > 0 {
			continue
		}
		if oldestKey == "" || e.lastAccess.Before(oldestAccess) {
			oldestKey = key
			oldestAccess = e.lastAccess
		}
	}

	if oldestKey == "" {
		common.LogWarn("呼叫者鎖註冊表已滿且全部使用中",
			zap.Int("size", len(r.entries)),
		)
		return
	}

	delete(r.entries, oldestKey)
	r.stats.Evictions++
	common.LogDebug("呼叫者鎖已淘汰", zap.String("caller", oldestKey))
}

// cleanup 清理已過期且無人引用的條目，呼叫者需持有 mu
func (r *Registry) cleanup(now time.Time) int {
	count := 0
	for key, e := range r.entries {
		if e.refs == 0 && now.After(e.expiresAt) {
			delete(r.entries, key)
			count++
		}
	}
	r.stats.Evictions += int64(count)
	return count
}

// Cleanup 立即清理過期條目，回傳清理數量
func (r *Registry) Cleanup() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := r.cleanup(r.now())
	if count > 0 {
		common.LogDebug("已清理閒置的呼叫者鎖",
			zap.Int("count", count),
			zap.Int("size", len(r.entries)),
		)
	}
	return count
}

// startCleanup 啟動清理過期條目的協程
func (r *Registry) startCleanup() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.opts.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.Cleanup()
		case <-r.done:
			return
		}
	}
}

// Len 目前條目數量
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Stats 獲取統計信息
func (r *Registry) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.stats
	s.Size = len(r.entries)
	return s
}

// Close 停止背景清理
func (r *Registry) Close() {
	r.closeOnce.Do(func() {
		close(r.done)
		r.wg.Wait()

		stats := r.Stats()
		common.LogInfo("呼叫者鎖註冊表已關閉",
			zap.Int64("hits", stats.Hits),
			zap.Int64("misses", stats.Misses),
			zap.Int64("evictions", stats.Evictions),
		)
	})
}
