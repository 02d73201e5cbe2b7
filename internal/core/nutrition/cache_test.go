package nutrition

import (
	"context"
	"testing"
	"time"

	"food-analyzer/internal/infrastructure/config"

	"github.com/stretchr/testify/assert"
)

func TestCacheKeyUsesLiteralQuery(t *testing.T) {
	assert.Equal(t, "nutrition:search:Яблоко", cacheKey("Яблоко"))
	assert.NotEqual(t, cacheKey("свиной шашлык"), cacheKey("шашлык свиной"))
	assert.NotEqual(t, cacheKey("яблоко"), cacheKey("Яблоко"))
}

func TestNewRedisCacheUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	c, err := NewRedisCache(ctx, config.CacheConfig{Enabled: true, Addr: "127.0.0.1:1", TTL: time.Minute})
	assert.Nil(t, c)
	assert.Error(t, err)
}
