package cache

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseCache 对任意实现执行相同的行为检查
func exerciseCache(t *testing.T, c Cache) {
	require.NoError(t, c.Set("key1", "value1", 0))

	val, found, err := c.Get("key1")
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "value1", val)

	val, found, err = c.Get("non-existent")
	assert.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, val)

	require.NoError(t, c.Set("to-delete", "delete-me", 0))
	require.NoError(t, c.Delete("to-delete"))
	_, found, err = c.Get("to-delete")
	assert.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Set("analysis:f1:financial", "a", 0))
	require.NoError(t, c.Set("analysis:f1:narrative:8", "b", 0))
	require.NoError(t, c.Set("analysis:f10:financial", "c", 0))

	n, err := c.DeletePrefix("analysis:f1:")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, found, _ = c.Get("analysis:f10:financial")
	assert.True(t, found)

	require.NoError(t, c.Clear())
	_, found, err = c.Get("key1")
	assert.NoError(t, err)
	assert.False(t, found)
}

// TestMemoryCache 测试内存缓存的基本功能
func TestMemoryCache(t *testing.T) {
	c, err := NewMemoryCache(Config{
		Type:            "memory",
		DefaultTTL:      time.Second * 2,
		CleanupInterval: time.Second,
	})
	require.NoError(t, err)

	exerciseCache(t, c)

	// 测试过期
	require.NoError(t, c.Set("expire-soon", "temp-value", time.Millisecond*50))
	time.Sleep(time.Millisecond * 100)
	_, found, err := c.Get("expire-soon")
	assert.NoError(t, err)
	assert.False(t, found)
}

// TestRedisCache 使用miniredis测试Redis缓存
func TestRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)

	c, err := NewCache(Config{
		Type:      "redis",
		RedisAddr: mr.Addr(),
		Namespace: "test",
	})
	require.NoError(t, err)

	require.NoError(t, c.Set("ns-check", "v", time.Minute))
	assert.True(t, mr.Exists("test:ns-check"))

	exerciseCache(t, c)

	// 测试过期
	require.NoError(t, c.Set("expire-soon", "temp-value", time.Second))
	mr.FastForward(2 * time.Second)
	_, found, err := c.Get("expire-soon")
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestRedisCacheUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisCache(Config{RedisAddr: addr, ConnectAttempts: 1})
	assert.Error(t, err)
}

func TestNewCacheUnknownType(t *testing.T) {
	_, err := NewCache(Config{Type: "memcached"})
	assert.Error(t, err)

	c, err := NewCache(Config{})
	require.NoError(t, err)
	assert.IsType(t, &MemoryCache{}, c)
}

func TestResultCache(t *testing.T) {
	c, err := NewMemoryCache(DefaultConfig())
	require.NoError(t, err)
	rc := NewResultCache(c, time.Minute)

	type result struct {
		Company string             `json:"company"`
		Ratios  map[string]float64 `json:"ratios"`
	}

	key := ResultKey("file-1", "financial", "")
	assert.Equal(t, "analysis:file-1:financial", key)
	assert.Equal(t, "analysis:file-1:narrative:5", ResultKey("file-1", "narrative", "5"))

	var out result
	found, err := rc.Load(key, &out)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, rc.Store(key, result{Company: "Acme", Ratios: map[string]float64{"equity_ratio": 0.6}}))
	found, err = rc.Load(key, &out)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Acme", out.Company)
	assert.Equal(t, 0.6, out.Ratios["equity_ratio"])

	// 损坏的数据被删除
	require.NoError(t, c.Set(key, "{not json", 0))
	_, err = rc.Load(key, &out)
	assert.Error(t, err)
	_, found, _ = c.Get(key)
	assert.False(t, found)

	require.NoError(t, rc.Store(ResultKey("file-1", "narrative", "8"), result{}))
	n, err := rc.Invalidate("file-1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
