package cache

import (
	"encoding/json"
	"fmt"
	"time"
)

const resultPrefix = "analysis"

// ResultCache 以JSON形式缓存分析结果
type ResultCache struct {
	cache Cache
	ttl   time.Duration
}

// NewResultCache 创建结果缓存，ttl为0时使用底层缓存的默认值
func NewResultCache(c Cache, ttl time.Duration) *ResultCache {
	return &ResultCache{cache: c, ttl: ttl}
}

// ResultKey 分析结果的缓存键
// variant用于区分同一文件的不同参数，例如摘要句子数
func ResultKey(fileID, kind, variant string) string {
	if variant == "" {
		return GenerateCacheKey(resultPrefix, fileID, kind)
	}
	return GenerateCacheKey(resultPrefix, fileID, kind, variant)
}

// Load 读取并反序列化结果，未命中时返回false
func (rc *ResultCache) Load(key string, out interface{}) (bool, error) {
	raw, found, err := rc.cache.Get(key)
	if err != nil || !found {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		// 无法解析的旧数据直接丢弃
		_ = rc.cache.Delete(key)
		return false, fmt.Errorf("failed to decode cached result %s: %w", key, err)
	}
	return true, nil
}

// Store 序列化并写入结果
func (rc *ResultCache) Store(key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	return rc.cache.Set(key, string(data), rc.ttl)
}

// Invalidate 删除某个文件的全部缓存结果
func (rc *ResultCache) Invalidate(fileID string) (int, error) {
	return rc.cache.DeletePrefix(GenerateCacheKey(resultPrefix, fileID) + ":")
}
