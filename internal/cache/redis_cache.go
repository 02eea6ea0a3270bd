package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/redis/go-redis/v9"
)

// 每次SCAN返回的键数量提示
const scanBatch = 100

// RedisCache 基于Redis实现的缓存
// 所有键都带有命名空间前缀
type RedisCache struct {
	client    *redis.Client
	namespace string
	ctx       context.Context
}

// NewRedisCache 创建一个新的Redis缓存
func NewRedisCache(config Config) (Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.RedisAddr,
		Password: config.RedisPassword,
		DB:       config.RedisDB,
	})

	ctx := context.Background()
	attempts := config.ConnectAttempts
	if attempts == 0 {
		attempts = 1
	}

	// Redis可能晚于服务启动
	err := retry.Do(
		func() error {
			return client.Ping(ctx).Err()
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(500*time.Millisecond),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", config.RedisAddr, err)
	}

	return &RedisCache{
		client:    client,
		namespace: config.Namespace,
		ctx:       ctx,
	}, nil
}

func (r *RedisCache) key(k string) string {
	if r.namespace == "" {
		return k
	}
	return r.namespace + ":" + k
}

// Get 获取缓存内容
func (r *RedisCache) Get(key string) (string, bool, error) {
	value, err := r.client.Get(r.ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	} else if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Set 设置缓存内容
func (r *RedisCache) Set(key string, value string, ttl time.Duration) error {
	return r.client.Set(r.ctx, r.key(key), value, ttl).Err()
}

// Delete 删除缓存项
func (r *RedisCache) Delete(key string) error {
	return r.client.Del(r.ctx, r.key(key)).Err()
}

// DeletePrefix 用SCAN遍历并删除指定前缀的键
func (r *RedisCache) DeletePrefix(prefix string) (int, error) {
	var (
		cursor  uint64
		deleted int
	)
	pattern := r.key(prefix) + "*"
	for {
		keys, next, err := r.client.Scan(r.ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return deleted, fmt.Errorf("failed to scan keys: %w", err)
		}
		if len(keys) > 0 {
			n, err := r.client.Del(r.ctx, keys...).Result()
			if err != nil {
				return deleted, fmt.Errorf("failed to delete keys: %w", err)
			}
			deleted += int(n)
		}
		if next == 0 {
			return deleted, nil
		}
		cursor = next
	}
}

// Clear 清空命名空间下的缓存，未设置命名空间时清空整个库
func (r *RedisCache) Clear() error {
	if r.namespace == "" {
		return r.client.FlushDB(r.ctx).Err()
	}
	_, err := r.DeletePrefix("")
	return err
}

// Close 关闭Redis连接
func (r *RedisCache) Close() error {
	return r.client.Close()
}

func init() {
	RegisterCache("redis", NewRedisCache)
}
