package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"media.local/internal/platform/metrics"
)

const (
	// 不要用 "" 作为哨兵值（可读性差、也容易把"未命中"和"命中空值"混淆）。
	notFoundSentinel = "__nil__"
	presentValue     = "1"
)

// PresenceCache 是两级存在性缓存：L1 ristretto 本地，L2 redis（多实例共享）。
// redis client 可以为 nil，此时退化为纯本地缓存。
type PresenceCache struct {
	client   *redis.Client
	local    *LocalCache // L1 本地缓存
	ttl      time.Duration
	emptyTTL time.Duration
}

func NewPresenceCache(client *redis.Client, local *LocalCache) *PresenceCache {
	return &PresenceCache{
		client:   client,
		local:    local,
		ttl:      time.Hour,
		emptyTTL: 30 * time.Second,
	}
}

// Get 返回缓存到的存在性。ok=false 表示两级都没命中，要去问权威存储。
func (c *PresenceCache) Get(ctx context.Context, path string) (present bool, ok bool, err error) {
	// L1: 本地缓存
	if c.local != nil {
		if v, hit := c.local.Get(path); hit {
			if v == notFoundSentinel {
				metrics.CacheOperations.WithLabelValues("l1", "hit_negative").Inc()
				return false, true, nil
			}
			metrics.CacheOperations.WithLabelValues("l1", "hit").Inc()
			return true, true, nil
		}
	}

	if c.client == nil {
		return false, false, nil
	}

	// L2: Redis
	key := "tl:" + path
	res, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		metrics.CacheOperations.WithLabelValues("l2", "miss").Inc()
		return false, false, nil // 缓存未命中
	}
	if err != nil {
		return false, false, err
	}

	// L2 命中，回填本地缓存
	if res == notFoundSentinel {
		metrics.CacheOperations.WithLabelValues("l2", "hit_negative").Inc()
		if c.local != nil {
			c.local.SetNotFound(path)
		}
		return false, true, nil
	}
	metrics.CacheOperations.WithLabelValues("l2", "hit").Inc()
	if c.local != nil {
		c.local.Set(path)
	}
	return true, true, nil
}

// Set 记录“内容已落盘”。写入会覆盖此前的负缓存，
// 避免刚落盘的路径还被 "__nil__" 挡住。
func (c *PresenceCache) Set(ctx context.Context, path string) error {
	if c.local != nil {
		c.local.Set(path)
	}
	if c.client == nil {
		return nil
	}
	return c.client.Set(ctx, "tl:"+path, presentValue, c.ttl).Err()
}

// SetNotFound 用明确哨兵值做"负缓存"，避免对不存在路径的反复回源（缓存穿透）。
func (c *PresenceCache) SetNotFound(ctx context.Context, path string) error {
	if c.local != nil {
		c.local.SetNotFound(path)
	}
	if c.client == nil {
		return nil
	}
	return c.client.Set(ctx, "tl:"+path, notFoundSentinel, c.emptyTTL).Err()
}

func (c *PresenceCache) Delete(ctx context.Context, path string) error {
	if c.local != nil {
		c.local.Del(path)
	}
	if c.client == nil {
		return nil
	}
	return c.client.Del(ctx, "tl:"+path).Err()
}

// Close 关闭本地缓存
func (c *PresenceCache) Close() {
	if c.local != nil {
		c.local.Close()
		slog.Info("本地缓存已关闭")
	}
}
