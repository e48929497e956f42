package cache

import (
	"context"
	"log/slog"

	"media.local/internal/app/templink/storage"
	"media.local/internal/platform/metrics"
)

// CachedStore 给权威 Store 套上存在性加速层：bloom → L1/L2 → 权威存储。
//
// 只加速 Exists；Get/Put 始终打到权威存储（内容本体不进 redis，太大）。
// presence 与 bloom 都可以为 nil，逐层退化。
type CachedStore struct {
	inner    storage.Store
	presence *PresenceCache
	bloom    *BloomFilter
}

func NewCachedStore(inner storage.Store, presence *PresenceCache, bloom *BloomFilter) *CachedStore {
	return &CachedStore{
		inner:    inner,
		presence: presence,
		bloom:    bloom,
	}
}

func (c *CachedStore) Exists(ctx context.Context, path string) (bool, error) {
	// bloom 只收录落盘过的路径：不在 bloom 里 => 一定没存过
	if c.bloom != nil && !c.bloom.MightExist(path) {
		metrics.CacheOperations.WithLabelValues("bloom", "miss").Inc()
		return false, nil
	}

	if c.presence != nil {
		present, ok, err := c.presence.Get(ctx, path)
		if err != nil {
			// redis 故障不致命，降级去问权威存储
			slog.Warn("presence cache get failed", "path", path, "err", err)
		} else if ok {
			return present, nil
		}
	}

	exists, err := c.inner.Exists(ctx, path)
	if err != nil {
		return false, err
	}
	metrics.CacheOperations.WithLabelValues("store", existsResult(exists)).Inc()

	// 回填，下次不再打到权威存储
	if c.presence != nil {
		if exists {
			if err := c.presence.Set(ctx, path); err != nil {
				slog.Warn("presence cache set failed", "path", path, "err", err)
			}
		} else {
			if err := c.presence.SetNotFound(ctx, path); err != nil {
				slog.Warn("presence cache set-notfound failed", "path", path, "err", err)
			}
		}
	}
	if exists && c.bloom != nil {
		c.bloom.Add(path)
	}
	return exists, nil
}

func (c *CachedStore) Get(ctx context.Context, path string) (*storage.Content, error) {
	return c.inner.Get(ctx, path)
}

func (c *CachedStore) Put(ctx context.Context, path string, content *storage.Content) error {
	if err := c.inner.Put(ctx, path, content); err != nil {
		return err
	}
	// 写成功后立刻覆盖可能存在的负缓存
	if c.presence != nil {
		if err := c.presence.Set(ctx, path); err != nil {
			slog.Warn("presence cache set failed", "path", path, "err", err)
		}
	}
	if c.bloom != nil {
		c.bloom.Add(path)
	}
	return nil
}

// Remove 透传给权威存储（若支持），并清掉两级存在性缓存。
func (c *CachedStore) Remove(ctx context.Context, path string) error {
	if r, ok := c.inner.(storage.Remover); ok {
		if err := r.Remove(ctx, path); err != nil {
			return err
		}
	}
	if c.presence != nil {
		if err := c.presence.Delete(ctx, path); err != nil {
			slog.Warn("presence cache delete failed", "path", path, "err", err)
		}
	}
	// bloom 不支持删除；false positive 由权威存储兜底
	return nil
}

func (c *CachedStore) Close() {
	if c.presence != nil {
		c.presence.Close()
	}
}

func existsResult(exists bool) string {
	if exists {
		return "hit"
	}
	return "miss"
}
