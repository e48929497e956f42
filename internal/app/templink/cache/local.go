package cache

import (
	"time"

	"github.com/dgraph-io/ristretto"
)

// LocalCache 基于 ristretto 的本地存在性缓存（L1）。
// 值只有两种："1" 表示内容已落盘，notFoundSentinel 表示确认不存在。
type LocalCache struct {
	cache    *ristretto.Cache
	ttl      time.Duration
	emptyTTL time.Duration
}

// NewLocalCache 创建本地缓存
// maxItems: 最大缓存条目数（建议 10000-100000）
// maxCost: 最大内存占用（字节）
func NewLocalCache(maxItems int64, maxCost int64) (*LocalCache, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxItems * 10, // 计数器数量，建议为 maxItems 的 10 倍
		MaxCost:     maxCost,
		BufferItems: 64, // 每个 Get 缓冲区大小
	})
	if err != nil {
		return nil, err
	}
	return &LocalCache{
		cache:    cache,
		ttl:      5 * time.Minute,  // 本地缓存 TTL 短一些，保证多实例一致性
		emptyTTL: 10 * time.Second, // 负缓存 TTL
	}, nil
}

func (l *LocalCache) Get(path string) (string, bool) {
	if v, ok := l.cache.Get(path); ok {
		return v.(string), true
	}
	return "", false
}

func (l *LocalCache) Set(path string) {
	// cost=1 表示按条目数限制
	l.cache.SetWithTTL(path, presentValue, 1, l.ttl)
}

func (l *LocalCache) SetNotFound(path string) {
	l.cache.SetWithTTL(path, notFoundSentinel, 1, l.emptyTTL)
}

func (l *LocalCache) Del(path string) {
	l.cache.Del(path)
}

func (l *LocalCache) Close() {
	l.cache.Close()
}
