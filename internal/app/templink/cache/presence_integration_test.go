package cache

import (
	"context"
	"os"
	"testing"

	platformcache "media.local/internal/platform/cache"
)

// 需要本地 redis；连不上就跳过。
func setupRedis(t *testing.T) *PresenceCache {
	t.Helper()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client, err := platformcache.NewRedisClient(addr, "", 0)
	if err != nil {
		t.Skipf("Skipping test: cannot connect to redis: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	// 不挂 L1：ristretto 的写入是异步的，单测断言会抖
	return NewPresenceCache(client, nil)
}

func TestPresenceCache_SetGet(t *testing.T) {
	c := setupRedis(t)
	ctx := context.Background()

	const path = "it/presence/set-get"
	t.Cleanup(func() { c.Delete(ctx, path) })

	if _, ok, err := c.Get(ctx, path); err != nil || ok {
		t.Fatalf("fresh key: ok=%v err=%v", ok, err)
	}

	if err := c.Set(ctx, path); err != nil {
		t.Fatalf("Set: %v", err)
	}
	present, ok, err := c.Get(ctx, path)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok || !present {
		t.Fatalf("after Set: present=%v ok=%v", present, ok)
	}
}

func TestPresenceCache_NegativeThenOverwrite(t *testing.T) {
	c := setupRedis(t)
	ctx := context.Background()

	const path = "it/presence/negative"
	t.Cleanup(func() { c.Delete(ctx, path) })

	if err := c.SetNotFound(ctx, path); err != nil {
		t.Fatalf("SetNotFound: %v", err)
	}
	present, ok, err := c.Get(ctx, path)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok || present {
		t.Fatalf("negative entry: present=%v ok=%v", present, ok)
	}

	// 落盘后正缓存必须覆盖负缓存
	if err := c.Set(ctx, path); err != nil {
		t.Fatalf("Set: %v", err)
	}
	present, ok, err = c.Get(ctx, path)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok || !present {
		t.Fatalf("after overwrite: present=%v ok=%v", present, ok)
	}
}

func TestPresenceCache_Delete(t *testing.T) {
	c := setupRedis(t)
	ctx := context.Background()

	const path = "it/presence/delete"
	if err := c.Set(ctx, path); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := c.Delete(ctx, path); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, err := c.Get(ctx, path); err != nil || ok {
		t.Fatalf("after Delete: ok=%v err=%v", ok, err)
	}
}
