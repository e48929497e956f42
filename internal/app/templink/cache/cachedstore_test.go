package cache

import (
	"context"
	"sync/atomic"
	"testing"

	"media.local/internal/app/templink/storage"
)

// countingStore 记录打到权威存储的 Exists 次数。
type countingStore struct {
	*storage.MemStore
	existsCalls atomic.Int64
}

func (c *countingStore) Exists(ctx context.Context, path string) (bool, error) {
	c.existsCalls.Add(1)
	return c.MemStore.Exists(ctx, path)
}

func TestCachedStore_BloomShortCircuit(t *testing.T) {
	inner := &countingStore{MemStore: storage.NewMemStore()}
	bloom := NewBloomFilter(1000, 0.01)
	store := NewCachedStore(inner, nil, bloom)
	ctx := context.Background()

	// 没落盘过的路径：bloom 直接判否，不打权威存储
	exists, err := store.Exists(ctx, "never/stored")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if exists {
		t.Fatal("fresh path reported as existing")
	}
	if got := inner.existsCalls.Load(); got != 0 {
		t.Fatalf("bloom miss must not reach inner store, got %d calls", got)
	}
}

func TestCachedStore_PutThenExists(t *testing.T) {
	inner := &countingStore{MemStore: storage.NewMemStore()}
	bloom := NewBloomFilter(1000, 0.01)
	store := NewCachedStore(inner, nil, bloom)
	ctx := context.Background()

	content := &storage.Content{Data: []byte("d"), ContentType: "text/plain"}
	if err := store.Put(ctx, "a/b", content); err != nil {
		t.Fatalf("Put: %v", err)
	}

	// Put 之后 bloom 放行，权威存储给出真答案
	exists, err := store.Exists(ctx, "a/b")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if !exists {
		t.Fatal("Exists after Put = false")
	}

	got, err := store.Get(ctx, "a/b")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got.Data) != "d" {
		t.Fatalf("data: got %q", got.Data)
	}
}

func TestCachedStore_NilLayers(t *testing.T) {
	// presence 和 bloom 都缺席时退化为透传
	inner := &countingStore{MemStore: storage.NewMemStore()}
	store := NewCachedStore(inner, nil, nil)
	ctx := context.Background()

	exists, err := store.Exists(ctx, "x")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if exists {
		t.Fatal("empty store reported existing")
	}
	if got := inner.existsCalls.Load(); got != 1 {
		t.Fatalf("inner Exists calls: got %d, want 1", got)
	}
}

func TestCachedStore_Remove(t *testing.T) {
	inner := &countingStore{MemStore: storage.NewMemStore()}
	bloom := NewBloomFilter(1000, 0.01)
	store := NewCachedStore(inner, nil, bloom)
	ctx := context.Background()

	if err := store.Put(ctx, "a/b", &storage.Content{Data: []byte("d"), ContentType: "text/plain"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := store.Remove(ctx, "a/b"); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	// bloom 不支持删除，可能仍放行；权威存储兜底给出否
	exists, err := store.Exists(ctx, "a/b")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if exists {
		t.Fatal("Exists after Remove = true")
	}
}

func TestBloomFilter(t *testing.T) {
	b := NewBloomFilter(1000, 0.01)

	if b.MightExist("a") {
		t.Fatal("empty bloom claims existence")
	}
	b.Add("a")
	if !b.MightExist("a") {
		t.Fatal("bloom lost added path")
	}
	if b.Count() != 1 {
		t.Fatalf("Count: got %d", b.Count())
	}
}
