package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFSStore_PutGet(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}
	ctx := context.Background()

	exists, err := store.Exists(ctx, "test/image")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if exists {
		t.Fatal("fresh store must be empty")
	}

	content := &Content{Data: []byte("external-image-content"), ContentType: "image/png"}
	if err := store.Put(ctx, "test/image", content); err != nil {
		t.Fatalf("Put: %v", err)
	}

	exists, err = store.Exists(ctx, "test/image")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if !exists {
		t.Fatal("Exists after Put = false")
	}

	got, err := store.Get(ctx, "test/image")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got.Data) != "external-image-content" {
		t.Fatalf("data: got %q", got.Data)
	}
	if got.ContentType != "image/png" {
		t.Fatalf("content-type: got %q", got.ContentType)
	}
}

func TestFSStore_Overwrite(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}
	ctx := context.Background()

	if err := store.Put(ctx, "a/b", &Content{Data: []byte("v1"), ContentType: "text/plain"}); err != nil {
		t.Fatalf("Put v1: %v", err)
	}
	if err := store.Put(ctx, "a/b", &Content{Data: []byte("v2"), ContentType: "text/html"}); err != nil {
		t.Fatalf("Put v2: %v", err)
	}

	got, err := store.Get(ctx, "a/b")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	// 覆盖写后读到的是完整的新内容，不会串字节
	if string(got.Data) != "v2" || got.ContentType != "text/html" {
		t.Fatalf("got %q (%s)", got.Data, got.ContentType)
	}
}

func TestFSStore_GetMissing(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}
	if _, err := store.Get(context.Background(), "nope"); err != ErrNotFound {
		t.Fatalf("Get missing: got %v, want ErrNotFound", err)
	}
}

func TestFSStore_MissingMetaFallsBack(t *testing.T) {
	root := t.TempDir()
	store, err := NewFSStore(root)
	if err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}
	ctx := context.Background()

	if err := store.Put(ctx, "x", &Content{Data: []byte("d"), ContentType: "image/png"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	// 模拟元数据丢失
	if err := os.Remove(filepath.Join(root, "meta", "x")); err != nil {
		t.Fatalf("remove meta: %v", err)
	}

	got, err := store.Get(ctx, "x")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ContentType != "application/octet-stream" {
		t.Fatalf("fallback content-type: got %q", got.ContentType)
	}
}

func TestFSStore_Remove(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}
	ctx := context.Background()

	if err := store.Put(ctx, "x/y", &Content{Data: []byte("d"), ContentType: "text/plain"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := store.Remove(ctx, "x/y"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	exists, err := store.Exists(ctx, "x/y")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if exists {
		t.Fatal("Exists after Remove = true")
	}
	// 幂等
	if err := store.Remove(ctx, "x/y"); err != nil {
		t.Fatalf("second Remove: %v", err)
	}
}

func TestFSStore_PathEscape(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}
	// 领域层已经拦截 ..，这里验证存储层自己的兜底
	if _, err := store.Exists(context.Background(), "../../etc/passwd"); err == nil {
		t.Fatal("escaping path accepted")
	}
}
