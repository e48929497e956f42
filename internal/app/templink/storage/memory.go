package storage

import (
	"context"
	"sync"
)

// MemStore 是 map 实现的内存 Store。
// 测试里用它替代文件系统（也替代框架式的 storage fake）；容量不受控，别在生产用。
type MemStore struct {
	mu      sync.RWMutex
	objects map[string]*Content
}

func NewMemStore() *MemStore {
	return &MemStore{
		objects: make(map[string]*Content),
	}
}

func (m *MemStore) Exists(ctx context.Context, path string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[path]
	return ok, nil
}

func (m *MemStore) Get(ctx context.Context, path string) (*Content, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.objects[path]
	if !ok {
		return nil, ErrNotFound
	}
	// 拷贝一份，防止调用方改写缓存内容
	data := make([]byte, len(c.Data))
	copy(data, c.Data)
	return &Content{Data: data, ContentType: c.ContentType}, nil
}

func (m *MemStore) Put(ctx context.Context, path string, content *Content) error {
	data := make([]byte, len(content.Data))
	copy(data, content.Data)

	m.mu.Lock()
	m.objects[path] = &Content{Data: data, ContentType: content.ContentType}
	m.mu.Unlock()
	return nil
}

func (m *MemStore) Remove(ctx context.Context, path string) error {
	m.mu.Lock()
	delete(m.objects, path)
	m.mu.Unlock()
	return nil
}

// Len 返回当前缓存的对象数（测试断言用）。
func (m *MemStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
