package locking

import "sync"

// MemLock 是进程内的按 key 互斥实现。
// 只在单进程内有效；多进程共用同一个缓存目录时需要换成跨进程锁。
type MemLock struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewMemLock() *MemLock {
	return &MemLock{
		locks: make(map[string]*sync.Mutex),
	}
}

func (m *MemLock) DoWithLock(key string, fn func() error) error {
	m.mu.Lock()
	lock, ok := m.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[key] = lock
	}
	m.mu.Unlock()

	lock.Lock()
	defer lock.Unlock()
	return fn()
}
