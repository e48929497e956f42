package locking

import (
	"sync"
	"testing"
)

func TestMemLockMutualExclusion(t *testing.T) {
	m := NewMemLock()

	const goroutines = 32
	const iterations = 100

	counter := 0
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				_ = m.DoWithLock("same-key", func() error {
					counter++
					return nil
				})
			}
		}()
	}
	wg.Wait()

	if counter != goroutines*iterations {
		t.Fatalf("lost updates: got %d, want %d", counter, goroutines*iterations)
	}
}

func TestMemLockIndependentKeys(t *testing.T) {
	m := NewMemLock()

	done := make(chan struct{})
	release := make(chan struct{})

	go func() {
		_ = m.DoWithLock("a", func() error {
			<-release
			return nil
		})
	}()

	// 持有 key "a" 的锁时，key "b" 不应被阻塞
	go func() {
		_ = m.DoWithLock("b", func() error { return nil })
		close(done)
	}()

	<-done
	close(release)
}
