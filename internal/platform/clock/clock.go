package clock

import (
	"sync"
	"time"
)

// Clock 是时间来源的抽象。
//
// 设计原因：
// - 签名链接里会嵌入过期时间戳；如果组件内部直接调 time.Now()，
//   测试断言（字符串比较链接）就会不稳定
// - 把“读时间”收敛到一个注入的依赖上：生产用 System，测试用 Frozen
// - 约定：一次业务调用内只读一次 Now()，时间不会在操作中途前进
type Clock interface {
	Now() time.Time
}

// System 直接读系统时间，无状态。
type System struct{}

func NewSystem() *System { return &System{} }

func (*System) Now() time.Time { return time.Now() }

// Frozen 是测试用的冻结时钟：Now() 始终返回被钉住的时刻，
// 直到显式 Set/Advance。并发安全，但注意不要在不相关的测试间共享实例。
type Frozen struct {
	mu  sync.RWMutex
	now time.Time
}

// NewFrozen 创建一个钉在 t 的时钟。
func NewFrozen(t time.Time) *Frozen {
	return &Frozen{now: t}
}

func (f *Frozen) Now() time.Time {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.now
}

// Advance 显式把时间向前拨 d（可为负，测试回拨用）。
func (f *Frozen) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

// Set 重新钉住时刻。每个测试用例开始时重设，避免冻结状态跨测试泄漏。
func (f *Frozen) Set(t time.Time) {
	f.mu.Lock()
	f.now = t
	f.mu.Unlock()
}
