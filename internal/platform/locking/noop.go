package locking

// NoOp 不做任何加锁，函数立即执行。测试或明确不需要去重时使用。
type NoOp struct{}

func NewNoOp() *NoOp { return &NoOp{} }

func (*NoOp) DoWithLock(key string, fn func() error) error {
	return fn()
}
