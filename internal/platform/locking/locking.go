package locking

// Group 表示“按 key 互斥执行函数”的能力。
//
// 设计原因：
// - 同一路径的并发首次访问会触发重复抓取（cache miss 竞态）；
//   按路径加锁后，第二个请求拿到锁时内容通常已经落盘，直接走缓存
// - 用接口表达：单进程用内存锁，多进程部署可以换成文件锁/分布式锁而不动调用方
type Group interface {
	// DoWithLock 以 key 为粒度互斥执行 fn。
	DoWithLock(key string, fn func() error) error
}
