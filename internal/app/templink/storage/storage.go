package storage

import (
	"context"
	"errors"
)

// ErrNotFound：Get 一个不存在的路径。调用方要么先 Exists，要么显式处理它。
var ErrNotFound = errors.New("content not found")

// Content 是一份已缓存的资源内容。Data 一旦写入对同一路径视为不可变
// （覆盖写是允许的，但外界永远看不到半写状态）。
type Content struct {
	Data        []byte
	ContentType string
}

// Store 是内容缓存的最小契约。
//
// 设计原因：
// - Exists 无副作用：编排层靠它决定走缓存还是回源，不能顺手改状态
// - Put 对相同内容幂等：同一路径重复写同样的字节没有可观察差异
// - 用接口表达：文件系统版供生产，内存版供测试注入（不靠框架 fake）
type Store interface {
	Exists(ctx context.Context, path string) (bool, error)
	Get(ctx context.Context, path string) (*Content, error)
	Put(ctx context.Context, path string, content *Content) error
}

// Remover 是可选能力：管理端清除（purge）时删掉已缓存的内容。
type Remover interface {
	Remove(ctx context.Context, path string) error
}
