package templink

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// ErrInvalidPath 是领域层对“逻辑路径不合法”的统一错误。
//
// 设计原因：
// - 上层（HTTP）可以稳定地把它映射成 400，而不需要关心底层校验细节
// - 统一错误类型，避免各处返回不同字符串导致难以判断/测试
var ErrInvalidPath = errors.New("invalid path")

// NotFoundError 表示上游没有这个资源（或抓取失败被归一成“没有”）。
// 携带路径，方便上层返回带上下文的 404 与日志排查。
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("resource not found: %s", e.Path)
}

// IsNotFound 判断 err 链上是否有 NotFoundError。
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

const maxPathLen = 512

// NormalizePath 把调用方传入的原始路径归一成后端无关的逻辑路径。
//
// 规则：
// - 斜杠归一（清理重复斜杠与 ./），去掉前导 /
// - 拒绝空路径、..（目录穿越）、超长路径
// - 同一资源在 抓取/存储/签发 全流程中使用同一个归一结果
func NormalizePath(raw string) (string, error) {
	p := strings.TrimSpace(raw)
	p = strings.TrimPrefix(p, "/")
	if p == "" {
		return "", ErrInvalidPath
	}
	if len(p) > maxPathLen {
		return "", ErrInvalidPath
	}

	cleaned := path.Clean(p)
	if cleaned == "." || cleaned == ".." ||
		strings.HasPrefix(cleaned, "../") || strings.HasPrefix(cleaned, "/") {
		return "", ErrInvalidPath
	}
	// path.Clean 已经消除了中间的 ".."，这里只剩非法前缀的情况
	if strings.Contains(cleaned, "\x00") {
		return "", ErrInvalidPath
	}
	return cleaned, nil
}
