package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"media.local/internal/app/templink/storage"
)

// Error 表示一次回源失败。网络错误和非 2xx 响应统一归成它，
// 编排层不区分细类，一律转成“资源不存在”。
type Error struct {
	Path       string
	StatusCode int // 0 表示传输层错误
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: upstream status %d", e.Path, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Fetcher 表示“按逻辑路径从上游取一次资源”的能力。
//
// 约定：单次尝试，不重试——资源缓存住之后就再也不会回源，
// 偶发失败由下一个请求自然重试。
type Fetcher interface {
	Fetch(ctx context.Context, path string) (*storage.Content, error)
}

// HTTPFetcher 用 GET 从 baseURL+path 抓取资源。
type HTTPFetcher struct {
	baseURL  string
	client   *http.Client
	maxBytes int64
}

func NewHTTPFetcher(baseURL string, timeout time.Duration, maxBytes int64) *HTTPFetcher {
	return &HTTPFetcher{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: timeout,
			// 让上游调用也进 trace
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		maxBytes: maxBytes,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, path string) (*storage.Content, error) {
	target, err := url.JoinPath(f.baseURL, path)
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// 读掉 body 以复用连接，内容不关心
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &Error{Path: path, StatusCode: resp.StatusCode}
	}

	limit := f.maxBytes
	if limit <= 0 {
		limit = 64 << 20
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}
	if int64(len(data)) > limit {
		return nil, &Error{Path: path, Err: fmt.Errorf("body exceeds %d bytes", limit)}
	}

	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = "application/octet-stream"
	}
	return &storage.Content{Data: data, ContentType: ct}, nil
}
