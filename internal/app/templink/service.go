package templink

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"media.local/internal/app/templink/fetch"
	"media.local/internal/app/templink/sign"
	"media.local/internal/app/templink/storage"
	"media.local/internal/platform/clock"
	"media.local/internal/platform/locking"
	"media.local/internal/platform/metrics"
)

// Registry 是资源元数据登记的用例能力（pgx 实现在 repo 包）。
//
// 设计原因：
// - 登记是旁路：真正的权威是内容存储；登记失败不应让用户请求失败
// - 用接口表达：领域层不依赖 SQL 细节，测试里可以不接数据库
type Registry interface {
	// RecordFetch 登记一次成功的回源。抓取时刻由数据库的 now() 填，
	// 领域层不为旁路元数据额外读时钟。
	RecordFetch(ctx context.Context, path, contentType string, size int64, sha256Hex string) error
}

// Service 把 检查缓存 → 回源抓取 → 落盘 → 签发链接 编排成一次操作。
type Service struct {
	store    storage.Store
	fetcher  fetch.Fetcher
	signer   *sign.Signer
	clock    clock.Clock
	locks    locking.Group
	registry Registry // 可为 nil
	ttl      time.Duration
}

func NewService(store storage.Store, fetcher fetch.Fetcher, signer *sign.Signer, clk clock.Clock, locks locking.Group, registry Registry, ttl time.Duration) *Service {
	if locks == nil {
		locks = locking.NewNoOp()
	}
	return &Service{
		store:    store,
		fetcher:  fetcher,
		signer:   signer,
		clock:    clk,
		locks:    locks,
		registry: registry,
		ttl:      ttl,
	}
}

// Resolve 返回 rawPath 对应资源的临时签名链接。
//
// 流程：Exists → (miss) Fetch → Put → Issue。
//
// 约定：
// - 整个调用只在签发时读一次时钟，时间不会在操作中途前进；
//   冻结时钟下重复调用得到字节级相同的链接
// - 回源失败一律归一成 NotFoundError（携带路径），不落盘、不签发
// - 落盘失败对本次调用是致命的：绝不为没存进去的内容签链接
// - 同一路径的并发首次访问按路径互斥，抓取最多发生一次
func (s *Service) Resolve(ctx context.Context, rawPath string) (string, error) {
	path, err := NormalizePath(rawPath)
	if err != nil {
		return "", err
	}

	exists, err := s.store.Exists(ctx, path)
	if err != nil {
		return "", fmt.Errorf("check cache: %w", err)
	}

	if !exists {
		if err := s.locks.DoWithLock(path, func() error {
			return s.fetchAndStore(ctx, path)
		}); err != nil {
			return "", err
		}
	}

	// 唯一的一次时钟读取：过期时刻在这里定格
	now := s.clock.Now()
	link := s.signer.Issue(path, now.Add(s.ttl))
	metrics.LinksIssuedTotal.Inc()
	return link, nil
}

// fetchAndStore 在按路径锁内执行：先复查（别的请求可能刚抓完），再回源落盘。
func (s *Service) fetchAndStore(ctx context.Context, path string) error {
	exists, err := s.store.Exists(ctx, path)
	if err != nil {
		return fmt.Errorf("check cache: %w", err)
	}
	if exists {
		return nil
	}

	content, err := s.fetcher.Fetch(ctx, path)
	if err != nil {
		metrics.FetchesTotal.WithLabelValues(fetchResult(err)).Inc()
		slog.Warn("upstream fetch failed", "path", path, "err", err)
		return &NotFoundError{Path: path}
	}
	metrics.FetchesTotal.WithLabelValues("ok").Inc()

	if err := s.store.Put(ctx, path, content); err != nil {
		return fmt.Errorf("store content: %w", err)
	}

	// 旁路登记元数据，失败只记日志
	if s.registry != nil {
		sum := sha256.Sum256(content.Data)
		regCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := s.registry.RecordFetch(regCtx, path, content.ContentType, int64(len(content.Data)), hex.EncodeToString(sum[:])); err != nil {
			slog.Warn("record fetch failed", "path", path, "err", err)
		}
	}
	return nil
}

// VerifyAndGet 校验签名链接的参数并取出内容（/f 路径用）。
// 同样只读一次时钟。
func (s *Service) VerifyAndGet(ctx context.Context, rawPath, expires, sig string) (*storage.Content, error) {
	path, err := NormalizePath(rawPath)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if err := s.signer.Verify(path, expires, sig, now); err != nil {
		metrics.LinkVerifyFailures.WithLabelValues(verifyReason(err)).Inc()
		return nil, err
	}

	content, err := s.store.Get(ctx, path)
	if err != nil {
		if err == storage.ErrNotFound {
			return nil, &NotFoundError{Path: path}
		}
		return nil, fmt.Errorf("read cache: %w", err)
	}
	return content, nil
}

func fetchResult(err error) string {
	if fe, ok := err.(*fetch.Error); ok && fe.StatusCode == 404 {
		return "not_found"
	}
	return "error"
}

func verifyReason(err error) string {
	switch err {
	case sign.ErrExpired:
		return "expired"
	case sign.ErrBadSignature:
		return "bad_signature"
	default:
		return "bad_request"
	}
}
