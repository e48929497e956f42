package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"media.local/internal/app/templink"
	"media.local/internal/app/templink/sign"
	"media.local/internal/app/templink/stats"
	"media.local/internal/platform/httpmiddleware"
	"media.local/internal/platform/metrics"
)

// NOTE: handler 只做“翻译”：HTTP <-> 领域（参数提取、错误映射、响应格式），避免堆业务。
// - 编排逻辑在 internal/app/templink（Service）
// - SQL 访问在 internal/app/templink/repo（本业务私有）
//
// 设计原因（为什么要单独一个 httpapi 包）：
// - 让领域层不依赖 HTTP 框架（gin），更容易测试与复用
// - 未来挂别的应用时也遵循同样模式：internal/app/<name>/httpapi + internal/app/<name>

// NewRedirectHandler 处理 GET /t/*filepath：
// 缓存没有就回源抓一次，然后 302 到带过期时间的签名链接。
func NewRedirectHandler(svc *templink.Service, collector stats.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.Param("filepath")

		link, err := svc.Resolve(c.Request.Context(), raw)
		if err != nil {
			abortResolveError(c, err)
			return
		}
		metrics.RedirectsTotal.Inc()

		//异步记录访问
		if collector != nil {
			if p, err := templink.NormalizePath(raw); err == nil {
				collector.Collect(stats.AccessEvent{
					Path:       p,
					Kind:       stats.KindRedirect,
					AccessedAt: time.Now(),
					IP:         httpmiddleware.ClientIP(c.Request),
					UserAgent:  c.Request.UserAgent(),
					Referer:    c.Request.Referer(),
				})
			}
		}

		c.Redirect(http.StatusFound, link)
	}
}

// NewServeHandler 处理 GET /f/*filepath?expires=..&sig=..：
// 校验签名与有效期，然后把缓存的内容回给客户端。
func NewServeHandler(svc *templink.Service, collector stats.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.Param("filepath")
		expires := c.Query("expires")
		sig := c.Query("sig")
		if expires == "" || sig == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing expires or sig"})
			return
		}

		content, err := svc.VerifyAndGet(c.Request.Context(), raw, expires, sig)
		if err != nil {
			abortServeError(c, err)
			return
		}

		if collector != nil {
			if p, err := templink.NormalizePath(raw); err == nil {
				collector.Collect(stats.AccessEvent{
					Path:       p,
					Kind:       stats.KindServe,
					AccessedAt: time.Now(),
					IP:         httpmiddleware.ClientIP(c.Request),
					UserAgent:  c.Request.UserAgent(),
					Referer:    c.Request.Referer(),
				})
			}
		}

		c.Data(http.StatusOK, content.ContentType, content.Data)
	}
}

func abortResolveError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, templink.ErrInvalidPath):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid path"})
	case templink.IsNotFound(err):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "resolve failed"})
	}
}

func abortServeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, templink.ErrInvalidPath), errors.Is(err, sign.ErrBadExpires):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "bad request"})
	case errors.Is(err, sign.ErrExpired):
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "link expired"})
	case errors.Is(err, sign.ErrBadSignature):
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "bad signature"})
	case templink.IsNotFound(err):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "serve failed"})
	}
}
