package httpapi

import (
	"time"

	"github.com/gin-gonic/gin"
	"media.local/internal/app/templink"
	"media.local/internal/app/templink/repo"
	"media.local/internal/app/templink/stats"
	"media.local/internal/app/templink/storage"
	"media.local/internal/platform/auth"
	"media.local/internal/platform/httpmiddleware"
	"media.local/internal/platform/ratelimit"
)

// RegisterPublicRoutes 挂公开路由：
//
//	GET /t/*filepath  跳转到签名链接（没缓存就回源）
//	GET /f/*filepath  校验签名后回内容
//
// limiter 为 nil 时不限流（本地开发常见）。
func RegisterPublicRoutes(r *gin.Engine, svc *templink.Service, collector stats.Collector, limiter *ratelimit.Limiter) {
	redirect := NewRedirectHandler(svc, collector)
	serve := NewServeHandler(svc, collector)

	if limiter != nil {
		// 跳转会触发回源，限得严一点；取内容只读缓存，放宽
		r.GET("/t/*filepath", httpmiddleware.RateLimit(limiter, "t", 30, time.Minute), redirect)
		r.GET("/f/*filepath", httpmiddleware.RateLimit(limiter, "f", 300, time.Minute), serve)
		return
	}
	r.GET("/t/*filepath", redirect)
	r.GET("/f/*filepath", serve)
}

// RegisterAPIRoutes 挂管理路由（JWT + admin 角色）。
func RegisterAPIRoutes(r *gin.Engine, resources *repo.ResourcesRepo, remover storage.Remover, ts auth.TokenService) {
	api := r.Group("/api/v1", httpmiddleware.AuthRequired(ts), httpmiddleware.RequireRole("admin"))
	api.GET("/resources/:alias", NewResourceInfoHandler(resources))
	api.DELETE("/resources/:alias", NewResourcePurgeHandler(resources, remover))
	api.GET("/resources/:alias/stats", NewResourceStatsHandler(resources))
}
