package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"media.local/internal/app/templink/repo"
	"media.local/internal/app/templink/storage"
)

// 管理接口：按别名查/删资源、看访问统计。
// 别名来自登记表（sqids 编码的自增 id），对外不暴露真实路径。

// NewResourceInfoHandler 处理 GET /api/v1/resources/:alias
func NewResourceInfoHandler(resources *repo.ResourcesRepo) gin.HandlerFunc {
	return func(c *gin.Context) {
		alias := c.Param("alias")

		data, err := resources.FindByAlias(c.Request.Context(), alias)
		if err != nil {
			if errors.Is(err, repo.ErrResourceNotFound) {
				c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "resource not found"})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
			return
		}
		c.JSON(http.StatusOK, data)
	}
}

// NewResourcePurgeHandler 处理 DELETE /api/v1/resources/:alias：
// 先删登记行拿到路径，再清内容缓存。缓存清理失败不回滚登记删除，
// 留下的孤儿内容只占磁盘，下次回源会覆盖。
func NewResourcePurgeHandler(resources *repo.ResourcesRepo, remover storage.Remover) gin.HandlerFunc {
	return func(c *gin.Context) {
		alias := c.Param("alias")

		path, err := resources.DeleteByAlias(c.Request.Context(), alias)
		if err != nil {
			if errors.Is(err, repo.ErrResourceNotFound) {
				c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "resource not found"})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
			return
		}

		if remover != nil {
			if err := remover.Remove(c.Request.Context(), path); err != nil {
				slog.Warn("purge cached content failed", "path", path, "err", err)
			}
		}

		c.JSON(http.StatusOK, gin.H{"deleted": alias, "path": path})
	}
}

// NewResourceStatsHandler 处理 GET /api/v1/resources/:alias/stats?limit=&cursor=
func NewResourceStatsHandler(resources *repo.ResourcesRepo) gin.HandlerFunc {
	return func(c *gin.Context) {
		alias := c.Param("alias")

		meta, err := resources.FindByAlias(c.Request.Context(), alias)
		if err != nil {
			if errors.Is(err, repo.ErrResourceNotFound) {
				c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "resource not found"})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
			return
		}

		limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
		if err != nil || limit <= 0 {
			limit = 20
		}
		if limit > 100 {
			limit = 100
		}
		cursor, err := strconv.ParseInt(c.DefaultQuery("cursor", "0"), 10, 64)
		if err != nil || cursor < 0 {
			cursor = 0
		}

		stats, err := resources.ListStatsByPath(c.Request.Context(), meta.Path, limit, cursor)
		if err != nil {
			if errors.Is(err, repo.ErrResourceNotFound) {
				c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "resource not found"})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}
