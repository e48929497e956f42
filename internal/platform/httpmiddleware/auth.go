package httpmiddleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"media.local/internal/platform/auth"
)

// parseBearer 解析 Authorization header 中的 Bearer token
// 返回 token 字符串，如果格式不正确返回空字符串
func parseBearer(header string) string {
	fields := strings.Fields(header)
	if len(fields) != 2 || !strings.EqualFold(fields[0], "Bearer") {
		return ""
	}
	return fields[1]
}

// AuthRequired 要求请求必须携带有效的 JWT token
func AuthRequired(ts auth.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := c.Request.Header.Get("Authorization")
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}
		token := parseBearer(tokenStr)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}
		claim, err := ts.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), auth.Identity{
			Subject: claim.Subject,
			Role:    claim.Role,
		}))
		c.Next()
	}
}

// RequireRole 要求调用方具有指定角色
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := auth.GetIdentity(c.Request.Context())
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		if id.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}
