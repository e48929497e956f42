package httpmiddleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"media.local/internal/platform/metrics"
)

func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		metrics.HTTPInflightRequests.Inc()       //正在处理的请求数+1
		defer metrics.HTTPInflightRequests.Dec() //请求处理结束
		routePattern := c.FullPath()
		if routePattern == "" {
			routePattern = "UNMATCHED"
		}
		defer func() {
			duration := time.Since(start).Seconds()
			status := c.Writer.Status()
			metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, routePattern, strconv.Itoa(status)).Inc()
			metrics.HTTPRequestDurationSeconds.WithLabelValues(c.Request.Method, routePattern).Observe(duration)
		}()
		c.Next()
	}
}
