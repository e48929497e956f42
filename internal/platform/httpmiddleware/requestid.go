package httpmiddleware

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

const requestIDHeader = "X-Request-ID"

func ReqID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Request.Header.Get(requestIDHeader)
		if id == "" {
			id = GenerateReqID()
			if id == "" {
				id = strconv.FormatInt(time.Now().UnixNano(), 10)
			}
			c.Request.Header.Set(requestIDHeader, id)
		}
		c.Header(requestIDHeader, id)

		c.Next()
	}
}

func GenerateReqID() string {
	src := make([]byte, 16)
	if _, err := rand.Read(src); err != nil {
		return ""
	}

	return hex.EncodeToString(src) // 32 个十六进制字符
}
