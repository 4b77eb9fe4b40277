package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eshashah22/131-Insight/pkg/response"
)

// BodyLimit 全局请求体大小限制中间件
// maxBytes 对应 server.max_body_bytes；反馈表单和待分析文本都走 JSON 请求体，
// GET 查询与 xlsx 导出没有请求体，不受影响
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}

		c.Next()

		// 处理器通过 c.Error 上报的超限错误，在未写响应时统一返回 413
		if c.Writer.Written() {
			return
		}
		for _, err := range c.Errors {
			var tooLarge *http.MaxBytesError
			if errors.As(err.Err, &tooLarge) {
				response.PayloadTooLarge(c, maxBytes)
				return
			}
		}
	}
}
