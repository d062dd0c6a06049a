package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"crewboard/backend/pkg/response"
)

// BodyLimit 全局请求体大小限制中间件
// 占用推送与 ICS 导入请求可能较大，上限由路由层统一给定；
// 超限读取在 handler 侧表现为绑定失败，这里兜底换成统一的 413 响应。
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}

		c.Next()

		if c.IsAborted() {
			return
		}
		var tooLarge *http.MaxBytesError
		for _, ginErr := range c.Errors {
			if errors.As(ginErr.Err, &tooLarge) {
				response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
				return
			}
		}
	}
}
