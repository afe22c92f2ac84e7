// Package middleware 提供了处理 HTTP 请求的中间件。
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GatewayAuthMiddleware 校验消息网关携带的共享密钥。
// 对话接口只应由网关调用，终端用户不直接访问。
func GatewayAuthMiddleware(gatewayToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// WebSocket 升级请求无法自定义任意头部时，允许用查询参数传递
		token := c.GetHeader("X-Gateway-Token")
		if token == "" {
			token = c.Query("token")
		}
		if token == "" || token != gatewayToken {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "无效的网关凭证"})
			return
		}
		c.Next()
	}
}
