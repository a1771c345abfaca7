package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// RequestIDMiddleware 透传或生成请求 ID
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" || len(requestID) > 64 {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Header(requestIDHeader, requestID)
		c.Next()
	}
}

// contextKeys 服务层通过 ctx.Value 读取的键
var contextKeys = []string{"user_id", "username", "roles", "request_id"}

// RequestContextMiddleware 把认证信息与请求元数据写入 request context,
// 需放在认证中间件之后
func RequestContextMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		for _, key := range contextKeys {
			if v, ok := c.Get(key); ok {
				ctx = context.WithValue(ctx, key, v) //nolint:staticcheck
			}
		}
		ctx = context.WithValue(ctx, "ip", c.ClientIP())                   //nolint:staticcheck
		ctx = context.WithValue(ctx, "user_agent", c.Request.UserAgent()) //nolint:staticcheck
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
