package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// HTTPSRedirectMiddleware 生产环境把 HTTP 请求永久重定向到 HTTPS
// 健康检查与指标端点不重定向,供集群内探针使用
func HTTPSRedirectMiddleware(enabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !enabled || IsHTTPS(c) || isProbePath(c.Request.URL.Path) {
			c.Next()
			return
		}

		host := c.Request.Host
		if host == "" {
			host = "localhost"
		}
		c.Redirect(http.StatusMovedPermanently, "https://"+host+c.Request.RequestURI)
		c.Abort()
	}
}

func isProbePath(path string) bool {
	return path == "/health" || path == "/metrics"
}

// IsHTTPS 检查请求是否通过 HTTPS,优先信任反向代理头
func IsHTTPS(c *gin.Context) bool {
	if strings.EqualFold(c.GetHeader("X-Forwarded-Proto"), "https") {
		return true
	}
	if c.GetHeader("X-Forwarded-SSL") == "on" {
		return true
	}
	return c.Request.URL.Scheme == "https" || c.Request.TLS != nil
}
