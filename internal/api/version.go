package api

import (
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

const defaultAPIVersion = "v1"

// DeprecatedVersionInfo 废弃版本信息
type DeprecatedVersionInfo struct {
	Version         string
	DeprecationDate time.Time
	SunsetDate      time.Time
	MigrationPath   string
}

var (
	deprecatedVersions = make(map[string]DeprecatedVersionInfo)
	deprecatedMu       sync.RWMutex
)

// VersionMiddleware API 版本中间件
// 版本来自 /api/vN 路径,API-Version 请求头优先
func VersionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		version := versionFromPath(c.Request.URL.Path)
		if header := strings.TrimSpace(c.GetHeader("API-Version")); header != "" {
			version = header
		}

		deprecatedMu.RLock()
		info, deprecated := deprecatedVersions[version]
		deprecatedMu.RUnlock()

		if deprecated {
			c.Header("X-API-Deprecated", "true")
			c.Header("X-API-Deprecation-Date", info.DeprecationDate.Format("2006-01-02"))
			c.Header("X-API-Sunset-Date", info.SunsetDate.Format("2006-01-02"))
			if info.MigrationPath != "" {
				c.Header("X-API-Migration-Path", info.MigrationPath)
			}
		}

		c.Header("X-API-Version", version)
		c.Set("api_version", version)
		c.Next()
	}
}

func versionFromPath(path string) string {
	rest, ok := strings.CutPrefix(path, "/api/")
	if !ok {
		return defaultAPIVersion
	}
	segment, _, _ := strings.Cut(rest, "/")
	if len(segment) > 1 && segment[0] == 'v' {
		return segment
	}
	return defaultAPIVersion
}

// GetAPIVersion 从上下文获取 API 版本
func GetAPIVersion(c *gin.Context) string {
	if v := c.GetString("api_version"); v != "" {
		return v
	}
	return defaultAPIVersion
}

// RegisterDeprecatedVersion 注册废弃版本信息
func RegisterDeprecatedVersion(info DeprecatedVersionInfo) {
	deprecatedMu.Lock()
	defer deprecatedMu.Unlock()
	deprecatedVersions[info.Version] = info
}
