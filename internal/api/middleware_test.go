package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mautops/deferral-gin/internal/api"
	"github.com/mautops/deferral-gin/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(middleware ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware...)
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "success"})
	})
	return router
}

func serve(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// TestCORSMiddleware_AllowedOrigin 测试允许的源
func TestCORSMiddleware_AllowedOrigin(t *testing.T) {
	router := newRouter(api.CORSMiddleware(config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := serve(router, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), "Content-Disposition")
}

// TestCORSMiddleware_OptionsRequest 测试预检请求
func TestCORSMiddleware_OptionsRequest(t *testing.T) {
	router := newRouter(api.CORSMiddleware(config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}}))

	req := httptest.NewRequest(http.MethodOptions, "/test", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := serve(router, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "86400", w.Header().Get("Access-Control-Max-Age"))
}

// TestCORSMiddleware_DisallowedOrigin 测试不允许的源
func TestCORSMiddleware_DisallowedOrigin(t *testing.T) {
	router := newRouter(api.CORSMiddleware(config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Origin", "http://evil.example")
	w := serve(router, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

// TestCORSMiddleware_Wildcard 通配源不携带 credentials
func TestCORSMiddleware_Wildcard(t *testing.T) {
	router := newRouter(api.CORSMiddleware(config.CORSConfig{AllowedOrigins: []string{"*"}}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Origin", "http://anywhere.example")
	w := serve(router, req)

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
}

// TestRequestIDMiddleware 测试请求 ID 生成与透传
func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(api.RequestIDMiddleware())
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("request_id"))
	})

	w := serve(router, httptest.NewRequest(http.MethodGet, "/test", nil))
	generated := w.Header().Get("X-Request-ID")
	assert.NotEmpty(t, generated)
	assert.Equal(t, generated, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("X-Request-ID", "req-fixed")
	w = serve(router, req)
	assert.Equal(t, "req-fixed", w.Header().Get("X-Request-ID"))
	assert.Equal(t, "req-fixed", w.Body.String())
}

// TestRequestContextMiddleware 测试 gin 上下文写入请求 context
func TestRequestContextMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(api.RequestIDMiddleware(), func(c *gin.Context) {
		c.Set("user_id", "user-1")
		c.Set("roles", []string{"checker"})
		c.Next()
	}, api.RequestContextMiddleware())

	var got context.Context
	router.GET("/test", func(c *gin.Context) {
		got = c.Request.Context()
		c.Status(http.StatusOK)
	})

	serve(router, httptest.NewRequest(http.MethodGet, "/test", nil))
	require.NotNil(t, got)
	assert.Equal(t, "user-1", got.Value("user_id"))
	assert.Equal(t, []string{"checker"}, got.Value("roles"))
	assert.NotEmpty(t, got.Value("request_id"))
}

// TestSecurityHeadersMiddleware 测试安全头
func TestSecurityHeadersMiddleware(t *testing.T) {
	w := serve(newRouter(api.SecurityHeadersMiddleware(false)), httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "default-src 'self'")
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))

	w = serve(newRouter(api.SecurityHeadersMiddleware(true)), httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Contains(t, w.Header().Get("Strict-Transport-Security"), "max-age=31536000")
}

// TestRateLimitMiddleware 测试超出突发量返回 429
func TestRateLimitMiddleware(t *testing.T) {
	router := newRouter(api.RateLimitMiddleware(1, 1))

	w := serve(router, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(router, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}

// TestRateLimitMiddleware_Disabled 测试 rps 为 0 时不限流
func TestRateLimitMiddleware_Disabled(t *testing.T) {
	router := newRouter(api.RateLimitMiddleware(0, 0))
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, serve(router, httptest.NewRequest(http.MethodGet, "/test", nil)).Code)
	}
}

// TestRateLimiter_PerClient 测试不同客户端互不影响
func TestRateLimiter_PerClient(t *testing.T) {
	limiter := api.NewRateLimiter(1, 1)
	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.False(t, limiter.Allow("10.0.0.1"))
	assert.True(t, limiter.Allow("10.0.0.2"))
}

// TestVersionMiddleware 测试版本头
func TestVersionMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(api.VersionMiddleware())
	router.GET("/api/v1/test", func(c *gin.Context) {
		c.String(http.StatusOK, api.GetAPIVersion(c))
	})

	w := serve(router, httptest.NewRequest(http.MethodGet, "/api/v1/test", nil))
	assert.Equal(t, "v1", w.Header().Get("X-API-Version"))
	assert.Equal(t, "v1", w.Body.String())

	api.RegisterDeprecatedVersion(api.DeprecatedVersionInfo{
		Version:         "v0",
		DeprecationDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		SunsetDate:      time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		MigrationPath:   "/api/v1",
	})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/test", nil)
	req.Header.Set("API-Version", "v0")
	w = serve(router, req)
	assert.Equal(t, "true", w.Header().Get("X-API-Deprecated"))
	assert.Equal(t, "2025-06-01", w.Header().Get("X-API-Sunset-Date"))
}

// TestHTTPSRedirectMiddleware 测试生产环境重定向
func TestHTTPSRedirectMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(api.HTTPSRedirectMiddleware(true))
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/test?x=1", nil)
	req.Host = "deferral.example"
	w := serve(router, req)
	assert.Equal(t, http.StatusMovedPermanently, w.Code)
	assert.Equal(t, "https://deferral.example/test?x=1", w.Header().Get("Location"))

	req = httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	assert.Equal(t, http.StatusOK, serve(router, req).Code)

	assert.Equal(t, http.StatusOK, serve(router, httptest.NewRequest(http.MethodGet, "/health", nil)).Code)
}

// TestHTTPSRedirectMiddleware_Disabled 测试非生产环境不重定向
func TestHTTPSRedirectMiddleware_Disabled(t *testing.T) {
	w := serve(newRouter(api.HTTPSRedirectMiddleware(false)), httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

// TestI18nMiddleware 测试语言选择
func TestI18nMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(api.I18nMiddleware())
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, api.GetLanguage(c)+"|"+api.T(c, "error.not_found"))
	})

	w := serve(router, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, "en|Resource not found", w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9,en;q=0.8")
	w = serve(router, req)
	assert.Equal(t, "zh|资源未找到", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/test?lang=en-US", nil)
	req.Header.Set("Accept-Language", "zh-CN")
	w = serve(router, req)
	assert.Equal(t, "en|Resource not found", w.Body.String())
}

// TestI18nManager_Fallback 测试缺失翻译回退
func TestI18nManager_Fallback(t *testing.T) {
	m := api.NewI18nManager()
	m.LoadMessages("en", map[string]string{"greeting": "Hello"})
	m.LoadMessages("zh", map[string]string{"other": "其他"})

	assert.Equal(t, "Hello", m.Translate("zh", "greeting"))
	assert.Equal(t, "Hello", m.Translate("fr", "greeting"))
	assert.Equal(t, "missing.key", m.Translate("en", "missing.key"))

	require.NoError(t, m.LoadYAML("zh", []byte("greeting: 你好\n")))
	assert.Equal(t, "你好", m.Translate("zh", "greeting"))
	assert.Equal(t, "其他", m.Translate("zh", "other"))
}
