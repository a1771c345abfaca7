package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	_ "github.com/mautops/deferral-gin/docs" // swagger 文档注册
	"github.com/mautops/deferral-gin/internal/auth"
	"github.com/mautops/deferral-gin/internal/config"
	"github.com/mautops/deferral-gin/internal/service"
	"github.com/mautops/deferral-gin/internal/websocket"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// RouterDeps 路由依赖,可选项为 nil 时对应路由或中间件不注册
type RouterDeps struct {
	Config *config.Config
	DB     *gorm.DB
	Logger *logrus.Logger

	// Auth 认证中间件,需写入 user_id、username、roles
	Auth gin.HandlerFunc
	// Authorizer 延期申请的对象级权限检查
	Authorizer auth.Authorizer
	// TokenValidator 用于 WebSocket/SSE 的查询参数 token,nil 时走 Auth
	TokenValidator websocket.TokenValidator

	Hub          *websocket.Hub
	SSE          *SSEBroker
	HealthChecks map[string]HealthCheck
	SLAAlerts    *SLAAlertManager

	Checklists service.ChecklistService
	Extensions service.ExtensionService
	Reports    service.ReportService
	Statistics service.StatisticsService
	AuditLogs  service.AuditLogService
}

// 清单读写角色
var (
	reviewerRoles = []string{auth.RoleChecker, auth.RoleCoChecker}
	checklistRead = []string{auth.RoleChecker, auth.RoleCoChecker, auth.RoleCreator, auth.RoleRM}
)

// SetupRoutes 配置路由
func SetupRoutes(deps RouterDeps) *gin.Engine {
	cfg := deps.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if deps.Logger != nil {
		SetDefaultLogger(deps.Logger)
	}
	production := config.IsProduction(cfg)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware())
	router.Use(RequestLogMiddleware())
	router.Use(HTTPSRedirectMiddleware(production))
	router.Use(SecurityHeadersMiddleware(production))
	router.Use(CORSMiddleware(cfg.CORS))
	router.Use(I18nMiddleware())
	router.Use(VersionMiddleware())
	if cfg.Tracing.Enabled {
		router.Use(TracingMiddleware(cfg.Tracing))
	}
	router.Use(ErrorHandlerMiddleware())

	router.GET("/health", NewHealthController(deps.DB, deps.HealthChecks).Check)
	router.GET("/metrics", MetricsHandler())
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	authn := deps.Auth
	if authn == nil {
		authn = func(c *gin.Context) { c.Next() }
	}

	// 浏览器的 WebSocket/EventSource 无法带 Authorization 头,配置了校验器时改用 ?token=
	live := router.Group("")
	if deps.TokenValidator == nil {
		live.Use(authn)
	}
	if deps.Hub != nil {
		live.GET("/ws/checklists/:id", websocket.WebSocketHandler(deps.Hub, deps.TokenValidator, cfg.CORS.AllowedOrigins, GetLogger()))
	}
	if deps.SSE != nil {
		live.GET("/sse/checklists/:id", SSEHandler(deps.SSE, deps.TokenValidator))
	}

	v1 := router.Group("/api/v1")
	v1.Use(authn, RequestContextMiddleware())
	v1.Use(RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
	v1.Use(SLAMonitorMiddleware(DefaultLatencySLAConfig(), deps.SLAAlerts))
	{
		v1.GET("/menu", Menu)

		if deps.Checklists != nil {
			ctl := NewChecklistController(deps.Checklists)
			checklists := v1.Group("/checklists", auth.RequireRole(checklistRead...))
			{
				checklists.GET("", ctl.List)
				checklists.GET("/:id", ctl.Get)
				checklists.GET("/:id/draft", ctl.GetDraft)
				checklists.GET("/:id/comments", ctl.ListComments)
				checklists.POST("/:id/comments", ctl.AddComment)
				checklists.GET("/:id/history", ctl.History)

				reviewers := checklists.Group("", auth.RequireRole(reviewerRoles...))
				reviewers.POST("/:id/documents/:docId/approve", ctl.ApproveDocument)
				reviewers.POST("/:id/documents/:docId/reject", ctl.RejectDocument)
				reviewers.POST("/:id/submit", ctl.Submit)
				reviewers.POST("/:id/transition", ctl.Transition)
				reviewers.PUT("/:id/draft", ctl.SaveDraft)
			}

			if deps.Reports != nil {
				reports := NewReportController(deps.Reports)
				checklists.POST("/:id/report", reports.Export)
				checklists.GET("/:id/report/preview", reports.Preview)
				checklists.GET("/:id/reports", reports.ListExports)
				// 令牌本身即授权,只要求登录
				v1.GET("/reports/:id/download", reports.Download)
			}
		}

		if deps.Extensions != nil {
			ctl := NewExtensionController(deps.Extensions)
			extensions := v1.Group("/extensions")
			{
				extensions.GET("", ctl.List)
				extensions.POST("", auth.RequireRole(auth.RoleRM, auth.RoleCreator), ctl.Create)
				if deps.Authorizer != nil {
					extensions.GET("/:id", auth.PermissionMiddleware(deps.Authorizer, auth.ObjectExtension, auth.RelationViewer), ctl.Get)
				} else {
					extensions.GET("/:id", ctl.Get)
				}
				// 审批人校验在服务层按审批链进行
				extensions.POST("/:id/approve", ctl.Approve)
				extensions.POST("/:id/reject", ctl.Reject)
			}
		}

		if deps.Statistics != nil {
			ctl := NewStatisticsController(deps.Statistics)
			stats := v1.Group("/statistics")
			stats.GET("/dashboard", ctl.Dashboard)
			stats.GET("/checklists/by-date", ctl.ChecklistsByTime)
			stats.GET("/sla", ctl.SLABreaches)
		}

		if deps.AuditLogs != nil {
			v1.GET("/audit-logs", auth.RequireRole(auth.RoleAdmin), NewAuditController(deps.AuditLogs).List)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		Error(c, http.StatusNotFound, T(c, "error.not_found"), "the requested route does not exist")
	})

	return router
}
