package container

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mautops/deferral-gin/internal/api"
	"github.com/mautops/deferral-gin/internal/auth"
	"github.com/mautops/deferral-gin/internal/cache"
	"github.com/mautops/deferral-gin/internal/config"
	"github.com/mautops/deferral-gin/internal/database"
	"github.com/mautops/deferral-gin/internal/metrics"
	"github.com/mautops/deferral-gin/internal/notify"
	"github.com/mautops/deferral-gin/internal/report"
	"github.com/mautops/deferral-gin/internal/repository"
	"github.com/mautops/deferral-gin/internal/search"
	"github.com/mautops/deferral-gin/internal/service"
	"github.com/mautops/deferral-gin/internal/storage"
	"github.com/mautops/deferral-gin/internal/websocket"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	permissionCacheTTL = 5 * time.Minute
	metricsInterval    = 30 * time.Second
)

// Container 依赖注入容器
// 管理数据库、外部客户端、服务与后台任务的生命周期
type Container struct {
	cfg    *config.Config
	logger *logrus.Logger
	db     *gorm.DB

	redis      *cache.RedisClient
	store      storage.ReportStore
	validator  *auth.KeycloakTokenValidator
	authorizer auth.RelationWriter

	hub        *websocket.Hub
	sse        *api.SSEBroker
	dispatcher *notify.Dispatcher
	scheduler  *service.SLAScheduler
	collector  *metrics.Collector
	watcher    *config.Watcher
	slaAlerts  *api.SLAAlertManager
	started    bool

	auditLogs  service.AuditLogService
	checklists service.ChecklistService
	extensions service.ExtensionService
	reports    service.ReportService
	statistics service.StatisticsService

	healthChecks map[string]api.HealthCheck
}

// NewContainer 创建依赖注入容器
// 未配置的可选依赖(Redis、MinIO、Elasticsearch、OpenFGA、SNS)降级为内存实现或直接关闭
func NewContainer(cfg *config.Config) (*Container, error) {
	logger, err := api.NewLoggerFromConfig(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	api.SetDefaultLogger(logger)

	c := &Container{
		cfg:          cfg,
		logger:       logger,
		hub:          websocket.NewHub(),
		sse:          api.NewSSEBroker(),
		slaAlerts:    api.NewSLAAlertManager(),
		healthChecks: map[string]api.HealthCheck{},
	}

	// 1. 数据库(重试 3 次,指数退避)
	c.db, err = database.ConnectWithRetry(cfg.Database, 3, time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := database.Migrate(c.db); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// 2. Redis:导出锁与视图缓存
	var locker cache.Locker = cache.NewMemoryLocker()
	var views service.ViewStore
	if cfg.Redis.Addr != "" {
		c.redis = cache.NewRedis(cfg.Redis)
		locker = cache.NewRedisLocker(c.redis)
		views = cache.NewViewCache(c.redis, time.Duration(cfg.Redis.ViewTTL)*time.Second)
		c.healthChecks["redis"] = c.redis.Ping
	} else {
		logger.Warn("redis not configured, using in-process export lock without view cache")
	}

	// 3. 对象存储
	if cfg.Storage.Endpoint != "" {
		minioStore, err := storage.NewMinioStore(ctx, cfg.Storage)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to initialize object storage: %w", err)
		}
		c.store = minioStore
		c.healthChecks["storage"] = minioStore.Ping
	} else {
		logger.Warn("object storage not configured, report exports are kept in memory")
		c.store = storage.NewMemoryStore()
	}

	// 4. Elasticsearch
	var searcher service.ExtensionSearcher
	if len(cfg.Search.Addresses) > 0 {
		index, err := search.NewExtensionIndex(cfg.Search)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to initialize search index: %w", err)
		}
		searcher = index
		c.healthChecks["search"] = index.Ping
	}

	// 5. OpenFGA(带权限缓存)与 Keycloak
	if cfg.OpenFGA.APIURL != "" {
		fga, err := auth.NewOpenFGAClientWithRetry(cfg.OpenFGA.APIURL, cfg.OpenFGA.StoreID, cfg.OpenFGA.ModelID, 3, time.Second)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to initialize OpenFGA client: %w", err)
		}
		c.authorizer = auth.NewCachedOpenFGAClient(fga, auth.NewPermissionCache(permissionCacheTTL))
	}
	if cfg.Keycloak.Issuer != "" {
		c.validator = auth.NewKeycloakTokenValidator(cfg.Keycloak.Issuer, cfg.Keycloak.JWKSURL)
	} else {
		logger.Warn("keycloak issuer not configured, API authentication is disabled")
	}

	// 6. 通知:发件箱 + webhook / SNS / 实时推送
	sinks := []notify.Sink{notify.NewBroadcastSink(c.hub, c.sse)}
	if len(cfg.Notify.Webhooks) > 0 {
		sinks = append(sinks, notify.NewWebhookSink(cfg.Notify.Webhooks, nil))
	}
	if cfg.Notify.SNSTopic != "" {
		sns, err := notify.NewSNSSink(ctx, cfg.Notify.AWSRegion, cfg.Notify.SNSTopic)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to initialize SNS sink: %w", err)
		}
		sinks = append(sinks, sns)
	}
	c.dispatcher = notify.NewDispatcher(repository.NewEventRepository(c.db), sinks, notify.Options{
		Workers:    cfg.Notify.Workers,
		QueueSize:  cfg.Notify.QueueSize,
		MaxRetries: cfg.Notify.MaxRetries,
	}, logger)

	// 7. 服务
	c.auditLogs = service.NewAuditLogService(repository.NewAuditLogRepository(c.db))
	c.checklists = service.NewChecklistService(c.db, c.auditLogs, c.dispatcher, views, service.ChecklistOptions{
		ReadOnly:    cfg.Review.ReadOnly,
		FileBaseURL: cfg.Storage.FileBaseURL,
	}, logger)
	c.extensions = service.NewExtensionService(c.db, c.auditLogs, c.dispatcher, searcher, c.authorizer, logger)

	preview, err := report.NewHTMLRenderer()
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize report preview: %w", err)
	}
	exporter := report.NewExporter(locker, c.store, report.NewPDFRenderer(), time.Duration(cfg.Review.ExportLockTTL)*time.Second, logger)
	c.reports = service.NewReportService(c.db, exporter, c.store, preview, cfg.Review.ReportCommentLimit, c.auditLogs, c.dispatcher, logger)
	c.statistics = service.NewStatisticsService(c.db)

	c.scheduler = service.NewSLAScheduler(c.db, c.dispatcher, &service.SLAScheduleConfig{
		Enabled:  cfg.Review.SLASweepInterval > 0,
		Interval: time.Duration(cfg.Review.SLASweepInterval) * time.Second,
	}, logger)
	c.collector = metrics.NewCollector(c.db, repository.NewChecklistRepository(c.db), repository.NewExtensionRepository(c.db), metricsInterval)
	c.slaAlerts.OnAlert(api.LogAlerts(logger))

	return c, nil
}

// Start 启动后台任务:实时推送、事件分发、SLA 扫描与指标采集
func (c *Container) Start(ctx context.Context) error {
	if c.cfg.Tracing.Enabled {
		if err := api.InitTracing(c.cfg.Tracing); err != nil {
			return fmt.Errorf("failed to initialize tracing: %w", err)
		}
	}
	c.started = true
	go c.hub.Run()
	c.dispatcher.Start()
	c.collector.Start()
	return c.scheduler.Start(ctx)
}

// WatchConfig 监听配置文件,热更新日志级别与只读开关
func (c *Container) WatchConfig(configPath string) error {
	if configPath == "" {
		return nil
	}
	c.watcher = config.NewWatcher(c.cfg, configPath, c.logger)
	c.watcher.Subscribe(func(old, updated *config.Config) {
		if level, err := logrus.ParseLevel(updated.Log.Level); err == nil && updated.Log.Level != old.Log.Level {
			c.logger.SetLevel(level)
		}
		if updated.Review.ReadOnly != old.Review.ReadOnly {
			c.checklists.SetReadOnly(updated.Review.ReadOnly)
		}
		if updated.RateLimit != old.RateLimit {
			c.logger.WithFields(logrus.Fields{
				"rps":   updated.RateLimit.RPS,
				"burst": updated.RateLimit.Burst,
			}).Warn("rate limit changed, takes effect after restart")
		}
	})
	return c.watcher.Start()
}

// Router 构建 HTTP 路由
func (c *Container) Router() *gin.Engine {
	deps := api.RouterDeps{
		Config:       c.cfg,
		DB:           c.db,
		Logger:       c.logger,
		Hub:          c.hub,
		SSE:          c.sse,
		HealthChecks: c.healthChecks,
		SLAAlerts:    c.slaAlerts,
		Checklists:   c.checklists,
		Extensions:   c.extensions,
		Reports:      c.reports,
		Statistics:   c.statistics,
		AuditLogs:    c.auditLogs,
	}
	// 接口字段只在依赖存在时赋值,避免 typed nil
	if c.validator != nil {
		deps.Auth = auth.KeycloakAuthMiddleware(c.validator)
		deps.TokenValidator = c.validator
	}
	if c.authorizer != nil {
		deps.Authorizer = c.authorizer
	}
	return api.SetupRoutes(deps)
}

// Config 当前配置
func (c *Container) Config() *config.Config {
	return c.cfg
}

// Logger 应用日志
func (c *Container) Logger() *logrus.Logger {
	return c.logger
}

// DB 获取数据库连接
func (c *Container) DB() *gorm.DB {
	return c.db
}

// ReportService 获取报告服务
func (c *Container) ReportService() service.ReportService {
	return c.reports
}

// SLAScheduler 获取 SLA 调度器
func (c *Container) SLAScheduler() *service.SLAScheduler {
	return c.scheduler
}

// Close 停止后台任务并释放连接
func (c *Container) Close() error {
	if c.watcher != nil {
		c.watcher.Stop()
	}
	if c.scheduler != nil {
		c.scheduler.Stop()
	}
	if c.started {
		c.collector.Stop()
		c.dispatcher.Stop()
		c.hub.Stop()
	}
	if c.cfg != nil && c.cfg.Tracing.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = api.ShutdownTracing(ctx)
		cancel()
	}
	if c.redis != nil {
		_ = c.redis.Close()
	}
	if c.db != nil {
		if sqlDB, err := c.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return nil
}
