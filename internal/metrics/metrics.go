package metrics

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

var (
	// API 请求计数器
	apiRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "path", "status"},
	)

	// API 请求响应时间
	apiRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// 文档审核决定数
	checklistReviewsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checklist_reviews_total",
			Help: "Total number of document review decisions",
		},
		[]string{"decision"}, // approved, rejected
	)

	// 提交被门禁拦截的次数
	gateBlockedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gate_blocked_total",
			Help: "Total number of submissions blocked by the approval gate",
		},
		[]string{"code"},
	)

	// 清单提交数
	checklistSubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checklist_submissions_total",
			Help: "Total number of checklist submissions",
		},
		[]string{"action", "outcome"},
	)

	// 清单状态迁移
	checklistTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checklist_transitions_total",
			Help: "Total number of checklist status transitions",
		},
		[]string{"from", "to"},
	)

	// 延期申请操作
	extensionActionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "extension_actions_total",
			Help: "Total number of extension request operations",
		},
		[]string{"action"}, // create, approve, reject
	)

	// 报告导出
	reportsGeneratedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reports_generated_total",
			Help: "Total number of checklist report exports",
		},
		[]string{"status"}, // success, failed, busy
	)

	reportGenerationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "report_generation_seconds",
			Help:    "Checklist report rendering duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// 通知投递
	notifyDeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notify_deliveries_total",
			Help: "Total number of notification deliveries",
		},
		[]string{"sink", "outcome"},
	)

	// SLA 已超期或即将超期的数量
	slaBreaches = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sla_breaches",
			Help: "Number of checklists and extensions whose SLA is critical or expired",
		},
		[]string{"kind"}, // checklist, extension
	)

	// 数据库连接数
	databaseConnectionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "database_connections_active",
			Help: "Number of active database connections",
		},
	)

	databaseConnectionsIdle = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "database_connections_idle",
			Help: "Number of idle database connections",
		},
	)

	databaseConnectionsMax = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "database_connections_max",
			Help: "Maximum number of database connections",
		},
	)

	// 清单状态分布
	checklistsByStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "checklists_by_status",
			Help: "Number of checklists by status",
		},
		[]string{"status"},
	)

	// 延期申请状态分布
	extensionsByStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "extensions_by_status",
			Help: "Number of extension requests by status",
		},
		[]string{"status"},
	)
)

var (
	once sync.Once
)

func init() {
	// 注册指标
	prometheus.MustRegister(apiRequestsTotal)
	prometheus.MustRegister(apiRequestDuration)
	prometheus.MustRegister(checklistReviewsTotal)
	prometheus.MustRegister(gateBlockedTotal)
	prometheus.MustRegister(checklistSubmissionsTotal)
	prometheus.MustRegister(checklistTransitionsTotal)
	prometheus.MustRegister(extensionActionsTotal)
	prometheus.MustRegister(reportsGeneratedTotal)
	prometheus.MustRegister(reportGenerationSeconds)
	prometheus.MustRegister(notifyDeliveriesTotal)
	prometheus.MustRegister(slaBreaches)
	prometheus.MustRegister(databaseConnectionsActive)
	prometheus.MustRegister(databaseConnectionsIdle)
	prometheus.MustRegister(databaseConnectionsMax)
	prometheus.MustRegister(checklistsByStatus)
	prometheus.MustRegister(extensionsByStatus)

	// 注册 Go 运行时指标（只注册一次）
	once.Do(func() {
		_ = prometheus.Register(prometheus.NewGoCollector())
		_ = prometheus.Register(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	})
}

// Handler 返回 Prometheus 指标处理器
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordAPIRequest 记录 API 请求
func RecordAPIRequest(method, path string, status int, duration float64) {
	statusText := http.StatusText(status)
	if statusText == "" {
		statusText = fmt.Sprintf("%d", status)
	}
	apiRequestsTotal.WithLabelValues(method, path, statusText).Inc()
	apiRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// RecordDocumentDecision 记录文档审核决定
func RecordDocumentDecision(decision string) {
	checklistReviewsTotal.WithLabelValues(decision).Inc()
}

// RecordGateBlocked 记录门禁拦截
func RecordGateBlocked(code string) {
	gateBlockedTotal.WithLabelValues(code).Inc()
}

// RecordSubmission 记录清单提交结果
func RecordSubmission(action, outcome string) {
	checklistSubmissionsTotal.WithLabelValues(action, outcome).Inc()
}

// RecordTransition 记录状态迁移
func RecordTransition(from, to string) {
	checklistTransitionsTotal.WithLabelValues(from, to).Inc()
}

// RecordExtensionAction 记录延期申请操作
func RecordExtensionAction(action string) {
	extensionActionsTotal.WithLabelValues(action).Inc()
}

// RecordReportExport 记录报告导出
func RecordReportExport(status string, seconds float64) {
	reportsGeneratedTotal.WithLabelValues(status).Inc()
	if seconds > 0 {
		reportGenerationSeconds.Observe(seconds)
	}
}

// RecordDelivery 记录通知投递
func RecordDelivery(sink string, ok bool) {
	outcome := "success"
	if !ok {
		outcome = "failed"
	}
	notifyDeliveriesTotal.WithLabelValues(sink, outcome).Inc()
}

// SetSLABreaches 更新 SLA 超期数量
func SetSLABreaches(kind string, n int) {
	slaBreaches.WithLabelValues(kind).Set(float64(n))
}

// UpdateDatabaseConnections 更新数据库连接数指标
func UpdateDatabaseConnections(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	stats := sqlDB.Stats()
	databaseConnectionsActive.Set(float64(stats.OpenConnections - stats.Idle))
	databaseConnectionsIdle.Set(float64(stats.Idle))
	databaseConnectionsMax.Set(float64(stats.MaxOpenConnections))

	return nil
}

// UpdateChecklistsByStatus 更新清单状态分布
func UpdateChecklistsByStatus(counts map[string]int64) {
	checklistsByStatus.Reset()
	for status, n := range counts {
		checklistsByStatus.WithLabelValues(status).Set(float64(n))
	}
}

// UpdateExtensionsByStatus 更新延期申请状态分布
func UpdateExtensionsByStatus(counts map[string]int64) {
	extensionsByStatus.Reset()
	for status, n := range counts {
		extensionsByStatus.WithLabelValues(status).Set(float64(n))
	}
}
