package api

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// 接口延迟 SLA 的操作分类
const (
	OpChecklistQuery    = "checklist_query"
	OpDocumentDecision  = "document_decision"
	OpChecklistSubmit   = "checklist_submit"
	OpReportExport      = "report_export"
	OpExtensionQuery    = "extension_query"
	OpExtensionDecision = "extension_decision"
)

// LatencySLAConfig 各类操作的最大响应时间
type LatencySLAConfig struct {
	Limits map[string]time.Duration
}

// DefaultLatencySLAConfig 返回默认延迟 SLA
func DefaultLatencySLAConfig() *LatencySLAConfig {
	return &LatencySLAConfig{
		Limits: map[string]time.Duration{
			OpChecklistQuery:    500 * time.Millisecond,
			OpDocumentDecision:  1 * time.Second,
			OpChecklistSubmit:   2 * time.Second,
			OpReportExport:      10 * time.Second,
			OpExtensionQuery:    500 * time.Millisecond,
			OpExtensionDecision: 1 * time.Second,
		},
	}
}

// Expected 操作的期望响应时间,未知操作返回 0
func (c *LatencySLAConfig) Expected(operation string) time.Duration {
	return c.Limits[operation]
}

// Check 是否满足 SLA,未知操作不检查
func (c *LatencySLAConfig) Check(operation string, d time.Duration) bool {
	limit, ok := c.Limits[operation]
	return !ok || d <= limit
}

// classifyOperation 按路由模板判断操作类型
func classifyOperation(method, route string) string {
	switch {
	case strings.HasPrefix(route, "/api/v1/checklists"):
		switch {
		case strings.Contains(route, "/documents/"):
			return OpDocumentDecision
		case strings.HasSuffix(route, "/submit"), strings.HasSuffix(route, "/transition"):
			return OpChecklistSubmit
		case strings.HasSuffix(route, "/report") && method == http.MethodPost:
			return OpReportExport
		case method == http.MethodGet:
			return OpChecklistQuery
		}
	case strings.HasPrefix(route, "/api/v1/extensions"):
		if strings.HasSuffix(route, "/approve") || strings.HasSuffix(route, "/reject") {
			return OpExtensionDecision
		}
		if method == http.MethodGet {
			return OpExtensionQuery
		}
	}
	return "unknown"
}

// SLAViolation SLA 违反记录
type SLAViolation struct {
	Operation string
	Duration  time.Duration
	Expected  time.Duration
	Timestamp time.Time
	Path      string
	Method    string
}

// SLAAlertManager 累计违反次数,达到阈值时回调并清零
type SLAAlertManager struct {
	mu             sync.Mutex
	violations     map[string][]SLAViolation
	thresholds     map[string]int
	alertCallbacks []func(string, []SLAViolation)
}

// NewSLAAlertManager 创建 SLA 告警管理器
func NewSLAAlertManager() *SLAAlertManager {
	return &SLAAlertManager{
		violations: make(map[string][]SLAViolation),
		thresholds: make(map[string]int),
	}
}

// RecordViolation 记录 SLA 违反
func (m *SLAAlertManager) RecordViolation(v SLAViolation) {
	m.mu.Lock()
	m.violations[v.Operation] = append(m.violations[v.Operation], v)
	threshold := m.thresholds[v.Operation]
	var fire []SLAViolation
	if threshold > 0 && len(m.violations[v.Operation]) >= threshold {
		fire = m.violations[v.Operation]
		m.violations[v.Operation] = nil
	}
	callbacks := append([]func(string, []SLAViolation){}, m.alertCallbacks...)
	m.mu.Unlock()

	// 回调在锁外执行
	if fire != nil {
		for _, cb := range callbacks {
			cb(v.Operation, fire)
		}
	}
}

// SetAlertThreshold 设置告警阈值
func (m *SLAAlertManager) SetAlertThreshold(operation string, threshold int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.thresholds[operation] = threshold
}

// OnAlert 注册告警回调
func (m *SLAAlertManager) OnAlert(callback func(string, []SLAViolation)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alertCallbacks = append(m.alertCallbacks, callback)
}

// GetViolations 获取尚未触发告警的违反记录
func (m *SLAAlertManager) GetViolations(operation string) []SLAViolation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SLAViolation(nil), m.violations[operation]...)
}

// LogAlerts 告警写入日志
func LogAlerts(logger *logrus.Logger) func(string, []SLAViolation) {
	return func(operation string, violations []SLAViolation) {
		last := violations[len(violations)-1]
		logger.WithFields(logrus.Fields{
			"operation":  operation,
			"violations": len(violations),
			"last_path":  last.Path,
			"last":       last.Duration.String(),
			"expected":   last.Expected.String(),
		}).Warn("latency SLA repeatedly violated")
	}
}

// SLAMonitorMiddleware 接口延迟监控,超时的响应带 X-SLA-* 头
// alertManager 可为 nil
func SLAMonitorMiddleware(config *LatencySLAConfig, alertManager *SLAAlertManager) gin.HandlerFunc {
	if config == nil {
		config = DefaultLatencySLAConfig()
	}

	return func(c *gin.Context) {
		start := time.Now()
		operation := classifyOperation(c.Request.Method, c.FullPath())

		// 头必须在响应写出前设置
		c.Writer = &slaWriter{ResponseWriter: c.Writer, start: start, operation: operation, config: config}

		c.Next()

		duration := time.Since(start)
		if config.Check(operation, duration) || alertManager == nil {
			return
		}
		alertManager.RecordViolation(SLAViolation{
			Operation: operation,
			Duration:  duration,
			Expected:  config.Expected(operation),
			Timestamp: time.Now(),
			Path:      c.Request.URL.Path,
			Method:    c.Request.Method,
		})
	}
}

// slaWriter 在写出响应头时检查耗时
type slaWriter struct {
	gin.ResponseWriter
	start     time.Time
	operation string
	config    *LatencySLAConfig
	checked   bool
}

func (w *slaWriter) WriteHeader(code int) {
	if !w.checked {
		w.checked = true
		if d := time.Since(w.start); !w.config.Check(w.operation, d) {
			h := w.Header()
			h.Set("X-SLA-Violation", "true")
			h.Set("X-SLA-Operation", w.operation)
			h.Set("X-SLA-Duration", d.String())
			h.Set("X-SLA-Expected", w.config.Expected(w.operation).String())
		}
	}
	w.ResponseWriter.WriteHeader(code)
}
