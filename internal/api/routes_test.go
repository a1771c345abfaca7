package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mautops/deferral-gin/internal/api"
	"github.com/mautops/deferral-gin/internal/cache"
	"github.com/mautops/deferral-gin/internal/config"
	"github.com/mautops/deferral-gin/internal/database"
	"github.com/mautops/deferral-gin/internal/model"
	"github.com/mautops/deferral-gin/internal/report"
	"github.com/mautops/deferral-gin/internal/repository"
	"github.com/mautops/deferral-gin/internal/service"
	"github.com/mautops/deferral-gin/internal/storage"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// testAuth 从请求头读取测试用户,代替 Keycloak 中间件
func testAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-Test-User")
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorResponse{Code: 401, Message: "unauthorized"})
			return
		}
		var roles []string
		if r := c.GetHeader("X-Test-Roles"); r != "" {
			roles = strings.Split(r, ",")
		}
		c.Set("user_id", userID)
		c.Set("username", userID)
		c.Set("roles", roles)
		c.Next()
	}
}

type testServer struct {
	router *gin.Engine
	db     *gorm.DB
}

func newTestServer(t *testing.T) *testServer {
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = sqlDB.Close() })

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	cfg := config.Default()
	cfg.RateLimit.RPS = 0

	audit := service.NewAuditLogService(repository.NewAuditLogRepository(db))
	store := storage.NewMemoryStore()
	exporter := report.NewExporter(cache.NewMemoryLocker(), store, report.NewPDFRenderer(), time.Minute, logger)
	preview, err := report.NewHTMLRenderer()
	require.NoError(t, err)

	router := api.SetupRoutes(api.RouterDeps{
		Config:     cfg,
		DB:         db,
		Logger:     logger,
		Auth:       testAuth(),
		SSE:        api.NewSSEBroker(),
		Checklists: service.NewChecklistService(db, audit, nil, nil, service.ChecklistOptions{}, logger),
		Extensions: service.NewExtensionService(db, audit, nil, nil, nil, logger),
		Reports:    service.NewReportService(db, exporter, store, preview, report.DefaultCommentLimit, audit, nil, logger),
		Statistics: service.NewStatisticsService(db),
		AuditLogs:  audit,
	})
	return &testServer{router: router, db: db}
}

func (s *testServer) seedChecklist(t *testing.T, id, status string, checkerStatuses ...string) {
	now := time.Now()
	sla := now.Add(72 * time.Hour)
	require.NoError(t, repository.NewChecklistRepository(s.db).Save(&model.ChecklistModel{
		ID: id, DCLNo: "DCL-" + id, CustomerName: "Acme Ltd", LoanType: "Term Loan",
		Status: status, RMID: "rm-1", CreatedBy: "creator-1", SLAExpiry: &sla, CreatedAt: now, UpdatedAt: now,
	}))
	docs := make([]*model.DocumentModel, 0, len(checkerStatuses))
	for i, st := range checkerStatuses {
		docs = append(docs, &model.DocumentModel{
			ID: id + "-d" + string(rune('1'+i)), ChecklistID: id, Position: i, Category: "Legal",
			Name: "Document " + string(rune('A'+i)), Status: "submitted", CheckerStatus: st,
		})
	}
	if len(docs) > 0 {
		require.NoError(t, repository.NewDocumentRepository(s.db).SaveAll(docs))
	}
}

func (s *testServer) do(method, path, user, roles string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.Header.Set("X-Test-User", user)
		req.Header.Set("X-Test-Roles", roles)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Code       int             `json:"code"`
	Message    string          `json:"message"`
	Detail     string          `json:"detail"`
	Data       json.RawMessage `json:"data"`
	Pagination api.PaginationInfo `json:"pagination"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

// TestRoutes_Infrastructure 测试健康检查、指标与请求 ID
func TestRoutes_Infrastructure(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/health", "", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Contains(t, w.Body.String(), `"database":"healthy"`)

	w = s.do(http.MethodGet, "/metrics", "", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/api/v1/checklists", "", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// TestRoutes_ChecklistReview 测试清单查看、文档复核与提交
func TestRoutes_ChecklistReview(t *testing.T) {
	s := newTestServer(t)
	s.seedChecklist(t, "cl-1", "check_review", "approved", "pending")

	w := s.do(http.MethodGet, "/api/v1/checklists/cl-1", "checker-1", "checker", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var detail struct {
		DCLNo     string `json:"dclNo"`
		Documents []struct {
			ID string `json:"id"`
		} `json:"documents"`
		Gate struct {
			Allowed bool `json:"allowed"`
		} `json:"gate"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &detail))
	assert.Equal(t, "DCL-cl-1", detail.DCLNo)
	assert.Len(t, detail.Documents, 2)

	// 门禁失败返回 422,原因在 detail
	w = s.do(http.MethodPost, "/api/v1/checklists/cl-1/submit", "checker-1", "checker", map[string]string{"action": "approved"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, decode(t, w).Detail, "Not all documents have been reviewed")

	// creator 不能复核
	w = s.do(http.MethodPost, "/api/v1/checklists/cl-1/documents/cl-1-d2/approve", "creator-1", "creator", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodPost, "/api/v1/checklists/cl-1/documents/cl-1-d2/approve", "checker-1", "checker", map[string]string{"comment": "verified"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/api/v1/checklists/cl-1/submit", "checker-1", "checker", map[string]string{
		"action":          "approved",
		"checkerComments": "All good",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var result struct {
		Status  string `json:"status"`
		Payload struct {
			ID string `json:"id"`
		} `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &result))
	assert.Equal(t, "approved", result.Status)

	// 已批准的清单不能再退回
	w = s.do(http.MethodPost, "/api/v1/checklists/cl-1/transition", "checker-1", "checker", map[string]string{"event": "return_for_rework"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodGet, "/api/v1/checklists/cl-1/history", "checker-1", "checker", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

// TestRoutes_TransitionApproveGate 测试通用事件批准同样受审批闸门约束
func TestRoutes_TransitionApproveGate(t *testing.T) {
	s := newTestServer(t)
	s.seedChecklist(t, "cl-1", "check_review", "approved", "rejected")

	w := s.do(http.MethodPost, "/api/v1/checklists/cl-1/transition", "checker-1", "checker", map[string]string{"event": "approve"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, decode(t, w).Detail, "Some documents are rejected")

	w = s.do(http.MethodGet, "/api/v1/checklists/cl-1", "checker-1", "checker", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var detail struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &detail))
	assert.Equal(t, "check_review", detail.Status)
}

// TestRoutes_ChecklistErrors 测试参数校验与未找到
func TestRoutes_ChecklistErrors(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/api/v1/checklists/missing", "checker-1", "checker", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Resource not found", decode(t, w).Message)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/checklists/missing?lang=zh", nil)
	req.Header.Set("X-Test-User", "checker-1")
	req.Header.Set("X-Test-Roles", "checker")
	zh := httptest.NewRecorder()
	s.router.ServeHTTP(zh, req)
	assert.Equal(t, "资源未找到", decode(t, zh).Message)

	w = s.do(http.MethodGet, "/api/v1/checklists/bad%20id", "checker-1", "checker", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/v1/checklists?sort_by=id;DROP", "checker-1", "checker", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/v1/checklists", "someone", "", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

// TestRoutes_ChecklistList 测试清单分页
func TestRoutes_ChecklistList(t *testing.T) {
	s := newTestServer(t)
	s.seedChecklist(t, "cl-1", "check_review", "pending")
	s.seedChecklist(t, "cl-2", "completed", "approved")

	w := s.do(http.MethodGet, "/api/v1/checklists?status=check_review&page_size=10", "rm-1", "rm", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	env := decode(t, w)
	assert.Equal(t, int64(1), env.Pagination.Total)
	assert.Equal(t, 10, env.Pagination.PageSize)
}

// TestRoutes_DraftAndComments 测试草稿与评论
func TestRoutes_DraftAndComments(t *testing.T) {
	s := newTestServer(t)
	s.seedChecklist(t, "cl-1", "check_review", "pending")

	w := s.do(http.MethodPut, "/api/v1/checklists/cl-1/draft", "checker-1", "checker", map[string]interface{}{
		"documents":      []map[string]string{{"_id": "cl-1-d1", "checkerStatus": "approved"}},
		"creatorComment": "halfway",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/api/v1/checklists/cl-1/draft", "checker-1", "checker", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(decode(t, w).Data), "halfway")

	w = s.do(http.MethodPost, "/api/v1/checklists/cl-1/comments", "creator-1", "creator", map[string]string{"message": "Uploaded the deed"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/api/v1/checklists/cl-1/comments", "creator-1", "creator", map[string]string{"message": "<script>alert(1)</script>"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/v1/checklists/cl-1/comments", "creator-1", "creator", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(decode(t, w).Data), "Uploaded the deed")
}

// TestRoutes_ReportExportAndDownload 测试报告导出、预览与令牌下载
func TestRoutes_ReportExportAndDownload(t *testing.T) {
	s := newTestServer(t)
	s.seedChecklist(t, "cl-1", "completed", "approved")

	w := s.do(http.MethodGet, "/api/v1/checklists/cl-1/report/preview", "checker-1", "checker", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "DCL-cl-1")

	w = s.do(http.MethodPost, "/api/v1/checklists/cl-1/report", "checker-1", "checker", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var result service.ExportResult
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &result))
	require.NotEmpty(t, result.Token)

	w = s.do(http.MethodGet, result.DownloadURL, "checker-1", "checker", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), result.Filename)
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))

	w = s.do(http.MethodGet, "/api/v1/reports/"+result.ExportID+"/download?token=forged", "checker-1", "checker", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodGet, "/api/v1/reports/"+result.ExportID+"/download", "checker-1", "checker", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// TestRoutes_ExtensionFlow 测试延期申请创建与审批链
func TestRoutes_ExtensionFlow(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/v1/extensions", "rm-1", "rm", map[string]interface{}{
		"deferralNumber": "DEF-001",
		"customerName":   "Acme Ltd",
		"currentDueDate": "2025-03-01T00:00:00Z",
		"daysToExtendBy": 30,
		"reason":         "Awaiting title deed from registry",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var created struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &created))
	assert.Equal(t, "pending_approval", created.Status)

	// 非当前审批人
	w = s.do(http.MethodPost, "/api/v1/extensions/"+created.ID+"/approve", "checker-1", "checker", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodPost, "/api/v1/extensions/"+created.ID+"/approve", "creator-1", "creator", map[string]string{"comment": "ok"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = s.do(http.MethodPost, "/api/v1/extensions/"+created.ID+"/approve", "checker-1", "checker", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, string(decode(t, w).Data), `"status":"approved"`)

	w = s.do(http.MethodPost, "/api/v1/extensions/"+created.ID+"/reject", "admin-1", "admin", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodGet, "/api/v1/extensions?q=acme", "rm-1", "rm", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), decode(t, w).Pagination.Total)

	// 校验失败
	w = s.do(http.MethodPost, "/api/v1/extensions", "rm-1", "rm", map[string]interface{}{
		"deferralNumber": "DEF-002",
		"daysToExtendBy": 200,
		"reason":         "too long a wait",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = s.do(http.MethodGet, "/api/v1/audit-logs?resource_type=extension&resource_id="+created.ID, "admin-1", "admin", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(http.MethodGet, "/api/v1/audit-logs?resource_type=extension&resource_id="+created.ID, "rm-1", "rm", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

// TestRoutes_DashboardAndMenu 测试仪表盘与菜单
func TestRoutes_DashboardAndMenu(t *testing.T) {
	s := newTestServer(t)
	s.seedChecklist(t, "cl-1", "check_review", "pending")

	w := s.do(http.MethodGet, "/api/v1/statistics/dashboard", "admin-1", "admin", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(decode(t, w).Data), `"CHECK REVIEW"`)

	w = s.do(http.MethodGet, "/api/v1/menu", "checker-1", "checker", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var menu struct {
		Role  string         `json:"role"`
		Items []api.MenuItem `json:"items"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &menu))
	assert.Equal(t, "checker", menu.Role)
	keys := make([]string, 0, len(menu.Items))
	for _, item := range menu.Items {
		keys = append(keys, item.Key)
	}
	assert.Equal(t, []string{"myQueue", "completed", "deferrals", "reports"}, keys)
	assert.Equal(t, "My Queue", menu.Items[0].Label)
}
