package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/mautops/deferral-gin/internal/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type healthBody struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func runHealth(t *testing.T, ctl *api.HealthController) (int, healthBody) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/health", ctl.Check)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	var body healthBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func mockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{DisableAutomaticPing: true})
	require.NoError(t, err)
	return db, mock
}

// TestHealthController_Healthy 测试数据库可用
func TestHealthController_Healthy(t *testing.T) {
	db, mock := mockDB(t)
	mock.ExpectPing()

	code, body := runHealth(t, api.NewHealthController(db, nil))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "healthy", body.Checks["database"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestHealthController_DatabaseDown 测试数据库不可用返回 503
func TestHealthController_DatabaseDown(t *testing.T) {
	db, mock := mockDB(t)
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	code, body := runHealth(t, api.NewHealthController(db, nil))
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unhealthy", body.Status)
	assert.Contains(t, body.Checks["database"], "connection refused")
}

// TestHealthController_Degraded 测试可选依赖失败只降级
func TestHealthController_Degraded(t *testing.T) {
	db, mock := mockDB(t)
	mock.ExpectPing()

	ctl := api.NewHealthController(db, map[string]api.HealthCheck{
		"redis": func(context.Context) error { return errors.New("dial tcp: timeout") },
		"minio": func(context.Context) error { return nil },
	})
	code, body := runHealth(t, ctl)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, "healthy", body.Checks["minio"])
	assert.Contains(t, body.Checks["redis"], "timeout")
}

// TestHealthController_NoDatabase 测试未配置数据库
func TestHealthController_NoDatabase(t *testing.T) {
	code, body := runHealth(t, api.NewHealthController(nil, nil))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "not configured", body.Checks["database"])
}
