package api

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const healthCheckTimeout = 5 * time.Second

// HealthCheck 依赖健康检查,返回 nil 表示健康
type HealthCheck func(ctx context.Context) error

// HealthController 健康检查控制器
type HealthController struct {
	db     *gorm.DB
	checks map[string]HealthCheck
}

// NewHealthController 创建健康检查控制器,checks 为可选依赖(redis、minio 等)
func NewHealthController(db *gorm.DB, checks map[string]HealthCheck) *HealthController {
	if checks == nil {
		checks = map[string]HealthCheck{}
	}
	return &HealthController{
		db:     db,
		checks: checks,
	}
}

// Check 健康检查
// @Summary      健康检查
// @Description  检查数据库及已配置的外部依赖
// @Tags         系统
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      503  {object}  map[string]interface{}
// @Router       /health [get]
func (c *HealthController) Check(ctx *gin.Context) {
	status := "healthy"
	checks := make(map[string]string)

	if c.db != nil {
		if err := c.checkDatabase(ctx.Request.Context()); err != nil {
			status = "unhealthy"
			checks["database"] = "unhealthy: " + err.Error()
		} else {
			checks["database"] = "healthy"
		}
	} else {
		checks["database"] = "not configured"
	}

	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		checkCtx, cancel := context.WithTimeout(ctx.Request.Context(), healthCheckTimeout)
		err := c.checks[name](checkCtx)
		cancel()
		if err != nil {
			// 可选依赖失败只降级,不影响就绪
			if status == "healthy" {
				status = "degraded"
			}
			checks[name] = "unhealthy: " + err.Error()
			continue
		}
		checks[name] = "healthy"
	}

	httpStatus := http.StatusOK
	if status == "unhealthy" {
		httpStatus = http.StatusServiceUnavailable
	}

	ctx.JSON(httpStatus, gin.H{
		"status":    status,
		"timestamp": time.Now().Unix(),
		"checks":    checks,
	})
}

// checkDatabase 检查数据库连接
func (c *HealthController) checkDatabase(ctx context.Context) error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	return sqlDB.PingContext(ctx)
}
