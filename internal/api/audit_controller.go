package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mautops/deferral-gin/internal/service"
	"github.com/mautops/deferral-gin/internal/utils"
)

// AuditController 审计日志控制器
type AuditController struct {
	auditLogService service.AuditLogService
}

// NewAuditController 创建审计日志控制器
func NewAuditController(auditLogService service.AuditLogService) *AuditController {
	return &AuditController{
		auditLogService: auditLogService,
	}
}

// List 查询审计日志
// @Summary      查询审计日志
// @Description  按资源(resource_type + resource_id)或按用户(user_id)查询
// @Tags         审计
// @Produce      json
// @Param        resource_type query string false "checklist 或 extension"
// @Param        resource_id query string false "资源 ID"
// @Param        user_id query string false "用户 ID"
// @Param        limit query int false "按用户查询时的条数" default(50)
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Router       /audit-logs [get]
// @Security     BearerAuth
func (c *AuditController) List(ctx *gin.Context) {
	resourceType := ctx.Query("resource_type")
	resourceID := ctx.Query("resource_id")
	userID := ctx.Query("user_id")

	switch {
	case resourceType != "" && resourceID != "":
		if err := utils.ValidateID(resourceID); err != nil {
			Error(ctx, http.StatusBadRequest, "invalid resource_id", err.Error())
			return
		}
		logs, err := c.auditLogService.ListByResource(ctx.Request.Context(), resourceType, resourceID)
		if !handleServiceError(ctx, err, "list audit logs") {
			return
		}
		Success(ctx, logs)
	case userID != "":
		limit, _ := strconv.Atoi(ctx.Query("limit"))
		logs, err := c.auditLogService.ListByUser(ctx.Request.Context(), userID, limit)
		if !handleServiceError(ctx, err, "list audit logs") {
			return
		}
		Success(ctx, logs)
	default:
		Error(ctx, http.StatusBadRequest, T(ctx, "error.bad_request"), "resource_type and resource_id, or user_id, are required")
	}
}
