package api

import (
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mautops/deferral-gin/internal/service"
)

// ReportController 报告导出控制器
type ReportController struct {
	reportService service.ReportService
}

// NewReportController 创建报告导出控制器
func NewReportController(reportService service.ReportService) *ReportController {
	return &ReportController{
		reportService: reportService,
	}
}

// Export 导出清单 PDF 报告
// @Summary      导出清单报告
// @Description  渲染 PDF 并写入对象存储,返回一次性下载令牌;同一清单并发导出返回 409
// @Tags         报告
// @Produce      json
// @Param        id path string true "清单 ID"
// @Success      200  {object}  Response{data=service.ExportResult}
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /checklists/{id}/report [post]
// @Security     BearerAuth
func (c *ReportController) Export(ctx *gin.Context) {
	id, ok := validateID(ctx, "id")
	if !ok {
		return
	}

	result, err := c.reportService.Export(ctx.Request.Context(), id)
	if !handleServiceError(ctx, err, "export report") {
		return
	}

	Success(ctx, result)
}

// Preview HTML 预览
// @Summary      预览清单报告
// @Tags         报告
// @Produce      html
// @Param        id path string true "清单 ID"
// @Success      200  {string}  string "HTML"
// @Failure      404  {object}  ErrorResponse
// @Router       /checklists/{id}/report/preview [get]
// @Security     BearerAuth
func (c *ReportController) Preview(ctx *gin.Context) {
	id, ok := validateID(ctx, "id")
	if !ok {
		return
	}

	file, err := c.reportService.Preview(ctx.Request.Context(), id)
	if !handleServiceError(ctx, err, "preview report") {
		return
	}

	ctx.Data(http.StatusOK, file.ContentType, file.Content)
}

// ListExports 清单的导出记录
func (c *ReportController) ListExports(ctx *gin.Context) {
	id, ok := validateID(ctx, "id")
	if !ok {
		return
	}

	exports, err := c.reportService.ListExports(ctx.Request.Context(), id)
	if !handleServiceError(ctx, err, "list exports") {
		return
	}

	Success(ctx, exports)
}

// Download 凭令牌下载报告
// @Summary      下载报告
// @Tags         报告
// @Produce      application/pdf
// @Param        id path string true "导出 ID"
// @Param        token query string true "下载令牌"
// @Success      200  {file}    file
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /reports/{id}/download [get]
// @Security     BearerAuth
func (c *ReportController) Download(ctx *gin.Context) {
	id, ok := validateID(ctx, "id")
	if !ok {
		return
	}
	token := ctx.Query("token")
	if token == "" {
		Error(ctx, http.StatusBadRequest, T(ctx, "error.bad_request"), "missing token")
		return
	}

	file, err := c.reportService.Download(ctx.Request.Context(), id, token)
	if !handleServiceError(ctx, err, "download report") {
		return
	}

	ctx.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": file.Filename}))
	ctx.Data(http.StatusOK, file.ContentType, file.Content)
}
