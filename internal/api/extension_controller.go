package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mautops/deferral-gin/internal/service"
	"github.com/mautops/deferral-gin/internal/utils"
)

const maxExtensionReasonLength = 2000

// ExtensionController 延期申请控制器
type ExtensionController struct {
	extensionService service.ExtensionService
}

// NewExtensionController 创建延期申请控制器
func NewExtensionController(extensionService service.ExtensionService) *ExtensionController {
	return &ExtensionController{
		extensionService: extensionService,
	}
}

// List 延期申请列表
// @Summary      获取延期申请列表
// @Description  按关键字与状态过滤;配置了 Elasticsearch 时走全文检索,否则回退数据库 LIKE
// @Tags         延期申请
// @Produce      json
// @Param        q query string false "延期编号、DCL 号、客户名称、贷款类型"
// @Param        status query string false "状态"
// @Param        created_by query string false "申请人"
// @Param        page query int false "页码" default(1)
// @Param        page_size query int false "每页数量" default(20)
// @Success      200  {object}  PaginatedResponse
// @Router       /extensions [get]
// @Security     BearerAuth
func (c *ExtensionController) List(ctx *gin.Context) {
	page, pageSize, sortBy, order, ok := parsePage(ctx)
	if !ok {
		return
	}

	search := optionalQuery(ctx, "q")
	if search == nil {
		search = optionalQuery(ctx, "search")
	}

	resp, err := c.extensionService.List(ctx.Request.Context(), &service.ListExtensionsRequest{
		Status:    optionalQuery(ctx, "status"),
		CreatedBy: optionalQuery(ctx, "created_by"),
		Search:    search,
		Page:      page,
		PageSize:  pageSize,
		SortBy:    sortBy,
		Order:     order,
	})
	if !handleServiceError(ctx, err, "list extensions") {
		return
	}

	Paginated(ctx, resp.Data, toPagination(resp.Pagination))
}

// Get 延期申请详情
// @Summary      获取延期申请详情
// @Description  返回审批链、SLA 与申请天数提示级别
// @Tags         延期申请
// @Produce      json
// @Param        id path string true "延期申请 ID"
// @Success      200  {object}  Response{data=service.ExtensionDetail}
// @Failure      404  {object}  ErrorResponse
// @Router       /extensions/{id} [get]
// @Security     BearerAuth
func (c *ExtensionController) Get(ctx *gin.Context) {
	id, ok := validateID(ctx, "id")
	if !ok {
		return
	}

	detail, err := c.extensionService.Get(ctx.Request.Context(), id)
	if !handleServiceError(ctx, err, "get extension") {
		return
	}

	Success(ctx, detail)
}

// Create 创建延期申请
// @Summary      创建延期申请
// @Tags         延期申请
// @Accept       json
// @Produce      json
// @Param        request body service.CreateExtensionRequest true "延期申请"
// @Success      200  {object}  Response{data=service.ExtensionDetail}
// @Failure      400  {object}  ErrorResponse
// @Failure      422  {object}  ErrorResponse
// @Router       /extensions [post]
// @Security     BearerAuth
func (c *ExtensionController) Create(ctx *gin.Context) {
	var req service.CreateExtensionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, T(ctx, "error.bad_request"), err.Error())
		return
	}
	if req.Reason != "" {
		reason, err := utils.ValidateComment(req.Reason, maxExtensionReasonLength)
		if err != nil {
			Error(ctx, http.StatusBadRequest, "invalid reason", err.Error())
			return
		}
		req.Reason = reason
	}

	detail, err := c.extensionService.Create(ctx.Request.Context(), &req)
	if !handleServiceError(ctx, err, "create extension") {
		return
	}

	Success(ctx, detail)
}

// Approve 当前审批人通过
// @Summary      通过延期申请
// @Tags         延期申请
// @Accept       json
// @Produce      json
// @Param        id path string true "延期申请 ID"
// @Param        request body object false "审批意见 {comment}"
// @Success      200  {object}  Response{data=service.ExtensionDetail}
// @Failure      403  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /extensions/{id}/approve [post]
// @Security     BearerAuth
func (c *ExtensionController) Approve(ctx *gin.Context) {
	c.decide(ctx, "approve")
}

// Reject 当前审批人驳回
// @Summary      驳回延期申请
// @Tags         延期申请
// @Accept       json
// @Produce      json
// @Param        id path string true "延期申请 ID"
// @Param        request body object false "审批意见 {comment}"
// @Success      200  {object}  Response{data=service.ExtensionDetail}
// @Failure      403  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /extensions/{id}/reject [post]
// @Security     BearerAuth
func (c *ExtensionController) Reject(ctx *gin.Context) {
	c.decide(ctx, "reject")
}

func (c *ExtensionController) decide(ctx *gin.Context, action string) {
	id, ok := validateID(ctx, "id")
	if !ok {
		return
	}

	var body struct {
		Comment string `json:"comment"`
	}
	if !bindOptionalJSON(ctx, &body) {
		return
	}

	detail, err := c.extensionService.Decide(ctx.Request.Context(), id, &service.ExtensionDecisionRequest{
		Action:  action,
		Comment: body.Comment,
	})
	if !handleServiceError(ctx, err, action+" extension") {
		return
	}

	Success(ctx, detail)
}
