package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mautops/deferral-gin/internal/review"
	"github.com/mautops/deferral-gin/internal/service"
	"github.com/mautops/deferral-gin/internal/utils"
)

const defaultCommentPageSize = 50

// ChecklistController 清单复核控制器
type ChecklistController struct {
	checklistService service.ChecklistService
}

// NewChecklistController 创建清单复核控制器
func NewChecklistController(checklistService service.ChecklistService) *ChecklistController {
	return &ChecklistController{
		checklistService: checklistService,
	}
}

// validateID 验证路径中的 ID,无效时写入 400
func validateID(ctx *gin.Context, param string) (string, bool) {
	id := ctx.Param(param)
	if err := utils.ValidateID(id); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid "+param, err.Error())
		return "", false
	}
	return id, true
}

// bindOptionalJSON 请求体为空时保留零值
func bindOptionalJSON(ctx *gin.Context, out interface{}) bool {
	if ctx.Request.ContentLength == 0 {
		return true
	}
	if err := ctx.ShouldBindJSON(out); err != nil {
		Error(ctx, http.StatusBadRequest, T(ctx, "error.bad_request"), err.Error())
		return false
	}
	return true
}

// parsePage 解析分页与排序参数
func parsePage(ctx *gin.Context) (page, pageSize int, sortBy, order string, ok bool) {
	page, _ = strconv.Atoi(ctx.DefaultQuery("page", "1"))
	pageSize, _ = strconv.Atoi(ctx.DefaultQuery("page_size", "20"))
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	sortBy = ctx.Query("sort_by")
	if sortBy != "" {
		if err := utils.ValidateSortField(sortBy); err != nil {
			Error(ctx, http.StatusBadRequest, "invalid sort_by", err.Error())
			return 0, 0, "", "", false
		}
		sortBy = utils.SanitizeSortField(sortBy)
	}
	order = ctx.Query("order")
	if order != "" {
		order = utils.SanitizeSortOrder(order)
	}
	return page, pageSize, sortBy, order, true
}

func optionalQuery(ctx *gin.Context, key string) *string {
	if v, ok := ctx.GetQuery(key); ok && v != "" {
		return &v
	}
	return nil
}

// List 获取清单列表
// @Summary      获取清单列表
// @Description  分页获取清单,支持状态过滤、关键字搜索与排序
// @Tags         清单复核
// @Produce      json
// @Param        status query string false "清单状态"
// @Param        rm_id query string false "客户经理 ID"
// @Param        search query string false "DCL 号或客户名称"
// @Param        page query int false "页码" default(1)
// @Param        page_size query int false "每页数量" default(20)
// @Param        sort_by query string false "排序字段" default(created_at)
// @Param        order query string false "排序方向" Enums(asc, desc) default(desc)
// @Success      200  {object}  PaginatedResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /checklists [get]
// @Security     BearerAuth
func (c *ChecklistController) List(ctx *gin.Context) {
	page, pageSize, sortBy, order, ok := parsePage(ctx)
	if !ok {
		return
	}

	resp, err := c.checklistService.List(ctx.Request.Context(), &service.ListChecklistsRequest{
		Status:   optionalQuery(ctx, "status"),
		RMID:     optionalQuery(ctx, "rm_id"),
		Search:   optionalQuery(ctx, "search"),
		Page:     page,
		PageSize: pageSize,
		SortBy:   sortBy,
		Order:    order,
	})
	if !handleServiceError(ctx, err, "list checklists") {
		return
	}

	Paginated(ctx, resp.Data, toPagination(resp.Pagination))
}

// Get 获取清单复核视图
// @Summary      获取清单复核视图
// @Description  返回平铺后的文档、汇总统计、审批门禁与 SLA
// @Tags         清单复核
// @Produce      json
// @Param        id path string true "清单 ID"
// @Success      200  {object}  Response{data=service.ChecklistDetail}
// @Failure      404  {object}  ErrorResponse
// @Router       /checklists/{id} [get]
// @Security     BearerAuth
func (c *ChecklistController) Get(ctx *gin.Context) {
	id, ok := validateID(ctx, "id")
	if !ok {
		return
	}

	detail, err := c.checklistService.Get(ctx.Request.Context(), id)
	if !handleServiceError(ctx, err, "get checklist") {
		return
	}

	Success(ctx, detail)
}

// ApproveDocument 通过单个文档
// @Summary      通过文档
// @Tags         清单复核
// @Accept       json
// @Produce      json
// @Param        id path string true "清单 ID"
// @Param        docId path string true "文档 ID"
// @Param        request body service.DocumentDecisionRequest false "复核意见"
// @Success      200  {object}  Response{data=service.ChecklistDetail}
// @Failure      404  {object}  ErrorResponse
// @Failure      422  {object}  ErrorResponse
// @Router       /checklists/{id}/documents/{docId}/approve [post]
// @Security     BearerAuth
func (c *ChecklistController) ApproveDocument(ctx *gin.Context) {
	c.decideDocument(ctx, string(review.CheckerApproved))
}

// RejectDocument 驳回单个文档
// @Summary      驳回文档
// @Tags         清单复核
// @Accept       json
// @Produce      json
// @Param        id path string true "清单 ID"
// @Param        docId path string true "文档 ID"
// @Param        request body service.DocumentDecisionRequest false "复核意见"
// @Success      200  {object}  Response{data=service.ChecklistDetail}
// @Failure      404  {object}  ErrorResponse
// @Failure      422  {object}  ErrorResponse
// @Router       /checklists/{id}/documents/{docId}/reject [post]
// @Security     BearerAuth
func (c *ChecklistController) RejectDocument(ctx *gin.Context) {
	c.decideDocument(ctx, string(review.CheckerRejected))
}

func (c *ChecklistController) decideDocument(ctx *gin.Context, decision string) {
	id, ok := validateID(ctx, "id")
	if !ok {
		return
	}
	docID, ok := validateID(ctx, "docId")
	if !ok {
		return
	}

	var body struct {
		Comment string `json:"comment"`
	}
	if !bindOptionalJSON(ctx, &body) {
		return
	}

	detail, err := c.checklistService.DecideDocument(ctx.Request.Context(), id, docID, &service.DocumentDecisionRequest{
		Decision: decision,
		Comment:  body.Comment,
	})
	if !handleServiceError(ctx, err, decision+" document") {
		return
	}

	Success(ctx, detail)
}

// Submit 提交复核结果
// @Summary      提交复核结果
// @Description  先经审批门禁校验,再执行状态流转并返回变更载荷;门禁失败返回 422,原因在 detail
// @Tags         清单复核
// @Accept       json
// @Produce      json
// @Param        id path string true "清单 ID"
// @Param        request body service.SubmitChecklistRequest true "提交信息"
// @Success      200  {object}  Response{data=service.SubmitResult}
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Failure      422  {object}  ErrorResponse
// @Router       /checklists/{id}/submit [post]
// @Security     BearerAuth
func (c *ChecklistController) Submit(ctx *gin.Context) {
	id, ok := validateID(ctx, "id")
	if !ok {
		return
	}

	var req service.SubmitChecklistRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, T(ctx, "error.bad_request"), err.Error())
		return
	}

	result, err := c.checklistService.Submit(ctx.Request.Context(), id, &req)
	if !handleServiceError(ctx, err, "submit checklist") {
		return
	}

	Success(ctx, result)
}

// Transition 执行生命周期事件
// @Summary      清单状态流转
// @Tags         清单复核
// @Accept       json
// @Produce      json
// @Param        id path string true "清单 ID"
// @Param        request body service.TransitionRequest true "生命周期事件"
// @Success      200  {object}  Response{data=service.ChecklistDetail}
// @Failure      409  {object}  ErrorResponse
// @Router       /checklists/{id}/transition [post]
// @Security     BearerAuth
func (c *ChecklistController) Transition(ctx *gin.Context) {
	id, ok := validateID(ctx, "id")
	if !ok {
		return
	}

	var req service.TransitionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, T(ctx, "error.bad_request"), err.Error())
		return
	}

	detail, err := c.checklistService.Transition(ctx.Request.Context(), id, &req)
	if !handleServiceError(ctx, err, "transition checklist") {
		return
	}

	Success(ctx, detail)
}

// SaveDraft 保存草稿
// @Summary      保存草稿
// @Tags         清单复核
// @Accept       json
// @Produce      json
// @Param        id path string true "清单 ID"
// @Param        request body service.SaveDraftRequest true "草稿"
// @Success      200  {object}  Response{data=review.DraftPayload}
// @Failure      422  {object}  ErrorResponse
// @Router       /checklists/{id}/draft [put]
// @Security     BearerAuth
func (c *ChecklistController) SaveDraft(ctx *gin.Context) {
	id, ok := validateID(ctx, "id")
	if !ok {
		return
	}

	var req service.SaveDraftRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, T(ctx, "error.bad_request"), err.Error())
		return
	}

	draft, err := c.checklistService.SaveDraft(ctx.Request.Context(), id, &req)
	if !handleServiceError(ctx, err, "save draft") {
		return
	}

	Success(ctx, draft)
}

// GetDraft 获取草稿
func (c *ChecklistController) GetDraft(ctx *gin.Context) {
	id, ok := validateID(ctx, "id")
	if !ok {
		return
	}

	draft, err := c.checklistService.GetDraft(ctx.Request.Context(), id)
	if !handleServiceError(ctx, err, "get draft") {
		return
	}

	Success(ctx, draft)
}

// ListComments 获取评论
// @Summary      获取清单评论
// @Tags         清单复核
// @Produce      json
// @Param        id path string true "清单 ID"
// @Param        limit query int false "最多返回条数" default(50)
// @Success      200  {object}  Response
// @Router       /checklists/{id}/comments [get]
// @Security     BearerAuth
func (c *ChecklistController) ListComments(ctx *gin.Context) {
	id, ok := validateID(ctx, "id")
	if !ok {
		return
	}

	limit, err := strconv.Atoi(ctx.DefaultQuery("limit", strconv.Itoa(defaultCommentPageSize)))
	if err != nil || limit <= 0 {
		limit = defaultCommentPageSize
	}

	comments, err := c.checklistService.ListComments(ctx.Request.Context(), id, limit)
	if !handleServiceError(ctx, err, "list comments") {
		return
	}

	Success(ctx, comments)
}

// AddComment 添加评论
// @Summary      添加评论
// @Tags         清单复核
// @Accept       json
// @Produce      json
// @Param        id path string true "清单 ID"
// @Param        request body service.AddCommentRequest true "评论"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Router       /checklists/{id}/comments [post]
// @Security     BearerAuth
func (c *ChecklistController) AddComment(ctx *gin.Context) {
	id, ok := validateID(ctx, "id")
	if !ok {
		return
	}

	var req service.AddCommentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, T(ctx, "error.bad_request"), err.Error())
		return
	}

	comment, err := c.checklistService.AddComment(ctx.Request.Context(), id, &req)
	if !handleServiceError(ctx, err, "add comment") {
		return
	}

	Success(ctx, comment)
}

// History 状态流转历史
func (c *ChecklistController) History(ctx *gin.Context) {
	id, ok := validateID(ctx, "id")
	if !ok {
		return
	}

	history, err := c.checklistService.History(ctx.Request.Context(), id)
	if !handleServiceError(ctx, err, "get history") {
		return
	}

	Success(ctx, history)
}
