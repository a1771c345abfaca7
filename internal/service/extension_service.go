package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mautops/deferral-gin/internal/auth"
	"github.com/mautops/deferral-gin/internal/metrics"
	"github.com/mautops/deferral-gin/internal/model"
	"github.com/mautops/deferral-gin/internal/notify"
	"github.com/mautops/deferral-gin/internal/repository"
	"github.com/mautops/deferral-gin/internal/review"
	"github.com/mautops/deferral-gin/internal/search"
	"github.com/mautops/deferral-gin/internal/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// maxSearchHits 全文检索一次返回的最大命中数
const maxSearchHits = 500

// ExtensionService 延期申请服务接口
type ExtensionService interface {
	List(ctx context.Context, req *ListExtensionsRequest) (*ExtensionListResponse, error)
	Get(ctx context.Context, id string) (*ExtensionDetail, error)
	Create(ctx context.Context, req *CreateExtensionRequest) (*ExtensionDetail, error)
	Decide(ctx context.Context, id string, req *ExtensionDecisionRequest) (*ExtensionDetail, error)
}

// ExtensionSearcher 延期申请全文检索
type ExtensionSearcher interface {
	Index(ctx context.Context, doc search.ExtensionDocument) error
	Search(ctx context.Context, query, status string, size int) ([]string, error)
}

// ListExtensionsRequest 延期申请列表查询参数
type ListExtensionsRequest struct {
	Status    *string
	CreatedBy *string
	Search    *string
	Page      int
	PageSize  int
	SortBy    string
	Order     string
}

// ExtensionListResponse 延期申请列表响应
type ExtensionListResponse struct {
	Data       []*ExtensionDetail
	Pagination PaginationInfo
}

// ApproverInput 审批人
// 导入的历史审批链可以带 approvalStatus 或旧版 approved/rejected 标记
type ApproverInput struct {
	Role           string `json:"role" example:"creator" binding:"required"`
	UserID         string `json:"userId" example:"user-001"`
	Name           string `json:"name" example:"Jane Doe"`
	Email          string `json:"email" example:"jane@example.com"`
	ApprovalStatus string `json:"approvalStatus,omitempty" example:"pending"`
	Approved       any    `json:"approved,omitempty" swaggertype:"boolean"`
	Rejected       any    `json:"rejected,omitempty" swaggertype:"boolean"`
}

// CreateExtensionRequest 创建延期申请请求
// @Description 针对已有延期记录申请延长到期日
type CreateExtensionRequest struct {
	DeferralNumber string          `json:"deferralNumber" example:"DEF-2024-001" binding:"required"`
	DCLNumber      string          `json:"dclNumber" example:"DCL-2024-001"`
	CustomerName   string          `json:"customerName" example:"Acme Ltd"`
	LoanType       string          `json:"loanType" example:"Term Loan"`
	CurrentDueDate *time.Time      `json:"currentDueDate"`
	DaysToExtendBy int             `json:"daysToExtendBy" example:"30"`
	Reason         string          `json:"reason" example:"Awaiting title deed from land registry"`
	Approvers      []ApproverInput `json:"approvers"` // 为空时使用 creator -> checker 默认审批链
}

// ExtensionDecisionRequest 审批延期申请请求
type ExtensionDecisionRequest struct {
	Action  string `json:"action" example:"approve" binding:"required"` // approve 或 reject
	Comment string `json:"comment"`
}

// ExtensionDetail 延期申请详情及审批链
type ExtensionDetail struct {
	*model.ExtensionModel
	StatusLabel        string                `json:"statusLabel"`
	Chain              []review.ApproverView `json:"chain"`
	SLA                review.SLAResult      `json:"sla"`
	DaysSoughtSeverity review.Severity       `json:"daysSoughtSeverity"`
	DueDateDisplay     string                `json:"dueDateDisplay"`
	NextDueDate        string                `json:"nextDueDate"`
	CreatorCardVisible bool                  `json:"creatorCardVisible"`
	CheckerCardVisible bool                  `json:"checkerCardVisible"`
}

// defaultApprovers 未指定审批人时的默认审批链
var defaultApprovers = []ApproverInput{
	{Role: auth.RoleCreator, Name: "Creator"},
	{Role: auth.RoleChecker, Name: "Checker"},
}

// extensionService 延期申请服务实现
type extensionService struct {
	db          *gorm.DB
	repo        repository.ExtensionRepository
	searcher    ExtensionSearcher
	relations   auth.RelationWriter
	publisher   notify.Publisher
	auditLogSvc AuditLogService
	logger      *logrus.Logger
	now         func() time.Time
}

// NewExtensionService 创建延期申请服务,searcher、relations 与 publisher 可以为 nil
func NewExtensionService(db *gorm.DB, auditLogSvc AuditLogService, publisher notify.Publisher, searcher ExtensionSearcher, relations auth.RelationWriter, logger *logrus.Logger) ExtensionService {
	if publisher == nil {
		publisher = notify.NopPublisher{}
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &extensionService{
		db:          db,
		repo:        repository.NewExtensionRepository(db),
		searcher:    searcher,
		relations:   relations,
		publisher:   publisher,
		auditLogSvc: auditLogSvc,
		logger:      logger,
		now:         time.Now,
	}
}

// List 列出延期申请;配置了检索服务时优先全文检索,失败时回退到数据库 LIKE 查询
func (s *extensionService) List(ctx context.Context, req *ListExtensionsRequest) (*ExtensionListResponse, error) {
	if req == nil {
		req = &ListExtensionsRequest{}
	}
	page := repository.Page{Page: req.Page, PageSize: req.PageSize, SortBy: req.SortBy, Order: req.Order}

	if s.searcher != nil && req.Search != nil && strings.TrimSpace(*req.Search) != "" {
		resp, err := s.searchList(ctx, req, page)
		if err == nil {
			return resp, nil
		}
		s.logger.WithError(err).Warn("extension search failed, falling back to database")
	}

	rows, total, err := s.repo.FindByFilter(&repository.ExtensionFilter{
		Status:    req.Status,
		CreatedBy: req.CreatedBy,
		Search:    req.Search,
		Page:      page,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list extensions: %w", err)
	}
	return &ExtensionListResponse{Data: s.toDetails(rows), Pagination: newPaginationInfo(page, total)}, nil
}

// searchList 通过检索服务获取命中 ID,再从数据库加载并按查询条件复核
func (s *extensionService) searchList(ctx context.Context, req *ListExtensionsRequest, page repository.Page) (*ExtensionListResponse, error) {
	query := strings.TrimSpace(*req.Search)
	status := ""
	if req.Status != nil {
		status = *req.Status
	}
	ids, err := s.searcher.Search(ctx, query, status, maxSearchHits)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.FindByIDs(ids)
	if err != nil {
		return nil, err
	}

	matched := make([]*model.ExtensionModel, 0, len(rows))
	for _, ext := range rows {
		if req.CreatedBy != nil && ext.CreatedBy != *req.CreatedBy {
			continue
		}
		if status != "" && ext.Status != status {
			continue
		}
		if !review.MatchesSearch(searchFields(ext), query) {
			continue
		}
		matched = append(matched, ext)
	}

	page = page.Normalize()
	total := int64(len(matched))
	start := (page.Page - 1) * page.PageSize
	if start > len(matched) {
		start = len(matched)
	}
	end := start + page.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	return &ExtensionListResponse{Data: s.toDetails(matched[start:end]), Pagination: newPaginationInfo(page, total)}, nil
}

// Get 获取延期申请详情
func (s *extensionService) Get(_ context.Context, id string) (*ExtensionDetail, error) {
	ext, err := s.repo.FindByID(id)
	if err != nil {
		return nil, notFound(err, "extension", id)
	}
	return s.toDetail(ext), nil
}

// Create 创建延期申请
func (s *extensionService) Create(ctx context.Context, req *CreateExtensionRequest) (*ExtensionDetail, error) {
	if err := review.ValidateExtensionRequest(review.ExtensionRequest{
		DaysToExtendBy: req.DaysToExtendBy,
		Reason:         req.Reason,
	}); err != nil {
		return nil, err
	}
	reason, err := utils.TrimAndValidate(req.Reason, maxCommentLength)
	if err != nil {
		return nil, err
	}

	userID := getUserIDFromContext(ctx)
	now := s.now()
	ext := &model.ExtensionModel{
		ID:                    uuid.New().String(),
		DeferralNumber:        strings.TrimSpace(req.DeferralNumber),
		DCLNumber:             strings.TrimSpace(req.DCLNumber),
		CustomerName:          strings.TrimSpace(req.CustomerName),
		LoanType:              strings.TrimSpace(req.LoanType),
		CurrentDueDate:        req.CurrentDueDate,
		RequestedDaysSought:   req.DaysToExtendBy,
		ExtensionReason:       reason,
		Status:                model.ExtensionPendingApproval,
		CreatorApprovalStatus: string(review.ApprovalPending),
		CheckerApprovalStatus: string(review.ApprovalPending),
		CreatedBy:             firstNonEmpty(userID, "system"),
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	inputs := req.Approvers
	if len(inputs) == 0 {
		inputs = defaultApprovers
	}
	for i, in := range inputs {
		raw := review.RawApprover{
			Role:           in.Role,
			Name:           in.Name,
			Email:          in.Email,
			ApprovalStatus: in.ApprovalStatus,
			Approved:       in.Approved,
			Rejected:       in.Rejected,
		}
		approver := model.ApproverModel{
			ID:             uuid.New().String(),
			ExtensionID:    ext.ID,
			Position:       i,
			Role:           strings.ToLower(strings.TrimSpace(in.Role)),
			UserID:         in.UserID,
			Name:           in.Name,
			Email:          in.Email,
			ApprovalStatus: string(review.NormalizeApprover(raw, i).State),
			ApprovedLegacy: review.Truthy(in.Approved),
			RejectedLegacy: review.Truthy(in.Rejected),
		}
		if approver.ApprovalStatus != string(review.ApprovalPending) {
			approver.ApprovalDate = &now
		}
		if err := approver.Validate(); err != nil {
			return nil, &review.ValidationError{Code: "invalid_approver", Messages: []string{err.Error()}}
		}
		ext.Approvers = append(ext.Approvers, approver)
		setRoleApproval(ext, approver.Role, approver.ApprovalStatus)
	}
	settleImportedChain(ext)
	if err := ext.Validate(); err != nil {
		return nil, &review.ValidationError{Code: "invalid_extension", Messages: []string{err.Error()}}
	}

	if err := s.repo.Create(ext); err != nil {
		return nil, fmt.Errorf("failed to create extension: %w", err)
	}

	s.index(ctx, ext)
	s.grantRelations(ctx, ext)
	metrics.RecordExtensionAction("create")

	if s.auditLogSvc != nil && userID != "" {
		_ = s.auditLogSvc.RecordAction(ctx, userID, "create", "extension", ext.ID, map[string]interface{}{
			"deferral_number": ext.DeferralNumber,
			"days":            ext.RequestedDaysSought,
			"approvers":       len(ext.Approvers),
		})
	}
	s.publish(ctx, notify.Event{
		Type:        notify.EventExtensionCreated,
		AggregateID: ext.ID,
		Actor:       userID,
		Payload: map[string]interface{}{
			"deferralNumber": ext.DeferralNumber,
			"daysSought":     ext.RequestedDaysSought,
		},
	})

	return s.toDetail(ext), nil
}

// Decide 当前审批人批准或驳回;全部批准后申请通过并顺延到期日
func (s *extensionService) Decide(ctx context.Context, id string, req *ExtensionDecisionRequest) (*ExtensionDetail, error) {
	action := strings.ToLower(strings.TrimSpace(req.Action))
	var decision review.ApprovalState
	switch action {
	case "approve", "approved":
		decision = review.ApprovalApproved
	case "reject", "rejected":
		decision = review.ApprovalRejected
	default:
		return nil, &review.ValidationError{Code: "invalid_action", Messages: []string{"action must be approve or reject"}}
	}
	comment := ""
	if strings.TrimSpace(req.Comment) != "" {
		c, err := utils.ValidateComment(req.Comment, maxCommentLength)
		if err != nil {
			return nil, err
		}
		comment = c
	}

	ext, err := s.repo.FindByID(id)
	if err != nil {
		return nil, notFound(err, "extension", id)
	}
	if ext.Status == model.ExtensionApproved || ext.Status == model.ExtensionRejected {
		return nil, fmt.Errorf("%w: extension is %s", review.ErrInvalidTransition, ext.Status)
	}

	idx := currentApprover(ext)
	if idx < 0 {
		return nil, fmt.Errorf("%w: no pending approver", review.ErrInvalidTransition)
	}
	current := &ext.Approvers[idx]

	userID := getUserIDFromContext(ctx)
	roles := getRolesFromContext(ctx)
	if !canActAs(current, userID, roles) {
		return nil, ErrForbidden
	}

	now := s.now()
	current.ApprovalStatus = string(decision)
	current.ApprovalDate = &now
	current.IsCurrent = false
	current.Comment = comment
	setRoleApproval(ext, current.Role, string(decision))

	changed := []*model.ApproverModel{current}
	if decision == review.ApprovalRejected {
		ext.Status = model.ExtensionRejected
		ext.CurrentApproverIndex = nil
	} else if next := nextPending(ext, idx); next >= 0 {
		ext.Approvers[next].IsCurrent = true
		ext.CurrentApproverIndex = &next
		ext.Status = model.ExtensionInReview
		changed = append(changed, &ext.Approvers[next])
	} else {
		ext.Status = model.ExtensionApproved
		ext.CurrentApproverIndex = nil
		if ext.CurrentDueDate != nil {
			due := review.NextDueDate(*ext.CurrentDueDate, ext.RequestedDaysSought)
			ext.CurrentDueDate = &due
		}
	}
	ext.UpdatedAt = now

	err = s.db.Transaction(func(tx *gorm.DB) error {
		repo := repository.NewExtensionRepository(tx)
		for _, a := range changed {
			if err := repo.SaveApprover(a); err != nil {
				return fmt.Errorf("failed to save approver: %w", err)
			}
		}
		return repo.Save(ext)
	})
	if err != nil {
		return nil, err
	}

	s.index(ctx, ext)
	metrics.RecordExtensionAction(string(decision))

	if s.auditLogSvc != nil && userID != "" {
		_ = s.auditLogSvc.RecordAction(ctx, userID, action, "extension", id, map[string]interface{}{
			"approver_index": idx,
			"role":           current.Role,
			"status":         ext.Status,
			"comment":        comment,
		})
	}
	s.publish(ctx, notify.Event{
		Type:        notify.EventExtensionDecided,
		AggregateID: id,
		Actor:       userID,
		Payload: map[string]interface{}{
			"decision": string(decision),
			"role":     current.Role,
			"status":   ext.Status,
		},
	})

	return s.toDetail(ext), nil
}

// toDetail 渲染审批链并计算 SLA 与天数等级
func (s *extensionService) toDetail(ext *model.ExtensionModel) *ExtensionDetail {
	raw := make([]any, 0, len(ext.Approvers))
	for _, a := range ext.Approvers {
		raw = append(raw, review.RawApprover{
			Role:           a.Role,
			Name:           a.Name,
			Email:          a.Email,
			ApprovalStatus: a.ApprovalStatus,
			Approved:       a.ApprovedLegacy,
			Rejected:       a.RejectedLegacy,
			IsCurrent:      a.IsCurrent,
			ApprovalDate:   a.ApprovalDate,
		})
	}
	chain := review.RenderChain(raw, ext.CurrentApproverIndex)

	next := "N/A"
	if ext.CurrentDueDate != nil && ext.Status != model.ExtensionApproved {
		due := review.NextDueDate(*ext.CurrentDueDate, ext.RequestedDaysSought)
		next = review.FormatDisplayDate(&due)
	}

	return &ExtensionDetail{
		ExtensionModel:     ext,
		StatusLabel:        review.StatusLabel(ext.Status),
		Chain:              chain,
		SLA:                review.Countdown(ext.CurrentDueDate, s.now()),
		DaysSoughtSeverity: review.DaysSoughtSeverity(ext.RequestedDaysSought),
		DueDateDisplay:     review.FormatDisplayDate(ext.CurrentDueDate),
		NextDueDate:        next,
		CreatorCardVisible: review.CreatorCardVisible(chain),
		CheckerCardVisible: review.CheckerCardVisible(ext.CreatorApprovalStatus),
	}
}

func (s *extensionService) toDetails(rows []*model.ExtensionModel) []*ExtensionDetail {
	out := make([]*ExtensionDetail, 0, len(rows))
	for _, ext := range rows {
		out = append(out, s.toDetail(ext))
	}
	return out
}

// index 同步检索索引,失败只记录日志
func (s *extensionService) index(ctx context.Context, ext *model.ExtensionModel) {
	if s.searcher == nil {
		return
	}
	err := s.searcher.Index(ctx, search.ExtensionDocument{
		ID:                  ext.ID,
		DeferralNumber:      ext.DeferralNumber,
		DCLNumber:           ext.DCLNumber,
		CustomerName:        ext.CustomerName,
		LoanType:            ext.LoanType,
		Status:              ext.Status,
		RequestedDaysSought: ext.RequestedDaysSought,
		CurrentDueDate:      ext.CurrentDueDate,
	})
	if err != nil {
		s.logger.WithError(err).WithField("extension_id", ext.ID).Warn("failed to index extension")
	}
}

// grantRelations 写入申请人与审批人的授权关系
func (s *extensionService) grantRelations(ctx context.Context, ext *model.ExtensionModel) {
	if s.relations == nil {
		return
	}
	if err := s.relations.SetRelation(ctx, ext.CreatedBy, auth.RelationOwner, auth.ObjectExtension, ext.ID); err != nil {
		s.logger.WithError(err).WithField("extension_id", ext.ID).Warn("failed to grant owner relation")
	}
	for _, a := range ext.Approvers {
		if a.UserID == "" {
			continue
		}
		if err := s.relations.SetRelation(ctx, a.UserID, auth.RelationApprover, auth.ObjectExtension, ext.ID); err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"extension_id": ext.ID,
				"user_id":      a.UserID,
			}).Warn("failed to grant approver relation")
		}
	}
}

func (s *extensionService) publish(ctx context.Context, evt notify.Event) {
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.logger.WithError(err).WithField("event_type", evt.Type).Warn("failed to publish event")
	}
}

// currentApprover 当前审批人下标,未记录时取第一个待审批人
func currentApprover(ext *model.ExtensionModel) int {
	if idx := ext.CurrentApproverIndex; idx != nil && *idx >= 0 && *idx < len(ext.Approvers) {
		if !review.ApprovalState(ext.Approvers[*idx].ApprovalStatus).Terminal() {
			return *idx
		}
	}
	return nextPending(ext, -1)
}

// settleImportedChain 按已有审批结果确定申请状态与当前审批人
func settleImportedChain(ext *model.ExtensionModel) {
	ext.CurrentApproverIndex = nil
	for _, a := range ext.Approvers {
		if a.ApprovalStatus == string(review.ApprovalRejected) {
			ext.Status = model.ExtensionRejected
			return
		}
	}
	next := nextPending(ext, -1)
	switch {
	case next < 0 && len(ext.Approvers) > 0:
		ext.Status = model.ExtensionApproved
	case next > 0:
		ext.Status = model.ExtensionInReview
		fallthrough
	case next == 0:
		ext.Approvers[next].IsCurrent = true
		ext.CurrentApproverIndex = &next
	}
}

// nextPending after 之后第一个未审批的审批人
func nextPending(ext *model.ExtensionModel, after int) int {
	for i := after + 1; i < len(ext.Approvers); i++ {
		if !review.ApprovalState(ext.Approvers[i].ApprovalStatus).Terminal() {
			return i
		}
	}
	return -1
}

// canActAs 指定了用户的审批人只能本人审批,否则按角色匹配;admin 始终允许
func canActAs(a *model.ApproverModel, userID string, roles []string) bool {
	if auth.HasRole(roles, auth.RoleAdmin) {
		return true
	}
	if a.UserID != "" {
		return a.UserID == userID
	}
	return auth.HasRole(roles, a.Role)
}

func setRoleApproval(ext *model.ExtensionModel, role, status string) {
	switch role {
	case auth.RoleCreator:
		ext.CreatorApprovalStatus = status
	case auth.RoleChecker, auth.RoleCoChecker:
		ext.CheckerApprovalStatus = status
	}
}

func searchFields(ext *model.ExtensionModel) review.SearchFields {
	return review.SearchFields{
		DeferralNumber: ext.DeferralNumber,
		DCLNumber:      ext.DCLNumber,
		CustomerName:   ext.CustomerName,
		LoanType:       ext.LoanType,
	}
}
