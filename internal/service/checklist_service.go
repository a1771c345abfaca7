package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/mautops/deferral-gin/internal/auth"
	"github.com/mautops/deferral-gin/internal/metrics"
	"github.com/mautops/deferral-gin/internal/model"
	"github.com/mautops/deferral-gin/internal/notify"
	"github.com/mautops/deferral-gin/internal/repository"
	"github.com/mautops/deferral-gin/internal/review"
	"github.com/mautops/deferral-gin/internal/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	maxCommentLength   = 1000
	defaultCommentPage = 20
)

// ChecklistService 清单复核服务接口
type ChecklistService interface {
	Get(ctx context.Context, id string) (*ChecklistDetail, error)
	List(ctx context.Context, req *ListChecklistsRequest) (*ChecklistListResponse, error)
	DecideDocument(ctx context.Context, id, documentID string, req *DocumentDecisionRequest) (*ChecklistDetail, error)
	Submit(ctx context.Context, id string, req *SubmitChecklistRequest) (*SubmitResult, error)
	SaveDraft(ctx context.Context, id string, req *SaveDraftRequest) (*review.DraftPayload, error)
	GetDraft(ctx context.Context, id string) (*review.DraftPayload, error)
	Transition(ctx context.Context, id string, req *TransitionRequest) (*ChecklistDetail, error)
	AddComment(ctx context.Context, id string, req *AddCommentRequest) (*model.CommentModel, error)
	ListComments(ctx context.Context, id string, limit int) ([]*model.CommentModel, error)
	History(ctx context.Context, id string) ([]*model.StateHistoryModel, error)
	// SetReadOnly 运行时切换只读模式,配置热更新时调用
	SetReadOnly(readOnly bool)
}

// ViewStore 清单视图缓存
type ViewStore interface {
	Get(ctx context.Context, checklistID string, out interface{}) (bool, error)
	Set(ctx context.Context, checklistID string, view interface{}) error
	Invalidate(ctx context.Context, checklistID string) error
	Flush(ctx context.Context) error
}

// ChecklistOptions 清单服务选项
type ChecklistOptions struct {
	ReadOnly    bool   // 只读模式,禁止所有复核操作
	FileBaseURL string // 相对文档地址的前缀
}

// ChecklistDetail 清单详情及复核视图
// @Description 清单基础信息、展开后的文档、汇总、审批闸门与 SLA
type ChecklistDetail struct {
	ID             string     `json:"id" example:"cl-001"`
	DCLNo          string     `json:"dclNo" example:"DCL-2024-001"`
	CustomerName   string     `json:"customerName" example:"Acme Ltd"`
	CustomerNumber string     `json:"customerNumber"`
	LoanType       string     `json:"loanType"`
	RMID           string     `json:"rmId"`
	CreatedBy      string     `json:"createdBy"`
	StatusLabel    string     `json:"statusLabel"`
	SLAExpiry      *time.Time `json:"slaExpiry,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
	review.ChecklistView
}

// ChecklistListItem 清单列表项
type ChecklistListItem struct {
	ID           string           `json:"id"`
	DCLNo        string           `json:"dclNo"`
	CustomerName string           `json:"customerName"`
	LoanType     string           `json:"loanType"`
	Status       string           `json:"status"`
	StatusLabel  string           `json:"statusLabel"`
	RMID         string           `json:"rmId"`
	SLA          review.SLAResult `json:"sla"`
	CreatedAt    time.Time        `json:"createdAt"`
}

// ListChecklistsRequest 清单列表查询参数
type ListChecklistsRequest struct {
	Status   *string
	RMID     *string
	Search   *string
	Page     int
	PageSize int
	SortBy   string
	Order    string
}

// ChecklistListResponse 清单列表响应
type ChecklistListResponse struct {
	Data       []*ChecklistListItem
	Pagination PaginationInfo
}

// DocumentDecisionRequest 单个文档复核请求
// @Description 复核人对单个文档的批准或驳回
type DocumentDecisionRequest struct {
	Decision string `json:"decision" example:"approved" binding:"required"` // approved 或 rejected
	Comment  string `json:"comment" example:"Verified against original"`
}

// SubmitChecklistRequest 提交复核结果请求
// @Description 复核人提交整张清单的审批动作
type SubmitChecklistRequest struct {
	Action    string                   `json:"action" example:"approved" binding:"required"` // approved / rejected / returned_for_rework
	Decisions []review.CheckerDecision `json:"checkerDecisions"`                              // 提交时一并写入的文档复核结果
	Comments  string                   `json:"checkerComments" example:"All documents verified"`
}

// SubmitResult 提交结果
type SubmitResult struct {
	Status  review.ChecklistStatus `json:"status"`
	Payload review.SubmitPayload   `json:"payload"`
}

// SaveDraftRequest 保存草稿请求,documents 为空时以当前文档生成草稿
type SaveDraftRequest struct {
	Documents      []review.DraftDocument `json:"documents"`
	CreatorComment string                 `json:"creatorComment"`
}

// TransitionRequest 生命周期事件请求
type TransitionRequest struct {
	Event  string `json:"event" example:"start_review" binding:"required"`
	Reason string `json:"reason"`
}

// AddCommentRequest 添加评论请求
type AddCommentRequest struct {
	Message string `json:"message" binding:"required"`
	Role    string `json:"role"` // 为空时取当前用户的主要角色
}

// checklistService 清单复核服务实现
type checklistService struct {
	db          *gorm.DB
	checklists  repository.ChecklistRepository
	documents   repository.DocumentRepository
	comments    repository.CommentRepository
	drafts      repository.DraftRepository
	history     repository.StateHistoryRepository
	views       ViewStore
	publisher   notify.Publisher
	auditLogSvc AuditLogService
	opts        ChecklistOptions
	readOnly    atomic.Bool
	logger      *logrus.Logger
	now         func() time.Time
}

// NewChecklistService 创建清单复核服务,views 与 publisher 可以为 nil
func NewChecklistService(db *gorm.DB, auditLogSvc AuditLogService, publisher notify.Publisher, views ViewStore, opts ChecklistOptions, logger *logrus.Logger) ChecklistService {
	if publisher == nil {
		publisher = notify.NopPublisher{}
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	svc := &checklistService{
		db:          db,
		checklists:  repository.NewChecklistRepository(db),
		documents:   repository.NewDocumentRepository(db),
		comments:    repository.NewCommentRepository(db),
		drafts:      repository.NewDraftRepository(db),
		history:     repository.NewStateHistoryRepository(db),
		views:       views,
		publisher:   publisher,
		auditLogSvc: auditLogSvc,
		opts:        opts,
		logger:      logger,
		now:         time.Now,
	}
	svc.readOnly.Store(opts.ReadOnly)
	return svc
}

// SetReadOnly 切换只读模式
func (s *checklistService) SetReadOnly(readOnly bool) {
	if s.readOnly.Swap(readOnly) == readOnly {
		return
	}
	s.logger.WithField("read_only", readOnly).Info("checklist review read-only mode changed")
	// 缓存视图中的闸门与只读标记随模式变化
	if s.views != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.views.Flush(ctx); err != nil {
			s.logger.WithError(err).Warn("view cache flush failed")
		}
	}
}

// Get 获取清单复核视图,优先读取缓存
func (s *checklistService) Get(ctx context.Context, id string) (*ChecklistDetail, error) {
	if s.views != nil {
		var cached ChecklistDetail
		hit, err := s.views.Get(ctx, id, &cached)
		if err != nil {
			s.logger.WithError(err).WithField("checklist_id", id).Warn("view cache read failed")
		} else if hit {
			// 倒计时随时间变化,不使用缓存值
			cached.SLA = review.Countdown(cached.SLAExpiry, s.now())
			return &cached, nil
		}
	}

	checklist, err := s.checklists.FindByID(id)
	if err != nil {
		return nil, notFound(err, "checklist", id)
	}
	detail, err := s.buildDetail(checklist)
	if err != nil {
		return nil, err
	}

	if s.views != nil {
		if err := s.views.Set(ctx, id, detail); err != nil {
			s.logger.WithError(err).WithField("checklist_id", id).Warn("view cache write failed")
		}
	}
	return detail, nil
}

// List 列出清单
func (s *checklistService) List(_ context.Context, req *ListChecklistsRequest) (*ChecklistListResponse, error) {
	if req == nil {
		req = &ListChecklistsRequest{}
	}
	page := repository.Page{Page: req.Page, PageSize: req.PageSize, SortBy: req.SortBy, Order: req.Order}
	rows, total, err := s.checklists.FindByFilter(&repository.ChecklistFilter{
		Status: req.Status,
		RMID:   req.RMID,
		Search: req.Search,
		Page:   page,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list checklists: %w", err)
	}

	now := s.now()
	items := make([]*ChecklistListItem, 0, len(rows))
	for _, c := range rows {
		items = append(items, &ChecklistListItem{
			ID:           c.ID,
			DCLNo:        c.DCLNo,
			CustomerName: c.CustomerName,
			LoanType:     c.LoanType,
			Status:       c.Status,
			StatusLabel:  review.ChecklistStatus(c.Status).Label(),
			RMID:         c.RMID,
			SLA:          review.Countdown(c.SLAExpiry, now),
			CreatedAt:    c.CreatedAt,
		})
	}
	return &ChecklistListResponse{Data: items, Pagination: newPaginationInfo(page, total)}, nil
}

// DecideDocument 记录单个文档的复核结果
func (s *checklistService) DecideDocument(ctx context.Context, id, documentID string, req *DocumentDecisionRequest) (*ChecklistDetail, error) {
	decision := review.NormalizeCheckerStatus(req.Decision)
	if decision != review.CheckerApproved && decision != review.CheckerRejected {
		return nil, &review.ValidationError{Code: "invalid_decision", Messages: []string{"decision must be approved or rejected"}}
	}
	comment := ""
	if strings.TrimSpace(req.Comment) != "" {
		c, err := utils.ValidateComment(req.Comment, maxCommentLength)
		if err != nil {
			return nil, err
		}
		comment = c
	}

	checklist, err := s.checklists.FindByID(id)
	if err != nil {
		return nil, notFound(err, "checklist", id)
	}
	status := review.ChecklistStatus(checklist.Status)
	if s.readOnly.Load() || !status.Reviewable() {
		metrics.RecordGateBlocked(string(review.GateNotInReview))
		return nil, &review.ValidationError{Code: string(review.GateNotInReview), Messages: []string{"Checklist is not in review state"}}
	}

	userID := getUserIDFromContext(ctx)
	err = s.db.Transaction(func(tx *gorm.DB) error {
		docs := repository.NewDocumentRepository(tx)
		if _, err := docs.FindByID(id, documentID); err != nil {
			return notFound(err, "document", documentID)
		}
		if err := docs.UpdateDecision(id, documentID, string(decision), comment); err != nil {
			return fmt.Errorf("failed to update document decision: %w", err)
		}
		record := &model.ReviewDecisionModel{
			ID:          uuid.New().String(),
			ChecklistID: id,
			DocumentID:  documentID,
			Reviewer:    firstNonEmpty(userID, "system"),
			Decision:    string(decision),
			Comment:     comment,
			CreatedAt:   s.now(),
		}
		return repository.NewReviewDecisionRepository(tx).Save(record)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, id)
	metrics.RecordDocumentDecision(string(decision))

	if s.auditLogSvc != nil && userID != "" {
		_ = s.auditLogSvc.RecordAction(ctx, userID, "decide_document", "checklist", id, map[string]string{
			"document_id": documentID,
			"decision":    string(decision),
			"comment":     comment,
		})
	}
	s.publish(ctx, notify.Event{
		Type:        notify.EventDocumentDecided,
		AggregateID: id,
		Actor:       userID,
		Payload: map[string]interface{}{
			"documentId":    documentID,
			"checkerStatus": string(decision),
		},
	})

	return s.Get(ctx, id)
}

// Submit 校验审批闸门后提交复核结果并推进清单状态
func (s *checklistService) Submit(ctx context.Context, id string, req *SubmitChecklistRequest) (*SubmitResult, error) {
	action := strings.ToLower(strings.TrimSpace(req.Action))
	event, err := review.EventForDecision(action)
	if err != nil {
		metrics.RecordSubmission(action, "invalid")
		return nil, err
	}

	comments := ""
	if strings.TrimSpace(req.Comments) != "" {
		c, err := utils.ValidateComment(req.Comments, maxCommentLength)
		if err != nil {
			return nil, err
		}
		comments = c
	}

	checklist, err := s.checklists.FindByID(id)
	if err != nil {
		return nil, notFound(err, "checklist", id)
	}
	from := review.ChecklistStatus(checklist.Status)

	docs := review.Flatten(toRawDocuments(checklist.Documents), review.FlattenOptions{ChecklistStatus: from})
	if err := applyDecisions(docs, req.Decisions); err != nil {
		return nil, err
	}

	summary := review.Aggregate(docs)
	gate := review.Evaluate(summary, len(docs), from, s.readOnly.Load())
	if gate.Code == review.GateNotInReview {
		metrics.RecordGateBlocked(string(gate.Code))
		metrics.RecordSubmission(action, "blocked")
		return nil, &review.ValidationError{Code: string(gate.Code), Messages: []string{gate.Reason}}
	}
	if err := review.ValidateSubmission(action, summary, len(docs)); err != nil {
		var verr *review.ValidationError
		if errors.As(err, &verr) {
			metrics.RecordGateBlocked(verr.Code)
		}
		metrics.RecordSubmission(action, "blocked")
		return nil, err
	}

	to, err := review.Transition(from, event)
	if err != nil {
		metrics.RecordSubmission(action, "invalid")
		return nil, err
	}

	payload := review.BuildSubmitPayload(id, action, docs, comments)
	userID := getUserIDFromContext(ctx)
	now := s.now()

	err = s.db.Transaction(func(tx *gorm.DB) error {
		docRepo := repository.NewDocumentRepository(tx)
		decisionRepo := repository.NewReviewDecisionRepository(tx)
		for _, d := range payload.CheckerDecisions {
			if err := docRepo.UpdateDecision(id, d.DocumentID, d.CheckerStatus, d.CheckerComment); err != nil {
				return fmt.Errorf("failed to persist decision for %s: %w", d.DocumentID, err)
			}
			if err := decisionRepo.Save(&model.ReviewDecisionModel{
				ID:          uuid.New().String(),
				ChecklistID: id,
				DocumentID:  d.DocumentID,
				Reviewer:    firstNonEmpty(userID, "system"),
				Decision:    d.CheckerStatus,
				Comment:     d.CheckerComment,
				CreatedAt:   now,
			}); err != nil {
				return err
			}
		}
		if to == review.StatusApproved {
			if err := docRepo.ApproveAll(id); err != nil {
				return fmt.Errorf("failed to approve documents: %w", err)
			}
		}
		if comments != "" {
			if err := repository.NewCommentRepository(tx).Save(&model.CommentModel{
				ID:          uuid.New().String(),
				ChecklistID: id,
				Role:        s.roleFromContext(ctx, auth.RoleChecker),
				Author:      firstNonEmpty(getUsernameFromContext(ctx), "system"),
				Message:     comments,
				CreatedAt:   now,
			}); err != nil {
				return err
			}
		}
		return s.applyStatus(tx, id, from, to, event, comments, userID, now)
	})
	if err != nil {
		metrics.RecordSubmission(action, "failed")
		return nil, err
	}

	s.invalidate(ctx, id)
	metrics.RecordSubmission(action, "success")
	metrics.RecordTransition(string(from), string(to))

	if s.auditLogSvc != nil && userID != "" {
		_ = s.auditLogSvc.RecordAction(ctx, userID, "submit", "checklist", id, map[string]interface{}{
			"action":    action,
			"from":      string(from),
			"to":        string(to),
			"decisions": len(payload.CheckerDecisions),
		})
	}
	s.publish(ctx, notify.Event{
		Type:        notify.EventChecklistSubmit,
		AggregateID: id,
		Actor:       userID,
		Payload: map[string]interface{}{
			"action": action,
			"from":   string(from),
			"to":     string(to),
		},
	})

	s.logger.WithFields(logrus.Fields{
		"checklist_id": id,
		"action":       action,
		"from":         from,
		"to":           to,
	}).Info("checklist submitted")

	return &SubmitResult{Status: to, Payload: payload}, nil
}

// SaveDraft 保存复核草稿
func (s *checklistService) SaveDraft(ctx context.Context, id string, req *SaveDraftRequest) (*review.DraftPayload, error) {
	if s.readOnly.Load() {
		return nil, &review.ValidationError{Code: string(review.GateNotInReview), Messages: []string{"Checklist is not in review state"}}
	}
	checklist, err := s.checklists.FindByID(id)
	if err != nil {
		return nil, notFound(err, "checklist", id)
	}

	var payload review.DraftPayload
	if len(req.Documents) == 0 {
		docs := review.Flatten(toRawDocuments(checklist.Documents), review.FlattenOptions{ChecklistStatus: review.ChecklistStatus(checklist.Status)})
		payload = review.BuildDraftPayload(id, docs, req.CreatorComment)
	} else {
		payload = review.DraftPayload{
			ChecklistID: id,
			DraftData:   review.DraftData{Documents: req.Documents, CreatorComment: req.CreatorComment},
		}
	}

	if err := validateDraft(payload); err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(checklist.Documents))
	for _, d := range checklist.Documents {
		known[d.ID] = true
	}
	for _, d := range payload.DraftData.Documents {
		if !known[d.ID] {
			return nil, &review.ValidationError{Code: "invalid_draft", Messages: []string{fmt.Sprintf("document %s does not belong to checklist", d.ID)}}
		}
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal draft: %w", err)
	}
	userID := getUserIDFromContext(ctx)
	draft := &model.DraftModel{
		ChecklistID: id,
		Data:        data,
		SavedBy:     firstNonEmpty(userID, "system"),
		UpdatedAt:   s.now(),
	}
	if err := s.drafts.Upsert(draft); err != nil {
		return nil, fmt.Errorf("failed to save draft: %w", err)
	}

	if s.auditLogSvc != nil && userID != "" {
		_ = s.auditLogSvc.RecordAction(ctx, userID, "save_draft", "checklist", id, map[string]int{
			"documents": len(payload.DraftData.Documents),
		})
	}
	s.publish(ctx, notify.Event{Type: notify.EventDraftSaved, AggregateID: id, Actor: userID})
	return &payload, nil
}

// GetDraft 读取复核草稿
func (s *checklistService) GetDraft(_ context.Context, id string) (*review.DraftPayload, error) {
	draft, err := s.drafts.FindByChecklistID(id)
	if err != nil {
		return nil, notFound(err, "draft", id)
	}
	var payload review.DraftPayload
	if err := json.Unmarshal(draft.Data, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode draft: %w", err)
	}
	return &payload, nil
}

// Transition 对清单应用生命周期事件
func (s *checklistService) Transition(ctx context.Context, id string, req *TransitionRequest) (*ChecklistDetail, error) {
	checklist, err := s.checklists.FindByID(id)
	if err != nil {
		return nil, notFound(err, "checklist", id)
	}
	if s.readOnly.Load() {
		metrics.RecordGateBlocked(string(review.GateNotInReview))
		return nil, &review.ValidationError{Code: string(review.GateNotInReview), Messages: []string{"Checklist review is read-only"}}
	}
	from := review.ChecklistStatus(checklist.Status)
	event := review.Event(strings.ToLower(strings.TrimSpace(req.Event)))

	to, err := review.Transition(from, event)
	if err != nil {
		return nil, err
	}

	// 复核决定与 Submit 走同一审批闸门
	if action := review.DecisionAction(event); action != "" {
		if _, err := s.Submit(ctx, id, &SubmitChecklistRequest{Action: action, Comments: req.Reason}); err != nil {
			return nil, err
		}
		return s.Get(ctx, id)
	}

	userID := getUserIDFromContext(ctx)
	err = s.db.Transaction(func(tx *gorm.DB) error {
		return s.applyStatus(tx, id, from, to, event, req.Reason, userID, s.now())
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, id)
	metrics.RecordTransition(string(from), string(to))

	if s.auditLogSvc != nil && userID != "" {
		_ = s.auditLogSvc.RecordAction(ctx, userID, "transition", "checklist", id, map[string]string{
			"event":  string(event),
			"from":   string(from),
			"to":     string(to),
			"reason": req.Reason,
		})
	}
	s.publish(ctx, notify.Event{
		Type:        notify.EventChecklistStatus,
		AggregateID: id,
		Actor:       userID,
		Payload: map[string]interface{}{
			"event": string(event),
			"from":  string(from),
			"to":    string(to),
		},
	})

	return s.Get(ctx, id)
}

// AddComment 添加清单评论
func (s *checklistService) AddComment(ctx context.Context, id string, req *AddCommentRequest) (*model.CommentModel, error) {
	message, err := utils.ValidateComment(req.Message, maxCommentLength)
	if err != nil {
		return nil, err
	}
	if _, err := s.checklists.FindByID(id); err != nil {
		return nil, notFound(err, "checklist", id)
	}

	role := strings.ToLower(strings.TrimSpace(req.Role))
	if role == "" {
		role = s.roleFromContext(ctx, "system")
	}
	comment := &model.CommentModel{
		ID:          uuid.New().String(),
		ChecklistID: id,
		Role:        role,
		Author:      firstNonEmpty(getUsernameFromContext(ctx), "system"),
		Message:     message,
		CreatedAt:   s.now(),
	}
	if err := comment.Validate(); err != nil {
		return nil, err
	}
	if err := s.comments.Save(comment); err != nil {
		return nil, fmt.Errorf("failed to save comment: %w", err)
	}

	userID := getUserIDFromContext(ctx)
	if s.auditLogSvc != nil && userID != "" {
		_ = s.auditLogSvc.RecordAction(ctx, userID, "comment", "checklist", id, map[string]string{"comment_id": comment.ID})
	}
	s.publish(ctx, notify.Event{
		Type:        notify.EventCommentAdded,
		AggregateID: id,
		Actor:       userID,
		Payload:     map[string]interface{}{"commentId": comment.ID, "role": role},
	})
	return comment, nil
}

// ListComments 按时间倒序列出最近的评论
func (s *checklistService) ListComments(_ context.Context, id string, limit int) ([]*model.CommentModel, error) {
	if limit <= 0 {
		limit = defaultCommentPage
	}
	return s.comments.FindRecent(id, limit)
}

// History 清单状态变更历史
func (s *checklistService) History(_ context.Context, id string) ([]*model.StateHistoryModel, error) {
	return s.history.FindByChecklistID(id)
}

// applyStatus 在事务内写入新状态与状态历史
func (s *checklistService) applyStatus(tx *gorm.DB, id string, from, to review.ChecklistStatus, event review.Event, reason, userID string, now time.Time) error {
	var completedAt *time.Time
	if to == review.StatusApproved || to == review.StatusCompleted {
		completedAt = &now
	}
	if err := repository.NewChecklistRepository(tx).UpdateStatus(id, string(to), completedAt); err != nil {
		return fmt.Errorf("failed to update checklist status: %w", err)
	}
	return repository.NewStateHistoryRepository(tx).Save(&model.StateHistoryModel{
		ID:          uuid.New().String(),
		ChecklistID: id,
		FromState:   string(from),
		ToState:     string(to),
		Event:       string(event),
		Reason:      reason,
		Operator:    firstNonEmpty(userID, "system"),
		CreatedAt:   now,
	})
}

// buildDetail 展开文档并计算复核视图
func (s *checklistService) buildDetail(c *model.ChecklistModel) (*ChecklistDetail, error) {
	status, err := review.ParseChecklistStatus(c.Status)
	if err != nil {
		return nil, err
	}
	docs := review.Flatten(toRawDocuments(c.Documents), review.FlattenOptions{
		ReadOnly:        s.readOnly.Load(),
		ChecklistStatus: status,
	})
	for i := range docs {
		docs[i].FileURL = review.ResolveFileURL(s.opts.FileBaseURL, docs[i].FileURL)
	}

	return &ChecklistDetail{
		ID:             c.ID,
		DCLNo:          c.DCLNo,
		CustomerName:   c.CustomerName,
		CustomerNumber: c.CustomerNumber,
		LoanType:       c.LoanType,
		RMID:           c.RMID,
		CreatedBy:      c.CreatedBy,
		StatusLabel:    status.Label(),
		SLAExpiry:      c.SLAExpiry,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
		CompletedAt:    c.CompletedAt,
		ChecklistView:  review.BuildView(docs, status, c.SLAExpiry, s.readOnly.Load(), s.now()),
	}, nil
}

func (s *checklistService) invalidate(ctx context.Context, id string) {
	if s.views == nil {
		return
	}
	if err := s.views.Invalidate(ctx, id); err != nil {
		s.logger.WithError(err).WithField("checklist_id", id).Warn("view cache invalidate failed")
	}
}

func (s *checklistService) publish(ctx context.Context, evt notify.Event) {
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"event_type":   evt.Type,
			"aggregate_id": evt.AggregateID,
		}).Warn("failed to publish event")
	}
}

// roleFromContext 当前用户的主要角色
func (s *checklistService) roleFromContext(ctx context.Context, fallback string) string {
	if role := auth.PrimaryRole(getRolesFromContext(ctx)); role != "" {
		return role
	}
	return fallback
}

// toRawDocuments 将持久化文档转换为展开前的原始记录
func toRawDocuments(models []model.DocumentModel) []review.RawDocument {
	raw := make([]review.RawDocument, 0, len(models))
	for _, m := range models {
		raw = append(raw, review.RawDocument{
			ID:             m.ID,
			Category:       m.Category,
			Name:           m.Name,
			Status:         m.Status,
			Action:         m.Action,
			CoStatus:       m.CoStatus,
			RMStatus:       m.RMStatus,
			CheckerStatus:  m.CheckerStatus,
			CheckerComment: m.CheckerComment,
			Comment:        m.Comment,
			FileURL:        m.FileURL,
			ExpiryDate:     m.ExpiryDate,
			DeferralNo:     m.DeferralNo,
			Approved:       m.Approved,
		})
	}
	return raw
}

// applyDecisions 将随提交携带的复核结果写入内存中的文档
func applyDecisions(docs []review.Document, decisions []review.CheckerDecision) error {
	if len(decisions) == 0 {
		return nil
	}
	index := make(map[string]int, len(docs))
	for i, d := range docs {
		index[d.ID] = i
	}
	for _, dec := range decisions {
		i, ok := index[dec.DocumentID]
		if !ok {
			return &review.ValidationError{
				Code:     "unknown_document",
				Messages: []string{fmt.Sprintf("document %s does not belong to checklist", dec.DocumentID)},
			}
		}
		if dec.CheckerStatus != "" {
			docs[i].CheckerStatus = review.NormalizeCheckerStatus(dec.CheckerStatus)
		}
		if dec.CheckerComment != "" {
			docs[i].CheckerComment = dec.CheckerComment
		}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
