package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mautops/deferral-gin/internal/model"
	"github.com/mautops/deferral-gin/internal/notify"
	"github.com/mautops/deferral-gin/internal/report"
	"github.com/mautops/deferral-gin/internal/repository"
	"github.com/mautops/deferral-gin/internal/review"
	"github.com/mautops/deferral-gin/internal/storage"
	"github.com/mautops/deferral-gin/internal/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ReportService 清单报告服务接口
type ReportService interface {
	Export(ctx context.Context, checklistID string) (*ExportResult, error)
	Download(ctx context.Context, exportID, token string) (*ReportFile, error)
	Preview(ctx context.Context, checklistID string) (*ReportFile, error)
	ListExports(ctx context.Context, checklistID string) ([]*model.ReportExportModel, error)
}

// ReportExporter 渲染并存储报告
type ReportExporter interface {
	Export(ctx context.Context, s report.Snapshot) (*report.Artifact, error)
}

// ExportResult 报告导出结果,下载令牌只在此处返回一次
// @Description 导出的报告文件与一次性展示的下载令牌
type ExportResult struct {
	ExportID    string    `json:"exportId"`
	ChecklistID string    `json:"checklistId"`
	Filename    string    `json:"filename" example:"Completed_Checklist_DCL-001_20240101_120000.pdf"`
	Size        int       `json:"size"`
	Token       string    `json:"token"`
	DownloadURL string    `json:"downloadUrl"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// ReportFile 报告文件内容
type ReportFile struct {
	Filename    string
	ContentType string
	Content     []byte
}

// reportService 报告服务实现
type reportService struct {
	checklists   repository.ChecklistRepository
	comments     repository.CommentRepository
	exports      repository.ReportExportRepository
	exporter     ReportExporter
	store        storage.ReportStore
	preview      report.Renderer
	commentLimit int
	publisher    notify.Publisher
	auditLogSvc  AuditLogService
	logger       *logrus.Logger
	now          func() time.Time
}

// NewReportService 创建报告服务
func NewReportService(db *gorm.DB, exporter ReportExporter, store storage.ReportStore, preview report.Renderer, commentLimit int, auditLogSvc AuditLogService, publisher notify.Publisher, logger *logrus.Logger) ReportService {
	if publisher == nil {
		publisher = notify.NopPublisher{}
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &reportService{
		checklists:   repository.NewChecklistRepository(db),
		comments:     repository.NewCommentRepository(db),
		exports:      repository.NewReportExportRepository(db),
		exporter:     exporter,
		store:        store,
		preview:      preview,
		commentLimit: commentLimit,
		publisher:    publisher,
		auditLogSvc:  auditLogSvc,
		logger:       logger,
		now:          time.Now,
	}
}

// Export 生成 PDF 报告并签发下载令牌
func (s *reportService) Export(ctx context.Context, checklistID string) (*ExportResult, error) {
	snap, err := s.snapshot(checklistID)
	if err != nil {
		return nil, err
	}

	artifact, err := s.exporter.Export(ctx, snap)
	if err != nil {
		return nil, err
	}

	token, hash, err := utils.NewDownloadToken()
	if err != nil {
		return nil, fmt.Errorf("failed to issue download token: %w", err)
	}
	userID := getUserIDFromContext(ctx)
	record := &model.ReportExportModel{
		ID:          uuid.New().String(),
		ChecklistID: checklistID,
		ObjectKey:   artifact.Key,
		Filename:    artifact.Filename,
		TokenHash:   hash,
		SizeBytes:   int64(artifact.Size),
		CreatedBy:   firstNonEmpty(userID, "system"),
		CreatedAt:   s.now(),
	}
	if err := s.exports.Save(record); err != nil {
		return nil, fmt.Errorf("failed to save export record: %w", err)
	}

	if s.auditLogSvc != nil && userID != "" {
		_ = s.auditLogSvc.RecordAction(ctx, userID, "export", "checklist", checklistID, map[string]interface{}{
			"export_id": record.ID,
			"filename":  record.Filename,
			"size":      record.SizeBytes,
		})
	}
	if err := s.publisher.Publish(ctx, notify.Event{
		Type:        notify.EventReportExported,
		AggregateID: checklistID,
		Actor:       userID,
		Payload:     map[string]interface{}{"exportId": record.ID, "filename": record.Filename},
	}); err != nil {
		s.logger.WithError(err).WithField("checklist_id", checklistID).Warn("failed to publish export event")
	}

	return &ExportResult{
		ExportID:    record.ID,
		ChecklistID: checklistID,
		Filename:    artifact.Filename,
		Size:        artifact.Size,
		Token:       token,
		DownloadURL: fmt.Sprintf("/api/v1/reports/%s/download?token=%s", record.ID, token),
		GeneratedAt: artifact.GeneratedAt,
	}, nil
}

// Download 校验令牌后读取已存储的报告
func (s *reportService) Download(ctx context.Context, exportID, token string) (*ReportFile, error) {
	record, err := s.exports.FindByID(exportID)
	if err != nil {
		return nil, notFound(err, "report export", exportID)
	}
	if !utils.VerifyDownloadToken(token, record.TokenHash) {
		return nil, ErrInvalidToken
	}

	content, err := s.store.Get(ctx, record.ObjectKey)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, fmt.Errorf("report object %s: %w", record.ObjectKey, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read report: %w", err)
	}
	return &ReportFile{Filename: record.Filename, ContentType: "application/pdf", Content: content}, nil
}

// Preview 渲染 HTML 预览,不写入存储
func (s *reportService) Preview(_ context.Context, checklistID string) (*ReportFile, error) {
	snap, err := s.snapshot(checklistID)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := s.preview.Render(&buf, snap); err != nil {
		return nil, fmt.Errorf("failed to render preview: %w", err)
	}
	return &ReportFile{
		Filename:    strings.TrimSuffix(snap.Filename(), ".pdf") + ".html",
		ContentType: s.preview.ContentType(),
		Content:     buf.Bytes(),
	}, nil
}

// ListExports 清单的历史导出记录
func (s *reportService) ListExports(_ context.Context, checklistID string) ([]*model.ReportExportModel, error) {
	return s.exports.FindByChecklistID(checklistID)
}

// snapshot 加载清单、文档与最近评论并构建报告快照
func (s *reportService) snapshot(checklistID string) (report.Snapshot, error) {
	checklist, err := s.checklists.FindByID(checklistID)
	if err != nil {
		return report.Snapshot{}, notFound(err, "checklist", checklistID)
	}
	status, err := review.ParseChecklistStatus(checklist.Status)
	if err != nil {
		return report.Snapshot{}, err
	}
	docs := review.Flatten(toRawDocuments(checklist.Documents), review.FlattenOptions{ChecklistStatus: status})

	limit := s.commentLimit
	if limit <= 0 {
		limit = report.DefaultCommentLimit
	}
	rows, err := s.comments.FindRecent(checklistID, limit)
	if err != nil {
		return report.Snapshot{}, fmt.Errorf("failed to load comments: %w", err)
	}
	comments := make([]report.Comment, 0, len(rows))
	for _, c := range rows {
		comments = append(comments, report.Comment{
			Author:    c.Author,
			Role:      c.Role,
			Message:   c.Message,
			CreatedAt: c.CreatedAt,
		})
	}

	info := report.ChecklistInfo{
		ID:             checklist.ID,
		DCLNo:          checklist.DCLNo,
		CustomerName:   checklist.CustomerName,
		CustomerNumber: checklist.CustomerNumber,
		LoanType:       checklist.LoanType,
		CreatedBy:      checklist.CreatedBy,
		RM:             checklist.RMID,
		Status:         status,
		CompletedAt:    checklist.CompletedAt,
	}
	return report.BuildSnapshot(info, docs, comments, limit, s.now()), nil
}
