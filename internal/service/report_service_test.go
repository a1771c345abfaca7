package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/mautops/deferral-gin/internal/cache"
	"github.com/mautops/deferral-gin/internal/model"
	"github.com/mautops/deferral-gin/internal/notify"
	"github.com/mautops/deferral-gin/internal/report"
	"github.com/mautops/deferral-gin/internal/repository"
	"github.com/mautops/deferral-gin/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestReportService(t *testing.T, db *gorm.DB, store storage.ReportStore, pub notify.Publisher) ReportService {
	exporter := report.NewExporter(cache.NewMemoryLocker(), store, report.NewPDFRenderer(), time.Minute, quietLogger())
	html, err := report.NewHTMLRenderer()
	require.NoError(t, err)
	audit := NewAuditLogService(repository.NewAuditLogRepository(db))
	return NewReportService(db, exporter, store, html, 5, audit, pub, quietLogger())
}

// TestReportService_ExportAndDownload 测试导出报告并凭令牌下载
func TestReportService_ExportAndDownload(t *testing.T) {
	db := setupTestDB(t)
	seedChecklist(t, db, "cl-1", "completed",
		doc("d1", "Title deed", "approved"),
		doc("d2", "Valuation report", "pending"),
	)
	require.NoError(t, repository.NewCommentRepository(db).Save(&model.CommentModel{
		ID: "c1", ChecklistID: "cl-1", Role: "checker", Author: "Checker", Message: "Looks fine", CreatedAt: time.Now(),
	}))

	store := storage.NewMemoryStore()
	pub := &recordingPublisher{}
	svc := newTestReportService(t, db, store, pub)
	ctx := userCtx("checker-1", "checker")

	result, err := svc.Export(ctx, "cl-1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.Filename, "Completed_Checklist_DCL-cl-1_"))
	assert.True(t, strings.HasSuffix(result.Filename, ".pdf"))
	assert.NotEmpty(t, result.Token)
	assert.Contains(t, result.DownloadURL, result.ExportID)
	assert.Positive(t, result.Size)

	exports, err := svc.ListExports(ctx, "cl-1")
	require.NoError(t, err)
	require.Len(t, exports, 1)
	assert.NotEqual(t, result.Token, exports[0].TokenHash)

	file, err := svc.Download(ctx, result.ExportID, result.Token)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.Equal(t, result.Filename, file.Filename)
	assert.True(t, strings.HasPrefix(string(file.Content), "%PDF"))

	_, err = svc.Download(ctx, result.ExportID, "wrong-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.Download(ctx, "missing", result.Token)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, []string{notify.EventReportExported}, pub.types())
}

// TestReportService_ExportMissingChecklist 测试导出不存在的清单
func TestReportService_ExportMissingChecklist(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestReportService(t, db, storage.NewMemoryStore(), nil)

	_, err := svc.Export(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

// TestReportService_Preview 测试 HTML 预览
func TestReportService_Preview(t *testing.T) {
	db := setupTestDB(t)
	seedChecklist(t, db, "cl-1", "approved", doc("d1", "Title deed", "pending"))
	svc := newTestReportService(t, db, storage.NewMemoryStore(), nil)

	file, err := svc.Preview(context.Background(), "cl-1")
	require.NoError(t, err)
	assert.Contains(t, file.ContentType, "text/html")
	assert.True(t, strings.HasSuffix(file.Filename, ".html"))
	body := string(file.Content)
	assert.Contains(t, body, "DCL-cl-1")
	assert.Contains(t, body, "Title deed")
}
