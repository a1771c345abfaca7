package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/mautops/deferral-gin/internal/database"
	"github.com/mautops/deferral-gin/internal/model"
	"github.com/mautops/deferral-gin/internal/notify"
	"github.com/mautops/deferral-gin/internal/repository"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB 创建内存 SQLite 数据库并执行迁移
func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

// userCtx 模拟认证中间件写入的用户信息
func userCtx(userID string, roles ...string) context.Context {
	ctx := context.WithValue(context.Background(), "user_id", userID)
	ctx = context.WithValue(ctx, "username", userID+"-name")
	ctx = context.WithValue(ctx, "roles", roles)
	ctx = context.WithValue(ctx, "request_id", "req-1")
	return ctx
}

// recordingPublisher 记录发布的事件
type recordingPublisher struct {
	mu     sync.Mutex
	events []notify.Event
}

func (p *recordingPublisher) Publish(_ context.Context, evt notify.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// seedChecklist 写入一张清单及其文档
func seedChecklist(t *testing.T, db *gorm.DB, id, status string, docs ...model.DocumentModel) *model.ChecklistModel {
	now := time.Now()
	sla := now.Add(72 * time.Hour)
	checklist := &model.ChecklistModel{
		ID:             id,
		DCLNo:          "DCL-" + id,
		CustomerName:   "Acme Ltd",
		CustomerNumber: "CUST-01",
		LoanType:       "Term Loan",
		Status:         status,
		RMID:           "rm-1",
		CreatedBy:      "creator-1",
		SLAExpiry:      &sla,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	require.NoError(t, repository.NewChecklistRepository(db).Save(checklist))

	ptrs := make([]*model.DocumentModel, 0, len(docs))
	for i := range docs {
		docs[i].ChecklistID = id
		docs[i].Position = i
		if docs[i].Category == "" {
			docs[i].Category = "Legal"
		}
		ptrs = append(ptrs, &docs[i])
	}
	if len(ptrs) > 0 {
		require.NoError(t, repository.NewDocumentRepository(db).SaveAll(ptrs))
	}
	return checklist
}

func doc(id, name, checkerStatus string) model.DocumentModel {
	return model.DocumentModel{
		ID:            id,
		Name:          name,
		Status:        "submitted",
		CheckerStatus: checkerStatus,
		FileURL:       "/uploads/" + id + ".pdf",
	}
}
