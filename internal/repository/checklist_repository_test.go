package repository_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/mautops/deferral-gin/internal/model"
	"github.com/mautops/deferral-gin/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedChecklist(t *testing.T, db *gorm.DB, id, dclNo, customer, status string, sla *time.Time) {
	now := time.Now().UTC()
	cl := &model.ChecklistModel{
		ID: id, DCLNo: dclNo, CustomerName: customer, Status: status, CreatedBy: "rm-1", RMID: "rm-1",
		SLAExpiry: sla, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, repository.NewChecklistRepository(db).Save(cl))
}

// TestChecklistRepository_FindByID 测试查找清单及其文档
func TestChecklistRepository_FindByID(t *testing.T) {
	db := setupTestDB(t)
	seedChecklist(t, db, "cl-1", "DCL-001", "Acme Traders", "check_review", nil)

	docs := repository.NewDocumentRepository(db)
	require.NoError(t, docs.SaveAll([]*model.DocumentModel{
		{ID: "d-2", ChecklistID: "cl-1", Position: 1, Category: "Security", Name: "Title deed", Status: "submitted"},
		{ID: "d-1", ChecklistID: "cl-1", Position: 0, Category: "Compliance Documents", Name: "KYC", Status: "deferred"},
	}))

	cl, err := repository.NewChecklistRepository(db).FindByID("cl-1")
	require.NoError(t, err)
	assert.Equal(t, "DCL-001", cl.DCLNo)
	require.Len(t, cl.Documents, 2)
	assert.Equal(t, "d-1", cl.Documents[0].ID)

	_, err = repository.NewChecklistRepository(db).FindByID("missing")
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

// TestChecklistRepository_FindByFilter 测试过滤、搜索与分页
func TestChecklistRepository_FindByFilter(t *testing.T) {
	db := setupTestDB(t)
	for i := 0; i < 5; i++ {
		seedChecklist(t, db, fmt.Sprintf("cl-%d", i), fmt.Sprintf("DCL-%03d", i), fmt.Sprintf("Customer %d", i), "check_review", nil)
	}
	seedChecklist(t, db, "cl-x", "DCL-900", "Zenith 100%", "approved", nil)
	repo := repository.NewChecklistRepository(db)

	status := "check_review"
	list, total, err := repo.FindByFilter(&repository.ChecklistFilter{
		Status: &status,
		Page:   repository.Page{Page: 2, PageSize: 2, SortBy: "dcl_no", Order: "asc"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, list, 2)
	assert.Equal(t, "DCL-002", list[0].DCLNo)

	search := "zenith 100%"
	list, total, err = repo.FindByFilter(&repository.ChecklistFilter{Search: &search})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "cl-x", list[0].ID)

	_, _, err = repo.FindByFilter(&repository.ChecklistFilter{Page: repository.Page{SortBy: "id; DROP TABLE checklists"}})
	assert.Error(t, err)
	_, _, err = repo.FindByFilter(&repository.ChecklistFilter{Page: repository.Page{SortBy: "created_by"}})
	assert.Error(t, err)
}

// TestChecklistRepository_UpdateStatus 测试状态更新
func TestChecklistRepository_UpdateStatus(t *testing.T) {
	db := setupTestDB(t)
	seedChecklist(t, db, "cl-1", "DCL-001", "Acme", "check_review", nil)
	repo := repository.NewChecklistRepository(db)

	done := time.Now().UTC()
	require.NoError(t, repo.UpdateStatus("cl-1", "approved", &done))

	cl, err := repo.FindByID("cl-1")
	require.NoError(t, err)
	assert.Equal(t, "approved", cl.Status)
	assert.NotNil(t, cl.CompletedAt)

	assert.ErrorIs(t, repo.UpdateStatus("missing", "approved", nil), gorm.ErrRecordNotFound)
}

// TestChecklistRepository_SLAAndCounts 测试 SLA 查询与状态统计
func TestChecklistRepository_SLAAndCounts(t *testing.T) {
	db := setupTestDB(t)
	now := time.Now().UTC()
	soon := now.Add(2 * time.Hour)
	later := now.Add(10 * 24 * time.Hour)
	seedChecklist(t, db, "cl-1", "DCL-001", "A", "check_review", &soon)
	seedChecklist(t, db, "cl-2", "DCL-002", "B", "check_review", &later)
	seedChecklist(t, db, "cl-3", "DCL-003", "C", "approved", &soon)
	repo := repository.NewChecklistRepository(db)

	due, err := repo.FindSLADue(now.Add(24*time.Hour), []string{"check_review", "co_checker_review"})
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "cl-1", due[0].ID)

	counts, err := repo.CountByStatus()
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts["check_review"])
	assert.Equal(t, int64(1), counts["approved"])
}
