package repository_test

import (
	"testing"
	"time"

	"github.com/mautops/deferral-gin/internal/model"
	"github.com/mautops/deferral-gin/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newExtension(id, deferral, customer string, due time.Time) *model.ExtensionModel {
	now := time.Now().UTC()
	return &model.ExtensionModel{
		ID: id, DeferralNumber: deferral, DCLNumber: "DCL-" + id, CustomerName: customer, LoanType: "Mortgage",
		CurrentDueDate: &due, RequestedDaysSought: 30, ExtensionReason: "awaiting valuation report",
		Status: model.ExtensionPendingApproval, CreatedBy: "rm-1", CreatedAt: now, UpdatedAt: now,
		Approvers: []model.ApproverModel{
			{ID: id + "-a2", ExtensionID: id, Position: 1, Role: "Head of Credit"},
			{ID: id + "-a1", ExtensionID: id, Position: 0, Role: "RM", ApprovalStatus: "approved"},
		},
	}
}

// TestExtensionRepository_CreateAndFind 测试创建与审批人排序
func TestExtensionRepository_CreateAndFind(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewExtensionRepository(db)
	due := time.Now().UTC().Add(48 * time.Hour)
	require.NoError(t, repo.Create(newExtension("ext-1", "DEF-001", "Acme", due)))

	ext, err := repo.FindByID("ext-1")
	require.NoError(t, err)
	require.Len(t, ext.Approvers, 2)
	assert.Equal(t, "RM", ext.Approvers[0].Role)

	ext.Approvers[1].ApprovalStatus = "approved"
	require.NoError(t, repo.SaveApprover(&ext.Approvers[1]))
	ext.Status = model.ExtensionApproved
	require.NoError(t, repo.Save(ext))

	again, err := repo.FindByID("ext-1")
	require.NoError(t, err)
	assert.Equal(t, model.ExtensionApproved, again.Status)
	assert.Equal(t, "approved", again.Approvers[1].ApprovalStatus)
}

// TestExtensionRepository_Filter 测试搜索与状态过滤
func TestExtensionRepository_Filter(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewExtensionRepository(db)
	now := time.Now().UTC()
	require.NoError(t, repo.Create(newExtension("ext-1", "DEF-001", "Acme Traders", now.Add(time.Hour))))
	require.NoError(t, repo.Create(newExtension("ext-2", "DEF-002", "Blue Farms", now.Add(96*time.Hour))))

	q := "blue"
	list, total, err := repo.FindByFilter(&repository.ExtensionFilter{Search: &q})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "ext-2", list[0].ID)
	assert.Len(t, list[0].Approvers, 2)

	byIDs, err := repo.FindByIDs([]string{"ext-2", "missing", "ext-1"})
	require.NoError(t, err)
	require.Len(t, byIDs, 2)
	assert.Equal(t, "ext-2", byIDs[0].ID)

	due, err := repo.FindDueBefore(now.Add(24*time.Hour), []string{model.ExtensionPendingApproval})
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "ext-1", due[0].ID)

	counts, err := repo.CountByStatus()
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[model.ExtensionPendingApproval])
}
