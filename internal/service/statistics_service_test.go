package service

import (
	"testing"
	"time"

	"github.com/mautops/deferral-gin/internal/model"
	"github.com/mautops/deferral-gin/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestStatisticsService_Dashboard 测试仪表盘汇总
func TestStatisticsService_Dashboard(t *testing.T) {
	db := setupTestDB(t)
	now := time.Now()
	seedSLA(t, db, now)

	decisions := repository.NewReviewDecisionRepository(db)
	for i, d := range []string{"approved", "approved", "rejected"} {
		require.NoError(t, decisions.Save(&model.ReviewDecisionModel{
			ID: string(rune('a' + i)), ChecklistID: "expired", DocumentID: "d1",
			Reviewer: "checker-1", Decision: d, CreatedAt: now,
		}))
	}

	svc := NewStatisticsService(db)
	dash, err := svc.GetDashboard()
	require.NoError(t, err)

	counts := map[string]int64{}
	labels := map[string]string{}
	for _, s := range dash.Checklists {
		counts[s.Status] = s.Count
		labels[s.Status] = s.Label
	}
	assert.Equal(t, int64(2), counts["check_review"])
	assert.Equal(t, int64(1), counts["in_review"])
	assert.Equal(t, int64(1), counts["completed"])
	assert.Equal(t, "CHECK REVIEW", labels["check_review"])

	require.Len(t, dash.Extensions, 1)
	assert.Equal(t, "In Review", dash.Extensions[0].Label)

	assert.Equal(t, int64(3), dash.Reviews.TotalDecisions)
	assert.Equal(t, int64(2), dash.Reviews.ApprovedCount)
	assert.Equal(t, 66.67, dash.Reviews.ApprovalRate)

	assert.Equal(t, 1, dash.SLABreaches["checklist_expired"])
	assert.Equal(t, 1, dash.SLABreaches["extension_critical"])
}

// TestStatisticsService_ByTime 测试按日期统计
func TestStatisticsService_ByTime(t *testing.T) {
	db := setupTestDB(t)
	seedSLA(t, db, time.Now())

	stats, err := NewStatisticsService(db).GetChecklistStatisticsByTime()
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, int64(4), stats[0].Count)
}

// TestStatisticsService_EmptyReviews 测试无复核记录时通过率为 0
func TestStatisticsService_EmptyReviews(t *testing.T) {
	db := setupTestDB(t)

	stats, err := NewStatisticsService(db).GetReviewStatistics()
	require.NoError(t, err)
	assert.Zero(t, stats.TotalDecisions)
	assert.Zero(t, stats.ApprovalRate)
}
