package service

import (
	"fmt"
	"time"

	"github.com/mautops/deferral-gin/internal/model"
	"github.com/mautops/deferral-gin/internal/repository"
	"github.com/mautops/deferral-gin/internal/review"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StatisticsService 统计服务接口
type StatisticsService interface {
	GetChecklistStatisticsByStatus() ([]*StatusStatistics, error)
	GetExtensionStatisticsByStatus() ([]*StatusStatistics, error)
	GetChecklistStatisticsByTime() ([]*TimeStatistics, error)
	GetReviewStatistics() (*ReviewStatistics, error)
	GetSLABreaches() (*SLABreachReport, error)
	GetDashboard() (*Dashboard, error)
}

// StatusStatistics 按状态统计
type StatusStatistics struct {
	Status string `json:"status"`
	Label  string `json:"label"`
	Count  int64  `json:"count"`
}

// TimeStatistics 按日期统计
type TimeStatistics struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// ReviewStatistics 文档复核统计
type ReviewStatistics struct {
	TotalDecisions int64   `json:"totalDecisions"`
	ApprovedCount  int64   `json:"approvedCount"`
	RejectedCount  int64   `json:"rejectedCount"`
	ApprovalRate   float64 `json:"approvalRate"` // 百分比,保留两位小数
}

// Dashboard 仪表盘汇总
type Dashboard struct {
	Checklists  []*StatusStatistics `json:"checklists"`
	Extensions  []*StatusStatistics `json:"extensions"`
	Reviews     *ReviewStatistics   `json:"reviews"`
	SLABreaches map[string]int      `json:"slaBreaches"`
}

// statisticsService 统计服务实现
type statisticsService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewStatisticsService 创建统计服务
func NewStatisticsService(db *gorm.DB) StatisticsService {
	return &statisticsService{db: db, now: time.Now}
}

// GetChecklistStatisticsByStatus 按状态统计清单
func (s *statisticsService) GetChecklistStatisticsByStatus() ([]*StatusStatistics, error) {
	stats, err := s.countByStatus(&model.ChecklistModel{})
	if err != nil {
		return nil, fmt.Errorf("failed to get checklist statistics by status: %w", err)
	}
	for _, st := range stats {
		st.Label = review.ChecklistStatus(st.Status).Label()
	}
	return stats, nil
}

// GetExtensionStatisticsByStatus 按状态统计延期申请
func (s *statisticsService) GetExtensionStatisticsByStatus() ([]*StatusStatistics, error) {
	stats, err := s.countByStatus(&model.ExtensionModel{})
	if err != nil {
		return nil, fmt.Errorf("failed to get extension statistics by status: %w", err)
	}
	for _, st := range stats {
		st.Label = review.StatusLabel(st.Status)
	}
	return stats, nil
}

func (s *statisticsService) countByStatus(m interface{}) ([]*StatusStatistics, error) {
	var results []struct {
		Status string
		Count  int64
	}

	err := s.db.Model(m).
		Select("status, COUNT(*) as count").
		Group("status").
		Order("status").
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	stats := make([]*StatusStatistics, 0, len(results))
	for _, r := range results {
		stats = append(stats, &StatusStatistics{Status: r.Status, Count: r.Count})
	}
	return stats, nil
}

// GetChecklistStatisticsByTime 按创建日期统计清单
func (s *statisticsService) GetChecklistStatisticsByTime() ([]*TimeStatistics, error) {
	var results []struct {
		Date  string
		Count int64
	}

	err := s.db.Model(&model.ChecklistModel{}).
		Select("DATE(created_at) as date, COUNT(*) as count").
		Group("DATE(created_at)").
		Order("date DESC").
		Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get checklist statistics by time: %w", err)
	}

	stats := make([]*TimeStatistics, 0, len(results))
	for _, r := range results {
		stats = append(stats, &TimeStatistics{Date: r.Date, Count: r.Count})
	}
	return stats, nil
}

// GetReviewStatistics 获取文档复核统计
func (s *statisticsService) GetReviewStatistics() (*ReviewStatistics, error) {
	var totalCount int64
	if err := s.db.Model(&model.ReviewDecisionModel{}).Count(&totalCount).Error; err != nil {
		return nil, fmt.Errorf("failed to count review decisions: %w", err)
	}

	var approvedCount int64
	err := s.db.Model(&model.ReviewDecisionModel{}).
		Where("decision = ?", string(review.CheckerApproved)).
		Count(&approvedCount).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count approved decisions: %w", err)
	}

	var rejectedCount int64
	err = s.db.Model(&model.ReviewDecisionModel{}).
		Where("decision = ?", string(review.CheckerRejected)).
		Count(&rejectedCount).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count rejected decisions: %w", err)
	}

	rate := 0.0
	if totalCount > 0 {
		rate = decimal.NewFromInt(approvedCount).
			Mul(decimal.NewFromInt(100)).
			Div(decimal.NewFromInt(totalCount)).
			Round(2).
			InexactFloat64()
	}

	return &ReviewStatistics{
		TotalDecisions: totalCount,
		ApprovedCount:  approvedCount,
		RejectedCount:  rejectedCount,
		ApprovalRate:   rate,
	}, nil
}

// GetSLABreaches 当前 SLA 告警
func (s *statisticsService) GetSLABreaches() (*SLABreachReport, error) {
	return findBreaches(
		repository.NewChecklistRepository(s.db),
		repository.NewExtensionRepository(s.db),
		s.now(),
	)
}

// GetDashboard 仪表盘:清单与延期申请的状态分布、复核统计与 SLA 告警数
func (s *statisticsService) GetDashboard() (*Dashboard, error) {
	checklists, err := s.GetChecklistStatisticsByStatus()
	if err != nil {
		return nil, err
	}
	extensions, err := s.GetExtensionStatisticsByStatus()
	if err != nil {
		return nil, err
	}
	reviews, err := s.GetReviewStatistics()
	if err != nil {
		return nil, err
	}
	breaches, err := s.GetSLABreaches()
	if err != nil {
		return nil, err
	}
	return &Dashboard{
		Checklists:  checklists,
		Extensions:  extensions,
		Reviews:     reviews,
		SLABreaches: breaches.Counts(),
	}, nil
}
