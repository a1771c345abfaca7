package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mautops/deferral-gin/internal/metrics"
	"github.com/mautops/deferral-gin/internal/model"
	"github.com/mautops/deferral-gin/internal/notify"
	"github.com/mautops/deferral-gin/internal/repository"
	"github.com/mautops/deferral-gin/internal/review"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// slaHorizon 倒计时进入 critical 的最大剩余时间
const slaHorizon = 48 * time.Hour

// 仍在流转中的清单与延期申请状态
var (
	activeChecklistStatuses = []string{
		string(review.StatusPendingApproval),
		string(review.StatusInReview),
		string(review.StatusCheckReview),
		string(review.StatusCoCheckerReview),
		string(review.StatusReturnedForRework),
	}
	activeExtensionStatuses = []string{
		model.ExtensionPendingApproval,
		model.ExtensionInReview,
		model.ExtensionReturnedForRework,
	}
)

// SLABreach 单条 SLA 告警
type SLABreach struct {
	Kind      string `json:"kind"` // checklist 或 extension
	ID        string `json:"id"`
	Reference string `json:"reference"` // DCL 编号或延期编号
	Status    string `json:"status"`
	Label     string `json:"label"`
	Expired   bool   `json:"expired"`
}

// SLABreachReport 一次扫描的结果
type SLABreachReport struct {
	Checklists []SLABreach `json:"checklists"`
	Extensions []SLABreach `json:"extensions"`
}

// Counts 按类型与严重程度统计
func (r *SLABreachReport) Counts() map[string]int {
	counts := map[string]int{
		"checklist_expired":  0,
		"checklist_critical": 0,
		"extension_expired":  0,
		"extension_critical": 0,
	}
	for _, b := range append(append([]SLABreach{}, r.Checklists...), r.Extensions...) {
		key := b.Kind + "_critical"
		if b.Expired {
			key = b.Kind + "_expired"
		}
		counts[key]++
	}
	return counts
}

// findBreaches 查找 SLA 处于 critical 或已过期的清单与延期申请
func findBreaches(checklists repository.ChecklistRepository, extensions repository.ExtensionRepository, now time.Time) (*SLABreachReport, error) {
	report := &SLABreachReport{}

	due, err := checklists.FindSLADue(now.Add(slaHorizon), activeChecklistStatuses)
	if err != nil {
		return nil, fmt.Errorf("failed to find checklists due: %w", err)
	}
	for _, c := range due {
		sla := review.Countdown(c.SLAExpiry, now)
		if sla.Severity != review.SeverityCritical {
			continue
		}
		report.Checklists = append(report.Checklists, SLABreach{
			Kind:      "checklist",
			ID:        c.ID,
			Reference: c.DCLNo,
			Status:    c.Status,
			Label:     sla.Label,
			Expired:   sla.Expired,
		})
	}

	exts, err := extensions.FindDueBefore(now.Add(slaHorizon), activeExtensionStatuses)
	if err != nil {
		return nil, fmt.Errorf("failed to find extensions due: %w", err)
	}
	for _, e := range exts {
		sla := review.Countdown(e.CurrentDueDate, now)
		if sla.Severity != review.SeverityCritical {
			continue
		}
		report.Extensions = append(report.Extensions, SLABreach{
			Kind:      "extension",
			ID:        e.ID,
			Reference: e.DeferralNumber,
			Status:    e.Status,
			Label:     sla.Label,
			Expired:   sla.Expired,
		})
	}
	return report, nil
}

// SLAScheduleConfig SLA 扫描配置
type SLAScheduleConfig struct {
	Enabled  bool          // 是否启用周期扫描
	Interval time.Duration // 扫描间隔
}

// SLAScheduler 周期扫描 SLA,更新告警指标并发送 sla.breach 通知
type SLAScheduler struct {
	checklists repository.ChecklistRepository
	extensions repository.ExtensionRepository
	publisher  notify.Publisher
	config     *SLAScheduleConfig
	logger     *logrus.Logger
	now        func() time.Time

	mu       sync.Mutex
	notified map[string]bool // kind:id:expired,同一级别只通知一次

	stopChan chan struct{}
	stopOnce sync.Once
}

// NewSLAScheduler 创建 SLA 调度器
func NewSLAScheduler(db *gorm.DB, publisher notify.Publisher, config *SLAScheduleConfig, logger *logrus.Logger) *SLAScheduler {
	if config == nil {
		config = &SLAScheduleConfig{
			Enabled:  true,
			Interval: 5 * time.Minute,
		}
	}
	if config.Interval <= 0 {
		config.Interval = 5 * time.Minute
	}
	if publisher == nil {
		publisher = notify.NopPublisher{}
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &SLAScheduler{
		checklists: repository.NewChecklistRepository(db),
		extensions: repository.NewExtensionRepository(db),
		publisher:  publisher,
		config:     config,
		logger:     logger,
		now:        time.Now,
		notified:   make(map[string]bool),
		stopChan:   make(chan struct{}),
	}
}

// Start 启动 SLA 调度器
func (s *SLAScheduler) Start(ctx context.Context) error {
	if s.config.Enabled {
		go s.schedule(ctx)
	}
	return nil
}

// Stop 停止 SLA 调度器
func (s *SLAScheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
}

// Config 获取调度配置
func (s *SLAScheduler) Config() *SLAScheduleConfig {
	return s.config
}

func (s *SLAScheduler) schedule(ctx context.Context) {
	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	// 立即执行一次
	s.sweepAndLog(ctx)

	for {
		select {
		case <-ticker.C:
			s.sweepAndLog(ctx)
		case <-s.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *SLAScheduler) sweepAndLog(ctx context.Context) {
	if _, err := s.Sweep(ctx); err != nil {
		s.logger.WithError(err).Error("sla sweep failed")
	}
}

// Sweep 执行一次扫描(公开方法,用于测试)
func (s *SLAScheduler) Sweep(ctx context.Context) (*SLABreachReport, error) {
	report, err := findBreaches(s.checklists, s.extensions, s.now())
	if err != nil {
		return nil, err
	}

	for kind, n := range report.Counts() {
		metrics.SetSLABreaches(kind, n)
	}

	published := 0
	for _, b := range append(append([]SLABreach{}, report.Checklists...), report.Extensions...) {
		if !s.markNotified(b) {
			continue
		}
		err := s.publisher.Publish(ctx, notify.Event{
			Type:        notify.EventSLABreach,
			AggregateID: b.ID,
			Actor:       "system",
			Payload: map[string]interface{}{
				"kind":      b.Kind,
				"reference": b.Reference,
				"status":    b.Status,
				"label":     b.Label,
				"expired":   b.Expired,
			},
		})
		if err != nil {
			s.logger.WithError(err).WithField("aggregate_id", b.ID).Warn("failed to publish sla breach")
			s.unmarkNotified(b)
			continue
		}
		published++
	}

	s.logger.WithFields(logrus.Fields{
		"checklists": len(report.Checklists),
		"extensions": len(report.Extensions),
		"notified":   published,
	}).Debug("sla sweep finished")
	return report, nil
}

func breachKey(b SLABreach) string {
	return fmt.Sprintf("%s:%s:%t", b.Kind, b.ID, b.Expired)
}

// markNotified 首次出现该级别的告警时返回 true
func (s *SLAScheduler) markNotified(b SLABreach) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := breachKey(b)
	if s.notified[key] {
		return false
	}
	s.notified[key] = true
	return true
}

func (s *SLAScheduler) unmarkNotified(b SLABreach) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.notified, breachKey(b))
}
