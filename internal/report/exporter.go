package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mautops/deferral-gin/internal/cache"
	"github.com/mautops/deferral-gin/internal/metrics"
	"github.com/mautops/deferral-gin/internal/storage"
	"github.com/sirupsen/logrus"
)

// ErrExportInProgress 同一清单的报告正在生成
var ErrExportInProgress = errors.New("report export already in progress")

// DefaultLockTTL 导出锁的默认有效期
const DefaultLockTTL = 2 * time.Minute

// Artifact 已存储的报告文件
type Artifact struct {
	Key         string
	Filename    string
	ContentType string
	Size        int
	GeneratedAt time.Time
}

// Exporter 渲染并存储报告,同一清单同时只允许一个导出
type Exporter struct {
	locker   cache.Locker
	store    storage.ReportStore
	renderer Renderer
	lockTTL  time.Duration
	logger   *logrus.Logger
}

// NewExporter 创建导出器
func NewExporter(locker cache.Locker, store storage.ReportStore, renderer Renderer, lockTTL time.Duration, logger *logrus.Logger) *Exporter {
	if lockTTL <= 0 {
		lockTTL = DefaultLockTTL
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Exporter{
		locker:   locker,
		store:    store,
		renderer: renderer,
		lockTTL:  lockTTL,
		logger:   logger,
	}
}

// Export 渲染快照并写入存储,锁在所有退出路径上释放
func (e *Exporter) Export(ctx context.Context, s Snapshot) (*Artifact, error) {
	release, ok, err := e.locker.Acquire(ctx, "report:"+s.Info.ID, e.lockTTL)
	if err != nil {
		metrics.RecordReportExport("failed", 0)
		return nil, fmt.Errorf("acquire export lock: %w", err)
	}
	if !ok {
		metrics.RecordReportExport("busy", 0)
		return nil, ErrExportInProgress
	}
	defer release()

	start := time.Now()
	log := e.logger.WithFields(logrus.Fields{
		"checklist_id": s.Info.ID,
		"dcl_no":       s.Info.DCLNo,
	})

	var buf bytes.Buffer
	if err := e.renderer.Render(&buf, s); err != nil {
		metrics.RecordReportExport("failed", time.Since(start).Seconds())
		log.WithError(err).Error("failed to render report")
		return nil, fmt.Errorf("render report: %w", err)
	}

	filename := s.Filename()
	key := storage.ObjectKey(s.Info.ID, filename)
	if err := e.store.Put(ctx, key, e.renderer.ContentType(), buf.Bytes()); err != nil {
		metrics.RecordReportExport("failed", time.Since(start).Seconds())
		log.WithError(err).Error("failed to store report")
		return nil, fmt.Errorf("store report: %w", err)
	}

	metrics.RecordReportExport("success", time.Since(start).Seconds())
	log.WithFields(logrus.Fields{
		"object_key": key,
		"size":       buf.Len(),
	}).Info("report exported")

	return &Artifact{
		Key:         key,
		Filename:    filename,
		ContentType: e.renderer.ContentType(),
		Size:        buf.Len(),
		GeneratedAt: s.GeneratedAt,
	}, nil
}
