package metrics

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// StatusCounter 按状态统计数量
type StatusCounter interface {
	CountByStatus() (map[string]int64, error)
}

// Collector 指标收集器
type Collector struct {
	db         *gorm.DB
	checklists StatusCounter
	extensions StatusCounter
	interval   time.Duration
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewCollector 创建指标收集器
func NewCollector(db *gorm.DB, checklists, extensions StatusCounter, interval time.Duration) *Collector {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Collector{
		db:         db,
		checklists: checklists,
		extensions: extensions,
		interval:   interval,
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
}

// Start 启动指标收集器
func (c *Collector) Start() {
	go c.collect()
}

// Stop 停止指标收集器
func (c *Collector) Stop() {
	c.cancel()
	<-c.done
}

// CollectOnce 立即收集一次
func (c *Collector) CollectOnce() {
	_ = UpdateDatabaseConnections(c.db)
	if c.checklists != nil {
		if counts, err := c.checklists.CountByStatus(); err == nil {
			UpdateChecklistsByStatus(counts)
		}
	}
	if c.extensions != nil {
		if counts, err := c.extensions.CountByStatus(); err == nil {
			UpdateExtensionsByStatus(counts)
		}
	}
}

// collect 定期收集指标
func (c *Collector) collect() {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	defer close(c.done)

	c.CollectOnce()
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.CollectOnce()
		}
	}
}
