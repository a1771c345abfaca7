package repository

import (
	"time"

	"github.com/mautops/deferral-gin/internal/model"
	"gorm.io/gorm"
)

// EventRepository 事件仓储接口
type EventRepository interface {
	Save(event *model.EventModel) error
	FindByAggregateID(aggregateID string) ([]*model.EventModel, error)
	FindPending(limit int) ([]*model.EventModel, error)
	MarkDelivered(id string) error
	MarkFailed(id string, retryCount int, lastErr string) error
}

// eventRepository 事件仓储实现
type eventRepository struct {
	db *gorm.DB
}

// NewEventRepository 创建事件仓储
func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

// Save 保存事件
func (r *eventRepository) Save(event *model.EventModel) error {
	return r.db.Save(event).Error
}

// FindByAggregateID 查找某个清单或延期申请的事件
func (r *eventRepository) FindByAggregateID(aggregateID string) ([]*model.EventModel, error) {
	var events []*model.EventModel
	err := r.db.Where("aggregate_id = ?", aggregateID).Order("created_at ASC").Find(&events).Error
	return events, err
}

// FindPending 查找待投递的事件
func (r *eventRepository) FindPending(limit int) ([]*model.EventModel, error) {
	var events []*model.EventModel
	query := r.db.Where("status = ?", model.EventPending).Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&events).Error
	return events, err
}

// MarkDelivered 标记投递成功
func (r *eventRepository) MarkDelivered(id string) error {
	return r.db.Model(&model.EventModel{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":     model.EventSuccess,
		"last_error": "",
		"updated_at": time.Now(),
	}).Error
}

// MarkFailed 标记投递失败
func (r *eventRepository) MarkFailed(id string, retryCount int, lastErr string) error {
	return r.db.Model(&model.EventModel{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":      model.EventFailed,
		"retry_count": retryCount,
		"last_error":  lastErr,
		"updated_at":  time.Now(),
	}).Error
}
