package model

import (
	"errors"
	"time"
)

// 事件投递状态
const (
	EventPending = "pending"
	EventSuccess = "success"
	EventFailed  = "failed"
)

// EventModel 通知事件(发件箱)
type EventModel struct {
	ID          string    `gorm:"primaryKey;type:varchar(64)"`
	AggregateID string    `gorm:"type:varchar(64);not null;index"` // 清单或延期申请 ID
	Type        string    `gorm:"type:varchar(64);not null;index"`
	Data        []byte    `gorm:"type:jsonb;not null"`
	Status      string    `gorm:"type:varchar(32);not null;default:'pending'"`
	RetryCount  int       `gorm:"type:int;default:0"`
	LastError   string    `gorm:"type:text"`
	CreatedAt   time.Time `gorm:"not null;index"`
	UpdatedAt   time.Time `gorm:"not null"`
}

// TableName 指定表名
func (EventModel) TableName() string {
	return "events"
}

// Validate 验证事件模型
func (m *EventModel) Validate() error {
	if m.ID == "" {
		return errors.New("event ID is required")
	}
	if m.AggregateID == "" {
		return errors.New("aggregate ID is required")
	}
	if m.Type == "" {
		return errors.New("event type is required")
	}
	if len(m.Data) == 0 {
		return errors.New("event data is required")
	}
	if m.Status == "" {
		m.Status = EventPending
	}
	return nil
}
