package model

import (
	"errors"
	"time"
)

// DraftModel 清单草稿,每个清单只保留最新一份
type DraftModel struct {
	ChecklistID string    `gorm:"primaryKey;type:varchar(64)"`
	Data        []byte    `gorm:"type:jsonb;not null"` // 序列化后的草稿载荷
	SavedBy     string    `gorm:"type:varchar(64);not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

// TableName 指定表名
func (DraftModel) TableName() string {
	return "checklist_drafts"
}

// Validate 验证草稿模型
func (m *DraftModel) Validate() error {
	if m.ChecklistID == "" {
		return errors.New("checklist ID is required")
	}
	if len(m.Data) == 0 {
		return errors.New("draft data is required")
	}
	if m.SavedBy == "" {
		return errors.New("saved by is required")
	}
	return nil
}
