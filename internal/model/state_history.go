package model

import (
	"errors"
	"time"
)

// StateHistoryModel 清单状态变更历史
type StateHistoryModel struct {
	ID          string    `gorm:"primaryKey;type:varchar(64)"`
	ChecklistID string    `gorm:"type:varchar(64);not null;index"`
	FromState   string    `gorm:"type:varchar(32)"`
	ToState     string    `gorm:"type:varchar(32);not null"`
	Event       string    `gorm:"type:varchar(32);not null"`
	Reason      string    `gorm:"type:text"`
	Operator    string    `gorm:"type:varchar(64);not null"`
	CreatedAt   time.Time `gorm:"not null;index"`
}

// TableName 指定表名
func (StateHistoryModel) TableName() string {
	return "checklist_state_history"
}

// Validate 验证状态历史模型
func (m *StateHistoryModel) Validate() error {
	if m.ID == "" {
		return errors.New("history ID is required")
	}
	if m.ChecklistID == "" {
		return errors.New("checklist ID is required")
	}
	if m.ToState == "" {
		return errors.New("to state is required")
	}
	if m.Operator == "" {
		return errors.New("operator is required")
	}
	return nil
}
