package model

import (
	"errors"
	"time"
)

// AuditLogModel 审计日志数据模型
type AuditLogModel struct {
	ID           string    `gorm:"primaryKey;type:varchar(64)"`
	UserID       string    `gorm:"type:varchar(64);not null;index"`
	Action       string    `gorm:"type:varchar(64);not null;index"` // submit/decide/transition/export/draft
	ResourceType string    `gorm:"type:varchar(32);not null"`      // checklist/extension/report
	ResourceID   string    `gorm:"type:varchar(64);not null;index"`
	RequestID    string    `gorm:"type:varchar(64);index"`
	IP           string    `gorm:"type:varchar(45)"`
	UserAgent    string    `gorm:"type:text"`
	Details      []byte    `gorm:"type:jsonb"`
	CreatedAt    time.Time `gorm:"not null;index"`
}

// TableName 指定表名
func (AuditLogModel) TableName() string {
	return "audit_logs"
}

// Validate 验证审计日志模型
func (m *AuditLogModel) Validate() error {
	switch {
	case m.ID == "":
		return errors.New("audit log ID is required")
	case m.UserID == "":
		return errors.New("user ID is required")
	case m.Action == "":
		return errors.New("action is required")
	case m.ResourceType == "":
		return errors.New("resource type is required")
	case m.ResourceID == "":
		return errors.New("resource ID is required")
	}
	return nil
}
