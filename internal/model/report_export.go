package model

import (
	"errors"
	"time"
)

// ReportExportModel 报告导出记录
type ReportExportModel struct {
	ID          string    `gorm:"primaryKey;type:varchar(64)"`
	ChecklistID string    `gorm:"type:varchar(64);not null;index"`
	ObjectKey   string    `gorm:"type:varchar(512);not null"`
	Filename    string    `gorm:"type:varchar(255);not null"`
	TokenHash   string    `gorm:"type:varchar(128);not null"`
	SizeBytes   int64     `gorm:"type:bigint"`
	CreatedBy   string    `gorm:"type:varchar(64);not null"`
	CreatedAt   time.Time `gorm:"not null;index"`
}

// TableName 指定表名
func (ReportExportModel) TableName() string {
	return "report_exports"
}

// Validate 验证导出记录
func (m *ReportExportModel) Validate() error {
	if m.ID == "" {
		return errors.New("export ID is required")
	}
	if m.ChecklistID == "" {
		return errors.New("checklist ID is required")
	}
	if m.ObjectKey == "" || m.Filename == "" {
		return errors.New("object key and filename are required")
	}
	if m.TokenHash == "" {
		return errors.New("token hash is required")
	}
	return nil
}
