package model

import (
	"errors"
	"time"
)

// DocumentModel 清单文档数据模型
type DocumentModel struct {
	ID             string     `gorm:"primaryKey;type:varchar(64)" json:"_id"`
	ChecklistID    string     `gorm:"type:varchar(64);not null;index" json:"checklistId"`
	Position       int        `gorm:"type:int;default:0" json:"-"`
	Category       string     `gorm:"type:varchar(128);not null" json:"category"`
	Name           string     `gorm:"type:varchar(255);not null" json:"name"`
	Status         string     `gorm:"type:varchar(32)" json:"status"`
	Action         string     `gorm:"type:varchar(32)" json:"action"`
	CoStatus       string     `gorm:"type:varchar(32)" json:"coStatus"`
	RMStatus       string     `gorm:"type:varchar(64)" json:"rmStatus"`
	CheckerStatus  string     `gorm:"type:varchar(32);default:'pending'" json:"checkerStatus"`
	CheckerComment string     `gorm:"type:text" json:"checkerComment"`
	Comment        string     `gorm:"type:text" json:"comment"`
	FileURL        string     `gorm:"type:varchar(512)" json:"fileUrl"`
	ExpiryDate     *time.Time `json:"expiryDate,omitempty"`
	DeferralNo     string     `gorm:"type:varchar(64)" json:"deferralNo"`
	Approved       bool       `gorm:"default:false" json:"approved"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// TableName 指定表名
func (DocumentModel) TableName() string {
	return "checklist_documents"
}

// Validate 验证文档模型
func (m *DocumentModel) Validate() error {
	if m.ID == "" {
		return errors.New("document ID is required")
	}
	if m.ChecklistID == "" {
		return errors.New("checklist ID is required")
	}
	if m.Name == "" {
		return errors.New("document name is required")
	}
	return nil
}
