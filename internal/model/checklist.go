package model

import (
	"errors"
	"time"
)

// ChecklistModel 延期清单数据模型
type ChecklistModel struct {
	ID             string     `gorm:"primaryKey;type:varchar(64)" json:"id"`
	DCLNo          string     `gorm:"type:varchar(64);not null;uniqueIndex" json:"dclNo"`
	CustomerName   string     `gorm:"type:varchar(255);not null" json:"customerName"`
	CustomerNumber string     `gorm:"type:varchar(64);index" json:"customerNumber"`
	LoanType       string     `gorm:"type:varchar(128)" json:"loanType"`
	Status         string     `gorm:"type:varchar(32);not null;index" json:"status"`
	RMID           string     `gorm:"type:varchar(64);index" json:"rmId"`
	CreatedBy      string     `gorm:"type:varchar(64);not null" json:"createdBy"`
	SLAExpiry      *time.Time `gorm:"index" json:"slaExpiry,omitempty"`
	CreatedAt      time.Time  `gorm:"not null;index" json:"createdAt"`
	UpdatedAt      time.Time  `gorm:"not null" json:"updatedAt"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`

	Documents []DocumentModel `gorm:"foreignKey:ChecklistID" json:"documents,omitempty"`
}

// TableName 指定表名
func (ChecklistModel) TableName() string {
	return "checklists"
}

// Validate 验证清单模型
func (m *ChecklistModel) Validate() error {
	if m.ID == "" {
		return errors.New("checklist ID is required")
	}
	if m.DCLNo == "" {
		return errors.New("dcl number is required")
	}
	if m.CustomerName == "" {
		return errors.New("customer name is required")
	}
	if m.Status == "" {
		return errors.New("status is required")
	}
	if m.CreatedBy == "" {
		return errors.New("creator is required")
	}
	return nil
}
