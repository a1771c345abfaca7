package model

import (
	"errors"
	"time"
)

// ReviewDecisionModel 复核人对单个文档的决定历史
type ReviewDecisionModel struct {
	ID          string    `gorm:"primaryKey;type:varchar(64)"`
	ChecklistID string    `gorm:"type:varchar(64);not null;index"`
	DocumentID  string    `gorm:"type:varchar(64);not null;index"`
	Reviewer    string    `gorm:"type:varchar(64);not null;index"`
	Decision    string    `gorm:"type:varchar(32);not null"` // approved/rejected
	Comment     string    `gorm:"type:text"`
	CreatedAt   time.Time `gorm:"not null;index"`
}

// TableName 指定表名
func (ReviewDecisionModel) TableName() string {
	return "review_decisions"
}

// Validate 验证复核决定
func (m *ReviewDecisionModel) Validate() error {
	if m.ID == "" {
		return errors.New("decision ID is required")
	}
	if m.ChecklistID == "" || m.DocumentID == "" {
		return errors.New("checklist and document are required")
	}
	if m.Reviewer == "" {
		return errors.New("reviewer is required")
	}
	if m.Decision != "approved" && m.Decision != "rejected" {
		return errors.New("decision must be approved or rejected")
	}
	return nil
}
