package model

import (
	"errors"
	"time"
)

// CommentModel 清单评论
type CommentModel struct {
	ID          string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	ChecklistID string    `gorm:"type:varchar(64);not null;index" json:"checklistId"`
	Role        string    `gorm:"type:varchar(32);not null" json:"role"`
	Author      string    `gorm:"type:varchar(255);not null" json:"author"`
	Message     string    `gorm:"type:text;not null" json:"message"`
	CreatedAt   time.Time `gorm:"not null;index" json:"createdAt"`
}

// TableName 指定表名
func (CommentModel) TableName() string {
	return "checklist_comments"
}

// Validate 验证评论模型
func (m *CommentModel) Validate() error {
	if m.ID == "" {
		return errors.New("comment ID is required")
	}
	if m.ChecklistID == "" {
		return errors.New("checklist ID is required")
	}
	if m.Message == "" {
		return errors.New("comment message is required")
	}
	if m.Author == "" {
		return errors.New("comment author is required")
	}
	return nil
}
