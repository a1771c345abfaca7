package model

import (
	"errors"
	"time"
)

// 延期申请状态
const (
	ExtensionPendingApproval   = "pending_approval"
	ExtensionInReview          = "in_review"
	ExtensionApproved          = "approved"
	ExtensionRejected          = "rejected"
	ExtensionReturnedForRework = "returned_for_rework"
)

// ExtensionModel 延期申请数据模型
type ExtensionModel struct {
	ID                    string     `gorm:"primaryKey;type:varchar(64)" json:"id"`
	DeferralNumber        string     `gorm:"type:varchar(64);not null;index" json:"deferralNumber"`
	DCLNumber             string     `gorm:"type:varchar(64);index" json:"dclNumber"`
	CustomerName          string     `gorm:"type:varchar(255)" json:"customerName"`
	LoanType              string     `gorm:"type:varchar(128)" json:"loanType"`
	CurrentDueDate        *time.Time `json:"currentDueDate,omitempty"`
	RequestedDaysSought   int        `gorm:"type:int;not null" json:"requestedDaysSought"`
	ExtensionReason       string     `gorm:"type:text;not null" json:"extensionReason"`
	Status                string     `gorm:"type:varchar(32);not null;index;default:'pending_approval'" json:"status"`
	CreatorApprovalStatus string     `gorm:"type:varchar(32);default:'pending'" json:"creatorApprovalStatus"`
	CheckerApprovalStatus string     `gorm:"type:varchar(32);default:'pending'" json:"checkerApprovalStatus"`
	CurrentApproverIndex  *int       `gorm:"type:int" json:"currentApproverIndex,omitempty"`
	CreatedBy             string     `gorm:"type:varchar(64);not null" json:"createdBy"`
	CreatedAt             time.Time  `gorm:"not null;index" json:"createdAt"`
	UpdatedAt             time.Time  `gorm:"not null" json:"updatedAt"`

	Approvers []ApproverModel `gorm:"foreignKey:ExtensionID" json:"approvers,omitempty"`
}

// TableName 指定表名
func (ExtensionModel) TableName() string {
	return "extensions"
}

// Validate 验证延期申请模型
func (m *ExtensionModel) Validate() error {
	if m.ID == "" {
		return errors.New("extension ID is required")
	}
	if m.DeferralNumber == "" {
		return errors.New("deferral number is required")
	}
	if m.RequestedDaysSought <= 0 {
		return errors.New("requested days must be positive")
	}
	if m.CreatedBy == "" {
		return errors.New("creator is required")
	}
	if m.Status == "" {
		m.Status = ExtensionPendingApproval
	}
	return nil
}

// ApproverModel 延期申请审批人,按 Position 排序
type ApproverModel struct {
	ID             string     `gorm:"primaryKey;type:varchar(64)" json:"id"`
	ExtensionID    string     `gorm:"type:varchar(64);not null;index" json:"extensionId"`
	Position       int        `gorm:"type:int;not null" json:"position"`
	Role           string     `gorm:"type:varchar(64);not null" json:"role"`
	UserID         string     `gorm:"type:varchar(64)" json:"userId"`
	Name           string     `gorm:"type:varchar(255)" json:"name"`
	Email          string     `gorm:"type:varchar(255)" json:"email"`
	ApprovalStatus string     `gorm:"type:varchar(32);default:'pending'" json:"approvalStatus"`
	IsCurrent      bool       `gorm:"default:false" json:"isCurrent"`
	Comment        string     `gorm:"type:text" json:"comment"`
	ApprovalDate   *time.Time `json:"approvalDate,omitempty"`
	// 旧版审批记录的布尔标记,保留原值
	ApprovedLegacy bool `gorm:"column:approved_legacy;default:false" json:"approved,omitempty"`
	RejectedLegacy bool `gorm:"column:rejected_legacy;default:false" json:"rejected,omitempty"`
}

// TableName 指定表名
func (ApproverModel) TableName() string {
	return "extension_approvers"
}

// Validate 验证审批人模型
func (m *ApproverModel) Validate() error {
	if m.ID == "" {
		return errors.New("approver ID is required")
	}
	if m.ExtensionID == "" {
		return errors.New("extension ID is required")
	}
	if m.Role == "" {
		return errors.New("approver role is required")
	}
	return nil
}
