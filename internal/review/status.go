package review

import (
	"errors"
	"strings"
)

// ErrUnknownStatus 未知的清单状态
var ErrUnknownStatus = errors.New("unknown checklist status")

// DocStatus 文档状态(规范化后的枚举)
type DocStatus string

const (
	DocSubmitted DocStatus = "submitted"
	DocPendingRM DocStatus = "pendingrm"
	DocPendingCo DocStatus = "pendingco"
	DocDeferred  DocStatus = "deferred"
	DocSighted   DocStatus = "sighted"
	DocWaived    DocStatus = "waived"
	DocTBO       DocStatus = "tbo"
	DocApproved  DocStatus = "approved"
	DocPending   DocStatus = "pending"
	DocUnknown   DocStatus = "unknown"
)

// bucketStatuses 参与汇总计数的状态
var bucketStatuses = map[DocStatus]bool{
	DocSubmitted: true,
	DocPendingRM: true,
	DocPendingCo: true,
	DocDeferred:  true,
	DocSighted:   true,
	DocWaived:    true,
	DocTBO:       true,
}

var knownDocStatuses = map[DocStatus]bool{
	DocSubmitted: true,
	DocPendingRM: true,
	DocPendingCo: true,
	DocDeferred:  true,
	DocSighted:   true,
	DocWaived:    true,
	DocTBO:       true,
	DocApproved:  true,
	DocPending:   true,
}

func lower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeDocStatus 按 status -> action -> coStatus 顺序选出第一个可识别的状态
func NormalizeDocStatus(status, action, coStatus string) DocStatus {
	for _, candidate := range []string{status, action, coStatus} {
		s := DocStatus(lower(candidate))
		if bucketStatuses[s] {
			return s
		}
	}
	for _, candidate := range []string{status, action, coStatus} {
		s := DocStatus(lower(candidate))
		if knownDocStatuses[s] {
			return s
		}
	}
	return DocUnknown
}

// CheckerStatus 复核人状态
type CheckerStatus string

const (
	CheckerPending     CheckerStatus = "pending"
	CheckerApproved    CheckerStatus = "approved"
	CheckerRejected    CheckerStatus = "rejected"
	CheckerNotReviewed CheckerStatus = "not_reviewed"
)

// NormalizeCheckerStatus 规范化复核人状态,缺省视为 pending
func NormalizeCheckerStatus(raw string) CheckerStatus {
	switch lower(raw) {
	case "", "pending":
		return CheckerPending
	case "approved":
		return CheckerApproved
	case "rejected":
		return CheckerRejected
	case "not reviewed", "not_reviewed":
		return CheckerNotReviewed
	default:
		return CheckerStatus(lower(raw))
	}
}

// Reviewed 是否已复核
func (s CheckerStatus) Reviewed() bool {
	return s != CheckerPending && s != CheckerNotReviewed && s != ""
}

// ChecklistStatus 清单生命周期状态
type ChecklistStatus string

const (
	StatusPendingApproval   ChecklistStatus = "pending_approval"
	StatusInReview          ChecklistStatus = "in_review"
	StatusCheckReview       ChecklistStatus = "check_review"
	StatusCoCheckerReview   ChecklistStatus = "co_checker_review"
	StatusApproved          ChecklistStatus = "approved"
	StatusRejected          ChecklistStatus = "rejected"
	StatusReturnedForRework ChecklistStatus = "returned_for_rework"
	StatusCompleted         ChecklistStatus = "completed"
)

var checklistStatuses = []ChecklistStatus{
	StatusPendingApproval,
	StatusInReview,
	StatusCheckReview,
	StatusCoCheckerReview,
	StatusApproved,
	StatusRejected,
	StatusReturnedForRework,
	StatusCompleted,
}

// ParseChecklistStatus 解析清单状态
func ParseChecklistStatus(raw string) (ChecklistStatus, error) {
	s := ChecklistStatus(lower(raw))
	for _, known := range checklistStatuses {
		if s == known {
			return s, nil
		}
	}
	return "", ErrUnknownStatus
}

// Reviewable 是否处于可审批状态
func (s ChecklistStatus) Reviewable() bool {
	return s == StatusCheckReview || s == StatusCoCheckerReview
}

// IsCompleted 已完成或已批准的清单在报告中按完成处理
func (s ChecklistStatus) IsCompleted() bool {
	return s == StatusCompleted || s == StatusApproved
}

// Label 状态展示文本:大写并以空格替换下划线
func (s ChecklistStatus) Label() string {
	return strings.ToUpper(strings.ReplaceAll(string(s), "_", " "))
}

var extensionStatusLabels = map[string]string{
	"pending_approval":    "Pending",
	"approved":            "Approved",
	"rejected":            "Rejected",
	"returned_for_rework": "Re-work",
	"in_review":           "In Review",
}

// StatusLabel 延期申请状态的展示标签
func StatusLabel(status string) string {
	if label, ok := extensionStatusLabels[lower(status)]; ok {
		return label
	}
	return status
}
