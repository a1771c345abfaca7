package review

import (
	"fmt"
	"strings"
)

// GateCode 审批闸门阻断原因代码
type GateCode string

const (
	GateAllowed     GateCode = "allowed"
	GateNotInReview GateCode = "not_in_review"
	GateUnreviewed  GateCode = "unreviewed"
	GateRejected    GateCode = "rejected"
	GateNotApproved GateCode = "not_approved"
)

// GateResult 审批闸门结果
type GateResult struct {
	Allowed bool     `json:"allowed"`
	Code    GateCode `json:"code"`
	Reason  string   `json:"reason"`
}

// Evaluate 按顺序检查审批条件,返回第一个失败条件的原因
func Evaluate(summary Summary, total int, status ChecklistStatus, readOnly bool) GateResult {
	if readOnly || !status.Reviewable() {
		return GateResult{Code: GateNotInReview, Reason: "Checklist is not in review state"}
	}
	if summary.CheckerReviewed != total {
		return GateResult{
			Code:   GateUnreviewed,
			Reason: fmt.Sprintf("%d document(s) not reviewed yet", total-summary.CheckerReviewed),
		}
	}
	if summary.CheckerRejected > 0 {
		return GateResult{
			Code:   GateRejected,
			Reason: fmt.Sprintf("%d document(s) rejected", summary.CheckerRejected),
		}
	}
	if summary.CheckerApproved != total {
		return GateResult{
			Code:   GateNotApproved,
			Reason: fmt.Sprintf("%d document(s) not approved", total-summary.CheckerApproved),
		}
	}
	return GateResult{Allowed: true, Code: GateAllowed, Reason: "Approve this checklist"}
}

// CanApprove 是否允许审批清单
func CanApprove(summary Summary, total int, status ChecklistStatus, readOnly bool) bool {
	return Evaluate(summary, total, status, readOnly).Allowed
}

// ValidationError 提交前校验错误
type ValidationError struct {
	Code     string
	Messages []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, "; ")
}

// ActionApprove 审批动作
const ActionApprove = "approved"

// ValidateSubmission 在发送提交载荷之前校验审批动作
func ValidateSubmission(action string, summary Summary, total int) error {
	if lower(action) != ActionApprove {
		return nil
	}
	var msgs []string
	if summary.CheckerRejected > 0 {
		msgs = append(msgs, "Cannot approve checklist: Some documents are rejected")
	}
	if summary.CheckerReviewed != total {
		msgs = append(msgs, "Cannot approve checklist: Not all documents have been reviewed")
	}
	if summary.CheckerApproved != total {
		msgs = append(msgs, "Cannot approve checklist: All documents must be approved")
	}
	if len(msgs) == 0 {
		return nil
	}
	code := string(GateNotApproved)
	if summary.CheckerRejected > 0 {
		code = string(GateRejected)
	}
	return &ValidationError{Code: code, Messages: msgs}
}
