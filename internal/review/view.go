package review

import "time"

// ChecklistView 清单复核视图
type ChecklistView struct {
	Status    ChecklistStatus `json:"status"`
	Documents []Document      `json:"documents"`
	Summary   Summary         `json:"summary"`
	Gate      GateResult      `json:"gate"`
	SLA       SLAResult       `json:"sla"`
	Disabled  bool            `json:"disabled"`
}

// BuildView 对文档汇总并计算审批闸门与 SLA
func BuildView(docs []Document, status ChecklistStatus, slaExpiry *time.Time, readOnly bool, now time.Time) ChecklistView {
	summary := Aggregate(docs)
	return ChecklistView{
		Status:    status,
		Documents: docs,
		Summary:   summary,
		Gate:      Evaluate(summary, len(docs), status, readOnly),
		SLA:       Countdown(slaExpiry, now),
		Disabled:  readOnly || !status.Reviewable(),
	}
}
