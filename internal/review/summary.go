package review

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Summary 文档状态汇总
type Summary struct {
	Total           int `json:"total"`
	Submitted       int `json:"submitted"`
	PendingFromRM   int `json:"pendingFromRM"`
	PendingFromCo   int `json:"pendingFromCo"`
	Deferred        int `json:"deferred"`
	Sighted         int `json:"sighted"`
	Waived          int `json:"waived"`
	TBO             int `json:"tbo"`
	CheckerReviewed int `json:"checkerReviewed"`
	CheckerPending  int `json:"checkerPending"`
	CheckerApproved int `json:"checkerApproved"`
	CheckerRejected int `json:"checkerRejected"`
	RMSubmitted     int `json:"rmSubmitted"`
	RMPending       int `json:"rmPending"`
	RMDeferred      int `json:"rmDeferred"`
	ProgressPercent int `json:"progressPercent"`
}

// Aggregate 汇总文档状态,纯函数
func Aggregate(docs []Document) Summary {
	s := Summary{Total: len(docs)}
	hasPendingCo := false

	for _, d := range docs {
		bucket := NormalizeDocStatus(string(d.Status), d.Action, d.CoStatus)
		switch bucket {
		case DocSubmitted:
			s.Submitted++
		case DocPendingRM:
			s.PendingFromRM++
		case DocPendingCo:
			s.PendingFromCo++
		case DocDeferred:
			s.Deferred++
		case DocSighted:
			s.Sighted++
		case DocWaived:
			s.Waived++
		case DocTBO:
			s.TBO++
		}
		if bucket == DocPendingCo || lower(string(d.Status)) == string(DocPendingCo) || lower(d.Action) == string(DocPendingCo) {
			hasPendingCo = true
		}

		checker := NormalizeCheckerStatus(string(d.CheckerStatus))
		if checker.Reviewed() {
			s.CheckerReviewed++
		}
		switch checker {
		case CheckerApproved:
			s.CheckerApproved++
		case CheckerRejected:
			s.CheckerRejected++
		}

		rm := lower(d.RMStatus)
		switch {
		case containsAny(rm, "submitted", "approved", "satisfactory"):
			s.RMSubmitted++
		case containsAny(rm, "pending", "awaiting"):
			s.RMPending++
		case containsAny(rm, "deferred", "returned"):
			s.RMDeferred++
		}
	}
	s.CheckerPending = s.Total - s.CheckerReviewed
	s.ProgressPercent = progressPercent(s.Submitted, s.Total, hasPendingCo)
	return s
}

func progressPercent(submitted, total int, hasPendingCo bool) int {
	if total == 0 {
		return 0
	}
	if !hasPendingCo {
		return 100
	}
	pct := decimal.NewFromInt(int64(submitted)).
		Div(decimal.NewFromInt(int64(total))).
		Mul(decimal.NewFromInt(100)).
		Round(0)
	return int(pct.IntPart())
}

func containsAny(s string, needles ...string) bool {
	if s == "" {
		return false
	}
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
