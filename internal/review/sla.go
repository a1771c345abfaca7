package review

import (
	"fmt"
	"strings"
	"time"
)

// Severity 颜色等级
type Severity string

const (
	SeverityNeutral  Severity = "neutral"
	SeverityNormal   Severity = "normal"
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// SLAResult SLA 倒计时结果
type SLAResult struct {
	Severity  Severity `json:"severity"`
	Label     string   `json:"label"`
	DaysLeft  int      `json:"daysLeft"`
	HoursLeft int      `json:"hoursLeft"`
	Expired   bool     `json:"expired"`
}

// Countdown 计算目标日期相对 now 的倒计时,天数与小时数向零截断
// 检查顺序固定:小时级细化只在天数不为正时生效
func Countdown(target *time.Time, now time.Time) SLAResult {
	if target == nil || target.IsZero() {
		return SLAResult{Severity: SeverityNeutral, Label: "N/A"}
	}
	diff := target.Sub(now)
	days := int(diff / (24 * time.Hour))
	hours := int(diff / time.Hour)

	res := SLAResult{DaysLeft: days, HoursLeft: hours}
	switch {
	case days <= 0 && hours <= 0:
		res.Severity = SeverityCritical
		res.Label = "Expired"
		res.Expired = true
	case days <= 0:
		res.Severity = SeverityCritical
		res.Label = fmt.Sprintf("%dh", hours)
	case days <= 1:
		res.Severity = SeverityCritical
		res.Label = fmt.Sprintf("%dd", days)
	case days <= 3:
		res.Severity = SeverityWarning
		res.Label = fmt.Sprintf("%dd", days)
	default:
		res.Severity = SeverityNormal
		res.Label = fmt.Sprintf("%dd", days)
	}
	return res
}

// DaysSoughtSeverity 申请延期天数的颜色等级
func DaysSoughtSeverity(days int) Severity {
	switch {
	case days > 45:
		return SeverityCritical
	case days > 30:
		return SeverityWarning
	default:
		return SeverityInfo
	}
}

// Validity 文档有效性
type Validity string

const (
	ValidityNA      Validity = "N/A"
	ValidityCurrent Validity = "CURRENT"
	ValidityExpired Validity = "EXPIRED"
)

// ExpiryValidity 仅合规类文档计算有效性,早于今日零点视为过期
func ExpiryValidity(category string, expiry *time.Time, now time.Time) Validity {
	if expiry == nil || expiry.IsZero() {
		return ValidityNA
	}
	if !strings.Contains(strings.ToLower(category), "compliance") {
		return ValidityNA
	}
	startOfToday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if expiry.Before(startOfToday) {
		return ValidityExpired
	}
	return ValidityCurrent
}
