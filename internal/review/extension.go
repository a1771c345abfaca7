package review

import (
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// DefaultExtensionDays 默认延期天数
	DefaultExtensionDays = 30
	// MaxExtensionDays 最大延期天数
	MaxExtensionDays = 90
	// MinReasonLength 延期理由最小长度
	MinReasonLength = 10
	// DisplayDateLayout 展示日期格式
	DisplayDateLayout = "02 Jan 2006"
)

// ExtensionRequest 延期申请表单
type ExtensionRequest struct {
	DaysToExtendBy int    `json:"daysToExtendBy"`
	Reason         string `json:"reason"`
}

// ValidateExtensionRequest 校验延期申请表单
func ValidateExtensionRequest(req ExtensionRequest) error {
	var msgs []string
	switch {
	case req.DaysToExtendBy == 0:
		msgs = append(msgs, "Please enter number of days")
	case req.DaysToExtendBy < 1 || req.DaysToExtendBy > MaxExtensionDays:
		msgs = append(msgs, "Days must be between 1 and 90")
	}
	reason := strings.TrimSpace(req.Reason)
	switch {
	case reason == "":
		msgs = append(msgs, "Please provide a reason for extension")
	case utf8.RuneCountInString(reason) < MinReasonLength:
		msgs = append(msgs, "Reason must be at least 10 characters")
	}
	if len(msgs) > 0 {
		return &ValidationError{Code: "invalid_extension", Messages: msgs}
	}
	return nil
}

// NextDueDate 计算延期后的到期日
func NextDueDate(current time.Time, days int) time.Time {
	return current.AddDate(0, 0, days)
}

// FormatDisplayDate 按展示格式输出日期,空值输出 N/A
func FormatDisplayDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "N/A"
	}
	return t.Format(DisplayDateLayout)
}

// SearchFields 延期申请的可搜索字段
type SearchFields struct {
	DeferralNumber string
	DCLNumber      string
	CustomerName   string
	LoanType       string
}

// MatchesSearch 大小写不敏感的子串匹配,空查询匹配全部
func MatchesSearch(f SearchFields, query string) bool {
	q := lower(query)
	if q == "" {
		return true
	}
	for _, field := range []string{f.DeferralNumber, f.DCLNumber, f.CustomerName, f.LoanType} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}
