package utils

import (
	"html"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var idPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// SanitizeString 转义 HTML 并移除控制字符(保留换行与制表符)
func SanitizeString(input string) string {
	escaped := html.EscapeString(input)
	var b strings.Builder
	b.Grow(len(escaped))
	for _, r := range escaped {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ValidateID 验证资源 ID:非空、仅字母数字连字符下划线、最长 64
func ValidateID(id string) error {
	if id == "" {
		return ErrEmptyID
	}
	if len(id) > 64 {
		return ErrIDTooLong
	}
	if !idPattern.MatchString(id) {
		return ErrInvalidIDFormat
	}
	return nil
}

// ValidateComment 验证评论内容
func ValidateComment(text string, maxLen int) (string, error) {
	trimmed, err := TrimAndValidate(text, maxLen)
	if err != nil {
		return "", err
	}
	if containsDangerousChars(trimmed) {
		return "", ErrDangerousChars
	}
	return trimmed, nil
}

// containsDangerousChars 检查常见的脚本注入片段
func containsDangerousChars(s string) bool {
	patterns := []string{
		"<script",
		"javascript:",
		"onerror=",
		"onload=",
		"<iframe",
		"<svg",
	}
	lower := strings.ToLower(s)
	for _, p := range patterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// TrimAndValidate 去除首尾空白、校验长度并清理
func TrimAndValidate(s string, maxLen int) (string, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return "", ErrEmptyString
	}
	if maxLen > 0 && utf8.RuneCountInString(trimmed) > maxLen {
		return "", ErrStringTooLong
	}
	return SanitizeString(trimmed), nil
}

// Truncate 按字符截断,超长时追加 "..."
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max]) + "..."
}

// 错误定义
var (
	ErrDangerousChars  = &ValidationError{Code: "DANGEROUS_CHARS", Message: "text contains dangerous characters"}
	ErrEmptyID         = &ValidationError{Code: "EMPTY_ID", Message: "id cannot be empty"}
	ErrInvalidIDFormat = &ValidationError{Code: "INVALID_ID_FORMAT", Message: "id contains invalid characters"}
	ErrIDTooLong       = &ValidationError{Code: "ID_TOO_LONG", Message: "id exceeds maximum length"}
	ErrEmptyString     = &ValidationError{Code: "EMPTY_STRING", Message: "string cannot be empty"}
	ErrStringTooLong   = &ValidationError{Code: "STRING_TOO_LONG", Message: "string exceeds maximum length"}
)

// ValidationError 验证错误
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
