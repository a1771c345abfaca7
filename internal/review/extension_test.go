package review_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mautops/deferral-gin/internal/review"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestValidateExtensionRequest 测试延期表单校验
func TestValidateExtensionRequest(t *testing.T) {
	assert.NoError(t, review.ValidateExtensionRequest(review.ExtensionRequest{DaysToExtendBy: 30, Reason: "awaiting title deed"}))

	err := review.ValidateExtensionRequest(review.ExtensionRequest{DaysToExtendBy: 91, Reason: "short"})
	var verr *review.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"Days must be between 1 and 90", "Reason must be at least 10 characters"}, verr.Messages)

	err = review.ValidateExtensionRequest(review.ExtensionRequest{})
	require.True(t, errors.As(err, &verr))
	assert.True(t, strings.Contains(err.Error(), "Please enter number of days"))
	assert.True(t, strings.Contains(err.Error(), "Please provide a reason"))
}

// TestNextDueDate 测试到期日计算与格式化
func TestNextDueDate(t *testing.T) {
	due := time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)
	next := review.NextDueDate(due, review.DefaultExtensionDays)
	assert.Equal(t, "19 Feb 2025", review.FormatDisplayDate(&next))
	assert.Equal(t, "N/A", review.FormatDisplayDate(nil))
}

// TestMatchesSearch 测试搜索匹配
func TestMatchesSearch(t *testing.T) {
	f := review.SearchFields{DeferralNumber: "DEF-0042", DCLNumber: "DCL-77", CustomerName: "Acme Traders", LoanType: "Mortgage"}
	assert.True(t, review.MatchesSearch(f, ""))
	assert.True(t, review.MatchesSearch(f, "def-00"))
	assert.True(t, review.MatchesSearch(f, "ACME"))
	assert.True(t, review.MatchesSearch(f, "mort"))
	assert.False(t, review.MatchesSearch(f, "overdraft"))
}

// TestResolveFileURL 测试文件地址解析
func TestResolveFileURL(t *testing.T) {
	assert.Equal(t, "https://cdn.test/a.pdf", review.ResolveFileURL("http://files", "https://cdn.test/a.pdf"))
	assert.Equal(t, "blob:abc", review.ResolveFileURL("http://files", "blob:abc"))
	assert.Equal(t, "http://files/uploads/a.pdf", review.ResolveFileURL("http://files/", "uploads/a.pdf"))
	assert.Equal(t, "http://localhost:5000/uploads/a.pdf", review.ResolveFileURL("", "/uploads/a.pdf"))
	assert.Equal(t, "", review.ResolveFileURL("http://files", ""))
}
