package utils_test

import (
	"strings"
	"testing"

	"github.com/mautops/deferral-gin/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestValidateID 测试 ID 校验
func TestValidateID(t *testing.T) {
	assert.NoError(t, utils.ValidateID("cl-001_a"))
	assert.Equal(t, utils.ErrEmptyID, utils.ValidateID(""))
	assert.Equal(t, utils.ErrInvalidIDFormat, utils.ValidateID("cl/../etc"))
	assert.Equal(t, utils.ErrIDTooLong, utils.ValidateID(strings.Repeat("a", 65)))
}

// TestValidateComment 测试评论校验与清理
func TestValidateComment(t *testing.T) {
	out, err := utils.ValidateComment("  Looks <b>good</b>  ", 100)
	require.NoError(t, err)
	assert.Equal(t, "Looks &lt;b&gt;good&lt;/b&gt;", out)

	_, err = utils.ValidateComment("<script>alert(1)</script>", 100)
	assert.Error(t, err)
	_, err = utils.ValidateComment("   ", 100)
	assert.Equal(t, utils.ErrEmptyString, err)
	_, err = utils.ValidateComment("abcdef", 5)
	assert.Equal(t, utils.ErrStringTooLong, err)
}

// TestTruncate 测试字符截断
func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", utils.Truncate("short", 10))
	assert.Equal(t, "abc...", utils.Truncate("abcdef", 3))
	assert.Equal(t, "文件名...", utils.Truncate("文件名称很长", 3))
}

// TestSortSafety 测试排序参数校验
func TestSortSafety(t *testing.T) {
	assert.NoError(t, utils.ValidateSortField("created_at"))
	assert.Error(t, utils.ValidateSortField("name; drop table x"))
	assert.Error(t, utils.ValidateSortField("1 OR 1"))
	assert.NoError(t, utils.ValidateSortOrder("asc"))
	assert.Error(t, utils.ValidateSortOrder("sideways"))
	assert.Equal(t, "DESC", utils.SanitizeSortOrder("weird"))
}

// TestDownloadToken 测试下载令牌哈希与校验
func TestDownloadToken(t *testing.T) {
	token, hash, err := utils.NewDownloadToken()
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.NotEqual(t, token, hash)

	assert.True(t, utils.VerifyDownloadToken(token, hash))
	assert.False(t, utils.VerifyDownloadToken("wrong", hash))
	assert.False(t, utils.VerifyDownloadToken("", hash))
}
