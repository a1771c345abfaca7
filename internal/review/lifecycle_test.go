package review_test

import (
	"testing"

	"github.com/mautops/deferral-gin/internal/review"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestTransition_Valid 测试合法的状态转换
func TestTransition_Valid(t *testing.T) {
	tests := []struct {
		from  review.ChecklistStatus
		event review.Event
		to    review.ChecklistStatus
	}{
		{review.StatusPendingApproval, review.EventStartReview, review.StatusInReview},
		{review.StatusInReview, review.EventSendToChecker, review.StatusCheckReview},
		{review.StatusInReview, review.EventSendToCoChecker, review.StatusCoCheckerReview},
		{review.StatusCheckReview, review.EventApprove, review.StatusApproved},
		{review.StatusCoCheckerReview, review.EventReject, review.StatusRejected},
		{review.StatusCoCheckerReview, review.EventReturnForRework, review.StatusReturnedForRework},
		{review.StatusReturnedForRework, review.EventResubmit, review.StatusInReview},
		{review.StatusApproved, review.EventComplete, review.StatusCompleted},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"/"+string(tt.event), func(t *testing.T) {
			to, err := review.Transition(tt.from, tt.event)
			require.NoError(t, err)
			assert.Equal(t, tt.to, to)
		})
	}
}

// TestTransition_Invalid 测试非法的状态转换
func TestTransition_Invalid(t *testing.T) {
	_, err := review.Transition(review.StatusRejected, review.EventResubmit)
	assert.ErrorIs(t, err, review.ErrInvalidTransition)

	_, err = review.Transition(review.StatusInReview, review.EventApprove)
	assert.ErrorIs(t, err, review.ErrInvalidTransition)

	_, err = review.Transition(review.StatusApproved, review.EventReject)
	assert.ErrorIs(t, err, review.ErrInvalidTransition)
}

// TestEventForDecision 测试提交动作映射
func TestEventForDecision(t *testing.T) {
	e, err := review.EventForDecision("Approved")
	require.NoError(t, err)
	assert.Equal(t, review.EventApprove, e)

	e, err = review.EventForDecision("returned_for_rework")
	require.NoError(t, err)
	assert.Equal(t, review.EventReturnForRework, e)

	_, err = review.EventForDecision("escalate")
	assert.ErrorIs(t, err, review.ErrInvalidTransition)
}

// TestParseChecklistStatus 测试状态解析
func TestParseChecklistStatus(t *testing.T) {
	s, err := review.ParseChecklistStatus(" CO_CHECKER_REVIEW ")
	require.NoError(t, err)
	assert.True(t, s.Reviewable())
	assert.Equal(t, "CO CHECKER REVIEW", s.Label())

	_, err = review.ParseChecklistStatus("archived")
	assert.ErrorIs(t, err, review.ErrUnknownStatus)

	assert.True(t, review.StatusApproved.IsTerminal())
	assert.False(t, review.StatusReturnedForRework.IsTerminal())
	assert.Equal(t, "Re-work", review.StatusLabel("returned_for_rework"))
	assert.Equal(t, "custom", review.StatusLabel("custom"))
}
