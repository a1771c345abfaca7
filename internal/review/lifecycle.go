package review

import (
	"errors"
	"fmt"
	"sync"

	"github.com/anggasct/fluo"
)

// ErrInvalidTransition 非法的状态转换
var ErrInvalidTransition = errors.New("invalid checklist transition")

// Event 生命周期事件
type Event string

const (
	EventStartReview     Event = "start_review"
	EventSendToChecker   Event = "send_to_checker"
	EventSendToCoChecker Event = "send_to_co_checker"
	EventApprove         Event = "approve"
	EventReject          Event = "reject"
	EventReturnForRework Event = "return_for_rework"
	EventResubmit        Event = "resubmit"
	EventComplete        Event = "complete"
)

var (
	lifecycleOnce sync.Once
	lifecycleDef  fluo.MachineDefinition
)

// lifecycle 返回清单生命周期状态机定义
func lifecycle() fluo.MachineDefinition {
	lifecycleOnce.Do(func() {
		lifecycleDef = fluo.NewMachine().
			State(string(StatusPendingApproval)).Initial().
			To(string(StatusInReview)).On(string(EventStartReview)).
			State(string(StatusInReview)).
			To(string(StatusCheckReview)).On(string(EventSendToChecker)).
			To(string(StatusCoCheckerReview)).On(string(EventSendToCoChecker)).
			State(string(StatusCheckReview)).
			To(string(StatusApproved)).On(string(EventApprove)).
			To(string(StatusRejected)).On(string(EventReject)).
			To(string(StatusReturnedForRework)).On(string(EventReturnForRework)).
			State(string(StatusCoCheckerReview)).
			To(string(StatusApproved)).On(string(EventApprove)).
			To(string(StatusRejected)).On(string(EventReject)).
			To(string(StatusReturnedForRework)).On(string(EventReturnForRework)).
			State(string(StatusReturnedForRework)).
			To(string(StatusInReview)).On(string(EventResubmit)).
			State(string(StatusApproved)).
			To(string(StatusCompleted)).On(string(EventComplete)).
			State(string(StatusRejected)).Final().
			State(string(StatusCompleted)).Final().
			Build()
	})
	return lifecycleDef
}

// Transition 计算从 from 状态经 event 后的目标状态
func Transition(from ChecklistStatus, event Event) (ChecklistStatus, error) {
	machine := lifecycle().CreateInstance()
	if err := machine.Start(); err != nil {
		return "", err
	}
	if err := machine.SetState(string(from)); err != nil {
		return "", fmt.Errorf("%w: unknown state %q", ErrInvalidTransition, from)
	}

	result := machine.SendEvent(string(event), nil)
	if !result.Success() || !result.StateChanged {
		return "", fmt.Errorf("%w: %s on %s", ErrInvalidTransition, event, from)
	}
	return ChecklistStatus(result.CurrentState), nil
}

// EventForDecision 将提交动作映射为生命周期事件
func EventForDecision(action string) (Event, error) {
	switch lower(action) {
	case "approved", "approve":
		return EventApprove, nil
	case "rejected", "reject":
		return EventReject, nil
	case "returned_for_rework", "return_for_rework", "rework":
		return EventReturnForRework, nil
	default:
		return "", fmt.Errorf("%w: unsupported action %q", ErrInvalidTransition, action)
	}
}

// DecisionAction 复核决定事件对应的提交动作,非决定事件返回空字符串
func DecisionAction(event Event) string {
	switch event {
	case EventApprove:
		return "approved"
	case EventReject:
		return "rejected"
	case EventReturnForRework:
		return "returned_for_rework"
	default:
		return ""
	}
}

// IsTerminal 审批终态:approved 与 rejected,completed 为归档态
func (s ChecklistStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusCompleted
}
