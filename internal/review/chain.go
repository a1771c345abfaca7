package review

import (
	"fmt"
	"strings"
	"time"
)

// ApprovalState 审批人展示状态
type ApprovalState string

const (
	ApprovalPending  ApprovalState = "pending"
	ApprovalCurrent  ApprovalState = "current"
	ApprovalApproved ApprovalState = "approved"
	ApprovalRejected ApprovalState = "rejected"
)

// Terminal 是否为终态
func (s ApprovalState) Terminal() bool {
	return s == ApprovalApproved || s == ApprovalRejected
}

// namedRef 上游嵌套的用户引用
type namedRef struct {
	Name string `json:"name"`
}

// RawApprover 上游审批人记录,兼容旧版布尔字段
type RawApprover struct {
	Role           string     `json:"role"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	User           *namedRef  `json:"user"`
	UserID         *namedRef  `json:"userId"`
	ApprovalStatus string     `json:"approvalStatus"`
	Approved       any        `json:"approved"`
	Rejected       any        `json:"rejected"`
	IsCurrent      bool       `json:"isCurrent"`
	ApprovalDate   *time.Time `json:"approvalDate"`
}

// ApproverView 规范化后的审批人
type ApproverView struct {
	Index        int           `json:"index"`
	Name         string        `json:"name"`
	Role         string        `json:"role"`
	State        ApprovalState `json:"state"`
	ApprovalDate *time.Time    `json:"approvalDate,omitempty"`
}

// Truthy 解析旧版布尔标记,接受 bool 或 "true" 字符串
func Truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return lower(t) == "true"
	default:
		return false
	}
}

// NormalizeApprover 将原始审批人记录转换为单一的带标签状态
// raw 可以是 RawApprover、*RawApprover、map[string]any 或纯字符串
func NormalizeApprover(raw any, index int) ApproverView {
	switch v := raw.(type) {
	case string:
		return ApproverView{Index: index, Name: v, Role: v, State: ApprovalPending}
	case *RawApprover:
		if v == nil {
			return ApproverView{Index: index, State: ApprovalPending}
		}
		return normalizeRawApprover(*v, index)
	case RawApprover:
		return normalizeRawApprover(v, index)
	case map[string]any:
		return normalizeRawApprover(approverFromMap(v), index)
	default:
		return ApproverView{Index: index, Name: fmt.Sprint(raw), State: ApprovalPending}
	}
}

func normalizeRawApprover(a RawApprover, index int) ApproverView {
	name := a.Name
	if name == "" && a.User != nil {
		name = a.User.Name
	}
	if name == "" && a.UserID != nil {
		name = a.UserID.Name
	}
	name = firstNonEmpty(name, a.Email, a.Role)

	status := lower(a.ApprovalStatus)
	state := ApprovalPending
	switch {
	case status == string(ApprovalApproved) || Truthy(a.Approved):
		state = ApprovalApproved
	case status == string(ApprovalRejected) || Truthy(a.Rejected):
		state = ApprovalRejected
	case a.IsCurrent:
		state = ApprovalCurrent
	}
	return ApproverView{
		Index:        index,
		Name:         name,
		Role:         a.Role,
		State:        state,
		ApprovalDate: a.ApprovalDate,
	}
}

func approverFromMap(m map[string]any) RawApprover {
	str := func(key string) string {
		if s, ok := m[key].(string); ok {
			return s
		}
		return ""
	}
	nested := func(key string) *namedRef {
		if sub, ok := m[key].(map[string]any); ok {
			if n, ok := sub["name"].(string); ok {
				return &namedRef{Name: n}
			}
		}
		return nil
	}
	current, _ := m["isCurrent"].(bool)
	return RawApprover{
		Role:           str("role"),
		Name:           str("name"),
		Email:          str("email"),
		User:           nested("user"),
		UserID:         nested("userId"),
		ApprovalStatus: str("approvalStatus"),
		Approved:       m["approved"],
		Rejected:       m["rejected"],
		IsCurrent:      current,
	}
}

// RenderChain 遍历审批人序列并推导每个审批人的展示状态
// currentIndex 为空时,第一个非终态的结构化审批人为当前审批人,纯字符串审批人保持 pending
func RenderChain(approvers []any, currentIndex *int) []ApproverView {
	views := make([]ApproverView, len(approvers))
	for i, raw := range approvers {
		views[i] = NormalizeApprover(raw, i)
	}

	if currentIndex != nil {
		idx := *currentIndex
		if idx >= 0 && idx < len(views) && !views[idx].State.Terminal() {
			views[idx].State = ApprovalCurrent
		}
		return views
	}

	for _, v := range views {
		if v.State == ApprovalCurrent {
			return views
		}
	}
	for i := range views {
		if _, plain := approvers[i].(string); plain {
			continue
		}
		if !views[i].State.Terminal() {
			views[i].State = ApprovalCurrent
			break
		}
	}
	return views
}

// AllApproved 所有审批人均已批准
func AllApproved(views []ApproverView) bool {
	if len(views) == 0 {
		return false
	}
	for _, v := range views {
		if v.State != ApprovalApproved {
			return false
		}
	}
	return true
}

// CreatorCardVisible 所有审批人通过后展示创建人卡片
func CreatorCardVisible(views []ApproverView) bool {
	return AllApproved(views)
}

// CheckerCardVisible 创建人批准后展示复核人卡片
func CheckerCardVisible(creatorApprovalStatus string) bool {
	return strings.EqualFold(strings.TrimSpace(creatorApprovalStatus), string(ApprovalApproved))
}
