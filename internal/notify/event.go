package notify

import (
	"time"
)

// 事件类型
const (
	EventDocumentDecided  = "checklist.document_decided"
	EventChecklistSubmit  = "checklist.submitted"
	EventChecklistStatus  = "checklist.transitioned"
	EventDraftSaved       = "checklist.draft_saved"
	EventCommentAdded     = "checklist.comment_added"
	EventReportExported   = "checklist.report_exported"
	EventExtensionCreated = "extension.created"
	EventExtensionDecided = "extension.decided"
	EventSLABreach        = "sla.breach"
)

// Event 通知事件
type Event struct {
	ID          string                 `json:"id"`
	Type        string                 `json:"type"`
	AggregateID string                 `json:"aggregateId"`
	Actor       string                 `json:"actor,omitempty"`
	Payload     map[string]interface{} `json:"payload,omitempty"`
	OccurredAt  time.Time              `json:"occurredAt"`
}
