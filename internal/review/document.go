package review

import (
	"strings"
	"time"
)

// Document 规范化后的清单文档
type Document struct {
	ID             string        `json:"id"`
	Category       string        `json:"category"`
	Name           string        `json:"name"`
	Status         DocStatus     `json:"status"`
	Action         string        `json:"action,omitempty"`
	CoStatus       string        `json:"coStatus,omitempty"`
	RMStatus       string        `json:"rmStatus,omitempty"`
	CheckerStatus  CheckerStatus `json:"checkerStatus"`
	CheckerComment string        `json:"checkerComment,omitempty"`
	Comment        string        `json:"comment,omitempty"`
	FileURL        string        `json:"fileUrl,omitempty"`
	ExpiryDate     *time.Time    `json:"expiryDate,omitempty"`
	DeferralNo     string        `json:"deferralNo,omitempty"`
}

// RawDocument 入库前的原始文档记录,字段命名沿用上游数据
type RawDocument struct {
	ID             string        `json:"_id"`
	Category       string        `json:"category"`
	Name           string        `json:"name"`
	Status         string        `json:"status"`
	Action         string        `json:"action"`
	CoStatus       string        `json:"coStatus"`
	RMStatus       string        `json:"rmStatus"`
	CheckerStatus  string        `json:"checkerStatus"`
	CheckerComment string        `json:"checkerComment"`
	Comment        string        `json:"comment"`
	FileURL        string        `json:"fileUrl"`
	ExpiryDate     *time.Time    `json:"expiryDate"`
	DeferralNo     string        `json:"deferralNo"`
	Approved       bool          `json:"approved"`
	DocList        []RawDocument `json:"docList"`
}

// FlattenOptions 展平选项
type FlattenOptions struct {
	ReadOnly        bool
	ChecklistStatus ChecklistStatus
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// Flatten 将嵌套的 docList 展开为文档列表,子文档始终使用父级分类,
// coStatus 取子文档自身的 status 或 action
func Flatten(raw []RawDocument, opts FlattenOptions) []Document {
	forceApproved := opts.ReadOnly || opts.ChecklistStatus == StatusApproved
	docs := make([]Document, 0, len(raw))

	for _, item := range raw {
		if len(item.DocList) > 0 {
			for _, child := range item.DocList {
				child.Category = item.Category
				child.CoStatus = firstNonEmpty(child.Status, child.Action, "pending")
				docs = append(docs, normalizeDocument(child, forceApproved))
			}
			continue
		}
		if item.Category == "" && item.Name == "" {
			continue
		}
		docs = append(docs, normalizeDocument(item, forceApproved))
	}
	return docs
}

func normalizeDocument(raw RawDocument, forceApproved bool) Document {
	checker := raw.CheckerStatus
	if checker == "" && raw.Approved {
		checker = string(CheckerApproved)
	}
	checkerStatus := NormalizeCheckerStatus(checker)
	if forceApproved {
		checkerStatus = CheckerApproved
	}

	status := firstNonEmpty(raw.Status, raw.Action, "pending")
	return Document{
		ID:             raw.ID,
		Category:       raw.Category,
		Name:           raw.Name,
		Status:         NormalizeDocStatus(status, raw.Action, raw.CoStatus),
		Action:         raw.Action,
		CoStatus:       firstNonEmpty(raw.CoStatus, raw.Status, raw.Action, "pending"),
		RMStatus:       raw.RMStatus,
		CheckerStatus:  checkerStatus,
		CheckerComment: raw.CheckerComment,
		Comment:        raw.Comment,
		FileURL:        raw.FileURL,
		ExpiryDate:     raw.ExpiryDate,
		DeferralNo:     raw.DeferralNo,
	}
}
