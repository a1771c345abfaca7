package review

import "time"

// CheckerDecision 单个文档的复核决定
type CheckerDecision struct {
	DocumentID     string `json:"documentId"`
	CheckerStatus  string `json:"checkerStatus"`
	CheckerComment string `json:"checkerComment"`
}

// SubmitPayload 清单复核提交载荷
type SubmitPayload struct {
	ID               string            `json:"id"`
	Action           string            `json:"action"`
	CheckerDecisions []CheckerDecision `json:"checkerDecisions"`
	CheckerComments  string            `json:"checkerComments"`
}

// BuildSubmitPayload 构建提交载荷,只有缺少复核状态的文档按动作取默认状态
func BuildSubmitPayload(id, action string, docs []Document, comments string) SubmitPayload {
	fallback := string(CheckerRejected)
	if lower(action) == ActionApprove {
		fallback = string(CheckerApproved)
	}

	decisions := make([]CheckerDecision, 0, len(docs))
	for _, d := range docs {
		status := string(d.CheckerStatus)
		if status == "" {
			status = fallback
		}
		decisions = append(decisions, CheckerDecision{
			DocumentID:     d.ID,
			CheckerStatus:  status,
			CheckerComment: d.CheckerComment,
		})
	}
	return SubmitPayload{
		ID:               id,
		Action:           action,
		CheckerDecisions: decisions,
		CheckerComments:  comments,
	}
}

// DraftDocument 草稿中的文档
type DraftDocument struct {
	ID             string     `json:"_id"`
	Name           string     `json:"name"`
	Category       string     `json:"category"`
	Status         string     `json:"status"`
	Action         string     `json:"action,omitempty"`
	CheckerStatus  string     `json:"checkerStatus"`
	CheckerComment string     `json:"checkerComment,omitempty"`
	Comment        string     `json:"comment,omitempty"`
	FileURL        string     `json:"fileUrl,omitempty"`
	ExpiryDate     *time.Time `json:"expiryDate,omitempty"`
	DeferralNo     string     `json:"deferralNo,omitempty"`
}

// DraftData 草稿内容
type DraftData struct {
	Documents      []DraftDocument `json:"documents"`
	CreatorComment string          `json:"creatorComment"`
}

// DraftPayload 草稿保存载荷
type DraftPayload struct {
	ChecklistID string    `json:"checklistId"`
	DraftData   DraftData `json:"draftData"`
}

// BuildDraftPayload 构建草稿载荷
func BuildDraftPayload(checklistID string, docs []Document, creatorComment string) DraftPayload {
	out := make([]DraftDocument, 0, len(docs))
	for _, d := range docs {
		out = append(out, DraftDocument{
			ID:             d.ID,
			Name:           d.Name,
			Category:       d.Category,
			Status:         string(d.Status),
			Action:         d.Action,
			CheckerStatus:  string(d.CheckerStatus),
			CheckerComment: d.CheckerComment,
			Comment:        d.Comment,
			FileURL:        d.FileURL,
			ExpiryDate:     d.ExpiryDate,
			DeferralNo:     d.DeferralNo,
		})
	}
	return DraftPayload{
		ChecklistID: checklistID,
		DraftData: DraftData{
			Documents:      out,
			CreatorComment: creatorComment,
		},
	}
}
