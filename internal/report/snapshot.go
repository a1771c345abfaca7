package report

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mautops/deferral-gin/internal/review"
)

const (
	// DefaultCommentLimit 报告中保留的评论条数
	DefaultCommentLimit = 5
	nameMaxLen          = 35
	commentMaxLen       = 30
	filenameLayout      = "20060102_150405"
	commentTimeLayout   = "02 Jan 2006 15:04"
	completedLayout     = "02 Jan 2006, 15:04:05"
)

// ChecklistInfo 报告头部与信息栏
type ChecklistInfo struct {
	ID             string
	DCLNo          string
	CustomerName   string
	CustomerNumber string
	IBPSNo         string
	LoanType       string
	CreatedBy      string
	RM             string
	CoChecker      string
	Status         review.ChecklistStatus
	CompletedAt    *time.Time
}

// Comment 评论记录
type Comment struct {
	Author    string
	Role      string
	Message   string
	CreatedAt time.Time
}

// Counts 报告统计
type Counts struct {
	Total     int
	Submitted int
	Waived    int
	Deferred  int
	Sighted   int
	TBO       int
	PendingRM int
	PendingCo int
	Pending   int
	Approved  int
	Completed int
}

// Row 文档明细行
type Row struct {
	Category      string
	Name          string
	FullName      string
	CoStatus      string
	CoStatusLabel string
	CheckerStatus string
	Comment       string
	Expiry        string
	Validity      review.Validity
}

// CommentRow 评论展示行
type CommentRow struct {
	Author    string
	Initial   string
	Role      string
	RoleLabel string
	RoleColor string
	Message   string
	Time      string
}

// Snapshot 报告快照,渲染器只读取该结构
type Snapshot struct {
	Info          ChecklistInfo
	StatusLabel   string
	Completed     bool
	CompletedText string
	GeneratedAt   time.Time
	Counts        Counts
	Reviewed      int
	Rows          []Row
	Comments      []CommentRow
}

// Filename 导出文件名
func (s Snapshot) Filename() string {
	dcl := s.Info.DCLNo
	if dcl == "" {
		dcl = "N/A"
	}
	return fmt.Sprintf("Completed_Checklist_%s_%s.pdf", dcl, s.GeneratedAt.Format(filenameLayout))
}

// FooterStatus 页脚状态文本
func (s Snapshot) FooterStatus() string {
	return s.Info.Status.Label()
}

// BuildSnapshot 构建报告快照;已完成的清单复核状态一律展示为 approved,不修改数据
func BuildSnapshot(info ChecklistInfo, docs []review.Document, comments []Comment, commentLimit int, now time.Time) Snapshot {
	if commentLimit <= 0 {
		commentLimit = DefaultCommentLimit
	}
	completed := info.Status.IsCompleted()

	snap := Snapshot{
		Info:        withDefaults(info),
		StatusLabel: info.Status.Label(),
		Completed:   completed,
		GeneratedAt: now,
		Counts:      countDocuments(docs, completed),
		Rows:        make([]Row, 0, len(docs)),
	}
	snap.Reviewed = snap.Counts.Total
	if info.CompletedAt != nil {
		snap.CompletedText = info.CompletedAt.Format(completedLayout)
	} else {
		snap.CompletedText = "N/A"
	}

	for _, doc := range docs {
		snap.Rows = append(snap.Rows, buildRow(doc, completed, now))
	}
	snap.Comments = recentComments(comments, commentLimit)
	return snap
}

func withDefaults(info ChecklistInfo) ChecklistInfo {
	orNA := func(v, def string) string {
		if strings.TrimSpace(v) == "" {
			return def
		}
		return v
	}
	info.DCLNo = orNA(info.DCLNo, "N/A")
	info.CustomerNumber = orNA(info.CustomerNumber, "N/A")
	info.IBPSNo = orNA(info.IBPSNo, "Not provided")
	info.LoanType = orNA(info.LoanType, "N/A")
	info.CreatedBy = orNA(info.CreatedBy, "N/A")
	info.RM = orNA(info.RM, "N/A")
	info.CoChecker = orNA(info.CoChecker, "Pending")
	return info
}

// countDocuments 报告统计口径:普通 pending 按分类归入 RM 或 CO
func countDocuments(docs []review.Document, completed bool) Counts {
	c := Counts{Total: len(docs)}
	for _, doc := range docs {
		coStatus := string(doc.Status)
		checker := string(doc.CheckerStatus)

		switch review.DocStatus(coStatus) {
		case review.DocSubmitted:
			c.Submitted++
		case review.DocWaived:
			c.Waived++
		case review.DocDeferred:
			c.Deferred++
		case review.DocSighted:
			c.Sighted++
		case review.DocTBO:
			c.TBO++
		case review.DocPendingRM:
			c.PendingRM++
		case review.DocPendingCo:
			c.PendingCo++
		case review.DocPending:
			if strings.Contains(strings.ToLower(doc.Category), "rm") {
				c.PendingRM++
			} else {
				c.PendingCo++
			}
		}

		if coStatus == "approved" || checker == "approved" || completed {
			c.Approved++
		}
	}
	c.Pending = c.PendingRM + c.PendingCo
	c.Completed = c.Total - c.Pending
	return c
}

func buildRow(doc review.Document, completed bool, now time.Time) Row {
	coStatus := string(doc.Status)
	if coStatus == "" || doc.Status == review.DocUnknown {
		coStatus = "pending"
	}
	label := strings.ToUpper(coStatus)
	if doc.Status == review.DocDeferred && doc.DeferralNo != "" {
		label = fmt.Sprintf("Deferred (%s)", doc.DeferralNo)
	}

	checker := string(doc.CheckerStatus)
	if checker == "" || completed {
		checker = string(review.CheckerApproved)
	}

	category := doc.Category
	if category == "" {
		category = "N/A"
	}
	fullName := doc.Name
	if fullName == "" {
		fullName = "N/A"
	}
	comment := truncateText(doc.Comment, commentMaxLen)
	if comment == "" {
		comment = "—"
	}

	return Row{
		Category:      category,
		Name:          truncateText(fullName, nameMaxLen),
		FullName:      fullName,
		CoStatus:      coStatus,
		CoStatusLabel: label,
		CheckerStatus: strings.ToUpper(checker),
		Comment:       comment,
		Expiry:        review.FormatDisplayDate(doc.ExpiryDate),
		Validity:      review.ExpiryValidity(doc.Category, doc.ExpiryDate, now),
	}
}

// truncateText 截断后总长度不超过 max(含省略号)
func truncateText(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max-3]) + "..."
}

// RoleColor 评论角色标签颜色
func RoleColor(role string) string {
	switch strings.ToLower(role) {
	case "rm":
		return "purple"
	case "creator":
		return "green"
	case "checker", "co_checker":
		return "volcano"
	case "system":
		return "default"
	default:
		return "blue"
	}
}

// recentComments 最近 limit 条评论,按时间倒序
func recentComments(comments []Comment, limit int) []CommentRow {
	sorted := make([]Comment, len(comments))
	copy(sorted, comments)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}

	rows := make([]CommentRow, 0, len(sorted))
	for _, c := range sorted {
		author := c.Author
		if author == "" {
			author = "System"
		}
		role := strings.ToLower(c.Role)
		if role == "" {
			role = "system"
		}
		initial, _ := utf8.DecodeRuneInString(author)
		rows = append(rows, CommentRow{
			Author:    author,
			Initial:   strings.ToUpper(string(initial)),
			Role:      role,
			RoleLabel: strings.ReplaceAll(role, "_", " "),
			RoleColor: RoleColor(role),
			Message:   c.Message,
			Time:      c.CreatedAt.Format(commentTimeLayout),
		})
	}
	return rows
}
