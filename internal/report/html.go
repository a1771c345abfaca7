package report

import (
	"embed"
	"html/template"
	"io"
	"strings"
)

//go:embed templates/report.html.tmpl
var templateFS embed.FS

// Renderer 报告渲染器
type Renderer interface {
	Render(w io.Writer, s Snapshot) error
	ContentType() string
}

// statusColors 状态徽标配色: 背景, 文字, 边框
var statusColors = map[string][3]string{
	"submitted": {"#d1fae5", "#065f46", "#10b981"},
	"approved":  {"#d1fae5", "#065f46", "#10b981"},
	"pendingrm": {"#fef3c7", "#92400e", "#f59e0b"},
	"pendingco": {"#fef3c7", "#92400e", "#f59e0b"},
	"pending":   {"#fef3c7", "#92400e", "#f59e0b"},
	"waived":    {"#fef9c3", "#854d0e", "#eab308"},
	"sighted":   {"#dbeafe", "#1e40af", "#3b82f6"},
	"deferred":  {"#ede9fe", "#5b21b6", "#8b5cf6"},
	"tbo":       {"#cffafe", "#155e75", "#06b6d4"},
	"rejected":  {"#fee2e2", "#991b1b", "#ef4444"},
}

func statusStyle(status string) template.CSS {
	c, ok := statusColors[strings.ToLower(status)]
	if !ok {
		c = [3]string{"#f1f5f9", "#64748b", "#cbd5e1"}
	}
	return template.CSS("background: " + c[0] + "; color: " + c[1] + "; border-color: " + c[2] + ";")
}

// HTMLRenderer 输出带样式的 HTML 快照
type HTMLRenderer struct {
	tmpl *template.Template
}

// NewHTMLRenderer 解析内嵌模板
func NewHTMLRenderer() (*HTMLRenderer, error) {
	tmpl, err := template.New("report.html.tmpl").
		Funcs(template.FuncMap{"statusStyle": statusStyle}).
		ParseFS(templateFS, "templates/report.html.tmpl")
	if err != nil {
		return nil, err
	}
	return &HTMLRenderer{tmpl: tmpl}, nil
}

// Render 渲染 HTML
func (r *HTMLRenderer) Render(w io.Writer, s Snapshot) error {
	return r.tmpl.Execute(w, s)
}

// ContentType 内容类型
func (r *HTMLRenderer) ContentType() string {
	return "text/html; charset=utf-8"
}
