package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"
)

const (
	headerBlockHeight  = 30.0
	infoBlockHeight    = 28.0
	summaryBlockHeight = 24.0
	tableHeaderHeight  = 7.0
	rowHeight          = 6.0
	sectionTitleHeight = 8.0
	commentHeight      = 11.0
	footerReserve      = 10.0
)

// 表格列宽(mm),合计为 ContentWidth
var columnWidths = []float64{40, 67, 36, 32, 48, 26, 18}

var columnTitles = []string{"Category", "Document Name", "CO Status", "Checker Status", "CO Comment", "Expiry Date", "Validity"}

type rgb struct{ r, g, b int }

var (
	colorPrimary = rgb{22, 70, 121}
	colorMuted   = rgb{100, 116, 139}
	colorBorder  = rgb{226, 232, 240}
	colorSuccess = rgb{16, 185, 129}
	colorDanger  = rgb{220, 38, 38}
)

var roleColors = map[string]rgb{
	"purple":  {126, 100, 150},
	"green":   {21, 87, 36},
	"volcano": {114, 28, 36},
	"default": {102, 102, 102},
	"blue":    {0, 64, 133},
}

// PDFRenderer 输出 A4 横向分页 PDF
type PDFRenderer struct {
	Author string
}

// NewPDFRenderer 创建 PDF 渲染器
func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{Author: "deferral-gin"}
}

// ContentType 内容类型
func (r *PDFRenderer) ContentType() string {
	return "application/pdf"
}

type pdfBlock struct {
	height float64
	row    bool
	draw   func()
}

// Render 渲染 PDF
func (r *PDFRenderer) Render(w io.Writer, s Snapshot) error {
	pdf := fpdf.New("L", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Completed Checklist "+s.Info.DCLNo, true)
	pdf.SetAuthor(r.Author, true)
	pdf.SetMargins(MarginX, MarginY, MarginX)
	pdf.SetAutoPageBreak(false, MarginY)
	pdf.AliasNbPages("")

	footerStatus := s.FooterStatus()
	pdf.SetFooterFunc(func() {
		pdf.SetY(-MarginY + 6)
		pdf.SetFont("Helvetica", "", 8)
		setText(pdf, colorMuted)
		pdf.CellFormat(ContentWidth/2, 5, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "L", false, 0, "")
		pdf.CellFormat(ContentWidth/2, 5, tr(footerStatus), "", 0, "R", false, 0, "")
	})

	blocks := r.blocks(pdf, tr, s)
	heights := make([]float64, len(blocks))
	for i, b := range blocks {
		heights[i] = b.height
	}
	pages := Paginate(heights, ContentHeight-footerReserve-tableHeaderHeight)

	for p, idx := range pages {
		pdf.AddPage()
		for i, bi := range idx {
			if i == 0 && p > 0 && blocks[bi].row {
				drawTableHeader(pdf, tr)
			}
			blocks[bi].draw()
		}
	}

	if err := pdf.Error(); err != nil {
		return err
	}
	return pdf.Output(w)
}

func (r *PDFRenderer) blocks(pdf *fpdf.Fpdf, tr func(string) string, s Snapshot) []pdfBlock {
	blocks := []pdfBlock{
		{height: headerBlockHeight, draw: func() { drawHeader(pdf, tr, s) }},
		{height: infoBlockHeight, draw: func() { drawInfo(pdf, tr, s) }},
		{height: summaryBlockHeight, draw: func() { drawSummary(pdf, s) }},
		{height: sectionTitleHeight + tableHeaderHeight, draw: func() {
			drawSectionTitle(pdf, "Document Details")
			drawTableHeader(pdf, tr)
		}},
	}
	for _, row := range s.Rows {
		row := row
		blocks = append(blocks, pdfBlock{height: rowHeight, row: true, draw: func() { drawRow(pdf, tr, row) }})
	}
	if len(s.Comments) > 0 {
		blocks = append(blocks, pdfBlock{height: sectionTitleHeight, draw: func() {
			drawSectionTitle(pdf, "Comment Trail & History")
		}})
		for _, c := range s.Comments {
			c := c
			blocks = append(blocks, pdfBlock{height: commentHeight, draw: func() { drawComment(pdf, tr, c) }})
		}
	}
	return blocks
}

func setText(pdf *fpdf.Fpdf, c rgb) {
	pdf.SetTextColor(c.r, c.g, c.b)
}

func drawHeader(pdf *fpdf.Fpdf, tr func(string) string, s Snapshot) {
	setText(pdf, colorPrimary)
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(ContentWidth-60, 9, "Completed Checklist Review Report", "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	setText(pdf, colorMuted)
	pdf.CellFormat(60, 5, "Overall Status", "", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	setText(pdf, rgb{51, 51, 51})
	meta := fmt.Sprintf("DCL No: %s    Customer: %s    Completed: %s", s.Info.DCLNo, s.Info.CustomerNumber, s.CompletedText)
	pdf.CellFormat(ContentWidth-60, 7, tr(meta), "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(209, 250, 229)
	pdf.SetDrawColor(colorSuccess.r, colorSuccess.g, colorSuccess.b)
	setText(pdf, rgb{6, 95, 70})
	pdf.CellFormat(60, 8, tr(s.StatusLabel), "1", 1, "C", true, 0, "")

	if s.Completed {
		pdf.SetFont("Helvetica", "B", 8)
		pdf.SetFillColor(colorSuccess.r, colorSuccess.g, colorSuccess.b)
		pdf.SetTextColor(255, 255, 255)
		pdf.CellFormat(26, 5, "COMPLETED", "", 1, "C", true, 0, "")
	}

	pdf.SetDrawColor(colorPrimary.r, colorPrimary.g, colorPrimary.b)
	pdf.SetLineWidth(0.6)
	y := pdf.GetY() + 2
	pdf.Line(MarginX, y, MarginX+ContentWidth, y)
	pdf.SetLineWidth(0.2)
	pdf.SetY(y + 3)
}

func drawSectionTitle(pdf *fpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 11)
	setText(pdf, colorPrimary)
	pdf.CellFormat(ContentWidth, sectionTitleHeight-2, title, "", 1, "L", false, 0, "")
	pdf.Ln(1)
}

func drawInfo(pdf *fpdf.Fpdf, tr func(string) string, s Snapshot) {
	drawSectionTitle(pdf, "Checklist Information")
	items := [][2]string{
		{"Customer Number", s.Info.CustomerNumber},
		{"DCL Number", s.Info.DCLNo},
		{"IBPS Number", s.Info.IBPSNo},
		{"Loan Type", s.Info.LoanType},
		{"Created By", s.Info.CreatedBy},
		{"Relationship Manager", s.Info.RM},
		{"Co-Checker", s.Info.CoChecker},
		{"Status", s.StatusLabel},
	}
	colWidth := ContentWidth / 4
	for i := 0; i < len(items); i += 4 {
		x, y := pdf.GetX(), pdf.GetY()
		pdf.SetFont("Helvetica", "", 7)
		setText(pdf, colorMuted)
		for _, it := range items[i : i+4] {
			pdf.CellFormat(colWidth, 4, it[0], "", 0, "L", false, 0, "")
		}
		pdf.SetXY(x, y+4)
		pdf.SetFont("Helvetica", "B", 9)
		setText(pdf, rgb{51, 51, 51})
		for _, it := range items[i : i+4] {
			pdf.CellFormat(colWidth, 5, tr(it[1]), "", 0, "L", false, 0, "")
		}
		pdf.SetXY(x, y+10)
	}
}

func drawSummary(pdf *fpdf.Fpdf, s Snapshot) {
	drawSectionTitle(pdf, "Document Summary")
	cards := []struct {
		label string
		value int
	}{
		{"Total", s.Counts.Total},
		{"Approved", s.Counts.Approved},
		{"Submitted", s.Counts.Submitted},
		{"Deferred", s.Counts.Deferred},
		{"Sighted", s.Counts.Sighted},
		{"Waived", s.Counts.Waived},
		{"TBO", s.Counts.TBO},
		{"Pending", s.Counts.Pending},
		{"Completed", s.Counts.Completed},
		{"Reviewed", s.Reviewed},
	}
	width := ContentWidth / float64(len(cards))
	x, y := pdf.GetX(), pdf.GetY()
	pdf.SetDrawColor(colorBorder.r, colorBorder.g, colorBorder.b)
	pdf.SetFont("Helvetica", "", 7)
	setText(pdf, colorMuted)
	for _, c := range cards {
		pdf.CellFormat(width, 5, c.label, "LTR", 0, "C", false, 0, "")
	}
	pdf.SetXY(x, y+5)
	pdf.SetFont("Helvetica", "B", 12)
	setText(pdf, colorPrimary)
	for _, c := range cards {
		pdf.CellFormat(width, 8, fmt.Sprintf("%d", c.value), "LBR", 0, "C", false, 0, "")
	}
	pdf.SetXY(x, y+15)
}

func drawTableHeader(pdf *fpdf.Fpdf, tr func(string) string) {
	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetFillColor(colorPrimary.r, colorPrimary.g, colorPrimary.b)
	pdf.SetTextColor(255, 255, 255)
	for i, title := range columnTitles {
		pdf.CellFormat(columnWidths[i], tableHeaderHeight, tr(title), "", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)
}

func drawRow(pdf *fpdf.Fpdf, tr func(string) string, row Row) {
	pdf.SetDrawColor(colorBorder.r, colorBorder.g, colorBorder.b)
	cells := []string{row.Category, row.Name, row.CoStatusLabel, row.CheckerStatus, row.Comment, row.Expiry, string(row.Validity)}
	for i, text := range cells {
		style := ""
		switch i {
		case 0:
			style = "B"
			setText(pdf, colorPrimary)
		case 6:
			style = "B"
			switch row.Validity {
			case "EXPIRED":
				setText(pdf, colorDanger)
			case "CURRENT":
				setText(pdf, colorSuccess)
			default:
				setText(pdf, colorMuted)
			}
		default:
			setText(pdf, rgb{51, 51, 51})
		}
		pdf.SetFont("Helvetica", style, 8)
		pdf.CellFormat(columnWidths[i], rowHeight, tr(text), "B", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)
}

func drawComment(pdf *fpdf.Fpdf, tr func(string) string, c CommentRow) {
	pdf.SetFont("Helvetica", "B", 8)
	setText(pdf, colorPrimary)
	pdf.CellFormat(50, 4, tr(c.Author), "", 0, "L", false, 0, "")

	role, ok := roleColors[c.RoleColor]
	if !ok {
		role = roleColors["blue"]
	}
	pdf.SetFont("Helvetica", "B", 6)
	setText(pdf, role)
	pdf.CellFormat(30, 4, tr(strings.ToUpper(c.RoleLabel)), "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	setText(pdf, colorMuted)
	pdf.CellFormat(ContentWidth-80, 4, c.Time, "", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	setText(pdf, rgb{51, 51, 51})
	pdf.CellFormat(ContentWidth, 5, tr(truncateText(c.Message, 160)), "B", 1, "L", false, 0, "")
	pdf.Ln(2)
}
