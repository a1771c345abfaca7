package report

// A4 横向页面尺寸(mm)
const (
	PageWidth     = 297.0
	PageHeight    = 210.0
	MarginX       = 15.0
	MarginY       = 20.0
	ContentWidth  = PageWidth - 2*MarginX
	ContentHeight = PageHeight - 2*MarginY // 单页可用高度
)

// Paginate 按顺序将内容块分配到页面,块不跨页;超过一页高度的块独占一页
func Paginate(heights []float64, pageHeight float64) [][]int {
	pages := [][]int{{}}
	used := 0.0
	for i, h := range heights {
		current := len(pages) - 1
		if used > 0 && used+h > pageHeight {
			pages = append(pages, []int{})
			current++
			used = 0
		}
		pages[current] = append(pages[current], i)
		used += h
	}
	return pages
}
