package service

import "github.com/mautops/deferral-gin/internal/repository"

// PaginationInfo 分页信息
type PaginationInfo struct {
	Page      int
	PageSize  int
	Total     int64
	TotalPage int
}

// newPaginationInfo 根据规范化后的分页参数计算总页数
func newPaginationInfo(page repository.Page, total int64) PaginationInfo {
	page = page.Normalize()
	totalPage := int(total) / page.PageSize
	if int(total)%page.PageSize > 0 {
		totalPage++
	}
	return PaginationInfo{
		Page:      page.Page,
		PageSize:  page.PageSize,
		Total:     total,
		TotalPage: totalPage,
	}
}
