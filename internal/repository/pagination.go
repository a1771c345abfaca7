package repository

import (
	"fmt"
	"strings"

	"github.com/mautops/deferral-gin/internal/utils"
	"gorm.io/gorm"
)

// Page 分页与排序参数
type Page struct {
	Page     int
	PageSize int
	SortBy   string
	Order    string
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Normalize 填充默认分页参数
func (p Page) Normalize() Page {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = defaultPageSize
	}
	if p.PageSize > maxPageSize {
		p.PageSize = maxPageSize
	}
	if p.SortBy == "" {
		p.SortBy = "created_at"
	}
	if p.Order == "" {
		p.Order = "desc"
	}
	return p
}

// apply 校验排序字段并应用排序与分页
func (p Page) apply(query *gorm.DB, allowed map[string]bool) (*gorm.DB, error) {
	p = p.Normalize()
	if err := utils.ValidateSortField(p.SortBy); err != nil {
		return nil, fmt.Errorf("invalid sort field: %w", err)
	}
	if allowed != nil && !allowed[p.SortBy] {
		return nil, fmt.Errorf("invalid sort field: %s is not sortable", p.SortBy)
	}
	if err := utils.ValidateSortOrder(p.Order); err != nil {
		return nil, fmt.Errorf("invalid sort order: %w", err)
	}
	return query.
		Order(fmt.Sprintf("%s %s", p.SortBy, strings.ToUpper(p.Order))).
		Offset((p.Page - 1) * p.PageSize).
		Limit(p.PageSize), nil
}

// likePattern 构造大小写不敏感的 LIKE 模式
func likePattern(q string) string {
	q = strings.ToLower(strings.TrimSpace(q))
	q = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(q)
	return "%" + q + "%"
}
