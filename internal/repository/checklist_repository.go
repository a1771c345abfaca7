package repository

import (
	"time"

	"github.com/mautops/deferral-gin/internal/model"
	"gorm.io/gorm"
)

// ChecklistRepository 清单仓储接口
type ChecklistRepository interface {
	Save(checklist *model.ChecklistModel) error
	FindByID(id string) (*model.ChecklistModel, error)
	FindByFilter(filter *ChecklistFilter) ([]*model.ChecklistModel, int64, error)
	UpdateStatus(id, status string, completedAt *time.Time) error
	FindSLADue(before time.Time, statuses []string) ([]*model.ChecklistModel, error)
	CountByStatus() (map[string]int64, error)
}

// ChecklistFilter 清单查询过滤器
type ChecklistFilter struct {
	Status *string
	RMID   *string
	Search *string // 匹配 DCL 编号、客户名称、客户编号
	Page   Page
}

var checklistSortable = map[string]bool{
	"created_at": true, "updated_at": true, "sla_expiry": true, "dcl_no": true, "customer_name": true, "status": true,
}

// checklistRepository 清单仓储实现
type checklistRepository struct {
	db *gorm.DB
}

// NewChecklistRepository 创建清单仓储
func NewChecklistRepository(db *gorm.DB) ChecklistRepository {
	return &checklistRepository{db: db}
}

// Save 保存清单(不含文档)
func (r *checklistRepository) Save(checklist *model.ChecklistModel) error {
	return r.db.Omit("Documents").Save(checklist).Error
}

// FindByID 根据 ID 查找清单,文档按位置排序
func (r *checklistRepository) FindByID(id string) (*model.ChecklistModel, error) {
	var checklist model.ChecklistModel
	err := r.db.
		Preload("Documents", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("id = ?", id).
		First(&checklist).Error
	if err != nil {
		return nil, err
	}
	return &checklist, nil
}

// FindByFilter 根据过滤器分页查询清单
func (r *checklistRepository) FindByFilter(filter *ChecklistFilter) ([]*model.ChecklistModel, int64, error) {
	if filter == nil {
		filter = &ChecklistFilter{}
	}
	query := r.db.Model(&model.ChecklistModel{})
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.RMID != nil {
		query = query.Where("rm_id = ?", *filter.RMID)
	}
	if filter.Search != nil && *filter.Search != "" {
		like := likePattern(*filter.Search)
		query = query.Where(
			"LOWER(dcl_no) LIKE ? ESCAPE '\\' OR LOWER(customer_name) LIKE ? ESCAPE '\\' OR LOWER(customer_number) LIKE ? ESCAPE '\\'",
			like, like, like,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	paged, err := filter.Page.apply(query, checklistSortable)
	if err != nil {
		return nil, 0, err
	}
	var checklists []*model.ChecklistModel
	if err := paged.Find(&checklists).Error; err != nil {
		return nil, 0, err
	}
	return checklists, total, nil
}

// UpdateStatus 更新清单状态
func (r *checklistRepository) UpdateStatus(id, status string, completedAt *time.Time) error {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}
	if completedAt != nil {
		updates["completed_at"] = *completedAt
	}
	res := r.db.Model(&model.ChecklistModel{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// FindSLADue 查找 SLA 在 before 之前到期且处于给定状态的清单
func (r *checklistRepository) FindSLADue(before time.Time, statuses []string) ([]*model.ChecklistModel, error) {
	var checklists []*model.ChecklistModel
	err := r.db.
		Where("sla_expiry IS NOT NULL AND sla_expiry <= ?", before).
		Where("status IN ?", statuses).
		Order("sla_expiry ASC").
		Find(&checklists).Error
	return checklists, err
}

// CountByStatus 按状态统计清单数量
func (r *checklistRepository) CountByStatus() (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	err := r.db.Model(&model.ChecklistModel{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}
