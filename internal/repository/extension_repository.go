package repository

import (
	"time"

	"github.com/mautops/deferral-gin/internal/model"
	"gorm.io/gorm"
)

// ExtensionRepository 延期申请仓储接口
type ExtensionRepository interface {
	Create(ext *model.ExtensionModel) error
	Save(ext *model.ExtensionModel) error
	FindByID(id string) (*model.ExtensionModel, error)
	FindByIDs(ids []string) ([]*model.ExtensionModel, error)
	FindByFilter(filter *ExtensionFilter) ([]*model.ExtensionModel, int64, error)
	SaveApprover(approver *model.ApproverModel) error
	FindDueBefore(before time.Time, statuses []string) ([]*model.ExtensionModel, error)
	CountByStatus() (map[string]int64, error)
}

// ExtensionFilter 延期申请查询过滤器
type ExtensionFilter struct {
	Status    *string
	CreatedBy *string
	Search    *string // 匹配延期编号、DCL 编号、客户名称、贷款类型
	Page      Page
}

var extensionSortable = map[string]bool{
	"created_at": true, "updated_at": true, "current_due_date": true, "requested_days_sought": true, "deferral_number": true,
}

type extensionRepository struct {
	db *gorm.DB
}

// NewExtensionRepository 创建延期申请仓储
func NewExtensionRepository(db *gorm.DB) ExtensionRepository {
	return &extensionRepository{db: db}
}

func preloadApprovers(db *gorm.DB) *gorm.DB {
	return db.Preload("Approvers", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") })
}

// Create 创建延期申请及其审批人
func (r *extensionRepository) Create(ext *model.ExtensionModel) error {
	return r.db.Create(ext).Error
}

// Save 保存延期申请(不含审批人)
func (r *extensionRepository) Save(ext *model.ExtensionModel) error {
	return r.db.Omit("Approvers").Save(ext).Error
}

func (r *extensionRepository) FindByID(id string) (*model.ExtensionModel, error) {
	var ext model.ExtensionModel
	if err := preloadApprovers(r.db).Where("id = ?", id).First(&ext).Error; err != nil {
		return nil, err
	}
	return &ext, nil
}

// FindByIDs 按给定 ID 顺序返回延期申请,缺失的 ID 被忽略
func (r *extensionRepository) FindByIDs(ids []string) ([]*model.ExtensionModel, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var found []*model.ExtensionModel
	if err := preloadApprovers(r.db).Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, err
	}
	byID := make(map[string]*model.ExtensionModel, len(found))
	for _, ext := range found {
		byID[ext.ID] = ext
	}
	out := make([]*model.ExtensionModel, 0, len(found))
	for _, id := range ids {
		if ext, ok := byID[id]; ok {
			out = append(out, ext)
		}
	}
	return out, nil
}

func (r *extensionRepository) FindByFilter(filter *ExtensionFilter) ([]*model.ExtensionModel, int64, error) {
	if filter == nil {
		filter = &ExtensionFilter{}
	}
	query := r.db.Model(&model.ExtensionModel{})
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.CreatedBy != nil {
		query = query.Where("created_by = ?", *filter.CreatedBy)
	}
	if filter.Search != nil && *filter.Search != "" {
		like := likePattern(*filter.Search)
		query = query.Where(
			"LOWER(deferral_number) LIKE ? ESCAPE '\\' OR LOWER(dcl_number) LIKE ? ESCAPE '\\' OR LOWER(customer_name) LIKE ? ESCAPE '\\' OR LOWER(loan_type) LIKE ? ESCAPE '\\'",
			like, like, like, like,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	paged, err := filter.Page.apply(query, extensionSortable)
	if err != nil {
		return nil, 0, err
	}
	var exts []*model.ExtensionModel
	if err := preloadApprovers(paged).Find(&exts).Error; err != nil {
		return nil, 0, err
	}
	return exts, total, nil
}

func (r *extensionRepository) SaveApprover(approver *model.ApproverModel) error {
	return r.db.Save(approver).Error
}

// FindDueBefore 查找到期日早于 before 的延期申请
func (r *extensionRepository) FindDueBefore(before time.Time, statuses []string) ([]*model.ExtensionModel, error) {
	var exts []*model.ExtensionModel
	err := r.db.
		Where("current_due_date IS NOT NULL AND current_due_date <= ?", before).
		Where("status IN ?", statuses).
		Order("current_due_date ASC").
		Find(&exts).Error
	return exts, err
}

// CountByStatus 按状态统计延期申请
func (r *extensionRepository) CountByStatus() (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	err := r.db.Model(&model.ExtensionModel{}).
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
