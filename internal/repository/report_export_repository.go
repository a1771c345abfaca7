package repository

import (
	"github.com/mautops/deferral-gin/internal/model"
	"gorm.io/gorm"
)

// ReportExportRepository 报告导出记录仓储接口
type ReportExportRepository interface {
	Save(export *model.ReportExportModel) error
	FindByID(id string) (*model.ReportExportModel, error)
	FindByChecklistID(checklistID string) ([]*model.ReportExportModel, error)
}

type reportExportRepository struct {
	db *gorm.DB
}

// NewReportExportRepository 创建导出记录仓储
func NewReportExportRepository(db *gorm.DB) ReportExportRepository {
	return &reportExportRepository{db: db}
}

func (r *reportExportRepository) Save(export *model.ReportExportModel) error {
	return r.db.Save(export).Error
}

func (r *reportExportRepository) FindByID(id string) (*model.ReportExportModel, error) {
	var export model.ReportExportModel
	if err := r.db.Where("id = ?", id).First(&export).Error; err != nil {
		return nil, err
	}
	return &export, nil
}

func (r *reportExportRepository) FindByChecklistID(checklistID string) ([]*model.ReportExportModel, error) {
	var exports []*model.ReportExportModel
	err := r.db.Where("checklist_id = ?", checklistID).Order("created_at DESC").Find(&exports).Error
	return exports, err
}
