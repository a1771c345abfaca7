package repository

import (
	"time"

	"github.com/mautops/deferral-gin/internal/model"
	"gorm.io/gorm"
)

// DocumentRepository 清单文档仓储接口
type DocumentRepository interface {
	SaveAll(docs []*model.DocumentModel) error
	FindByChecklistID(checklistID string) ([]*model.DocumentModel, error)
	FindByID(checklistID, documentID string) (*model.DocumentModel, error)
	UpdateDecision(checklistID, documentID, checkerStatus, comment string) error
	ApproveAll(checklistID string) error
}

// documentRepository 清单文档仓储实现
type documentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository 创建文档仓储
func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

// SaveAll 批量保存文档
func (r *documentRepository) SaveAll(docs []*model.DocumentModel) error {
	if len(docs) == 0 {
		return nil
	}
	return r.db.Save(docs).Error
}

// FindByChecklistID 查找清单的全部文档
func (r *documentRepository) FindByChecklistID(checklistID string) ([]*model.DocumentModel, error) {
	var docs []*model.DocumentModel
	err := r.db.Where("checklist_id = ?", checklistID).Order("position ASC").Find(&docs).Error
	return docs, err
}

// FindByID 查找清单中的单个文档
func (r *documentRepository) FindByID(checklistID, documentID string) (*model.DocumentModel, error) {
	var doc model.DocumentModel
	if err := r.db.Where("checklist_id = ? AND id = ?", checklistID, documentID).First(&doc).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

// UpdateDecision 写入复核人决定
func (r *documentRepository) UpdateDecision(checklistID, documentID, checkerStatus, comment string) error {
	res := r.db.Model(&model.DocumentModel{}).
		Where("checklist_id = ? AND id = ?", checklistID, documentID).
		Updates(map[string]interface{}{
			"checker_status":  checkerStatus,
			"checker_comment": comment,
			"approved":        checkerStatus == "approved",
			"updated_at":      time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ApproveAll 清单最终批准后持久化每个文档的批准状态,已驳回的文档保持不变
func (r *documentRepository) ApproveAll(checklistID string) error {
	return r.db.Model(&model.DocumentModel{}).
		Where("checklist_id = ? AND (checker_status IS NULL OR checker_status <> ?)", checklistID, "rejected").
		Updates(map[string]interface{}{
			"checker_status": "approved",
			"approved":       true,
			"updated_at":     time.Now(),
		}).Error
}
