package repository

import (
	"github.com/mautops/deferral-gin/internal/model"
	"gorm.io/gorm"
)

// ReviewDecisionRepository 复核决定仓储接口
type ReviewDecisionRepository interface {
	Save(decision *model.ReviewDecisionModel) error
	FindByChecklistID(checklistID string) ([]*model.ReviewDecisionModel, error)
}

type reviewDecisionRepository struct {
	db *gorm.DB
}

// NewReviewDecisionRepository 创建复核决定仓储
func NewReviewDecisionRepository(db *gorm.DB) ReviewDecisionRepository {
	return &reviewDecisionRepository{db: db}
}

func (r *reviewDecisionRepository) Save(decision *model.ReviewDecisionModel) error {
	return r.db.Save(decision).Error
}

// FindByChecklistID 按时间顺序返回清单的复核决定
func (r *reviewDecisionRepository) FindByChecklistID(checklistID string) ([]*model.ReviewDecisionModel, error) {
	var decisions []*model.ReviewDecisionModel
	err := r.db.Where("checklist_id = ?", checklistID).Order("created_at ASC").Find(&decisions).Error
	return decisions, err
}
