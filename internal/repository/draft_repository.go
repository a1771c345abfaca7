package repository

import (
	"github.com/mautops/deferral-gin/internal/model"
	"gorm.io/gorm"
)

// DraftRepository 草稿仓储接口
type DraftRepository interface {
	Upsert(draft *model.DraftModel) error
	FindByChecklistID(checklistID string) (*model.DraftModel, error)
}

type draftRepository struct {
	db *gorm.DB
}

// NewDraftRepository 创建草稿仓储
func NewDraftRepository(db *gorm.DB) DraftRepository {
	return &draftRepository{db: db}
}

// Upsert 以清单 ID 为主键覆盖保存
func (r *draftRepository) Upsert(draft *model.DraftModel) error {
	return r.db.Save(draft).Error
}

func (r *draftRepository) FindByChecklistID(checklistID string) (*model.DraftModel, error) {
	var draft model.DraftModel
	if err := r.db.Where("checklist_id = ?", checklistID).First(&draft).Error; err != nil {
		return nil, err
	}
	return &draft, nil
}
