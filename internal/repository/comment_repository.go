package repository

import (
	"github.com/mautops/deferral-gin/internal/model"
	"gorm.io/gorm"
)

// CommentRepository 评论仓储接口
type CommentRepository interface {
	Save(comment *model.CommentModel) error
	FindRecent(checklistID string, limit int) ([]*model.CommentModel, error)
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository 创建评论仓储
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Save(comment *model.CommentModel) error {
	return r.db.Save(comment).Error
}

// FindRecent 按时间倒序返回评论,limit <= 0 时返回全部
func (r *commentRepository) FindRecent(checklistID string, limit int) ([]*model.CommentModel, error) {
	var comments []*model.CommentModel
	query := r.db.Where("checklist_id = ?", checklistID).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&comments).Error
	return comments, err
}
