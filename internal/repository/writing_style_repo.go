package repository

import (
	"gorm.io/gorm"

	"github.com/qs3c/novel_go_server/internal/model"
)

type WritingStyleRepository struct {
	db *gorm.DB
}

func NewWritingStyleRepository(db *gorm.DB) *WritingStyleRepository {
	return &WritingStyleRepository{db: db}
}

func (r *WritingStyleRepository) Create(style *model.WritingStyle) error {
	return translateError(r.db.Create(style).Error)
}

func (r *WritingStyleRepository) GetByID(id int64) (*model.WritingStyle, error) {
	var style model.WritingStyle
	err := r.db.Where("id = ?", id).First(&style).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &style, nil
}

// ListAvailable 全局预设 + 项目私有风格
func (r *WritingStyleRepository) ListAvailable(projectID string) ([]*model.WritingStyle, error) {
	var styles []*model.WritingStyle
	err := r.db.Where("project_id IS NULL OR project_id = ?", projectID).
		Order("id ASC").
		Find(&styles).Error
	if err != nil {
		return nil, translateError(err)
	}
	return styles, nil
}

// Delete 删除风格及引用它的默认风格记录
func (r *WritingStyleRepository) Delete(id int64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("style_id = ?", id).Delete(&model.ProjectDefaultStyle{}).Error; err != nil {
			return translateError(err)
		}
		result := tx.Where("id = ?", id).Delete(&model.WritingStyle{})
		if result.Error != nil {
			return translateError(result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
