package repository

import (
	"gorm.io/gorm"

	"github.com/qs3c/novel_go_server/internal/model"
)

type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

func (r *ProjectRepository) Create(project *model.Project) error {
	return translateError(r.db.Create(project).Error)
}

func (r *ProjectRepository) GetByID(id string) (*model.Project, error) {
	var project model.Project
	err := r.db.Where("id = ?", id).First(&project).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &project, nil
}

// Delete 删除项目，连同默认风格、章节（及其任务）和项目私有风格
func (r *ProjectRepository) Delete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", id).Delete(&model.ProjectDefaultStyle{}).Error; err != nil {
			return translateError(err)
		}

		if _, err := deleteChapters(tx, "project_id = ?", id); err != nil {
			return err
		}

		styleIDs := tx.Model(&model.WritingStyle{}).Select("id").Where("project_id = ?", id)
		if err := tx.Where("style_id IN (?)", styleIDs).Delete(&model.ProjectDefaultStyle{}).Error; err != nil {
			return translateError(err)
		}
		if err := tx.Where("project_id = ?", id).Delete(&model.WritingStyle{}).Error; err != nil {
			return translateError(err)
		}

		result := tx.Where("id = ?", id).Delete(&model.Project{})
		if result.Error != nil {
			return translateError(result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
