package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/qs3c/novel_go_server/internal/model"
)

type ProjectDefaultStyleRepository struct {
	db *gorm.DB
}

func NewProjectDefaultStyleRepository(db *gorm.DB) *ProjectDefaultStyleRepository {
	return &ProjectDefaultStyleRepository{db: db}
}

// Create 插入默认风格，同一项目重复插入返回 ErrDuplicate
func (r *ProjectDefaultStyleRepository) Create(pds *model.ProjectDefaultStyle) error {
	return translateError(r.db.Create(pds).Error)
}

func (r *ProjectDefaultStyleRepository) GetByProjectID(projectID string) (*model.ProjectDefaultStyle, error) {
	var pds model.ProjectDefaultStyle
	err := r.db.Preload("Style").Where("project_id = ?", projectID).First(&pds).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &pds, nil
}

// UpdateStyle 替换项目默认风格，updated_at 自动刷新
func (r *ProjectDefaultStyleRepository) UpdateStyle(projectID string, styleID int64) error {
	result := r.db.Model(&model.ProjectDefaultStyle{}).
		Where("project_id = ?", projectID).
		Update("style_id", styleID)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		_, err := r.GetByProjectID(projectID)
		return err
	}
	return nil
}

// Upsert 首次选择时创建，之后替换 style_id
func (r *ProjectDefaultStyleRepository) Upsert(projectID string, styleID int64) (*model.ProjectDefaultStyle, error) {
	pds := &model.ProjectDefaultStyle{
		ProjectID: projectID,
		StyleID:   styleID,
	}
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "project_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"style_id", "updated_at"}),
	}).Create(pds).Error
	if err != nil {
		return nil, translateError(err)
	}
	return r.GetByProjectID(projectID)
}

func (r *ProjectDefaultStyleRepository) DeleteByProjectID(projectID string) error {
	result := r.db.Where("project_id = ?", projectID).Delete(&model.ProjectDefaultStyle{})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
