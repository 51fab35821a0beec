package repository

import (
	"gorm.io/gorm"

	"github.com/qs3c/novel_go_server/internal/model"
)

type ChapterRepository struct {
	db *gorm.DB
}

func NewChapterRepository(db *gorm.DB) *ChapterRepository {
	return &ChapterRepository{db: db}
}

func (r *ChapterRepository) Create(chapter *model.Chapter) error {
	return translateError(r.db.Create(chapter).Error)
}

func (r *ChapterRepository) GetByID(id string) (*model.Chapter, error) {
	var chapter model.Chapter
	err := r.db.Where("id = ?", id).First(&chapter).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &chapter, nil
}

// GetByIDWithProject 同时加载所属项目
func (r *ChapterRepository) GetByIDWithProject(id string) (*model.Chapter, error) {
	var chapter model.Chapter
	err := r.db.Preload("Project").Where("id = ?", id).First(&chapter).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &chapter, nil
}

// Delete 删除章节及其分析任务
func (r *ChapterRepository) Delete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		deleted, err := deleteChapters(tx, "id = ?", id)
		if err != nil {
			return err
		}
		if deleted == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// deleteChapters 在事务内级联删除匹配条件的章节
func deleteChapters(tx *gorm.DB, query string, args ...interface{}) (int64, error) {
	sub := tx.Model(&model.Chapter{}).Select("id").Where(query, args...)
	if err := tx.Where("chapter_id IN (?)", sub).Delete(&model.AnalysisTask{}).Error; err != nil {
		return 0, translateError(err)
	}

	result := tx.Where(query, args...).Delete(&model.Chapter{})
	if result.Error != nil {
		return 0, translateError(result.Error)
	}
	return result.RowsAffected, nil
}
