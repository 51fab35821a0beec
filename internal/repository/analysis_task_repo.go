package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/novel_go_server/internal/model"
)

const defaultFailureMessage = "analysis failed"

type AnalysisTaskRepository struct {
	db *gorm.DB
}

func NewAnalysisTaskRepository(db *gorm.DB) *AnalysisTaskRepository {
	return &AnalysisTaskRepository{db: db}
}

func (r *AnalysisTaskRepository) Create(task *model.AnalysisTask) error {
	return translateError(r.db.Create(task).Error)
}

func (r *AnalysisTaskRepository) GetByID(id string) (*model.AnalysisTask, error) {
	var task model.AnalysisTask
	err := r.db.Where("id = ?", id).First(&task).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &task, nil
}

// GetLatestByChapter 获取章节最近一次分析任务
func (r *AnalysisTaskRepository) GetLatestByChapter(chapterID string) (*model.AnalysisTask, error) {
	var task model.AnalysisTask
	err := r.db.Where("chapter_id = ?", chapterID).Order("created_at DESC").First(&task).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &task, nil
}

// ListByChapter 按创建时间倒序列出章节的分析任务
func (r *AnalysisTaskRepository) ListByChapter(chapterID string, limit int) ([]*model.AnalysisTask, error) {
	var tasks []*model.AnalysisTask
	query := r.db.Where("chapter_id = ?", chapterID).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&tasks).Error; err != nil {
		return nil, translateError(err)
	}
	return tasks, nil
}

// ListByStatus 按创建时间正序扫描指定状态的任务
func (r *AnalysisTaskRepository) ListByStatus(statuses []model.TaskStatus, limit int) ([]*model.AnalysisTask, error) {
	var tasks []*model.AnalysisTask
	query := r.db.Where("status IN ?", statuses).Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&tasks).Error; err != nil {
		return nil, translateError(err)
	}
	return tasks, nil
}

// CountByStatus 统计各状态任务数量，没有任务的状态计为 0
func (r *AnalysisTaskRepository) CountByStatus() (map[model.TaskStatus]int64, error) {
	var rows []struct {
		Status model.TaskStatus
		Total  int64
	}
	err := r.db.Model(&model.AnalysisTask{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, translateError(err)
	}

	counts := make(map[model.TaskStatus]int64, len(model.AllTaskStatuses))
	for _, s := range model.AllTaskStatuses {
		counts[s] = 0
	}
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}

// HasActiveTask 章节是否存在 pending/running 任务
func (r *AnalysisTaskRepository) HasActiveTask(chapterID string) (bool, error) {
	var count int64
	err := r.db.Model(&model.AnalysisTask{}).
		Where("chapter_id = ? AND status IN ?", chapterID, model.ActiveTaskStatuses).
		Count(&count).Error
	if err != nil {
		return false, translateError(err)
	}
	return count > 0, nil
}

// MarkRunning pending -> running
func (r *AnalysisTaskRepository) MarkRunning(id string) error {
	return r.transition(id, model.TaskStatusPending, model.TaskStatusRunning, map[string]interface{}{
		"started_at": time.Now(),
		"progress":   model.MinProgress,
	})
}

// UpdateProgress 仅运行中的任务可以更新进度
func (r *AnalysisTaskRepository) UpdateProgress(id string, progress int) error {
	if err := model.ValidateProgress(progress); err != nil {
		return err
	}

	result := r.db.Model(&model.AnalysisTask{}).
		Where("id = ? AND status = ?", id, model.TaskStatusRunning).
		Update("progress", progress)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	// MySQL 在值未变化时返回 0 行
	task, err := r.GetByID(id)
	if err != nil {
		return err
	}
	if task.Status != model.TaskStatusRunning {
		return fmt.Errorf("%w: cannot update progress of %s task", ErrInvalidTransition, task.Status)
	}
	return nil
}

// MarkCompleted running -> completed
func (r *AnalysisTaskRepository) MarkCompleted(id string) error {
	return r.transition(id, model.TaskStatusRunning, model.TaskStatusCompleted, map[string]interface{}{
		"progress":      model.MaxProgress,
		"completed_at":  time.Now(),
		"error_message": nil,
	})
}

// MarkFailed running -> failed，记录错误信息
func (r *AnalysisTaskRepository) MarkFailed(id string, errMsg string) error {
	if errMsg == "" {
		errMsg = defaultFailureMessage
	}
	return r.transition(id, model.TaskStatusRunning, model.TaskStatusFailed, map[string]interface{}{
		"error_message": errMsg,
		"completed_at":  time.Now(),
	})
}

// ListStaleRunning 开始时间早于 before 仍在运行的任务
func (r *AnalysisTaskRepository) ListStaleRunning(before time.Time, limit int) ([]*model.AnalysisTask, error) {
	var tasks []*model.AnalysisTask
	err := r.db.Where("status = ? AND started_at < ?", model.TaskStatusRunning, before).
		Order("started_at ASC").
		Limit(limit).
		Find(&tasks).Error
	if err != nil {
		return nil, translateError(err)
	}
	return tasks, nil
}

// ListStalePending 创建时间早于 before 仍未开始的任务
func (r *AnalysisTaskRepository) ListStalePending(before time.Time, limit int) ([]*model.AnalysisTask, error) {
	var tasks []*model.AnalysisTask
	err := r.db.Where("status = ? AND created_at < ?", model.TaskStatusPending, before).
		Order("created_at ASC").
		Limit(limit).
		Find(&tasks).Error
	if err != nil {
		return nil, translateError(err)
	}
	return tasks, nil
}

// transition 条件更新，保证状态只能单向流转
func (r *AnalysisTaskRepository) transition(id string, from, to model.TaskStatus, fields map[string]interface{}) error {
	if !from.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}

	fields["status"] = to
	result := r.db.Model(&model.AnalysisTask{}).
		Where("id = ? AND status = ?", id, from).
		Updates(fields)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	task, err := r.GetByID(id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to load task %s: %w", id, err)
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, task.Status, to)
}
