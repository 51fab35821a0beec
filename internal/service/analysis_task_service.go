package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/qs3c/novel_go_server/internal/model"
	"github.com/qs3c/novel_go_server/internal/model/dto"
	"github.com/qs3c/novel_go_server/internal/pkg/queue"
	"github.com/qs3c/novel_go_server/internal/repository"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// TaskQueue 任务队列
type TaskQueue interface {
	Push(ctx context.Context, msg *queue.TaskMessage) error
	Length(ctx context.Context) (int64, error)
}

type AnalysisTaskService struct {
	taskRepo    *repository.AnalysisTaskRepository
	chapterRepo *repository.ChapterRepository
	queue       TaskQueue
	log         *zap.Logger
}

// NewAnalysisTaskService q 为 nil 时只落库不入队，由 reaper 补偿
func NewAnalysisTaskService(
	taskRepo *repository.AnalysisTaskRepository,
	chapterRepo *repository.ChapterRepository,
	q TaskQueue,
	log *zap.Logger,
) *AnalysisTaskService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AnalysisTaskService{
		taskRepo:    taskRepo,
		chapterRepo: chapterRepo,
		queue:       q,
		log:         log.Named("analysis_task"),
	}
}

// Submit 为章节创建分析任务并入队
func (s *AnalysisTaskService) Submit(ctx context.Context, userID, chapterID string) (*dto.SubmitTaskResponse, error) {
	chapter, err := s.loadOwnedChapter(userID, chapterID)
	if err != nil {
		return nil, err
	}

	active, err := s.taskRepo.HasActiveTask(chapter.ID)
	if err != nil {
		return nil, err
	}
	if active {
		return nil, ErrTaskAlreadyActive
	}

	task := &model.AnalysisTask{
		ChapterID: chapter.ID,
		UserID:    userID,
		ProjectID: chapter.ProjectID,
		Status:    model.TaskStatusPending,
	}
	if err := s.taskRepo.Create(task); err != nil {
		return nil, err
	}

	resp := &dto.SubmitTaskResponse{
		TaskID: task.ID,
		Status: task.Status.String(),
	}

	if s.queue != nil {
		err := s.queue.Push(ctx, &queue.TaskMessage{
			TaskID:    task.ID,
			ChapterID: task.ChapterID,
			ProjectID: task.ProjectID,
			UserID:    task.UserID,
		})
		if err != nil {
			// 任务保持 pending，等待重新入队
			s.log.Warn("enqueue failed", zap.String("task_id", task.ID), zap.Error(err))
		} else {
			resp.Queued = true
		}
	}

	s.log.Info("task submitted",
		zap.String("task_id", task.ID),
		zap.String("chapter_id", chapter.ID),
		zap.String("user_id", userID),
	)
	return resp, nil
}

// Get 获取任务详情
func (s *AnalysisTaskService) Get(userID, taskID string) (*dto.AnalysisTaskDetail, error) {
	task, err := s.taskRepo.GetByID(taskID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}

	if task.UserID != userID {
		return nil, ErrPermissionDenied
	}

	return BuildTaskDetail(task), nil
}

// GetLatest 获取章节最近一次分析任务
func (s *AnalysisTaskService) GetLatest(userID, chapterID string) (*dto.AnalysisTaskDetail, error) {
	if _, err := s.loadOwnedChapter(userID, chapterID); err != nil {
		return nil, err
	}

	task, err := s.taskRepo.GetLatestByChapter(chapterID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	return BuildTaskDetail(task), nil
}

// ListByChapter 章节任务历史，最新在前
func (s *AnalysisTaskService) ListByChapter(userID, chapterID string, limit int) ([]*dto.AnalysisTaskDetail, error) {
	if _, err := s.loadOwnedChapter(userID, chapterID); err != nil {
		return nil, err
	}

	tasks, err := s.taskRepo.ListByChapter(chapterID, NormalizeLimit(limit))
	if err != nil {
		return nil, err
	}

	items := make([]*dto.AnalysisTaskDetail, len(tasks))
	for i, task := range tasks {
		items[i] = BuildTaskDetail(task)
	}
	return items, nil
}

// QueueStats 各状态任务数量与队列长度
func (s *AnalysisTaskService) QueueStats(ctx context.Context) (*dto.TaskStats, error) {
	counts, err := s.taskRepo.CountByStatus()
	if err != nil {
		return nil, err
	}

	stats := &dto.TaskStats{
		Pending:   counts[model.TaskStatusPending],
		Running:   counts[model.TaskStatusRunning],
		Completed: counts[model.TaskStatusCompleted],
		Failed:    counts[model.TaskStatusFailed],
	}

	if s.queue != nil {
		length, err := s.queue.Length(ctx)
		if err != nil {
			s.log.Warn("queue length unavailable", zap.Error(err))
		} else {
			stats.QueueLength = length
		}
	}
	return stats, nil
}

func (s *AnalysisTaskService) loadOwnedChapter(userID, chapterID string) (*model.Chapter, error) {
	chapter, err := s.chapterRepo.GetByIDWithProject(chapterID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrChapterNotFound
		}
		return nil, err
	}

	if chapter.Project == nil || chapter.Project.UserID != userID {
		return nil, ErrPermissionDenied
	}
	return chapter, nil
}

// NormalizeLimit 默认 20，上限 100
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

// BuildTaskDetail 转换为接口返回结构
func BuildTaskDetail(task *model.AnalysisTask) *dto.AnalysisTaskDetail {
	detail := &dto.AnalysisTaskDetail{
		ID:           task.ID,
		ChapterID:    task.ChapterID,
		ProjectID:    task.ProjectID,
		Status:       task.Status.String(),
		Progress:     task.Progress,
		ErrorMessage: task.ErrorMessage,
		CreatedAt:    task.CreatedAt.Format(time.RFC3339),
		DurationMs:   task.Duration().Milliseconds(),
	}
	if task.StartedAt != nil {
		startedAt := task.StartedAt.Format(time.RFC3339)
		detail.StartedAt = &startedAt
	}
	if task.CompletedAt != nil {
		completedAt := task.CompletedAt.Format(time.RFC3339)
		detail.CompletedAt = &completedAt
	}
	return detail
}
