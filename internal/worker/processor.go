package worker

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/qs3c/novel_go_server/internal/model"
	"github.com/qs3c/novel_go_server/internal/pkg/pubsub"
	"github.com/qs3c/novel_go_server/internal/pkg/queue"
	"github.com/qs3c/novel_go_server/internal/repository"
)

// ProgressPublisher 进度推送
type ProgressPublisher interface {
	PublishProgress(ctx context.Context, msg *pubsub.ProgressMessage) error
}

// Processor 任务处理器，每条任务只由抢到 pending -> running 的 worker 执行
type Processor struct {
	taskRepo    *repository.AnalysisTaskRepository
	chapterRepo *repository.ChapterRepository
	analyzer    Analyzer
	publisher   ProgressPublisher
	log         *zap.Logger
}

func NewProcessor(
	taskRepo *repository.AnalysisTaskRepository,
	chapterRepo *repository.ChapterRepository,
	analyzer Analyzer,
	publisher ProgressPublisher,
	log *zap.Logger,
) *Processor {
	if analyzer == nil {
		analyzer = NewTextAnalyzer()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Processor{
		taskRepo:    taskRepo,
		chapterRepo: chapterRepo,
		analyzer:    analyzer,
		publisher:   publisher,
		log:         log.Named("processor"),
	}
}

// Process 处理分析任务
func (p *Processor) Process(ctx context.Context, msg *queue.TaskMessage) error {
	log := p.log.With(zap.String("task_id", msg.TaskID))

	if err := p.taskRepo.MarkRunning(msg.TaskID); err != nil {
		// 重复消息或任务已被删除
		if errors.Is(err, repository.ErrInvalidTransition) || errors.Is(err, repository.ErrNotFound) {
			log.Info("skip task", zap.Error(err))
			return nil
		}
		return fmt.Errorf("failed to start task %s: %w", msg.TaskID, err)
	}

	task, err := p.taskRepo.GetByID(msg.TaskID)
	if err != nil {
		return p.fail(ctx, log, msg, fmt.Errorf("failed to load task: %w", err))
	}
	p.publish(ctx, task, model.TaskStatusRunning, pubsub.StepStarted, model.MinProgress, "")

	chapter, err := p.chapterRepo.GetByID(task.ChapterID)
	if err != nil {
		return p.fail(ctx, log, msg, fmt.Errorf("failed to load chapter: %w", err))
	}

	result, err := p.analyzer.Analyze(ctx, chapter, func(progress int) {
		progress = model.ClampProgress(progress)
		if err := p.taskRepo.UpdateProgress(task.ID, progress); err != nil {
			log.Warn("update progress failed", zap.Int("progress", progress), zap.Error(err))
			return
		}
		p.publish(ctx, task, model.TaskStatusRunning, pubsub.StepAnalyzing, progress, "")
	})
	if err != nil {
		// 停机中断：保持 running，由超时回收记录失败
		if ctx.Err() != nil {
			log.Warn("analysis interrupted", zap.Error(err))
			return ctx.Err()
		}
		return p.fail(ctx, log, msg, err)
	}

	if err := p.taskRepo.MarkCompleted(task.ID); err != nil {
		return fmt.Errorf("failed to complete task %s: %w", task.ID, err)
	}
	p.publish(context.WithoutCancel(ctx), task, model.TaskStatusCompleted, pubsub.StepDone, model.MaxProgress, "")

	log.Info("task completed",
		zap.String("chapter_id", task.ChapterID),
		zap.Int("paragraphs", result.Paragraphs),
		zap.Int("characters", result.Characters),
		zap.Int("dialogue_lines", result.DialogueLines),
	)
	return nil
}

// fail 记录失败原因并推送，返回原始错误
func (p *Processor) fail(ctx context.Context, log *zap.Logger, msg *queue.TaskMessage, cause error) error {
	if err := p.taskRepo.MarkFailed(msg.TaskID, cause.Error()); err != nil {
		log.Error("mark failed", zap.Error(err))
	}

	task := &model.AnalysisTask{ID: msg.TaskID, ChapterID: msg.ChapterID, UserID: msg.UserID}
	if current, err := p.taskRepo.GetByID(msg.TaskID); err == nil {
		task = current
	}
	p.publish(context.WithoutCancel(ctx), task, model.TaskStatusFailed, pubsub.StepFailed, task.Progress, cause.Error())

	log.Warn("task failed", zap.Error(cause))
	return cause
}

func (p *Processor) publish(ctx context.Context, task *model.AnalysisTask, status model.TaskStatus, step string, progress int, errMsg string) {
	if p.publisher == nil {
		return
	}

	err := p.publisher.PublishProgress(ctx, &pubsub.ProgressMessage{
		UserID:    task.UserID,
		TaskID:    task.ID,
		ChapterID: task.ChapterID,
		Status:    status.String(),
		Step:      step,
		Progress:  progress,
		Error:     errMsg,
	})
	if err != nil {
		p.log.Debug("publish progress failed", zap.String("task_id", task.ID), zap.Error(err))
	}
}
