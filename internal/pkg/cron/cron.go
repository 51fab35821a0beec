package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/qs3c/novel_go_server/config"
	"github.com/qs3c/novel_go_server/internal/pkg/queue"
	"github.com/qs3c/novel_go_server/internal/repository"
)

const (
	TimeoutMessage   = "analysis timed out"
	defaultBatchSize = 100
)

// Enqueuer 重新入队
type Enqueuer interface {
	Push(ctx context.Context, msg *queue.TaskMessage) error
}

// Reaper 定时回收超时任务：running 超时置为 failed，pending 滞留重新入队
type Reaper struct {
	taskRepo     *repository.AnalysisTaskRepository
	queue        Enqueuer
	staleAfter   time.Duration
	requeueAfter time.Duration
	batchSize    int
	cron         *cron.Cron
	log          *zap.Logger
	now          func() time.Time
}

func NewReaper(taskRepo *repository.AnalysisTaskRepository, q Enqueuer, cfg config.TaskConfig, log *zap.Logger) *Reaper {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("reaper")

	return &Reaper{
		taskRepo:     taskRepo,
		queue:        q,
		staleAfter:   time.Duration(cfg.StaleAfterMinutes) * time.Minute,
		requeueAfter: time.Duration(cfg.RequeuePendingAfterMinutes) * time.Minute,
		batchSize:    defaultBatchSize,
		cron: cron.New(cron.WithChain(
			cron.Recover(cronLogger{log.Sugar()}),
			cron.SkipIfStillRunning(cronLogger{log.Sugar()}),
		)),
		log: log,
		now: time.Now,
	}
}

// Start 按 cron 表达式调度
func (r *Reaper) Start(schedule string) error {
	if _, err := r.cron.AddFunc(schedule, func() {
		r.RunOnce(context.Background())
	}); err != nil {
		return fmt.Errorf("invalid reaper schedule %q: %w", schedule, err)
	}
	r.cron.Start()
	r.log.Info("reaper started", zap.String("schedule", schedule))
	return nil
}

// Stop 停止调度并等待执行中的任务结束
func (r *Reaper) Stop() {
	<-r.cron.Stop().Done()
	r.log.Info("reaper stopped")
}

// RunOnce 执行一次回收
func (r *Reaper) RunOnce(ctx context.Context) (timedOut, requeued int) {
	now := r.now()

	if r.staleAfter > 0 {
		timedOut = r.failStaleRunning(now.Add(-r.staleAfter))
	}
	if r.requeueAfter > 0 && r.queue != nil {
		requeued = r.requeueStalePending(ctx, now.Add(-r.requeueAfter))
	}

	if timedOut > 0 || requeued > 0 {
		r.log.Info("reaped tasks", zap.Int("timed_out", timedOut), zap.Int("requeued", requeued))
	}
	return timedOut, requeued
}

func (r *Reaper) failStaleRunning(before time.Time) int {
	tasks, err := r.taskRepo.ListStaleRunning(before, r.batchSize)
	if err != nil {
		r.log.Error("list stale running tasks", zap.Error(err))
		return 0
	}

	n := 0
	for _, task := range tasks {
		// worker 可能刚好完成，冲突时跳过
		if err := r.taskRepo.MarkFailed(task.ID, TimeoutMessage); err != nil {
			r.log.Debug("skip stale task", zap.String("task_id", task.ID), zap.Error(err))
			continue
		}
		n++
	}
	return n
}

func (r *Reaper) requeueStalePending(ctx context.Context, before time.Time) int {
	tasks, err := r.taskRepo.ListStalePending(before, r.batchSize)
	if err != nil {
		r.log.Error("list stale pending tasks", zap.Error(err))
		return 0
	}

	n := 0
	for _, task := range tasks {
		err := r.queue.Push(ctx, &queue.TaskMessage{
			TaskID:    task.ID,
			ChapterID: task.ChapterID,
			ProjectID: task.ProjectID,
			UserID:    task.UserID,
			Requeued:  true,
		})
		if err != nil {
			r.log.Warn("requeue failed", zap.String("task_id", task.ID), zap.Error(err))
			continue
		}
		n++
	}
	return n
}

// cronLogger 适配 cron.Logger
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
