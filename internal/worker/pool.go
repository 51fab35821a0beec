package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/qs3c/novel_go_server/internal/pkg/queue"
)

const popTimeout = 5 * time.Second

// TaskSource 阻塞获取任务消息
type TaskSource interface {
	Pop(ctx context.Context, timeout time.Duration) (*queue.TaskMessage, error)
}

// Pool 并发消费队列
type Pool struct {
	source    TaskSource
	processor *Processor
	workers   int
	log       *zap.Logger
}

func NewPool(source TaskSource, processor *Processor, workers int, log *zap.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Pool{
		source:    source,
		processor: processor,
		workers:   workers,
		log:       log.Named("pool"),
	}
}

// Run 启动 worker 并阻塞到 ctx 结束
func (p *Pool) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			p.loop(ctx, workerID)
		}(i)
	}
	wg.Wait()
}

func (p *Pool) loop(ctx context.Context, workerID int) {
	log := p.log.With(zap.Int("worker", workerID))
	for {
		if ctx.Err() != nil {
			log.Info("worker shutting down")
			return
		}

		msg, err := p.source.Pop(ctx, popTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Warn("pop failed", zap.Error(err))
			// 避免 Redis 故障时空转
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		if msg == nil {
			continue
		}

		log.Debug("processing task", zap.String("task_id", msg.TaskID))
		if err := p.processor.Process(ctx, msg); err != nil {
			log.Warn("task failed", zap.String("task_id", msg.TaskID), zap.Error(err))
		}
	}
}
