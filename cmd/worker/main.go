package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/qs3c/novel_go_server/config"
	"github.com/qs3c/novel_go_server/internal/database"
	"github.com/qs3c/novel_go_server/internal/pkg/cron"
	"github.com/qs3c/novel_go_server/internal/pkg/logger"
	"github.com/qs3c/novel_go_server/internal/pkg/pubsub"
	"github.com/qs3c/novel_go_server/internal/pkg/queue"
	"github.com/qs3c/novel_go_server/internal/repository"
	"github.com/qs3c/novel_go_server/internal/worker"
)

func main() {
	// 加载配置
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zlog, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zlog.Sync()

	// 初始化数据库
	db, err := database.Open(&cfg.Database, zlog)
	if err != nil {
		zlog.Fatal("Failed to connect database", zap.Error(err))
	}
	defer database.Close(db)

	// 初始化 Redis
	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		zlog.Fatal("Failed to connect redis", zap.Error(err))
	}
	defer rdb.Close()
	zlog.Info("Redis connected")

	// 初始化 Queue 和 Pub/Sub
	taskQueue := queue.NewQueue(rdb, cfg.Queue.AnalysisQueue)
	publisher := pubsub.NewPublisher(rdb)

	// 初始化 Repository
	taskRepo := repository.NewAnalysisTaskRepository(db)
	chapterRepo := repository.NewChapterRepository(db)

	// 创建任务处理器
	processor := worker.NewProcessor(taskRepo, chapterRepo, nil, publisher, zlog)
	pool := worker.NewPool(taskQueue, processor, cfg.Queue.MaxWorkers, zlog)

	// 超时回收与重新入队
	reaper := cron.NewReaper(taskRepo, taskQueue, cfg.Task, zlog)
	if err := reaper.Start(cfg.Task.ReaperSchedule); err != nil {
		zlog.Fatal("Failed to start reaper", zap.Error(err))
	}
	defer reaper.Stop()

	// 创建 context 用于优雅关闭
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 监听退出信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		zlog.Info("Received shutdown signal")
		cancel()
	}()

	zlog.Info("Worker started",
		zap.Int("max_workers", cfg.Queue.MaxWorkers),
		zap.String("queue", taskQueue.Name()),
	)

	// 阻塞直到全部 worker 退出
	pool.Run(ctx)
	zlog.Info("Worker shutdown complete")
}
