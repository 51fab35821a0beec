package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/qs3c/novel_go_server/config"
	"github.com/qs3c/novel_go_server/internal/api"
	"github.com/qs3c/novel_go_server/internal/api/handler"
	"github.com/qs3c/novel_go_server/internal/database"
	"github.com/qs3c/novel_go_server/internal/pkg/logger"
	"github.com/qs3c/novel_go_server/internal/pkg/pubsub"
	"github.com/qs3c/novel_go_server/internal/pkg/queue"
	"github.com/qs3c/novel_go_server/internal/pkg/ws"
	"github.com/qs3c/novel_go_server/internal/repository"
	"github.com/qs3c/novel_go_server/internal/service"
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

	taskQueue := queue.NewQueue(rdb, cfg.Queue.AnalysisQueue)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 进度消息经 Redis 转发到浏览器
	wsHub := ws.NewHub(zlog)
	subscriber := pubsub.NewSubscriber(rdb)
	go func() {
		err := subscriber.Subscribe(ctx, func(msg *pubsub.ProgressMessage) {
			if err := wsHub.PushProgress(msg); err != nil {
				zlog.Warn("push progress failed", zap.String("task_id", msg.TaskID), zap.Error(err))
			}
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			zlog.Error("progress subscriber stopped", zap.Error(err))
		}
	}()

	// 初始化 Repository
	taskRepo := repository.NewAnalysisTaskRepository(db)
	chapterRepo := repository.NewChapterRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	styleRepo := repository.NewWritingStyleRepository(db)
	defaultStyleRepo := repository.NewProjectDefaultStyleRepository(db)

	// 初始化 Service
	taskService := service.NewAnalysisTaskService(taskRepo, chapterRepo, taskQueue, zlog)
	styleService := service.NewProjectStyleService(projectRepo, styleRepo, defaultStyleRepo)

	// 初始化 Router
	router := api.NewRouter(
		handler.NewAnalysisTaskHandler(taskService),
		handler.NewProjectStyleHandler(styleService),
		handler.NewWebSocketHandler(wsHub, cfg.JWT.Secret, cfg.CORS.AllowedOrigins, zlog),
		handler.NewHealthHandler(db, rdb),
		cfg,
		zlog,
	)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router.Setup(),
	}

	go func() {
		zlog.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// 监听退出信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	zlog.Info("Received shutdown signal")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("Server shutdown failed", zap.Error(err))
	}
	// 长连接不受 Shutdown 管理，单独断开
	wsHub.Close()
	zlog.Info("Server stopped")
}
