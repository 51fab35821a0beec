package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/qs3c/novel_go_server/config"
	"github.com/qs3c/novel_go_server/internal/api/handler"
	"github.com/qs3c/novel_go_server/internal/api/middleware"
)

type Router struct {
	taskHandler      *handler.AnalysisTaskHandler
	styleHandler     *handler.ProjectStyleHandler
	websocketHandler *handler.WebSocketHandler
	healthHandler    *handler.HealthHandler
	cfg              *config.Config
	log              *zap.Logger
}

func NewRouter(
	taskHandler *handler.AnalysisTaskHandler,
	styleHandler *handler.ProjectStyleHandler,
	websocketHandler *handler.WebSocketHandler,
	healthHandler *handler.HealthHandler,
	cfg *config.Config,
	log *zap.Logger,
) *Router {
	if log == nil {
		log = zap.NewNop()
	}
	return &Router{
		taskHandler:      taskHandler,
		styleHandler:     styleHandler,
		websocketHandler: websocketHandler,
		healthHandler:    healthHandler,
		cfg:              cfg,
		log:              log,
	}
}

func (r *Router) Setup() *gin.Engine {
	if r.cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(r.log))
	engine.Use(middleware.CORS(r.cfg.CORS))

	engine.GET("/healthz", r.healthHandler.Check)

	api := engine.Group("/api/v1")
	{
		// WebSocket，token 走 query
		api.GET("/ws", r.websocketHandler.Handle)

		// 需要认证的接口
		authenticated := api.Group("")
		authenticated.Use(middleware.Auth(r.cfg.JWT.Secret))
		{
			// 章节分析
			chapters := authenticated.Group("/chapters")
			{
				chapters.POST("/:id/analysis-tasks", r.taskHandler.Submit)
				chapters.GET("/:id/analysis-tasks", r.taskHandler.List)
				chapters.GET("/:id/analysis-tasks/latest", r.taskHandler.Latest)
			}

			tasks := authenticated.Group("/analysis-tasks")
			{
				tasks.GET("/stats", r.taskHandler.Stats)
				tasks.GET("/:id", r.taskHandler.Get)
			}

			// 项目默认风格
			projects := authenticated.Group("/projects")
			{
				projects.GET("/:id/default-style", r.styleHandler.Get)
				projects.PUT("/:id/default-style", r.styleHandler.Set)
				projects.DELETE("/:id/default-style", r.styleHandler.Clear)
				projects.GET("/:id/styles", r.styleHandler.ListStyles)
			}
		}
	}

	return engine
}
