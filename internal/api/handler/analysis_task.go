package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/novel_go_server/internal/api/middleware"
	"github.com/qs3c/novel_go_server/internal/pkg/response"
	"github.com/qs3c/novel_go_server/internal/service"
)

type AnalysisTaskHandler struct {
	taskService *service.AnalysisTaskService
}

func NewAnalysisTaskHandler(taskService *service.AnalysisTaskService) *AnalysisTaskHandler {
	return &AnalysisTaskHandler{
		taskService: taskService,
	}
}

// Submit 提交章节分析
// POST /api/v1/chapters/:id/analysis-tasks
func (h *AnalysisTaskHandler) Submit(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	resp, err := h.taskService.Submit(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.SuccessWithMessage(c, "已提交分析", resp)
}

// List 章节分析历史
// GET /api/v1/chapters/:id/analysis-tasks?limit=20
func (h *AnalysisTaskHandler) List(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(service.DefaultListLimit)))
	if err != nil {
		response.ParamError(c, "无效的 limit")
		return
	}
	limit = service.NormalizeLimit(limit)

	items, err := h.taskService.ListByChapter(userID, c.Param("id"), limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.SuccessList(c, len(items), limit, items)
}

// Latest 章节最近一次分析
// GET /api/v1/chapters/:id/analysis-tasks/latest
func (h *AnalysisTaskHandler) Latest(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	detail, err := h.taskService.GetLatest(userID, c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.Success(c, detail)
}

// Get 任务详情
// GET /api/v1/analysis-tasks/:id
func (h *AnalysisTaskHandler) Get(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	detail, err := h.taskService.Get(userID, c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.Success(c, detail)
}

// Stats 队列统计
// GET /api/v1/analysis-tasks/stats
func (h *AnalysisTaskHandler) Stats(c *gin.Context) {
	stats, err := h.taskService.QueueStats(c.Request.Context())
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, stats)
}

// writeServiceError 将服务层错误映射为响应码
func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTaskNotFound),
		errors.Is(err, service.ErrChapterNotFound),
		errors.Is(err, service.ErrProjectNotFound),
		errors.Is(err, service.ErrStyleNotFound),
		errors.Is(err, service.ErrDefaultStyleNotSet):
		response.NotFoundError(c, err.Error())
	case errors.Is(err, service.ErrPermissionDenied):
		response.PermissionError(c, err.Error())
	case errors.Is(err, service.ErrTaskAlreadyActive):
		response.ConflictError(c, err.Error())
	default:
		_ = c.Error(err)
		response.ServerError(c, "")
	}
}
