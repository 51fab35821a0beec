package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/novel_go_server/internal/api/middleware"
	"github.com/qs3c/novel_go_server/internal/model/dto"
	"github.com/qs3c/novel_go_server/internal/pkg/response"
	"github.com/qs3c/novel_go_server/internal/service"
)

type ProjectStyleHandler struct {
	styleService *service.ProjectStyleService
}

func NewProjectStyleHandler(styleService *service.ProjectStyleService) *ProjectStyleHandler {
	return &ProjectStyleHandler{
		styleService: styleService,
	}
}

// Get 获取项目默认风格
// GET /api/v1/projects/:id/default-style
func (h *ProjectStyleHandler) Get(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	detail, err := h.styleService.GetDefault(userID, c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.Success(c, detail)
}

// Set 设置项目默认风格
// PUT /api/v1/projects/:id/default-style
func (h *ProjectStyleHandler) Set(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.SetDefaultStyleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	detail, err := h.styleService.SetDefault(userID, c.Param("id"), req.StyleID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.SuccessWithMessage(c, "设置成功", detail)
}

// Clear 取消项目默认风格
// DELETE /api/v1/projects/:id/default-style
func (h *ProjectStyleHandler) Clear(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	if err := h.styleService.ClearDefault(userID, c.Param("id")); err != nil {
		writeServiceError(c, err)
		return
	}

	response.SuccessWithMessage(c, "已取消", nil)
}

// ListStyles 项目可选风格
// GET /api/v1/projects/:id/styles
func (h *ProjectStyleHandler) ListStyles(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	items, err := h.styleService.ListStyles(userID, c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.SuccessList(c, len(items), len(items), items)
}
