package handler

import (
	"net/http"

	"github.com/fyerfyer/finsight/api/middleware"
	"github.com/fyerfyer/finsight/api/model"
	"github.com/fyerfyer/finsight/internal/services"
	"github.com/gin-gonic/gin"
)

// TaskHandler 处理任务相关的API请求
type TaskHandler struct {
	analysis *services.AnalysisService
}

// NewTaskHandler 创建新的任务处理器
func NewTaskHandler(analysis *services.AnalysisService) *TaskHandler {
	return &TaskHandler{analysis: analysis}
}

// GetTaskStatus 获取任务状态
// GET /api/tasks/:id
func (h *TaskHandler) GetTaskStatus(c *gin.Context) {
	var req model.TaskRequest
	if err := c.ShouldBindUri(&req); err != nil {
		middleware.HandleError(c, middleware.NewValidationError("invalid task id", err.Error()))
		return
	}

	info, err := h.analysis.TaskStatus(c.Request.Context(), req.ID)
	if err != nil {
		middleware.HandleError(c, toAppError(err))
		return
	}
	c.JSON(http.StatusOK, model.NewSuccessResponse(info))
}
