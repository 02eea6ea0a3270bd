package handler

import (
	"fmt"
	"net/http"

	"github.com/fyerfyer/finsight/api/middleware"
	"github.com/fyerfyer/finsight/api/model"
	"github.com/fyerfyer/finsight/internal/models"
	"github.com/fyerfyer/finsight/internal/report"
	"github.com/fyerfyer/finsight/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AnalysisHandler 处理分析相关的API请求
type AnalysisHandler struct {
	analysis *services.AnalysisService // 分析服务
	files    *services.FileService     // 文件服务，用于报告文件名
	logger   *logrus.Logger            // 日志记录器
}

// NewAnalysisHandler 创建新的分析处理器
func NewAnalysisHandler(analysis *services.AnalysisService, files *services.FileService) *AnalysisHandler {
	return &AnalysisHandler{
		analysis: analysis,
		files:    files,
		logger:   middleware.GetLogger(),
	}
}

// Analyze 执行财务报表分析
// POST /api/files/:id/analysis
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	var uri model.FileIDRequest
	var req model.AnalysisRequest
	if !bindFileRequest(c, &uri, &req) {
		return
	}

	if req.Async {
		record, err := h.analysis.SubmitFinancial(c.Request.Context(), uri.ID)
		if err != nil {
			middleware.HandleError(c, toAppError(err))
			return
		}
		c.JSON(http.StatusAccepted, model.NewSuccessResponse(submitResponse(record)))
		return
	}

	result, err := h.analysis.Financial(c.Request.Context(), uri.ID)
	if err != nil {
		middleware.HandleError(c, toAppError(err))
		return
	}
	c.JSON(http.StatusOK, model.NewSuccessResponse(result))
}

// Summary 生成管理层讨论摘要
// GET /api/files/:id/summary
func (h *AnalysisHandler) Summary(c *gin.Context) {
	var uri model.FileIDRequest
	var req model.SummaryRequest
	if !bindFileRequest(c, &uri, &req) {
		return
	}

	if req.Async {
		record, err := h.analysis.SubmitNarrative(c.Request.Context(), uri.ID, req.Sentences)
		if err != nil {
			middleware.HandleError(c, toAppError(err))
			return
		}
		c.JSON(http.StatusAccepted, model.NewSuccessResponse(submitResponse(record)))
		return
	}

	result, err := h.analysis.Narrative(c.Request.Context(), uri.ID, req.Sentences)
	if err != nil {
		middleware.HandleError(c, toAppError(err))
		return
	}
	c.JSON(http.StatusOK, model.NewSuccessResponse(result))
}

// History 列出文件的分析记录
// GET /api/files/:id/analyses
func (h *AnalysisHandler) History(c *gin.Context) {
	var uri model.FileIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		middleware.HandleError(c, middleware.NewValidationError("invalid file id", err.Error()))
		return
	}

	records, err := h.analysis.History(c.Request.Context(), uri.ID)
	if err != nil {
		middleware.HandleError(c, toAppError(err))
		return
	}
	c.JSON(http.StatusOK, model.NewSuccessResponse(records))
}

// Report 导出分析报告
// GET /api/files/:id/report?format=md|html|xlsx
func (h *AnalysisHandler) Report(c *gin.Context) {
	var uri model.FileIDRequest
	var req model.ReportRequest
	if !bindFileRequest(c, &uri, &req) {
		return
	}

	format, err := report.ParseFormat(req.Format)
	if err != nil {
		middleware.HandleError(c, toAppError(err))
		return
	}

	file, err := h.files.Get(c.Request.Context(), uri.ID)
	if err != nil {
		middleware.HandleError(c, toAppError(err))
		return
	}

	data, err := h.analysis.Report(c.Request.Context(), uri.ID, format)
	if err != nil {
		middleware.HandleError(c, toAppError(err))
		return
	}

	h.logger.WithFields(logrus.Fields{
		"file_id": uri.ID,
		"format":  format,
		"bytes":   len(data),
	}).Info("Report exported")

	filename := fmt.Sprintf("%s-report%s", file.ID, format.Extension())
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, format.ContentType(), data)
}

// bindFileRequest 绑定路径中的文件ID和查询参数
func bindFileRequest(c *gin.Context, uri *model.FileIDRequest, query interface{}) bool {
	if err := c.ShouldBindUri(uri); err != nil {
		middleware.HandleError(c, middleware.NewValidationError("invalid file id", err.Error()))
		return false
	}
	if err := c.ShouldBindQuery(query); err != nil {
		middleware.HandleError(c, middleware.NewValidationError("invalid query parameters", err.Error()))
		return false
	}
	return true
}

func submitResponse(record *models.AnalysisRecord) model.AnalysisSubmitResponse {
	return model.AnalysisSubmitResponse{
		AnalysisID: record.ID,
		TaskID:     record.TaskID,
		Status:     string(record.Status),
	}
}
