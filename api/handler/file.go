package handler

import (
	"net/http"

	"github.com/fyerfyer/finsight/api/middleware"
	"github.com/fyerfyer/finsight/api/model"
	"github.com/fyerfyer/finsight/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// FileHandler 处理文件相关的API请求
type FileHandler struct {
	files  *services.FileService // 文件服务
	logger *logrus.Logger        // 日志记录器
}

// NewFileHandler 创建新的文件处理器
func NewFileHandler(files *services.FileService) *FileHandler {
	return &FileHandler{
		files:  files,
		logger: middleware.GetLogger(),
	}
}

// UploadFile 处理文件上传请求
// POST /api/files
func (h *FileHandler) UploadFile(c *gin.Context) {
	var req model.FileUploadRequest
	if err := c.ShouldBind(&req); err != nil {
		middleware.HandleError(c, middleware.NewValidationError("invalid upload request", err.Error()))
		return
	}

	filename := req.FileName()
	if !model.ValidDocName(filename) {
		middleware.HandleError(c, middleware.NewValidationError(
			"unsupported file type, only .pdf, .html, .htm and .txt are accepted", filename))
		return
	}
	if req.File.Size > h.files.MaxUploadSize() {
		middleware.HandleError(c, middleware.NewTooLargeError("file exceeds upload size limit"))
		return
	}

	src, err := req.File.Open()
	if err != nil {
		h.logger.WithError(err).WithField("filename", filename).Error("Failed to open uploaded file")
		middleware.HandleError(c, middleware.NewInternalError("failed to open uploaded file"))
		return
	}
	defer src.Close()

	file, err := h.files.Upload(c.Request.Context(), src, filename, req.File.Size)
	if err != nil {
		middleware.HandleError(c, toAppError(err))
		return
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(model.NewFileInfo(file)))
}

// GetFile 获取文件元数据
// GET /api/files/:id
func (h *FileHandler) GetFile(c *gin.Context) {
	var req model.FileIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		middleware.HandleError(c, middleware.NewValidationError("invalid file id", err.Error()))
		return
	}

	file, err := h.files.Get(c.Request.Context(), req.ID)
	if err != nil {
		middleware.HandleError(c, toAppError(err))
		return
	}
	c.JSON(http.StatusOK, model.NewSuccessResponse(model.NewFileInfo(file)))
}

// ListFiles 分页列出文件
// GET /api/files
func (h *FileHandler) ListFiles(c *gin.Context) {
	var req model.FileListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleError(c, middleware.NewValidationError("invalid list request", err.Error()))
		return
	}

	files, total, err := h.files.List(c.Request.Context(), req.Offset(), req.GetPageSize(), req.Filters())
	if err != nil {
		middleware.HandleError(c, toAppError(err))
		return
	}

	resp := model.FileListResponse{
		Total:    total,
		Page:     req.GetPage(),
		PageSize: req.GetPageSize(),
		Files:    make([]model.FileInfo, 0, len(files)),
	}
	for _, f := range files {
		resp.Files = append(resp.Files, model.NewFileInfo(f))
	}
	c.JSON(http.StatusOK, model.NewSuccessResponse(resp))
}

// DeleteFile 删除文件、元数据和缓存结果
// DELETE /api/files/:id
func (h *FileHandler) DeleteFile(c *gin.Context) {
	var req model.FileIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		middleware.HandleError(c, middleware.NewValidationError("invalid file id", err.Error()))
		return
	}

	if err := h.files.Delete(c.Request.Context(), req.ID); err != nil {
		middleware.HandleError(c, toAppError(err))
		return
	}
	c.JSON(http.StatusOK, model.NewSuccessResponse(model.FileDeleteResponse{
		Success: true,
		FileID:  req.ID,
	}))
}
