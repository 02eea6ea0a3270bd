package model

import (
	"time"

	"github.com/fyerfyer/finsight/internal/models"
)

// Response 通用响应结构
type Response struct {
	Code    int         `json:"code"`               // 响应状态码，0表示成功
	Message string      `json:"message"`            // 响应消息
	Data    interface{} `json:"data,omitempty"`     // 响应数据，可能为空
	TraceID string      `json:"trace_id,omitempty"` // 调用链追踪ID
}

// NewSuccessResponse 创建成功响应
func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Code:    0,
		Message: "success",
		Data:    data,
	}
}

// NewErrorResponse 创建错误响应
func NewErrorResponse(code int, message string) *Response {
	return &Response{
		Code:    code,
		Message: message,
	}
}

// FileInfo 文件信息
type FileInfo struct {
	FileID      string     `json:"file_id"`               // 文件ID
	FileName    string     `json:"filename"`              // 文件名
	Size        int64      `json:"size"`                  // 文件大小
	ContentType string     `json:"content_type"`          // MIME类型
	Company     string     `json:"company"`               // 从文件名推断的公司名
	TotalPages  int        `json:"total_pages"`           // 页数，分析后才有
	Status      string     `json:"status"`                // 状态
	Error       string     `json:"error,omitempty"`       // 最近一次分析的错误
	UploadTime  time.Time  `json:"upload_time"`           // 上传时间
	AnalyzedAt  *time.Time `json:"analyzed_at,omitempty"` // 最近一次分析完成时间
}

// NewFileInfo 从元数据创建文件信息
func NewFileInfo(f *models.FileMetadata) FileInfo {
	return FileInfo{
		FileID:      f.ID,
		FileName:    f.Name,
		Size:        f.Size,
		ContentType: f.ContentType,
		Company:     f.Company,
		TotalPages:  f.TotalPages,
		Status:      string(f.Status),
		Error:       f.Error,
		UploadTime:  f.UploadedAt,
		AnalyzedAt:  f.AnalyzedAt,
	}
}

// FileListResponse 文件列表响应
type FileListResponse struct {
	Total    int64      `json:"total"`     // 总数量
	Page     int        `json:"page"`      // 当前页码
	PageSize int        `json:"page_size"` // 每页大小
	Files    []FileInfo `json:"files"`     // 文件列表
}

// FileDeleteResponse 文件删除响应
type FileDeleteResponse struct {
	Success bool   `json:"success"` // 是否成功
	FileID  string `json:"file_id"` // 文件ID
}

// AnalysisSubmitResponse 异步分析提交响应
type AnalysisSubmitResponse struct {
	AnalysisID string `json:"analysis_id"` // 分析记录ID
	TaskID     string `json:"task_id"`     // 任务ID，用于查询状态
	Status     string `json:"status"`      // 分析状态
}
