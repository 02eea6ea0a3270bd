package model

import "mime/multipart"

// 分页请求参数
type PaginationRequest struct {
	Page     int `form:"page" json:"page" binding:"omitempty,min=1"`           // 当前页码，从1开始
	PageSize int `form:"page_size" json:"page_size" binding:"omitempty,min=1"` // 每页记录数
}

// GetPage 获取页码，默认为1
func (p *PaginationRequest) GetPage() int {
	if p.Page <= 0 {
		return 1
	}
	return p.Page
}

// GetPageSize 获取每页记录数，默认为10，最大为100
func (p *PaginationRequest) GetPageSize() int {
	if p.PageSize <= 0 {
		return 10
	}
	if p.PageSize > 100 {
		return 100
	}
	return p.PageSize
}

// Offset 分页偏移量
func (p *PaginationRequest) Offset() int {
	return (p.GetPage() - 1) * p.GetPageSize()
}

// FileUploadRequest 文件上传请求
type FileUploadRequest struct {
	File *multipart.FileHeader `form:"file" binding:"required"`          // 文件对象
	Name string                `form:"name" binding:"omitempty,docname"` // 可选的文件名，覆盖上传文件自带的名字
}

// FileName 保存时使用的文件名
func (r *FileUploadRequest) FileName() string {
	if r.Name != "" {
		return r.Name
	}
	return r.File.Filename
}

// FileListRequest 文件列表请求
type FileListRequest struct {
	PaginationRequest
	Status  string `form:"status" binding:"omitempty,oneof=uploaded processing completed failed"` // 文件状态
	Company string `form:"company" binding:"omitempty,max=200"`                                   // 公司名筛选
	Name    string `form:"name" binding:"omitempty,max=255"`                                      // 文件名筛选
}

// Filters 转换为仓储的筛选条件
func (r *FileListRequest) Filters() map[string]interface{} {
	filters := make(map[string]interface{})
	if r.Status != "" {
		filters["status"] = r.Status
	}
	if r.Company != "" {
		filters["company"] = r.Company
	}
	if r.Name != "" {
		filters["name"] = r.Name
	}
	return filters
}

// FileIDRequest 路径中的文件ID
type FileIDRequest struct {
	ID string `uri:"id" binding:"required"` // 文件ID
}

// AnalysisRequest 财务分析请求
type AnalysisRequest struct {
	Async bool `form:"async"` // 是否提交为异步任务
}

// SummaryRequest 管理层讨论摘要请求
type SummaryRequest struct {
	Sentences int  `form:"sentences" binding:"omitempty,min=1,max=50"` // 摘要句子数，覆盖默认值
	Async     bool `form:"async"`                                      // 是否提交为异步任务
}

// ReportRequest 报告导出请求
type ReportRequest struct {
	Format string `form:"format" binding:"omitempty,oneof=md markdown html htm xlsx excel"` // 报告格式
}

// TaskRequest 路径中的任务ID
type TaskRequest struct {
	ID string `uri:"id" binding:"required"` // 任务ID
}
