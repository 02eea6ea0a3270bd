package repository

import "github.com/fyerfyer/finsight/internal/models"

// FileRepository 文件元数据仓储接口
type FileRepository interface {
	// Create 创建文件记录
	Create(file *models.FileMetadata) error

	// GetByID 根据ID获取文件
	GetByID(id string) (*models.FileMetadata, error)

	// List 分页列出文件，支持按状态和公司名筛选
	List(offset, limit int, filters map[string]interface{}) ([]*models.FileMetadata, int64, error)

	// UpdateStatus 更新文件状态
	UpdateStatus(id string, status models.FileStatus, errorMsg string) error

	// SetTotalPages 记录提取得到的页数
	SetTotalPages(id string, pages int) error

	// Delete 删除文件及其分析记录
	Delete(id string) error
}

// AnalysisRepository 分析记录仓储接口
type AnalysisRepository interface {
	// Create 创建分析记录
	Create(record *models.AnalysisRecord) error

	// Update 保存分析记录
	Update(record *models.AnalysisRecord) error

	// GetByID 根据ID获取分析记录
	GetByID(id string) (*models.AnalysisRecord, error)

	// GetByTaskID 根据异步任务ID获取分析记录
	GetByTaskID(taskID string) (*models.AnalysisRecord, error)

	// Latest 获取文件某类分析最近一次成功的记录
	Latest(fileID string, kind models.AnalysisKind) (*models.AnalysisRecord, error)

	// ListByFile 列出文件的全部分析记录，新记录在前
	ListByFile(fileID string) ([]*models.AnalysisRecord, error)
}
