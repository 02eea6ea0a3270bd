package models

import (
	"time"

	"gorm.io/gorm"
)

// FileStatus 文件处理状态类型
type FileStatus string

const (
	// FileStatusUploaded 文件已上传，尚未分析
	FileStatusUploaded FileStatus = "uploaded"
	// FileStatusProcessing 分析中
	FileStatusProcessing FileStatus = "processing"
	// FileStatusCompleted 至少完成一次分析
	FileStatusCompleted FileStatus = "completed"
	// FileStatusFailed 最近一次分析失败
	FileStatusFailed FileStatus = "failed"
)

// Valid 是否为已知状态
func (s FileStatus) Valid() bool {
	switch s {
	case FileStatusUploaded, FileStatusProcessing, FileStatusCompleted, FileStatusFailed:
		return true
	}
	return false
}

// FileMetadata 上传文件的元数据
type FileMetadata struct {
	ID          string     `gorm:"primaryKey" json:"id"`                  // 文件ID
	StoredAs    string     `gorm:"not null;uniqueIndex" json:"-"`         // 存储层中的文件ID
	Name        string     `gorm:"not null" json:"name"`                  // 原始文件名
	Size        int64      `gorm:"not null" json:"size"`                  // 文件大小（字节）
	ContentType string     `gorm:"size:100;not null" json:"content_type"` // MIME类型
	Company     string     `gorm:"size:255;index" json:"company"`         // 从文件名推断的公司名
	TotalPages  int        `gorm:"not null;default:0" json:"total_pages"` // 页数，提取后写入
	Status      FileStatus `gorm:"size:20;not null;index" json:"status"`  // 处理状态
	Error       string     `gorm:"type:text" json:"error,omitempty"`      // 最近一次错误
	UploadedAt  time.Time  `gorm:"not null;index" json:"uploaded_at"`     // 上传时间
	UpdatedAt   time.Time  `gorm:"not null" json:"updated_at"`            // 更新时间
	AnalyzedAt  *time.Time `gorm:"index" json:"analyzed_at,omitempty"`    // 最近一次分析完成时间
}

// BeforeCreate 创建记录前设置时间
func (f *FileMetadata) BeforeCreate(tx *gorm.DB) error {
	if f.UploadedAt.IsZero() {
		f.UploadedAt = time.Now()
	}
	if f.Status == "" {
		f.Status = FileStatusUploaded
	}
	f.UpdatedAt = time.Now()
	return nil
}

// BeforeUpdate 更新记录前设置更新时间
func (f *FileMetadata) BeforeUpdate(tx *gorm.DB) error {
	f.UpdatedAt = time.Now()
	return nil
}

// TableName 明确指定表名
func (FileMetadata) TableName() string {
	return "files"
}
