package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AnalysisKind 分析类型
type AnalysisKind string

const (
	// KindFinancial 财务报表分析
	KindFinancial AnalysisKind = "financial"
	// KindNarrative 管理层讨论摘要
	KindNarrative AnalysisKind = "narrative"
)

// AnalysisStatus 分析任务状态
type AnalysisStatus string

const (
	AnalysisPending   AnalysisStatus = "pending"
	AnalysisRunning   AnalysisStatus = "running"
	AnalysisCompleted AnalysisStatus = "completed"
	AnalysisFailed    AnalysisStatus = "failed"
)

// AnalysisRecord 一次分析的持久化记录
// Result保存完整的分析结果JSON
type AnalysisRecord struct {
	ID        string         `gorm:"primaryKey" json:"id"`
	FileID    string         `gorm:"not null;index" json:"file_id"`
	Kind      AnalysisKind   `gorm:"size:20;not null;index" json:"kind"`
	Status    AnalysisStatus `gorm:"size:20;not null" json:"status"`
	TaskID    string         `gorm:"size:64;index" json:"task_id,omitempty"`
	Params    datatypes.JSON `gorm:"type:json" json:"params,omitempty"` // 分析参数，例如摘要句子数
	Result    datatypes.JSON `gorm:"type:json" json:"result,omitempty"`
	Error     string         `gorm:"type:text" json:"error,omitempty"`
	CreatedAt time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
}

// BeforeCreate 创建记录前设置时间
func (a *AnalysisRecord) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	return nil
}

// BeforeUpdate 更新记录前设置更新时间
func (a *AnalysisRecord) BeforeUpdate(tx *gorm.DB) error {
	a.UpdatedAt = time.Now()
	return nil
}

// TableName 明确指定表名
func (AnalysisRecord) TableName() string {
	return "analyses"
}

// Finished 是否已结束
func (a *AnalysisRecord) Finished() bool {
	return a.Status == AnalysisCompleted || a.Status == AnalysisFailed
}
