package taskqueue

import (
	"encoding/json"
	"time"
)

// TaskType 任务类型
type TaskType string

const (
	// TaskFinancialAnalysis 财务报表分析任务
	TaskFinancialAnalysis TaskType = "analysis:financial"
	// TaskNarrativeSummary 管理层讨论摘要任务
	TaskNarrativeSummary TaskType = "analysis:narrative"
)

// TaskStatus 任务状态
type TaskStatus string

const (
	// StatusPending 等待处理
	StatusPending TaskStatus = "pending"
	// StatusProcessing 处理中
	StatusProcessing TaskStatus = "processing"
	// StatusCompleted 已完成
	StatusCompleted TaskStatus = "completed"
	// StatusFailed 处理失败
	StatusFailed TaskStatus = "failed"
)

// Finished 是否为终止状态
func (s TaskStatus) Finished() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Task 任务基础结构
type Task struct {
	ID          string          `json:"id"`           // 任务唯一标识符
	Type        TaskType        `json:"type"`         // 任务类型
	FileID      string          `json:"file_id"`      // 关联的文件ID
	Status      TaskStatus      `json:"status"`       // 任务状态
	Payload     json.RawMessage `json:"payload"`      // 任务载荷
	Result      json.RawMessage `json:"result"`       // 任务结果
	Error       string          `json:"error"`        // 错误信息
	CreatedAt   time.Time       `json:"created_at"`   // 创建时间
	UpdatedAt   time.Time       `json:"updated_at"`   // 更新时间
	StartedAt   *time.Time      `json:"started_at"`   // 开始处理时间
	CompletedAt *time.Time      `json:"completed_at"` // 完成时间
	MaxRetries  int             `json:"max_retries"`  // 最大重试次数
}

// AnalysisPayload 分析任务载荷
type AnalysisPayload struct {
	FileID       string `json:"file_id"`                 // 文件ID
	AnalysisID   string `json:"analysis_id"`             // 预先创建的分析记录ID
	MaxSentences int    `json:"max_sentences,omitempty"` // 摘要句子数，仅摘要任务使用
}

// AnalysisResult 分析任务结果
type AnalysisResult struct {
	AnalysisID string `json:"analysis_id"`
	Company    string `json:"company"`
	Success    bool   `json:"success"`
	Message    string `json:"message,omitempty"`
}
