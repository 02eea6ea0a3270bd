package repository

import (
	"errors"
	"fmt"

	"github.com/fyerfyer/finsight/internal/database"
	"github.com/fyerfyer/finsight/internal/models"
	"gorm.io/gorm"
)

// analysisRepository 分析记录仓储实现
type analysisRepository struct {
	db *gorm.DB
}

// NewAnalysisRepository 使用全局数据库连接创建分析仓储
func NewAnalysisRepository() AnalysisRepository {
	return &analysisRepository{db: database.MustDB()}
}

// NewAnalysisRepositoryWithDB 使用指定的数据库连接创建分析仓储
func NewAnalysisRepositoryWithDB(db *gorm.DB) AnalysisRepository {
	if db == nil {
		db = database.MustDB()
	}
	return &analysisRepository{db: db}
}

// Create 创建分析记录
func (r *analysisRepository) Create(record *models.AnalysisRecord) error {
	if record.ID == "" {
		return errors.New("analysis ID cannot be empty")
	}
	return r.db.Create(record).Error
}

// Update 保存分析记录
func (r *analysisRepository) Update(record *models.AnalysisRecord) error {
	if record.ID == "" {
		return errors.New("analysis ID cannot be empty")
	}
	return r.db.Save(record).Error
}

// GetByID 根据ID获取分析记录
func (r *analysisRepository) GetByID(id string) (*models.AnalysisRecord, error) {
	return r.first(r.db.Where("id = ?", id), id)
}

// GetByTaskID 根据任务ID获取分析记录
func (r *analysisRepository) GetByTaskID(taskID string) (*models.AnalysisRecord, error) {
	return r.first(r.db.Where("task_id = ?", taskID), taskID)
}

// Latest 获取最近一次成功的分析
func (r *analysisRepository) Latest(fileID string, kind models.AnalysisKind) (*models.AnalysisRecord, error) {
	query := r.db.Where("file_id = ? AND kind = ? AND status = ?", fileID, kind, models.AnalysisCompleted).
		Order("created_at DESC")
	return r.first(query, fileID)
}

// ListByFile 列出文件的全部分析记录
func (r *analysisRepository) ListByFile(fileID string) ([]*models.AnalysisRecord, error) {
	var records []*models.AnalysisRecord
	err := r.db.Where("file_id = ?", fileID).
		Order("created_at DESC").
		Find(&records).Error
	return records, err
}

func (r *analysisRepository) first(query *gorm.DB, ref string) (*models.AnalysisRecord, error) {
	var record models.AnalysisRecord
	if err := query.First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", models.ErrAnalysisNotFound, ref)
		}
		return nil, err
	}
	return &record, nil
}
