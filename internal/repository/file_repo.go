package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/fyerfyer/finsight/internal/database"
	"github.com/fyerfyer/finsight/internal/models"
	"gorm.io/gorm"
)

// fileRepository 文件仓储实现
type fileRepository struct {
	db *gorm.DB
}

// NewFileRepository 使用全局数据库连接创建文件仓储
func NewFileRepository() FileRepository {
	return &fileRepository{db: database.MustDB()}
}

// NewFileRepositoryWithDB 使用指定的数据库连接创建文件仓储
func NewFileRepositoryWithDB(db *gorm.DB) FileRepository {
	if db == nil {
		db = database.MustDB()
	}
	return &fileRepository{db: db}
}

// Create 创建文件记录
func (r *fileRepository) Create(file *models.FileMetadata) error {
	if file.ID == "" {
		return errors.New("file ID cannot be empty")
	}
	return r.db.Create(file).Error
}

// GetByID 根据ID获取文件
func (r *fileRepository) GetByID(id string) (*models.FileMetadata, error) {
	var file models.FileMetadata
	err := r.db.Where("id = ?", id).First(&file).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", models.ErrFileNotFound, id)
		}
		return nil, err
	}
	return &file, nil
}

// List 分页列出文件
func (r *fileRepository) List(offset, limit int, filters map[string]interface{}) ([]*models.FileMetadata, int64, error) {
	var files []*models.FileMetadata
	var total int64

	query := r.db.Model(&models.FileMetadata{})

	if status, ok := filters["status"]; ok {
		switch s := status.(type) {
		case models.FileStatus:
			query = query.Where("status = ?", string(s))
		case string:
			if s != "" {
				query = query.Where("status = ?", s)
			}
		}
	}
	if company, ok := filters["company"].(string); ok && company != "" {
		query = query.Where("company LIKE ?", "%"+company+"%")
	}
	if name, ok := filters["name"].(string); ok && name != "" {
		query = query.Where("name LIKE ?", "%"+name+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("uploaded_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&files).Error
	if err != nil {
		return nil, 0, err
	}
	return files, total, nil
}

// UpdateStatus 更新文件状态，完成时记录分析时间
func (r *fileRepository) UpdateStatus(id string, status models.FileStatus, errorMsg string) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %s", models.ErrInvalidFileStatus, status)
	}

	updates := map[string]interface{}{
		"status":     status,
		"error":      errorMsg,
		"updated_at": time.Now(),
	}
	if status == models.FileStatusCompleted {
		updates["analyzed_at"] = time.Now()
	}

	res := r.db.Model(&models.FileMetadata{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", models.ErrFileNotFound, id)
	}
	return nil
}

// SetTotalPages 记录页数
func (r *fileRepository) SetTotalPages(id string, pages int) error {
	return r.db.Model(&models.FileMetadata{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"total_pages": pages,
			"updated_at":  time.Now(),
		}).Error
}

// Delete 在事务中删除文件及其分析记录
func (r *fileRepository) Delete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("file_id = ?", id).Delete(&models.AnalysisRecord{}).Error; err != nil {
			return err
		}

		res := tx.Where("id = ?", id).Delete(&models.FileMetadata{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: %s", models.ErrFileNotFound, id)
		}
		return nil
	})
}
