package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/fyerfyer/finsight/internal/analysis"
	"github.com/fyerfyer/finsight/internal/cache"
	"github.com/fyerfyer/finsight/internal/document"
	"github.com/fyerfyer/finsight/internal/models"
	"github.com/fyerfyer/finsight/internal/repository"
	"github.com/fyerfyer/finsight/pkg/storage"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DefaultMaxUploadSize 默认上传大小限制（10MB）
const DefaultMaxUploadSize = 10 << 20

// FileService 文件服务
// 负责上传文件的存储和元数据管理
type FileService struct {
	storage storage.Storage
	repo    repository.FileRepository
	results *cache.ResultCache
	maxSize int64
	logger  *logrus.Logger
}

// FileOption 文件服务配置选项
type FileOption func(*FileService)

// WithFileLogger 设置日志记录器
func WithFileLogger(logger *logrus.Logger) FileOption {
	return func(s *FileService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMaxUploadSize 设置上传大小限制
func WithMaxUploadSize(size int64) FileOption {
	return func(s *FileService) {
		if size > 0 {
			s.maxSize = size
		}
	}
}

// WithFileResultCache 删除文件时同时清理缓存结果
func WithFileResultCache(results *cache.ResultCache) FileOption {
	return func(s *FileService) {
		s.results = results
	}
}

// NewFileService 创建文件服务
func NewFileService(store storage.Storage, repo repository.FileRepository, opts ...FileOption) *FileService {
	s := &FileService{
		storage: store,
		repo:    repo,
		maxSize: DefaultMaxUploadSize,
		logger:  logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MaxUploadSize 上传大小限制
func (s *FileService) MaxUploadSize() int64 {
	return s.maxSize
}

// Upload 保存上传的文件并创建元数据
// size为客户端声明的大小，未知时传-1
func (s *FileService) Upload(ctx context.Context, r io.Reader, filename string, size int64) (*models.FileMetadata, error) {
	contentType := document.DetectContentType(filename)
	if contentType == document.Unknown {
		return nil, fmt.Errorf("%w: %s", models.ErrUnsupportedFileType, filename)
	}
	if size > s.maxSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", models.ErrFileTooLarge, size, s.maxSize)
	}

	// 多读一个字节以发现超限
	limited := io.LimitReader(r, s.maxSize+1)
	info, err := s.storage.Save(ctx, limited, filename)
	if err != nil {
		return nil, fmt.Errorf("failed to save file: %w", err)
	}
	if info.Size > s.maxSize {
		_ = s.storage.Delete(ctx, info.ID)
		return nil, fmt.Errorf("%w: more than %d bytes", models.ErrFileTooLarge, s.maxSize)
	}

	file := &models.FileMetadata{
		ID:          uuid.New().String(),
		StoredAs:    info.ID,
		Name:        filename,
		Size:        info.Size,
		ContentType: contentType.MIMEType(),
		Company:     analysis.CompanyFromFileName(filename),
		Status:      models.FileStatusUploaded,
	}
	if err := s.repo.Create(file); err != nil {
		_ = s.storage.Delete(ctx, info.ID)
		return nil, fmt.Errorf("failed to create file record: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"file_id": file.ID,
		"name":    filename,
		"size":    file.Size,
		"company": file.Company,
	}).Info("File uploaded")
	return file, nil
}

// Get 获取文件元数据
func (s *FileService) Get(ctx context.Context, id string) (*models.FileMetadata, error) {
	return s.repo.GetByID(id)
}

// List 分页列出文件
func (s *FileService) List(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.FileMetadata, int64, error) {
	return s.repo.List(offset, limit, filters)
}

// Delete 删除文件、元数据和缓存结果
func (s *FileService) Delete(ctx context.Context, id string) error {
	file, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}

	if err := s.storage.Delete(ctx, file.StoredAs); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("failed to delete stored file: %w", err)
	}
	if err := s.repo.Delete(id); err != nil {
		return fmt.Errorf("failed to delete file record: %w", err)
	}

	if s.results != nil {
		if n, err := s.results.Invalidate(id); err != nil {
			s.logger.WithError(err).WithField("file_id", id).Warn("Failed to invalidate cached results")
		} else if n > 0 {
			s.logger.WithFields(logrus.Fields{"file_id": id, "entries": n}).Debug("Invalidated cached results")
		}
	}

	s.logger.WithField("file_id", id).Info("File deleted")
	return nil
}
