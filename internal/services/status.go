package services

import (
	"sync"

	"github.com/fyerfyer/finsight/internal/models"
	"github.com/fyerfyer/finsight/internal/repository"
	"github.com/sirupsen/logrus"
)

// FileStatusManager 文件状态管理器
// 同一文件的并发分析以最后完成的结果为准
type FileStatusManager struct {
	repo   repository.FileRepository
	logger *logrus.Logger
	mu     sync.Mutex
}

// NewFileStatusManager 创建文件状态管理器
func NewFileStatusManager(repo repository.FileRepository, logger *logrus.Logger) *FileStatusManager {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &FileStatusManager{repo: repo, logger: logger}
}

// MarkProcessing 标记为分析中
func (m *FileStatusManager) MarkProcessing(fileID string) error {
	return m.set(fileID, models.FileStatusProcessing, "")
}

// MarkCompleted 标记为分析完成
func (m *FileStatusManager) MarkCompleted(fileID string) error {
	return m.set(fileID, models.FileStatusCompleted, "")
}

// MarkFailed 标记为分析失败
func (m *FileStatusManager) MarkFailed(fileID string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return m.set(fileID, models.FileStatusFailed, msg)
}

func (m *FileStatusManager) set(fileID string, status models.FileStatus, msg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.repo.UpdateStatus(fileID, status, msg); err != nil {
		m.logger.WithError(err).WithFields(logrus.Fields{
			"file_id": fileID,
			"status":  status,
		}).Error("Failed to update file status")
		return err
	}

	m.logger.WithFields(logrus.Fields{
		"file_id": fileID,
		"status":  status,
	}).Debug("File status updated")
	return nil
}
