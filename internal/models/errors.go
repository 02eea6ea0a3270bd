package models

import "errors"

var (
	// ErrFileNotFound 文件不存在
	ErrFileNotFound = errors.New("file not found")

	// ErrAnalysisNotFound 分析记录不存在
	ErrAnalysisNotFound = errors.New("analysis not found")

	// ErrUnsupportedFileType 不支持的文件类型
	ErrUnsupportedFileType = errors.New("unsupported file type")

	// ErrFileTooLarge 文件超过大小限制
	ErrFileTooLarge = errors.New("file too large")

	// ErrInvalidFileStatus 无效的文件状态
	ErrInvalidFileStatus = errors.New("invalid file status")
)
