package handler

import (
	"errors"

	"github.com/fyerfyer/finsight/api/middleware"
	"github.com/fyerfyer/finsight/internal/analysis"
	"github.com/fyerfyer/finsight/internal/document"
	"github.com/fyerfyer/finsight/internal/models"
	"github.com/fyerfyer/finsight/internal/report"
	"github.com/fyerfyer/finsight/internal/services"
	"github.com/fyerfyer/finsight/pkg/taskqueue"
)

// toAppError 将领域错误映射为HTTP错误
func toAppError(err error) error {
	var inputErr *analysis.InputError
	switch {
	case errors.Is(err, models.ErrFileNotFound):
		return middleware.NewNotFoundError("file not found")
	case errors.Is(err, models.ErrAnalysisNotFound):
		return middleware.NewNotFoundError("analysis not found")
	case errors.Is(err, taskqueue.ErrTaskNotFound):
		return middleware.NewNotFoundError("task not found")
	case errors.Is(err, models.ErrUnsupportedFileType), errors.Is(err, document.ErrUnsupportedType):
		return middleware.NewValidationError("unsupported file type, only .pdf, .html, .htm and .txt are accepted")
	case errors.Is(err, report.ErrUnsupportedFormat):
		return middleware.NewValidationError("unsupported report format", err.Error())
	case errors.Is(err, models.ErrFileTooLarge):
		return middleware.NewTooLargeError(err.Error())
	case errors.Is(err, services.ErrAsyncDisabled):
		return middleware.NewBusinessError("asynchronous analysis is not enabled")
	case errors.As(err, &inputErr):
		return middleware.NewUnprocessableError("document cannot be analyzed", inputErr.Error())
	case errors.Is(err, document.ErrEmptyDocument):
		return middleware.NewUnprocessableError("document has no extractable text")
	default:
		return err
	}
}
