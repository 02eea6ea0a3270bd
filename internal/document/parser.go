package document

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fyerfyer/finsight/internal/extract"
)

var (
	// ErrEmptyDocument 文档没有任何页面或文本
	ErrEmptyDocument = errors.New("document has no pages")
	// ErrUnsupportedType 不支持的文档类型
	ErrUnsupportedType = errors.New("unsupported document type")
)

// Extractor 文档提取器接口
// 负责将不同格式的文档转换为逐页文本和原始表格
type Extractor interface {
	// Extract 从ReaderAt提取文档内容，filename用于日志和类型判断
	Extract(ctx context.Context, r io.ReaderAt, size int64, filename string) (*Extraction, error)
}

// Extraction 提取结果
type Extraction struct {
	TotalPages int                // 总页数
	Pages      map[int]string     // 物理页码（从1开始）到页面文本
	Tables     []extract.RawTable // 原始表格
}

// ContentType 表示文档的内容类型
type ContentType string

const (
	// PDF 文档类型
	PDF ContentType = "pdf"
	// HTML 网页类型，常见于电子披露文件
	HTML ContentType = "html"
	// PlainText 纯文本类型
	PlainText ContentType = "plaintext"
	// Unknown 未知类型
	Unknown ContentType = "unknown"
)

// ExtractorFor 提取器工厂函数，根据文件类型创建对应的提取器
func ExtractorFor(filename string) (Extractor, error) {
	switch DetectContentType(filename) {
	case PDF:
		return NewPDFExtractor(), nil
	case HTML:
		return NewHTMLExtractor(), nil
	case PlainText:
		return NewPlainTextExtractor(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, filepath.Ext(filename))
	}
}

// DetectContentType 根据文件扩展名检测内容类型
func DetectContentType(filename string) ContentType {
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".pdf":
		return PDF
	case ".html", ".htm":
		return HTML
	case ".txt":
		return PlainText
	default:
		return Unknown
	}
}

// MIMEType 内容类型对应的MIME类型
func (c ContentType) MIMEType() string {
	switch c {
	case PDF:
		return "application/pdf"
	case HTML:
		return "text/html"
	case PlainText:
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}

// ExtractFile 提取本地文件
func ExtractFile(ctx context.Context, path string) (*Extraction, error) {
	extractor, err := ExtractorFor(path)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open document: %v", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat document: %v", err)
	}
	return extractor.Extract(ctx, file, info.Size(), filepath.Base(path))
}

// readAll 读取ReaderAt的全部内容
func readAll(r io.ReaderAt, size int64) ([]byte, error) {
	return io.ReadAll(io.NewSectionReader(r, 0, size))
}
