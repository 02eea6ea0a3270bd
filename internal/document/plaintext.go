package document

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// PlainTextExtractor 纯文本提取器
// 换页符分页，宽空白分隔的连续行视为表格
type PlainTextExtractor struct {
	logger *logrus.Logger
}

// NewPlainTextExtractor 创建一个新的纯文本提取器
func NewPlainTextExtractor() Extractor {
	return &PlainTextExtractor{logger: logrus.StandardLogger()}
}

// Extract 提取纯文本文档
func (p *PlainTextExtractor) Extract(ctx context.Context, r io.ReaderAt, size int64, filename string) (*Extraction, error) {
	content, err := readAll(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to read text file: %v", err)
	}
	if strings.TrimSpace(string(content)) == "" {
		return nil, ErrEmptyDocument
	}

	text := strings.ReplaceAll(string(content), "\r\n", "\n")
	rawPages := strings.Split(text, "\f")
	// 末尾换页符后的空白不算一页
	if len(rawPages) > 1 && strings.TrimSpace(rawPages[len(rawPages)-1]) == "" {
		rawPages = rawPages[:len(rawPages)-1]
	}

	result := &Extraction{
		TotalPages: len(rawPages),
		Pages:      make(map[int]string, len(rawPages)),
	}
	for i, body := range rawPages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := i + 1
		result.Pages[page] = body

		var rows [][]string
		for _, line := range strings.Split(body, "\n") {
			rows = append(rows, splitCells(line))
		}
		result.Tables = append(result.Tables, groupTables(page, rows)...)
	}

	p.logger.WithFields(logrus.Fields{
		"file":   filename,
		"pages":  result.TotalPages,
		"tables": len(result.Tables),
	}).Debug("Extracted plain text document")
	return result, nil
}
