package document

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/sirupsen/logrus"
)

const (
	// 文字间距超过字号的该倍数时切分为新单元格
	cellGapFactor = 1.5
	// 单元格之间的最小间距（pt）
	minCellGap = 10.0
	// 缺少宽度信息时按此估计每个字符的宽度（pt）
	estimatedCharWidth = 5.0
)

// PDFExtractor PDF文档提取器
// pdfcpu负责校验和页数，逐页文本和按行坐标的文本来自ledongthuc/pdf
type PDFExtractor struct {
	logger *logrus.Logger
}

// NewPDFExtractor 创建一个新的PDF提取器
func NewPDFExtractor() Extractor {
	return &PDFExtractor{logger: logrus.StandardLogger()}
}

// Extract 提取PDF的逐页文本和表格
func (p *PDFExtractor) Extract(ctx context.Context, r io.ReaderAt, size int64, filename string) (result *Extraction, err error) {
	// 损坏的PDF可能导致解析库panic
	defer func() {
		if rec := recover(); rec != nil {
			result = nil
			err = fmt.Errorf("panic during PDF extraction: %v", rec)
		}
	}()

	conf := model.NewDefaultConfiguration()
	if err := api.Validate(io.NewSectionReader(r, 0, size), conf); err != nil {
		return nil, fmt.Errorf("failed to validate PDF: %v", err)
	}
	total, err := api.PageCount(io.NewSectionReader(r, 0, size), conf)
	if err != nil {
		return nil, fmt.Errorf("failed to count PDF pages: %v", err)
	}
	if total == 0 {
		return nil, ErrEmptyDocument
	}

	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %v", err)
	}

	result = &Extraction{
		TotalPages: total,
		Pages:      make(map[int]string, total),
	}
	for i := 1; i <= min(total, reader.NumPage()); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			p.logger.WithFields(logrus.Fields{
				"file":  filename,
				"page":  i,
				"error": err.Error(),
			}).Warn("Failed to extract page text")
			continue
		}

		rows, err := page.GetTextByRow()
		if err != nil {
			p.logger.WithFields(logrus.Fields{
				"file":  filename,
				"page":  i,
				"error": err.Error(),
			}).Warn("Failed to extract page rows")
		}

		grid := rowsToCells(rows)
		// 纯文本缺失时用按行拼接的文本代替
		if strings.TrimSpace(text) == "" {
			text = joinRows(grid)
		}
		result.Pages[i] = text
		result.Tables = append(result.Tables, groupTables(i, grid)...)
	}

	p.logger.WithFields(logrus.Fields{
		"file":   filename,
		"pages":  result.TotalPages,
		"tables": len(result.Tables),
	}).Debug("Extracted PDF document")
	return result, nil
}

// rowsToCells 按水平间距将每行文字切分为单元格，行按从上到下排列
func rowsToCells(rows pdf.Rows) [][]string {
	sorted := make(pdf.Rows, 0, len(rows))
	for _, row := range rows {
		if row != nil && len(row.Content) > 0 {
			sorted = append(sorted, row)
		}
	}
	// PDF坐标原点在左下角
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Position > sorted[j].Position
	})

	grid := make([][]string, 0, len(sorted))
	for _, row := range sorted {
		grid = append(grid, splitRow(row.Content))
	}
	return grid
}

// splitRow 把一行内的文字片段合并为单元格
func splitRow(texts pdf.TextHorizontal) []string {
	items := make([]pdf.Text, len(texts))
	copy(items, texts)
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].X < items[j].X
	})

	var cells []string
	var current strings.Builder
	lastEnd := 0.0
	for i, t := range items {
		if i > 0 {
			gap := t.X - lastEnd
			if gap > max(t.FontSize*cellGapFactor, minCellGap) {
				cells = appendCell(cells, current.String())
				current.Reset()
			} else if gap > 1 && !strings.HasSuffix(current.String(), " ") {
				// 同一单元格内的词间距
				current.WriteString(" ")
			}
		}
		current.WriteString(t.S)
		lastEnd = textEnd(t)
	}
	return appendCell(cells, current.String())
}

// textEnd 文字片段的右边界，按行提取时没有宽度信息
func textEnd(t pdf.Text) float64 {
	if t.W > 0 {
		return t.X + t.W
	}
	return t.X + float64(utf8.RuneCountInString(t.S))*estimatedCharWidth
}

func appendCell(cells []string, cell string) []string {
	cell = strings.Join(strings.Fields(cell), " ")
	if cell == "" {
		return cells
	}
	return append(cells, cell)
}

func joinRows(grid [][]string) string {
	lines := make([]string, 0, len(grid))
	for _, row := range grid {
		lines = append(lines, strings.Join(row, "  "))
	}
	return strings.Join(lines, "\n")
}
