package report

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fyerfyer/finsight/internal/analysis"
)

// Format 报告格式
type Format string

const (
	// Markdown 报告
	Markdown Format = "md"
	// HTML 报告
	HTML Format = "html"
	// XLSX 电子表格
	XLSX Format = "xlsx"
)

// ErrUnsupportedFormat 不支持的报告格式
var ErrUnsupportedFormat = errors.New("unsupported report format")

// ParseFormat 解析报告格式，空字符串返回Markdown
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "md", "markdown":
		return Markdown, nil
	case "html", "htm":
		return HTML, nil
	case "xlsx", "excel":
		return XLSX, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, s)
	}
}

// ContentType 对应的HTTP内容类型
func (f Format) ContentType() string {
	switch f {
	case HTML:
		return "text/html; charset=utf-8"
	case XLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/markdown; charset=utf-8"
	}
}

// Extension 文件扩展名
func (f Format) Extension() string {
	return "." + string(f)
}

// Render 按格式渲染报告，narrative可以为nil
func Render(format Format, fin *analysis.FinancialResult, narrative *analysis.NarrativeResult) ([]byte, error) {
	if fin == nil {
		return nil, errors.New("no financial result to render")
	}

	switch format {
	case Markdown:
		return RenderMarkdown(fin, narrative), nil
	case HTML:
		return RenderHTML(fin, narrative), nil
	case XLSX:
		return RenderXLSX(fin)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}
