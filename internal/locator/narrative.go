package locator

import (
	"strings"

	"github.com/fyerfyer/finsight/internal/keywords"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultNarrativeSpan 找不到结束页时的默认跨度
	DefaultNarrativeSpan = 20
	// DefaultNarrativeTOCPages 目录可能跨越多页，比财务摘要扫描得更远
	DefaultNarrativeTOCPages = 20
	// DefaultPageOffset 招股书正文页码通常从第三个物理页开始
	DefaultPageOffset = 2
)

// NarrativeLocator 管理层讨论与分析章节定位器
type NarrativeLocator struct {
	table      *keywords.Table
	tocPages   int
	pageOffset int
	logger     *logrus.Logger
}

// NarrativeOption 叙述章节定位器配置选项
type NarrativeOption func(*NarrativeLocator)

// WithNarrativeLogger 设置日志记录器
func WithNarrativeLogger(logger *logrus.Logger) NarrativeOption {
	return func(l *NarrativeLocator) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithNarrativeTOCPages 设置拼接目录文本的页数
func WithNarrativeTOCPages(n int) NarrativeOption {
	return func(l *NarrativeLocator) {
		if n > 0 {
			l.tocPages = n
		}
	}
}

// WithPageOffset 设置逻辑页到物理页的偏移量
func WithPageOffset(offset int) NarrativeOption {
	return func(l *NarrativeLocator) {
		l.pageOffset = offset
	}
}

// NewNarrativeLocator 创建叙述章节定位器
func NewNarrativeLocator(table *keywords.Table, opts ...NarrativeOption) *NarrativeLocator {
	if table == nil {
		table = keywords.Default()
	}
	l := &NarrativeLocator{
		table:      table,
		tocPages:   DefaultNarrativeTOCPages,
		pageOffset: DefaultPageOffset,
		logger:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// TOCText 拼接前几页文本作为目录文本
func (l *NarrativeLocator) TOCText(pages map[int]string) string {
	var sb strings.Builder
	for p := 1; p <= l.tocPages; p++ {
		text, ok := pages[p]
		if !ok {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(text)
	}
	return sb.String()
}

// FindLogicalRange 在目录文本中查找章节的逻辑起止页
func (l *NarrativeLocator) FindLogicalRange(tocText string) (start, end int, found bool) {
	lines := tocLines(tocText)

	for i, line := range lines {
		if !keywords.ContainsAny(line, l.table.NarrativePhrases) {
			continue
		}

		// 页码可能在同一行或下一行
		page, ok := TrailingPageNumber(line)
		next := i + 1
		if !ok && i+1 < len(lines) {
			page, ok = TrailingPageNumber(lines[i+1])
			next = i + 2
		}
		if !ok {
			continue
		}

		end = page + DefaultNarrativeSpan
		for _, rest := range lines[min(next, len(lines)):] {
			if n, ok := TrailingPageNumber(rest); ok && n >= page {
				end = n
				break
			}
		}
		return page, end, true
	}
	return 0, 0, false
}

// Locate 查找章节并换算为物理页范围
// 物理页 = 逻辑页 + 偏移量
func (l *NarrativeLocator) Locate(tocText string, totalPages int) (SectionRange, bool) {
	start, end, ok := l.FindLogicalRange(tocText)
	if !ok || totalPages <= 0 {
		return SectionRange{}, false
	}

	physStart := clamp(start+l.pageOffset, 1, totalPages)
	physEnd := clamp(end+l.pageOffset, physStart, totalPages)

	l.logger.WithFields(logrus.Fields{
		"logical_start": start,
		"logical_end":   end,
		"start":         physStart,
		"end":           physEnd,
	}).Debug("Located narrative section")

	return SectionRange{
		Start:      physStart,
		End:        physEnd,
		Logical:    start,
		Confidence: High,
	}, true
}

// ExtractText 拼接范围内各页文本
func (l *NarrativeLocator) ExtractText(pages map[int]string, r SectionRange) string {
	var parts []string
	for p := r.Start; p <= r.End; p++ {
		if text := strings.TrimSpace(pages[p]); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n")
}

// tocLines 统一引号并去掉空行
func tocLines(text string) []string {
	text = strings.ToLower(text)
	text = strings.NewReplacer("â€™", "'", "’", "'", "‘", "'").Replace(text)

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
