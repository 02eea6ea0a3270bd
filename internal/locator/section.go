package locator

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/fyerfyer/finsight/internal/keywords"
	"github.com/sirupsen/logrus"
)

// Confidence 页码映射的可信度
type Confidence string

const (
	// High 在搜索窗口内找到了标题页
	High Confidence = "high"
	// Low 未找到标题页，使用朴素窗口
	Low Confidence = "low"
)

// SectionRange 物理页范围，满足 1 <= Start <= End <= 总页数
type SectionRange struct {
	Start      int        `json:"start"`
	End        int        `json:"end"`
	Logical    int        `json:"logical"`
	Confidence Confidence `json:"confidence"`
}

// Contains 判断物理页是否落在范围内
func (r SectionRange) Contains(page int) bool {
	return page >= r.Start && page <= r.End
}

var (
	// 行尾页码，允许前面有点状引导符
	trailingNumberRe = regexp.MustCompile(`(\d{1,4})\s*$`)
	leaderRe         = regexp.MustCompile(`[.·…_\-\s]{2,}$`)
)

// SectionLocator 财务摘要章节定位器
type SectionLocator struct {
	table      *keywords.Table
	tocPages   int
	searchSpan int
	windowSize int
	logger     *logrus.Logger
}

// SectionOption 章节定位器配置选项
type SectionOption func(*SectionLocator)

// WithLogger 设置日志记录器
func WithLogger(logger *logrus.Logger) SectionOption {
	return func(l *SectionLocator) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithTOCPages 设置扫描目录的页数
func WithTOCPages(n int) SectionOption {
	return func(l *SectionLocator) {
		if n > 0 {
			l.tocPages = n
		}
	}
}

// WithSearchSpan 设置向后搜索标题页的页数
func WithSearchSpan(n int) SectionOption {
	return func(l *SectionLocator) {
		if n > 0 {
			l.searchSpan = n
		}
	}
}

// WithWindowSize 设置章节窗口大小
func WithWindowSize(n int) SectionOption {
	return func(l *SectionLocator) {
		if n > 0 {
			l.windowSize = n
		}
	}
}

// NewSectionLocator 创建章节定位器
func NewSectionLocator(table *keywords.Table, opts ...SectionOption) *SectionLocator {
	if table == nil {
		table = keywords.Default()
	}
	l := &SectionLocator{
		table:      table,
		tocPages:   5,
		searchSpan: 40,
		windowSize: 12,
		logger:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// FindTOCLogicalPage 在前几页目录中查找财务摘要条目的逻辑页码
func (l *SectionLocator) FindTOCLogicalPage(pages map[int]string) (int, bool) {
	for p := 1; p <= l.tocPages; p++ {
		text, ok := pages[p]
		if !ok {
			continue
		}
		for _, line := range strings.Split(text, "\n") {
			lower := strings.ToLower(strings.TrimSpace(line))
			if lower == "" || !keywords.ContainsAny(lower, l.table.TOCPatterns) {
				continue
			}
			if n, ok := TrailingPageNumber(lower); ok {
				l.logger.WithFields(logrus.Fields{
					"toc_page":     p,
					"logical_page": n,
				}).Debug("Found financial summary entry in table of contents")
				return n, true
			}
		}
	}
	return 0, false
}

// MapLogicalToPhysical 将逻辑页码映射为物理页范围
// 找不到标题页时返回低可信度的朴素窗口
func (l *SectionLocator) MapLogicalToPhysical(pages map[int]string, totalPages, logical int) SectionRange {
	naiveStart := clamp(logical, 1, totalPages)
	naive := SectionRange{
		Start:      naiveStart,
		End:        clamp(naiveStart+l.windowSize-1, naiveStart, totalPages),
		Logical:    logical,
		Confidence: Low,
	}

	headings := l.table.AllHeadings()
	last := clamp(naiveStart+l.searchSpan-1, naiveStart, totalPages)
	for p := naiveStart; p <= last; p++ {
		if keywords.ContainsAny(strings.ToLower(pages[p]), headings) {
			return SectionRange{
				Start:      p,
				End:        clamp(p+l.windowSize-1, p, totalPages),
				Logical:    logical,
				Confidence: High,
			}
		}
	}

	l.logger.WithFields(logrus.Fields{
		"logical_page": logical,
		"start":        naive.Start,
		"end":          naive.End,
	}).Warn("Low-confidence section mapping, using naive window")
	return naive
}

// TrailingPageNumber 提取行尾的页码
func TrailingPageNumber(line string) (int, bool) {
	line = strings.TrimSpace(line)
	m := trailingNumberRe.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	// 页码前须是空白或引导符，避免把"2023"之类的正文数字截断
	head := strings.TrimSuffix(line, m[0])
	if head != "" && !leaderRe.MatchString(head+" ") && !strings.HasSuffix(head, " ") {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return 0, false
	}
	// 形如年份的数字只有跟在引导符之后才视为页码，如"for FY 2023"
	if isYearLike(n) && head != "" && !leaderRe.MatchString(head) {
		return 0, false
	}
	return n, true
}

func isYearLike(n int) bool {
	return n >= 1900 && n <= 2099
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
