package locator

import (
	"fmt"
	"io"
	"testing"

	"github.com/fyerfyer/finsight/internal/keywords"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// blankDocument 生成指定页数的空白文档
func blankDocument(total int) map[int]string {
	pages := make(map[int]string, total)
	for p := 1; p <= total; p++ {
		pages[p] = fmt.Sprintf("page %d body text", p)
	}
	return pages
}

func TestFindTOCLogicalPage(t *testing.T) {
	l := NewSectionLocator(keywords.Default(), WithLogger(quietLogger()))

	pages := blankDocument(10)
	pages[2] = "TABLE OF CONTENTS\nRisk Factors ........ 20\nSummary of financial information .......... 99\nCapital Structure .... 120"

	logical, ok := l.FindTOCLogicalPage(pages)
	require.True(t, ok)
	assert.Equal(t, 99, logical)
}

func TestFindTOCLogicalPageFirstMatchWins(t *testing.T) {
	l := NewSectionLocator(keywords.Default(), WithLogger(quietLogger()))

	pages := blankDocument(10)
	pages[3] = "Summary Financial Information 150"
	pages[2] = "Summary of Restated Financial Information\nSummary of Restated Financial Information ..... 77\nSummary Financial Information 88"

	logical, ok := l.FindTOCLogicalPage(pages)
	require.True(t, ok)
	assert.Equal(t, 77, logical)
}

func TestFindTOCLogicalPageMiss(t *testing.T) {
	l := NewSectionLocator(keywords.Default(), WithLogger(quietLogger()))

	pages := blankDocument(10)
	// 第6页超出扫描范围
	pages[6] = "Summary of financial information ..... 40"

	_, ok := l.FindTOCLogicalPage(pages)
	assert.False(t, ok)

	// 命中条目但没有页码
	pages[1] = "Summary of financial information"
	_, ok = l.FindTOCLogicalPage(pages)
	assert.False(t, ok)
}

func TestMapLogicalToPhysicalFound(t *testing.T) {
	l := NewSectionLocator(keywords.Default(), WithLogger(quietLogger()))

	pages := blankDocument(300)
	pages[105] = "SUMMARY OF ASSETS AND LIABILITIES\n(Rs. in crore)"

	r := l.MapLogicalToPhysical(pages, 300, 99)
	assert.Equal(t, 105, r.Start)
	assert.Equal(t, 116, r.End)
	assert.Equal(t, High, r.Confidence)
	assert.Equal(t, 99, r.Logical)
}

func TestMapLogicalToPhysicalClipped(t *testing.T) {
	l := NewSectionLocator(keywords.Default(), WithLogger(quietLogger()))

	pages := blankDocument(110)
	pages[105] = "Summary Balance Sheet"

	r := l.MapLogicalToPhysical(pages, 110, 99)
	assert.Equal(t, 105, r.Start)
	assert.Equal(t, 110, r.End)
}

func TestMapLogicalToPhysicalOutsideWindow(t *testing.T) {
	l := NewSectionLocator(keywords.Default(), WithLogger(quietLogger()))

	pages := blankDocument(300)
	// 99 + 40 = 139，超出搜索窗口
	pages[139] = "Summary Balance Sheet"

	r := l.MapLogicalToPhysical(pages, 300, 99)
	assert.Equal(t, 99, r.Start)
	assert.Equal(t, 110, r.End)
	assert.Equal(t, Low, r.Confidence)
}

func TestMapLogicalToPhysicalInvariant(t *testing.T) {
	l := NewSectionLocator(keywords.Default(), WithLogger(quietLogger()))

	for _, tc := range []struct{ total, logical int }{
		{3, 99}, {1, 1}, {50, 0}, {50, -4}, {20, 15},
	} {
		r := l.MapLogicalToPhysical(blankDocument(tc.total), tc.total, tc.logical)
		assert.GreaterOrEqual(t, r.Start, 1, "%+v", tc)
		assert.LessOrEqual(t, r.Start, r.End, "%+v", tc)
		assert.LessOrEqual(t, r.End, tc.total, "%+v", tc)
	}
}

func TestSectionLocatorOptions(t *testing.T) {
	l := NewSectionLocator(nil, WithLogger(quietLogger()), WithWindowSize(3), WithSearchSpan(2), WithTOCPages(1))

	pages := blankDocument(20)
	pages[2] = "Summary of financial information .... 5"
	_, ok := l.FindTOCLogicalPage(pages)
	assert.False(t, ok)

	pages[7] = "summary of cash flows"
	r := l.MapLogicalToPhysical(pages, 20, 5)
	assert.Equal(t, Low, r.Confidence)
	assert.Equal(t, SectionRange{Start: 5, End: 7, Logical: 5, Confidence: Low}, r)

	pages[6] = "summary of cash flows"
	r = l.MapLogicalToPhysical(pages, 20, 5)
	assert.Equal(t, SectionRange{Start: 6, End: 8, Logical: 5, Confidence: High}, r)
}

func TestTrailingPageNumber(t *testing.T) {
	tests := []struct {
		line string
		want int
		ok   bool
	}{
		{"summary of financial information .......... 99", 99, true},
		{"summary of financial information.....42", 42, true},
		{"risk factors 12", 12, true},
		{"  7  ", 7, true},
		{"results for fy2023", 0, false},
		{"summary of financial information for fy 2023", 0, false},
		{"summary of financial information ..... 2023", 2023, true},
		{"restated financial statements 2019", 0, false},
		{"our history 1912", 0, false},
		{"financial statements 1850", 1850, true},
		{"no number here", 0, false},
		{"page 0", 0, false},
	}
	for _, tt := range tests {
		got, ok := TrailingPageNumber(tt.line)
		assert.Equal(t, tt.ok, ok, tt.line)
		assert.Equal(t, tt.want, got, tt.line)
	}
}

func TestNarrativeFindLogicalRange(t *testing.T) {
	l := NewNarrativeLocator(keywords.Default(), WithNarrativeLogger(quietLogger()))

	toc := "CONTENTS\n\nOur Business ..... 150\nManagement’s Discussion and Analysis of Financial Condition and Result of Operations ..... 300\nFinancial Indebtedness ..... 340\n"
	start, end, ok := l.FindLogicalRange(toc)
	require.True(t, ok)
	assert.Equal(t, 300, start)
	assert.Equal(t, 340, end)
}

func TestNarrativeFindLogicalRangeNextLine(t *testing.T) {
	l := NewNarrativeLocator(keywords.Default(), WithNarrativeLogger(quietLogger()))

	toc := "Management Discussion and Analysis\n\n212\nSection VII Legal"
	start, end, ok := l.FindLogicalRange(toc)
	require.True(t, ok)
	assert.Equal(t, 212, start)
	// 之后没有带页码的行，默认跨度20页
	assert.Equal(t, 232, end)
}

func TestNarrativeFindLogicalRangeMiss(t *testing.T) {
	l := NewNarrativeLocator(keywords.Default(), WithNarrativeLogger(quietLogger()))

	_, _, ok := l.FindLogicalRange("Risk Factors 10\nOur Business 40")
	assert.False(t, ok)

	_, _, ok = l.FindLogicalRange("")
	assert.False(t, ok)
}

func TestNarrativeLocateAndExtract(t *testing.T) {
	l := NewNarrativeLocator(keywords.Default(), WithNarrativeLogger(quietLogger()))

	pages := blankDocument(12)
	pages[1] = "Contents\nMD&A 5\nLegal 8"
	pages[6] = "Revenue grew strongly."
	pages[7] = "Margins improved."

	r, ok := l.Locate(l.TOCText(pages), 12)
	require.True(t, ok)
	assert.Equal(t, 7, r.Start)
	assert.Equal(t, 10, r.End)

	text := l.ExtractText(pages, SectionRange{Start: 6, End: 7})
	assert.Equal(t, "Revenue grew strongly.\n\nMargins improved.", text)
}

func TestNarrativeLocatePageOffset(t *testing.T) {
	l := NewNarrativeLocator(keywords.Default(), WithNarrativeLogger(quietLogger()))

	r, ok := l.Locate("Management's discussion and analysis .... 10", 100)
	require.True(t, ok)
	assert.Equal(t, 12, r.Start)
	assert.Equal(t, 32, r.End)
	assert.Equal(t, 10, r.Logical)

	r, ok = l.Locate("Management's discussion and analysis .... 10\nFinancial statements .... 20", 100)
	require.True(t, ok)
	assert.Equal(t, 12, r.Start)
	assert.Equal(t, 22, r.End)
}

func TestNarrativeTOCSpansManyPages(t *testing.T) {
	pages := blankDocument(30)
	pages[1] = "Contents"
	pages[7] = "Management's Discussion and Analysis ..... 14\nFinancial Information ..... 20"

	l := NewNarrativeLocator(keywords.Default(), WithNarrativeLogger(quietLogger()))
	r, ok := l.Locate(l.TOCText(pages), 30)
	require.True(t, ok)
	assert.Equal(t, 16, r.Start)
	assert.Equal(t, 22, r.End)

	// 扫描页数可配置
	short := NewNarrativeLocator(keywords.Default(), WithNarrativeLogger(quietLogger()), WithNarrativeTOCPages(5))
	_, ok = short.Locate(short.TOCText(pages), 30)
	assert.False(t, ok)
}

func TestNarrativeLocateClipped(t *testing.T) {
	l := NewNarrativeLocator(nil, WithNarrativeLogger(quietLogger()), WithPageOffset(0))

	r, ok := l.Locate("Management Discussion and Analysis 8", 10)
	require.True(t, ok)
	assert.Equal(t, 8, r.Start)
	assert.Equal(t, 10, r.End)

	_, ok = l.Locate("Management Discussion and Analysis 8", 0)
	assert.False(t, ok)
}
