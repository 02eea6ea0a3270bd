package document

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
)

// HTMLExtractor HTML文档提取器
// 按page-break样式分页，<table>元素转换为原始表格
type HTMLExtractor struct {
	logger *logrus.Logger
}

// NewHTMLExtractor 创建一个新的HTML提取器
func NewHTMLExtractor() Extractor {
	return &HTMLExtractor{logger: logrus.StandardLogger()}
}

// htmlPager 遍历过程中的分页状态
type htmlPager struct {
	ctx     context.Context
	page    int
	texts   map[int][]string
	tables  map[int][][][]string
	maxPage int
}

// Extract 提取HTML文档
func (h *HTMLExtractor) Extract(ctx context.Context, r io.ReaderAt, size int64, filename string) (*Extraction, error) {
	content, err := readAll(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to read html file: %v", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %v", err)
	}
	doc.Find("script, style, noscript").Remove()

	body := doc.Find("body")
	if body.Length() == 0 {
		body = doc.Selection
	}
	if strings.TrimSpace(body.Text()) == "" {
		return nil, ErrEmptyDocument
	}

	pager := &htmlPager{
		ctx:     ctx,
		page:    1,
		maxPage: 1,
		texts:   make(map[int][]string),
		tables:  make(map[int][][][]string),
	}
	if err := pager.walk(body); err != nil {
		return nil, err
	}
	// 正文直接是文本节点
	if len(pager.texts) == 0 && len(pager.tables) == 0 {
		pager.texts[1] = []string{collapseSpaces(body.Text())}
	}

	result := &Extraction{
		TotalPages: pager.maxPage,
		Pages:      make(map[int]string, pager.maxPage),
	}
	for page := 1; page <= pager.maxPage; page++ {
		result.Pages[page] = strings.Join(pager.texts[page], "\n")
		for _, rows := range pager.tables[page] {
			result.Tables = append(result.Tables, rawTable(page, rows))
		}
	}

	h.logger.WithFields(logrus.Fields{
		"file":   filename,
		"pages":  result.TotalPages,
		"tables": len(result.Tables),
	}).Debug("Extracted HTML document")
	return result, nil
}

// walk 遍历块级元素，遇到分页样式时翻页
func (p *htmlPager) walk(parent *goquery.Selection) error {
	var err error
	parent.Children().EachWithBreak(func(_ int, block *goquery.Selection) bool {
		if err = p.ctx.Err(); err != nil {
			return false
		}

		before, after := pageBreaks(block)
		// 分页标记嵌套在容器内时继续向下遍历
		if !before && !after && goquery.NodeName(block) != "table" &&
			block.Find(`[style*="page-break"]`).Length() > 0 {
			err = p.walk(block)
			return err == nil
		}

		if before {
			p.nextPage()
		}
		p.addBlock(block)
		if after {
			p.nextPage()
		}
		return true
	})
	return err
}

func (p *htmlPager) nextPage() {
	// 连续的分页标记不产生空页
	if len(p.texts[p.page]) == 0 && len(p.tables[p.page]) == 0 {
		return
	}
	p.page++
}

func (p *htmlPager) addBlock(block *goquery.Selection) {
	if goquery.NodeName(block) == "table" {
		rows := tableRows(block)
		if len(rows) > 0 {
			p.tables[p.page] = append(p.tables[p.page], rows)
			p.texts[p.page] = append(p.texts[p.page], joinRows(rows))
			p.maxPage = max(p.maxPage, p.page)
		}
		return
	}

	block.Find("table").Each(func(_ int, table *goquery.Selection) {
		if rows := tableRows(table); len(rows) > 0 {
			p.tables[p.page] = append(p.tables[p.page], rows)
		}
	})
	if text := collapseSpaces(block.Text()); text != "" {
		p.texts[p.page] = append(p.texts[p.page], text)
		p.maxPage = max(p.maxPage, p.page)
	}
}

// tableRows 读取表格的每一行单元格
func tableRows(table *goquery.Selection) [][]string {
	var rows [][]string
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		row := []string{}
		tr.Find("td, th").Each(func(_ int, cell *goquery.Selection) {
			row = append(row, collapseSpaces(cell.Text()))
		})
		if len(row) > 0 {
			rows = append(rows, row)
		}
	})
	return rows
}

// pageBreaks 判断元素是否带有分页样式
func pageBreaks(s *goquery.Selection) (before, after bool) {
	style, ok := s.Attr("style")
	if !ok {
		return false, false
	}
	style = strings.ToLower(strings.ReplaceAll(style, " ", ""))
	before = strings.Contains(style, "page-break-before:always") || strings.Contains(style, "break-before:page")
	after = strings.Contains(style, "page-break-after:always") || strings.Contains(style, "break-after:page")
	return before, after
}

func collapseSpaces(s string) string {
	s = strings.ReplaceAll(s, " ", " ")
	return strings.Join(strings.Fields(s), " ")
}
