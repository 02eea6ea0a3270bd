package report

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/fyerfyer/finsight/internal/analysis"
	"github.com/fyerfyer/finsight/internal/document"
	"github.com/fyerfyer/finsight/internal/extract"
	"github.com/fyerfyer/finsight/internal/kpi"
	"github.com/fyerfyer/finsight/internal/numeric"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// 报告中展示的原文段落数
const excerptParagraphs = 3

// RenderMarkdown 渲染Markdown报告
func RenderMarkdown(fin *analysis.FinancialResult, narrative *analysis.NarrativeResult) []byte {
	var b bytes.Buffer

	fmt.Fprintf(&b, "# Financial analysis: %s\n\n", fin.Company)
	fmt.Fprintf(&b, "- Pages: %d-%d (%s confidence)\n", fin.SectionRange.Start, fin.SectionRange.End, fin.SectionRange.Confidence)
	fmt.Fprintf(&b, "- Scale: %s\n\n", fin.Scale)

	h := fin.ImportantKPIs
	b.WriteString("## Headline figures\n\n")
	b.WriteString("| KPI | Value | Absolute | Latest | Prev 1 | Prev 2 |\n")
	b.WriteString("|---|---:|---:|---:|---:|---:|\n")
	for _, name := range kpi.FigureNames {
		v := h.Figure(name)
		if v == nil {
			continue
		}
		p := h.Periods[name]
		fmt.Fprintf(&b, "| %s | %s | %d | %s | %s | %s |\n",
			title(name), numeric.Format(*v), fin.AbsoluteKPIs[name],
			optional(p.Latest), optional(p.Prev1), optional(p.Prev2))
	}
	b.WriteString("\n")

	if len(h.Ratios) > 0 {
		b.WriteString("## Ratios\n\n| Ratio | Value |\n|---|---:|\n")
		for _, name := range sortedKeys(h.Ratios) {
			fmt.Fprintf(&b, "| %s | %.4f |\n", title(name), h.Ratios[name])
		}
		b.WriteString("\n")
	}

	if len(h.Trends) > 0 {
		b.WriteString("## Trends\n\n| Trend | Value |\n|---|---:|\n")
		for _, name := range sortedKeys(h.Trends) {
			fmt.Fprintf(&b, "| %s | %.2f%% |\n", title(name), h.Trends[name])
		}
		b.WriteString("\n")
	}

	if fin.SummaryText != "" {
		fmt.Fprintf(&b, "%s\n\n", fin.SummaryText)
	}

	writeRecords(&b, "Balance sheet", fin.BalanceSheet)
	writeRecords(&b, "Profit and loss", fin.PnL)
	writeRecords(&b, "Cash flow", fin.CashFlow)

	if len(fin.Flags) > 0 {
		b.WriteString("## Flags\n\n")
		for _, f := range fin.Flags {
			fmt.Fprintf(&b, "- page %d: %s\n", f.Page, f.Note)
		}
		b.WriteString("\n")
	}

	if narrative != nil {
		writeNarrative(&b, narrative)
	}
	return b.Bytes()
}

// RenderHTML 将Markdown报告转换为完整的HTML页面
func RenderHTML(fin *analysis.FinancialResult, narrative *analysis.NarrativeResult) []byte {
	extensions := parser.CommonExtensions | parser.AutoHeadingIDs
	mdParser := parser.NewWithExtensions(extensions)
	doc := mdParser.Parse(RenderMarkdown(fin, narrative))

	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.CompletePage | html.HrefTargetBlank,
		Title: "Financial analysis: " + fin.Company,
	})
	return markdown.Render(doc, renderer)
}

func writeRecords(b *bytes.Buffer, heading string, records []extract.KPIRecord) {
	if len(records) == 0 {
		return
	}

	columns := recordColumns(records)
	fmt.Fprintf(b, "## %s\n\n| Item |", heading)
	for _, col := range columns {
		fmt.Fprintf(b, " %s |", col)
	}
	b.WriteString("\n|---|")
	b.WriteString(strings.Repeat("---:|", len(columns)))
	b.WriteString("\n")

	for _, rec := range records {
		fmt.Fprintf(b, "| %s |", escapeCell(rec.LabelText()))
		for _, col := range columns {
			cell, _ := rec.Value(col)
			fmt.Fprintf(b, " %s |", escapeCell(cell.String()))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

func writeNarrative(b *bytes.Buffer, n *analysis.NarrativeResult) {
	b.WriteString("## Management discussion\n\n")
	if !n.Success {
		fmt.Fprintf(b, "_%s_\n", n.Message)
		return
	}

	fmt.Fprintf(b, "Pages %d-%d, %d characters extracted.\n\n", n.StartPage, n.EndPage, n.ExtractedChars)
	fmt.Fprintf(b, "%s\n\n", n.Summary)

	paragraphs := document.SplitParagraphs(n.Excerpt)
	if len(paragraphs) > excerptParagraphs {
		paragraphs = paragraphs[:excerptParagraphs]
	}
	for _, p := range paragraphs {
		fmt.Fprintf(b, "> %s\n>\n", strings.Join(strings.Fields(p), " "))
	}
}

// recordColumns 按首次出现顺序收集列标识
func recordColumns(records []extract.KPIRecord) []string {
	seen := make(map[string]bool)
	var columns []string
	for _, rec := range records {
		for _, cv := range rec.Values {
			if !seen[cv.Column] {
				seen[cv.Column] = true
				columns = append(columns, cv.Column)
			}
		}
	}
	return columns
}

func optional(v *float64) string {
	if v == nil {
		return ""
	}
	return numeric.Format(*v)
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// title 将键名转换为标题形式
func title(key string) string {
	words := strings.Split(key, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
