package report

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/fyerfyer/finsight/internal/analysis"
	"github.com/fyerfyer/finsight/internal/extract"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleResults(t *testing.T) (*analysis.FinancialResult, *analysis.NarrativeResult) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	in := &analysis.Input{
		TotalPages: 4,
		FileName:   "Acme_Industries.pdf",
		Pages: map[int]string{
			1: "Contents\nSummary of financial information 2\nManagement's Discussion and Analysis 2\nLegal 3",
			2: "SUMMARY BALANCE SHEET (Rs. in crore)",
			4: "Revenue grew strongly.\n\nMargins improved.",
		},
		Tables: []extract.RawTable{
			{Page: 2, Rows: [][]string{
				{"Particulars", "FY2024", "FY2023"},
				{"Total Assets", "1,000", "900"},
				{"Total Equity", "600", "550"},
			}},
		},
	}

	fin, err := analysis.NewFinancialPipeline(analysis.DefaultOptions(), analysis.WithLogger(logger)).Run(in)
	require.NoError(t, err)
	narrative, err := analysis.NewNarrativePipeline(analysis.DefaultOptions(), analysis.WithLogger(logger)).Run(in)
	require.NoError(t, err)
	return fin, narrative
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": Markdown, "MD": Markdown, "markdown": Markdown, "html": HTML, "xlsx": XLSX, "Excel": XLSX} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseFormat("docx")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	assert.Equal(t, ".xlsx", XLSX.Extension())
	assert.True(t, strings.HasPrefix(HTML.ContentType(), "text/html"))
}

func TestRenderMarkdown(t *testing.T) {
	fin, narrative := sampleResults(t)

	out := string(RenderMarkdown(fin, narrative))
	assert.Contains(t, out, "# Financial analysis: Acme Industries")
	assert.Contains(t, out, "| Total Assets | 1000 | 10000000000 | 900 | 1000 |")
	assert.Contains(t, out, "| Equity Ratio | 0.6000 |")
	assert.Contains(t, out, "## Balance sheet")
	assert.Contains(t, out, "| Total Equity | 600 | 550 |")
	assert.Contains(t, out, "## Management discussion")
	assert.Contains(t, out, "> Revenue grew strongly.")
	assert.Contains(t, out, "> Margins improved.")
}

func TestRenderMarkdownWithoutNarrative(t *testing.T) {
	fin, _ := sampleResults(t)

	out := string(RenderMarkdown(fin, nil))
	assert.NotContains(t, out, "Management discussion")
}

func TestRenderMarkdownFailedNarrative(t *testing.T) {
	fin, _ := sampleResults(t)

	out := string(RenderMarkdown(fin, &analysis.NarrativeResult{Message: "MDA section not found in TOC"}))
	assert.Contains(t, out, "_MDA section not found in TOC_")
}

func TestRenderHTML(t *testing.T) {
	fin, narrative := sampleResults(t)

	out := string(RenderHTML(fin, narrative))
	assert.Contains(t, out, "<html")
	assert.Contains(t, out, "<title>Financial analysis: Acme Industries</title>")
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "Total Assets")
}

func TestRenderXLSX(t *testing.T) {
	fin, _ := sampleResults(t)

	data, err := Render(XLSX, fin, nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{sheetKPIs, sheetBalanceSheet, sheetPnL, sheetCashFlow}, f.GetSheetList())

	company, err := f.GetCellValue(sheetKPIs, "B1")
	require.NoError(t, err)
	assert.Equal(t, "Acme Industries", company)

	rows, err := f.GetRows(sheetBalanceSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"Item", "col_1", "col_2"}, rows[0])
	assert.Equal(t, "Total Assets", rows[2][0])
	assert.Equal(t, "1000", rows[2][1])
}

func TestRenderRejectsMissingResult(t *testing.T) {
	_, err := Render(Markdown, nil, nil)
	assert.Error(t, err)

	fin, _ := sampleResults(t)
	_, err = Render(Format("pdf"), fin, nil)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
