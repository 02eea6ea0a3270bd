package keywords

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchSectionOrder(t *testing.T) {
	table := Default()

	assert.Equal(t, BalanceSheet, table.MatchSection("Restated Balance Sheet as at March 31", table.SectionPhrases))
	assert.Equal(t, PnL, table.MatchSection("Statement of Profit and Loss", table.SectionPhrases))
	assert.Equal(t, CashFlow, table.MatchSection("CASH FLOW STATEMENT", table.SectionPhrases))
	assert.Equal(t, Unknown, table.MatchSection("Capitalisation statement", table.SectionPhrases))

	// 同时命中时资产负债表优先
	assert.Equal(t, BalanceSheet, table.MatchSection("balance sheet and cash flow", table.SectionPhrases))
}

func TestAllHeadings(t *testing.T) {
	table := Default()
	all := table.AllHeadings()

	assert.Len(t, all, len(table.TOCPatterns)+len(table.HeadingPhrases))
	assert.Contains(t, all, "summary of financial information")
	assert.Contains(t, all, "summary balance sheet")
}

func TestParseOverride(t *testing.T) {
	data := []byte(`
row_labels:
  pnl: ["Turnover", "Surplus"]
toc_patterns:
  - "Financial Highlights"
`)
	table, err := Parse(data)
	require.NoError(t, err)

	// 覆盖的字段
	assert.Equal(t, []string{"turnover", "surplus"}, table.RowLabels[PnL])
	assert.Equal(t, []string{"financial highlights"}, table.TOCPatterns)

	// 未覆盖的字段保留默认值
	assert.Equal(t, Default().RowLabels[BalanceSheet], table.RowLabels[BalanceSheet])
	assert.Equal(t, Default().NarrativePhrases, table.NarrativePhrases)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keywords.yaml")
	require.NoError(t, os.WriteFile(path, []byte("narrative_phrases: [\"Directors Report\"]\n"), 0644))

	table, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"directors report"}, table.NarrativePhrases)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Parse([]byte("toc_patterns: [unterminated"))
	assert.Error(t, err)
}
