package keywords

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Section 财务报表类别
type Section string

const (
	// BalanceSheet 资产负债表
	BalanceSheet Section = "balance_sheet"
	// PnL 利润表
	PnL Section = "pnl"
	// CashFlow 现金流量表
	CashFlow Section = "cash_flow"
	// Unknown 无法识别
	Unknown Section = "unknown"
)

// Sections 分类时的检测顺序
var Sections = []Section{BalanceSheet, PnL, CashFlow}

// Table 共享的关键词表
// 构造后只读，可在多个文档分析之间共享
type Table struct {
	// 页面文本分类关键词
	SectionPhrases map[Section][]string `yaml:"section_phrases"`
	// 行标签兜底分类关键词
	RowLabels map[Section][]string `yaml:"row_labels"`
	// 目录中财务摘要条目
	TOCPatterns []string `yaml:"toc_patterns"`
	// 财务摘要起始页的标题
	HeadingPhrases []string `yaml:"heading_phrases"`
	// 管理层讨论与分析的目录条目
	NarrativePhrases []string `yaml:"narrative_phrases"`
}

// Default 返回内置关键词表
func Default() *Table {
	return &Table{
		SectionPhrases: map[Section][]string{
			BalanceSheet: {
				"balance sheet",
				"statement of assets and liabilities",
				"summary of assets and liabilities",
				"statement of financial position",
				"assets and liabilities",
			},
			PnL: {
				"profit and loss",
				"profit & loss",
				"statement of profit",
				"income statement",
				"statement of operations",
			},
			CashFlow: {
				"cash flow",
				"cash flows",
				"statement of cash",
			},
		},
		RowLabels: map[Section][]string{
			BalanceSheet: {"assets", "liabilities", "equity", "borrowings", "reserves"},
			PnL:          {"revenue", "profit", "income", "expense", "earnings per share"},
			CashFlow:     {"cash", "operating activities", "investing activities", "financing activities"},
		},
		TOCPatterns: []string{
			"summary of restated consolidated financial information",
			"summary restated consolidated financial information",
			"summary of consolidated financial information",
			"summary consolidated financial information",
			"summary of restated financial information",
			"summary restated financial information",
			"restated consolidated financial information",
			"summary of financial information",
			"summary financial information",
		},
		HeadingPhrases: []string{
			"summary of assets and liabilities",
			"summary balance sheet",
			"summary of profit and loss",
			"summary of cash flows",
			"summary restated balance sheet",
			"summary restated statement of profit and loss",
			"summary restated statement of cash flows",
		},
		NarrativePhrases: []string{
			"management's discussion and analysis of financial condition and result of operations",
			"management's discussion and analysis",
			"management discussion and analysis",
			"discussion and analysis of financial condition",
			"analysis of financial condition",
			"financial condition and result of operations",
			"management discussion",
			"md&a",
			"mda",
		},
	}
}

// LoadFile 从YAML文件加载关键词，未给出的字段沿用内置值
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read keyword file: %v", err)
	}
	return Parse(data)
}

// Parse 解析YAML关键词数据
func Parse(data []byte) (*Table, error) {
	var override Table
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("failed to parse keyword file: %v", err)
	}

	t := Default()
	for section, phrases := range override.SectionPhrases {
		t.SectionPhrases[section] = phrases
	}
	for section, labels := range override.RowLabels {
		t.RowLabels[section] = labels
	}
	if len(override.TOCPatterns) > 0 {
		t.TOCPatterns = override.TOCPatterns
	}
	if len(override.HeadingPhrases) > 0 {
		t.HeadingPhrases = override.HeadingPhrases
	}
	if len(override.NarrativePhrases) > 0 {
		t.NarrativePhrases = override.NarrativePhrases
	}
	t.lower()
	return t, nil
}

// AllHeadings 目录条目与标题合并后的集合，用于定位起始页
func (t *Table) AllHeadings() []string {
	all := make([]string, 0, len(t.TOCPatterns)+len(t.HeadingPhrases))
	all = append(all, t.TOCPatterns...)
	return append(all, t.HeadingPhrases...)
}

// MatchSection 按固定顺序返回第一个命中的类别
func (t *Table) MatchSection(text string, phrases map[Section][]string) Section {
	lower := strings.ToLower(text)
	for _, section := range Sections {
		if ContainsAny(lower, phrases[section]) {
			return section
		}
	}
	return Unknown
}

// ContainsAny 判断文本是否包含任一关键词，text须已转为小写
func ContainsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if p != "" && strings.Contains(text, p) {
			return true
		}
	}
	return false
}

func (t *Table) lower() {
	for section, phrases := range t.SectionPhrases {
		t.SectionPhrases[section] = lowerAll(phrases)
	}
	for section, labels := range t.RowLabels {
		t.RowLabels[section] = lowerAll(labels)
	}
	t.TOCPatterns = lowerAll(t.TOCPatterns)
	t.HeadingPhrases = lowerAll(t.HeadingPhrases)
	t.NarrativePhrases = lowerAll(t.NarrativePhrases)
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(strings.TrimSpace(s))
	}
	return out
}
