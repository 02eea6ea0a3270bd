package extract

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fyerfyer/finsight/internal/keywords"
	"github.com/fyerfyer/finsight/internal/numeric"
	"github.com/sirupsen/logrus"
)

const (
	// 标签列的数字占比上限
	labelColumnMaxFraction = 0.3
	// 数值列的平均数字占比下限
	valueColumnMinFraction = 0.5
)

// ErrMalformedTable 表格结构异常
var ErrMalformedTable = errors.New("malformed table")

// NoteUnclassified 无法分类的表格标记
const NoteUnclassified = "unclassified table"

// Extractor 表格分类与KPI提取器
type Extractor struct {
	table          *keywords.Table
	normalizer     *numeric.Normalizer
	preferFirstCol bool
	logger         *logrus.Logger
}

// Option 提取器配置选项
type Option func(*Extractor)

// WithPreferFirstColumnLabels 数字密度启发式不成立时是否仍倾向首列作为标签
func WithPreferFirstColumnLabels(prefer bool) Option {
	return func(e *Extractor) {
		e.preferFirstCol = prefer
	}
}

// WithNormalizer 设置数字归一化器
func WithNormalizer(n *numeric.Normalizer) Option {
	return func(e *Extractor) {
		if n != nil {
			e.normalizer = n
		}
	}
}

// WithLogger 设置日志记录器
func WithLogger(logger *logrus.Logger) Option {
	return func(e *Extractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewExtractor 创建提取器
func NewExtractor(table *keywords.Table, opts ...Option) *Extractor {
	if table == nil {
		table = keywords.Default()
	}
	e := &Extractor{
		table:          table,
		normalizer:     numeric.Default,
		preferFirstCol: true,
		logger:         logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ClassifySection 根据页面文本判断表格所属报表
func (e *Extractor) ClassifySection(pageText string) keywords.Section {
	return e.table.MatchSection(pageText, e.table.SectionPhrases)
}

// Extract 将表格逐个转换为KPI记录并归类
// 单个表格失败只记录flag，不影响其他表格
func (e *Extractor) Extract(tables []RawTable, pages map[int]string) Statements {
	var out Statements
	for _, t := range tables {
		section := e.ClassifySection(pages[t.Page])

		records, err := e.TableToRecords(t.Rows, section)
		if err != nil {
			e.logger.WithFields(logrus.Fields{
				"page":  t.Page,
				"error": err.Error(),
			}).Warn("Skipping malformed table")
			out.Flags = append(out.Flags, Flag{Page: t.Page, Note: err.Error()})
			continue
		}
		if len(records) == 0 {
			continue
		}

		if section != keywords.Unknown {
			out.add(section, records...)
			continue
		}

		if !e.routeByLabel(&out, records) {
			out.Flags = append(out.Flags, Flag{Page: t.Page, Note: NoteUnclassified})
		}
	}

	e.logger.WithFields(logrus.Fields{
		"tables":        len(tables),
		"balance_sheet": len(out.BalanceSheet),
		"pnl":           len(out.PnL),
		"cash_flow":     len(out.CashFlow),
		"flags":         len(out.Flags),
	}).Debug("Extracted KPI records")
	return out
}

// routeByLabel 未分类表格按行标签关键词逐行归类，全部未命中返回false
func (e *Extractor) routeByLabel(out *Statements, records []KPIRecord) bool {
	matched := false
	for _, rec := range records {
		label := strings.ToLower(rec.LabelText())
		if label == "" {
			continue
		}
		section := e.table.MatchSection(label, e.table.RowLabels)
		if section == keywords.Unknown {
			continue
		}
		out.add(section, rec)
		matched = true
	}
	return matched
}

// TableToRecords 将表格的每一行转换为KPI记录
func (e *Extractor) TableToRecords(rows [][]string, section keywords.Section) ([]KPIRecord, error) {
	if rows == nil {
		return nil, fmt.Errorf("%w: no rows", ErrMalformedTable)
	}
	for i, row := range rows {
		if row == nil {
			return nil, fmt.Errorf("%w: row %d is not a list of cells", ErrMalformedTable, i)
		}
	}

	cleaned := cleanRows(rows)
	useLabel := e.useLabelColumn(cleaned, section)

	var records []KPIRecord
	for _, row := range cleaned {
		if allEmpty(row) {
			continue
		}

		rec := KPIRecord{}
		start := 0
		if useLabel {
			start = 1
			if len(row) > 0 && row[0] != "" {
				label := row[0]
				rec.Label = &label
			}
		}
		for i := start; i < len(row); i++ {
			rec.Values = append(rec.Values, ColumnValue{
				Column: ColumnID(i),
				Value:  ParseCell(row[i], e.normalizer),
			})
		}
		records = append(records, rec)
	}
	return records, nil
}

// useLabelColumn 决定首列是否作为标签列
func (e *Extractor) useLabelColumn(rows [][]string, section keywords.Section) bool {
	// 现金流量表首列的数字密度不可靠，强制作为标签
	if section == keywords.CashFlow {
		return true
	}
	if HasLabelColumn(rows) {
		return true
	}
	if !e.preferFirstCol {
		return false
	}

	fractions := ColumnNumericFractions(rows)
	if len(fractions) < 2 || fractions[0] >= labelColumnMaxFraction {
		return false
	}
	for _, row := range rows {
		if len(row) > 0 && row[0] != "" && !IsNumericCell(row[0]) {
			return true
		}
	}
	return false
}

// HasLabelColumn 数字密度启发式：首列数字占比低且其余列数字占比高
func HasLabelColumn(rows [][]string) bool {
	fractions := ColumnNumericFractions(rows)
	if len(fractions) < 2 {
		return false
	}
	rest := 0.0
	for _, f := range fractions[1:] {
		rest += f
	}
	rest /= float64(len(fractions) - 1)
	return fractions[0] < labelColumnMaxFraction && rest > valueColumnMinFraction
}

// ColumnNumericFractions 每列非空单元格中纯数字的占比
func ColumnNumericFractions(rows [][]string) []float64 {
	width := 0
	for _, row := range rows {
		width = max(width, len(row))
	}

	fractions := make([]float64, width)
	for col := 0; col < width; col++ {
		nonEmpty, numericCount := 0, 0
		for _, row := range rows {
			if col >= len(row) {
				continue
			}
			cell := CleanCell(row[col])
			if cell == "" {
				continue
			}
			nonEmpty++
			if IsNumericCell(cell) {
				numericCount++
			}
		}
		if nonEmpty > 0 {
			fractions[col] = float64(numericCount) / float64(nonEmpty)
		}
	}
	return fractions
}

// IsNumericCell 单元格是否为纯数字
func IsNumericCell(s string) bool {
	return numeric.IsNumericToken(CleanCell(s))
}

func cleanRows(rows [][]string) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = make([]string, len(row))
		for j, cell := range row {
			out[i][j] = CleanCell(cell)
		}
	}
	return out
}

func allEmpty(row []string) bool {
	for _, cell := range row {
		if cell != "" {
			return false
		}
	}
	return true
}
