package analysis

import (
	"strings"

	"github.com/fyerfyer/finsight/internal/document"
	"github.com/fyerfyer/finsight/internal/extract"
	"github.com/fyerfyer/finsight/internal/kpi"
	"github.com/fyerfyer/finsight/internal/locator"
	"github.com/fyerfyer/finsight/internal/numeric"
	"github.com/sirupsen/logrus"
)

// Input 一个文档的提取结果
type Input struct {
	TotalPages int
	Pages      map[int]string
	Tables     []extract.RawTable
	FileName   string
}

// InputFrom 将文档提取结果转换为流水线输入
func InputFrom(ex *document.Extraction, fileName string) *Input {
	if ex == nil {
		return nil
	}
	return &Input{
		TotalPages: ex.TotalPages,
		Pages:      ex.Pages,
		Tables:     ex.Tables,
		FileName:   fileName,
	}
}

// FinancialResult 财务分析结果
type FinancialResult struct {
	Company       string               `json:"company"`
	BalanceSheet  []extract.KPIRecord  `json:"balance_sheet"`
	PnL           []extract.KPIRecord  `json:"pnl"`
	CashFlow      []extract.KPIRecord  `json:"cash_flow"`
	Flags         []extract.Flag       `json:"flags"`
	ImportantKPIs kpi.HeadlineSet      `json:"important_kpis"`
	AbsoluteKPIs  map[string]int64     `json:"absolute_kpis"`
	SectionRange  locator.SectionRange `json:"section_range"`
	Scale         numeric.ScaleUnit    `json:"scale"`
	SummaryText   string               `json:"summary_text"`
}

// FinancialPipeline 财务报表分析流水线
// 定位财务摘要章节 -> 表格分类与KPI提取 -> 指标汇总
type FinancialPipeline struct {
	opts      Options
	locator   *locator.SectionLocator
	extractor *extract.Extractor
	logger    *logrus.Logger
}

// NewFinancialPipeline 创建财务分析流水线
func NewFinancialPipeline(opts Options, pipelineOpts ...PipelineOption) *FinancialPipeline {
	s := newSettings(pipelineOpts)
	return &FinancialPipeline{
		opts:      opts,
		locator:   opts.newSectionLocator(s.logger),
		extractor: opts.newExtractor(s.logger),
		logger:    s.logger,
	}
}

// Run 分析单个文档
func (p *FinancialPipeline) Run(in *Input) (*FinancialResult, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	logical, ok := p.locator.FindTOCLogicalPage(in.Pages)
	if !ok {
		logical = p.opts.DefaultLogicalPage
		p.logger.WithFields(logrus.Fields{
			"file":    in.FileName,
			"logical": logical,
		}).Info("Financial summary not found in TOC, using default page")
	}

	section := p.locator.MapLogicalToPhysical(in.Pages, in.TotalPages, logical)

	// 只保留章节范围内的表格和页面
	var tables []extract.RawTable
	for _, t := range in.Tables {
		if section.Contains(t.Page) {
			tables = append(tables, t)
		}
	}
	pages := make(map[int]string, section.End-section.Start+1)
	var text strings.Builder
	for page := section.Start; page <= section.End; page++ {
		if body, ok := in.Pages[page]; ok {
			pages[page] = body
			text.WriteString(body)
			text.WriteString("\n")
		}
	}

	stmts := p.extractor.Extract(tables, pages)
	scale := numeric.DetectScale(text.String())
	headline := kpi.Aggregate(stmts)

	result := &FinancialResult{
		Company:       CompanyFromFileName(in.FileName),
		BalanceSheet:  nonNilRecords(stmts.BalanceSheet),
		PnL:           nonNilRecords(stmts.PnL),
		CashFlow:      nonNilRecords(stmts.CashFlow),
		Flags:         stmts.Flags,
		ImportantKPIs: headline,
		AbsoluteKPIs:  absoluteFigures(headline, scale),
		SectionRange:  section,
		Scale:         scale,
		SummaryText:   kpi.Summary(headline),
	}
	if result.Flags == nil {
		result.Flags = []extract.Flag{}
	}

	p.logger.WithFields(logrus.Fields{
		"file":          in.FileName,
		"start":         section.Start,
		"end":           section.End,
		"confidence":    section.Confidence,
		"tables":        len(tables),
		"balance_sheet": len(result.BalanceSheet),
		"pnl":           len(result.PnL),
		"cash_flow":     len(result.CashFlow),
		"flags":         len(result.Flags),
		"scale":         scale,
	}).Info("Financial analysis completed")

	return result, nil
}

// absoluteFigures 按检测到的单位换算为绝对金额
func absoluteFigures(h kpi.HeadlineSet, scale numeric.ScaleUnit) map[string]int64 {
	out := make(map[string]int64)
	for _, name := range kpi.FigureNames {
		if v := h.Figure(name); v != nil {
			out[name] = numeric.ToAbsolute(*v, scale)
		}
	}
	return out
}

func nonNilRecords(records []extract.KPIRecord) []extract.KPIRecord {
	if records == nil {
		return []extract.KPIRecord{}
	}
	return records
}
