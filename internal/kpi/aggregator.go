package kpi

import (
	"math"
	"strings"

	"github.com/fyerfyer/finsight/internal/extract"
)

// 比率键名
const (
	RatioDebtToEquity        = "debt_to_equity"
	RatioEquity              = "equity_ratio"
	RatioNetProfitMargin     = "net_profit_margin"
	RatioReturnOnEquity      = "return_on_equity"
	RatioReturnOnAssets      = "return_on_assets"
	RatioCashFlowToNetIncome = "cash_flow_to_net_income"
	RatioCurrent             = "current_ratio"
	RatioAssetTurnover       = "asset_turnover"
	FreeCashFlow             = "free_cash_flow"
)

// 指标键名
const (
	TotalAssets       = "total_assets"
	TotalEquity       = "total_equity"
	TotalLiabilities  = "total_liabilities"
	Revenue           = "revenue"
	NetProfit         = "net_profit"
	OperatingCashFlow = "operating_cash_flow"
	NetCashFlow       = "net_cash_flow"
)

// 各指标的候选标签，按优先级排列
var (
	revenueKeywords = []string{
		"revenue from operations", "total revenue", "total income", "revenue", "sales",
	}
	netProfitKeywords = []string{
		"profit for the year", "profit for the period", "profit after tax", "net profit", "net income",
	}
	operatingCashKeywords = []string{
		"net cash from operating", "net cash generated from operating",
		"net cash flow from operating", "cash generated from operations",
	}
	netCashKeywords = []string{
		"net increase", "net decrease", "net (decrease)/increase", "net increase/(decrease)", "net cash flow",
	}
	equityKeywords = []string{
		"total equity", "shareholders funds", "shareholders' funds", "net worth",
	}
	capexKeywords = []string{
		"purchase of property, plant and equipment", "capital expenditure",
	}

	// 资产负债表合计行
	balanceTotalMarkers         = []string{"liabilities and equity", "equity and liabilities"}
	nonCurrentLiabilityKeywords = []string{"total non-current liabilities", "total non current liabilities"}
)

// PeriodTriple 最近三期的值
type PeriodTriple struct {
	Latest *float64 `json:"latest"`
	Prev1  *float64 `json:"prev1"`
	Prev2  *float64 `json:"prev2"`
}

// HeadlineSet 文档级别的核心财务指标
type HeadlineSet struct {
	TotalAssets       *float64 `json:"total_assets,omitempty"`
	TotalEquity       *float64 `json:"total_equity,omitempty"`
	TotalLiabilities  *float64 `json:"total_liabilities,omitempty"`
	Revenue           *float64 `json:"revenue,omitempty"`
	NetProfit         *float64 `json:"net_profit,omitempty"`
	OperatingCashFlow *float64 `json:"operating_cash_flow,omitempty"`
	NetCashFlow       *float64 `json:"net_cash_flow,omitempty"`

	Periods map[string]PeriodTriple `json:"periods"`
	Ratios  map[string]float64      `json:"ratios"`
	Trends  map[string]float64      `json:"trends"`
}

// Figure 按键名取指标值
func (h HeadlineSet) Figure(name string) *float64 {
	switch name {
	case TotalAssets:
		return h.TotalAssets
	case TotalEquity:
		return h.TotalEquity
	case TotalLiabilities:
		return h.TotalLiabilities
	case Revenue:
		return h.Revenue
	case NetProfit:
		return h.NetProfit
	case OperatingCashFlow:
		return h.OperatingCashFlow
	case NetCashFlow:
		return h.NetCashFlow
	default:
		return nil
	}
}

// FigureNames 指标输出顺序
var FigureNames = []string{
	TotalAssets, TotalEquity, TotalLiabilities, Revenue, NetProfit, OperatingCashFlow, NetCashFlow,
}

// figure 匹配到的单个指标
type figure struct {
	latest *float64
	period PeriodTriple
}

func (f *figure) found() bool { return f != nil && f.latest != nil }

// Aggregate 从三张报表的KPI记录中计算核心指标和比率
func Aggregate(stmts extract.Statements) HeadlineSet {
	h := HeadlineSet{
		Periods: make(map[string]PeriodTriple),
		Ratios:  make(map[string]float64),
		Trends:  make(map[string]float64),
	}

	bs, pnl, cf := stmts.BalanceSheet, stmts.PnL, stmts.CashFlow

	figures := map[string]*figure{
		TotalAssets:       findTotalAssets(bs),
		TotalEquity:       findTotalEquity(bs),
		TotalLiabilities:  findTotalLiabilities(bs),
		Revenue:           findByKeywords(pnl, revenueKeywords),
		NetProfit:         findByKeywords(pnl, netProfitKeywords),
		OperatingCashFlow: findByKeywords(cf, operatingCashKeywords),
		NetCashFlow:       findByKeywords(cf, netCashKeywords),
	}
	for name, f := range figures {
		if !f.found() {
			continue
		}
		h.setFigure(name, f.latest)
		h.Periods[name] = f.period
	}

	h.computeRatios(bs, cf)
	h.computeTrends()
	return h
}

func (h *HeadlineSet) setFigure(name string, v *float64) {
	switch name {
	case TotalAssets:
		h.TotalAssets = v
	case TotalEquity:
		h.TotalEquity = v
	case TotalLiabilities:
		h.TotalLiabilities = v
	case Revenue:
		h.Revenue = v
	case NetProfit:
		h.NetProfit = v
	case OperatingCashFlow:
		h.OperatingCashFlow = v
	case NetCashFlow:
		h.NetCashFlow = v
	}
}

func (h *HeadlineSet) computeRatios(bs, cf []extract.KPIRecord) {
	cashFlow := h.OperatingCashFlow
	if cashFlow == nil {
		cashFlow = h.NetCashFlow
	}

	h.setRatio(RatioDebtToEquity, h.TotalLiabilities, h.TotalEquity)
	h.setRatio(RatioEquity, h.TotalEquity, h.TotalAssets)
	h.setRatio(RatioNetProfitMargin, h.NetProfit, h.Revenue)
	h.setRatio(RatioReturnOnEquity, h.NetProfit, h.TotalEquity)
	h.setRatio(RatioReturnOnAssets, h.NetProfit, h.TotalAssets)
	h.setRatio(RatioCashFlowToNetIncome, cashFlow, h.NetProfit)

	currentAssets := findByPredicate(bs, func(label string) bool {
		return strings.Contains(label, "total current assets")
	})
	currentLiabilities := findByPredicate(bs, func(label string) bool {
		return strings.Contains(label, "total current liabilities")
	})
	if currentAssets.found() && currentLiabilities.found() {
		h.setRatio(RatioCurrent, currentAssets.latest, currentLiabilities.latest)
	}
	h.setRatio(RatioAssetTurnover, h.Revenue, h.TotalAssets)

	// 资本支出在现金流量表中通常以负数列示
	capex := findByKeywords(cf, capexKeywords)
	if h.OperatingCashFlow != nil && capex.found() {
		fcf := *h.OperatingCashFlow - math.Abs(*capex.latest)
		if isFinite(fcf) {
			h.Ratios[FreeCashFlow] = fcf
		}
	}
}

func (h *HeadlineSet) setRatio(name string, num, den *float64) {
	if v, ok := safeDiv(num, den); ok {
		h.Ratios[name] = v
	}
}

// computeTrends 根据期间三元组计算同比增长率
func (h *HeadlineSet) computeTrends() {
	for _, name := range []string{Revenue, NetProfit, TotalEquity} {
		p, ok := h.Periods[name]
		if !ok || p.Latest == nil || p.Prev1 == nil || *p.Prev1 == 0 {
			continue
		}
		growth := (*p.Latest - *p.Prev1) / math.Abs(*p.Prev1) * 100
		if isFinite(growth) {
			h.Trends[name+"_growth_pct"] = growth
		}
	}
}

// safeDiv 两个操作数都存在且分母非零时才计算
func safeDiv(num, den *float64) (float64, bool) {
	if num == nil || den == nil || *den == 0 {
		return 0, false
	}
	v := *num / *den
	if !isFinite(v) {
		return 0, false
	}
	return v, true
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// figureOf 从记录中读取最新值和期间三元组
// 最新值取第一个数值列，三元组取最后三个数值列
func figureOf(rec extract.KPIRecord) *figure {
	values := rec.NumericValues()
	if len(values) == 0 {
		return nil
	}

	latest := values[0]
	f := &figure{latest: &latest}
	n := len(values)
	f.period.Latest = ptr(values[n-1])
	if n >= 2 {
		f.period.Prev1 = ptr(values[n-2])
	}
	if n >= 3 {
		f.period.Prev2 = ptr(values[n-3])
	}
	return f
}

// findByPredicate 返回第一条标签满足条件且含数值的记录
func findByPredicate(records []extract.KPIRecord, match func(label string) bool) *figure {
	for _, rec := range records {
		label := normalizeLabel(rec.LabelText())
		if label == "" || !match(label) {
			continue
		}
		if f := figureOf(rec); f != nil {
			return f
		}
	}
	return nil
}

// findByKeywords 按关键词优先级依次搜索
func findByKeywords(records []extract.KPIRecord, keywords []string) *figure {
	for _, kw := range keywords {
		if f := findByPredicate(records, func(label string) bool {
			return strings.Contains(label, kw)
		}); f != nil {
			return f
		}
	}
	return nil
}

func findTotalAssets(bs []extract.KPIRecord) *figure {
	return findByPredicate(bs, func(label string) bool {
		return strings.Contains(label, "total assets") && !containsAny(label, balanceTotalMarkers)
	})
}

func findTotalEquity(bs []extract.KPIRecord) *figure {
	if f := findByPredicate(bs, func(label string) bool {
		return label == "total equity"
	}); f != nil {
		return f
	}

	owners := findByPredicate(bs, func(label string) bool {
		return strings.Contains(label, "equity attributable to owners")
	})
	if owners != nil {
		nci := findByPredicate(bs, func(label string) bool {
			return strings.Contains(label, "non-controlling interest") || strings.Contains(label, "non controlling interest")
		})
		// 少数股东权益缺失按0处理
		if nci == nil {
			return owners
		}
		return sumFigures(owners, nci, true)
	}

	// 最后才做包含匹配，排除资产负债表合计行
	for _, kw := range equityKeywords {
		if f := findByPredicate(bs, func(label string) bool {
			return strings.Contains(label, kw) && !containsAny(label, balanceTotalMarkers)
		}); f != nil {
			return f
		}
	}
	return nil
}

func findTotalLiabilities(bs []extract.KPIRecord) *figure {
	if f := findByPredicate(bs, func(label string) bool {
		return strings.Contains(label, "total liabilities") &&
			!strings.Contains(label, "equity") && !strings.Contains(label, "assets")
	}); f != nil {
		return f
	}

	current := findByPredicate(bs, func(label string) bool {
		return strings.Contains(label, "total current liabilities")
	})
	nonCurrent := findByPredicate(bs, func(label string) bool {
		return containsAny(label, nonCurrentLiabilityKeywords)
	})
	// 两部分必须同时存在，不接受部分求和
	if current == nil || nonCurrent == nil {
		return nil
	}
	return sumFigures(current, nonCurrent, false)
}

// sumFigures 两个指标逐期相加
// missingAsZero为true时某期缺失按0处理，否则该期结果缺失
func sumFigures(a, b *figure, missingAsZero bool) *figure {
	return &figure{
		latest: addValues(a.latest, b.latest, missingAsZero),
		period: PeriodTriple{
			Latest: addValues(a.period.Latest, b.period.Latest, missingAsZero),
			Prev1:  addValues(a.period.Prev1, b.period.Prev1, missingAsZero),
			Prev2:  addValues(a.period.Prev2, b.period.Prev2, missingAsZero),
		},
	}
}

func addValues(a, b *float64, missingAsZero bool) *float64 {
	switch {
	case a != nil && b != nil:
		return ptr(*a + *b)
	case !missingAsZero:
		return nil
	case a != nil:
		return ptr(*a)
	case b != nil:
		return ptr(*b)
	default:
		return nil
	}
}

func normalizeLabel(label string) string {
	label = strings.ToLower(strings.TrimSpace(label))
	return strings.Join(strings.Fields(label), " ")
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func ptr(v float64) *float64 { return &v }
