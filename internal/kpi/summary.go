package kpi

import (
	"fmt"
	"strings"
)

// Summary 生成核心指标的一段英文描述
func Summary(h HeadlineSet) string {
	var parts []string

	if v, ok := h.Ratios[RatioNetProfitMargin]; ok {
		parts = append(parts, fmt.Sprintf("Net profit margin: %.2f%%", v*100))
	}
	if v, ok := h.Ratios[RatioReturnOnEquity]; ok {
		parts = append(parts, fmt.Sprintf("Return on Equity: %.2f%%", v*100))
	}
	if v, ok := h.Ratios[RatioReturnOnAssets]; ok {
		parts = append(parts, fmt.Sprintf("Return on Assets: %.2f%%", v*100))
	}
	if v, ok := h.Ratios[RatioDebtToEquity]; ok {
		parts = append(parts, fmt.Sprintf("Debt-to-Equity: %.2f", v))
	}
	if v, ok := h.Ratios[RatioEquity]; ok {
		parts = append(parts, fmt.Sprintf("Equity ratio: %.2f", v))
	}
	if v, ok := h.Ratios[RatioCurrent]; ok {
		parts = append(parts, fmt.Sprintf("Current ratio: %.2f", v))
	}
	if v, ok := h.Ratios[RatioAssetTurnover]; ok {
		parts = append(parts, fmt.Sprintf("Asset Turnover: %.2f", v))
	}
	if v, ok := h.Ratios[FreeCashFlow]; ok {
		parts = append(parts, fmt.Sprintf("Free cash flow: %.2f", v))
	}
	if v, ok := h.Trends[Revenue+"_growth_pct"]; ok {
		parts = append(parts, fmt.Sprintf("Revenue growth: %.2f%%", v))
	}
	if v, ok := h.Trends[NetProfit+"_growth_pct"]; ok {
		parts = append(parts, fmt.Sprintf("Net profit growth: %.2f%%", v))
	}

	return strings.Join(parts, "; ")
}
