package report

import (
	"fmt"

	"github.com/fyerfyer/finsight/internal/analysis"
	"github.com/fyerfyer/finsight/internal/extract"
	"github.com/fyerfyer/finsight/internal/kpi"
	"github.com/xuri/excelize/v2"
)

const (
	sheetKPIs         = "KPIs"
	sheetBalanceSheet = "Balance Sheet"
	sheetPnL          = "Profit and Loss"
	sheetCashFlow     = "Cash Flow"
)

// RenderXLSX 导出为电子表格，每张报表一个工作表
func RenderXLSX(fin *analysis.FinancialResult) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %v", err)
	}

	if err := writeKPISheet(f, fin, bold); err != nil {
		return nil, err
	}
	for _, s := range []struct {
		name    string
		records []extract.KPIRecord
	}{
		{sheetBalanceSheet, fin.BalanceSheet},
		{sheetPnL, fin.PnL},
		{sheetCashFlow, fin.CashFlow},
	} {
		if err := writeRecordSheet(f, s.name, s.records, bold); err != nil {
			return nil, err
		}
	}

	// 删除默认工作表
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to remove default sheet: %v", err)
	}
	if idx, err := f.GetSheetIndex(sheetKPIs); err == nil {
		f.SetActiveSheet(idx)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %v", err)
	}
	return buf.Bytes(), nil
}

func writeKPISheet(f *excelize.File, fin *analysis.FinancialResult, headerStyle int) error {
	if _, err := f.NewSheet(sheetKPIs); err != nil {
		return fmt.Errorf("failed to create sheet %s: %v", sheetKPIs, err)
	}

	rows := [][]interface{}{
		{"Company", fin.Company},
		{"Scale", string(fin.Scale)},
		{"Start page", fin.SectionRange.Start},
		{"End page", fin.SectionRange.End},
		{},
		{"KPI", "Value", "Absolute", "Latest", "Prev 1", "Prev 2"},
	}
	header := len(rows)

	h := fin.ImportantKPIs
	for _, name := range kpi.FigureNames {
		v := h.Figure(name)
		if v == nil {
			continue
		}
		p := h.Periods[name]
		rows = append(rows, []interface{}{name, *v, fin.AbsoluteKPIs[name], cellValue(p.Latest), cellValue(p.Prev1), cellValue(p.Prev2)})
	}

	rows = append(rows, []interface{}{}, []interface{}{"Ratio", "Value"})
	ratioHeader := len(rows)
	for _, name := range sortedKeys(h.Ratios) {
		rows = append(rows, []interface{}{name, h.Ratios[name]})
	}
	for _, name := range sortedKeys(h.Trends) {
		rows = append(rows, []interface{}{name, h.Trends[name]})
	}

	if err := writeRows(f, sheetKPIs, rows); err != nil {
		return err
	}
	for _, row := range []int{header, ratioHeader} {
		if err := f.SetRowStyle(sheetKPIs, row, row, headerStyle); err != nil {
			return fmt.Errorf("failed to style sheet %s: %v", sheetKPIs, err)
		}
	}
	return f.SetColWidth(sheetKPIs, "A", "A", 28)
}

func writeRecordSheet(f *excelize.File, sheet string, records []extract.KPIRecord, headerStyle int) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %v", sheet, err)
	}

	columns := recordColumns(records)
	header := []interface{}{"Item"}
	for _, col := range columns {
		header = append(header, col)
	}
	rows := [][]interface{}{header}

	for _, rec := range records {
		row := []interface{}{rec.LabelText()}
		for _, col := range columns {
			cell, _ := rec.Value(col)
			switch cell.Kind {
			case extract.CellNumeric:
				row = append(row, cell.Number)
			case extract.CellText:
				row = append(row, cell.Text)
			default:
				row = append(row, nil)
			}
		}
		rows = append(rows, row)
	}

	if err := writeRows(f, sheet, rows); err != nil {
		return err
	}
	if err := f.SetRowStyle(sheet, 1, 1, headerStyle); err != nil {
		return fmt.Errorf("failed to style sheet %s: %v", sheet, err)
	}
	return f.SetColWidth(sheet, "A", "A", 40)
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := row
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d of %s: %v", i+1, sheet, err)
		}
	}
	return nil
}

func cellValue(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
