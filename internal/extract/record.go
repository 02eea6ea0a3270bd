package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/fyerfyer/finsight/internal/keywords"
)

// RawTable 外部提取得到的原始表格
type RawTable struct {
	Page int        `json:"page"`
	Rows [][]string `json:"table"`
}

// ColumnValue 一列的值
type ColumnValue struct {
	Column string
	Value  Cell
}

// KPIRecord 表格中的一行
type KPIRecord struct {
	Label  *string
	Values []ColumnValue
}

// ColumnID 列标识
func ColumnID(i int) string {
	return "col_" + strconv.Itoa(i)
}

// NumericValues 按列顺序返回所有数值
func (r KPIRecord) NumericValues() []float64 {
	var out []float64
	for _, cv := range r.Values {
		if v, ok := cv.Value.Float(); ok {
			out = append(out, v)
		}
	}
	return out
}

// LabelText 标签文本，无标签时返回空串
func (r KPIRecord) LabelText() string {
	if r.Label == nil {
		return ""
	}
	return *r.Label
}

// Value 按列标识取值
func (r KPIRecord) Value(column string) (Cell, bool) {
	for _, cv := range r.Values {
		if cv.Column == column {
			return cv.Value, true
		}
	}
	return Cell{}, false
}

type recordJSON struct {
	Label  *string         `json:"label"`
	Values json.RawMessage `json:"values"`
}

// MarshalJSON values按列顺序输出为对象
func (r KPIRecord) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, cv := range r.Values {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, _ := json.Marshal(cv.Column)
		val, err := cv.Value.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return json.Marshal(recordJSON{Label: r.Label, Values: buf.Bytes()})
}

// UnmarshalJSON 按对象中出现的顺序还原列
func (r *KPIRecord) UnmarshalJSON(data []byte) error {
	var raw recordJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Label = raw.Label
	r.Values = nil
	if len(raw.Values) == 0 || string(raw.Values) == "null" {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw.Values))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return fmt.Errorf("record values must be an object")
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("invalid column key: %v", tok)
		}
		var cell Cell
		if err := dec.Decode(&cell); err != nil {
			return err
		}
		r.Values = append(r.Values, ColumnValue{Column: key, Value: cell})
	}
	return nil
}

// Flag 无法处理的表格记录
type Flag struct {
	Page int    `json:"page"`
	Note string `json:"note"`
}

// Statements 按报表类别归类的结果
type Statements struct {
	BalanceSheet []KPIRecord `json:"balance_sheet"`
	PnL          []KPIRecord `json:"pnl"`
	CashFlow     []KPIRecord `json:"cash_flow"`
	Flags        []Flag      `json:"flags"`
}

// Records 返回指定类别的记录
func (s *Statements) Records(section keywords.Section) []KPIRecord {
	switch section {
	case keywords.BalanceSheet:
		return s.BalanceSheet
	case keywords.PnL:
		return s.PnL
	case keywords.CashFlow:
		return s.CashFlow
	default:
		return nil
	}
}

// add 追加记录到对应类别
func (s *Statements) add(section keywords.Section, recs ...KPIRecord) {
	switch section {
	case keywords.BalanceSheet:
		s.BalanceSheet = append(s.BalanceSheet, recs...)
	case keywords.PnL:
		s.PnL = append(s.PnL, recs...)
	case keywords.CashFlow:
		s.CashFlow = append(s.CashFlow, recs...)
	}
}
