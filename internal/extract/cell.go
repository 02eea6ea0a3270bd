package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fyerfyer/finsight/internal/numeric"
)

// CellKind 单元格值的类别
type CellKind int

const (
	// CellEmpty 空值
	CellEmpty CellKind = iota
	// CellNumeric 数值
	CellNumeric
	// CellText 无法解析为数值的原始文本
	CellText
)

// Cell 单元格值，Numeric | Text | Empty 三选一
type Cell struct {
	Kind   CellKind
	Number float64
	Text   string
}

// Empty 空单元格
func Empty() Cell { return Cell{Kind: CellEmpty} }

// Numeric 数值单元格
func Numeric(v float64) Cell { return Cell{Kind: CellNumeric, Number: v} }

// Text 文本单元格
func Text(s string) Cell { return Cell{Kind: CellText, Text: s} }

// IsNumeric 是否为数值
func (c Cell) IsNumeric() bool { return c.Kind == CellNumeric }

// Float 返回数值及是否有效
func (c Cell) Float() (float64, bool) {
	return c.Number, c.Kind == CellNumeric
}

// String 便于日志输出
func (c Cell) String() string {
	switch c.Kind {
	case CellNumeric:
		return numeric.Format(c.Number)
	case CellText:
		return c.Text
	default:
		return ""
	}
}

// MarshalJSON 数值输出为数字，文本输出为字符串，空值输出为null
func (c Cell) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case CellNumeric:
		return json.Marshal(c.Number)
	case CellText:
		return json.Marshal(c.Text)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON 根据JSON类型还原单元格
func (c *Cell) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*c = Empty()
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = Text(s)
	default:
		var v float64
		if err := json.Unmarshal(data, &v); err != nil {
			return fmt.Errorf("invalid cell value: %s", data)
		}
		*c = Numeric(v)
	}
	return nil
}

// 视为空值的标记
var blankMarkers = map[string]bool{
	"": true, "na": true, "n/a": true, "-": true, "--": true, "—": true, "–": true, "nil": true,
}

// CleanCell 清理单元格文本
func CleanCell(raw string) string {
	s := strings.ReplaceAll(raw, " ", "")
	s = strings.ReplaceAll(s, " ", " ")
	return strings.TrimSpace(s)
}

// ParseCell 将单元格文本解析为Cell
func ParseCell(raw string, n *numeric.Normalizer) Cell {
	s := CleanCell(raw)
	if blankMarkers[strings.ToLower(s)] {
		return Empty()
	}
	if n == nil {
		n = numeric.Default
	}
	if v, ok := n.Normalize(s); ok {
		return Numeric(v)
	}
	return Text(s)
}
