package document

import (
	"regexp"
	"strings"

	"github.com/fyerfyer/finsight/internal/extract"
)

// 连续两个以上空格或制表符视为单元格分隔
var cellSeparatorRe = regexp.MustCompile(`\t+|\s{2,}`)

// minTableRows 构成表格的最少连续多单元格行数
const minTableRows = 2

// splitCells 按宽空白切分一行文本
func splitCells(line string) []string {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	parts := cellSeparatorRe.Split(line, -1)
	cells := make([]string, 0, len(parts))
	for _, p := range parts {
		cells = append(cells, strings.TrimSpace(p))
	}
	return cells
}

// groupTables 将连续的多单元格行合并为表格
// rows为按阅读顺序排列的行，单元格数小于2的行会打断当前表格
func groupTables(page int, rows [][]string) []extract.RawTable {
	var tables []extract.RawTable
	var current [][]string

	flush := func() {
		if len(current) >= minTableRows {
			tables = append(tables, extract.RawTable{Page: page, Rows: current})
		}
		current = nil
	}

	for _, row := range rows {
		if len(row) < 2 {
			flush()
			continue
		}
		current = append(current, row)
	}
	flush()
	return tables
}

func rawTable(page int, rows [][]string) extract.RawTable {
	return extract.RawTable{Page: page, Rows: rows}
}
