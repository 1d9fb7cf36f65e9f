// Package transform holds the table-to-table steps of the pipeline: cleaning,
// projection and chart extraction. Every function returns a new table and
// leaves its input untouched.
package transform

import (
	"strconv"
	"strings"

	"github.com/nconklindev/datasweeper/internal/types"
)

// RemoveDuplicates keeps the first occurrence of every distinct row.
// Missing cells compare equal to each other; a number never equals text.
func RemoveDuplicates(tbl *types.Table) *types.Table {
	out := &types.Table{Columns: make([]types.Column, len(tbl.Columns))}
	for i, col := range tbl.Columns {
		out.Columns[i] = types.Column{Name: col.Name, Type: col.Type}
	}

	seen := make(map[string]bool, tbl.NumRows())
	for r := 0; r < tbl.NumRows(); r++ {
		key := rowKey(tbl, r)
		if seen[key] {
			continue
		}
		seen[key] = true

		for i := range tbl.Columns {
			out.Columns[i].Cells = append(out.Columns[i].Cells, tbl.Columns[i].Cells[r])
		}
	}

	for i := range out.Columns {
		if out.Columns[i].Cells == nil {
			out.Columns[i].Cells = []types.Cell{}
		}
	}

	return out
}

// rowKey encodes a row so that two rows share a key only when every cell is equal.
// Text is length-prefixed so separators inside values cannot collide.
func rowKey(tbl *types.Table, r int) string {
	var b strings.Builder
	for _, col := range tbl.Columns {
		cell := col.Cells[r]
		switch cell.Kind {
		case types.KindMissing:
			b.WriteString("m;")
		case types.KindNumber:
			v := cell.Num
			if v == 0 {
				v = 0 // fold -0 into 0
			}
			b.WriteString("n")
			b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
			b.WriteString(";")
		case types.KindText:
			b.WriteString("t")
			b.WriteString(strconv.Itoa(len(cell.Text)))
			b.WriteString(":")
			b.WriteString(cell.Text)
			b.WriteString(";")
		}
	}
	return b.String()
}

// FillMissingNumeric replaces missing cells in numeric columns with the mean of
// that column's present values. A numeric column with no present values has no
// mean and is left as it is. Text columns are never touched.
func FillMissingNumeric(tbl *types.Table) *types.Table {
	out := tbl.Clone()

	for i := range out.Columns {
		col := &out.Columns[i]
		if col.Type != types.ColumnNumeric {
			continue
		}

		mean, ok := columnMean(col.Cells)
		if !ok {
			continue
		}

		for r, cell := range col.Cells {
			if cell.IsMissing() {
				col.Cells[r] = types.Number(mean)
			}
		}
	}

	return out
}

func columnMean(cells []types.Cell) (float64, bool) {
	var (
		sum   float64
		count int
	)
	for _, cell := range cells {
		if cell.Kind == types.KindNumber {
			sum += cell.Num
			count++
		}
	}
	if count == 0 {
		return 0, false
	}
	return sum / float64(count), true
}
