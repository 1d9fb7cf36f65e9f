package transform

import (
	"math"

	"github.com/nconklindev/datasweeper/internal/types"
)

// Series is one numeric column prepared for a bar chart.
type Series struct {
	Name    string    `json:"name"`
	Values  []float64 `json:"values"`
	Missing []bool    `json:"missing"`
}

// Max returns the largest present value, or 0 when there is none.
func (s Series) Max() float64 {
	var max float64
	first := true
	for i, v := range s.Values {
		if s.Missing[i] {
			continue
		}
		if first || v > max {
			max = v
			first = false
		}
	}
	return max
}

// ChartSeries picks the first limit numeric columns of the table.
func ChartSeries(tbl *types.Table, limit int) []Series {
	var series []Series

	for _, col := range tbl.Columns {
		if len(series) >= limit {
			break
		}
		if col.Type != types.ColumnNumeric {
			continue
		}

		s := Series{
			Name:    col.Name,
			Values:  make([]float64, len(col.Cells)),
			Missing: make([]bool, len(col.Cells)),
		}
		for i, cell := range col.Cells {
			// infinities cannot be drawn
			if cell.IsMissing() || math.IsInf(cell.Num, 0) {
				s.Missing[i] = true
				continue
			}
			s.Values[i] = cell.Num
		}
		series = append(series, s)
	}

	return series
}
