package pipeline

import (
	"context"
	"math"

	"github.com/nconklindev/datasweeper/internal/converter"
	"github.com/nconklindev/datasweeper/internal/logging"
	"github.com/nconklindev/datasweeper/internal/transform"
	"github.com/nconklindev/datasweeper/internal/types"
)

// ColumnSummary describes one decoded column.
type ColumnSummary struct {
	Name    string           `json:"name"`
	Type    types.ColumnType `json:"type"`
	Missing int              `json:"missing"`
}

// Summary is what a shell shows before the user picks cleaning options.
type Summary struct {
	Name    string             `json:"name"`
	SizeKB  float64            `json:"size_kb"`
	Rows    int                `json:"rows"`
	Columns []ColumnSummary    `json:"columns"`
	Preview [][]any            `json:"preview"`
	Chart   []transform.Series `json:"chart"`
}

// Inspect decodes a file and summarises it.
func Inspect(ctx context.Context, data []byte, name string, previewRows, chartColumns int) (*Summary, error) {
	tbl, err := converter.Decode(data, name)
	if err != nil {
		return nil, &StageError{Stage: StageDecode, File: name, Err: err}
	}

	logging.WithFields(ctx, "file", name).Debug("inspected", "rows", tbl.NumRows(), "columns", len(tbl.Columns))

	return Summarize(tbl, name, len(data), previewRows, chartColumns), nil
}

// Summarize describes an already decoded table.
func Summarize(tbl *types.Table, name string, size int, previewRows, chartColumns int) *Summary {
	s := &Summary{
		Name:    name,
		SizeKB:  float64(size) / 1024,
		Rows:    tbl.NumRows(),
		Columns: make([]ColumnSummary, len(tbl.Columns)),
		Chart:   transform.ChartSeries(tbl, chartColumns),
	}

	for i := range tbl.Columns {
		col := &tbl.Columns[i]
		s.Columns[i] = ColumnSummary{Name: col.Name, Type: col.Type, Missing: col.MissingCount()}
	}

	head := tbl.Head(previewRows)
	s.Preview = make([][]any, len(head))
	for i, row := range head {
		s.Preview[i] = make([]any, len(row))
		for j, cell := range row {
			s.Preview[i][j] = cellValue(cell)
		}
	}

	return s
}

// cellValue maps a cell to its JSON form: number, string or null.
func cellValue(c types.Cell) any {
	switch c.Kind {
	case types.KindNumber:
		if math.IsInf(c.Num, 0) {
			return types.FormatNumber(c.Num)
		}
		return c.Num
	case types.KindText:
		return c.Text
	}
	return nil
}
