package converter

import (
	"bytes"
	"fmt"
	"math"

	"github.com/nconklindev/datasweeper/internal/types"

	"github.com/xuri/excelize/v2"
)

// textCellTypes hold strings even when the content looks numeric.
var textCellTypes = map[excelize.CellType]bool{
	excelize.CellTypeSharedString: true,
	excelize.CellTypeInlineString: true,
	excelize.CellTypeFormula:      true,
	excelize.CellTypeError:        true,
}

// emptyRowHeight is set on rows with no values so the row element is still written.
const emptyRowHeight = 15

func decodeXLSX(data []byte) (*types.Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets found")
	}
	sheetName := sheets[0]

	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}

	// GetRows drops trailing empty rows; they are data rows with every cell missing.
	total, err := countRows(f, sheetName)
	if err != nil {
		return nil, err
	}
	for len(rows) < total {
		rows = append(rows, nil)
	}

	headerRowIdx := findHeaderRow(rows)
	if headerRowIdx == -1 {
		return nil, fmt.Errorf("empty sheet %s", sheetName)
	}

	// Data wider than the header gets unnamed columns.
	width := len(rows[headerRowIdx])
	for _, row := range rows[headerRowIdx+1:] {
		if len(row) > width {
			width = len(row)
		}
	}

	rawHeaders := make([]string, width)
	copy(rawHeaders, rows[headerRowIdx])
	headers := normalizeHeaders(rawHeaders)

	dataRows := rows[headerRowIdx+1:]
	cells := make([][]types.Cell, len(dataRows))

	for i, row := range dataRows {
		// GetRows indexes from the sheet's first row, so sheet rows are 1-based offsets.
		sheetRow := headerRowIdx + i + 2
		cells[i] = make([]types.Cell, width)

		for colIdx := 0; colIdx < width; colIdx++ {
			if colIdx >= len(row) || row[colIdx] == "" {
				cells[i][colIdx] = types.Missing()
				continue
			}

			cellName, err := excelize.CoordinatesToCellName(colIdx+1, sheetRow)
			if err != nil {
				return nil, err
			}
			cellType, err := f.GetCellType(sheetName, cellName)
			if err != nil {
				return nil, err
			}

			cells[i][colIdx] = spreadsheetCell(row[colIdx], cellType)
		}
	}

	return types.NewTable(headers, cells)
}

// countRows returns the number of rows the sheet declares, including empty ones.
func countRows(f *excelize.File, sheetName string) (int, error) {
	rows, err := f.Rows(sheetName)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		n++
	}
	return n, rows.Error()
}

// spreadsheetCell maps a raw cell value to a typed cell.
func spreadsheetCell(raw string, cellType excelize.CellType) types.Cell {
	if cellType == excelize.CellTypeBool {
		switch raw {
		case "1":
			return types.Text("TRUE")
		case "0":
			return types.Text("FALSE")
		}
		return types.Text(raw)
	}
	if textCellTypes[cellType] {
		return types.Text(raw)
	}
	if val, ok := parseNumber(raw); ok {
		return types.Number(val)
	}
	return types.Text(raw)
}

// findHeaderRow returns the index of the first non-empty row, or -1 for an empty sheet.
func findHeaderRow(rows [][]string) int {
	for i, row := range rows {
		for _, cell := range row {
			if cell != "" {
				return i
			}
		}
	}
	return -1
}

func encodeXLSX(tbl *types.Table) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := f.GetSheetName(0)

	for colIdx, name := range tbl.Names() {
		cellName, err := excelize.CoordinatesToCellName(colIdx+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellStr(sheetName, cellName, name); err != nil {
			return nil, err
		}
	}

	for colIdx, col := range tbl.Columns {
		for rowIdx, cell := range col.Cells {
			if cell.IsMissing() {
				continue
			}

			cellName, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return nil, err
			}

			switch {
			case cell.Kind == types.KindNumber && math.IsInf(cell.Num, 0):
				// spreadsheets have no infinity; keep the value readable as text
				err = f.SetCellStr(sheetName, cellName, types.FormatNumber(cell.Num))
			case cell.Kind == types.KindNumber:
				err = f.SetCellFloat(sheetName, cellName, cell.Num, -1, 64)
			case cell.Kind == types.KindText:
				err = f.SetCellStr(sheetName, cellName, cell.Text)
			}
			if err != nil {
				return nil, err
			}
		}
	}

	for rowIdx := 0; rowIdx < tbl.NumRows(); rowIdx++ {
		if !rowIsEmpty(tbl, rowIdx) {
			continue
		}
		if err := f.SetRowHeight(sheetName, rowIdx+2, emptyRowHeight); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func rowIsEmpty(tbl *types.Table, rowIdx int) bool {
	for _, col := range tbl.Columns {
		if !col.Cells[rowIdx].IsMissing() {
			return false
		}
	}
	return true
}
