package types

import (
	"fmt"
)

// Table is an ordered set of uniquely named columns with a uniform row count.
type Table struct {
	Columns []Column
}

// NewTable builds a table from a header and row-major cells. Rows shorter than
// the header are padded with missing cells; column types are inferred.
func NewTable(headers []string, rows [][]Cell) (*Table, error) {
	seen := make(map[string]bool, len(headers))
	cols := make([]Column, len(headers))
	for i, h := range headers {
		if seen[h] {
			return nil, fmt.Errorf("duplicate column name: %s", h)
		}
		seen[h] = true
		cols[i] = Column{Name: h, Cells: make([]Cell, len(rows))}
	}

	for r, row := range rows {
		if len(row) > len(headers) {
			return nil, fmt.Errorf("row %d has %d fields, header has %d", r+1, len(row), len(headers))
		}
		for i := range cols {
			if i < len(row) {
				cols[i].Cells[r] = row[i]
			} else {
				cols[i].Cells[r] = Missing()
			}
		}
	}

	for i := range cols {
		cols[i].Type = InferType(cols[i].Cells)
	}

	return &Table{Columns: cols}, nil
}

// Names returns the column names in order.
func (t *Table) Names() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// NumRows returns the row count. A table without columns has no rows.
func (t *Table) NumRows() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return len(t.Columns[0].Cells)
}

// Column looks a column up by name.
func (t *Table) Column(name string) (*Column, bool) {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i], true
		}
	}
	return nil, false
}

// Row returns a copy of row i across all columns.
func (t *Table) Row(i int) []Cell {
	row := make([]Cell, len(t.Columns))
	for c := range t.Columns {
		row[c] = t.Columns[c].Cells[i]
	}
	return row
}

// Head returns up to n leading rows.
func (t *Table) Head(n int) [][]Cell {
	if n > t.NumRows() {
		n = t.NumRows()
	}
	if n < 0 {
		n = 0
	}
	rows := make([][]Cell, n)
	for i := range rows {
		rows[i] = t.Row(i)
	}
	return rows
}

// Records renders the table as string records, header first.
func (t *Table) Records() [][]string {
	records := make([][]string, 0, t.NumRows()+1)
	records = append(records, t.Names())
	for i := 0; i < t.NumRows(); i++ {
		rec := make([]string, len(t.Columns))
		for c := range t.Columns {
			rec[c] = t.Columns[c].Cells[i].String()
		}
		records = append(records, rec)
	}
	return records
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	cols := make([]Column, len(t.Columns))
	for i, c := range t.Columns {
		cells := make([]Cell, len(c.Cells))
		copy(cells, c.Cells)
		cols[i] = Column{Name: c.Name, Type: c.Type, Cells: cells}
	}
	return &Table{Columns: cols}
}

// Equal compares names, types and every cell.
func (t *Table) Equal(o *Table) bool {
	if len(t.Columns) != len(o.Columns) || t.NumRows() != o.NumRows() {
		return false
	}
	for i := range t.Columns {
		a, b := t.Columns[i], o.Columns[i]
		if a.Name != b.Name || a.Type != b.Type {
			return false
		}
		for r := range a.Cells {
			if !a.Cells[r].Equal(b.Cells[r]) {
				return false
			}
		}
	}
	return true
}
