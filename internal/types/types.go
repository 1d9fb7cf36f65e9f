package types

import (
	"strconv"
)

// Kind tags the value held by a Cell.
type Kind int

const (
	KindMissing Kind = iota
	KindNumber
	KindText
)

// Cell is a single typed value in a table.
type Cell struct {
	Kind Kind
	Num  float64
	Text string
}

func Missing() Cell { return Cell{Kind: KindMissing} }

func Number(v float64) Cell { return Cell{Kind: KindNumber, Num: v} }

func Text(s string) Cell { return Cell{Kind: KindText, Text: s} }

func (c Cell) IsMissing() bool { return c.Kind == KindMissing }

// Equal reports whether two cells hold the same value. Missing equals Missing.
func (c Cell) Equal(o Cell) bool {
	if c.Kind != o.Kind {
		return false
	}
	switch c.Kind {
	case KindNumber:
		return c.Num == o.Num
	case KindText:
		return c.Text == o.Text
	}
	return true
}

// String renders the cell the way it is written to CSV. Missing renders empty.
func (c Cell) String() string {
	switch c.Kind {
	case KindNumber:
		return FormatNumber(c.Num)
	case KindText:
		return c.Text
	}
	return ""
}

// FormatNumber returns the shortest decimal form that parses back to v.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ColumnType is resolved once when a table is decoded.
type ColumnType int

const (
	ColumnNumeric ColumnType = iota
	ColumnText
)

func (t ColumnType) String() string {
	if t == ColumnNumeric {
		return "numeric"
	}
	return "text"
}

// MarshalText lets the type appear as a string in JSON previews.
func (t ColumnType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

type Column struct {
	Name  string
	Type  ColumnType
	Cells []Cell
}

// InferType returns ColumnNumeric when every non-missing cell is a number.
// A column holding only missing cells counts as numeric.
func InferType(cells []Cell) ColumnType {
	for _, c := range cells {
		if c.Kind == KindText {
			return ColumnText
		}
	}
	return ColumnNumeric
}

// MissingCount returns the number of missing cells in the column.
func (c *Column) MissingCount() int {
	n := 0
	for _, cell := range c.Cells {
		if cell.IsMissing() {
			n++
		}
	}
	return n
}

// ConversionResult is what the encoder hands back to a shell for delivery.
type ConversionResult struct {
	InputFile   string
	OutputFile  string
	ContentType string
	Columns     []string
	Rows        int
	Data        []byte
}
