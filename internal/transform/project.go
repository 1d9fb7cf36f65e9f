package transform

import (
	"errors"
	"fmt"

	"github.com/nconklindev/datasweeper/internal/types"
)

// ErrUnknownColumn matches any UnknownColumnError.
var ErrUnknownColumn = errors.New("unknown column")

// UnknownColumnError names a requested column the table does not have.
type UnknownColumnError struct {
	Column string
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("unknown column: %s", e.Column)
}

func (e *UnknownColumnError) Is(target error) bool {
	return target == ErrUnknownColumn
}

// Project restricts a table to the named columns in the given order.
// A name repeated in the request is kept once, at its first position.
func Project(tbl *types.Table, names []string) (*types.Table, error) {
	out := &types.Table{Columns: make([]types.Column, 0, len(names))}
	picked := make(map[string]bool, len(names))

	for _, name := range names {
		if picked[name] {
			continue
		}

		col, ok := tbl.Column(name)
		if !ok {
			return nil, &UnknownColumnError{Column: name}
		}
		picked[name] = true

		cells := make([]types.Cell, len(col.Cells))
		copy(cells, col.Cells)
		out.Columns = append(out.Columns, types.Column{Name: col.Name, Type: col.Type, Cells: cells})
	}

	return out, nil
}
