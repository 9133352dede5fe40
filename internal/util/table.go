package util

import (
	"fmt"
	"io"
	"strings"
)

// Table renders rows of strings as left-aligned columns. Used by the
// version command for dependency and build-setting listings.
type Table struct {
	CellPadding int
	LeftPadding int

	rows [][]string
}

func NewTable() *Table {
	return &Table{CellPadding: 2}
}

func (t *Table) WithLeftPadding(padding int) *Table {
	t.LeftPadding = padding
	return t
}

func (t *Table) AddRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

func (t *Table) Print(w io.Writer) {
	widths := []int{}
	for _, row := range t.rows {
		for j, cell := range row {
			for len(widths) <= j {
				widths = append(widths, 0)
			}
			widths[j] = max(widths[j], len(cell))
		}
	}

	for _, row := range t.rows {
		fmt.Fprint(w, strings.Repeat(" ", t.LeftPadding))
		for j, cell := range row {
			if j == len(row)-1 {
				fmt.Fprint(w, cell)
			} else {
				fmt.Fprintf(w, "%-*s", widths[j]+t.CellPadding, cell)
			}
		}
		fmt.Fprintln(w)
	}
}
