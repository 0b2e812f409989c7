package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

const (
	defaultCellWidth = 60
	columnGap        = "  "
)

// table renders aligned columns. Widths are measured in terminal cells so
// CJK titles line up with ASCII columns.
type table struct {
	headers  []string
	rows     [][]string
	maxWidth int
}

func newTable(headers ...string) *table {
	return &table{headers: headers, maxWidth: defaultCellWidth}
}

// Append adds a row. Missing cells render empty; extra cells are dropped.
func (t *table) Append(cells ...string) {
	row := make([]string, len(t.headers))
	for i := range row {
		if i < len(cells) {
			row[i] = runewidth.Truncate(cells[i], t.maxWidth, "…")
		}
	}
	t.rows = append(t.rows, row)
}

// Len returns the number of rows.
func (t *table) Len() int {
	return len(t.rows)
}

func (t *table) Render(w io.Writer) error {
	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if cw := runewidth.StringWidth(cell); cw > widths[i] {
				widths[i] = cw
			}
		}
	}

	var sb strings.Builder
	writeRow := func(cells []string) {
		for i, cell := range cells {
			if i == len(cells)-1 {
				sb.WriteString(cell)
			} else {
				sb.WriteString(runewidth.FillRight(cell, widths[i]))
				sb.WriteString(columnGap)
			}
		}
		sb.WriteString("\n")
	}

	writeRow(t.headers)
	sep := make([]string, len(widths))
	for i, width := range widths {
		sep[i] = strings.Repeat("-", width)
	}
	writeRow(sep)
	for _, row := range t.rows {
		writeRow(row)
	}

	_, err := fmt.Fprint(w, sb.String())
	return err
}
