package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

const (
	tablePadding = 2
	maxCellWidth = 60
)

// writeTable prints aligned columns. Cells are flattened to one line and
// clipped to maxCellWidth runes.
func writeTable(out io.Writer, headers []string, rows [][]string) error {
	w := tabwriter.NewWriter(out, 0, 0, tablePadding, ' ', 0)
	if len(headers) > 0 {
		fmt.Fprintln(w, strings.Join(headers, "\t"))
	}
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = clipCell(cell)
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	return w.Flush()
}

func clipCell(cell string) string {
	cell = strings.Join(strings.Fields(cell), " ")
	runes := []rune(cell)
	if len(runes) <= maxCellWidth {
		return cell
	}
	return string(runes[:maxCellWidth-3]) + "..."
}

func formatYesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
