package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Column represents a single table column with its header and current width.
//
// Fields:
//   - Header: The display text for this column's header
//   - Width: The current display width for this column in terminal cells
type Column struct {
	Header string
	Width  int
}

// Table lays out rows in columns padded to their widest cell.
//
// Widths are measured in terminal cells, so status icons and other wide
// runes line up.
type Table struct {
	columns   []Column
	rows      [][]string
	separator string
}

// NewTable creates a table with the given headers and a two-space separator.
//
// Parameters:
//   - headers: Column headers in display order
//
// Returns:
//   - *Table: A new table instance ready for rows
func NewTable(headers ...string) *Table {
	t := &Table{separator: "  "}
	for _, h := range headers {
		t.columns = append(t.columns, Column{Header: h, Width: DisplayWidth(h)})
	}
	return t
}

// AddRow appends a data row and widens columns to fit it.
//
// Values beyond the number of columns are ignored and missing values are
// rendered empty.
//
// Parameters:
//   - values: One string per column
//
// Returns:
//   - *Table: The table instance for method chaining
func (t *Table) AddRow(values ...string) *Table {
	row := make([]string, len(t.columns))
	for i := range t.columns {
		if i < len(values) {
			row[i] = values[i]
		}
		if w := DisplayWidth(row[i]); w > t.columns[i].Width {
			t.columns[i].Width = w
		}
	}
	t.rows = append(t.rows, row)
	return t
}

// HeaderRow returns the formatted header row string.
func (t *Table) HeaderRow() string {
	parts := make([]string, len(t.columns))
	for i, col := range t.columns {
		parts[i] = ToWidth(col.Header, col.Width)
	}
	return strings.TrimRight(strings.Join(parts, t.separator), " ")
}

// SeparatorRow returns a separator row with dashes matching column widths.
func (t *Table) SeparatorRow() string {
	parts := make([]string, len(t.columns))
	for i, col := range t.columns {
		parts[i] = strings.Repeat("-", col.Width)
	}
	return strings.Join(parts, t.separator)
}

// FormatRow formats one row with each value padded to its column width.
func (t *Table) FormatRow(values []string) string {
	parts := make([]string, len(t.columns))
	for i, col := range t.columns {
		val := ""
		if i < len(values) {
			val = values[i]
		}
		parts[i] = ToWidth(val, col.Width)
	}
	return strings.TrimRight(strings.Join(parts, t.separator), " ")
}

// GetColumnWidth returns the width of a column by index, or 0 when out of range.
func (t *Table) GetColumnWidth(index int) int {
	if index >= 0 && index < len(t.columns) {
		return t.columns[index].Width
	}
	return 0
}

// Fprint writes the header, the separator and every row to w.
//
// Parameters:
//   - w: The writer to output to (e.g., os.Stdout or a buffer)
//
// Returns:
//   - error: The first write error, if any
func (t *Table) Fprint(w io.Writer) error {
	if _, err := fmt.Fprintln(w, t.HeaderRow()); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, t.SeparatorRow()); err != nil {
		return err
	}
	for _, row := range t.rows {
		if _, err := fmt.Fprintln(w, t.FormatRow(row)); err != nil {
			return err
		}
	}
	return nil
}

// DisplayWidth returns the number of terminal cells val occupies.
//
// Wide characters such as CJK ideographs and most emoji count as two cells.
func DisplayWidth(val string) int {
	return runewidth.StringWidth(val)
}

// ToWidth pads val with spaces to the given display width.
//
// Parameters:
//   - val: The string to pad
//   - width: The target display width; values <= 0 disable padding
//
// Returns:
//   - string: The padded string, or val unchanged if already wide enough
func ToWidth(val string, width int) string {
	if width <= 0 {
		return val
	}
	current := DisplayWidth(val)
	if current >= width {
		return val
	}
	return val + strings.Repeat(" ", width-current)
}
