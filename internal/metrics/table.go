package metrics

import (
	"strconv"
	"strings"
)

// Table is a rectangular slice of spreadsheet data: one header row and
// zero or more data rows. Cells are kept as strings; numeric parsing
// happens at the point of use because the sheets mix plain numbers,
// "$1,234.56" currency strings and blanks.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Empty reports whether the table has no data rows.
func (t Table) Empty() bool {
	return len(t.Rows) == 0
}

// Col returns the index of the first matching header, trying each
// candidate name in order against trimmed headers. Returns -1 when
// none match.
func (t Table) Col(names ...string) int {
	for _, name := range names {
		for i, h := range t.Headers {
			if strings.TrimSpace(h) == name {
				return i
			}
		}
	}
	return -1
}

// Cell returns the cell at (row, col), or "" when either index is out
// of range. Ragged rows from the sheets API are common.
func (t Table) Cell(row, col int) string {
	if col < 0 || row < 0 || row >= len(t.Rows) || col >= len(t.Rows[row]) {
		return ""
	}
	return t.Rows[row][col]
}

// Number parses the cell at (row, col) as a float, stripping currency
// formatting. Unparseable cells read as 0.
func (t Table) Number(row, col int) float64 {
	return ParseNumber(t.Cell(row, col))
}

// SumColumn totals a column across all rows.
func (t Table) SumColumn(col int) float64 {
	var sum float64
	for i := range t.Rows {
		sum += t.Number(i, col)
	}
	return sum
}

// ParseNumber converts a sheet cell to a float, dropping commas and a
// leading currency symbol. Anything else parses as 0.
func ParseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimPrefix(s, "$")
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// SafeDivide returns numerator/denominator, or 0 when the denominator
// is zero.
func SafeDivide(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}
