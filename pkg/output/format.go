// Package output renders check reports as a terminal table or as CSV and JSON
// for machine consumption.
package output

import (
	"fmt"
	"strings"
)

// Format represents the output format type.
type Format string

const (
	// FormatTable is the default terminal table output.
	FormatTable Format = "table"
	// FormatCSV outputs data as comma-separated values.
	FormatCSV Format = "csv"
	// FormatJSON outputs data as JSON.
	FormatJSON Format = "json"
)

// ParseFormat parses a format string into a Format type.
//
// The parsing is case-insensitive. An empty string selects FormatTable.
//
// Parameters:
//   - s: Format string to parse (e.g., "csv", "JSON", "table")
//
// Returns:
//   - Format: The parsed format
//   - error: When s names no supported format
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "table":
		return FormatTable, nil
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (expected table, csv or json)", s)
	}
}

// IsStructuredFormat returns true if the format is meant for machine consumption.
func IsStructuredFormat(f Format) bool {
	return f == FormatCSV || f == FormatJSON
}
