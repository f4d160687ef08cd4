package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/iancoleman/orderedmap"

	"github.com/ajxudir/releasewatch/pkg/constants"
	"github.com/ajxudir/releasewatch/pkg/update"
)

// reportHeaders are shared by the table and CSV renderings.
var reportHeaders = []string{"LINE", "CURRENT", "LATEST", "ALTERNATE", "SECURITY", "STATUS"}

// WriteReport renders a check report in the requested format.
//
// Parameters:
//   - w: Destination for the rendered report
//   - format: Output format; only non-structured formats get a trailing
//     decision summary
//   - report: The report to render
//
// Returns:
//   - error: When writing or encoding fails, or the format is unknown
func WriteReport(w io.Writer, format Format, report *update.Report) error {
	var err error
	switch format {
	case FormatTable, "":
		err = writeReportTable(w, report)
	case FormatCSV:
		err = writeReportCSV(w, report)
	case FormatJSON:
		err = writeReportJSON(w, report)
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
	if err != nil || IsStructuredFormat(format) {
		return err
	}

	_, err = fmt.Fprintf(w, "\n%s\n", SummaryLine(report))
	return err
}

func writeReportTable(w io.Writer, report *update.Report) error {
	table := NewTable(reportHeaders...)
	for _, lr := range report.Lines {
		status := lr.Status
		if icon := constants.StatusIcon(lr.Status); icon != "" {
			status = icon + " " + status
		}
		table.AddRow(
			lr.Line,
			lr.Current,
			valueOrNA(lr.Latest),
			flagCell(lr, lr.HasAlternateBuild),
			flagCell(lr, lr.IsSecurity),
			status,
		)
	}
	return table.Fprint(w)
}

// SummaryLine describes the decision in one sentence.
func SummaryLine(report *update.Report) string {
	switch {
	case report.Blocked != nil:
		return fmt.Sprintf("Blocked: %s", report.Blocked.Error())
	case report.HasUpdates():
		n := len(report.Decision.Candidates)
		noun := "lines"
		if n == 1 {
			noun = "line"
		}
		return fmt.Sprintf("%d %s ready to update", n, noun)
	default:
		return "All lines up to date"
	}
}

func writeReportCSV(w io.Writer, report *update.Report) error {
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"line", "current", "latest", "alternate_build", "security", "status"})
	for _, lr := range report.Lines {
		_ = cw.Write([]string{
			lr.Line,
			lr.Current,
			lr.Latest,
			strconv.FormatBool(lr.HasAlternateBuild),
			strconv.FormatBool(lr.IsSecurity),
			lr.Status,
		})
	}
	cw.Flush()
	return cw.Error()
}

// writeReportJSON encodes the report with a stable key order.
func writeReportJSON(w io.Writer, report *update.Report) error {
	doc := orderedmap.New()
	doc.SetEscapeHTML(false)
	doc.Set("decision", report.Decision.Kind.String())

	doc.Set("versions", report.Decision.Versions())

	if report.Blocked != nil {
		blocked := orderedmap.New()
		blocked.SetEscapeHTML(false)
		blocked.Set("line", report.Blocked.Line)
		blocked.Set("version", report.Blocked.Version)
		blocked.Set("artifact", report.Blocked.Artifact)
		doc.Set("blocked", blocked)
	} else {
		doc.Set("blocked", nil)
	}

	lineDocs := make([]*orderedmap.OrderedMap, 0, len(report.Lines))
	for _, lr := range report.Lines {
		o := orderedmap.New()
		o.SetEscapeHTML(false)
		o.Set("line", lr.Line)
		o.Set("current", lr.Current)
		if lr.Latest == "" {
			o.Set("latest", nil)
		} else {
			o.Set("latest", lr.Latest)
		}
		o.Set("alternate_build", lr.HasAlternateBuild)
		o.Set("security", lr.IsSecurity)
		o.Set("status", lr.Status)
		lineDocs = append(lineDocs, o)
	}
	doc.Set("lines", lineDocs)

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func valueOrNA(s string) string {
	if s == "" {
		return constants.PlaceholderNA
	}
	return s
}

// flagCell renders a yes/no cell, or "-" for lines with nothing newer.
func flagCell(lr update.LineReport, v bool) string {
	if lr.Latest == "" {
		return constants.PlaceholderNA
	}
	if v {
		return "yes"
	}
	return "no"
}
