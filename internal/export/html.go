package export

import (
	"fmt"
	"html"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rollcall-hq/constituent-export/internal/export/domain"
)

// ReportMeta carries the header information of the HTML report.
type ReportMeta struct {
	Title       string
	GeneratedAt time.Time
	Filters     domain.Filters
}

// filterLabels maps known filter keys to their display labels. Unknown keys
// render with the raw key; the descriptor itself stays opaque.
var filterLabels = map[string]string{
	"gender":   "Gender",
	"city":     "City",
	"district": "District",
	"columns":  "Columns",
}

// EncodeHTMLReport renders a complete standalone HTML document: header with
// generation timestamp and active filters, a summary block, and the data
// table. Rows render in input order; presentation rules apply per column on
// top of the raw accessor value.
func EncodeHTMLReport(rows []domain.FlatRow, cols []Column, meta ReportMeta) Encoded {
	var b strings.Builder

	b.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	b.WriteString("<meta charset=\"utf-8\">\n")
	b.WriteString("<title>" + html.EscapeString(meta.Title) + "</title>\n")
	writeReportStyle(&b)
	b.WriteString("</head>\n<body>\n")

	writeReportHeader(&b, meta)
	writeReportSummary(&b, rows)
	writeReportTable(&b, rows, cols)

	b.WriteString("</body>\n</html>\n")

	return Encoded{
		Payload:     []byte(b.String()),
		ContentType: "text/html; charset=utf-8",
		Extension:   "html",
	}
}

func writeReportStyle(b *strings.Builder) {
	b.WriteString(`<style>
body { font-family: Arial, Helvetica, sans-serif; margin: 24px; color: #1a1a1a; }
h1 { font-size: 22px; margin-bottom: 4px; }
.meta { color: #555; font-size: 13px; margin-bottom: 16px; }
.filters { background: #f5f5f5; border: 1px solid #ddd; border-radius: 4px; padding: 10px 14px; font-size: 13px; margin-bottom: 16px; }
.filters div { margin: 2px 0; }
.summary { display: flex; gap: 24px; margin-bottom: 20px; }
.summary .stat { border: 1px solid #ddd; border-radius: 4px; padding: 10px 18px; text-align: center; }
.summary .stat .num { font-size: 20px; font-weight: bold; }
.summary .stat .label { font-size: 12px; color: #555; }
table { border-collapse: collapse; width: 100%; font-size: 13px; }
th, td { border: 1px solid #ccc; padding: 6px 8px; text-align: left; }
th { background: #f0f0f0; }
tr:nth-child(even) td { background: #fafafa; }
code { font-family: "Courier New", monospace; background: #f5f5f5; padding: 1px 4px; border-radius: 3px; }
.badge { display: inline-block; background: #e8eef9; color: #2b4a8b; border-radius: 10px; padding: 1px 8px; font-size: 12px; }
</style>
`)
}

func writeReportHeader(b *strings.Builder, meta ReportMeta) {
	b.WriteString("<h1>" + html.EscapeString(meta.Title) + "</h1>\n")
	b.WriteString("<div class=\"meta\">Generated at " +
		html.EscapeString(meta.GeneratedAt.Format("2006-01-02 15:04")) + "</div>\n")

	b.WriteString("<div class=\"filters\">\n")
	if len(meta.Filters) == 0 {
		b.WriteString("<div>No filters applied</div>\n")
	} else {
		keys := make([]string, 0, len(meta.Filters))
		for key := range meta.Filters {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			label := filterLabels[key]
			if label == "" {
				label = key
			}
			value := fmt.Sprintf("%v", meta.Filters[key])
			b.WriteString("<div><strong>" + html.EscapeString(label) + ":</strong> " +
				html.EscapeString(value) + "</div>\n")
		}
	}
	b.WriteString("</div>\n")
}

func writeReportSummary(b *strings.Builder, rows []domain.FlatRow) {
	var male, female, withPhone int
	for _, row := range rows {
		switch row.Gender {
		case "M":
			male++
		case "F":
			female++
		}
		if row.PhoneNumber != "" {
			withPhone++
		}
	}

	b.WriteString("<div class=\"summary\">\n")
	writeStat(b, len(rows), "Total Rows")
	writeStat(b, male, "Male")
	writeStat(b, female, "Female")
	writeStat(b, withPhone, "With Phone")
	b.WriteString("</div>\n")
}

func writeStat(b *strings.Builder, n int, label string) {
	b.WriteString("<div class=\"stat\"><div class=\"num\">" + strconv.Itoa(n) +
		"</div><div class=\"label\">" + html.EscapeString(label) + "</div></div>\n")
}

func writeReportTable(b *strings.Builder, rows []domain.FlatRow, cols []Column) {
	b.WriteString("<table>\n<thead>\n<tr><th>#</th>")
	for _, col := range cols {
		b.WriteString("<th>" + html.EscapeString(col.Header) + "</th>")
	}
	b.WriteString("</tr>\n</thead>\n<tbody>\n")

	for i, row := range rows {
		b.WriteString("<tr><td>" + strconv.Itoa(i+1) + "</td>")
		for _, col := range cols {
			b.WriteString("<td>" + renderCell(col, row) + "</td>")
		}
		b.WriteString("</tr>\n")
	}

	b.WriteString("</tbody>\n</table>\n")
}

// renderCell layers the per-column presentation rule over the raw accessor
// value: mono for the voter number, bold for the full name, a badge for the
// gender code.
func renderCell(col Column, row domain.FlatRow) string {
	value := html.EscapeString(col.Value(row))
	if value == "" {
		return ""
	}

	switch col.Key {
	case "voter_number":
		return "<code>" + value + "</code>"
	case "full_name":
		return "<strong>" + value + "</strong>"
	case "gender":
		return "<span class=\"badge\">" + value + "</span>"
	}
	return value
}
