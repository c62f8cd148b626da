package export

import (
	"strings"

	"github.com/rollcall-hq/constituent-export/internal/export/domain"
)

// Encoded is a rendered artifact payload with its declared content type and
// file extension.
type Encoded struct {
	Payload     []byte
	ContentType string
	Extension   string
}

// utf8BOM prefixes the excel variant so spreadsheet tools pick up UTF-8.
const utf8BOM = "\uFEFF"

// EncodeCSV renders the rows as delimited text: one header line, one line per
// row, every field double-quoted with embedded quotes doubled. Commas and
// newlines inside a field survive via the quoting alone.
func EncodeCSV(rows []domain.FlatRow, cols []Column) Encoded {
	return Encoded{
		Payload:     []byte(encodeDelimited(rows, cols)),
		ContentType: "text/csv",
		Extension:   "csv",
	}
}

// EncodeExcelCSV renders the same delimited text prefixed with a UTF-8 BOM.
func EncodeExcelCSV(rows []domain.FlatRow, cols []Column) Encoded {
	return Encoded{
		Payload:     []byte(utf8BOM + encodeDelimited(rows, cols)),
		ContentType: "text/csv; charset=utf-8",
		Extension:   "csv",
	}
}

func encodeDelimited(rows []domain.FlatRow, cols []Column) string {
	var b strings.Builder

	for i, col := range cols {
		if i > 0 {
			b.WriteByte(',')
		}
		writeQuoted(&b, col.Header)
	}
	b.WriteByte('\n')

	for _, row := range rows {
		for i, col := range cols {
			if i > 0 {
				b.WriteByte(',')
			}
			writeQuoted(&b, col.Value(row))
		}
		b.WriteByte('\n')
	}

	return b.String()
}

func writeQuoted(b *strings.Builder, field string) {
	b.WriteByte('"')
	b.WriteString(strings.ReplaceAll(field, `"`, `""`))
	b.WriteByte('"')
}
