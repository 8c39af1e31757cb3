// Package tabular converts the meal and family collections to and from the
// tabular interchange formats used by the remote stores: CSV text for the
// file backend and 2D string grids for the spreadsheet backend.
package tabular

import "strings"

// EncodeCSV renders rows as CSV text. A field is quoted when it contains a
// comma, a double quote or a newline; embedded quotes are doubled.
func EncodeCSV(rows [][]string) string {
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		fields := make([]string, len(row))
		for i, field := range row {
			fields[i] = escapeField(field)
		}
		lines = append(lines, strings.Join(fields, ","))
	}
	return strings.Join(lines, "\n")
}

func escapeField(value string) string {
	if strings.ContainsAny(value, ",\"\n") {
		return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
	}
	return value
}

// DecodeCSV parses CSV text into rows. The scan is a single left-to-right
// pass: inside quotes a doubled quote emits one literal quote, a lone quote
// exits quoted mode; outside quotes a comma ends the field and a quote
// enters quoted mode. Quoted fields may span lines. Blank lines are skipped.
// The header row is returned like any other; callers skip it.
func DecodeCSV(text string) [][]string {
	var rows [][]string
	var row []string
	var field strings.Builder
	inQuotes := false
	rowDirty := false

	flushField := func() {
		row = append(row, field.String())
		field.Reset()
	}
	endRow := func() {
		flushField()
		// A line with no separators, quotes or characters is blank.
		if !rowDirty && len(row) == 1 && row[0] == "" {
			row = nil
			return
		}
		rows = append(rows, row)
		row = nil
		rowDirty = false
	}

	for i := 0; i < len(text); i++ {
		c := text[i]
		if inQuotes {
			if c == '"' {
				if i+1 < len(text) && text[i+1] == '"' {
					field.WriteByte('"')
					i++
				} else {
					inQuotes = false
				}
			} else {
				field.WriteByte(c)
			}
			continue
		}
		switch c {
		case '"':
			inQuotes = true
			rowDirty = true
		case ',':
			flushField()
			rowDirty = true
		case '\r':
			// Tolerate CRLF line endings.
		case '\n':
			endRow()
		default:
			field.WriteByte(c)
			rowDirty = true
		}
	}
	endRow()

	return rows
}
