// Package ingest bulk-loads LookupTable rows from CSV, the common export
// format for the spreadsheets a BOM lookup table is sourced from. The
// first column is the numeric key; every other column becomes a row
// field, typed by a best-effort number/boolean/text sniff.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"bomgen/internal/formula"
	"bomgen/internal/value"
)

// LookupTableFromCSV reads r as a CSV document whose header row is
// "key,field1,field2,...", and returns the corresponding LookupTable.
// name is carried through unchanged for use as the table's map key in a
// RawContext.
func LookupTableFromCSV(name string, r io.Reader) (formula.LookupTable, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return formula.LookupTable{}, fmt.Errorf("ingest: read header: %w", err)
	}
	if len(header) < 1 {
		return formula.LookupTable{}, fmt.Errorf("ingest: empty header")
	}
	fields := header[1:]

	var rows []formula.LookupRow
	lineNo := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return formula.LookupTable{}, fmt.Errorf("ingest: row %d: %w", lineNo+1, err)
		}
		lineNo++
		if len(record) != len(header) {
			return formula.LookupTable{}, fmt.Errorf("ingest: row %d: expected %d columns, got %d", lineNo, len(header), len(record))
		}
		key, err := strconv.ParseFloat(strings.TrimSpace(record[0]), 64)
		if err != nil {
			return formula.LookupTable{}, fmt.Errorf("ingest: row %d: key %q is not numeric: %w", lineNo, record[0], err)
		}
		values := make(map[string]value.Value, len(fields))
		for i, field := range fields {
			values[field] = sniff(record[i+1])
		}
		rows = append(rows, formula.LookupRow{Key: key, Values: values})
	}

	return formula.LookupTable{Name: name, Rows: rows}, nil
}

// sniff maps a raw CSV cell to a Value: a number if it parses as one, a
// boolean if it case-insensitively matches true/false, text otherwise.
func sniff(cell string) value.Value {
	trimmed := strings.TrimSpace(cell)
	if trimmed == "" {
		return value.Text{V: ""}
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return value.Number{V: f}
	}
	switch strings.ToUpper(trimmed) {
	case "TRUE":
		return value.Boolean{V: true}
	case "FALSE":
		return value.Boolean{V: false}
	}
	return value.Text{V: cell}
}
