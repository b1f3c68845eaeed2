// Package source reads registrant rows from an external sheet export. The
// sheet is re-read in full on every tick; rows that cannot be parsed are
// skipped, never fatal.
package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"remindbot/internal/domain/registrant"
)

// Mapping names the sheet columns that hold the registrant fields. Column
// positions vary between sheet revisions, so lookup is by header name, not
// index.
type Mapping struct {
	NameColumn  string
	EmailColumn string
}

// DefaultMapping matches the registration form export.
func DefaultMapping() Mapping {
	return Mapping{NameColumn: "NAME", EmailColumn: "EMAIL"}
}

// Validate checks that both columns are named.
func (m Mapping) Validate() error {
	if strings.TrimSpace(m.NameColumn) == "" {
		return errors.New("name column is required")
	}
	if strings.TrimSpace(m.EmailColumn) == "" {
		return errors.New("email column is required")
	}
	return nil
}

// Source yields the current registrant list.
type Source interface {
	Rows(ctx context.Context) ([]registrant.Registrant, error)
}

// decodeCSV reads a CSV stream with a header row and extracts registrants
// according to the mapping. Rows missing either field are skipped and
// logged.
func decodeCSV(r io.Reader, mapping Mapping) ([]registrant.Registrant, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1 // sheet exports pad rows unevenly

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header row: %w", err)
	}

	colIdx := make(map[string]int, len(header))
	for i, h := range header {
		colIdx[strings.ToUpper(strings.TrimSpace(h))] = i
	}

	nameIdx, ok := colIdx[strings.ToUpper(mapping.NameColumn)]
	if !ok {
		return nil, fmt.Errorf("sheet missing required column: %s", mapping.NameColumn)
	}
	emailIdx, ok := colIdx[strings.ToUpper(mapping.EmailColumn)]
	if !ok {
		return nil, fmt.Errorf("sheet missing required column: %s", mapping.EmailColumn)
	}

	getCol := func(row []string, i int) string {
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var out []registrant.Registrant
	rowNum := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			rowNum++
			slog.Warn("row_skipped", "row", rowNum, "reason", "malformed", "error", err.Error())
			continue
		}
		rowNum++

		reg := registrant.Registrant{
			Name:  getCol(row, nameIdx),
			Email: getCol(row, emailIdx),
		}
		if err := reg.Validate(); err != nil {
			slog.Warn("row_skipped", "row", rowNum, "reason", err.Error())
			continue
		}
		out = append(out, reg)
	}
	return out, nil
}
