// Package dataset reads the tab-separated page tables the classifier is
// trained and evaluated on, and writes prediction tables.
//
// A table has a header row. Column 0 holds the page URL, column 2 the raw
// payload literal, and the last column of a training table the label.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
)

// Fixed column positions
const (
	URLColumn     = 0
	PayloadColumn = 2
)

// ErrInvalidTable is returned for tables that are empty or lack the
// required columns.
var ErrInvalidTable = errors.New("invalid table")

// Record is one input row.
type Record struct {
	ID      string
	URL     string
	Payload string
	Label   int
}

// Table is a loaded input table in file order.
type Table struct {
	Header  []string
	Records []Record
}

// Options controls how a table is interpreted.
type Options struct {
	// Labeled reads the last column as an integer label.
	Labeled bool

	// IDColumn is the column written as the identifier of predictions.
	IDColumn int
}

// Load opens source (a path or "-") and reads it as a table.
func Load(source string, opts Options) (*Table, error) {
	reader, err := Open(source)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	table, err := Read(reader, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to read table %q: %w", source, err)
	}

	slog.Debug("Loaded table", "source", source, "records", len(table.Records), "columns", len(table.Header))
	return table, nil
}

// Read parses a tab-separated table with a header row. Every row must have
// as many fields as the header.
func Read(r io.Reader, opts Options) (*Table, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: missing header row", ErrInvalidTable)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	columns := len(header)
	minColumns := PayloadColumn + 1
	if opts.Labeled {
		minColumns = PayloadColumn + 2
	}
	if columns < minColumns {
		return nil, fmt.Errorf("%w: %d columns, need at least %d", ErrInvalidTable, columns, minColumns)
	}
	if opts.IDColumn < 0 || opts.IDColumn >= columns {
		return nil, fmt.Errorf("%w: id column %d out of range for %d columns", ErrInvalidTable, opts.IDColumn, columns)
	}

	table := &Table{Header: header}
	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}

		rec := Record{
			ID:      fields[opts.IDColumn],
			URL:     fields[URLColumn],
			Payload: fields[PayloadColumn],
		}
		if opts.Labeled {
			raw := strings.TrimSpace(fields[columns-1])
			label, err := strconv.Atoi(raw)
			if err != nil {
				// quoted payloads may span lines
				line, _ := cr.FieldPos(columns - 1)
				return nil, fmt.Errorf("line %d: label %q is not an integer", line, raw)
			}
			rec.Label = label
		}
		table.Records = append(table.Records, rec)
	}

	return table, nil
}

// IDs returns the identifier column in record order.
func (t *Table) IDs() []string {
	out := make([]string, len(t.Records))
	for i, r := range t.Records {
		out[i] = r.ID
	}
	return out
}

// Labels returns the labels in record order.
func (t *Table) Labels() []int {
	out := make([]int, len(t.Records))
	for i, r := range t.Records {
		out[i] = r.Label
	}
	return out
}
