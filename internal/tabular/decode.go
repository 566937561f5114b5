package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

var (
	// ErrEmptyTable - the file parsed but holds nothing to analyze
	ErrEmptyTable = errors.New("uploaded table is empty")

	// ErrUnreadable - the file could not be parsed as a table
	ErrUnreadable = errors.New("could not read uploaded file as a table")
)

// Table is a decoded upload: a header row plus data rows
type Table struct {
	Columns []string
	Rows    [][]string
}

// Decode parses CSV bytes. Input that isn't valid UTF-8 gets one retry as
// Latin-1 before giving up.
func Decode(data []byte) (*Table, error) {
	if !utf8.Valid(data) {
		decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
		if err != nil {
			return nil, fmt.Errorf("%w: unsupported text encoding", ErrUnreadable)
		}
		data = decoded
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1 // ragged rows are the user's problem, not a parse failure

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	if len(records) == 0 {
		return nil, ErrEmptyTable
	}

	return &Table{
		Columns: records[0],
		Rows:    records[1:],
	}, nil
}

// Preview renders the header and up to maxRows data rows as compact CSV
// text, suitable for an AI prompt
func (t *Table) Preview(maxRows int) string {
	var sb strings.Builder

	sb.WriteString(strings.Join(t.Columns, ","))
	for i, row := range t.Rows {
		if i >= maxRows {
			break
		}
		sb.WriteString("\n")
		sb.WriteString(strings.Join(row, ","))
	}

	return sb.String()
}
