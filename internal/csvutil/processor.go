// Package csvutil reads CSV exports into typed records, keyed by the
// header row so column order does not matter.
package csvutil

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// ProcessorOptions configures CSV processing behavior.
type ProcessorOptions struct {
	// SkipInvalid controls whether to skip invalid records or return an error.
	SkipInvalid bool
}

// Row is one CSV record keyed by header name.
type Row map[string]string

// Get returns the value of a column, or "" when the column is absent.
func (r Row) Get(column string) string {
	return r[column]
}

// ProcessCSV reads a CSV file and parses each record into type T. The
// first row is the header; the parser receives each following record as
// a header-keyed Row. Short records leave their trailing columns empty
// rather than failing the whole file.
func ProcessCSV[T any](filename string, parser func(Row) (T, error), opts ProcessorOptions) ([]T, error) {
	csvFile, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %v", err)
	}
	defer func() { _ = csvFile.Close() }()

	if fi, err := csvFile.Stat(); err != nil || fi.Size() == 0 {
		return nil, fmt.Errorf("CSV file is empty or cannot be read")
	}

	reader := csv.NewReader(csvFile)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %v", err)
	}

	var items []T

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			slog.Warn("Error reading record", "error", err)
			continue
		}

		row := make(Row, len(header))
		for i, column := range header {
			if i < len(record) {
				row[column] = record[i]
			}
		}

		item, err := parser(row)
		if err != nil {
			if opts.SkipInvalid {
				slog.Warn("Skipping invalid record", "error", err)
				continue
			}
			return nil, fmt.Errorf("invalid record: %v", err)
		}

		items = append(items, item)
	}

	return items, nil
}
