package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
)

// FromCSV reads a table from CSV data. The first record is the header. A
// column whose every non-empty cell parses as a float becomes numeric;
// anything else becomes categorical. Empty cells are missing values.
func FromCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("csv has no header row")
	}

	header := records[0]
	rows := records[1:]
	t := New()

	for j, name := range header {
		numeric := true
		for _, rec := range rows {
			cell := rec[j]
			if cell == "" {
				continue
			}
			if _, err := strconv.ParseFloat(cell, 64); err != nil {
				numeric = false
				break
			}
		}

		if numeric {
			values := make([]float64, len(rows))
			for i, rec := range rows {
				if rec[j] == "" {
					values[i] = math.NaN()
					continue
				}
				v, _ := strconv.ParseFloat(rec[j], 64)
				values[i] = v
			}
			if err := t.AddNumeric(name, values); err != nil {
				return nil, err
			}
			continue
		}

		values := make([]string, len(rows))
		for i, rec := range rows {
			values[i] = rec[j]
		}
		if err := t.AddCategorical(name, values); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// WriteCSV writes the table as CSV with a header row. Missing values are
// written as empty cells.
func (t *Table) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(t.Names()); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	record := make([]string, t.NumCols())
	for i := 0; i < t.NumRows(); i++ {
		for j, c := range t.columns {
			if c.IsMissing(i) {
				record[j] = ""
				continue
			}
			if c.Kind == Numeric {
				record[j] = strconv.FormatFloat(c.Floats[i], 'g', -1, 64)
			} else {
				record[j] = c.Labels[i]
			}
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
