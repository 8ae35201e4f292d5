package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
)

// ReadCSV parses CSV input into a raw Table. The first record is the header;
// every cell comes back as plain text. Ragged rows are tolerated: short rows
// are padded with empty cells and extra cells beyond the header are dropped,
// so a sloppy export never fails structurally.
func ReadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty CSV input")
	}
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	t := &Table{Columns: append([]string(nil), header...)}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV row %d: %w", len(t.Rows)+2, err)
		}

		row := make([]Value, len(t.Columns))
		for i := range row {
			if i < len(record) {
				row[i] = StringValue(record[i])
			} else {
				row[i] = StringValue("")
			}
		}
		t.Rows = append(t.Rows, row)
	}

	return t, nil
}
