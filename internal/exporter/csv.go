package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"scopustriage/internal/dataprocessing"
)

// WriteCSV renders review rows as CSV. The UTF-8 BOM helps Excel open
// the file with the right encoding; author names in the data are not
// ASCII.
func WriteCSV(w io.Writer, rows []dataprocessing.ResultRow) error {
	if len(rows) == 0 {
		return ErrNoRows
	}

	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	cw := csv.NewWriter(w)

	if err := cw.Write(dataprocessing.ResultColumns); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	for i, row := range rows {
		record := make([]string, len(dataprocessing.ResultColumns))
		for j, v := range rowValues(row) {
			switch val := v.(type) {
			case string:
				record[j] = val
			case int:
				record[j] = strconv.Itoa(val)
			default:
				record[j] = fmt.Sprint(val)
			}
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
