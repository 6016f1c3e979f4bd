package exporter

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/jszwec/csvutil"
)

// WriteRecords encodes typed report rows as CSV. The header comes from the csv
// struct tags; an empty slice still writes the header.
func WriteRecords[T any](out io.Writer, rows []T) error {
	w := csv.NewWriter(out)
	enc := csvutil.NewEncoder(w)

	if len(rows) == 0 {
		var zero T
		if err := enc.EncodeHeader(zero); err != nil {
			return fmt.Errorf("failed to encode header: %w", err)
		}
	} else if err := enc.Encode(rows); err != nil {
		return fmt.Errorf("failed to encode records: %w", err)
	}

	w.Flush()
	return w.Error()
}

// ReadRecords decodes rows written by WriteRecords
func ReadRecords[T any](in io.Reader) ([]T, error) {
	dec, err := csvutil.NewDecoder(csv.NewReader(in))
	if err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	var rows []T
	if err := dec.Decode(&rows); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to decode records: %w", err)
	}
	return rows, nil
}
