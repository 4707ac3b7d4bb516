package objectstore

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
)

// EncodeGzipNDJSON serializes rows as newline-delimited JSON and
// gzip-compresses the result, the shape the warehouse load job expects.
// Row structs use pointer fields for nullable columns, so unset columns
// appear as explicit nulls rather than being omitted.
func EncodeGzipNDJSON[T any](rows []T) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	enc := json.NewEncoder(gz)

	for i, row := range rows {
		if err := enc.Encode(row); err != nil {
			return nil, fmt.Errorf("objectstore: encoding row %d: %w", i, err)
		}
	}

	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("objectstore: closing gzip writer: %w", err)
	}

	return buf.Bytes(), nil
}
