package decode

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// DynamicRows drains rows and decodes each row into a generic mapping
// from column name to value-tree leaf. The result serializes directly
// as a JSON array of objects. The iterator is consumed exactly once and
// closed; rows keep the order the query produced. On the first error
// the whole call fails and no partial results are returned.
func DynamicRows(rows *sql.Rows) ([]map[string]any, error) {
	defer rows.Close()

	cols, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("read column types: %w", err)
	}
	strategies, err := classifyColumns(cols)
	if err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0)
	for rows.Next() {
		row, err := decodeRow(rows, cols, strategies)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// Rows drains rows and decodes each row into T by round-tripping the
// assembled value tree through JSON. A row whose shape does not fit T
// fails the whole call. BLOB columns reach T as base64 text, matching
// encoding/json's []byte convention.
func Rows[T any](rows *sql.Rows) ([]T, error) {
	dynamic, err := DynamicRows(rows)
	if err != nil {
		return nil, err
	}

	out := make([]T, 0, len(dynamic))
	for _, row := range dynamic {
		data, err := json.Marshal(row)
		if err != nil {
			return nil, fmt.Errorf("encode row: %w", err)
		}
		var rec T
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("decode row into %T: %w", rec, err)
		}
		out = append(out, rec)
	}
	return out, nil
}
