// Package decode turns SQLite result sets into schema-less value trees.
//
// Every column of a result set must carry one of the five recognized
// declared types: JSON, TEXT, INTEGER, REAL, BLOB. The declared type
// selects a decoding strategy once per statement, and that strategy is
// applied uniformly to every row. A column with any other declared type
// (including expression columns, which have none) fails the whole query
// before the first row is read — the engine never guesses a default.
package decode

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnsupportedColumnType reports a declared column type outside the
// recognized vocabulary. Callers can match it with errors.Is.
var ErrUnsupportedColumnType = errors.New("unsupported column type")

// strategy selects how a column's cells are decoded. One strategy is
// chosen per column from its declared type and reused for every row.
type strategy int

const (
	strategyJSON strategy = iota
	strategyText
	strategyInteger
	strategyReal
	strategyBlob
)

// classify maps a declared column type to its decoding strategy.
// Matching is exact and case-sensitive.
func classify(declType string) (strategy, error) {
	switch declType {
	case "JSON":
		return strategyJSON, nil
	case "TEXT":
		return strategyText, nil
	case "INTEGER":
		return strategyInteger, nil
	case "REAL":
		return strategyReal, nil
	case "BLOB":
		return strategyBlob, nil
	}
	if declType == "" {
		declType = "UNKNOWN"
	}
	return 0, fmt.Errorf("%w: %s", ErrUnsupportedColumnType, declType)
}

// classifyColumns resolves a strategy for every column up front so a bad
// declared type is caught before any row is scanned.
func classifyColumns(cols []*sql.ColumnType) ([]strategy, error) {
	strategies := make([]strategy, len(cols))
	for i, col := range cols {
		s, err := classify(col.DatabaseTypeName())
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", col.Name(), err)
		}
		strategies[i] = s
	}
	return strategies, nil
}

// scanDest returns a fresh scan destination for one cell. The
// destinations are non-nullable on purpose: a NULL in any column
// surfaces as a scan conversion error and fails the result set.
func (s strategy) scanDest() any {
	switch s {
	case strategyJSON, strategyText:
		return new(string)
	case strategyInteger:
		return new(int64)
	case strategyReal:
		return new(float64)
	default:
		return new([]byte)
	}
}

// leaf converts a scanned cell into its value-tree leaf. JSON cells are
// parsed into a nested tree; everything else is wrapped verbatim.
func (s strategy) leaf(dest any) (any, error) {
	switch s {
	case strategyJSON:
		var v any
		if err := json.Unmarshal([]byte(*dest.(*string)), &v); err != nil {
			return nil, fmt.Errorf("parse JSON cell: %w", err)
		}
		return v, nil
	case strategyText:
		return *dest.(*string), nil
	case strategyInteger:
		return *dest.(*int64), nil
	case strategyReal:
		return *dest.(*float64), nil
	default:
		return *dest.(*[]byte), nil
	}
}

// decodeRow scans the current row and assembles it into a map keyed by
// column name, in declared column order. Duplicate column names resolve
// last-write-wins; callers with joins should alias colliding columns.
func decodeRow(rows *sql.Rows, cols []*sql.ColumnType, strategies []strategy) (map[string]any, error) {
	dests := make([]any, len(strategies))
	for i, s := range strategies {
		dests[i] = s.scanDest()
	}
	if err := rows.Scan(dests...); err != nil {
		return nil, fmt.Errorf("scan row: %w", err)
	}

	row := make(map[string]any, len(cols))
	for i, col := range cols {
		v, err := strategies[i].leaf(dests[i])
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", col.Name(), err)
		}
		row[col.Name()] = v
	}
	return row, nil
}
