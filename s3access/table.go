package s3access

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Table errors.
var (
	// ErrSchemaMismatch indicates two tables with different column sets
	// were combined, or a row of the wrong width was appended.
	ErrSchemaMismatch = errors.New("table schema mismatch")
)

// CellError reports a cell that could not be parsed as its column type.
type CellError struct {
	Row    int
	Column string
	Raw    string
	Type   Type
}

func (e *CellError) Error() string {
	return fmt.Sprintf("row %d column %s: cannot parse %q as %s", e.Row, e.Column, e.Raw, e.Type)
}

// Type is the domain of a table column.
type Type int

// Column types.
const (
	String Type = iota
	Int
	Float
	Bool
	Time
)

func (t Type) String() string {
	switch t {
	case String:
		return "string"
	case Int:
		return "int"
	case Float:
		return "float"
	case Bool:
		return "bool"
	case Time:
		return "time"
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// Column names and types a table column.
type Column struct {
	Name string
	Type Type
}

// Table is a typed columnar result.
//
// Cells are string, int64, float64, bool or time.Time according to the
// column type; a nil cell is a null (absent or, in lenient parsing,
// uncoercible input).
type Table struct {
	Columns []Column
	Rows    [][]any
}

// NewTable creates an empty table with the given schema.
func NewTable(columns []Column) *Table {
	return &Table{Columns: columns, Rows: [][]any{}}
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// ColumnIndex returns the index of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Cell returns the value at (row, column name). Returns nil for a null
// cell or an unknown column.
func (t *Table) Cell(row int, column string) any {
	i := t.ColumnIndex(column)
	if i < 0 || row < 0 || row >= len(t.Rows) {
		return nil
	}
	return t.Rows[row][i]
}

// Append adds a row. The row width must match the schema.
func (t *Table) Append(row []any) error {
	if len(row) != len(t.Columns) {
		return fmt.Errorf("%w: row has %d cells, schema has %d columns", ErrSchemaMismatch, len(row), len(t.Columns))
	}
	t.Rows = append(t.Rows, row)
	return nil
}

// AppendTable concatenates other onto t. Schemas must match exactly.
func (t *Table) AppendTable(other *Table) error {
	if !sameSchema(t.Columns, other.Columns) {
		return fmt.Errorf("%w: cannot concatenate tables with different schemas", ErrSchemaMismatch)
	}
	t.Rows = append(t.Rows, other.Rows...)
	return nil
}

func sameSchema(a, b []Column) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Accepted time layouts for Time cells, tried in order.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseCell converts a raw CSV cell to the column's domain.
//
// Empty input is null. In strict mode a malformed cell is a CellError;
// otherwise numeric, boolean and time failures coerce to null, matching
// lenient analytical loading.
func parseCell(raw string, col Column, row int, strict bool) (any, error) {
	if raw == "" && col.Type != String {
		return nil, nil
	}
	switch col.Type {
	case String:
		return raw, nil
	case Int:
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return coerce(raw, col, row, strict)
		}
		return v, nil
	case Float:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return coerce(raw, col, row, strict)
		}
		return v, nil
	case Bool:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return coerce(raw, col, row, strict)
		}
		return v, nil
	case Time:
		for _, layout := range timeLayouts {
			if ts, err := time.Parse(layout, raw); err == nil {
				return ts, nil
			}
		}
		return coerce(raw, col, row, strict)
	}
	return nil, &CellError{Row: row, Column: col.Name, Raw: raw, Type: col.Type}
}

func coerce(raw string, col Column, row int, strict bool) (any, error) {
	if strict {
		return nil, &CellError{Row: row, Column: col.Name, Raw: raw, Type: col.Type}
	}
	return nil, nil
}
