package s3access

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/justapithecus/s3access/s3access/spec"
)

// TableReader decodes CSV select output into a typed Table.
//
// In strict mode a cell that does not parse as its column type fails the
// read; otherwise it coerces to null. TableReader supports result
// caching: tables round-trip through local parquet files.
type TableReader struct {
	columns []Column
	strict  bool
}

// NewTableReader creates a reader producing *Table with the given schema.
func NewTableReader(columns []Column) TableReader {
	return TableReader{columns: columns}
}

// Strict returns a copy of the reader that fails on unparseable cells
// instead of coercing them to null.
func (r TableReader) Strict() TableReader {
	r.strict = true
	return r
}

// Read parses the CSV payload into a table. Each record must have
// exactly one cell per schema column.
func (r TableReader) Read(payload []byte) (*Table, error) {
	cr := csv.NewReader(bytes.NewReader(payload))
	cr.FieldsPerRecord = len(r.columns)

	t := NewTable(r.columns)
	for row := 0; ; row++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return t, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read table payload: %w", err)
		}
		cells := make([]any, len(record))
		for i, raw := range record {
			cell, err := parseCell(raw, r.columns[i], row, r.strict)
			if err != nil {
				return nil, fmt.Errorf("read table payload: %w", err)
			}
			cells[i] = cell
		}
		t.Rows = append(t.Rows, cells)
	}
}

// Combine concatenates tables. All inputs carry the reader's schema, so
// concatenation cannot mismatch unless a caller mixes readers.
func (r TableReader) Combine(results []*Table) (*Table, error) {
	combined := NewTable(r.columns)
	for _, t := range results {
		if err := combined.AppendTable(t); err != nil {
			return nil, err
		}
	}
	return combined, nil
}

// Output requests always-quoted CSV.
func (r TableReader) Output() spec.Output {
	return spec.Output{Format: spec.CSVOutput{QuoteFields: spec.QuoteAlways}}
}

// CacheExt names the cache file extension.
func (r TableReader) CacheExt() string { return ".parquet" }

// -----------------------------------------------------------------------------
// Parquet cache round-trip
// -----------------------------------------------------------------------------

// parquetSchema builds the cache file schema. Every column is optional so
// null cells survive the round trip. Times are stored as millisecond
// timestamps.
func (r TableReader) parquetSchema() *parquet.Schema {
	group := parquet.Group{}
	for _, c := range r.columns {
		var node parquet.Node
		switch c.Type {
		case Int:
			node = parquet.Int(64)
		case Float:
			node = parquet.Leaf(parquet.DoubleType)
		case Bool:
			node = parquet.Leaf(parquet.BooleanType)
		case Time:
			node = parquet.Timestamp(parquet.Millisecond)
		default:
			node = parquet.String()
		}
		group[c.Name] = parquet.Optional(node)
	}
	return parquet.NewSchema("table", group)
}

// WriteCache persists the table as a parquet file.
func (r TableReader) WriteCache(path string, t *Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write table cache: %w", err)
	}
	defer func() { _ = f.Close() }()

	w := parquet.NewGenericWriter[map[string]any](f, r.parquetSchema())
	rows := make([]map[string]any, 0, len(t.Rows))
	for _, row := range t.Rows {
		rec := make(map[string]any, len(r.columns))
		for i, c := range r.columns {
			cell := row[i]
			if cell == nil {
				continue
			}
			if ts, ok := cell.(time.Time); ok {
				cell = ts.UnixMilli()
			}
			rec[c.Name] = cell
		}
		rows = append(rows, rec)
	}
	if _, err := w.Write(rows); err != nil {
		return fmt.Errorf("write table cache: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("write table cache: %w", err)
	}
	return f.Close()
}

// ReadCache loads a table previously written by WriteCache.
func (r TableReader) ReadCache(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read table cache: %w", err)
	}
	defer func() { _ = f.Close() }()

	pr := parquet.NewGenericReader[map[string]any](f, r.parquetSchema())
	defer func() { _ = pr.Close() }()

	t := NewTable(r.columns)
	batch := make([]map[string]any, 64)
	for i := range batch {
		batch[i] = make(map[string]any, len(r.columns))
	}
	for {
		n, err := pr.Read(batch)
		for _, rec := range batch[:n] {
			row := make([]any, len(r.columns))
			for i, c := range r.columns {
				row[i] = fromParquet(rec[c.Name], c.Type)
			}
			t.Rows = append(t.Rows, row)
		}
		if errors.Is(err, io.EOF) {
			return t, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read table cache: %w", err)
		}
	}
}

// fromParquet maps a decoded parquet value back to the cell domain.
func fromParquet(v any, typ Type) any {
	if v == nil {
		return nil
	}
	switch typ {
	case Int:
		switch n := v.(type) {
		case int64:
			return n
		case int32:
			return int64(n)
		}
	case Float:
		switch n := v.(type) {
		case float64:
			return n
		case float32:
			return float64(n)
		}
	case Bool:
		if b, ok := v.(bool); ok {
			return b
		}
	case Time:
		if ms, ok := v.(int64); ok {
			return time.UnixMilli(ms).UTC()
		}
	case String:
		switch s := v.(type) {
		case string:
			return s
		case []byte:
			return string(s)
		}
	}
	return nil
}
