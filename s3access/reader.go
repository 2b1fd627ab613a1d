package s3access

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"

	"github.com/justapithecus/s3access/s3access/spec"
)

// Reader decodes select payloads into a result type and combines the
// per-object results of a multi-object select.
//
// Read receives the raw concatenated record payload of one object's
// select. Combine merges per-object results; it must accept an empty
// slice and produce an empty result. Output declares the output
// serialization the reader expects, used as the request default.
type Reader[R any] interface {
	Read(payload []byte) (R, error)
	Combine(results []R) (R, error)
	Output() spec.Output
}

// CachingReader is an optional capability: readers that can persist a
// result to a local file and load it back support transparent result
// caching. Detection is by interface assertion, so any Reader gains
// caching by implementing these two methods.
type CachingReader[R any] interface {
	Reader[R]

	// ReadCache loads a previously written result. A missing or
	// unreadable file is an error; the caller treats it as a miss.
	ReadCache(path string) (R, error)

	// WriteCache persists a result to the given file path.
	WriteCache(path string, result R) error
}

// CacheExt is an optional companion to CachingReader naming the file
// extension cache entries use (e.g. ".parquet").
type CacheExt interface {
	CacheExt() string
}

// -----------------------------------------------------------------------------
// Rows reader
// -----------------------------------------------------------------------------

// Rows decodes CSV select output into raw string records.
type Rows struct{}

// NewRows creates a reader producing [][]string.
func NewRows() Rows { return Rows{} }

// Read parses the CSV payload. Records may vary in width; no typing is
// applied.
func (Rows) Read(payload []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(payload))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv payload: %w", err)
	}
	if records == nil {
		records = [][]string{}
	}
	return records, nil
}

// Combine concatenates record slices.
func (Rows) Combine(results [][][]string) ([][]string, error) {
	combined := [][]string{}
	for _, r := range results {
		combined = append(combined, r...)
	}
	return combined, nil
}

// Output requests always-quoted CSV.
func (Rows) Output() spec.Output {
	return spec.Output{Format: spec.CSVOutput{QuoteFields: spec.QuoteAlways}}
}

// -----------------------------------------------------------------------------
// JSON reader
// -----------------------------------------------------------------------------

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// JSON decodes newline-delimited JSON select output.
type JSON struct{}

// NewJSON creates a reader producing []map[string]any, one map per
// result record.
func NewJSON() JSON { return JSON{} }

// Read decodes the record-delimited JSON payload.
func (JSON) Read(payload []byte) ([]map[string]any, error) {
	records := []map[string]any{}
	dec := json.NewDecoder(bytes.NewReader(payload))
	for {
		var record map[string]any
		err := dec.Decode(&record)
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read json payload: %w", err)
		}
		records = append(records, record)
	}
}

// Combine concatenates record slices.
func (JSON) Combine(results [][]map[string]any) ([]map[string]any, error) {
	combined := []map[string]any{}
	for _, r := range results {
		combined = append(combined, r...)
	}
	return combined, nil
}

// Output requests newline-delimited JSON.
func (JSON) Output() spec.Output {
	return spec.Output{Format: spec.JSONOutput{}}
}
