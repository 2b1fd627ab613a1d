// Package spec describes SelectObjectContent request serialization.
//
// The types here mirror the request surface documented at
// https://docs.aws.amazon.com/AmazonS3/latest/API/API_SelectObjectContent.html
// and render onto the aws-sdk-go-v2 wire types via their AWS() methods.
// Zero values are usable: an empty Input selects Parquet with no
// compression, an empty Output selects CSV with fields always quoted.
package spec

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// Compression identifies the compression applied to the stored object.
type Compression string

// Supported object compression formats.
const (
	CompressionNone  Compression = "NONE"
	CompressionGzip  Compression = "GZIP"
	CompressionBzip2 Compression = "BZIP2"
)

// FileHeaderInfo controls how a CSV header row is treated.
type FileHeaderInfo string

// CSV header handling modes.
const (
	FileHeaderNone   FileHeaderInfo = "NONE"
	FileHeaderIgnore FileHeaderInfo = "IGNORE"
	FileHeaderUse    FileHeaderInfo = "USE"
)

// JSONType distinguishes whole-document JSON from newline-delimited records.
type JSONType string

// JSON input document types.
const (
	JSONDocument JSONType = "DOCUMENT"
	JSONLines    JSONType = "LINES"
)

// QuoteFields controls output quoting.
type QuoteFields string

// Output quoting modes.
const (
	QuoteAlways   QuoteFields = "ALWAYS"
	QuoteAsNeeded QuoteFields = "ASNEEDED"
)

// -----------------------------------------------------------------------------
// Input serialization
// -----------------------------------------------------------------------------

// InputFormat is one of ParquetInput, CSVInput or JSONInput.
//
// The set is closed: the service accepts exactly these three formats.
type InputFormat interface {
	awsInput() *types.InputSerialization
}

// ParquetInput selects Parquet input. It has no options.
type ParquetInput struct{}

func (ParquetInput) awsInput() *types.InputSerialization {
	return &types.InputSerialization{Parquet: &types.ParquetInput{}}
}

// CSVInput selects CSV input.
//
// Zero-value fields take the service defaults: comma field delimiter,
// double-quote quoting, no header row. Setting AllowQuotedRecordDelimiter
// may lower scan performance.
type CSVInput struct {
	AllowQuotedRecordDelimiter bool
	Comments                   string
	FieldDelimiter             string
	FileHeaderInfo             FileHeaderInfo
	QuoteCharacter             string
	QuoteEscapeCharacter       string
	RecordDelimiter            string
}

func (in CSVInput) awsInput() *types.InputSerialization {
	csv := &types.CSVInput{
		AllowQuotedRecordDelimiter: aws.Bool(in.AllowQuotedRecordDelimiter),
		FieldDelimiter:             aws.String(orDefault(in.FieldDelimiter, ",")),
		FileHeaderInfo:             types.FileHeaderInfo(orDefault(string(in.FileHeaderInfo), string(FileHeaderNone))),
		QuoteCharacter:             aws.String(orDefault(in.QuoteCharacter, `"`)),
		QuoteEscapeCharacter:       aws.String(orDefault(in.QuoteEscapeCharacter, `"`)),
	}
	if in.Comments != "" {
		csv.Comments = aws.String(in.Comments)
	}
	if in.RecordDelimiter != "" {
		csv.RecordDelimiter = aws.String(in.RecordDelimiter)
	}
	return &types.InputSerialization{CSV: csv}
}

// JSONInput selects JSON input.
type JSONInput struct {
	// Type defaults to LINES when empty.
	Type JSONType
}

func (in JSONInput) awsInput() *types.InputSerialization {
	return &types.InputSerialization{
		JSON: &types.JSONInput{Type: types.JSONType(orDefault(string(in.Type), string(JSONLines)))},
	}
}

// Input combines an input format with the object's compression.
//
// The zero value selects uncompressed Parquet, matching the most common
// analytical layout.
type Input struct {
	Compression Compression
	Format      InputFormat
}

// AWS renders the input serialization for the request.
func (i Input) AWS() *types.InputSerialization {
	format := i.Format
	if format == nil {
		format = ParquetInput{}
	}
	is := format.awsInput()
	is.CompressionType = types.CompressionType(orDefault(string(i.Compression), string(CompressionNone)))
	return is
}

// Validate checks the input specification against service constraints.
func (i Input) Validate() error {
	switch i.Compression {
	case "", CompressionNone, CompressionGzip, CompressionBzip2:
	default:
		return &ValidationError{Field: "compression", Message: "must be NONE, GZIP or BZIP2"}
	}
	if csv, ok := i.Format.(CSVInput); ok {
		if len(csv.FieldDelimiter) > 1 {
			return &ValidationError{Field: "csv.field_delimiter", Message: "must be a single character"}
		}
		if len(csv.QuoteCharacter) > 1 {
			return &ValidationError{Field: "csv.quote_character", Message: "must be a single character"}
		}
		if len(csv.QuoteEscapeCharacter) > 1 {
			return &ValidationError{Field: "csv.quote_escape_character", Message: "must be a single character"}
		}
		switch csv.FileHeaderInfo {
		case "", FileHeaderNone, FileHeaderIgnore, FileHeaderUse:
		default:
			return &ValidationError{Field: "csv.file_header_info", Message: "must be NONE, IGNORE or USE"}
		}
	}
	if js, ok := i.Format.(JSONInput); ok {
		switch js.Type {
		case "", JSONDocument, JSONLines:
		default:
			return &ValidationError{Field: "json.type", Message: "must be DOCUMENT or LINES"}
		}
	}
	return nil
}

// -----------------------------------------------------------------------------
// Output serialization
// -----------------------------------------------------------------------------

// OutputFormat is one of CSVOutput or JSONOutput.
type OutputFormat interface {
	awsOutput() *types.OutputSerialization
}

// CSVOutput selects CSV result records.
//
// Zero-value fields take the library defaults: fields always quoted,
// comma delimiter, newline record delimiter, double-quote quoting.
// Always-quoted output keeps downstream CSV parsing unambiguous when
// string cells contain delimiters.
type CSVOutput struct {
	QuoteFields          QuoteFields
	RecordDelimiter      string
	FieldDelimiter       string
	QuoteCharacter       string
	QuoteEscapeCharacter string
}

func (out CSVOutput) awsOutput() *types.OutputSerialization {
	return &types.OutputSerialization{
		CSV: &types.CSVOutput{
			QuoteFields:          types.QuoteFields(orDefault(string(out.QuoteFields), string(QuoteAlways))),
			RecordDelimiter:      aws.String(orDefault(out.RecordDelimiter, "\n")),
			FieldDelimiter:       aws.String(orDefault(out.FieldDelimiter, ",")),
			QuoteCharacter:       aws.String(orDefault(out.QuoteCharacter, `"`)),
			QuoteEscapeCharacter: aws.String(orDefault(out.QuoteEscapeCharacter, `"`)),
		},
	}
}

// JSONOutput selects newline-delimited JSON result records.
type JSONOutput struct {
	// RecordDelimiter defaults to "\n" when empty.
	RecordDelimiter string
}

func (out JSONOutput) awsOutput() *types.OutputSerialization {
	return &types.OutputSerialization{
		JSON: &types.JSONOutput{RecordDelimiter: aws.String(orDefault(out.RecordDelimiter, "\n"))},
	}
}

// Output wraps the result record format.
//
// The zero value selects always-quoted CSV.
type Output struct {
	Format OutputFormat
}

// AWS renders the output serialization for the request.
func (o Output) AWS() *types.OutputSerialization {
	format := o.Format
	if format == nil {
		format = CSVOutput{}
	}
	return format.awsOutput()
}

// Validate checks the output specification against service constraints.
func (o Output) Validate() error {
	if csv, ok := o.Format.(CSVOutput); ok {
		switch csv.QuoteFields {
		case "", QuoteAlways, QuoteAsNeeded:
		default:
			return &ValidationError{Field: "csv.quote_fields", Message: "must be ALWAYS or ASNEEDED"}
		}
		if len(csv.FieldDelimiter) > 1 {
			return &ValidationError{Field: "csv.field_delimiter", Message: "must be a single character"}
		}
	}
	return nil
}

// -----------------------------------------------------------------------------
// Scan range and progress
// -----------------------------------------------------------------------------

// ScanRange restricts the select to a byte range of the object.
//
// End is exclusive in the library's terms and optional: a zero End means
// "to the end of the object".
type ScanRange struct {
	Start int64
	End   int64
}

// AWS renders the scan range, or nil for the zero range (whole object).
func (r ScanRange) AWS() *types.ScanRange {
	if r.Start == 0 && r.End == 0 {
		return nil
	}
	sr := &types.ScanRange{Start: aws.Int64(r.Start)}
	if r.End != 0 {
		sr.End = aws.Int64(r.End)
	}
	return sr
}

// Validate checks the scan range bounds.
func (r ScanRange) Validate() error {
	if r.Start < 0 {
		return &ValidationError{Field: "scan_range.start", Message: "must be non-negative"}
	}
	if r.End != 0 && r.End < r.Start {
		return &ValidationError{Field: "scan_range.end", Message: "must not precede start"}
	}
	return nil
}

// Progress renders the RequestProgress flag.
func Progress(enabled bool) *types.RequestProgress {
	return &types.RequestProgress{Enabled: aws.Bool(enabled)}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
