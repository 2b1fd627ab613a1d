package s3access

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"

	"github.com/justapithecus/s3access/internal/cache"
	"github.com/justapithecus/s3access/internal/stream"
	"github.com/justapithecus/s3access/s3access/spec"
)

// API is the S3 surface the client consumes, satisfied by *s3.Client.
//
// Holding an interface rather than the concrete client keeps the library
// testable without a running S3 endpoint.
type API interface {
	SelectObjectContent(ctx context.Context, params *s3.SelectObjectContentInput, optFns ...func(*s3.Options)) (*s3.SelectObjectContentOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// Ensure the SDK client satisfies API.
var _ API = (*s3.Client)(nil)

// Progress reports how far a select has scanned into one object.
type Progress struct {
	BytesScanned   int64
	BytesProcessed int64
	BytesReturned  int64
}

// ProgressFunc receives periodic progress for the object being selected.
// It may be called concurrently for different paths.
type ProgressFunc func(path S3Path, p Progress)

// DefaultConcurrency bounds parallel per-object requests in multi-object
// operations unless overridden with Concurrency.
const DefaultConcurrency = 8

// Client executes select, get and list operations against S3.
//
// A Client is immutable after construction and safe for concurrent use.
type Client struct {
	api         API
	log         zerolog.Logger
	concurrency int
	cache       *cache.Cache

	// Request defaults, overridable per call.
	input    spec.Input
	output   *spec.Output
	scan     spec.ScanRange
	progress ProgressFunc

	// openStream issues the select and returns its event stream.
	// Tests substitute channel-backed fakes here.
	openStream func(ctx context.Context, in *s3.SelectObjectContentInput) (stream.Events, error)
}

// Option configures a Client.
type Option func(*Client) error

// Logger sets the client logger. The default discards everything.
func Logger(log zerolog.Logger) Option {
	return func(c *Client) error {
		c.log = log
		return nil
	}
}

// Concurrency bounds parallel per-object requests.
func Concurrency(n int) Option {
	return func(c *Client) error {
		if n < 1 {
			return fmt.Errorf("concurrency must be at least 1, got %d", n)
		}
		c.concurrency = n
		return nil
	}
}

// CacheDir enables local result caching rooted at dir.
func CacheDir(dir string) Option {
	return func(c *Client) error {
		cc, err := cache.New(dir)
		if err != nil {
			return err
		}
		c.cache = cc
		return nil
	}
}

// DefaultInput sets the input serialization used when a call does not
// override it. The zero default is uncompressed Parquet.
func DefaultInput(in spec.Input) Option {
	return func(c *Client) error {
		c.input = in
		return nil
	}
}

// DefaultOutput sets the output serialization used when neither the call
// nor the reader supplies one.
func DefaultOutput(out spec.Output) Option {
	return func(c *Client) error {
		c.output = &out
		return nil
	}
}

// DefaultScanRange sets a scan range applied when a call does not
// override it. The zero range selects whole objects.
func DefaultScanRange(r spec.ScanRange) Option {
	return func(c *Client) error {
		c.scan = r
		return nil
	}
}

// DefaultProgress sets a progress callback applied to every select.
func DefaultProgress(fn ProgressFunc) Option {
	return func(c *Client) error {
		c.progress = fn
		return nil
	}
}

// New creates a client over the given S3 API.
func New(api API, opts ...Option) (*Client, error) {
	c := &Client{
		api:         api,
		log:         zerolog.Nop(),
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	c.openStream = func(ctx context.Context, in *s3.SelectObjectContentInput) (stream.Events, error) {
		out, err := api.SelectObjectContent(ctx, in)
		if err != nil {
			return nil, err
		}
		return out.GetStream(), nil
	}
	return c, nil
}

// fromTypes converts the SDK progress details.
func fromTypes(p types.Progress) Progress {
	var out Progress
	if p.BytesScanned != nil {
		out.BytesScanned = *p.BytesScanned
	}
	if p.BytesProcessed != nil {
		out.BytesProcessed = *p.BytesProcessed
	}
	if p.BytesReturned != nil {
		out.BytesReturned = *p.BytesReturned
	}
	return out
}
