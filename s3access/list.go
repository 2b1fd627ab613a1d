package s3access

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ListOption configures a listing.
type ListOption func(*listConfig)

// WithDelimiter groups keys on a delimiter, so only objects directly
// under the prefix are returned.
func WithDelimiter(d string) ListOption {
	return func(cfg *listConfig) { cfg.delimiter = d }
}

// WithSuffix keeps only keys with the given suffix (e.g. ".parquet").
func WithSuffix(s string) ListOption {
	return func(cfg *listConfig) { cfg.suffix = s }
}

// WithLimit caps the number of paths returned.
func WithLimit(n int) ListOption {
	return func(cfg *listConfig) { cfg.limit = n }
}

type listConfig struct {
	delimiter string
	suffix    string
	limit     int
}

// List expands a bucket+prefix path into the object paths beneath it,
// paginating as needed. Use it to feed SelectMulti or SelectRows from a
// prefix instead of a hand-built key list.
func (c *Client) List(ctx context.Context, path S3Path, opts ...ListOption) ([]S3Path, error) {
	it := c.Iterate(ctx, path, opts...)
	defer func() { _ = it.Close() }()

	var paths []S3Path
	for it.Next() {
		paths = append(paths, it.Path())
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return paths, nil
}

// Iterate returns a lazy iterator over the object paths beneath a
// bucket+prefix path. Pages are fetched on demand, so iteration over a
// large prefix does not buffer the whole listing.
func (c *Client) Iterate(ctx context.Context, path S3Path, opts ...ListOption) *PathIterator {
	var cfg listConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	in := &s3.ListObjectsV2Input{
		Bucket: aws.String(path.Bucket()),
	}
	if path.Key() != "" {
		in.Prefix = aws.String(path.Key())
	}
	if cfg.delimiter != "" {
		in.Delimiter = aws.String(cfg.delimiter)
	}

	return &PathIterator{
		ctx:    ctx,
		prefix: path,
		cfg:    cfg,
		pager:  s3.NewListObjectsV2Paginator(c.api, in),
		index:  -1, // Start before first element
	}
}

// PathIterator provides sequential access to listed object paths.
//
//   - Next() returns false after exhaustion or after Close() is called
//   - Close() is idempotent
//   - Err() may be called after exhaustion or close
type PathIterator struct {
	ctx    context.Context
	prefix S3Path
	cfg    listConfig
	pager  *s3.ListObjectsV2Paginator

	page    []S3Path
	index   int
	yielded int
	current S3Path
	err     error
	closed  bool
}

// Next advances to the next path, fetching the next page when the
// current one is exhausted. Returns false once exhausted, closed, after
// an error, or when the configured limit is reached.
func (it *PathIterator) Next() bool {
	if it.closed || it.err != nil {
		return false
	}
	if it.cfg.limit > 0 && it.yielded >= it.cfg.limit {
		return false
	}

	it.index++
	for it.index >= len(it.page) {
		if !it.pager.HasMorePages() {
			return false
		}
		out, err := it.pager.NextPage(it.ctx)
		if err != nil {
			it.err = wrapErr("list", it.prefix, err)
			return false
		}
		it.page = it.page[:0]
		for _, obj := range out.Contents {
			if obj.Key == nil {
				continue
			}
			p := it.prefix.WithKey(*obj.Key)
			if it.cfg.suffix != "" && !strings.HasSuffix(p.Key(), it.cfg.suffix) {
				continue
			}
			it.page = append(it.page, p)
		}
		it.index = 0
	}

	it.current = it.page[it.index]
	it.yielded++
	return true
}

// Path returns the current object path.
// Only valid after Next() returns true.
func (it *PathIterator) Path() S3Path {
	return it.current
}

// Err returns any error encountered during iteration.
func (it *PathIterator) Err() error {
	return it.err
}

// Close releases the page buffer and marks the iterator as closed.
// Idempotent: safe to call multiple times.
func (it *PathIterator) Close() error {
	it.closed = true
	it.page = nil
	return nil
}
