// Package s3access reads structured data out of S3 objects with
// SelectObjectContent, fanning out across many objects concurrently and
// decoding the result stream into rows, JSON records or typed tables.
package s3access

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
)

// Path parsing errors.
var (
	// ErrInvalidPath indicates a string could not be parsed as an S3 path.
	ErrInvalidPath = errors.New("invalid s3 path")
)

// S3Path identifies an object (or prefix) as bucket + key, with optional
// free-form parameters carried as a query string.
//
// S3Path is an immutable comparable value: derivation methods return a new
// path and never mutate the receiver, so paths are safe to use as map keys
// and to share across goroutines.
type S3Path struct {
	bucket string
	key    string
	params string
}

// NewPath builds a path from a bucket and key.
func NewPath(bucket, key string) S3Path {
	return S3Path{bucket: bucket, key: strings.TrimPrefix(key, "/")}
}

// ParsePath parses an "s3://bucket/key?param=value" URL.
//
// The scheme must be s3 and the bucket must be non-empty. The key may be
// empty (a bucket-level path) and the query string is preserved as
// parameters.
func ParsePath(raw string) (S3Path, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return S3Path{}, fmt.Errorf("%w: %q: %v", ErrInvalidPath, raw, err)
	}
	if u.Scheme != "s3" {
		return S3Path{}, fmt.Errorf("%w: %q: scheme must be s3", ErrInvalidPath, raw)
	}
	if u.Host == "" {
		return S3Path{}, fmt.Errorf("%w: %q: missing bucket", ErrInvalidPath, raw)
	}
	return S3Path{
		bucket: u.Host,
		key:    strings.TrimPrefix(u.Path, "/"),
		params: u.RawQuery,
	}, nil
}

// MustParsePath is ParsePath for statically known paths; it panics on error.
func MustParsePath(raw string) S3Path {
	p, err := ParsePath(raw)
	if err != nil {
		panic(err)
	}
	return p
}

// Bucket returns the bucket name.
func (p S3Path) Bucket() string { return p.bucket }

// Key returns the object key without a leading slash.
func (p S3Path) Key() string { return p.key }

// IsZero reports whether the path is the empty value.
func (p S3Path) IsZero() bool { return p == S3Path{} }

// WithBucket returns a copy of the path pointing at a different bucket.
func (p S3Path) WithBucket(bucket string) S3Path {
	p.bucket = bucket
	return p
}

// WithKey returns a copy of the path pointing at a different key.
func (p S3Path) WithKey(key string) S3Path {
	p.key = strings.TrimPrefix(key, "/")
	return p
}

// WithParams returns a copy of the path carrying the given parameters.
// Existing parameters are replaced wholesale.
func (p S3Path) WithParams(params url.Values) S3Path {
	p.params = params.Encode()
	return p
}

// Join returns a copy of the path with elem appended to the key.
// Duplicate separators are cleaned.
func (p S3Path) Join(elem string) S3Path {
	p.key = strings.TrimPrefix(path.Join(p.key, elem), "/")
	return p
}

// Param returns the named parameter, or "" if absent.
func (p S3Path) Param(name string) string {
	return p.parseParams().Get(name)
}

// HasParam reports whether the named parameter is present.
func (p S3Path) HasParam(name string) bool {
	return p.parseParams().Has(name)
}

// Params returns a copy of all parameters.
func (p S3Path) Params() url.Values {
	return p.parseParams()
}

func (p S3Path) parseParams() url.Values {
	if p.params == "" {
		return url.Values{}
	}
	v, err := url.ParseQuery(p.params)
	if err != nil {
		// Parameters are only ever set from url.Values or a parsed URL,
		// so this is unreachable in practice.
		return url.Values{}
	}
	return v
}

// String renders the canonical s3:// URL.
func (p S3Path) String() string {
	var b strings.Builder
	b.WriteString("s3://")
	b.WriteString(p.bucket)
	if p.key != "" {
		b.WriteString("/")
		b.WriteString(p.key)
	}
	if p.params != "" {
		b.WriteString("?")
		b.WriteString(p.params)
	}
	return b.String()
}
