package s3access

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/klauspost/compress/gzip"
)

// GetOption configures a Get call.
type GetOption func(*getConfig)

// WithRange reads length bytes starting at offset instead of the whole
// object. This is a true range read via the HTTP Range header.
func WithRange(offset, length int64) GetOption {
	return func(cfg *getConfig) {
		cfg.rangeSet = true
		cfg.offset = offset
		cfg.length = length
	}
}

// WithoutDecompression returns the stored bytes verbatim even when the
// object is gzip-encoded.
func WithoutDecompression() GetOption {
	return func(cfg *getConfig) { cfg.noDecompress = true }
}

type getConfig struct {
	rangeSet     bool
	offset       int64
	length       int64
	noDecompress bool
}

// Get downloads an object's content.
//
// Objects stored gzip-compressed (by Content-Encoding or a .gz key
// suffix) are decompressed transparently, except for range reads, where
// a partial gzip stream cannot be decoded and the raw bytes are
// returned.
func (c *Client) Get(ctx context.Context, path S3Path, opts ...GetOption) ([]byte, error) {
	var cfg getConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.rangeSet && (cfg.offset < 0 || cfg.length <= 0) {
		return nil, fmt.Errorf("invalid range: offset %d length %d", cfg.offset, cfg.length)
	}

	in := &s3.GetObjectInput{
		Bucket: aws.String(path.Bucket()),
		Key:    aws.String(path.Key()),
	}
	if cfg.rangeSet {
		in.Range = aws.String(fmt.Sprintf("bytes=%d-%d", cfg.offset, cfg.offset+cfg.length-1))
	}

	out, err := c.api.GetObject(ctx, in)
	if err != nil {
		return nil, wrapErr("get", path, err)
	}
	defer func() { _ = out.Body.Close() }()

	var body io.Reader = out.Body
	if !cfg.noDecompress && !cfg.rangeSet && isGzipObject(path, out.ContentEncoding) {
		zr, err := gzip.NewReader(body)
		if err != nil {
			return nil, wrapErr("get", path, fmt.Errorf("gzip: %w", err))
		}
		defer func() { _ = zr.Close() }()
		body = zr
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, wrapErr("get", path, err)
	}
	c.log.Debug().Str("path", path.String()).Int("bytes", len(data)).Msg("get complete")
	return data, nil
}

func isGzipObject(path S3Path, contentEncoding *string) bool {
	if contentEncoding != nil && strings.Contains(*contentEncoding, "gzip") {
		return true
	}
	return strings.HasSuffix(path.Key(), ".gz")
}
