package s3access

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"golang.org/x/sync/errgroup"

	"github.com/justapithecus/s3access/internal/cache"
	"github.com/justapithecus/s3access/internal/stream"
	"github.com/justapithecus/s3access/s3access/spec"
)

// SelectOption overrides a client default for one select call.
type SelectOption func(*selectConfig)

// WithInput overrides the input serialization.
func WithInput(in spec.Input) SelectOption {
	return func(cfg *selectConfig) { cfg.input = in }
}

// WithOutput overrides the output serialization.
func WithOutput(out spec.Output) SelectOption {
	return func(cfg *selectConfig) { cfg.output = out; cfg.outputSet = true }
}

// WithScanRange restricts the select to a byte range of each object.
func WithScanRange(r spec.ScanRange) SelectOption {
	return func(cfg *selectConfig) { cfg.scan = r }
}

// WithProgress sets a progress callback for this call.
func WithProgress(fn ProgressFunc) SelectOption {
	return func(cfg *selectConfig) { cfg.progress = fn }
}

// WithoutCache bypasses the result cache for this call.
func WithoutCache() SelectOption {
	return func(cfg *selectConfig) { cfg.noCache = true }
}

type selectConfig struct {
	input     spec.Input
	output    spec.Output
	outputSet bool
	scan      spec.ScanRange
	progress  ProgressFunc
	noCache   bool
}

func (c *Client) selectConfig(opts []SelectOption) selectConfig {
	cfg := selectConfig{
		input:    c.input,
		scan:     c.scan,
		progress: c.progress,
	}
	if c.output != nil {
		cfg.output = *c.output
		cfg.outputSet = true
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func (cfg *selectConfig) validate() error {
	if err := cfg.input.Validate(); err != nil {
		return err
	}
	if err := cfg.output.Validate(); err != nil {
		return err
	}
	return cfg.scan.Validate()
}

// fingerprint folds the serialization settings into the cache key, so a
// cached CSV result is never served for a JSON request.
func (cfg *selectConfig) fingerprint() string {
	return fmt.Sprintf("%+v|%+v|%+v", cfg.input, cfg.output, cfg.scan)
}

// Select runs the expression against a single object and returns the raw
// concatenated record payload.
func (c *Client) Select(ctx context.Context, path S3Path, expression string, opts ...SelectOption) ([]byte, error) {
	cfg := c.selectConfig(opts)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return c.selectCached(ctx, path, expression, cfg)
}

func (c *Client) selectCached(ctx context.Context, path S3Path, expression string, cfg selectConfig) ([]byte, error) {
	var key string
	if c.cache != nil && !cfg.noCache {
		key = cache.Key("select", cfg.fingerprint(), expression, path.String())
		if data, ok := c.cache.GetBytes(key); ok {
			c.log.Debug().Str("path", path.String()).Int("bytes", len(data)).Msg("select cache hit")
			return data, nil
		}
	}

	data, err := c.selectOne(ctx, path, expression, cfg)
	if err != nil {
		return nil, err
	}

	if key != "" {
		if err := c.cache.PutBytes(key, data); err != nil {
			c.log.Warn().Err(err).Str("path", path.String()).Msg("select cache write failed")
		}
	}
	return data, nil
}

func (c *Client) selectOne(ctx context.Context, path S3Path, expression string, cfg selectConfig) ([]byte, error) {
	in := &s3.SelectObjectContentInput{
		Bucket:              aws.String(path.Bucket()),
		Key:                 aws.String(path.Key()),
		Expression:          aws.String(expression),
		ExpressionType:      types.ExpressionTypeSql,
		InputSerialization:  cfg.input.AWS(),
		OutputSerialization: cfg.output.AWS(),
		ScanRange:           cfg.scan.AWS(),
		RequestProgress:     spec.Progress(cfg.progress != nil),
	}

	es, err := c.openStream(ctx, in)
	if err != nil {
		return nil, wrapErr("select", path, err)
	}

	var cb stream.Callbacks
	if cfg.progress != nil {
		cb.OnProgress = func(p types.Progress) {
			cfg.progress(path, fromTypes(p))
		}
	}

	payload, err := stream.Drain(ctx, es, cb)
	if err != nil {
		return nil, wrapErr("select", path, err)
	}
	c.log.Debug().Str("path", path.String()).Int("bytes", len(payload)).Msg("select complete")
	return payload, nil
}

// SelectMulti runs the expression against every path and gathers all
// results, keyed by path. Requests run concurrently up to the client's
// concurrency bound; the first error cancels outstanding work and fails
// the whole call.
func (c *Client) SelectMulti(ctx context.Context, paths []S3Path, expression string, opts ...SelectOption) (map[S3Path][]byte, error) {
	results := make(map[S3Path][]byte, len(paths))
	var mu sync.Mutex

	err := c.SelectEach(ctx, paths, expression, func(path S3Path, data []byte) error {
		mu.Lock()
		defer mu.Unlock()
		results[path] = data
		return nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	return results, nil
}

// SelectEach runs the expression against every path, delivering each
// object's payload to fn as it completes. Delivery order is unspecified.
// fn may be called from multiple goroutines; an error from fn cancels
// outstanding work.
func (c *Client) SelectEach(ctx context.Context, paths []S3Path, expression string, fn func(path S3Path, data []byte) error, opts ...SelectOption) error {
	cfg := c.selectConfig(opts)
	if err := cfg.validate(); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for _, path := range paths {
		path := path
		g.Go(func() error {
			data, err := c.selectCached(ctx, path, expression, cfg)
			if err != nil {
				return err
			}
			return fn(path, data)
		})
	}
	return g.Wait()
}

// SelectRows runs the query against every path and decodes the combined
// result with the reader.
//
// The reader's output serialization is the request default; WithOutput
// still overrides it. Readers implementing CachingReader participate in
// local result caching when the client has a cache directory: the whole
// combined result round-trips through one cache file keyed by query and
// source set.
func SelectRows[R any](ctx context.Context, c *Client, paths []S3Path, q Query, r Reader[R], opts ...SelectOption) (R, error) {
	var zero R
	expression := q.Expression()
	opts = append([]SelectOption{WithOutput(r.Output())}, opts...)
	cfg := c.selectConfig(opts)
	if err := cfg.validate(); err != nil {
		return zero, err
	}

	cachingReader, canCache := any(r).(CachingReader[R])
	var cachePath string
	if canCache && c.cache != nil && !cfg.noCache {
		parts := append([]string{"rows", cfg.fingerprint(), expression}, pathStrings(paths)...)
		ext := ".bin"
		if ce, ok := any(r).(CacheExt); ok {
			ext = ce.CacheExt()
		}
		cachePath = c.cache.Path(cache.Key(parts...), ext)
		if result, err := cachingReader.ReadCache(cachePath); err == nil {
			c.log.Debug().Str("file", cachePath).Msg("rows cache hit")
			return result, nil
		}
	}

	parts := make([]R, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			data, err := c.selectCached(gctx, path, expression, cfg)
			if err != nil {
				return err
			}
			decoded, err := r.Read(data)
			if err != nil {
				return &RequestError{Op: "decode", Path: path, Err: err}
			}
			parts[i] = decoded
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return zero, err
	}

	combined, err := r.Combine(parts)
	if err != nil {
		return zero, err
	}

	if cachePath != "" {
		if err := cachingReader.WriteCache(cachePath, combined); err != nil {
			c.log.Warn().Err(err).Str("file", cachePath).Msg("rows cache write failed")
		}
	}
	return combined, nil
}

func pathStrings(paths []S3Path) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = p.String()
	}
	return out
}
