// Package s3 constructs AWS SDK S3 clients for use with s3access.
//
// Construction is optional convenience: any *s3.Client built directly
// with the AWS SDK works. This package only wraps the common cases:
// default credential chain, fixed region, static credentials, and
// S3-compatible endpoints (MinIO, LocalStack) with path-style addressing.
package s3

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
)

// Option configures client construction.
type Option func(*options)

type options struct {
	region    string
	endpoint  string
	pathStyle bool
	creds     aws.CredentialsProvider
}

// WithRegion pins the client to a region instead of resolving one from
// the environment.
func WithRegion(region string) Option {
	return func(o *options) { o.region = region }
}

// WithEndpoint points the client at an S3-compatible service and enables
// path-style addressing, which MinIO and LocalStack expect.
func WithEndpoint(url string) Option {
	return func(o *options) {
		o.endpoint = url
		o.pathStyle = true
	}
}

// WithStaticCredentials uses fixed credentials instead of the default
// provider chain. The session token may be empty.
func WithStaticCredentials(accessKeyID, secretAccessKey, sessionToken string) Option {
	return func(o *options) {
		o.creds = credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, sessionToken)
	}
}

// NewClient builds an S3 client from the default configuration chain
// (environment, shared config, instance metadata) plus the given options.
func NewClient(ctx context.Context, opts ...Option) (*awss3.Client, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var loadOpts []func(*config.LoadOptions) error
	if o.region != "" {
		loadOpts = append(loadOpts, config.WithRegion(o.region))
	}
	if o.creds != nil {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(o.creds))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}

	return awss3.NewFromConfig(cfg, func(c *awss3.Options) {
		if o.endpoint != "" {
			c.BaseEndpoint = aws.String(o.endpoint)
		}
		c.UsePathStyle = o.pathStyle
	}), nil
}
