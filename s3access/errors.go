package s3access

import (
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/justapithecus/s3access/internal/stream"
)

// Request errors.
var (
	// ErrNotFound indicates the requested bucket or object does not exist.
	ErrNotFound = errors.New("object not found")

	// ErrTruncatedStream indicates a select response ended without the
	// service confirming the full result was delivered.
	ErrTruncatedStream = stream.ErrTruncated
)

// RequestError wraps a failure of a single S3 operation with the path it
// was issued against.
type RequestError struct {
	Op   string
	Path S3Path
	Err  error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("s3 %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// wrapErr attaches operation context to a service error, normalizing
// missing-object responses onto ErrNotFound.
func wrapErr(op string, path S3Path, err error) error {
	if err == nil {
		return nil
	}
	if isNotFound(err) {
		err = fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return &RequestError{Op: op, Path: path, Err: err}
}

func isNotFound(err error) bool {
	var noKey *types.NoSuchKey
	if errors.As(err, &noKey) {
		return true
	}
	var noBucket *types.NoSuchBucket
	if errors.As(err, &noBucket) {
		return true
	}
	var api smithy.APIError
	if errors.As(err, &api) {
		switch api.ErrorCode() {
		case "NoSuchKey", "NoSuchBucket", "NotFound":
			return true
		}
	}
	return false
}
